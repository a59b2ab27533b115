package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"
)

// 合成后端
const (
	SynthBackendNative = "native" // 内置ffmpeg流程
	SynthBackendScript = "script" // 外部合成脚本
)

// Config 表示应用程序的配置
type Config struct {
	DataDir        string  `json:"data_dir"`         // 项目数据根目录，每个视频一个子目录
	MediaFolder    string  `json:"media_folder"`     // 批量/监听模式的视频来源目录
	PythonBin      string  `json:"python_bin"`       // Python解释器
	ToolsDir       string  `json:"tools_dir"`        // 外部工具脚本所在目录
	ToolDenoise    string  `json:"tool_denoise"`     // 降噪脚本
	ToolASR        string  `json:"tool_asr"`         // 语音识别脚本
	ToolTranslator string  `json:"tool_translator"`  // 翻译脚本
	ToolTTS        string  `json:"tool_tts"`         // 语音合成脚本
	ToolSynth      string  `json:"tool_synth"`       // 外部视频合成脚本
	ASRModel       string  `json:"asr_model"`        // 识别模型规格，透传给ASR脚本
	ReferenceAudio string  `json:"reference_audio"`  // TTS参考音频
	TTSServiceURL  string  `json:"tts_service_url"`  // TTS服务地址
	SynthBackend   string  `json:"synth_backend"`    // 合成后端: native(内置ffmpeg) / script(外部脚本)
	MaxWorkers     int     `json:"max_workers"`      // 片段处理并发数
	MinGapSeconds  float64 `json:"min_gap_seconds"`  // 短于该时长的间隙/尾段被丢弃（秒）
	SpeedTolerance float64 `json:"speed_tolerance"`  // 变速因子与1的差小于该值时跳过变速
	UseGPU         bool    `json:"use_gpu"`          // 是否允许使用硬件编码器
	KeepTemp       bool    `json:"keep_temp"`        // 合成后保留临时目录
	ShowProgress   bool    `json:"show_progress"`    // 显示进度条
	WatchMode      bool    `json:"watch_mode"`       // 是否启用监听模式
	ExportSRT      bool    `json:"export_srt"`       // 流水线完成后导出SRT字幕
	Port           int     `json:"port"`             // 编辑服务端口
	LogLevel       string  `json:"log_level"`        // 日志级别
	LogFile        string  `json:"log_file"`         // 日志文件
}

// ConfigValidationError 表示配置验证错误
type ConfigValidationError struct {
	Field   string
	Message string
}

func (e ConfigValidationError) Error() string {
	return fmt.Sprintf("配置验证错误: %s - %s", e.Field, e.Message)
}

// NewDefaultConfig 创建默认配置
func NewDefaultConfig() *Config {
	return &Config{
		DataDir:        "data",
		MediaFolder:    "",
		PythonBin:      "python3",
		ToolsDir:       ".",
		ToolDenoise:    "noise_reduction.py",
		ToolASR:        "asr.py",
		ToolTranslator: "translator.py",
		ToolTTS:        "tts.py",
		ToolSynth:      "video_synthesizer.py",
		ASRModel:       "small",
		ReferenceAudio: filepath.Join("data", "ICT-ref-short.WAV"),
		TTSServiceURL:  "http://127.0.0.1:9872",
		SynthBackend:   SynthBackendNative,
		MaxWorkers:     4,
		MinGapSeconds:  1.0,
		SpeedTolerance: 0.01,
		UseGPU:         true,
		KeepTemp:       true,
		ShowProgress:   true,
		WatchMode:      false,
		ExportSRT:      false,
		Port:           8080,
		LogLevel:       "info",
		LogFile:        "",
	}
}

// Validate 验证配置是否有效
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return &ConfigValidationError{"DataDir", "不能为空"}
	}
	if err := ensureDirExists(c.DataDir); err != nil {
		return &ConfigValidationError{"DataDir", err.Error()}
	}

	if err := ensureDirExists(c.MediaFolder); err != nil {
		return &ConfigValidationError{"MediaFolder", err.Error()}
	}

	if c.PythonBin == "" {
		return &ConfigValidationError{"PythonBin", "不能为空"}
	}

	if c.SynthBackend != SynthBackendNative && c.SynthBackend != SynthBackendScript {
		return &ConfigValidationError{"SynthBackend", "必须是 native 或 script"}
	}

	if c.MaxWorkers < 1 || c.MaxWorkers > 16 {
		return &ConfigValidationError{"MaxWorkers", "必须在1-16之间"}
	}

	if c.MinGapSeconds < 0.1 || c.MinGapSeconds > 5.0 {
		return &ConfigValidationError{"MinGapSeconds", "必须在0.1-5.0秒之间"}
	}

	if c.SpeedTolerance < 0.001 || c.SpeedTolerance > 0.1 {
		return &ConfigValidationError{"SpeedTolerance", "必须在0.001-0.1之间"}
	}

	if c.Port < 1 || c.Port > 65535 {
		return &ConfigValidationError{"Port", "必须是有效端口号"}
	}

	return nil
}

// LoadFromFile 从文件加载配置
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("读取配置文件失败: %v", err)
		return err
	}

	err = json.Unmarshal(data, c)
	if err != nil {
		logrus.Errorf("解析配置文件失败: %v", err)
		return err
	}

	if err := c.Validate(); err != nil {
		logrus.Errorf("配置验证失败: %v", err)
		return err
	}

	return nil
}

// SaveToFile 保存配置到文件
func (c *Config) SaveToFile(path string) error {
	// 确保目录存在
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logrus.Errorf("创建目录失败: %v", err)
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		logrus.Errorf("序列化配置失败: %v", err)
		return err
	}

	err = os.WriteFile(path, data, 0644)
	if err != nil {
		logrus.Errorf("写入配置文件失败: %v", err)
		return err
	}

	return nil
}

// Update 批量更新配置
func (c *Config) Update(updates map[string]interface{}) error {
	// 保存当前配置用于回滚
	tempConfig := *c

	// 将更新序列化为JSON再反序列化到结构体中
	// 这种方式处理map到struct的转换较为方便
	updateBytes, err := json.Marshal(updates)
	if err != nil {
		logrus.Errorf("序列化更新数据失败: %v", err)
		return err
	}

	err = json.Unmarshal(updateBytes, c)
	if err != nil {
		*c = tempConfig
		logrus.Errorf("应用配置更新失败: %v", err)
		return err
	}

	if err := c.Validate(); err != nil {
		*c = tempConfig
		logrus.Errorf("配置验证失败: %v", err)
		return err
	}

	return nil
}

// ApplyEnvOverrides 应用环境变量覆盖（DUB_DATA_DIR / DUB_PORT / DUB_LOG_LEVEL）
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("DUB_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("DUB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv("DUB_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// ToolPath 返回某个外部工具脚本的完整路径
func (c *Config) ToolPath(script string) string {
	if filepath.IsAbs(script) {
		return script
	}
	return filepath.Join(c.ToolsDir, script)
}

// Reset 重置为默认配置
func (c *Config) Reset() {
	defaultConfig := NewDefaultConfig()
	*c = *defaultConfig
}

// PrintConfig 打印当前配置
func (c *Config) PrintConfig() {
	logrus.Info("\n当前配置:")
	bytes, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		logrus.Errorf("序列化配置失败: %v", err)
		return
	}
	logrus.Info(string(bytes))
}

// 确保目录存在，如果不存在则创建
func ensureDirExists(path string) error {
	if path == "" {
		return nil // 空路径视为可选
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, 0755)
	}

	return nil
}
