package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ccp-p/video-dubbing-cli/pkg/media"
	"github.com/ccp-p/video-dubbing-cli/pkg/models"
	"github.com/ccp-p/video-dubbing-cli/pkg/utils"
)

// Preflight 在第一个步骤前检查运行环境，按将要执行的步骤裁剪检查项。
// 任何一项失败都是致命的。
func Preflight(ctx context.Context, cfg *models.Config, steps []Step) error {
	if !utils.CheckFFmpeg() {
		return fmt.Errorf("未找到ffmpeg，请先安装")
	}
	if !media.CheckFFprobe() {
		return fmt.Errorf("未找到ffprobe，请先安装")
	}

	if hasExternalTool(cfg, steps) && !utils.CheckExecutable(cfg.PythonBin) {
		return fmt.Errorf("未找到Python解释器: %s", cfg.PythonBin)
	}

	for step, script := range stepScripts(cfg) {
		if !hasStep(steps, step) {
			continue
		}
		toolPath := cfg.ToolPath(script)
		if !utils.CheckFileExists(toolPath) {
			return fmt.Errorf("步骤 %s 的工具脚本不存在: %s", step, toolPath)
		}
	}

	// 翻译工具依赖DashScope
	if hasStep(steps, StepTranslate) && os.Getenv("DASHSCOPE_API_KEY") == "" {
		return fmt.Errorf("未设置DASHSCOPE_API_KEY环境变量，翻译步骤无法运行")
	}

	// 配音依赖本地TTS服务
	if hasStep(steps, StepTTS) {
		if err := probeTTSService(ctx, cfg.TTSServiceURL); err != nil {
			return err
		}
		if cfg.ReferenceAudio != "" && !utils.CheckFileExists(cfg.ReferenceAudio) {
			return fmt.Errorf("TTS参考音频不存在: %s", cfg.ReferenceAudio)
		}
	}

	utils.Debug("环境检查通过")
	return nil
}

// stepScripts 各步骤对应的外部脚本
func stepScripts(cfg *models.Config) map[Step]string {
	scripts := map[Step]string{
		StepDenoise:   cfg.ToolDenoise,
		StepASR:       cfg.ToolASR,
		StepTranslate: cfg.ToolTranslator,
		StepTTS:       cfg.ToolTTS,
	}
	if cfg.SynthBackend == models.SynthBackendScript {
		scripts[StepSynth] = cfg.ToolSynth
	}
	return scripts
}

func hasStep(steps []Step, want Step) bool {
	for _, s := range steps {
		if s == want {
			return true
		}
	}
	return false
}

// hasExternalTool 是否有需要Python解释器的步骤
func hasExternalTool(cfg *models.Config, steps []Step) bool {
	for step := range stepScripts(cfg) {
		if hasStep(steps, step) {
			return true
		}
	}
	return false
}

// probeTTSService 用短超时GET探测TTS服务是否在线
func probeTTSService(ctx context.Context, baseURL string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return fmt.Errorf("TTS服务地址无效 %s: %w", baseURL, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("TTS服务不可达 %s: %w", baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("TTS服务异常: %s", resp.Status)
	}

	utils.Debug("TTS服务在线: %s", baseURL)
	return nil
}
