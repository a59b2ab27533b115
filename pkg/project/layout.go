package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// 项目目录内的固定产物文件名
const (
	OriginalAudioName  = "original_audio.wav"
	DenoisedAudioName  = "denoised.wav"
	ASRResultsName     = "denoised_asr_results.json"
	TranslatedFileName = "denoised_translated_results.json"
	TTSOutputDirName   = "tts_output"
	SegmentsDirName    = "segments"
)

// 识别为视频的扩展名
var videoExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".wmv", ".flv", ".webm"}

// Layout 描述数据根目录下一个项目的产物路径。
// 项目名取自视频文件的basename，一个视频一个目录。
type Layout struct {
	DataDir string
	Name    string
}

// NewLayout 创建项目布局
func NewLayout(dataDir, name string) Layout {
	return Layout{DataDir: dataDir, Name: name}
}

// LayoutForVideo 根据视频路径推导项目布局
func LayoutForVideo(dataDir, videoPath string) Layout {
	base := filepath.Base(videoPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return Layout{DataDir: dataDir, Name: name}
}

// Dir 项目目录
func (l Layout) Dir() string {
	return filepath.Join(l.DataDir, l.Name)
}

// VideoPath 项目内源视频的路径（保留原扩展名）
func (l Layout) VideoPath(ext string) string {
	return filepath.Join(l.Dir(), l.Name+ext)
}

// OriginalAudio 提取出的原始音频
func (l Layout) OriginalAudio() string {
	return filepath.Join(l.Dir(), OriginalAudioName)
}

// DenoisedAudio 降噪后的音频
func (l Layout) DenoisedAudio() string {
	return filepath.Join(l.Dir(), DenoisedAudioName)
}

// ASRResults 识别结果JSON
func (l Layout) ASRResults() string {
	return filepath.Join(l.Dir(), ASRResultsName)
}

// TranslatedResults 翻译结果JSON，编辑服务操作的就是这个文件
func (l Layout) TranslatedResults() string {
	return filepath.Join(l.Dir(), TranslatedFileName)
}

// TTSOutputDir 语音合成输出目录
func (l Layout) TTSOutputDir() string {
	return filepath.Join(l.Dir(), TTSOutputDirName)
}

// SegmentsDir 视频合成的片段缓存目录
func (l Layout) SegmentsDir() string {
	return filepath.Join(l.Dir(), SegmentsDirName)
}

// FinalVideo 内置合成器的输出
func (l Layout) FinalVideo() string {
	return filepath.Join(l.Dir(), l.Name+"_final.mp4")
}

// SynthesizedVideo 外部合成脚本的输出
func (l Layout) SynthesizedVideo() string {
	return filepath.Join(l.Dir(), l.Name+"_synthesized.mp4")
}

// FindVideo 在项目目录中定位源视频文件
func (l Layout) FindVideo() (string, error) {
	for _, ext := range videoExtensions {
		candidates := []string{
			l.VideoPath(ext),
			l.VideoPath(strings.ToUpper(ext)),
		}
		for _, p := range candidates {
			if info, err := os.Stat(p); err == nil && !info.IsDir() {
				return p, nil
			}
		}
	}
	return "", fmt.Errorf("项目 %s 中找不到源视频", l.Name)
}

// IsVideoFile 判断路径是否为支持的视频文件
func IsVideoFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, v := range videoExtensions {
		if ext == v {
			return true
		}
	}
	return false
}

// StageStatus 项目各阶段产物的存在情况
type StageStatus struct {
	Project        string `json:"project"`
	HasVideo       bool   `json:"has_video"`
	HasDenoised    bool   `json:"has_denoised"`
	HasASR         bool   `json:"has_asr"`
	HasTranslation bool   `json:"has_translation"`
	TTSCount       int    `json:"tts_count"`
	HasFinal       bool   `json:"has_final"`
	HasSynthesized bool   `json:"has_synthesized"`
}

// Inspect 检查项目目录，报告每个阶段产物是否就绪
func Inspect(l Layout) StageStatus {
	status := StageStatus{Project: l.Name}

	if _, err := l.FindVideo(); err == nil {
		status.HasVideo = true
	}
	status.HasDenoised = fileExists(l.DenoisedAudio())
	status.HasASR = fileExists(l.ASRResults())
	status.HasTranslation = fileExists(l.TranslatedResults())
	status.HasFinal = fileExists(l.FinalVideo())
	status.HasSynthesized = fileExists(l.SynthesizedVideo())

	if matches, err := filepath.Glob(filepath.Join(l.TTSOutputDir(), "tts_*.wav")); err == nil {
		status.TTSCount = len(matches)
	}

	return status
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
