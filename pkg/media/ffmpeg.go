package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/ccp-p/video-dubbing-cli/pkg/utils"
)

// MediaInfo 媒体文件的探测结果
type MediaInfo struct {
	Path          string  // 文件路径
	Duration      float64 // 时长(秒)
	Size          int64   // 文件大小(字节)
	VideoStreams  int     // 视频流数量
	AudioStreams  int     // 音频流数量
	VideoDuration float64 // 视频流时长(秒)
	AudioDuration float64 // 音频流时长(秒)
	Width         int     // 视频宽度
	Height        int     // 视频高度
	SampleRate    int     // 音频采样率(Hz)
	Channels      int     // 声道数
}

// HasVideo 是否含视频流
func (m *MediaInfo) HasVideo() bool { return m.VideoStreams > 0 }

// HasAudio 是否含音频流
func (m *MediaInfo) HasAudio() bool { return m.AudioStreams > 0 }

// CheckFFmpeg 检查ffmpeg是否可用
func CheckFFmpeg() bool {
	return exec.Command("ffmpeg", "-version").Run() == nil
}

// CheckFFprobe 检查ffprobe是否可用
func CheckFFprobe() bool {
	return exec.Command("ffprobe", "-version").Run() == nil
}

// ffprobe -print_format json 的输出结构
type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
		Size     string `json:"size"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		Duration   string `json:"duration"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
}

// Probe 获取媒体文件的完整信息
func Probe(ctx context.Context, path string) (*MediaInfo, error) {
	output, err := utils.RunCommandOutput(ctx,
		"ffprobe",
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if err != nil {
		return nil, fmt.Errorf("获取媒体信息失败: %w", err)
	}

	return parseProbeOutput(path, []byte(output))
}

func parseProbeOutput(path string, data []byte) (*MediaInfo, error) {
	var probed probeOutput
	if err := json.Unmarshal(data, &probed); err != nil {
		return nil, fmt.Errorf("解析媒体信息失败: %w", err)
	}

	info := &MediaInfo{Path: path}

	if d, err := strconv.ParseFloat(probed.Format.Duration, 64); err == nil {
		info.Duration = d
	}
	if s, err := strconv.ParseInt(probed.Format.Size, 10, 64); err == nil {
		info.Size = s
	}

	for _, stream := range probed.Streams {
		switch stream.CodecType {
		case "video":
			info.VideoStreams++
			if stream.Width > 0 {
				info.Width = stream.Width
				info.Height = stream.Height
			}
			if d, err := strconv.ParseFloat(stream.Duration, 64); err == nil {
				info.VideoDuration = d
			}
		case "audio":
			info.AudioStreams++
			if rate, err := strconv.Atoi(stream.SampleRate); err == nil {
				info.SampleRate = rate
			}
			if stream.Channels > 0 {
				info.Channels = stream.Channels
			}
			if d, err := strconv.ParseFloat(stream.Duration, 64); err == nil {
				info.AudioDuration = d
			}
		}
	}

	return info, nil
}

// Duration 只取媒体时长（秒）
func Duration(ctx context.Context, path string) (float64, error) {
	output, err := utils.RunCommandOutput(ctx,
		"ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("获取媒体时长失败: %w", err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(output), 64)
	if err != nil {
		return 0, fmt.Errorf("解析媒体时长失败: %w", err)
	}

	return duration, nil
}

// RunFFmpeg 执行一条ffmpeg命令（总是附加 -y 覆盖输出），失败时带上stderr内容
func RunFFmpeg(ctx context.Context, args ...string) error {
	full := append([]string{"-y", "-v", "error"}, args...)
	cmd := exec.CommandContext(ctx, "ffmpeg", full...)

	utils.Debug("执行命令: ffmpeg %s", strings.Join(full, " "))

	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg被取消: %w", ctx.Err())
		}
		msg := strings.TrimSpace(string(output))
		if msg != "" {
			return fmt.Errorf("ffmpeg执行失败: %w: %s", err, msg)
		}
		return fmt.Errorf("ffmpeg执行失败: %w", err)
	}

	return nil
}

// ExtractAudio 从视频中提取16kHz单声道PCM音频（识别流水线的标准输入格式）
func ExtractAudio(ctx context.Context, videoPath, outputPath string, hwaccel []string) error {
	args := append([]string{}, hwaccel...)
	args = append(args,
		"-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		outputPath,
	)

	if err := RunFFmpeg(ctx, args...); err != nil {
		return fmt.Errorf("音频提取失败: %w", err)
	}

	utils.Info("音频提取成功: %s -> %s", videoPath, outputPath)
	return nil
}
