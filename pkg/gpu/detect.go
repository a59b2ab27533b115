package gpu

import (
	"context"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/ccp-p/video-dubbing-cli/pkg/utils"
)

// Kind 显卡类型
type Kind string

const (
	KindNvidia Kind = "nvidia"
	KindAMD    Kind = "amd"
	KindIntel  Kind = "intel"
	KindNone   Kind = "none"
)

// Info 硬件编码能力
type Info struct {
	Kind    Kind
	Encoder string // 可用的h264硬件编码器名，没有则为空
}

var (
	detectOnce sync.Once
	detected   Info
)

// Detect 探测可用的硬件编码器：解析 ffmpeg -encoders 输出，
// 按 nvenc > amf > qsv 的优先级取第一个可用的。结果进程内缓存。
func Detect(ctx context.Context) Info {
	detectOnce.Do(func() {
		detected = detect(ctx)
	})
	return detected
}

func detect(ctx context.Context) Info {
	output, err := utils.RunCommandOutput(ctx, "ffmpeg", "-hide_banner", "-encoders")
	if err != nil {
		utils.Warn("检测硬件编码器失败，回退到CPU编码: %v", err)
		return Info{Kind: KindNone}
	}

	info := parseEncoders(output)
	if info.Available() {
		utils.Info("检测到硬件编码器: %s", info.Encoder)
	} else {
		utils.Info("未检测到硬件编码器，使用CPU编码")
	}
	return info
}

// 从 ffmpeg -encoders 的输出中按优先级找h264硬件编码器
func parseEncoders(output string) Info {
	candidates := []struct {
		encoder string
		kind    Kind
	}{
		{"h264_nvenc", KindNvidia},
		{"h264_amf", KindAMD},
		{"h264_qsv", KindIntel},
	}

	for _, c := range candidates {
		if strings.Contains(output, c.encoder) {
			return Info{Kind: c.kind, Encoder: c.encoder}
		}
	}

	return Info{Kind: KindNone}
}

// Available 是否有可用的硬件编码器
func (i Info) Available() bool {
	return i.Encoder != ""
}

// EncoderArgs 返回视频编码参数。硬件编码器带各自的质量参数，
// 没有硬件时退回 libx264 ultrafast。
func (i Info) EncoderArgs() []string {
	switch i.Kind {
	case KindNvidia:
		return []string{"-c:v", "h264_nvenc", "-preset", "p4", "-tune", "hq"}
	case KindAMD:
		return []string{"-c:v", "h264_amf", "-quality", "balanced"}
	case KindIntel:
		return []string{"-c:v", "h264_qsv", "-preset", "medium"}
	default:
		return []string{"-c:v", "libx264", "-preset", "ultrafast"}
	}
}

// HWAccelArgs 返回解码加速参数（放在 -i 之前）
func (i Info) HWAccelArgs() []string {
	switch i.Kind {
	case KindNvidia:
		return []string{"-hwaccel", "cuda"}
	case KindIntel:
		return []string{"-hwaccel", "qsv"}
	default:
		return nil
	}
}

// Print 打印检测结果
func (i Info) Print() {
	if i.Available() {
		color.Green("硬件编码器: %s (%s)", i.Encoder, i.Kind)
	} else {
		color.Yellow("硬件编码器: 不可用，使用CPU编码")
	}
}
