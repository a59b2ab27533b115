package tts

import (
	"fmt"
	"os"
	"time"

	"github.com/go-audio/wav"
)

// WavStats WAV文件的基本参数
type WavStats struct {
	Duration   time.Duration
	SampleRate int
	Channels   int
	BitDepth   int
}

// InspectWav 读取WAV文件头，返回时长和采样参数。
// 用于在合成前校验TTS输出是否完整可用，比调用ffprobe逐个检查轻得多。
func InspectWav(path string) (*WavStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开WAV文件失败: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("不是有效的WAV文件: %s", path)
	}

	dur, err := dec.Duration()
	if err != nil {
		return nil, fmt.Errorf("读取WAV时长失败: %w", err)
	}

	return &WavStats{
		Duration:   dur,
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}, nil
}
