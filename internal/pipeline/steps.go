package pipeline

import (
	"fmt"
	"strings"
)

// Step 流水线步骤名
type Step string

const (
	StepPrepare   Step = "prepare"   // 视频入库并提取原始音频
	StepDenoise   Step = "denoise"   // 降噪
	StepASR       Step = "asr"       // 语音识别
	StepTranslate Step = "translate" // 翻译
	StepTTS       Step = "tts"       // 配音合成
	StepSynth     Step = "synth"     // 视频合成
)

// StepOrder 步骤的固定执行顺序
var StepOrder = []Step{StepPrepare, StepDenoise, StepASR, StepTranslate, StepTTS, StepSynth}

// StepNames 所有步骤名，逗号分隔
func StepNames() string {
	names := make([]string, len(StepOrder))
	for i, s := range StepOrder {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

func stepIndex(s Step) int {
	for i, known := range StepOrder {
		if s == known {
			return i
		}
	}
	return -1
}

// ParseStep 解析步骤名
func ParseStep(name string) (Step, error) {
	s := Step(strings.ToLower(strings.TrimSpace(name)))
	if stepIndex(s) < 0 {
		return "", fmt.Errorf("未知的流水线步骤: %q (可选: %s)", name, StepNames())
	}
	return s, nil
}

// StepsBetween 返回[from, until]闭区间内的步骤序列。
// 编辑流程先跑 -until translate，手工校对译文后再 -from tts 续跑。
func StepsBetween(from, until Step) ([]Step, error) {
	fi := stepIndex(from)
	if fi < 0 {
		return nil, fmt.Errorf("未知的起始步骤: %q (可选: %s)", from, StepNames())
	}
	ui := stepIndex(until)
	if ui < 0 {
		return nil, fmt.Errorf("未知的结束步骤: %q (可选: %s)", until, StepNames())
	}
	if fi > ui {
		return nil, fmt.Errorf("起始步骤 %s 在结束步骤 %s 之后", from, until)
	}

	steps := make([]Step, ui-fi+1)
	copy(steps, StepOrder[fi:ui+1])
	return steps, nil
}
