package synth

import (
	"sort"

	"github.com/ccp-p/video-dubbing-cli/pkg/utils"
)

// ClipInfo 一段配音音频及其对应的原始说话区间
type ClipInfo struct {
	FileName         string  // 音频文件名
	Path             string  // 音频文件完整路径
	Start            float64 // 原始说话开始时间(秒)
	End              float64 // 原始说话结束时间(秒)
	OriginalDuration float64 // 原始说话时长(秒)
	NewDuration      float64 // 配音音频实际时长(秒)
}

// SegmentKind 视频片段类型
type SegmentKind string

const (
	SegmentGap    SegmentKind = "gap"    // 间隙片段（无人说话）
	SegmentSpeech SegmentKind = "speech" // 说话片段
	SegmentTail   SegmentKind = "tail"   // 尾部片段
)

// SegmentPlan 时间轴上的一个待处理片段
type SegmentPlan struct {
	Kind     SegmentKind
	Start    float64     // 开始时间(秒)
	End      float64     // 结束时间(秒)
	Duration float64     // 时长(秒)
	Clip     *ClipInfo   // 仅说话片段关联配音音频
}

// SpeedFactor 说话片段的速度因子（原时长/配音时长）
func (p SegmentPlan) SpeedFactor() float64 {
	if p.Clip == nil || p.Clip.NewDuration <= 0 {
		return 1.0
	}
	return p.Duration / p.Clip.NewDuration
}

// PlanSegments 把视频时间轴切成间隙/说话/尾部三类片段。
// 短于minGap的间隙和尾部直接丢弃，说话片段永不丢弃。
func PlanSegments(clips []ClipInfo, videoDuration, minGap float64) []SegmentPlan {
	sorted := make([]ClipInfo, len(clips))
	copy(sorted, clips)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	var plans []SegmentPlan
	current := 0.0

	for i := range sorted {
		clip := &sorted[i]

		// 说话片段之前的间隙
		if clip.Start > current {
			gapDuration := clip.Start - current
			if gapDuration < minGap {
				utils.Debug("间隙片段太短 (%.2fs < %.1fs)，丢弃: %.2f-%.2fs",
					gapDuration, minGap, current, clip.Start)
			} else {
				plans = append(plans, SegmentPlan{
					Kind:     SegmentGap,
					Start:    current,
					End:      clip.Start,
					Duration: gapDuration,
				})
			}
		}

		plans = append(plans, SegmentPlan{
			Kind:     SegmentSpeech,
			Start:    clip.Start,
			End:      clip.End,
			Duration: clip.OriginalDuration,
			Clip:     clip,
		})

		current = clip.End
	}

	// 尾部片段
	if current < videoDuration {
		tailDuration := videoDuration - current
		if tailDuration < minGap {
			utils.Debug("尾部片段太短 (%.2fs < %.1fs)，丢弃", tailDuration, minGap)
		} else {
			plans = append(plans, SegmentPlan{
				Kind:     SegmentTail,
				Start:    current,
				End:      videoDuration,
				Duration: tailDuration,
			})
		}
	}

	return plans
}
