package synth

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanSegments(t *testing.T) {
	clips := []ClipInfo{
		{FileName: "tts_2000_5000_abcd1234.wav", Start: 2.0, End: 5.0, OriginalDuration: 3.0, NewDuration: 3.5},
		{FileName: "tts_8000_12000_deadbeef.wav", Start: 8.0, End: 12.0, OriginalDuration: 4.0, NewDuration: 4.0},
	}

	plans := PlanSegments(clips, 20.0, 1.0)
	require.Len(t, plans, 5)

	// 开头间隙 0-2s
	assert.Equal(t, SegmentGap, plans[0].Kind)
	assert.InDelta(t, 0.0, plans[0].Start, 1e-9)
	assert.InDelta(t, 2.0, plans[0].End, 1e-9)

	// 第一个说话片段
	assert.Equal(t, SegmentSpeech, plans[1].Kind)
	require.NotNil(t, plans[1].Clip)
	assert.Equal(t, "tts_2000_5000_abcd1234.wav", plans[1].Clip.FileName)

	// 中间间隙 5-8s
	assert.Equal(t, SegmentGap, plans[2].Kind)
	assert.InDelta(t, 3.0, plans[2].Duration, 1e-9)

	// 第二个说话片段
	assert.Equal(t, SegmentSpeech, plans[3].Kind)

	// 尾部 12-20s
	assert.Equal(t, SegmentTail, plans[4].Kind)
	assert.InDelta(t, 8.0, plans[4].Duration, 1e-9)
}

func TestPlanSegmentsDiscardsShortGaps(t *testing.T) {
	clips := []ClipInfo{
		{Start: 0.5, End: 3.0, OriginalDuration: 2.5, NewDuration: 2.5},
		{Start: 3.2, End: 6.0, OriginalDuration: 2.8, NewDuration: 3.0},
	}

	// 开头0.5s间隙和中间0.2s间隙都短于1s，应丢弃
	plans := PlanSegments(clips, 6.5, 1.0)
	require.Len(t, plans, 2)
	assert.Equal(t, SegmentSpeech, plans[0].Kind)
	assert.Equal(t, SegmentSpeech, plans[1].Kind)
}

func TestPlanSegmentsSortsByStart(t *testing.T) {
	// 乱序输入应按开始时间排序
	clips := []ClipInfo{
		{FileName: "b.wav", Start: 10.0, End: 12.0, OriginalDuration: 2.0, NewDuration: 2.0},
		{FileName: "a.wav", Start: 1.0, End: 3.0, OriginalDuration: 2.0, NewDuration: 2.0},
	}

	plans := PlanSegments(clips, 12.0, 1.0)

	var speeches []string
	for _, p := range plans {
		if p.Kind == SegmentSpeech {
			speeches = append(speeches, p.Clip.FileName)
		}
	}
	assert.Equal(t, []string{"a.wav", "b.wav"}, speeches)
}

func TestPlanSegmentsNoTailWhenCovered(t *testing.T) {
	clips := []ClipInfo{
		{Start: 0.0, End: 10.0, OriginalDuration: 10.0, NewDuration: 9.0},
	}

	plans := PlanSegments(clips, 10.0, 1.0)
	require.Len(t, plans, 1)
	assert.Equal(t, SegmentSpeech, plans[0].Kind)
}

func TestSpeedFactor(t *testing.T) {
	speech := SegmentPlan{
		Kind:     SegmentSpeech,
		Duration: 3.0,
		Clip:     &ClipInfo{NewDuration: 4.0},
	}
	assert.InDelta(t, 0.75, speech.SpeedFactor(), 1e-9)

	// 间隙片段没有关联音频，速度因子为1
	gap := SegmentPlan{Kind: SegmentGap, Duration: 2.0}
	assert.InDelta(t, 1.0, gap.SpeedFactor(), 1e-9)

	// 配音时长为0时不调速
	broken := SegmentPlan{Kind: SegmentSpeech, Duration: 3.0, Clip: &ClipInfo{NewDuration: 0}}
	assert.InDelta(t, 1.0, broken.SpeedFactor(), 1e-9)
}

func TestWriteConcatList(t *testing.T) {
	dir := t.TempDir()
	listPath := filepath.Join(dir, "list.txt")

	files := []string{
		filepath.Join(dir, "seg_0.mp4"),
		filepath.Join(dir, "seg_1.mp4"),
	}
	require.NoError(t, writeConcatList(listPath, files))

	data, err := os.ReadFile(listPath)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	for i, line := range lines {
		assert.True(t, strings.HasPrefix(line, "file '"), "行格式错误: %s", line)
		assert.Contains(t, line, files[i])
	}
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "1.500", formatSeconds(1.5))
	assert.Equal(t, "0.000", formatSeconds(0))
	assert.Equal(t, "125.480", formatSeconds(125.48))
}
