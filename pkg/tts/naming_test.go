package tts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccp-p/video-dubbing-cli/pkg/models"
)

func TestOutputName(t *testing.T) {
	name := OutputName(1500, 8000, "欢迎来到本课程。")

	// 命名格式：tts_<start>_<end>_<8位哈希>.wav
	assert.Regexp(t, `^tts_1500_8000_[0-9a-f]{8}\.wav$`, name)

	// 同样输入得到同样文件名
	assert.Equal(t, name, OutputName(1500, 8000, "欢迎来到本课程。"))

	// 文本变化导致文件名变化
	assert.NotEqual(t, name, OutputName(1500, 8000, "文本改了。"))
}

func TestParseOutputName(t *testing.T) {
	start, end, ok := ParseOutputName("tts_1500_8000_abcd1234.wav")
	require.True(t, ok)
	assert.Equal(t, int64(1500), start)
	assert.Equal(t, int64(8000), end)

	_, _, ok = ParseOutputName("random.wav")
	assert.False(t, ok)

	_, _, ok = ParseOutputName("tts_a_b_c.wav")
	assert.False(t, ok)
}

func TestPlanSkipsEmptyText(t *testing.T) {
	doc := &models.TranslationDoc{
		TotalSegments: 3,
		Segments: []models.TranslatedSegment{
			{Start: 0, End: 1000, TranslatedText: "第一段。"},
			{Start: 1000, End: 2000, TranslatedText: "   "},
			{Start: 2000, End: 3000, TranslatedText: "第三段。"},
		},
	}

	tasks := Plan(doc)
	require.Len(t, tasks, 2)
	assert.Equal(t, 0, tasks[0].Index)
	assert.Equal(t, 2, tasks[1].Index)
}

func TestVerifyAndCleanStale(t *testing.T) {
	dir := t.TempDir()
	doc := &models.TranslationDoc{
		TotalSegments: 2,
		Segments: []models.TranslatedSegment{
			{Start: 0, End: 1000, TranslatedText: "第一段。"},
			{Start: 1000, End: 2000, TranslatedText: "第二段。"},
		},
	}

	tasks := Plan(doc)
	require.Len(t, tasks, 2)

	// 第一段的输出已就绪，另有一个失效文件和一个无关文件
	require.NoError(t, os.WriteFile(filepath.Join(dir, tasks[0].FileName), []byte("w"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tts_9_10_deadbeef.wav"), []byte("w"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	result, err := Verify(dir, doc)
	require.NoError(t, err)
	assert.Len(t, result.Ready, 1)
	require.Len(t, result.Missing, 1)
	assert.Equal(t, tasks[1].FileName, result.Missing[0].FileName)
	assert.Equal(t, []string{"tts_9_10_deadbeef.wav"}, result.Stale)

	removed, err := CleanStale(dir, doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"tts_9_10_deadbeef.wav"}, removed)

	// 无关文件不受影响，失效文件已删除
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "tts_9_10_deadbeef.wav"))
}

func TestVerifyMissingDir(t *testing.T) {
	doc := &models.TranslationDoc{
		Segments: []models.TranslatedSegment{
			{Start: 0, End: 1000, TranslatedText: "第一段。"},
		},
	}

	// 输出目录还不存在时全部视为缺失
	result, err := Verify(filepath.Join(t.TempDir(), "tts_output"), doc)
	require.NoError(t, err)
	assert.Empty(t, result.Ready)
	assert.Len(t, result.Missing, 1)
}

func TestCleanStaleBadDir(t *testing.T) {
	doc := &models.TranslationDoc{
		Segments: []models.TranslatedSegment{
			{Start: 0, End: 1000, TranslatedText: "第一段。"},
		},
	}

	// 输出路径是普通文件而非目录时，清理报错而不是静默跳过
	path := filepath.Join(t.TempDir(), "tts_output")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	_, err := CleanStale(path, doc)
	assert.Error(t, err)
}
