package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccp-p/video-dubbing-cli/pkg/models"
)

func sampleDoc() *models.TranslationDoc {
	return &models.TranslationDoc{
		TotalSegments: 3,
		Segments: []models.TranslatedSegment{
			{Start: 0, End: 2500, OriginalText: "hello world", TranslatedText: "你好世界"},
			{Start: 2500, End: 5000, OriginalText: "ignored", TranslatedText: "   "},
			{Start: 3661234, End: 3665000, OriginalText: "goodbye", TranslatedText: "再见"},
		},
	}
}

func TestFormatSRTTime(t *testing.T) {
	assert.Equal(t, "00:00:00,000", FormatSRTTime(0))
	assert.Equal(t, "00:00:02,500", FormatSRTTime(2500))
	assert.Equal(t, "01:01:01,234", FormatSRTTime(3661234))
	assert.Equal(t, "00:00:00,000", FormatSRTTime(-100))
}

func TestGenerateSRT(t *testing.T) {
	content := GenerateSRT(sampleDoc())

	lines := strings.Split(content, "\n")
	require.GreaterOrEqual(t, len(lines), 7)

	// 空翻译段被跳过，编号连续
	assert.Equal(t, "1", lines[0])
	assert.Equal(t, "00:00:00,000 --> 00:00:02,500", lines[1])
	assert.Equal(t, "你好世界", lines[2])
	assert.Equal(t, "2", lines[4])
	assert.Equal(t, "01:01:01,234 --> 01:01:05,000", lines[5])
	assert.Equal(t, "再见", lines[6])
	assert.NotContains(t, content, "ignored")
}

func TestGenerateSRTKeepsBadTimes(t *testing.T) {
	doc := &models.TranslationDoc{
		TotalSegments: 1,
		Segments: []models.TranslatedSegment{
			{Start: 5000, End: 3000, TranslatedText: "时间倒置"},
		},
	}

	content := GenerateSRT(doc)

	// 时间异常的段落原样输出，不做修正
	assert.Contains(t, content, "00:00:05,000 --> 00:00:03,000")
	assert.Contains(t, content, "时间倒置")
}

func TestExportSRT(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "sub", "video.srt")

	err := ExportSRT(sampleDoc(), outputPath)
	require.NoError(t, err)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "你好世界")
}

func TestGenerateBilingualText(t *testing.T) {
	content := GenerateBilingualText(sampleDoc())

	assert.Contains(t, content, "1. [00:00:00,000 --> 00:00:02,500]")
	assert.Contains(t, content, "hello world\n你好世界")
	// 译文为空但原文存在的段落仍然导出
	assert.Contains(t, content, "2. [00:00:02,500 --> 00:00:05,000]")
	assert.Contains(t, content, "ignored")
	assert.Contains(t, content, "goodbye\n再见")
}

func TestExportBilingualText(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "video_bilingual.txt")

	err := ExportBilingualText(sampleDoc(), outputPath)
	require.NoError(t, err)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "再见")
}
