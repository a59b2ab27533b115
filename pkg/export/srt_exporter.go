package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ccp-p/video-dubbing-cli/pkg/models"
	"github.com/ccp-p/video-dubbing-cli/pkg/utils"
)

// FormatSRTTime 将毫秒格式化为SRT时间格式 (HH:MM:SS,mmm)
func FormatSRTTime(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	hours := ms / 3600000
	minutes := (ms % 3600000) / 60000
	secs := (ms % 60000) / 1000
	millis := ms % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// GenerateSRT 从翻译结果生成SRT字幕内容。
// 空文本段落跳过；时间异常的段落只记录日志，按原值输出。
func GenerateSRT(doc *models.TranslationDoc) string {
	var srtLines []string

	index := 1
	for i, seg := range doc.Segments {
		text := strings.TrimSpace(seg.TranslatedText)
		if text == "" {
			continue
		}

		if seg.End <= seg.Start {
			utils.Warn("段落 %d 时间异常: start=%d end=%d，按原值导出", i, seg.Start, seg.End)
		}

		srtLines = append(srtLines, fmt.Sprintf("%d", index))
		srtLines = append(srtLines, fmt.Sprintf("%s --> %s", FormatSRTTime(seg.Start), FormatSRTTime(seg.End)))
		srtLines = append(srtLines, text)
		srtLines = append(srtLines, "") // 空行分隔
		index++
	}

	return strings.Join(srtLines, "\n")
}

// ExportSRT 将翻译结果导出为SRT字幕文件
func ExportSRT(doc *models.TranslationDoc, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	content := GenerateSRT(doc)
	if err := os.WriteFile(outputPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("写入SRT文件失败: %w", err)
	}

	return nil
}
