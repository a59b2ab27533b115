package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ccp-p/video-dubbing-cli/pkg/models"
)

// GenerateBilingualText 生成原文与译文对照文本，按段落编号分块
func GenerateBilingualText(doc *models.TranslationDoc) string {
	var builder strings.Builder

	index := 1
	for _, seg := range doc.Segments {
		original := strings.TrimSpace(seg.OriginalText)
		translated := strings.TrimSpace(seg.TranslatedText)
		if original == "" && translated == "" {
			continue
		}

		fmt.Fprintf(&builder, "%d. [%s --> %s]\n", index, FormatSRTTime(seg.Start), FormatSRTTime(seg.End))
		if original != "" {
			builder.WriteString(original)
			builder.WriteString("\n")
		}
		if translated != "" {
			builder.WriteString(translated)
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
		index++
	}

	return builder.String()
}

// ExportBilingualText 将翻译结果导出为双语对照文本文件
func ExportBilingualText(doc *models.TranslationDoc, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	content := GenerateBilingualText(doc)
	if err := os.WriteFile(outputPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("写入文本文件失败: %w", err)
	}

	return nil
}
