package tts

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/ccp-p/video-dubbing-cli/pkg/models"
	"github.com/ccp-p/video-dubbing-cli/pkg/utils"
)

// 合成输出的文件名模式：tts_<start>_<end>_<md5前8位>.wav
var outputNamePattern = regexp.MustCompile(`^tts_(\d+)_(\d+)_[\w\d]+\.wav$`)

// OutputName 计算段落的合成输出文件名。
// 文本参与哈希，所以编辑过文本的段落会得到新文件名，旧文件变为失效缓存。
func OutputName(start, end int64, text string) string {
	sum := md5.Sum([]byte(text))
	return fmt.Sprintf("tts_%d_%d_%s.wav", start, end, hex.EncodeToString(sum[:])[:8])
}

// ParseOutputName 从文件名解析时间范围，不匹配模式时ok为false
func ParseOutputName(name string) (start, end int64, ok bool) {
	m := outputNamePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, 0, false
	}

	start, err1 := strconv.ParseInt(m[1], 10, 64)
	end, err2 := strconv.ParseInt(m[2], 10, 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}

	return start, end, true
}

// Task 一个待合成的段落
type Task struct {
	Index    int    `json:"index"`
	Start    int64  `json:"start"`
	End      int64  `json:"end"`
	Text     string `json:"text"`
	FileName string `json:"file_name"`
}

// Plan 根据文档推导全部合成任务，翻译文本为空的段落跳过
func Plan(doc *models.TranslationDoc) []Task {
	tasks := make([]Task, 0, len(doc.Segments))

	for i, seg := range doc.Segments {
		text := strings.TrimSpace(seg.TranslatedText)
		if text == "" {
			utils.Debug("段落 %d 翻译文本为空，跳过合成", i)
			continue
		}

		tasks = append(tasks, Task{
			Index:    i,
			Start:    seg.Start,
			End:      seg.End,
			Text:     seg.TranslatedText,
			FileName: OutputName(seg.Start, seg.End, seg.TranslatedText),
		})
	}

	return tasks
}

// VerifyResult 合成输出目录与文档的对账结果
type VerifyResult struct {
	Ready   []Task   // 期望且已存在
	Missing []Task   // 期望但缺失
	Stale   []string // 存在但不再被任何段落引用的文件名
}

// Verify 对账：文档当前需要哪些合成文件、目录里实际有哪些
func Verify(dir string, doc *models.TranslationDoc) (*VerifyResult, error) {
	tasks := Plan(doc)
	expected := make(map[string]bool, len(tasks))
	for _, task := range tasks {
		expected[task.FileName] = true
	}

	existing := make(map[string]bool)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			// 目录还没创建：全部缺失
			return &VerifyResult{Missing: tasks}, nil
		}
		return nil, fmt.Errorf("读取合成输出目录失败: %w", err)
	}

	result := &VerifyResult{}
	for _, entry := range entries {
		if entry.IsDir() || !outputNamePattern.MatchString(entry.Name()) {
			continue
		}
		existing[entry.Name()] = true
		if !expected[entry.Name()] {
			result.Stale = append(result.Stale, entry.Name())
		}
	}

	for _, task := range tasks {
		if existing[task.FileName] {
			result.Ready = append(result.Ready, task)
		} else {
			result.Missing = append(result.Missing, task)
		}
	}

	return result, nil
}

// CleanStale 删除不再被文档引用的合成文件，返回删除的文件名。
// 只处理符合命名模式的文件，目录中的其他文件不动。
func CleanStale(dir string, doc *models.TranslationDoc) ([]string, error) {
	result, err := Verify(dir, doc)
	if err != nil {
		return nil, err
	}

	removed := make([]string, 0, len(result.Stale))
	for _, name := range result.Stale {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			utils.Warn("删除失效合成文件失败: %s: %v", name, err)
			continue
		}
		utils.Info("已删除失效合成文件: %s", name)
		removed = append(removed, name)
	}

	return removed, nil
}
