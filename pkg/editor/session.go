package editor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ccp-p/video-dubbing-cli/pkg/models"
)

var (
	// ErrLastSegment 文档至少保留一个段落，最后一段不允许删除
	ErrLastSegment = errors.New("文档只剩一个段落，不能删除")
	// ErrSameIndex 合并的两个下标不能相同
	ErrSameIndex = errors.New("不能合并同一个段落")
)

// IndexError 下标越界错误
type IndexError struct {
	Index int
	Count int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("段落下标 %d 越界（共 %d 段）", e.Index, e.Count)
}

// Segment 编辑会话中的一个段落。Lines 是当前工作文本（每句一行），
// snapshot 是加载时的切分结果，Reset 恢复到它。
type Segment struct {
	Start            int64
	End              int64
	OriginalText     string
	Lines            []string
	OriginalSegments []models.RawSegment

	snapshot []string
}

// Text 返回用于展示的工作文本，行间以换行符分隔
func (s *Segment) Text() string {
	return strings.Join(s.Lines, "\n")
}

// Session 持有一个项目翻译文档的编辑状态。
// 所有操作在内存中同步完成，持久化由调用方通过 Document() 取回文档后进行。
type Session struct {
	Project  string
	Segments []*Segment
	Info     json.RawMessage // translation_info 原样透传
	Dirty    bool
}

// NewSession 从文档创建编辑会话：逐段切分翻译文本并记录重置快照
func NewSession(project string, doc *models.TranslationDoc) *Session {
	sess := &Session{
		Project:  project,
		Segments: make([]*Segment, 0, len(doc.Segments)),
		Info:     doc.TranslationInfo,
	}

	for _, seg := range doc.Segments {
		lines := SplitSentences(seg.TranslatedText)
		snapshot := make([]string, len(lines))
		copy(snapshot, lines)

		sess.Segments = append(sess.Segments, &Segment{
			Start:            seg.Start,
			End:              seg.End,
			OriginalText:     seg.OriginalText,
			Lines:            lines,
			OriginalSegments: copyRawSegments(seg.OriginalSegments),
			snapshot:         snapshot,
		})
	}

	return sess
}

// Len 当前段落数
func (s *Session) Len() int {
	return len(s.Segments)
}

func (s *Session) checkIndex(i int) error {
	if i < 0 || i >= len(s.Segments) {
		return &IndexError{Index: i, Count: len(s.Segments)}
	}
	return nil
}

// SetText 替换段落 i 的工作文本，多行文本按换行符拆分为行
func (s *Session) SetText(i int, text string) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}

	s.Segments[i].Lines = strings.Split(text, "\n")
	s.Dirty = true
	return nil
}

// Merge 合并段落 i 和 j：时间范围取两者的并集 [min(start), max(end)]，
// 文本和原始段落按下标顺序连接，结果放在较小的下标处，段落数减一。
// 合并段落的重置快照是两个父段落快照的连接，重置永远回到加载时的文本。
func (s *Session) Merge(i, j int) error {
	if i == j {
		return ErrSameIndex
	}
	if err := s.checkIndex(i); err != nil {
		return err
	}
	if err := s.checkIndex(j); err != nil {
		return err
	}

	if i > j {
		i, j = j, i
	}

	a, b := s.Segments[i], s.Segments[j]

	merged := &Segment{
		Start:            minInt64(a.Start, b.Start),
		End:              maxInt64(a.End, b.End),
		OriginalText:     joinOriginalText(a.OriginalText, b.OriginalText),
		Lines:            append(append([]string{}, a.Lines...), b.Lines...),
		OriginalSegments: append(append([]models.RawSegment{}, a.OriginalSegments...), b.OriginalSegments...),
		snapshot:         append(append([]string{}, a.snapshot...), b.snapshot...),
	}

	s.Segments[i] = merged
	s.Segments = append(s.Segments[:j], s.Segments[j+1:]...)
	s.Dirty = true
	return nil
}

// Delete 删除段落 i，文档必须保留至少一个段落
func (s *Session) Delete(i int) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	if len(s.Segments) <= 1 {
		return ErrLastSegment
	}

	s.Segments = append(s.Segments[:i], s.Segments[i+1:]...)
	s.Dirty = true
	return nil
}

// Reset 将段落 i 的工作文本恢复为加载时的切分结果
func (s *Session) Reset(i int) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}

	seg := s.Segments[i]
	seg.Lines = make([]string, len(seg.snapshot))
	copy(seg.Lines, seg.snapshot)
	s.Dirty = true
	return nil
}

// Document 将当前编辑状态拼回文档：纯空白行被丢弃，段落数重新计算，
// translation_info 原样带回。未经编辑的会话产出与加载前内容一致的文档。
func (s *Session) Document() *models.TranslationDoc {
	doc := &models.TranslationDoc{
		TotalSegments:   len(s.Segments),
		Segments:        make([]models.TranslatedSegment, 0, len(s.Segments)),
		TranslationInfo: s.Info,
	}

	for _, seg := range s.Segments {
		doc.Segments = append(doc.Segments, models.TranslatedSegment{
			Start:            seg.Start,
			End:              seg.End,
			OriginalText:     seg.OriginalText,
			TranslatedText:   JoinLines(seg.Lines),
			OriginalSegments: copyRawSegments(seg.OriginalSegments),
		})
	}

	return doc
}

// 空列表保持nil，序列化时省略
func copyRawSegments(src []models.RawSegment) []models.RawSegment {
	if len(src) == 0 {
		return nil
	}
	dst := make([]models.RawSegment, len(src))
	copy(dst, src)
	return dst
}

// 原文是英文时用空格连接，避免单词粘连
func joinOriginalText(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + " " + b
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
