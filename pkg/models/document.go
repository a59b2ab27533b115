package models

import (
	"encoding/json"
	"fmt"
)

// RawSegment 表示一个识别原始段落（original_segments 成员，
// 也是 denoised_asr_results.json 中 segments 的元素）
type RawSegment struct {
	Start int64  `json:"start"` // 开始时间（毫秒）
	End   int64  `json:"end"`   // 结束时间（毫秒）
	Text  string `json:"text"`
}

// TranslatedSegment 表示一个翻译段落
type TranslatedSegment struct {
	Start            int64        `json:"start"` // 开始时间（毫秒）
	End              int64        `json:"end"`   // 结束时间（毫秒）
	OriginalText     string       `json:"original_text"`
	TranslatedText   string       `json:"translated_text"`
	OriginalSegments []RawSegment `json:"original_segments,omitempty"`
}

// TranslationDoc 是 denoised_translated_results.json 的文档模型。
// translation_info 由翻译工具写入，这里原样透传，不做解析。
type TranslationDoc struct {
	TotalSegments   int                 `json:"total_segments"`
	Segments        []TranslatedSegment `json:"segments"`
	TranslationInfo json.RawMessage     `json:"translation_info,omitempty"`
}

// ASRDoc 是 denoised_asr_results.json 的文档模型（只读）
type ASRDoc struct {
	TotalSegments int          `json:"total_segments"`
	Segments      []RawSegment `json:"segments"`
}

// Validate 检查文档的一致性，返回发现的问题列表。
// 时间异常只标记不修正，段落数不一致同样只报告。
func (d *TranslationDoc) Validate() []string {
	var problems []string

	if d.TotalSegments != len(d.Segments) {
		problems = append(problems,
			fmt.Sprintf("total_segments=%d 与实际段落数 %d 不一致", d.TotalSegments, len(d.Segments)))
	}

	for i, seg := range d.Segments {
		if seg.Start > seg.End {
			problems = append(problems,
				fmt.Sprintf("段落 %d 时间异常: start=%d > end=%d", i, seg.Start, seg.End))
		}
		if seg.TranslatedText == "" {
			problems = append(problems, fmt.Sprintf("段落 %d 翻译文本为空", i))
		}
	}

	return problems
}

// Clone 深拷贝文档，编辑会话在副本上工作
func (d *TranslationDoc) Clone() *TranslationDoc {
	clone := &TranslationDoc{
		TotalSegments: d.TotalSegments,
		Segments:      make([]TranslatedSegment, len(d.Segments)),
	}

	for i, seg := range d.Segments {
		cs := seg
		if seg.OriginalSegments != nil {
			cs.OriginalSegments = make([]RawSegment, len(seg.OriginalSegments))
			copy(cs.OriginalSegments, seg.OriginalSegments)
		}
		clone.Segments[i] = cs
	}

	if d.TranslationInfo != nil {
		clone.TranslationInfo = make(json.RawMessage, len(d.TranslationInfo))
		copy(clone.TranslationInfo, d.TranslationInfo)
	}

	return clone
}
