package editor

import (
	"strings"
)

// 句子终结符，中英文标点都算
var sentenceTerminators = map[rune]bool{
	'。': true, '！': true, '？': true, '；': true,
	'.': true, '!': true, '?': true, ';': true,
	'…': true,
}

// 跟在终结符后面仍属于前一句的收尾符号（引号、括号）
var closingMarks = map[rune]bool{
	'”': true, '’': true, '」': true, '』': true,
	'）': true, ')': true, '】': true, '"': true, '\'': true,
}

// SplitSentences 将翻译文本按句子终结符切分为行。
// 切分保持无损：所有字符都保留在某一行中，strings.Join(行, "") 恢复原文。
// 终结符连同其后的收尾引号、括号归属前一句；纯空白的尾部并入前一行。
func SplitSentences(text string) []string {
	if text == "" {
		return nil
	}

	var parts []string
	var cur strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		cur.WriteRune(runes[i])

		if !sentenceTerminators[runes[i]] {
			continue
		}

		// 吸收连续的终结符和收尾符号
		for i+1 < len(runes) && (sentenceTerminators[runes[i+1]] || closingMarks[runes[i+1]]) {
			i++
			cur.WriteRune(runes[i])
		}

		parts = append(parts, cur.String())
		cur.Reset()
	}

	if cur.Len() > 0 {
		tail := cur.String()
		if strings.TrimSpace(tail) == "" && len(parts) > 0 {
			// 空白尾部并入前一句，保证往返无损
			parts[len(parts)-1] += tail
		} else {
			parts = append(parts, tail)
		}
	}

	return parts
}

// JoinLines 将编辑行重新拼接为保存文本：丢弃纯空白行，其余按原样连接。
// 未经编辑的行集合可以精确还原加载前的文本。
func JoinLines(lines []string) string {
	var sb strings.Builder
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		sb.WriteString(line)
	}
	return sb.String()
}
