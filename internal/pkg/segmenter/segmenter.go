package segmenter

import (
	"regexp"
	"strings"
	"unicode/utf16"
)

const (
	// DefaultMaxLength 段落不拆分的最大长度（UTF-16 code unit）
	DefaultMaxLength = 800
	// DefaultMinLength 小块合并的下限
	DefaultMinLength = 300
)

var (
	// 空行（仅含空白的行）作为段落边界
	paragraphBreak = regexp.MustCompile(`\n[\s\p{Z}\x{FEFF}]*\n+`)
	edgeNewlines   = regexp.MustCompile(`^\n+|\n+$`)
)

// Segmenter 文本分段器，将原文切分为可独立翻译的块
type Segmenter struct {
	maxLength int
	minLength int
	sentences SentenceRule
}

// New 创建分段器实例，默认使用 UAX #29 句子边界
func New() *Segmenter {
	return &Segmenter{
		maxLength: DefaultMaxLength,
		minLength: DefaultMinLength,
		sentences: UAX29Sentences,
	}
}

// SetThresholds 设置拆分上限与合并下限，非正值保持不变
func (s *Segmenter) SetThresholds(maxLength, minLength int) {
	if maxLength > 0 {
		s.maxLength = maxLength
	}
	if minLength > 0 {
		s.minLength = minLength
	}
}

// SetSentenceRule 设置超长段落使用的句子切分规则
func (s *Segmenter) SetSentenceRule(rule SentenceRule) {
	if rule != nil {
		s.sentences = rule
	}
}

// candidate 分段中间结果
type candidate struct {
	text          string
	endsParagraph bool
}

// Segment 将原文切分为有序的块
//
// 逻辑：
//  1. 按空行切分段落，丢弃空白段落
//  2. 不超过 maxLength 的段落整体保留，超长段落按句子贪心打包
//  3. 相邻小块合并，直到合并后长度达到 minLength
//  4. 块末尾的 Markdown 标题移动到下一块开头
func (s *Segmenter) Segment(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var candidates []candidate
	for _, para := range paragraphBreak.Split(raw, -1) {
		if strings.TrimSpace(para) == "" {
			continue
		}
		clean := edgeNewlines.ReplaceAllString(para, "")

		parts := s.splitParagraph(clean)
		for i, part := range parts {
			candidates = append(candidates, candidate{text: part, endsParagraph: i == len(parts)-1})
		}
	}

	return shiftTrailingHeadings(mergeSmall(candidates, s.minLength))
}

// splitParagraph 拆分单个段落
func (s *Segmenter) splitParagraph(clean string) []string {
	if Length(clean) <= s.maxLength {
		return []string{clean}
	}

	var parts []string
	var buffer strings.Builder
	bufferLen := 0
	flush := func() {
		if bufferLen > 0 {
			parts = append(parts, buffer.String())
			buffer.Reset()
			bufferLen = 0
		}
	}

	for _, sentence := range s.sentences(clean) {
		n := Length(sentence)
		if n > s.maxLength {
			// 无法再拆的超长句单独成块
			flush()
			parts = append(parts, sentence)
			continue
		}
		if bufferLen+n > s.maxLength && bufferLen > 0 {
			flush()
		}
		buffer.WriteString(sentence)
		bufferLen += n
	}
	flush()

	return parts
}

// mergeSmall 合并过小的相邻块，段落边界使用空行连接，同段落内直接拼接
func mergeSmall(candidates []candidate, minLength int) []string {
	if len(candidates) == 0 {
		return nil
	}

	merged := make([]string, 0, len(candidates))
	current := candidates[0].text
	currentLen := Length(current)

	for i := 1; i < len(candidates); i++ {
		next := candidates[i].text
		nextLen := Length(next)
		if currentLen+nextLen < minLength {
			joiner := ""
			if candidates[i-1].endsParagraph {
				joiner = "\n\n"
			}
			current += joiner + next
			currentLen += nextLen + len(joiner)
			continue
		}
		merged = append(merged, current)
		current = next
		currentLen = nextLen
	}

	return append(merged, current)
}

// Length 返回文本的 UTF-16 code unit 长度，与浏览器端的字符串长度一致
func Length(text string) int {
	n := 0
	for _, r := range text {
		n += utf16.RuneLen(r)
	}
	return n
}

// ByteOffset 将 UTF-16 偏移量换算为字节下标，落在代理对中间时返回 false
func ByteOffset(text string, offset int) (int, bool) {
	if offset < 0 {
		return 0, false
	}
	units := 0
	for i, r := range text {
		if units == offset {
			return i, true
		}
		if units > offset {
			return 0, false
		}
		units += utf16.RuneLen(r)
	}
	if units == offset {
		return len(text), true
	}
	return 0, false
}
