package segmenter

import (
	"fmt"
	"regexp"

	"github.com/clipperhouse/uax29/v2/sentences"
)

// SentenceRule 将段落切分为句子，拼接结果必须与输入完全一致
type SentenceRule func(text string) []string

// 以 . ! ? 。 ！ ？ 结尾的字符序列，或结尾处的剩余文本。
// 段首的终止符归入第一句，保证不丢字符。
var sentencePattern = regexp.MustCompile(`[^.!?。！？]*[.!?。！？]+|[^.!?。！？]+$`)

// UAX29Sentences 按 Unicode 文本分段规则（UAX #29）切分句子
func UAX29Sentences(text string) []string {
	var out []string
	tokens := sentences.FromString(text)
	for tokens.Next() {
		out = append(out, tokens.Value())
	}
	if len(out) == 0 {
		return []string{text}
	}
	return out
}

// RegexSentences 按句末标点切分句子
func RegexSentences(text string) []string {
	out := sentencePattern.FindAllString(text, -1)
	if len(out) == 0 {
		return []string{text}
	}
	return out
}

// RuleByName 根据配置名称返回句子规则
func RuleByName(name string) (SentenceRule, error) {
	switch name {
	case "", "uax29":
		return UAX29Sentences, nil
	case "regex":
		return RegexSentences, nil
	default:
		return nil, fmt.Errorf("unknown sentence rule: %s", name)
	}
}
