package translation

import (
	"strings"

	"chunkslate/internal/ai/completion"
)

const (
	translationSystemPrompt = "You are a translation engine. " +
		"Translate the given text into the target language. " +
		"Always preserve the original tone and voice with intention. " +
		"Preserve Markdown, formatting, and structure. " +
		"Preserve code blocks and inline code, but translate human-readable comments."

	summarySystemPrompt = "You are a summarization engine. " +
		"Write the summary for the given text in the target language."
)

// TranslationPrompt 构建单块翻译消息所需的上下文
type TranslationPrompt struct {
	TargetLanguage   string
	ExtraInstruction string
	Previous         string // 上一次译文，作为改进的草稿
	Summary          string // 全文摘要，作为上下文
	Source           string
}

// Messages 生成 system + user 消息
func (p TranslationPrompt) Messages() []completion.Message {
	parts := []string{"Target language: " + p.TargetLanguage}

	if extra := strings.TrimSpace(p.ExtraInstruction); extra != "" {
		parts = append(parts, "Chunk extra instruction: "+extra)
	}
	if previous := strings.TrimSpace(p.Previous); previous != "" {
		parts = append(parts,
			"Previous translation (use as a draft to improve the translation):",
			"<previous>", previous, "</previous>",
		)
	}
	if summary := strings.TrimSpace(p.Summary); summary != "" {
		parts = append(parts,
			"Summary (use as a context to improve the translation):",
			"<summary>", summary, "</summary>",
		)
	}
	parts = append(parts, "Translate the following chunk:", "<chunk>", p.Source, "</chunk>")

	return []completion.Message{
		{Role: completion.RoleSystem, Content: translationSystemPrompt},
		{Role: completion.RoleUser, Content: strings.Join(parts, "\n")},
	}
}

// summaryMessages 生成摘要请求消息
func summaryMessages(targetLanguage, source string) []completion.Message {
	user := strings.Join([]string{
		"Summarize the following text into 3-5 bullet points in the target language.",
		"Target language: " + targetLanguage,
		"<text>", source, "</text>",
	}, "\n")
	return []completion.Message{
		{Role: completion.RoleSystem, Content: summarySystemPrompt},
		{Role: completion.RoleUser, Content: user},
	}
}
