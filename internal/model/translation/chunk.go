package translation

import (
	"chunkslate/internal/pkg/usage"
)

// Status 块翻译状态
type Status string

const (
	StatusPending Status = "pending" // 待翻译
	StatusActive  Status = "active"  // 翻译中
	StatusDone    Status = "done"    // 已完成
	StatusError   Status = "error"   // 失败或取消
)

// String 返回状态的字符串表示
func (s Status) String() string {
	return string(s)
}

// SanitizeStatus 恢复草稿时使用，未知状态与 active 一律视为 pending
func SanitizeStatus(s string) Status {
	switch Status(s) {
	case StatusDone, StatusError, StatusPending:
		return Status(s)
	default:
		return StatusPending
	}
}

// CanceledMessage 取消时写入块的错误信息
const CanceledMessage = "Canceled."

// Chunk 可独立翻译的文本块
type Chunk struct {
	ID               string       `json:"id"`
	SourceText       string       `json:"source_text"`
	TranslatedText   string       `json:"translated_text"`
	Status           Status       `json:"status"`
	Error            string       `json:"error,omitempty"`
	Usage            *usage.Usage `json:"usage,omitempty"`
	ExtraInstruction string       `json:"extra_instruction,omitempty"`
}

// ResetTranslation 清空译文、错误与用量并回到 pending
func (c *Chunk) ResetTranslation() {
	c.TranslatedText = ""
	c.Status = StatusPending
	c.Error = ""
	c.Usage = nil
}

// Fail 标记为失败
func (c *Chunk) Fail(message string) {
	c.Status = StatusError
	c.Error = message
}

// Clone 返回深拷贝，用于对外发布快照
func (c *Chunk) Clone() *Chunk {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Usage = c.Usage.Clone()
	return &cp
}
