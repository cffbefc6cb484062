package translation

import (
	"encoding/json"
)

// DraftVersion 草稿格式版本
const DraftVersion = 1

// Draft 会话草稿快照
type Draft struct {
	V            int             `json:"v"`
	SavedAt      int64           `json:"savedAt"` // 毫秒时间戳
	SourceText   string          `json:"sourceText"`
	SummaryText  string          `json:"summaryText"`
	SummaryUsage json.RawMessage `json:"summaryUsage"`
	UsageTotals  json.RawMessage `json:"usageTotals"`
	Chunks       []DraftChunk    `json:"chunks"`
}

// DraftChunk 草稿中的块，active 状态保存为 pending
type DraftChunk struct {
	ID               string          `json:"id"`
	SourceText       string          `json:"sourceText"`
	TranslatedText   string          `json:"translatedText"`
	Status           string          `json:"status"`
	Error            string          `json:"error"`
	Usage            json.RawMessage `json:"usage"`
	ExtraInstruction string          `json:"extraInstruction"`
}
