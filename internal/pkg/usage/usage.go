package usage

import (
	"github.com/tidwall/gjson"
)

// Usage 单次请求的 token 用量
type Usage struct {
	Prompt     int64 `json:"prompt"`
	Cached     int64 `json:"cached"`
	Completion int64 `json:"completion"`
	Total      int64 `json:"total"`
}

// 不同提供方的字段名
var (
	promptKeys     = []string{"prompt", "prompt_tokens", "input_tokens"}
	completionKeys = []string{"completion", "completion_tokens", "output_tokens"}
	totalKeys      = []string{"total", "total_tokens"}
	cachedKeys     = []string{"cached", "cached_tokens", "prompt_cached_tokens", "input_cached_tokens"}
	cachedNested   = []string{"prompt_tokens_details.cached_tokens", "input_tokens_details.cached_tokens"}
)

// Normalize 将提供方返回的 usage 对象归一化，全零时返回 nil
func Normalize(raw gjson.Result) *Usage {
	if !raw.IsObject() {
		return nil
	}

	prompt := first(raw, promptKeys).Int()
	completion := first(raw, completionKeys).Int()
	u := &Usage{
		Prompt:     prompt,
		Completion: completion,
		Total:      ResolveTotal(first(raw, totalKeys).Int(), prompt, completion),
		Cached:     resolveCached(raw),
	}
	if u.IsZero() {
		return nil
	}
	return u
}

// NormalizeJSON 归一化 JSON 文本形式的 usage
func NormalizeJSON(data []byte) *Usage {
	if len(data) == 0 || !gjson.ValidBytes(data) {
		return nil
	}
	return Normalize(gjson.ParseBytes(data))
}

// ResolveTotal 上报的 total 缺失或非正时按 prompt+completion 计算
func ResolveTotal(total, prompt, completion int64) int64 {
	if total > 0 {
		return total
	}
	return prompt + completion
}

// IsZero 所有字段均为零
func (u *Usage) IsZero() bool {
	return u == nil || (u.Prompt == 0 && u.Cached == 0 && u.Completion == 0 && u.Total == 0)
}

// Clone 返回副本
func (u *Usage) Clone() *Usage {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func resolveCached(raw gjson.Result) int64 {
	if v := first(raw, cachedKeys); v.Exists() {
		return v.Int()
	}
	for _, path := range cachedNested {
		if v := raw.Get(path); v.Exists() {
			return v.Int()
		}
	}
	return 0
}

// first 返回第一个存在且非 null 的字段
func first(raw gjson.Result, keys []string) gjson.Result {
	for _, k := range keys {
		if v := raw.Get(k); v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}
