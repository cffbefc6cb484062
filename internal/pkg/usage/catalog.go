package usage

import (
	"strings"
)

// ModelPrice 常见模型的公开单价（每百万 token）
type ModelPrice struct {
	Input     float64
	Output    float64
	CacheRead float64
}

var wellKnownPricing = map[string]ModelPrice{
	"gpt-5.2":                {Input: 1.75, Output: 14, CacheRead: 0.175},
	"gpt-5-mini":             {Input: 0.25, Output: 2, CacheRead: 0.025},
	"gpt-5-nano":             {Input: 0.05, Output: 0.4, CacheRead: 0.005},
	"o4-mini":                {Input: 1.1, Output: 4.4, CacheRead: 0.28},
	"claude-opus-4-6":        {Input: 5, Output: 25, CacheRead: 0.5},
	"claude-sonnet-4-5":      {Input: 3, Output: 15, CacheRead: 0.3},
	"claude-haiku-4-5":       {Input: 1, Output: 5, CacheRead: 0.1},
	"gemini-3-pro-preview":   {Input: 2, Output: 12, CacheRead: 0.2},
	"gemini-3-flash-preview": {Input: 0.5, Output: 3, CacheRead: 0.05},
	"gemini-2.5-flash":       {Input: 0.3, Output: 2.5, CacheRead: 0.075},
	"gemini-2.5-flash-lite":  {Input: 0.1, Output: 0.4, CacheRead: 0.025},
}

var modelAliases = map[string]string{
	"gemini-3-pro":   "gemini-3-pro-preview",
	"gemini-3-flash": "gemini-3-flash-preview",
}

var providerPrefixes = []string{"openai/", "anthropic/", "google/", "gemini/"}

// StripProviderPrefix 去掉 openai/ 等提供方前缀
func StripProviderPrefix(model string) string {
	raw := strings.TrimSpace(model)
	lower := strings.ToLower(raw)
	for _, prefix := range providerPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return raw[len(prefix):]
		}
	}
	return raw
}

// LookupModel 查询常见模型单价
func LookupModel(model string) (ModelPrice, bool) {
	key := strings.ToLower(strings.TrimSpace(StripProviderPrefix(model)))
	if key == "" {
		return ModelPrice{}, false
	}
	if alias, ok := modelAliases[key]; ok {
		key = alias
	}
	p, ok := wellKnownPricing[key]
	return p, ok
}
