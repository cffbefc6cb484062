package translation

import (
	"strings"

	"chunkslate/internal/pkg/usage"
)

const (
	// DefaultConcurrency 默认并发数
	DefaultConcurrency = 2
	// MaxConcurrency 并发上限
	MaxConcurrency = 8
	// DefaultTargetLanguage 未设置目标语言时使用
	DefaultTargetLanguage = "English"
)

// ClampConcurrency 将并发数限制在 [1, 8]，非正值取默认值
func ClampConcurrency(n int) int {
	if n < 1 {
		return DefaultConcurrency
	}
	return min(MaxConcurrency, n)
}

// Settings 持久化的用户设置，字段名与浏览器端保持一致
type Settings struct {
	BaseURL        string `json:"baseUrl"`
	APIKey         string `json:"apiKey"`
	SummaryModel   string `json:"summaryModel"`
	TranslateModel string `json:"translateModel"`
	TargetLang     string `json:"targetLang"`
	Concurrency    int    `json:"concurrency"`

	SummaryPricePrompt       *float64 `json:"summaryPricePrompt,omitempty"`
	SummaryPriceCached       *float64 `json:"summaryPriceCached,omitempty"`
	SummaryPriceCompletion   *float64 `json:"summaryPriceCompletion,omitempty"`
	TranslatePricePrompt     *float64 `json:"translatePricePrompt,omitempty"`
	TranslatePriceCached     *float64 `json:"translatePriceCached,omitempty"`
	TranslatePriceCompletion *float64 `json:"translatePriceCompletion,omitempty"`
}

// TargetLanguage 目标语言，为空时为 English
func (s *Settings) TargetLanguage() string {
	if lang := strings.TrimSpace(s.TargetLang); lang != "" {
		return lang
	}
	return DefaultTargetLanguage
}

// SummaryPricing 摘要阶段生效单价
func (s *Settings) SummaryPricing() usage.Pricing {
	return usage.ResolvePricing(s.SummaryPricePrompt, s.SummaryPriceCached, s.SummaryPriceCompletion)
}

// TranslatePricing 翻译阶段生效单价
func (s *Settings) TranslatePricing() usage.Pricing {
	return usage.ResolvePricing(s.TranslatePricePrompt, s.TranslatePriceCached, s.TranslatePriceCompletion)
}

// PrefillPricing 为尚未设置单价的阶段填入常见模型的公开单价
func (s *Settings) PrefillPricing() {
	if s.SummaryPricePrompt == nil && s.SummaryPriceCached == nil && s.SummaryPriceCompletion == nil {
		if p, ok := usage.LookupModel(s.SummaryModel); ok {
			s.SummaryPricePrompt, s.SummaryPriceCached, s.SummaryPriceCompletion = ptr(p.Input), ptr(p.CacheRead), ptr(p.Output)
		}
	}
	if s.TranslatePricePrompt == nil && s.TranslatePriceCached == nil && s.TranslatePriceCompletion == nil {
		if p, ok := usage.LookupModel(s.TranslateModel); ok {
			s.TranslatePricePrompt, s.TranslatePriceCached, s.TranslatePriceCompletion = ptr(p.Input), ptr(p.CacheRead), ptr(p.Output)
		}
	}
}

// Redacted 返回隐藏密钥后的副本
func (s Settings) Redacted() Settings {
	if n := len(s.APIKey); n > 0 {
		if n > 4 {
			s.APIKey = "****" + s.APIKey[n-4:]
		} else {
			s.APIKey = "****"
		}
	}
	return s
}

func ptr(v float64) *float64 {
	return &v
}
