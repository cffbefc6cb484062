package usage

import (
	"fmt"
	"math"
)

// Pricing 每百万 token 的单价（美元）
type Pricing struct {
	Prompt     float64 `json:"prompt"`
	Cached     float64 `json:"cached"`
	Completion float64 `json:"completion"`
}

// ResolvePricing 由可选单价得到生效单价；缺失、非法或负数回退，
// cached 回退到 prompt 单价
func ResolvePricing(prompt, cached, completion *float64) Pricing {
	p := rate(prompt, 0)
	return Pricing{
		Prompt:     p,
		Cached:     rate(cached, p),
		Completion: rate(completion, 0),
	}
}

func rate(v *float64, fallback float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
		return fallback
	}
	return *v
}

// ComputeCost 计算 bucket 的费用，cached 在此处截断到 prompt
func ComputeCost(b Bucket, p Pricing) float64 {
	if !b.Has {
		return 0
	}
	cached := min(b.Prompt, b.Cached)
	uncached := max(0, b.Prompt-cached)
	cost := (float64(uncached)*p.Prompt + float64(cached)*p.Cached + float64(b.Completion)*p.Completion) / 1_000_000
	if math.IsNaN(cost) || math.IsInf(cost, 0) {
		return 0
	}
	return cost
}

// FormatUSD 格式化金额，不足一美分时保留四位小数
func FormatUSD(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) || v == 0 {
		return "$0.00"
	}
	if math.Abs(v) < 0.01 {
		return fmt.Sprintf("$%.4f", v)
	}
	return fmt.Sprintf("$%.2f", v)
}

// FormatLine 用量摘要行
func FormatLine(b Bucket) string {
	if !b.Has {
		return "N/A"
	}
	return fmt.Sprintf("prompt %d (cached %d) / completion %d / total %d", b.Prompt, b.Cached, b.Completion, b.Total)
}

// Report 用量与费用报告
type Report struct {
	Totals        Totals  `json:"totals"`
	SummaryLine   string  `json:"summary_line"`
	TranslateLine string  `json:"translate_line"`
	SummaryCost   string  `json:"summary_cost"`
	TranslateCost string  `json:"translate_cost"`
	TotalCost     string  `json:"total_cost"`
	TotalUSD      float64 `json:"total_usd"`
}

// BuildReport 生成用量报告，无数据的阶段费用显示为 N/A
func BuildReport(t Totals, summary, translate Pricing) Report {
	summaryCost := ComputeCost(t.Summary, summary)
	translateCost := ComputeCost(t.Translate, translate)

	r := Report{
		Totals:        t,
		SummaryLine:   FormatLine(t.Summary),
		TranslateLine: FormatLine(t.Translate),
		SummaryCost:   "N/A",
		TranslateCost: "N/A",
		TotalCost:     "N/A",
		TotalUSD:      summaryCost + translateCost,
	}
	if t.Summary.Has {
		r.SummaryCost = FormatUSD(summaryCost)
	}
	if t.Translate.Has {
		r.TranslateCost = FormatUSD(translateCost)
	}
	if t.Summary.Has || t.Translate.Has {
		r.TotalCost = FormatUSD(r.TotalUSD)
	}
	return r
}
