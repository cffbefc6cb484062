package usage

import (
	"github.com/tidwall/gjson"
)

// Bucket 单阶段累计用量，Has 区分“观察到零”与“从未观察到”
type Bucket struct {
	Prompt     int64 `json:"prompt"`
	Cached     int64 `json:"cached"`
	Completion int64 `json:"completion"`
	Total      int64 `json:"total"`
	Has        bool  `json:"has"`
}

// Add 累加一次用量，cached 不做截断
func (b *Bucket) Add(u *Usage) {
	if u == nil {
		return
	}
	b.Has = true
	b.Prompt += u.Prompt
	b.Cached += u.Cached
	b.Completion += u.Completion
	b.Total += u.Total
}

// Totals 摘要与翻译两个阶段的用量
type Totals struct {
	Summary   Bucket `json:"summary"`
	Translate Bucket `json:"translate"`
}

// Recompute 由摘要用量与各块用量重新计算
func Recompute(summary *Usage, chunks []*Usage) Totals {
	var t Totals
	t.Summary.Add(summary)
	for _, u := range chunks {
		t.Translate.Add(u)
	}
	return t
}

// NormalizeBucket 校验持久化的 bucket，无任何数据时返回 false
func NormalizeBucket(raw gjson.Result) (Bucket, bool) {
	if !raw.IsObject() {
		return Bucket{}, false
	}
	b := Bucket{
		Prompt:     raw.Get("prompt").Int(),
		Cached:     raw.Get("cached").Int(),
		Completion: raw.Get("completion").Int(),
	}
	b.Total = ResolveTotal(raw.Get("total").Int(), b.Prompt, b.Completion)
	b.Has = raw.Get("has").Bool() || b.Prompt != 0 || b.Cached != 0 || b.Completion != 0 || b.Total != 0
	if !b.Has {
		return Bucket{}, false
	}
	return b, true
}

// NormalizeTotals 校验持久化的 totals，两个阶段都无数据时返回 nil
func NormalizeTotals(data []byte) *Totals {
	if len(data) == 0 || !gjson.ValidBytes(data) {
		return nil
	}
	raw := gjson.ParseBytes(data)
	if !raw.IsObject() {
		return nil
	}
	summary, okSummary := NormalizeBucket(raw.Get("summary"))
	translate, okTranslate := NormalizeBucket(raw.Get("translate"))
	if !okSummary && !okTranslate {
		return nil
	}
	return &Totals{Summary: summary, Translate: translate}
}
