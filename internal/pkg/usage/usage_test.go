package usage

import (
	"testing"

	"github.com/tidwall/gjson"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalize(t *testing.T) {
	Convey("Normalize 兼容不同提供方的字段", t, func() {
		Convey("OpenAI chat 字段与嵌套 cached", func() {
			u := Normalize(gjson.Parse(`{"prompt_tokens":120,"completion_tokens":30,"total_tokens":150,"prompt_tokens_details":{"cached_tokens":64}}`))
			So(u, ShouldResemble, &Usage{Prompt: 120, Cached: 64, Completion: 30, Total: 150})
		})

		Convey("responses 风格字段，total 缺失时补算", func() {
			u := Normalize(gjson.Parse(`{"input_tokens":10,"output_tokens":5,"input_tokens_details":{"cached_tokens":2}}`))
			So(u, ShouldResemble, &Usage{Prompt: 10, Cached: 2, Completion: 5, Total: 15})
		})

		Convey("total 非正时补算", func() {
			u := Normalize(gjson.Parse(`{"prompt":7,"completion":3,"total":0}`))
			So(u.Total, ShouldEqual, 10)
		})

		Convey("平铺 cached 字段优先于嵌套字段", func() {
			u := Normalize(gjson.Parse(`{"prompt_tokens":10,"cached_tokens":4,"prompt_tokens_details":{"cached_tokens":9}}`))
			So(u.Cached, ShouldEqual, 4)
		})

		Convey("null 字段跳到下一个候选", func() {
			u := Normalize(gjson.Parse(`{"prompt":null,"prompt_tokens":"12","completion_tokens":1}`))
			So(u.Prompt, ShouldEqual, 12)
		})

		Convey("全零与非对象返回 nil", func() {
			So(Normalize(gjson.Parse(`{"prompt_tokens":0,"completion_tokens":0}`)), ShouldBeNil)
			So(Normalize(gjson.Parse(`null`)), ShouldBeNil)
			So(Normalize(gjson.Parse(`[1,2]`)), ShouldBeNil)
			So(NormalizeJSON(nil), ShouldBeNil)
			So(NormalizeJSON([]byte(`{bad`)), ShouldBeNil)
		})

		Convey("仅有 cached 时不视为空", func() {
			u := Normalize(gjson.Parse(`{"cached":3}`))
			So(u, ShouldNotBeNil)
			So(u.Total, ShouldEqual, 0)
		})
	})
}

func TestBucket(t *testing.T) {
	Convey("Bucket 原样累加用量", t, func() {
		var b Bucket
		So(b.Has, ShouldBeFalse)

		b.Add(&Usage{Prompt: 100, Cached: 20, Completion: 50, Total: 150})
		b.Add(&Usage{Prompt: 200, Cached: 0, Completion: 100, Total: 300})
		b.Add(nil)
		So(b, ShouldResemble, Bucket{Prompt: 300, Cached: 20, Completion: 150, Total: 450, Has: true})

		Convey("Recompute 汇总摘要与各块", func() {
			totals := Recompute(&Usage{Prompt: 1, Total: 1}, []*Usage{nil, {Prompt: 2, Completion: 2, Total: 4}})
			So(totals.Summary.Has, ShouldBeTrue)
			So(totals.Translate, ShouldResemble, Bucket{Prompt: 2, Completion: 2, Total: 4, Has: true})

			empty := Recompute(nil, nil)
			So(empty.Summary.Has, ShouldBeFalse)
			So(empty.Translate.Has, ShouldBeFalse)
		})

		Convey("NormalizeTotals 校验持久化数据", func() {
			t := NormalizeTotals([]byte(`{"summary":{"prompt":5,"completion":5},"translate":{"has":false}}`))
			So(t, ShouldNotBeNil)
			So(t.Summary, ShouldResemble, Bucket{Prompt: 5, Completion: 5, Total: 10, Has: true})
			So(t.Translate.Has, ShouldBeFalse)

			So(NormalizeTotals([]byte(`{"summary":{},"translate":{}}`)), ShouldBeNil)
			So(NormalizeTotals([]byte(`"x"`)), ShouldBeNil)

			zero := NormalizeTotals([]byte(`{"translate":{"has":true}}`))
			So(zero, ShouldNotBeNil)
			So(zero.Translate.Has, ShouldBeTrue)
		})
	})
}

func TestCost(t *testing.T) {
	Convey("费用计算", t, func() {
		b := Bucket{Prompt: 300, Cached: 20, Completion: 150, Total: 450, Has: true}
		p := Pricing{Prompt: 1, Cached: 0.5, Completion: 2}

		So(ComputeCost(b, p), ShouldAlmostEqual, (280*1+20*0.5+150*2)/1_000_000.0, 1e-12)

		Convey("cached 超过 prompt 时截断", func() {
			over := Bucket{Prompt: 10, Cached: 50, Has: true}
			So(ComputeCost(over, p), ShouldAlmostEqual, 10*0.5/1_000_000.0, 1e-12)
		})

		Convey("未观察到用量时为零", func() {
			So(ComputeCost(Bucket{Prompt: 10}, p), ShouldEqual, 0)
		})

		Convey("ResolvePricing 回退规则", func() {
			one, neg := 1.5, -2.0
			So(ResolvePricing(&one, nil, nil), ShouldResemble, Pricing{Prompt: 1.5, Cached: 1.5, Completion: 0})
			So(ResolvePricing(&neg, &neg, &one), ShouldResemble, Pricing{Prompt: 0, Cached: 0, Completion: 1.5})
			zero := 0.0
			So(ResolvePricing(&one, &zero, nil).Cached, ShouldEqual, 0)
		})

		Convey("FormatUSD", func() {
			So(FormatUSD(0), ShouldEqual, "$0.00")
			So(FormatUSD(0.00059), ShouldEqual, "$0.0006")
			So(FormatUSD(1.234), ShouldEqual, "$1.23")
		})

		Convey("FormatLine 与报告", func() {
			So(FormatLine(Bucket{}), ShouldEqual, "N/A")
			So(FormatLine(b), ShouldEqual, "prompt 300 (cached 20) / completion 150 / total 450")

			r := BuildReport(Totals{Translate: b}, Pricing{}, p)
			So(r.SummaryCost, ShouldEqual, "N/A")
			So(r.TranslateCost, ShouldEqual, "$0.0006")
			So(r.TotalCost, ShouldEqual, "$0.0006")

			So(BuildReport(Totals{}, p, p).TotalCost, ShouldEqual, "N/A")
		})
	})
}

func TestLookupModel(t *testing.T) {
	Convey("常见模型单价查询", t, func() {
		p, ok := LookupModel("gpt-5-mini")
		So(ok, ShouldBeTrue)
		So(p, ShouldResemble, ModelPrice{Input: 0.25, Output: 2, CacheRead: 0.025})

		p, ok = LookupModel("  Google/Gemini-3-Pro ")
		So(ok, ShouldBeTrue)
		So(p.Input, ShouldEqual, 2)

		_, ok = LookupModel("unknown-model")
		So(ok, ShouldBeFalse)
		_, ok = LookupModel("")
		So(ok, ShouldBeFalse)

		So(StripProviderPrefix("OpenAI/gpt-5.2"), ShouldEqual, "gpt-5.2")
		So(StripProviderPrefix("mistral/large"), ShouldEqual, "mistral/large")
	})
}
