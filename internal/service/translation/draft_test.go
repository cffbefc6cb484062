package translation

import (
	"context"
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"chunkslate/internal/model/translation"
)

func TestDraft(t *testing.T) {
	Convey("草稿保存与恢复", t, func() {
		store := &memoryDrafts{}
		withStore := func(o *Options) { o.DraftStore = store }

		Convey("关闭会话时写出草稿，新会话可以恢复", func() {
			s, _ := newTestSession(echoStream, withStore)
			s.SetSource(paragraphs(2))
			chunks, _ := s.Segment()
			_, _ = s.TranslateChunk(chunks[0].ID)
			So(waitIdle(s), ShouldBeNil)
			_, _ = s.SetExtraInstruction(chunks[1].ID, "formal")
			_, _ = s.SetSummary("sum")
			So(s.Close(context.Background()), ShouldBeNil)

			So(store.draft, ShouldNotBeNil)
			So(store.draft.V, ShouldEqual, translation.DraftVersion)
			So(len(store.draft.Chunks), ShouldEqual, 2)
			So(store.draft.Chunks[0].Status, ShouldEqual, "done")

			restored, _ := newTestSession(echoStream, withStore)
			defer restored.Close(context.Background())
			ok, err := restored.RestoreDraft(context.Background())
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)

			got := restored.Chunks()
			So(len(got), ShouldEqual, 2)
			So(got[0].ID, ShouldEqual, chunks[0].ID)
			So(got[0].Status, ShouldEqual, translation.StatusDone)
			So(got[0].TranslatedText, ShouldEqual, "T:"+chunks[0].SourceText)
			So(got[0].Usage.Total, ShouldEqual, 150)
			So(got[1].ExtraInstruction, ShouldEqual, "formal")
			So(restored.Source(), ShouldEqual, paragraphs(2))
			So(restored.Summary().Text, ShouldEqual, "sum")
			So(restored.Totals().Translate.Total, ShouldEqual, 150)
		})

		Convey("恢复时清理无效数据", func() {
			store.draft = &translation.Draft{
				V:          translation.DraftVersion,
				SourceText: "src",
				Chunks: []translation.DraftChunk{
					{ID: "x", SourceText: "One.", Status: "active", Error: "stale"},
					{ID: "x", SourceText: "Two.", Status: "error", Error: "boom"},
					{ID: "y", SourceText: "   ", Status: "done"},
					{ID: "", SourceText: "Three.", Status: "weird", Usage: json.RawMessage(`{"prompt_tokens":10,"completion_tokens":5}`)},
				},
				UsageTotals: json.RawMessage(`{"summary":{},"translate":"bad"}`),
			}

			s, _ := newTestSession(echoStream, withStore)
			defer s.Close(context.Background())
			ok, err := s.RestoreDraft(context.Background())
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)

			got := s.Chunks()
			So(len(got), ShouldEqual, 3)
			So(got[0].ID, ShouldEqual, "x")
			So(got[0].Status, ShouldEqual, translation.StatusPending)
			So(got[0].Error, ShouldEqual, "")
			So(got[1].ID, ShouldNotEqual, "x")
			So(got[1].Error, ShouldEqual, "boom")
			So(got[2].ID, ShouldNotBeEmpty)
			So(got[2].Status, ShouldEqual, translation.StatusPending)
			So(got[2].Usage.Total, ShouldEqual, 15)

			totals := s.Totals()
			So(totals.Summary.Has, ShouldBeFalse)
			So(totals.Translate.Has, ShouldBeTrue)
			So(totals.Translate.Total, ShouldEqual, 15)
		})

		Convey("版本不符或没有草稿时不恢复", func() {
			s, _ := newTestSession(echoStream, withStore)
			defer s.Close(context.Background())

			ok, err := s.RestoreDraft(context.Background())
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)

			store.draft = &translation.Draft{V: 2, SourceText: "x"}
			ok, err = s.RestoreDraft(context.Background())
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})

		Convey("进行中的块保存为 pending", func() {
			release := make(chan struct{})
			defer close(release)
			s, _ := newTestSession(gatedStream(release, ""), withStore)
			defer s.Close(context.Background())

			s.SetSource("Hello.")
			chunks, _ := s.Segment()
			_, _ = s.TranslateChunk(chunks[0].ID)

			draft := s.draftSnapshot()
			So(draft.Chunks[0].Status, ShouldEqual, "pending")
			So(string(draft.Chunks[0].Usage), ShouldEqual, "null")
		})

		Convey("空会话的快照为 nil", func() {
			s, _ := newTestSession(echoStream, withStore)
			defer s.Close(context.Background())
			So(s.draftSnapshot(), ShouldBeNil)
		})
	})
}
