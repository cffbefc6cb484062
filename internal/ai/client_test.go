package ai

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"chunkslate/internal/ai/completion"
	"chunkslate/internal/ai/component"
	"chunkslate/internal/config"
	"chunkslate/internal/pkg/usage"

	. "github.com/smartystreets/goconvey/convey"
)

type fakeChatModel struct {
	chunks []*schema.Message
	input  []*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	return schema.AssistantMessage("", nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	f.input = input
	return schema.StreamReaderFromArray(f.chunks), nil
}

func TestClient_Stream(t *testing.T) {
	Convey("eino 客户端将 StreamReader 转换为补全事件", t, func() {
		last := schema.AssistantMessage("", nil)
		last.ResponseMeta = &schema.ResponseMeta{Usage: &schema.TokenUsage{PromptTokens: 8, CompletionTokens: 4}}
		fake := &fakeChatModel{chunks: []*schema.Message{
			schema.AssistantMessage("Bon", nil),
			schema.AssistantMessage("jour", nil),
			last,
		}}

		var targets []component.Target
		client := NewClient(&config.AIConfig{Provider: "openai"})
		client.factory = func(ctx context.Context, target component.Target, opts config.AIOptionsConfig) (model.BaseChatModel, error) {
			targets = append(targets, target)
			return fake, nil
		}

		ctx := context.Background()
		req := &completion.Request{
			BaseURL: "https://example.com/v1/",
			Model:   "m",
			Messages: []completion.Message{
				{Role: completion.RoleSystem, Content: "sys"},
				{Role: completion.RoleUser, Content: "hi"},
			},
		}
		ch, err := client.Stream(ctx, req)
		So(err, ShouldBeNil)

		var deltas []string
		res, err := completion.Collect(ctx, ch, func(c completion.Chunk) {
			if c.Delta != "" {
				deltas = append(deltas, c.Delta)
			}
		})
		So(err, ShouldBeNil)
		So(deltas, ShouldResemble, []string{"Bon", "jour"})
		So(res.Text, ShouldEqual, "Bonjour")
		So(res.Usage, ShouldResemble, &usage.Usage{Prompt: 8, Completion: 4, Total: 12})

		So(len(fake.input), ShouldEqual, 2)
		So(fake.input[0].Role, ShouldEqual, schema.System)
		So(fake.input[1].Content, ShouldEqual, "hi")

		Convey("相同目标复用 ChatModel", func() {
			_, err := client.Stream(ctx, req)
			So(err, ShouldBeNil)
			So(len(targets), ShouldEqual, 1)
			So(targets[0].BaseURL, ShouldEqual, "https://example.com/v1")
		})
	})
}

func TestNewStreamer(t *testing.T) {
	Convey("按 provider 选择实现", t, func() {
		_, isHTTP := NewStreamer(&config.AIConfig{Provider: "http"}).(*completion.Client)
		So(isHTTP, ShouldBeTrue)

		_, isEino := NewStreamer(&config.AIConfig{Provider: "ark"}).(*Client)
		So(isEino, ShouldBeTrue)
	})
}
