package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"chunkslate/internal/ai/completion"
	"chunkslate/internal/ai/component"
	"chunkslate/internal/config"
	"chunkslate/internal/pkg/usage"
)

// ChatModelFactory 按目标端点创建 eino ChatModel
type ChatModelFactory func(ctx context.Context, target component.Target, opts config.AIOptionsConfig) (model.BaseChatModel, error)

// Client 基于 eino ChatModel 的流式补全实现
// 端点、密钥与模型随请求变化，ChatModel 按目标缓存复用
type Client struct {
	provider string
	options  config.AIOptionsConfig
	factory  ChatModelFactory

	mu     sync.Mutex
	models map[component.Target]model.BaseChatModel

	logger zerolog.Logger
}

// NewClient 创建 eino 客户端
func NewClient(cfg *config.AIConfig) *Client {
	return &Client{
		provider: cfg.Provider,
		options:  cfg.Options,
		factory:  component.NewChatModel,
		models:   make(map[component.Target]model.BaseChatModel),
		logger:   log.With().Str("component", "eino").Str("provider", cfg.Provider).Logger(),
	}
}

// NewStreamer 根据 provider 选择补全实现：http 使用内置 SSE 客户端，其余走 eino
func NewStreamer(cfg *config.AIConfig) completion.Streamer {
	if cfg.Provider == "http" {
		return completion.NewClient(
			completion.WithTimeout(cfg.Timeout),
			completion.WithTemperature(cfg.Options.Temperature),
		)
	}
	return NewClient(cfg)
}

// Stream 实现 completion.Streamer
func (c *Client) Stream(ctx context.Context, req *completion.Request) (<-chan completion.Chunk, error) {
	chatModel, err := c.chatModel(ctx, component.Target{
		Provider: c.provider,
		BaseURL:  strings.TrimSuffix(req.BaseURL, "/"),
		APIKey:   req.APIKey,
		Model:    req.Model,
	})
	if err != nil {
		return nil, err
	}

	reader, err := chatModel.Stream(ctx, toSchemaMessages(req.Messages))
	if err != nil {
		return nil, err
	}

	ch := make(chan completion.Chunk, 16)
	go func() {
		defer close(ch)
		defer reader.Close()

		var (
			text   strings.Builder
			latest *usage.Usage
		)
		for {
			msg, err := reader.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				if ctx.Err() != nil {
					err = ctx.Err()
				}
				emit(ctx, ch, completion.Chunk{Err: err})
				return
			}

			if u := fromTokenUsage(msg); u != nil {
				latest = u
				if !emit(ctx, ch, completion.Chunk{Text: text.String(), Usage: u}) {
					return
				}
			}
			if msg.Content == "" {
				continue
			}
			text.WriteString(msg.Content)
			if !emit(ctx, ch, completion.Chunk{Delta: msg.Content, Text: text.String()}) {
				return
			}
		}
		emit(ctx, ch, completion.Chunk{Done: true, Text: text.String(), Usage: latest})
	}()
	return ch, nil
}

func (c *Client) chatModel(ctx context.Context, target component.Target) (model.BaseChatModel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.models[target]; ok {
		return m, nil
	}
	m, err := c.factory(ctx, target, c.options)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	c.models[target] = m
	c.logger.Debug().Str("model", target.Model).Msg("chat model created")
	return m, nil
}

func toSchemaMessages(messages []completion.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case completion.RoleSystem:
			out = append(out, schema.SystemMessage(m.Content))
		case completion.RoleAssistant:
			out = append(out, schema.AssistantMessage(m.Content, nil))
		default:
			out = append(out, schema.UserMessage(m.Content))
		}
	}
	return out
}

// fromTokenUsage 提取 eino 消息中的用量
func fromTokenUsage(msg *schema.Message) *usage.Usage {
	if msg == nil || msg.ResponseMeta == nil || msg.ResponseMeta.Usage == nil {
		return nil
	}
	tu := msg.ResponseMeta.Usage
	u := &usage.Usage{
		Prompt:     int64(tu.PromptTokens),
		Cached:     int64(tu.PromptTokenDetails.CachedTokens),
		Completion: int64(tu.CompletionTokens),
	}
	u.Total = usage.ResolveTotal(int64(tu.TotalTokens), u.Prompt, u.Completion)
	if u.IsZero() {
		return nil
	}
	return u
}

func emit(ctx context.Context, ch chan<- completion.Chunk, c completion.Chunk) bool {
	select {
	case ch <- c:
		return true
	case <-ctx.Done():
		return false
	}
}
