package component

import (
	"context"
	"fmt"

	arkext "github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"chunkslate/internal/config"
)

// Target 一次调用的目标端点与模型
type Target struct {
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
}

// NewChatModel 创建 ChatModel
// 支持多种 Provider: openai, azure, ark
func NewChatModel(ctx context.Context, target Target, opts config.AIOptionsConfig) (model.BaseChatModel, error) {
	switch target.Provider {
	case "openai", "":
		return newOpenAIChatModel(ctx, target, opts, false)
	case "azure":
		return newOpenAIChatModel(ctx, target, opts, true)
	case "ark":
		return newArkChatModel(ctx, target, opts)
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", target.Provider)
	}
}

// newOpenAIChatModel 创建 OpenAI 兼容（含 Azure）ChatModel
func newOpenAIChatModel(ctx context.Context, target Target, opts config.AIOptionsConfig, byAzure bool) (model.BaseChatModel, error) {
	modelCfg := &openai.ChatModelConfig{
		Model:   target.Model,
		APIKey:  target.APIKey,
		BaseURL: target.BaseURL,
		ByAzure: byAzure,
	}

	temp := float32(1.0)
	if opts.Temperature > 0 {
		temp = float32(opts.Temperature)
	}
	modelCfg.Temperature = &temp
	if opts.MaxTokens > 0 {
		modelCfg.MaxTokens = &opts.MaxTokens
	}
	if opts.TopP > 0 {
		topP := float32(opts.TopP)
		modelCfg.TopP = &topP
	}

	return openai.NewChatModel(ctx, modelCfg)
}

// newArkChatModel 创建 Ark ChatModel（使用 eino-ext 模块）
func newArkChatModel(ctx context.Context, target Target, opts config.AIOptionsConfig) (model.BaseChatModel, error) {
	baseURL := target.BaseURL
	if baseURL == "" {
		baseURL = "https://ark.cn-beijing.volces.com/api/v3"
	}

	modelCfg := &arkext.ChatModelConfig{
		Model:   target.Model,
		APIKey:  target.APIKey,
		BaseURL: baseURL,
	}

	temp := float32(1.0)
	if opts.Temperature > 0 {
		temp = float32(opts.Temperature)
	}
	modelCfg.Temperature = &temp
	if opts.MaxTokens > 0 {
		modelCfg.MaxTokens = &opts.MaxTokens
	}
	if opts.TopP > 0 {
		topP := float32(opts.TopP)
		modelCfg.TopP = &topP
	}

	return arkext.NewChatModel(ctx, modelCfg)
}
