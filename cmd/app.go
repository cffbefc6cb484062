package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"chunkslate/internal/ai"
	"chunkslate/internal/config"
	"chunkslate/internal/model/translation"
	"chunkslate/internal/pkg/segmenter"
	"chunkslate/internal/repository"
	svc "chunkslate/internal/service/translation"
)

// app 命令共用的会话及其依赖
type app struct {
	session    *svc.Session
	hub        *svc.Hub
	repo       *repository.StateRepo // persist=false 时为 nil
	closeStore repository.CloseFunc
}

// newApp 创建会话；persist 为 true 时接入配置的持久化后端并恢复设置与草稿
func newApp(ctx context.Context, cfg *config.Config, persist bool) (*app, error) {
	seg, err := newSegmenter(&cfg.Chunking)
	if err != nil {
		return nil, err
	}

	a := &app{
		hub:        svc.NewHub(256),
		closeStore: func(context.Context) error { return nil },
	}
	opts := svc.Options{
		Streamer:      ai.NewStreamer(&cfg.AI),
		Segmenter:     seg,
		Defaults:      defaultSettings(cfg),
		DraftDebounce: cfg.Persist.DraftDebounce,
		Notifier:      a.hub,
	}

	if persist {
		store, closeStore, err := repository.Open(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", cfg.Persist.Backend, err)
		}
		a.closeStore = closeStore
		a.repo = repository.NewStateRepo(store, cfg.Persist.SettingsKey, cfg.Persist.DraftKey)
		opts.SettingsStore = a.repo
		opts.DraftStore = a.repo
	}

	a.session = svc.NewSession(opts)
	if !persist {
		return a, nil
	}

	if err := a.session.LoadSettings(ctx); err != nil {
		a.close(ctx)
		return nil, err
	}
	restored, err := a.session.RestoreDraft(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to restore draft, starting empty")
	} else if restored {
		log.Info().Int("chunks", len(a.session.Chunks())).Msg("draft restored")
	}
	return a, nil
}

// close 中止请求、写出草稿并关闭存储
func (a *app) close(ctx context.Context) {
	if err := a.session.Close(ctx); err != nil {
		log.Error().Err(err).Msg("failed to flush draft")
	}
	if err := a.closeStore(ctx); err != nil {
		log.Error().Err(err).Msg("failed to close store")
	}
}

// newSegmenter 按配置创建分段器
func newSegmenter(cfg *config.ChunkingConfig) (*segmenter.Segmenter, error) {
	rule, err := segmenter.RuleByName(cfg.SentenceRule)
	if err != nil {
		return nil, err
	}
	seg := segmenter.New()
	seg.SetThresholds(cfg.MaxLength, cfg.MinLength)
	seg.SetSentenceRule(rule)
	return seg, nil
}

// defaultSettings 配置文件中的设置作为默认值，持久化的设置会覆盖它们
func defaultSettings(cfg *config.Config) translation.Settings {
	return translation.Settings{
		BaseURL:                  cfg.AI.BaseURL,
		APIKey:                   cfg.AI.APIKey,
		SummaryModel:             cfg.AI.SummaryModel,
		TranslateModel:           cfg.AI.TranslateModel,
		TargetLang:               cfg.Translate.TargetLang,
		Concurrency:              cfg.Translate.Concurrency,
		SummaryPricePrompt:       cfg.Pricing.Summary.Prompt,
		SummaryPriceCached:       cfg.Pricing.Summary.Cached,
		SummaryPriceCompletion:   cfg.Pricing.Summary.Completion,
		TranslatePricePrompt:     cfg.Pricing.Translate.Prompt,
		TranslatePriceCached:     cfg.Pricing.Translate.Cached,
		TranslatePriceCompletion: cfg.Pricing.Translate.Completion,
	}
}

// readInput 读取文件内容，"-" 表示标准输入
func readInput(path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// writeOutput 写入文件，路径为空或 "-" 时写到标准输出
func writeOutput(path, text string) error {
	if path == "" || path == "-" {
		_, err := fmt.Fprintln(os.Stdout, text)
		return err
	}
	if err := os.WriteFile(path, []byte(text+"\n"), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
