package translation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"chunkslate/internal/ai/completion"
	"chunkslate/internal/model/translation"
	"chunkslate/internal/pkg/id"
	"chunkslate/internal/pkg/segmenter"
	"chunkslate/internal/pkg/usage"
)

// defaultRenderInterval 流式增量通知的最小间隔（约一帧）
const defaultRenderInterval = 16 * time.Millisecond

// SettingsStore 设置持久化
type SettingsStore interface {
	// LoadSettings 不存在时返回 nil, nil
	LoadSettings(ctx context.Context) (*translation.Settings, error)
	SaveSettings(ctx context.Context, settings *translation.Settings) error
}

// DraftStore 草稿持久化
type DraftStore interface {
	// LoadDraft 不存在时返回 nil, nil
	LoadDraft(ctx context.Context) (*translation.Draft, error)
	SaveDraft(ctx context.Context, draft *translation.Draft) error
	DeleteDraft(ctx context.Context) error
}

// SummaryState 摘要状态
type SummaryState struct {
	Text    string       `json:"text"`
	Usage   *usage.Usage `json:"usage,omitempty"`
	Running bool         `json:"running"`
}

// Options 会话依赖
type Options struct {
	Streamer       completion.Streamer
	Segmenter      *segmenter.Segmenter
	Defaults       translation.Settings // 配置文件中的默认设置
	SettingsStore  SettingsStore        // 可选
	DraftStore     DraftStore           // 可选
	DraftDebounce  time.Duration
	Notifier       Notifier // 可选
	NewID          id.Generator
	RenderInterval time.Duration
}

// Session 单会话翻译协调者
//
// 持有块列表、调度队列、摘要与用量汇总，所有状态由 mu 保护。
// 每个进行中的翻译运行在独立 goroutine 中，回调通过 flight 校验后才写回块。
type Session struct {
	mu   sync.Mutex
	cond *sync.Cond

	registry  *Registry
	queue     *Queue
	segmenter *segmenter.Segmenter
	streamer  completion.Streamer

	settings      translation.Settings
	settingsStore SettingsStore

	sourceText    string
	summary       SummaryState
	summaryGen    int
	summaryCancel context.CancelFunc
	totals        usage.Totals

	notifier       Notifier
	renderInterval time.Duration
	throttles      map[string]*renderThrottle
	drafts         *draftSaver

	baseCtx context.Context
	stop    context.CancelFunc
	logger  zerolog.Logger
}

// NewSession 创建会话
func NewSession(opts Options) *Session {
	if opts.Segmenter == nil {
		opts.Segmenter = segmenter.New()
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.RenderInterval <= 0 {
		opts.RenderInterval = defaultRenderInterval
	}

	settings := opts.Defaults
	settings.Concurrency = translation.ClampConcurrency(settings.Concurrency)
	settings.PrefillPricing()

	baseCtx, stop := context.WithCancel(context.Background())
	s := &Session{
		registry:       NewRegistry(opts.NewID),
		queue:          newQueue(settings.Concurrency),
		segmenter:      opts.Segmenter,
		streamer:       opts.Streamer,
		settings:       settings,
		settingsStore:  opts.SettingsStore,
		notifier:       opts.Notifier,
		renderInterval: opts.RenderInterval,
		throttles:      make(map[string]*renderThrottle),
		baseCtx:        baseCtx,
		stop:           stop,
		logger:         log.With().Str("component", "translation").Logger(),
	}
	s.cond = sync.NewCond(&s.mu)
	s.drafts = newDraftSaver(opts.DraftStore, opts.DraftDebounce, s.draftSnapshot, s.logger)
	return s
}

// Close 中止所有请求并写出待保存的草稿
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	s.queue.reset()
	s.stopThrottlesLocked()
	s.cancelSummaryLocked()
	s.cond.Broadcast()
	s.mu.Unlock()

	s.stop()
	return s.drafts.Flush(ctx)
}

// LoadSettings 读取持久化设置并覆盖默认值
func (s *Session) LoadSettings(ctx context.Context) error {
	if s.settingsStore == nil {
		return nil
	}
	stored, err := s.settingsStore.LoadSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = mergeSettings(s.settings, stored)
	s.settings.PrefillPricing()
	s.applyConcurrencyLocked(s.settings.Concurrency)
	return nil
}

// Settings 当前设置
func (s *Session) Settings() translation.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// UpdateSettings 替换设置并持久化，并发数变化立即生效
func (s *Session) UpdateSettings(ctx context.Context, next translation.Settings) (translation.Settings, error) {
	next.BaseURL = strings.TrimSpace(next.BaseURL)
	next.SummaryModel = strings.TrimSpace(next.SummaryModel)
	next.TranslateModel = strings.TrimSpace(next.TranslateModel)
	next.TargetLang = strings.TrimSpace(next.TargetLang)
	next.Concurrency = translation.ClampConcurrency(next.Concurrency)
	next.PrefillPricing()

	s.mu.Lock()
	s.settings = next
	s.applyConcurrencyLocked(next.Concurrency)
	s.notifyUsageLocked()
	s.mu.Unlock()

	return next, s.saveSettings(ctx, next)
}

// SetConcurrency 调整并发上限，返回生效值
func (s *Session) SetConcurrency(ctx context.Context, n int) (int, error) {
	s.mu.Lock()
	limit := translation.ClampConcurrency(n)
	s.settings.Concurrency = limit
	s.applyConcurrencyLocked(limit)
	settings := s.settings
	s.mu.Unlock()

	return limit, s.saveSettings(ctx, settings)
}

func (s *Session) applyConcurrencyLocked(limit int) {
	if s.queue.limit == limit {
		return
	}
	s.queue.limit = limit
	s.logger.Debug().Int("limit", limit).Msg("concurrency changed")
	s.drainLocked()
	s.notifyQueueLocked()
}

func (s *Session) saveSettings(ctx context.Context, settings translation.Settings) error {
	if s.settingsStore == nil {
		return nil
	}
	if err := s.settingsStore.SaveSettings(ctx, &settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// mergeSettings 非空的持久化字段覆盖默认值
func mergeSettings(base translation.Settings, stored *translation.Settings) translation.Settings {
	if stored == nil {
		return base
	}
	if stored.BaseURL != "" {
		base.BaseURL = stored.BaseURL
	}
	if stored.APIKey != "" {
		base.APIKey = stored.APIKey
	}
	if stored.SummaryModel != "" {
		base.SummaryModel = stored.SummaryModel
	}
	if stored.TranslateModel != "" {
		base.TranslateModel = stored.TranslateModel
	}
	if stored.TargetLang != "" {
		base.TargetLang = stored.TargetLang
	}
	if stored.Concurrency > 0 {
		base.Concurrency = translation.ClampConcurrency(stored.Concurrency)
	}
	if stored.SummaryPricePrompt != nil || stored.SummaryPriceCached != nil || stored.SummaryPriceCompletion != nil {
		base.SummaryPricePrompt = stored.SummaryPricePrompt
		base.SummaryPriceCached = stored.SummaryPriceCached
		base.SummaryPriceCompletion = stored.SummaryPriceCompletion
	}
	if stored.TranslatePricePrompt != nil || stored.TranslatePriceCached != nil || stored.TranslatePriceCompletion != nil {
		base.TranslatePricePrompt = stored.TranslatePricePrompt
		base.TranslatePriceCached = stored.TranslatePriceCached
		base.TranslatePriceCompletion = stored.TranslatePriceCompletion
	}
	return base
}

// SetSource 设置原文
func (s *Session) SetSource(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sourceText = text
	s.drafts.Schedule()
}

// Source 当前原文
func (s *Session) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sourceText
}

// Segment 对原文分段并替换块列表，进行中的翻译全部中止
func (s *Session) Segment() ([]*translation.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(s.sourceText) == "" {
		return nil, ErrInvalidInput
	}
	texts := s.segmenter.Segment(s.sourceText)

	s.queue.reset()
	s.stopThrottlesLocked()
	s.registry.Populate(texts)
	s.logger.Info().Int("chunks", len(texts)).Msg("source segmented")

	s.afterChangeLocked()
	s.notifyChunksLocked()
	return s.chunksLocked(), nil
}

// Chunks 块列表快照
func (s *Session) Chunks() []*translation.Chunk {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chunksLocked()
}

// Chunk 单块快照
func (s *Session) Chunk(chunkID string) (*translation.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chunk := s.registry.Find(chunkID)
	if chunk == nil {
		return nil, ErrChunkNotFound
	}
	return chunk.Clone(), nil
}

// QueueState 调度状态快照
func (s *Session) QueueState() QueueState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.state()
}

// Summary 摘要快照
func (s *Session) Summary() SummaryState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summarySnapshotLocked()
}

// Totals 用量汇总快照
func (s *Session) Totals() usage.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals
}

// UsageReport 按当前单价生成用量与费用报告
func (s *Session) UsageReport() usage.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return usage.BuildReport(s.totals, s.settings.SummaryPricing(), s.settings.TranslatePricing())
}

// Reset 清空会话：中止请求、清空队列、块、原文、摘要、用量与草稿
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.queue.reset()
	s.stopThrottlesLocked()
	s.registry.Clear()
	s.sourceText = ""
	s.cancelSummaryLocked()
	s.summary = SummaryState{}
	s.totals = usage.Totals{}
	s.cond.Broadcast()

	s.notifyChunksLocked()
	s.notifyQueueLocked()
	s.notifySummaryLocked()
	s.notifyUsageLocked()
	s.mu.Unlock()

	s.logger.Info().Msg("session reset")
	return s.drafts.Delete(ctx)
}

// WaitIdle 阻塞直到没有排队或进行中的翻译
func (s *Session) WaitIdle(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.cond.Broadcast()
	})
	defer stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	for !s.queue.idle() {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.cond.Wait()
	}
	return nil
}

func (s *Session) chunksLocked() []*translation.Chunk {
	chunks := s.registry.Chunks()
	out := make([]*translation.Chunk, len(chunks))
	for i, c := range chunks {
		out[i] = c.Clone()
	}
	return out
}

func (s *Session) summarySnapshotLocked() SummaryState {
	snap := s.summary
	snap.Usage = s.summary.Usage.Clone()
	return snap
}

// afterChangeLocked 状态变化后的收尾：调度空闲槽、检查批量完成、唤醒等待者、安排草稿保存
func (s *Session) afterChangeLocked() {
	s.drainLocked()
	s.settleLocked()
	s.cond.Broadcast()
	s.drafts.Schedule()
}

func (s *Session) notifyChunkLocked(chunk *translation.Chunk) {
	s.notifier.Notify(Event{Type: EventChunk, Chunk: chunk.Clone()})
}

func (s *Session) notifyChunksLocked() {
	s.notifier.Notify(Event{Type: EventChunks, Chunks: s.chunksLocked()})
}

func (s *Session) notifyQueueLocked() {
	state := s.queue.state()
	s.notifier.Notify(Event{Type: EventQueue, Queue: &state})
}

func (s *Session) notifySummaryLocked() {
	snap := s.summarySnapshotLocked()
	s.notifier.Notify(Event{Type: EventSummary, Summary: &snap})
}

func (s *Session) notifyUsageLocked() {
	totals := s.totals
	s.notifier.Notify(Event{Type: EventUsage, Usage: &totals})
}

// notifyThrottledLocked 流式增量通知，每块每帧至多一次，窗口内的最后一次增量在窗口结束时补发
func (s *Session) notifyThrottledLocked(f *flight, chunk *translation.Chunk) {
	t, ok := s.throttles[f.id]
	if !ok {
		t = newRenderThrottle(s.renderInterval)
		s.throttles[f.id] = t
	}
	t.do(func() { s.notifyChunkLocked(chunk) }, func() { s.flushChunkRender(f, t) })
}

// flushChunkRender trailing 补发，flight 失效或限频器已被替换时跳过
func (s *Session) flushChunkRender(f *flight, t *renderThrottle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.fired()
	if s.throttles[f.id] != t || !s.queue.current(f) {
		return
	}
	if chunk := s.registry.Find(f.id); chunk != nil {
		s.notifyChunkLocked(chunk)
	}
}

func (s *Session) stopThrottleLocked(chunkID string) {
	if t, ok := s.throttles[chunkID]; ok {
		t.stop()
		delete(s.throttles, chunkID)
	}
}

func (s *Session) stopThrottlesLocked() {
	for _, t := range s.throttles {
		t.stop()
	}
	clear(s.throttles)
}
