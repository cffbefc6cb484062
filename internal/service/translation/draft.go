package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"chunkslate/internal/model/translation"
	"chunkslate/internal/pkg/usage"
)

// DefaultDraftDebounce 草稿保存的防抖间隔
const DefaultDraftDebounce = 500 * time.Millisecond

// draftSaver 防抖保存草稿，快照为 nil 时删除草稿
type draftSaver struct {
	store    DraftStore
	debounce time.Duration
	snapshot func() *translation.Draft
	logger   zerolog.Logger

	mu    sync.Mutex
	timer *time.Timer
}

func newDraftSaver(store DraftStore, debounce time.Duration, snapshot func() *translation.Draft, logger zerolog.Logger) *draftSaver {
	if debounce <= 0 {
		debounce = DefaultDraftDebounce
	}
	return &draftSaver{store: store, debounce: debounce, snapshot: snapshot, logger: logger}
}

// Schedule 安排一次保存，重复调用会推迟保存时间
func (d *draftSaver) Schedule() {
	if d.store == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(d.debounce, func() {
		d.mu.Lock()
		if d.timer == timer {
			d.timer = nil
		}
		d.mu.Unlock()

		if err := d.save(context.Background()); err != nil {
			d.logger.Warn().Err(err).Msg("save draft failed")
		}
	})
	d.timer = timer
}

// Flush 立即写出尚未保存的草稿
func (d *draftSaver) Flush(ctx context.Context) error {
	if d.store == nil || !d.stop() {
		return nil
	}
	return d.save(ctx)
}

// Delete 取消待保存的草稿并删除已保存的草稿
func (d *draftSaver) Delete(ctx context.Context) error {
	if d.store == nil {
		return nil
	}
	d.stop()
	if err := d.store.DeleteDraft(ctx); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

// stop 取消计时器，返回是否有待保存的草稿
func (d *draftSaver) stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	return true
}

func (d *draftSaver) save(ctx context.Context) error {
	draft := d.snapshot()
	if draft == nil {
		if err := d.store.DeleteDraft(ctx); err != nil {
			return fmt.Errorf("delete draft: %w", err)
		}
		return nil
	}
	if err := d.store.SaveDraft(ctx, draft); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	d.logger.Debug().Int("chunks", len(draft.Chunks)).Msg("draft saved")
	return nil
}

// Draft 返回当前会话的草稿快照，会话为空时返回 nil
func (s *Session) Draft() *translation.Draft {
	return s.draftSnapshot()
}

// draftSnapshot 当前会话的草稿，没有任何内容时返回 nil
func (s *Session) draftSnapshot() *translation.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	chunks := s.registry.Chunks()
	if strings.TrimSpace(s.sourceText) == "" && len(chunks) == 0 && strings.TrimSpace(s.summary.Text) == "" {
		return nil
	}

	draft := &translation.Draft{
		V:           translation.DraftVersion,
		SavedAt:     time.Now().UnixMilli(),
		SourceText:  s.sourceText,
		SummaryText: s.summary.Text,
		Chunks:      make([]translation.DraftChunk, 0, len(chunks)),
	}
	if !s.summary.Running {
		draft.SummaryUsage = marshalRaw(s.summary.Usage)
	}
	draft.UsageTotals = marshalRaw(s.totals)

	for _, chunk := range chunks {
		status := chunk.Status
		if status == translation.StatusActive {
			status = translation.StatusPending
		}
		draft.Chunks = append(draft.Chunks, translation.DraftChunk{
			ID:               chunk.ID,
			SourceText:       chunk.SourceText,
			TranslatedText:   chunk.TranslatedText,
			Status:           status.String(),
			Error:            chunk.Error,
			Usage:            marshalRaw(chunk.Usage),
			ExtraInstruction: chunk.ExtraInstruction,
		})
	}
	return draft
}

// RestoreDraft 从草稿恢复会话，没有可用草稿时返回 false
//
// 恢复时丢弃原文为空的块，重复或缺失的 ID 重新分配，
// 用量汇总无效时由摘要与各块用量重新计算。
func (s *Session) RestoreDraft(ctx context.Context) (bool, error) {
	if s.drafts.store == nil {
		return false, nil
	}
	draft, err := s.drafts.store.LoadDraft(ctx)
	if err != nil {
		return false, fmt.Errorf("load draft: %w", err)
	}
	if draft == nil {
		return false, nil
	}
	if draft.V != translation.DraftVersion {
		s.logger.Warn().Int("version", draft.V).Msg("unsupported draft version, ignored")
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(draft.Chunks))
	chunks := make([]*translation.Chunk, 0, len(draft.Chunks))
	chunkUsages := make([]*usage.Usage, 0, len(draft.Chunks))
	for _, dc := range draft.Chunks {
		if strings.TrimSpace(dc.SourceText) == "" {
			continue
		}
		chunkID := dc.ID
		if chunkID == "" || seen[chunkID] {
			chunkID = s.registry.newID()
		}
		seen[chunkID] = true

		chunk := &translation.Chunk{
			ID:               chunkID,
			SourceText:       dc.SourceText,
			TranslatedText:   dc.TranslatedText,
			Status:           translation.SanitizeStatus(dc.Status),
			Usage:            usage.NormalizeJSON(dc.Usage),
			ExtraInstruction: dc.ExtraInstruction,
		}
		if chunk.Status == translation.StatusError {
			chunk.Error = dc.Error
		}
		chunks = append(chunks, chunk)
		chunkUsages = append(chunkUsages, chunk.Usage)
	}

	summaryUsage := usage.NormalizeJSON(draft.SummaryUsage)
	totals := usage.NormalizeTotals(draft.UsageTotals)
	if totals == nil {
		recomputed := usage.Recompute(summaryUsage, chunkUsages)
		totals = &recomputed
	}

	s.queue.reset()
	s.stopThrottlesLocked()
	s.cancelSummaryLocked()
	s.registry.Restore(chunks)
	s.sourceText = draft.SourceText
	s.summary = SummaryState{Text: draft.SummaryText, Usage: summaryUsage}
	s.totals = *totals
	s.cond.Broadcast()

	s.logger.Info().Int("chunks", len(chunks)).Int64("saved_at", draft.SavedAt).Msg("draft restored")
	s.notifyChunksLocked()
	s.notifyQueueLocked()
	s.notifySummaryLocked()
	s.notifyUsageLocked()
	return true, nil
}

// marshalRaw 序列化为 JSON，nil 指针输出 null
func marshalRaw(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return data
}
