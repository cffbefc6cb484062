package translation

import (
	"context"
	"errors"
	"strings"

	"chunkslate/internal/ai/completion"
)

// GenerateSummary 生成全文摘要，阻塞直到完成
//
// 同一时间只允许一个摘要请求。失败时不保留部分输出。
func (s *Session) GenerateSummary(ctx context.Context) (SummaryState, error) {
	s.mu.Lock()
	source := s.sourceText
	settings := s.settings
	if strings.TrimSpace(source) == "" {
		s.mu.Unlock()
		return SummaryState{}, ErrInvalidInput
	}
	if strings.TrimSpace(settings.BaseURL) == "" || strings.TrimSpace(settings.SummaryModel) == "" {
		s.mu.Unlock()
		return SummaryState{}, ErrMissingSettings
	}
	if err := completion.CheckBaseURL(settings.BaseURL); err != nil {
		s.mu.Unlock()
		return SummaryState{}, err
	}
	if s.summary.Running {
		s.mu.Unlock()
		return SummaryState{}, ErrSummaryBusy
	}

	runCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.baseCtx, cancel)
	defer stop()
	defer cancel()

	s.summaryGen++
	gen := s.summaryGen
	s.summaryCancel = cancel
	s.summary = SummaryState{Running: true}
	s.notifySummaryLocked()
	s.mu.Unlock()

	s.logger.Info().Str("model", settings.SummaryModel).Msg("summary generation started")

	req := &completion.Request{
		BaseURL:  settings.BaseURL,
		APIKey:   settings.APIKey,
		Model:    settings.SummaryModel,
		Messages: summaryMessages(settings.TargetLanguage(), source),
	}
	throttle := newRenderThrottle(s.renderInterval)
	flush := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		throttle.fired()
		if s.summaryGen == gen && s.summary.Running {
			s.notifySummaryLocked()
		}
	}

	ch, err := s.streamer.Stream(runCtx, req)
	var res *completion.Result
	if err == nil {
		res, err = completion.Collect(runCtx, ch, func(c completion.Chunk) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.summaryGen != gen {
				return
			}
			s.summary.Text += c.Delta
			if c.Usage != nil {
				s.summary.Usage = c.Usage.Clone()
			}
			throttle.do(s.notifySummaryLocked, flush)
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	throttle.stop()

	if s.summaryGen != gen {
		return SummaryState{}, context.Canceled
	}
	s.summaryCancel = nil

	if err == nil && strings.TrimSpace(res.Text) == "" {
		err = ErrEmptyResponse
	}
	if err != nil {
		s.summary = SummaryState{}
		s.notifySummaryLocked()
		if errors.Is(err, context.Canceled) {
			s.logger.Info().Msg("summary generation canceled")
		} else {
			s.logger.Warn().Err(err).Msg("summary generation failed")
		}
		return SummaryState{}, err
	}

	s.summary = SummaryState{
		Text:  strings.TrimSpace(res.Text),
		Usage: res.Usage.Clone(),
	}
	s.totals.Summary.Add(res.Usage)
	s.logger.Info().Msg("summary generated")

	s.notifySummaryLocked()
	s.notifyUsageLocked()
	s.drafts.Schedule()
	return s.summarySnapshotLocked(), nil
}

// SetSummary 手动修改摘要文本
func (s *Session) SetSummary(text string) (SummaryState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.summary.Running {
		return SummaryState{}, ErrSummaryBusy
	}
	s.summary.Text = text
	s.notifySummaryLocked()
	s.drafts.Schedule()
	return s.summarySnapshotLocked(), nil
}

// CancelSummary 取消进行中的摘要请求，没有请求时返回 false
func (s *Session) CancelSummary() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.summary.Running {
		return false
	}
	s.cancelSummaryLocked()
	s.summary = SummaryState{}
	s.notifySummaryLocked()
	return true
}

// cancelSummaryLocked 使进行中的摘要请求失效
func (s *Session) cancelSummaryLocked() {
	if s.summaryCancel != nil {
		s.summaryCancel()
		s.summaryCancel = nil
	}
	s.summaryGen++
	s.summary.Running = false
}
