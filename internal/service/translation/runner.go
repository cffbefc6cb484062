package translation

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"chunkslate/internal/ai/completion"
	"chunkslate/internal/model/translation"
)

// StartBulk 批量翻译全部块
//
// 清除取消标记，全部块回到 pending 后按顺序入队。
// 已在进行中的块保持不动，避免同一块出现两个请求。
func (s *Session) StartBulk() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.registry.Len() == 0 {
		return ErrNoChunks
	}

	s.queue.cancelRequested = false
	s.queue.running = true

	chunks := s.registry.Chunks()
	for _, chunk := range chunks {
		if s.queue.busy(chunk.ID) {
			continue
		}
		chunk.Status = translation.StatusPending
		chunk.Error = ""
	}
	for _, chunk := range chunks {
		s.queue.push(chunk.ID)
	}
	s.logger.Info().Int("chunks", len(chunks)).Int("limit", s.queue.limit).Msg("bulk translation started")

	s.notifyChunksLocked()
	s.afterChangeLocked()
	s.notifyQueueLocked()
	return nil
}

// CancelAll 全局取消：清空队列、中止所有请求，排队或进行中的块标记为 "Canceled."
//
// 取消标记保持生效，直到下一次 StartBulk 或 TranslateChunk。
func (s *Session) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queue.cancelRequested = true
	s.queue.clearPending()
	s.queue.abortAll()
	s.queue.running = false
	s.stopThrottlesLocked()

	canceled := 0
	for _, chunk := range s.registry.Chunks() {
		if chunk.Status == translation.StatusActive || chunk.Status == translation.StatusPending {
			chunk.Fail(translation.CanceledMessage)
			canceled++
		}
	}
	s.logger.Info().Int("canceled", canceled).Msg("translation canceled")

	s.notifyChunksLocked()
	s.notifyQueueLocked()
	s.cond.Broadcast()
	s.drafts.Schedule()
}

// Enqueue 将块加入队列，取消生效中、已排队或进行中时返回 false
func (s *Session) Enqueue(chunkID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.registry.Find(chunkID) == nil {
		return false, ErrChunkNotFound
	}
	if !s.queue.push(chunkID) {
		return false, nil
	}
	s.drainLocked()
	s.notifyQueueLocked()
	return true, nil
}

// TranslateChunk 单块翻译，会清除全局取消标记
func (s *Session) TranslateChunk(chunkID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chunk := s.registry.Find(chunkID)
	if chunk == nil {
		return false, ErrChunkNotFound
	}
	s.queue.cancelRequested = false
	if !s.queue.push(chunkID) {
		return false, nil
	}
	chunk.Status = translation.StatusPending
	chunk.Error = ""
	s.notifyChunkLocked(chunk)
	s.afterChangeLocked()
	s.notifyQueueLocked()
	return true, nil
}

// drainLocked 在并发未满时启动排队的块
func (s *Session) drainLocked() {
	for {
		chunkID, ok := s.queue.pop()
		if !ok {
			return
		}
		s.startLocked(chunkID)
	}
}

// startLocked 检查前置条件并启动单块请求
func (s *Session) startLocked(chunkID string) {
	chunk := s.registry.Find(chunkID)
	if chunk == nil {
		return
	}

	settings := s.settings
	if strings.TrimSpace(settings.BaseURL) == "" || strings.TrimSpace(settings.TranslateModel) == "" {
		chunk.Fail(missingSettingsMessage)
		s.notifyChunkLocked(chunk)
		return
	}
	if err := completion.CheckBaseURL(settings.BaseURL); err != nil {
		chunk.Fail(err.Error())
		s.notifyChunkLocked(chunk)
		return
	}

	summary := ""
	if !s.summary.Running {
		summary = s.summary.Text
	}
	prompt := TranslationPrompt{
		TargetLanguage:   settings.TargetLanguage(),
		ExtraInstruction: chunk.ExtraInstruction,
		Previous:         chunk.TranslatedText,
		Summary:          summary,
		Source:           chunk.SourceText,
	}
	req := &completion.Request{
		BaseURL:  settings.BaseURL,
		APIKey:   settings.APIKey,
		Model:    settings.TranslateModel,
		Messages: prompt.Messages(),
	}

	f := s.queue.begin(s.baseCtx, chunkID)
	chunk.Status = translation.StatusActive
	chunk.Error = ""
	chunk.TranslatedText = ""
	chunk.Usage = nil
	s.notifyChunkLocked(chunk)

	s.logger.Debug().Str("chunk_id", chunkID).Str("model", req.Model).Msg("chunk translation started")
	go s.runFlight(f, req)
}

// runFlight 执行请求并把增量写回块
func (s *Session) runFlight(f *flight, req *completion.Request) {
	ch, err := s.streamer.Stream(f.ctx, req)
	var res *completion.Result
	if err == nil {
		res, err = completion.Collect(f.ctx, ch, func(c completion.Chunk) {
			s.applyDelta(f, c)
		})
	}
	s.finishFlight(f, res, err)
}

func (s *Session) applyDelta(f *flight, c completion.Chunk) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.queue.current(f) {
		return
	}
	chunk := s.registry.Find(f.id)
	if chunk == nil {
		return
	}
	chunk.TranslatedText += c.Delta
	if c.Usage != nil {
		chunk.Usage = c.Usage.Clone()
	}
	s.notifyThrottledLocked(f, chunk)
}

// finishFlight 写入最终结果；flight 已失效（被取消或块被编辑）时丢弃
func (s *Session) finishFlight(f *flight, res *completion.Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.queue.finish(f) {
		s.logger.Debug().Str("chunk_id", f.id).Msg("stale translation result discarded")
		return
	}
	s.stopThrottleLocked(f.id)

	chunk := s.registry.Find(f.id)
	if chunk != nil {
		s.settleChunkLocked(chunk, res, err)
		s.notifyChunkLocked(chunk)
	}

	s.afterChangeLocked()
	s.notifyQueueLocked()
}

func (s *Session) settleChunkLocked(chunk *translation.Chunk, res *completion.Result, err error) {
	if res != nil && res.Usage != nil {
		chunk.Usage = res.Usage.Clone()
	}

	switch {
	case errors.Is(err, context.Canceled):
		chunk.Fail(translation.CanceledMessage)
	case err != nil:
		chunk.Fail(err.Error())
	default:
		text := strings.TrimRightFunc(res.Text, unicode.IsSpace)
		if strings.TrimSpace(text) == "" {
			chunk.Fail(ErrEmptyResponse.Error())
			break
		}
		chunk.TranslatedText = text
		chunk.Status = translation.StatusDone
		chunk.Error = ""
		s.totals.Translate.Add(chunk.Usage)
		s.notifyUsageLocked()
	}

	if chunk.Status == translation.StatusError {
		s.logger.Warn().Str("chunk_id", chunk.ID).Str("reason", chunk.Error).Msg("chunk translation failed")
	} else {
		s.logger.Debug().Str("chunk_id", chunk.ID).Msg("chunk translation done")
	}
}

// settleLocked 批量翻译在队列空闲时结束
func (s *Session) settleLocked() {
	if !s.queue.running || !s.queue.idle() {
		return
	}
	s.queue.running = false

	var done, failed int
	for _, chunk := range s.registry.Chunks() {
		switch chunk.Status {
		case translation.StatusDone:
			done++
		case translation.StatusError:
			failed++
		}
	}
	s.logger.Info().Int("done", done).Int("failed", failed).Msg("bulk translation finished")
}
