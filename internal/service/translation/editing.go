package translation

import (
	"chunkslate/internal/model/translation"
)

// UpdateSource 修改块原文，进行中的翻译被中止，迟到的结果丢弃
func (s *Session) UpdateSource(chunkID, text string) (*translation.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chunk, err := s.registry.MutateSource(chunkID, text)
	if err != nil {
		return nil, err
	}
	s.releaseLocked(chunkID)

	s.notifyChunkLocked(chunk)
	s.afterChangeLocked()
	s.notifyQueueLocked()
	return chunk.Clone(), nil
}

// SetExtraInstruction 设置块的附加指令，不影响进行中的翻译
func (s *Session) SetExtraInstruction(chunkID, text string) (*translation.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chunk, err := s.registry.SetExtraInstruction(chunkID, text)
	if err != nil {
		return nil, err
	}
	s.notifyChunkLocked(chunk)
	s.drafts.Schedule()
	return chunk.Clone(), nil
}

// Merge 与相邻块合并，涉及的两块的请求都会被中止
func (s *Session) Merge(chunkID string, dir Direction) (*translation.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.registry.IndexOf(chunkID)
	if index < 0 {
		return nil, ErrChunkNotFound
	}
	survivor, removed, err := s.registry.MergeAdjacent(index, dir)
	if err != nil {
		return nil, err
	}
	s.releaseLocked(survivor.ID)
	s.releaseLocked(removed.ID)
	s.queue.dequeue(removed.ID)

	s.logger.Debug().Str("survivor", survivor.ID).Str("removed", removed.ID).Msg("chunks merged")
	s.notifyChunksLocked()
	s.afterChangeLocked()
	s.notifyQueueLocked()
	return survivor.Clone(), nil
}

// Split 在 offset（UTF-16 code unit）处拆分块
func (s *Session) Split(chunkID string, offset int) (left, right *translation.Chunk, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.registry.IndexOf(chunkID)
	if index < 0 {
		return nil, nil, ErrChunkNotFound
	}
	l, r, err := s.registry.SplitAt(index, offset)
	if err != nil {
		return nil, nil, err
	}
	s.releaseLocked(l.ID)

	s.logger.Debug().Str("chunk_id", l.ID).Str("new_chunk_id", r.ID).Int("offset", offset).Msg("chunk split")
	s.notifyChunksLocked()
	s.afterChangeLocked()
	s.notifyQueueLocked()
	return l.Clone(), r.Clone(), nil
}

// releaseLocked 中止块的进行中请求，释放的槽位由后续 drain 使用
func (s *Session) releaseLocked(chunkID string) {
	if s.queue.abort(chunkID) {
		s.logger.Debug().Str("chunk_id", chunkID).Msg("in-flight translation aborted by edit")
	}
	s.stopThrottleLocked(chunkID)
}
