package translation

import (
	"fmt"
	"strings"

	"chunkslate/internal/model/translation"
	"chunkslate/internal/pkg/id"
	"chunkslate/internal/pkg/segmenter"
)

// Direction 合并方向
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// ParseDirection 解析合并方向
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case DirectionUp:
		return DirectionUp, nil
	case DirectionDown:
		return DirectionDown, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// Registry 有序的块列表，负责块的创建、合并、拆分与原文修改
// 非并发安全，由 Session 持锁调用
type Registry struct {
	chunks []*translation.Chunk
	newID  id.Generator
}

// NewRegistry 创建块列表
func NewRegistry(gen id.Generator) *Registry {
	if gen == nil {
		gen = id.New
	}
	return &Registry{newID: gen}
}

// Create 创建新块（不加入列表）
func (r *Registry) Create(text string) *translation.Chunk {
	return &translation.Chunk{
		ID:         r.newID(),
		SourceText: text,
		Status:     translation.StatusPending,
	}
}

// Populate 用新建的块替换整个列表
func (r *Registry) Populate(texts []string) {
	chunks := make([]*translation.Chunk, 0, len(texts))
	for _, text := range texts {
		chunks = append(chunks, r.Create(text))
	}
	r.chunks = chunks
}

// Restore 用已有的块替换整个列表
func (r *Registry) Restore(chunks []*translation.Chunk) {
	r.chunks = append([]*translation.Chunk(nil), chunks...)
}

// Clear 清空列表
func (r *Registry) Clear() {
	r.chunks = nil
}

// Len 块数量
func (r *Registry) Len() int {
	return len(r.chunks)
}

// Chunks 返回当前顺序的块（共享指针）
func (r *Registry) Chunks() []*translation.Chunk {
	return append([]*translation.Chunk(nil), r.chunks...)
}

// Find 按 ID 查找块
func (r *Registry) Find(chunkID string) *translation.Chunk {
	if i := r.IndexOf(chunkID); i >= 0 {
		return r.chunks[i]
	}
	return nil
}

// IndexOf 返回块的位置，不存在时为 -1
func (r *Registry) IndexOf(chunkID string) int {
	for i, c := range r.chunks {
		if c.ID == chunkID {
			return i
		}
	}
	return -1
}

// MergeAdjacent 合并相邻两块，较后的块并入较前的块并被移除
func (r *Registry) MergeAdjacent(index int, dir Direction) (survivor, removed *translation.Chunk, err error) {
	if index < 0 || index >= len(r.chunks) {
		return nil, nil, ErrIndexOutOfRange
	}

	var target int
	switch dir {
	case DirectionUp:
		if index == 0 {
			return nil, nil, ErrTopChunk
		}
		target = index - 1
	case DirectionDown:
		if index == len(r.chunks)-1 {
			return nil, nil, ErrBottomChunk
		}
		target = index + 1
	default:
		return nil, nil, ErrInvalidDirection
	}

	lo, hi := min(index, target), max(index, target)
	first, second := r.chunks[lo], r.chunks[hi]

	first.SourceText = first.SourceText + mergeSeparator(first.SourceText, second.SourceText) + second.SourceText
	first.ResetTranslation()
	r.chunks = append(r.chunks[:hi], r.chunks[hi+1:]...)

	return first, second, nil
}

// mergeSeparator 任一侧已有换行时直接拼接，否则以空行分隔
func mergeSeparator(left, right string) string {
	if strings.HasSuffix(left, "\n") || strings.HasPrefix(right, "\n") {
		return ""
	}
	return "\n\n"
}

// SplitAt 在 offset（UTF-16 code unit）处拆分块，右半部分作为新块插入其后
func (r *Registry) SplitAt(index, offset int) (left, right *translation.Chunk, err error) {
	if index < 0 || index >= len(r.chunks) {
		return nil, nil, ErrIndexOutOfRange
	}
	chunk := r.chunks[index]

	if offset <= 0 || offset >= segmenter.Length(chunk.SourceText) {
		return nil, nil, ErrInvalidSplitPosition
	}
	at, ok := segmenter.ByteOffset(chunk.SourceText, offset)
	if !ok {
		return nil, nil, ErrInvalidSplitPosition
	}

	head, tail := chunk.SourceText[:at], chunk.SourceText[at:]
	if strings.TrimSpace(head) == "" || strings.TrimSpace(tail) == "" {
		return nil, nil, ErrEmptySplitHalf
	}

	chunk.SourceText = head
	chunk.ResetTranslation()
	next := r.Create(tail)

	r.chunks = append(r.chunks[:index+1], append([]*translation.Chunk{next}, r.chunks[index+1:]...)...)
	return chunk, next, nil
}

// MutateSource 修改原文，状态回到 pending 并清除错误
func (r *Registry) MutateSource(chunkID, text string) (*translation.Chunk, error) {
	chunk := r.Find(chunkID)
	if chunk == nil {
		return nil, ErrChunkNotFound
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrInvalidInput
	}
	chunk.SourceText = text
	chunk.Status = translation.StatusPending
	chunk.Error = ""
	return chunk, nil
}

// SetExtraInstruction 设置块的附加指令，不影响翻译状态
func (r *Registry) SetExtraInstruction(chunkID, text string) (*translation.Chunk, error) {
	chunk := r.Find(chunkID)
	if chunk == nil {
		return nil, ErrChunkNotFound
	}
	chunk.ExtraInstruction = text
	return chunk, nil
}
