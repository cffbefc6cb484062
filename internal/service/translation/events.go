package translation

import (
	"sync"

	"github.com/rs/zerolog/log"

	"chunkslate/internal/model/translation"
	"chunkslate/internal/pkg/usage"
)

// EventType 会话事件类型
type EventType string

const (
	EventChunk   EventType = "chunk"   // 单块内容或状态变化
	EventChunks  EventType = "chunks"  // 块列表结构变化（分段、合并、拆分、恢复）
	EventQueue   EventType = "queue"   // 调度状态变化
	EventSummary EventType = "summary" // 摘要变化
	EventUsage   EventType = "usage"   // 用量汇总变化
)

// Event 会话状态变化通知，携带变化后的快照
type Event struct {
	Type    EventType            `json:"type"`
	Chunk   *translation.Chunk   `json:"chunk,omitempty"`
	Chunks  []*translation.Chunk `json:"chunks,omitempty"`
	Queue   *QueueState          `json:"queue,omitempty"`
	Summary *SummaryState        `json:"summary,omitempty"`
	Usage   *usage.Totals        `json:"usage,omitempty"`
}

// Notifier 接收会话事件，Notify 在会话锁内调用，不得阻塞
type Notifier interface {
	Notify(Event)
}

// NotifierFunc 函数形式的 Notifier
type NotifierFunc func(Event)

// Notify 实现 Notifier
func (f NotifierFunc) Notify(e Event) {
	f(e)
}

type nopNotifier struct{}

func (nopNotifier) Notify(Event) {}

// Hub 将事件广播给多个订阅者，订阅者跟不上时丢弃事件
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	next   int
	buffer int
}

// NewHub 创建广播器，buffer 为每个订阅者的缓冲大小
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{subs: make(map[int]chan Event), buffer: buffer}
}

// Subscribe 订阅事件，返回的函数用于取消订阅
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := h.next
	h.next++
	ch := make(chan Event, h.buffer)
	h.subs[key] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, key)
			close(ch)
		})
	}
}

// Notify 实现 Notifier
func (h *Hub) Notify(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for key, ch := range h.subs {
		select {
		case ch <- e:
		default:
			log.Debug().Int("subscriber", key).Str("event", string(e.Type)).Msg("event dropped, subscriber is slow")
		}
	}
}
