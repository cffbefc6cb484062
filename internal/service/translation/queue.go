package translation

import (
	"context"
	"slices"

	"chunkslate/internal/model/translation"
)

// flight 一次进行中的翻译请求；同一块被重新调度后旧 flight 失效，其回调被丢弃
type flight struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
}

// Queue 有界并发调度状态，只持有块 ID
// 非并发安全，由 Session 持锁调用
type Queue struct {
	pending         []string
	queued          map[string]struct{}
	inFlight        map[string]*flight
	active          int
	limit           int
	running         bool
	cancelRequested bool
}

// QueueState 调度状态快照
type QueueState struct {
	Pending         []string `json:"pending"`
	InFlight        []string `json:"in_flight"`
	Active          int      `json:"active"`
	Limit           int      `json:"limit"`
	Running         bool     `json:"running"`
	CancelRequested bool     `json:"cancel_requested"`
}

func newQueue(limit int) *Queue {
	return &Queue{
		queued:   make(map[string]struct{}),
		inFlight: make(map[string]*flight),
		limit:    translation.ClampConcurrency(limit),
	}
}

// push 加入待处理列表；取消生效中或已排队、进行中时忽略
func (q *Queue) push(chunkID string) bool {
	if q.cancelRequested {
		return false
	}
	if _, ok := q.queued[chunkID]; ok {
		return false
	}
	if _, ok := q.inFlight[chunkID]; ok {
		return false
	}
	q.queued[chunkID] = struct{}{}
	q.pending = append(q.pending, chunkID)
	return true
}

// pop 在并发未满时按 FIFO 取出下一个 ID
func (q *Queue) pop() (string, bool) {
	if q.active >= q.limit || len(q.pending) == 0 {
		return "", false
	}
	chunkID := q.pending[0]
	q.pending = q.pending[1:]
	delete(q.queued, chunkID)
	return chunkID, true
}

// begin 登记进行中的请求
func (q *Queue) begin(parent context.Context, chunkID string) *flight {
	ctx, cancel := context.WithCancel(parent)
	f := &flight{id: chunkID, ctx: ctx, cancel: cancel}
	q.active++
	q.inFlight[chunkID] = f
	return f
}

// current flight 是否仍是该块当前的请求
func (q *Queue) current(f *flight) bool {
	return q.inFlight[f.id] == f
}

// finish 结束请求并释放并发槽；flight 已失效时返回 false
func (q *Queue) finish(f *flight) bool {
	f.cancel()
	if !q.current(f) {
		return false
	}
	delete(q.inFlight, f.id)
	if q.active > 0 {
		q.active--
	}
	return true
}

// abort 取消单个块的请求并立即释放并发槽
func (q *Queue) abort(chunkID string) bool {
	f, ok := q.inFlight[chunkID]
	if !ok {
		return false
	}
	f.cancel()
	delete(q.inFlight, chunkID)
	if q.active > 0 {
		q.active--
	}
	return true
}

// abortAll 取消所有进行中的请求
func (q *Queue) abortAll() {
	for _, f := range q.inFlight {
		f.cancel()
	}
	clear(q.inFlight)
	q.active = 0
}

// dequeue 从待处理列表移除
func (q *Queue) dequeue(chunkID string) {
	if _, ok := q.queued[chunkID]; !ok {
		return
	}
	delete(q.queued, chunkID)
	q.pending = slices.DeleteFunc(q.pending, func(s string) bool { return s == chunkID })
}

// clearPending 清空待处理列表
func (q *Queue) clearPending() {
	q.pending = nil
	clear(q.queued)
}

// busy 块是否已排队或进行中
func (q *Queue) busy(chunkID string) bool {
	_, queued := q.queued[chunkID]
	_, inFlight := q.inFlight[chunkID]
	return queued || inFlight
}

func (q *Queue) idle() bool {
	return q.active == 0 && len(q.pending) == 0
}

// reset 中止所有请求并回到初始状态（保留并发设置）
func (q *Queue) reset() {
	q.abortAll()
	q.clearPending()
	q.running = false
	q.cancelRequested = false
}

func (q *Queue) state() QueueState {
	inFlight := make([]string, 0, len(q.inFlight))
	for chunkID := range q.inFlight {
		inFlight = append(inFlight, chunkID)
	}
	slices.Sort(inFlight)
	return QueueState{
		Pending:         append([]string{}, q.pending...),
		InFlight:        inFlight,
		Active:          q.active,
		Limit:           q.limit,
		Running:         q.running,
		CancelRequested: q.cancelRequested,
	}
}
