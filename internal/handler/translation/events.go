package translation

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"

	svc "chunkslate/internal/service/translation"
)

// heartbeatInterval 事件流心跳间隔，防止代理断开空闲连接
const heartbeatInterval = 15 * time.Second

// Events 订阅会话事件
// @Summary 订阅会话事件
// @Description Server-Sent Events 流。连接建立后先推送 chunks、queue、summary、usage 快照，
// @Description 之后推送 chunk、chunks、queue、summary、usage 变化事件，空闲时发送 ping。
// @Tags 事件
// @Produce text/event-stream
// @Success 200 {object} svc.Event "事件流"
// @Router /api/v1/events [get]
func (h *Handler) Events(c *gin.Context) {
	events, unsubscribe := h.events.Subscribe()
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	for _, e := range h.snapshot() {
		c.SSEvent(string(e.Type), e)
	}
	c.Writer.Flush()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case e, open := <-events:
			if !open {
				return false
			}
			c.SSEvent(string(e.Type), e)
			return true
		case t := <-ticker.C:
			c.SSEvent("ping", t.UnixMilli())
			return true
		case <-ctx.Done():
			return false
		}
	})
}

// snapshot 当前会话状态对应的事件序列
func (h *Handler) snapshot() []svc.Event {
	queue := h.session.QueueState()
	summary := h.session.Summary()
	totals := h.session.Totals()
	return []svc.Event{
		{Type: svc.EventChunks, Chunks: h.session.Chunks()},
		{Type: svc.EventQueue, Queue: &queue},
		{Type: svc.EventSummary, Summary: &summary},
		{Type: svc.EventUsage, Usage: &totals},
	}
}
