package translation

import (
	"context"

	svc "chunkslate/internal/service/translation"
)

// ConnectionChecker 端点连通性检查
type ConnectionChecker interface {
	CheckConnection(ctx context.Context, baseURL, apiKey string) (string, error)
}

// EventSource 会话事件订阅
type EventSource interface {
	Subscribe() (<-chan svc.Event, func())
}

// Handler 翻译模块处理器
// 所有翻译相关的Handler方法都通过这个结构体访问会话
type Handler struct {
	session *svc.Session
	checker ConnectionChecker
	events  EventSource
}

// NewHandler 创建翻译模块处理器
func NewHandler(session *svc.Session, checker ConnectionChecker, events EventSource) *Handler {
	return &Handler{
		session: session,
		checker: checker,
		events:  events,
	}
}
