package ctxutil

import "context"

type (
	subjectKey   struct{}
	requestIDKey struct{}
)

// WithSubject 将令牌主体注入 context，由认证中间件调用
func WithSubject(ctx context.Context, subject string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, subjectKey{}, subject)
}

// Subject 从 context 中解析令牌主体
func Subject(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(subjectKey{}).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// WithRequestID 将请求 ID 注入 context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID 从 context 中解析请求 ID，不存在时返回空串
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}
