package completion

import (
	"context"
	"io"

	"chunkslate/internal/pkg/usage"
)

// 消息角色
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message 对话消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request 补全请求，端点信息随请求传入，便于运行时切换设置
type Request struct {
	BaseURL  string
	APIKey   string
	Model    string
	Messages []Message
}

// Chunk 流式输出的一个事件
//
// 通道依次产出若干增量或用量事件，最后以 Done 或 Err 结束并关闭。
// 调用方取消 ctx 时通道可能直接关闭。
type Chunk struct {
	Delta string       // 本次增量
	Text  string       // 截至目前的累计文本
	Usage *usage.Usage // 最新用量（仅在收到用量时非空）
	Done  bool
	Err   error
}

// Result 流结束后的最终结果
type Result struct {
	Text  string
	Usage *usage.Usage
}

// Streamer 流式补全能力
type Streamer interface {
	Stream(ctx context.Context, req *Request) (<-chan Chunk, error)
}

// Collect 消费流直到结束，fn 接收每个增量或用量事件
func Collect(ctx context.Context, ch <-chan Chunk, fn func(Chunk)) (*Result, error) {
	res := &Result{}
	for c := range ch {
		switch {
		case c.Err != nil:
			return res, c.Err
		case c.Done:
			if c.Text != "" {
				res.Text = c.Text
			}
			if c.Usage != nil {
				res.Usage = c.Usage
			}
			return res, nil
		}
		if c.Usage != nil {
			res.Usage = c.Usage
		}
		if c.Delta != "" {
			res.Text = c.Text
		}
		if fn != nil {
			fn(c)
		}
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, io.ErrUnexpectedEOF
}

// send 向通道发送事件，ctx 取消时放弃
func send(ctx context.Context, ch chan<- Chunk, c Chunk) bool {
	select {
	case ch <- c:
		return true
	case <-ctx.Done():
		return false
	}
}
