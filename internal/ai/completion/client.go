package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"chunkslate/internal/pkg/usage"
)

const defaultTemperature = 1.0

// Client OpenAI 兼容的 chat/completions 客户端，支持 SSE 流式输出
type Client struct {
	httpClient  *http.Client
	temperature float64
	logger      zerolog.Logger
}

// Option 客户端选项
type Option func(*Client)

// WithHTTPClient 指定底层 http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout 设置整体请求超时，0 表示不限制
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: d}
	}
}

// WithTemperature 设置采样温度
func WithTemperature(t float64) Option {
	return func(c *Client) {
		if t > 0 {
			c.temperature = t
		}
	}
}

// NewClient 创建补全客户端
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{},
		temperature: defaultTemperature,
		logger:      log.With().Str("component", "completion").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type chatRequest struct {
	Model         string         `json:"model"`
	Messages      []Message      `json:"messages"`
	Temperature   float64        `json:"temperature"`
	Stream        bool           `json:"stream,omitempty"`
	StreamOptions *streamOptions `json:"stream_options,omitempty"`
}

// Stream 发起流式补全请求
//
// 请求失败或响应非 2xx 时直接返回错误；否则在后台读取响应并通过通道推送增量。
// 响应不是 text/event-stream 时按普通 JSON 补全解析，一次性推送全文。
func (c *Client) Stream(ctx context.Context, req *Request) (<-chan Chunk, error) {
	resp, err := c.post(ctx, req, true)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read error response: %w", err)
		}
		if len(body) > 0 && !gjson.ValidBytes(body) {
			return nil, fmt.Errorf("%w (%d)", ErrInvalidJSON, resp.StatusCode)
		}
		return nil, statusError(resp, gjson.ParseBytes(body))
	}

	ch := make(chan Chunk, 16)
	if !strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream") {
		go c.readSingle(ctx, resp, ch)
	} else {
		go c.readEvents(ctx, resp, ch)
	}
	return ch, nil
}

// Complete 发起非流式补全请求
func (c *Client) Complete(ctx context.Context, req *Request) (*Result, error) {
	resp, err := c.post(ctx, req, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := readJSON(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp, data)
	}
	return &Result{
		Text:  data.Get("choices.0.message.content").String(),
		Usage: usage.Normalize(data.Get("usage")),
	}, nil
}

// ListModels 请求 GET {base}/models
func (c *Client) ListModels(ctx context.Context, baseURL, apiKey string) (gjson.Result, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint(baseURL, "/models"), nil)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("build request: %w", err)
	}
	setHeaders(httpReq, apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return gjson.Result{}, err
	}
	defer resp.Body.Close()

	data, err := readJSON(resp)
	if err != nil {
		return gjson.Result{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return gjson.Result{}, statusError(resp, data)
	}
	return data, nil
}

func (c *Client) post(ctx context.Context, req *Request, stream bool) (*http.Response, error) {
	body := chatRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: c.temperature,
	}
	if stream {
		body.Stream = true
		body.StreamOptions = &streamOptions{IncludeUsage: true}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint(req.BaseURL, "/chat/completions"), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	setHeaders(httpReq, req.APIKey)

	c.logger.Debug().
		Str("model", req.Model).
		Bool("stream", stream).
		Int("messages", len(req.Messages)).
		Msg("chat completion request")

	return c.httpClient.Do(httpReq)
}

// readSingle 解析非流式响应体
func (c *Client) readSingle(ctx context.Context, resp *http.Response, ch chan<- Chunk) {
	defer close(ch)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		send(ctx, ch, Chunk{Err: readErr(ctx, err)})
		return
	}
	if len(body) > 0 && !gjson.ValidBytes(body) {
		send(ctx, ch, Chunk{Err: ErrInvalidJSON})
		return
	}

	data := gjson.ParseBytes(body)
	text := data.Get("choices.0.message.content").String()
	u := usage.Normalize(data.Get("usage"))
	if text != "" && !send(ctx, ch, Chunk{Delta: text, Text: text}) {
		return
	}
	if u != nil && !send(ctx, ch, Chunk{Text: text, Usage: u}) {
		return
	}
	send(ctx, ch, Chunk{Done: true, Text: text, Usage: u})
}

// readEvents 解析 SSE 流
func (c *Client) readEvents(ctx context.Context, resp *http.Response, ch chan<- Chunk) {
	defer close(ch)
	defer resp.Body.Close()

	var (
		text   strings.Builder
		latest *usage.Usage
	)
	events := newEventReader(resp.Body)
	for {
		data, err := events.Next()
		if errors.Is(err, io.EOF) || data == doneSentinel {
			break
		}
		if err != nil {
			send(ctx, ch, Chunk{Err: readErr(ctx, err)})
			return
		}
		if data == "" || !gjson.Valid(data) {
			continue
		}

		payload := gjson.Parse(data)
		if u := usage.Normalize(payload.Get("usage")); u != nil {
			latest = u
			if !send(ctx, ch, Chunk{Text: text.String(), Usage: u}) {
				return
			}
		}

		choices := payload.Get("choices")
		if !choices.IsArray() {
			continue
		}
		for _, choice := range choices.Array() {
			content := choice.Get("delta.content")
			if content.Type != gjson.String || content.String() == "" {
				continue
			}
			text.WriteString(content.String())
			if !send(ctx, ch, Chunk{Delta: content.String(), Text: text.String()}) {
				return
			}
		}
	}

	send(ctx, ch, Chunk{Done: true, Text: text.String(), Usage: latest})
}

// readErr 读取中断时优先返回取消原因
func readErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

func endpoint(baseURL, path string) string {
	return strings.TrimSuffix(baseURL, "/") + path
}

func setHeaders(req *http.Request, apiKey string) {
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
}

// readJSON 读取并校验 JSON 响应体，空响应体视为 null
func readJSON(resp *http.Response) (gjson.Result, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("read response: %w", err)
	}
	if len(body) > 0 && !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%w (%d)", ErrInvalidJSON, resp.StatusCode)
	}
	return gjson.ParseBytes(body), nil
}

func statusError(resp *http.Response, data gjson.Result) error {
	msg := ExtractErrorMessage(data)
	if msg == "" {
		msg = strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	if msg == "" {
		msg = "Request failed"
	}
	return &StatusError{Status: resp.StatusCode, Message: msg}
}
