package translation

import (
	"context"
	"strings"
	"sync"
	"time"

	"chunkslate/internal/ai/completion"
	"chunkslate/internal/model/translation"
	"chunkslate/internal/pkg/id"
	"chunkslate/internal/pkg/usage"
)

// streamFunc 模拟一次流式请求
type streamFunc func(ctx context.Context, req *completion.Request, ch chan<- completion.Chunk)

// fakeStreamer 记录请求并统计同时进行的请求数
type fakeStreamer struct {
	mu        sync.Mutex
	requests  []*completion.Request
	active    int
	maxActive int
	fn        streamFunc
}

func (f *fakeStreamer) Stream(ctx context.Context, req *completion.Request) (<-chan completion.Chunk, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.active++
	f.maxActive = max(f.maxActive, f.active)
	f.mu.Unlock()

	ch := make(chan completion.Chunk)
	go func() {
		defer close(ch)
		defer func() {
			f.mu.Lock()
			f.active--
			f.mu.Unlock()
		}()
		f.fn(ctx, req, ch)
	}()
	return ch, nil
}

func (f *fakeStreamer) Requests() []*completion.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*completion.Request(nil), f.requests...)
}

func (f *fakeStreamer) Active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

func (f *fakeStreamer) MaxActive() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxActive
}

// sourceOf 提取请求中 <chunk> 或 <text> 标签内的原文
func sourceOf(req *completion.Request) string {
	user := req.Messages[len(req.Messages)-1].Content
	for _, tag := range []string{"chunk", "text"} {
		open, end := "<"+tag+">\n", "\n</"+tag+">"
		if i := strings.Index(user, open); i >= 0 {
			rest := user[i+len(open):]
			if j := strings.LastIndex(rest, end); j >= 0 {
				return rest[:j]
			}
		}
	}
	return ""
}

// echoStream 按两段增量返回 "T:" + 原文，并附带用量
func echoStream(ctx context.Context, req *completion.Request, ch chan<- completion.Chunk) {
	text := "T:" + sourceOf(req)
	half := len(text) / 2
	ch <- completion.Chunk{Delta: text[:half], Text: text[:half]}
	ch <- completion.Chunk{Delta: text[half:] + " \n", Text: text + " \n"}
	ch <- completion.Chunk{
		Done:  true,
		Text:  text + " \n",
		Usage: &usage.Usage{Prompt: 100, Cached: 20, Completion: 50, Total: 150},
	}
}

// gatedStream 先输出 partial，然后阻塞直到 release 关闭或请求被取消
func gatedStream(release <-chan struct{}, partial string) streamFunc {
	return func(ctx context.Context, req *completion.Request, ch chan<- completion.Chunk) {
		if partial != "" {
			select {
			case ch <- completion.Chunk{Delta: partial, Text: partial}:
			case <-ctx.Done():
				return
			}
		}
		select {
		case <-release:
			text := partial + "done"
			select {
			case ch <- completion.Chunk{Done: true, Text: text}:
			case <-ctx.Done():
			}
		case <-ctx.Done():
		}
	}
}

func testSettings() translation.Settings {
	return translation.Settings{
		BaseURL:        "http://llm.test/v1",
		APIKey:         "sk-test",
		SummaryModel:   "gpt-5-mini",
		TranslateModel: "gpt-5-mini",
		TargetLang:     "Japanese",
		Concurrency:    2,
	}
}

func newTestSession(fn streamFunc, opts ...func(*Options)) (*Session, *fakeStreamer) {
	streamer := &fakeStreamer{fn: fn}
	o := Options{
		Streamer:       streamer,
		Defaults:       testSettings(),
		NewID:          id.Sequential("c"),
		RenderInterval: time.Millisecond,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return NewSession(o), streamer
}

// paragraphs 生成 n 个互不合并的段落
func paragraphs(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = strings.Repeat(string(rune('a'+i)), 299) + "."
	}
	return strings.Join(parts, "\n\n")
}

// eventually 轮询直到条件成立或超时
func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}

func waitIdle(s *Session) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.WaitIdle(ctx)
}

func countStatus(chunks []*translation.Chunk, status translation.Status) int {
	n := 0
	for _, c := range chunks {
		if c.Status == status {
			n++
		}
	}
	return n
}

// memoryDrafts 内存中的草稿与设置存储
type memoryDrafts struct {
	mu       sync.Mutex
	draft    *translation.Draft
	settings *translation.Settings
	deleted  int
}

func (m *memoryDrafts) LoadDraft(context.Context) (*translation.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft, nil
}

func (m *memoryDrafts) SaveDraft(_ context.Context, d *translation.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft = d
	return nil
}

func (m *memoryDrafts) DeleteDraft(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft = nil
	m.deleted++
	return nil
}

func (m *memoryDrafts) LoadSettings(context.Context) (*translation.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings, nil
}

func (m *memoryDrafts) SaveSettings(_ context.Context, s *translation.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.settings = &cp
	return nil
}
