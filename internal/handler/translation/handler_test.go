package translation

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chunkslate/internal/ai/completion"
	model "chunkslate/internal/model/translation"
	"chunkslate/internal/pkg/id"
	"chunkslate/internal/pkg/usage"
	svc "chunkslate/internal/service/translation"
)

// stubStreamer 对任意请求返回固定文本
type stubStreamer struct {
	text string
}

func (s stubStreamer) Stream(ctx context.Context, _ *completion.Request) (<-chan completion.Chunk, error) {
	ch := make(chan completion.Chunk, 2)
	ch <- completion.Chunk{Delta: s.text, Text: s.text}
	ch <- completion.Chunk{Done: true, Text: s.text, Usage: &usage.Usage{Prompt: 10, Completion: 5, Total: 15}}
	close(ch)
	return ch, nil
}

// stubChecker 记录连通性检查参数
type stubChecker struct {
	baseURL, apiKey string
}

func (s *stubChecker) CheckConnection(_ context.Context, baseURL, apiKey string) (string, error) {
	s.baseURL, s.apiKey = baseURL, apiKey
	if apiKey == "" {
		return "", completion.ErrMissingAPIKey
	}
	return "OK: 3 models.", nil
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Warning string          `json:"warning"`
	Data    json.RawMessage `json:"data"`
}

type testAPI struct {
	t       *testing.T
	engine  *gin.Engine
	session *svc.Session
	checker *stubChecker
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := svc.NewHub(64)
	session := svc.NewSession(svc.Options{
		Streamer: stubStreamer{text: "  译文  "},
		Defaults: model.Settings{
			BaseURL:        "http://llm.test/v1",
			APIKey:         "sk-secret-key",
			SummaryModel:   "gpt-5-mini",
			TranslateModel: "gpt-5-mini",
			TargetLang:     "Japanese",
			Concurrency:    2,
		},
		Notifier:       hub,
		NewID:          id.Sequential("c"),
		RenderInterval: time.Millisecond,
	})
	t.Cleanup(func() { _ = session.Close(context.Background()) })

	checker := &stubChecker{}
	h := NewHandler(session, checker, hub)

	engine := gin.New()
	v1 := engine.Group("/api/v1")
	v1.GET("/settings", h.GetSettings)
	v1.PUT("/settings", h.UpdateSettings)
	v1.POST("/connection/test", h.TestConnection)
	v1.GET("/source", h.GetSource)
	v1.PUT("/source", h.SetSource)
	v1.POST("/source/upload", h.UploadSource)
	v1.POST("/chunks/segment", h.Segment)
	v1.GET("/chunks", h.ListChunks)
	v1.GET("/chunks/:id", h.GetChunk)
	v1.PUT("/chunks/:id/source", h.UpdateChunkSource)
	v1.PUT("/chunks/:id/instruction", h.SetInstruction)
	v1.POST("/chunks/:id/merge", h.MergeChunk)
	v1.POST("/chunks/:id/split", h.SplitChunk)
	v1.POST("/chunks/:id/translate", h.TranslateChunk)
	v1.POST("/translate/start", h.StartBulk)
	v1.POST("/translate/cancel", h.CancelAll)
	v1.PUT("/translate/concurrency", h.SetConcurrency)
	v1.GET("/translate/status", h.GetStatus)
	v1.GET("/summary", h.GetSummary)
	v1.POST("/summary", h.GenerateSummary)
	v1.PUT("/summary", h.SetSummary)
	v1.DELETE("/summary", h.CancelSummary)
	v1.GET("/usage", h.GetUsage)
	v1.GET("/export", h.Export)
	v1.GET("/draft", h.GetDraft)
	v1.POST("/draft/restore", h.RestoreDraft)
	v1.POST("/reset", h.Reset)
	v1.GET("/events", h.Events)

	return &testAPI{t: t, engine: engine, session: session, checker: checker}
}

func (a *testAPI) do(method, path string, body interface{}) (int, envelope) {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env envelope
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func (a *testAPI) segment(text string) []*model.Chunk {
	a.t.Helper()
	status, _ := a.do(http.MethodPut, "/api/v1/source", TextRequest{Text: text})
	require.Equal(a.t, http.StatusOK, status)
	status, env := a.do(http.MethodPost, "/api/v1/chunks/segment", nil)
	require.Equal(a.t, http.StatusOK, status)
	return decode[ChunkListResponse](a.t, env.Data).Chunks
}

func (a *testAPI) waitIdle() {
	a.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(a.t, a.session.WaitIdle(ctx))
}

func twoParagraphs() string {
	return strings.Repeat("a", 299) + ".\n\n" + strings.Repeat("b", 299) + "."
}

func TestSettingsEndpoints(t *testing.T) {
	api := newTestAPI(t)

	status, env := api.do(http.MethodGet, "/api/v1/settings", nil)
	require.Equal(t, http.StatusOK, status)
	settings := decode[model.Settings](t, env.Data)
	assert.Equal(t, "****-key", settings.APIKey)
	assert.Equal(t, "Japanese", settings.TargetLang)
	require.NotNil(t, settings.SummaryPricePrompt, "known model prices are prefilled")

	settings.TargetLang = "French"
	settings.Concurrency = 12
	status, env = api.do(http.MethodPut, "/api/v1/settings", settings)
	require.Equal(t, http.StatusOK, status)
	saved := decode[model.Settings](t, env.Data)
	assert.Equal(t, "French", saved.TargetLang)
	assert.Equal(t, 8, saved.Concurrency)
	assert.Equal(t, "sk-secret-key", api.session.Settings().APIKey, "redacted key keeps the stored key")
	assert.Equal(t, 8, api.session.QueueState().Limit)
}

func TestConnectionEndpoint(t *testing.T) {
	api := newTestAPI(t)

	status, env := api.do(http.MethodPost, "/api/v1/connection/test", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK: 3 models.", decode[ConnectionResponse](t, env.Data).Message)
	assert.Equal(t, "http://llm.test/v1", api.checker.baseURL)
	assert.Equal(t, "sk-secret-key", api.checker.apiKey)

	status, _ = api.do(http.MethodPost, "/api/v1/connection/test", ConnectionRequest{BaseURL: "http://other.test/v1", APIKey: "sk-other"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "http://other.test/v1", api.checker.baseURL)
	assert.Equal(t, "sk-other", api.checker.apiKey)
}

func TestSegmentAndChunkEditing(t *testing.T) {
	api := newTestAPI(t)

	status, env := api.do(http.MethodPost, "/api/v1/chunks/segment", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 40002, env.Code)
	assert.Equal(t, "invalid input", env.Message)

	chunks := api.segment(twoParagraphs())
	require.Len(t, chunks, 2)

	status, env = api.do(http.MethodGet, "/api/v1/source", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 602, decode[SourceResponse](t, env.Data).Length)

	status, env = api.do(http.MethodGet, "/api/v1/chunks/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, 40401, env.Code)

	status, env = api.do(http.MethodPost, "/api/v1/chunks/"+chunks[0].ID+"/merge", MergeRequest{Direction: "up"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 40002, env.Code)

	status, env = api.do(http.MethodPost, "/api/v1/chunks/"+chunks[0].ID+"/merge", MergeRequest{Direction: "sideways"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 40002, env.Code)

	status, env = api.do(http.MethodPost, "/api/v1/chunks/"+chunks[0].ID+"/merge", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 40001, env.Code)

	status, env = api.do(http.MethodPost, "/api/v1/chunks/"+chunks[0].ID+"/merge", MergeRequest{Direction: "down"})
	require.Equal(t, http.StatusOK, status)
	merged := decode[model.Chunk](t, env.Data)
	assert.Equal(t, chunks[0].ID, merged.ID)
	assert.Equal(t, twoParagraphs(), merged.SourceText)

	offset := 300
	status, env = api.do(http.MethodPost, "/api/v1/chunks/"+merged.ID+"/split", SplitRequest{Offset: &offset})
	require.Equal(t, http.StatusOK, status)
	split := decode[SplitResponse](t, env.Data)
	assert.Equal(t, merged.ID, split.Left.ID)
	assert.Equal(t, strings.Repeat("a", 299)+".", split.Left.SourceText)

	zero := 0
	status, env = api.do(http.MethodPost, "/api/v1/chunks/"+merged.ID+"/split", SplitRequest{Offset: &zero})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 40002, env.Code)

	status, env = api.do(http.MethodPut, "/api/v1/chunks/"+split.Right.ID+"/instruction", TextRequest{Text: "keep names"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "keep names", decode[model.Chunk](t, env.Data).ExtraInstruction)

	status, env = api.do(http.MethodPut, "/api/v1/chunks/"+split.Right.ID+"/source", TextRequest{Text: "new text"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "new text", decode[model.Chunk](t, env.Data).SourceText)

	status, env = api.do(http.MethodGet, "/api/v1/chunks", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[ChunkListResponse](t, env.Data).Chunks, 2)
}

func TestTranslateAndExport(t *testing.T) {
	api := newTestAPI(t)

	status, env := api.do(http.MethodPost, "/api/v1/translate/start", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 40002, env.Code)

	status, env = api.do(http.MethodGet, "/api/v1/export", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "nothing to copy", env.Message)

	chunks := api.segment(twoParagraphs())
	require.Len(t, chunks, 2)

	status, env = api.do(http.MethodPost, "/api/v1/chunks/"+chunks[0].ID+"/translate", nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decode[TranslateResponse](t, env.Data).Queued)
	api.waitIdle()

	status, env = api.do(http.MethodGet, "/api/v1/export", nil)
	require.Equal(t, http.StatusOK, status)
	exported := decode[ExportResponse](t, env.Data)
	assert.Equal(t, "译文\n\n", exported.Text)
	assert.Equal(t, 1, exported.Missing)
	assert.Equal(t, "1 chunk(s) missing translation.", env.Warning)

	status, env = api.do(http.MethodPost, "/api/v1/translate/start", nil)
	require.Equal(t, http.StatusOK, status)
	api.waitIdle()

	status, env = api.do(http.MethodGet, "/api/v1/translate/status", nil)
	require.Equal(t, http.StatusOK, status)
	st := decode[StatusResponse](t, env.Data)
	assert.Equal(t, 2, st.Total)
	assert.Equal(t, 2, st.Counts["done"])
	assert.False(t, st.Queue.Running)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/export?format=text", nil)
	w := httptest.NewRecorder()
	api.engine.ServeHTTP(w, req)
	assert.Equal(t, "译文\n\n译文", w.Body.String())
	assert.Equal(t, "0", w.Header().Get("X-Missing-Translations"))

	status, env = api.do(http.MethodGet, "/api/v1/usage", nil)
	require.Equal(t, http.StatusOK, status)
	report := decode[usage.Report](t, env.Data)
	assert.EqualValues(t, 45, report.Totals.Translate.Total)

	status, env = api.do(http.MethodPut, "/api/v1/translate/concurrency", ConcurrencyRequest{Concurrency: 5})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 5, decode[ConcurrencyResponse](t, env.Data).Concurrency)

	status, _ = api.do(http.MethodPost, "/api/v1/translate/cancel", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestSummaryEndpoints(t *testing.T) {
	api := newTestAPI(t)

	status, env := api.do(http.MethodPost, "/api/v1/summary", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid input", env.Message)

	api.segment(twoParagraphs())

	status, env = api.do(http.MethodPost, "/api/v1/summary", nil)
	require.Equal(t, http.StatusOK, status)
	state := decode[svc.SummaryState](t, env.Data)
	assert.Equal(t, "译文", state.Text)
	assert.False(t, state.Running)

	status, env = api.do(http.MethodPut, "/api/v1/summary", TextRequest{Text: "- edited"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "- edited", decode[svc.SummaryState](t, env.Data).Text)

	status, env = api.do(http.MethodDelete, "/api/v1/summary", nil)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, decode[CancelSummaryResponse](t, env.Data).Canceled)
}

func TestDraftAndReset(t *testing.T) {
	api := newTestAPI(t)

	status, env := api.do(http.MethodGet, "/api/v1/draft", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, decode[DraftResponse](t, env.Data).Draft)

	api.segment(twoParagraphs())

	status, env = api.do(http.MethodGet, "/api/v1/draft", nil)
	require.Equal(t, http.StatusOK, status)
	draft := decode[DraftResponse](t, env.Data).Draft
	require.NotNil(t, draft)
	assert.Len(t, draft.Chunks, 2)
	assert.Equal(t, model.DraftVersion, draft.V)

	status, env = api.do(http.MethodPost, "/api/v1/draft/restore", nil)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, decode[RestoreResponse](t, env.Data).Restored, "no draft store configured")

	status, _ = api.do(http.MethodPost, "/api/v1/reset", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, api.session.Chunks())
	assert.Empty(t, api.session.Source())
}

func TestInvalidBody(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/source", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	api.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"code":40001`)
}

func TestEventsStream(t *testing.T) {
	api := newTestAPI(t)
	api.segment(twoParagraphs())

	srv := httptest.NewServer(api.engine)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/events", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	reader := bufio.NewReader(resp.Body)
	next := func() string {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if name, found := strings.CutPrefix(strings.TrimSpace(line), "event:"); found {
				return name
			}
		}
	}

	assert.Equal(t, "chunks", next())
	assert.Equal(t, "queue", next())
	assert.Equal(t, "summary", next())
	assert.Equal(t, "usage", next())

	api.session.SetSource("changed")
	chunks := api.session.Chunks()
	_, err = api.session.SetExtraInstruction(chunks[0].ID, "formal")
	require.NoError(t, err)
	assert.Equal(t, "chunk", next())
}

func TestUploadSource(t *testing.T) {
	api := newTestAPI(t)

	upload := func(name, content string) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/source/upload", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		api.engine.ServeHTTP(w, req)
		return w
	}

	w := upload("book.md", "\ufeff# Title\r\n\r\nBody.")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "# Title\n\nBody.", api.session.Source())

	w = upload("book.pdf", "%PDF")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unsupported file type")

	w = upload("bad.txt", string([]byte{0xff, 0xfe, 0xfd}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "UTF-8")
}
