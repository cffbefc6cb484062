package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chunkslate/internal/pkg/ctxutil"
	"chunkslate/internal/pkg/jwt"
)

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(handlers...)
	engine.GET("/ping", func(c *gin.Context) {
		subject, _ := ctxutil.Subject(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{
			"subject":    subject,
			"request_id": ctxutil.RequestID(c.Request.Context()),
		})
	})
	engine.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return engine
}

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	engine := newEngine(RequestID())

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)
	generated := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, generated)
	assert.Contains(t, w.Body.String(), generated)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w = serve(engine, req)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
	assert.Contains(t, w.Body.String(), `"request_id":"req-42"`)
}

func TestRecovery(t *testing.T) {
	engine := newEngine(Recovery(), RequestID(), Logger())

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"code":50000`)
}

func TestCORS(t *testing.T) {
	engine := newEngine(CORS())

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := serve(engine, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(engine, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAuth(t *testing.T) {
	signer := jwt.NewJWT("secret", time.Hour)
	engine := newEngine(Auth(signer))

	token, err := signer.GenerateToken("cli")
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		query  string
		status int
		body   string
	}{
		{name: "缺少令牌", status: http.StatusUnauthorized, body: `"code":40101`},
		{name: "格式错误", header: "Token " + token, status: http.StatusUnauthorized, body: `"code":40101`},
		{name: "令牌无效", header: "Bearer nope", status: http.StatusUnauthorized, body: `"code":40102`},
		{name: "Bearer 令牌", header: "Bearer " + token, status: http.StatusOK, body: `"subject":"cli"`},
		{name: "查询参数令牌", query: "?access_token=" + token, status: http.StatusOK, body: `"subject":"cli"`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ping"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := serve(engine, req)
			assert.Equal(t, tc.status, w.Code)
			assert.Contains(t, w.Body.String(), tc.body)
		})
	}
}
