package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	httputil "chunkslate/internal/pkg/http"
)

// Recovery 异常恢复中间件，客户端断开导致的写失败不返回响应体
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			err, _ := rec.(error)
			brokenPipe := err != nil && (errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET))

			log.Error().
				Interface("error", rec).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Str("request_id", c.GetString(RequestIDKey)).
				Bool("broken_pipe", brokenPipe).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			if brokenPipe {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				httputil.NewErrorResponse(httputil.CodePanic, "Internal Server Error"))
		}()
		c.Next()
	}
}
