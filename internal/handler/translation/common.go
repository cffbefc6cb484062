package translation

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"chunkslate/internal/ai/completion"
	model "chunkslate/internal/model/translation"
	httputil "chunkslate/internal/pkg/http"
	svc "chunkslate/internal/service/translation"
)

// ErrorResponse 错误响应类型别名（使用共用的 http.ErrorResponse）
type ErrorResponse = httputil.ErrorResponse

// SuccessResponse 成功响应类型别名
type SuccessResponse = httputil.SuccessResponse

// TextRequest 只包含文本的请求体
type TextRequest struct {
	Text string `json:"text"` // 文本内容，可为空
}

// bindJSON 解析请求体，失败时写入 40001 响应
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse(httputil.CodeInvalidBody, "invalid request body", err.Error()))
		return false
	}
	return true
}

// ok 写入成功响应
func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, httputil.NewSuccessResponse(data))
}

// writeError 将会话与补全错误映射为 HTTP 响应
func writeError(c *gin.Context, err error) {
	var (
		unsupported *completion.UnsupportedError
		status      *completion.StatusError
	)

	switch {
	case errors.Is(err, svc.ErrChunkNotFound):
		c.JSON(http.StatusNotFound, httputil.NewErrorResponse(httputil.CodeNotFound, err.Error()))
	case errors.Is(err, svc.ErrSummaryBusy):
		c.JSON(http.StatusConflict, httputil.NewErrorResponse(httputil.CodeBusy, err.Error()))
	case svc.IsValidation(err),
		errors.Is(err, completion.ErrMissingBaseURL),
		errors.Is(err, completion.ErrMissingAPIKey),
		errors.As(err, &unsupported):
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse(httputil.CodeValidation, err.Error()))
	case errors.Is(err, context.Canceled):
		c.JSON(http.StatusConflict, httputil.NewErrorResponse(httputil.CodeBusy, model.CanceledMessage))
	case errors.As(err, &status),
		errors.Is(err, completion.ErrInvalidJSON),
		errors.Is(err, svc.ErrEmptyResponse):
		c.JSON(http.StatusBadGateway, httputil.NewErrorResponse(httputil.CodeUpstream, err.Error()))
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, httputil.NewErrorResponse(httputil.CodeInternal, "internal error", err.Error()))
	}
}
