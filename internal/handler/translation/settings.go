package translation

import (
	"strings"

	"github.com/gin-gonic/gin"

	model "chunkslate/internal/model/translation"
)

// GetSettings 获取当前设置
// @Summary 获取设置
// @Description 返回当前生效的端点、模型、目标语言、并发与单价设置，密钥已脱敏
// @Tags 设置
// @Produce json
// @Success 200 {object} SuccessResponse{data=model.Settings} "当前设置"
// @Router /api/v1/settings [get]
func (h *Handler) GetSettings(c *gin.Context) {
	settings := h.session.Settings()
	ok(c, settings.Redacted())
}

// UpdateSettings 保存设置
// @Summary 保存设置
// @Description 整体替换设置并持久化；apiKey 为脱敏值（**** 开头）时保留原密钥。并发数变化会立即生效。
// @Tags 设置
// @Accept json
// @Produce json
// @Param request body model.Settings true "设置"
// @Success 200 {object} SuccessResponse{data=model.Settings} "保存后的设置"
// @Failure 400 {object} ErrorResponse "请求参数错误"
// @Failure 500 {object} ErrorResponse "持久化失败"
// @Router /api/v1/settings [put]
func (h *Handler) UpdateSettings(c *gin.Context) {
	var req model.Settings
	if !bindJSON(c, &req) {
		return
	}
	if strings.HasPrefix(req.APIKey, "****") {
		req.APIKey = h.session.Settings().APIKey
	}

	saved, err := h.session.UpdateSettings(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, saved.Redacted())
}

// ConnectionRequest 连通性检查请求，字段为空时使用已保存的设置
type ConnectionRequest struct {
	BaseURL string `json:"baseUrl"`
	APIKey  string `json:"apiKey"`
}

// ConnectionResponse 连通性检查结果
type ConnectionResponse struct {
	Message string `json:"message"` // OK 或 OK: N models.
}

// TestConnection 检查端点连通性
// @Summary 检查端点连通性
// @Description 请求 {baseUrl}/models，返回可用模型数量
// @Tags 设置
// @Accept json
// @Produce json
// @Param request body ConnectionRequest false "端点与密钥"
// @Success 200 {object} SuccessResponse{data=ConnectionResponse} "检查成功"
// @Failure 400 {object} ErrorResponse "缺少端点或密钥，或端点不受支持"
// @Failure 502 {object} ErrorResponse "端点返回错误"
// @Router /api/v1/connection/test [post]
func (h *Handler) TestConnection(c *gin.Context) {
	var req ConnectionRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	current := h.session.Settings()
	if strings.TrimSpace(req.BaseURL) == "" {
		req.BaseURL = current.BaseURL
	}
	if req.APIKey == "" || strings.HasPrefix(req.APIKey, "****") {
		req.APIKey = current.APIKey
	}

	message, err := h.checker.CheckConnection(c.Request.Context(), req.BaseURL, req.APIKey)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, ConnectionResponse{Message: message})
}
