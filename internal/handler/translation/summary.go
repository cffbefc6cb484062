package translation

import (
	"github.com/gin-gonic/gin"
)

// GetSummary 获取摘要
// @Summary 获取摘要
// @Tags 摘要
// @Produce json
// @Success 200 {object} SuccessResponse{data=svc.SummaryState} "摘要"
// @Router /api/v1/summary [get]
func (h *Handler) GetSummary(c *gin.Context) {
	ok(c, h.session.Summary())
}

// GenerateSummary 生成摘要
// @Summary 生成摘要
// @Description 用摘要模型为原文生成 3-5 条要点，生成过程通过事件流推送。请求在生成结束后返回，客户端断开会取消生成。
// @Tags 摘要
// @Produce json
// @Success 200 {object} SuccessResponse{data=svc.SummaryState} "生成的摘要"
// @Failure 400 {object} ErrorResponse "原文为空或缺少设置"
// @Failure 409 {object} ErrorResponse "摘要正在生成或已取消"
// @Failure 502 {object} ErrorResponse "端点返回错误"
// @Router /api/v1/summary [post]
func (h *Handler) GenerateSummary(c *gin.Context) {
	state, err := h.session.GenerateSummary(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, state)
}

// SetSummary 手动修改摘要
// @Summary 手动修改摘要
// @Tags 摘要
// @Accept json
// @Produce json
// @Param request body TextRequest true "摘要文本"
// @Success 200 {object} SuccessResponse{data=svc.SummaryState} "修改后的摘要"
// @Failure 409 {object} ErrorResponse "摘要正在生成"
// @Router /api/v1/summary [put]
func (h *Handler) SetSummary(c *gin.Context) {
	var req TextRequest
	if !bindJSON(c, &req) {
		return
	}
	state, err := h.session.SetSummary(req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, state)
}

// CancelSummaryResponse 取消摘要结果
type CancelSummaryResponse struct {
	Canceled bool `json:"canceled"` // false 表示没有正在生成的摘要
}

// CancelSummary 取消摘要生成
// @Summary 取消摘要生成
// @Tags 摘要
// @Produce json
// @Success 200 {object} SuccessResponse{data=CancelSummaryResponse} "取消结果"
// @Router /api/v1/summary [delete]
func (h *Handler) CancelSummary(c *gin.Context) {
	ok(c, CancelSummaryResponse{Canceled: h.session.CancelSummary()})
}
