package translation

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	httputil "chunkslate/internal/pkg/http"
)

// ExportResponse 导出结果
type ExportResponse struct {
	Text    string `json:"text"`    // 各块译文以空行连接
	Missing int    `json:"missing"` // 没有译文的块数量
}

// GetUsage 获取用量与费用
// @Summary 获取用量与费用
// @Description 按摘要与翻译两个阶段汇总 token 用量，并按设置中的单价估算费用
// @Tags 用量
// @Produce json
// @Success 200 {object} SuccessResponse{data=usage.Report} "用量报告"
// @Router /api/v1/usage [get]
func (h *Handler) GetUsage(c *gin.Context) {
	ok(c, h.session.UsageReport())
}

// Export 导出译文
// @Summary 导出译文
// @Description 以空行连接所有已有译文；部分块缺少译文时在 warning 中提示
// @Tags 用量
// @Produce json
// @Param format query string false "text 时直接返回纯文本"
// @Success 200 {object} SuccessResponse{data=ExportResponse} "导出结果"
// @Failure 400 {object} ErrorResponse "没有可导出的译文"
// @Router /api/v1/export [get]
func (h *Handler) Export(c *gin.Context) {
	text, missing, err := h.session.Export()
	if err != nil {
		writeError(c, err)
		return
	}

	if c.Query("format") == "text" {
		c.Header("X-Missing-Translations", fmt.Sprint(missing))
		c.String(http.StatusOK, text)
		return
	}

	resp := httputil.NewSuccessResponse(ExportResponse{Text: text, Missing: missing})
	if missing > 0 {
		resp.WithWarning(fmt.Sprintf("%d chunk(s) missing translation.", missing))
	}
	c.JSON(http.StatusOK, resp)
}
