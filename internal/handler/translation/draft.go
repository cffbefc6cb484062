package translation

import (
	"github.com/gin-gonic/gin"

	model "chunkslate/internal/model/translation"
)

// DraftResponse 草稿快照，会话为空时 draft 为 null
type DraftResponse struct {
	Draft *model.Draft `json:"draft"`
}

// RestoreResponse 草稿恢复结果
type RestoreResponse struct {
	Restored bool           `json:"restored"`
	Chunks   []*model.Chunk `json:"chunks"`
}

// GetDraft 获取当前草稿
// @Summary 获取当前草稿
// @Tags 草稿
// @Produce json
// @Success 200 {object} SuccessResponse{data=DraftResponse} "草稿快照"
// @Router /api/v1/draft [get]
func (h *Handler) GetDraft(c *gin.Context) {
	ok(c, DraftResponse{Draft: h.session.Draft()})
}

// RestoreDraft 从持久化草稿恢复
// @Summary 从持久化草稿恢复
// @Description 读取已保存的草稿并替换当前会话，进行中的翻译会被取消
// @Tags 草稿
// @Produce json
// @Success 200 {object} SuccessResponse{data=RestoreResponse} "恢复结果"
// @Failure 500 {object} ErrorResponse "读取草稿失败"
// @Router /api/v1/draft/restore [post]
func (h *Handler) RestoreDraft(c *gin.Context) {
	restored, err := h.session.RestoreDraft(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, RestoreResponse{Restored: restored, Chunks: h.session.Chunks()})
}

// Reset 清空会话
// @Summary 清空会话
// @Description 中止所有请求，清空原文、块、摘要、用量与草稿
// @Tags 草稿
// @Produce json
// @Success 200 {object} SuccessResponse "清空成功"
// @Failure 500 {object} ErrorResponse "删除草稿失败"
// @Router /api/v1/reset [post]
func (h *Handler) Reset(c *gin.Context) {
	if err := h.session.Reset(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	ok(c, nil)
}
