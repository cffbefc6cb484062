package translation

import (
	"github.com/gin-gonic/gin"

	model "chunkslate/internal/model/translation"
	"chunkslate/internal/pkg/segmenter"
)

// SourceResponse 原文信息
type SourceResponse struct {
	Text   string `json:"text"`
	Length int    `json:"length"` // UTF-16 code unit 长度
}

// ChunkListResponse 块列表
type ChunkListResponse struct {
	Chunks []*model.Chunk `json:"chunks"`
}

// GetSource 获取原文
// @Summary 获取原文
// @Tags 原文
// @Produce json
// @Success 200 {object} SuccessResponse{data=SourceResponse} "原文"
// @Router /api/v1/source [get]
func (h *Handler) GetSource(c *gin.Context) {
	text := h.session.Source()
	ok(c, SourceResponse{Text: text, Length: segmenter.Length(text)})
}

// SetSource 设置原文
// @Summary 设置原文
// @Description 替换待分段的原文，不影响已有块
// @Tags 原文
// @Accept json
// @Produce json
// @Param request body TextRequest true "原文"
// @Success 200 {object} SuccessResponse{data=SourceResponse} "设置成功"
// @Failure 400 {object} ErrorResponse "请求参数错误"
// @Router /api/v1/source [put]
func (h *Handler) SetSource(c *gin.Context) {
	var req TextRequest
	if !bindJSON(c, &req) {
		return
	}
	h.session.SetSource(req.Text)
	ok(c, SourceResponse{Text: req.Text, Length: segmenter.Length(req.Text)})
}

// Segment 对原文分段
// @Summary 对原文分段
// @Description 按段落、句子与标题规则把原文切分为块，替换现有块列表
// @Tags 原文
// @Produce json
// @Success 200 {object} SuccessResponse{data=ChunkListResponse} "分段结果"
// @Failure 400 {object} ErrorResponse "原文为空"
// @Router /api/v1/chunks/segment [post]
func (h *Handler) Segment(c *gin.Context) {
	chunks, err := h.session.Segment()
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, ChunkListResponse{Chunks: chunks})
}
