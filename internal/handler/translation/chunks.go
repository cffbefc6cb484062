package translation

import (
	"github.com/gin-gonic/gin"

	model "chunkslate/internal/model/translation"
	svc "chunkslate/internal/service/translation"
)

// ListChunks 获取块列表
// @Summary 获取块列表
// @Tags 块
// @Produce json
// @Success 200 {object} SuccessResponse{data=ChunkListResponse} "块列表"
// @Router /api/v1/chunks [get]
func (h *Handler) ListChunks(c *gin.Context) {
	ok(c, ChunkListResponse{Chunks: h.session.Chunks()})
}

// GetChunk 获取单个块
// @Summary 获取单个块
// @Tags 块
// @Produce json
// @Param id path string true "块ID"
// @Success 200 {object} SuccessResponse{data=model.Chunk} "块"
// @Failure 404 {object} ErrorResponse "块不存在"
// @Router /api/v1/chunks/{id} [get]
func (h *Handler) GetChunk(c *gin.Context) {
	chunk, err := h.session.Chunk(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, chunk)
}

// UpdateChunkSource 修改块原文
// @Summary 修改块原文
// @Description 修改原文会清空译文与用量，并取消该块进行中的翻译
// @Tags 块
// @Accept json
// @Produce json
// @Param id path string true "块ID"
// @Param request body TextRequest true "新原文"
// @Success 200 {object} SuccessResponse{data=model.Chunk} "修改后的块"
// @Failure 404 {object} ErrorResponse "块不存在"
// @Router /api/v1/chunks/{id}/source [put]
func (h *Handler) UpdateChunkSource(c *gin.Context) {
	var req TextRequest
	if !bindJSON(c, &req) {
		return
	}
	chunk, err := h.session.UpdateSource(c.Param("id"), req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, chunk)
}

// SetInstruction 设置块的附加指令
// @Summary 设置块的附加指令
// @Description 附加指令在下次翻译该块时追加到提示词
// @Tags 块
// @Accept json
// @Produce json
// @Param id path string true "块ID"
// @Param request body TextRequest true "附加指令"
// @Success 200 {object} SuccessResponse{data=model.Chunk} "修改后的块"
// @Failure 404 {object} ErrorResponse "块不存在"
// @Router /api/v1/chunks/{id}/instruction [put]
func (h *Handler) SetInstruction(c *gin.Context) {
	var req TextRequest
	if !bindJSON(c, &req) {
		return
	}
	chunk, err := h.session.SetExtraInstruction(c.Param("id"), req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, chunk)
}

// MergeRequest 合并请求
type MergeRequest struct {
	Direction string `json:"direction" binding:"required"` // up 与上一块合并，down 与下一块合并
}

// MergeChunk 合并相邻块
// @Summary 合并相邻块
// @Tags 块
// @Accept json
// @Produce json
// @Param id path string true "块ID"
// @Param request body MergeRequest true "合并方向"
// @Success 200 {object} SuccessResponse{data=model.Chunk} "合并后的块"
// @Failure 400 {object} ErrorResponse "没有可合并的相邻块"
// @Failure 404 {object} ErrorResponse "块不存在"
// @Router /api/v1/chunks/{id}/merge [post]
func (h *Handler) MergeChunk(c *gin.Context) {
	var req MergeRequest
	if !bindJSON(c, &req) {
		return
	}
	dir, err := svc.ParseDirection(req.Direction)
	if err != nil {
		writeError(c, err)
		return
	}
	chunk, err := h.session.Merge(c.Param("id"), dir)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, chunk)
}

// SplitRequest 拆分请求
type SplitRequest struct {
	Offset *int `json:"offset" binding:"required"` // 拆分位置（UTF-16 code unit）
}

// SplitResponse 拆分结果
type SplitResponse struct {
	Left  *model.Chunk `json:"left"`
	Right *model.Chunk `json:"right"`
}

// SplitChunk 拆分块
// @Summary 拆分块
// @Description 在指定位置把块拆为两块，两半去除首尾空白后均不得为空
// @Tags 块
// @Accept json
// @Produce json
// @Param id path string true "块ID"
// @Param request body SplitRequest true "拆分位置"
// @Success 200 {object} SuccessResponse{data=SplitResponse} "拆分后的两块"
// @Failure 400 {object} ErrorResponse "拆分位置无效"
// @Failure 404 {object} ErrorResponse "块不存在"
// @Router /api/v1/chunks/{id}/split [post]
func (h *Handler) SplitChunk(c *gin.Context) {
	var req SplitRequest
	if !bindJSON(c, &req) {
		return
	}
	left, right, err := h.session.Split(c.Param("id"), *req.Offset)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, SplitResponse{Left: left, Right: right})
}

// TranslateResponse 单块翻译结果
type TranslateResponse struct {
	Queued bool         `json:"queued"` // false 表示该块已在队列或翻译中
	Chunk  *model.Chunk `json:"chunk"`
}

// TranslateChunk 翻译单个块
// @Summary 翻译单个块
// @Description 清除取消标记并把块加入翻译队列
// @Tags 块
// @Produce json
// @Param id path string true "块ID"
// @Success 200 {object} SuccessResponse{data=TranslateResponse} "入队结果"
// @Failure 404 {object} ErrorResponse "块不存在"
// @Router /api/v1/chunks/{id}/translate [post]
func (h *Handler) TranslateChunk(c *gin.Context) {
	id := c.Param("id")
	queued, err := h.session.TranslateChunk(id)
	if err != nil {
		writeError(c, err)
		return
	}
	chunk, err := h.session.Chunk(id)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, TranslateResponse{Queued: queued, Chunk: chunk})
}
