package translation

import (
	"github.com/gin-gonic/gin"

	model "chunkslate/internal/model/translation"
	svc "chunkslate/internal/service/translation"
)

// StatusResponse 批量翻译状态
type StatusResponse struct {
	Queue  svc.QueueState `json:"queue"`
	Counts map[string]int `json:"counts"` // 各状态的块数量
	Total  int            `json:"total"`
}

// ConcurrencyRequest 并发数请求
type ConcurrencyRequest struct {
	Concurrency int `json:"concurrency" binding:"required"` // 1-8，超出范围会被截断
}

// ConcurrencyResponse 生效的并发数
type ConcurrencyResponse struct {
	Concurrency int `json:"concurrency"`
}

// StartBulk 开始批量翻译
// @Summary 开始批量翻译
// @Description 清除取消标记，把所有块重置为待翻译并按顺序入队
// @Tags 批量翻译
// @Produce json
// @Success 200 {object} SuccessResponse{data=StatusResponse} "调度状态"
// @Failure 400 {object} ErrorResponse "没有可翻译的块"
// @Router /api/v1/translate/start [post]
func (h *Handler) StartBulk(c *gin.Context) {
	if err := h.session.StartBulk(); err != nil {
		writeError(c, err)
		return
	}
	ok(c, h.status())
}

// CancelAll 取消全部翻译
// @Summary 取消全部翻译
// @Description 中止进行中的请求并清空队列，受影响的块标记为 Canceled.
// @Tags 批量翻译
// @Produce json
// @Success 200 {object} SuccessResponse{data=StatusResponse} "调度状态"
// @Router /api/v1/translate/cancel [post]
func (h *Handler) CancelAll(c *gin.Context) {
	h.session.CancelAll()
	ok(c, h.status())
}

// SetConcurrency 设置并发数
// @Summary 设置并发数
// @Description 保存并发数并立即按新上限调度
// @Tags 批量翻译
// @Accept json
// @Produce json
// @Param request body ConcurrencyRequest true "并发数"
// @Success 200 {object} SuccessResponse{data=ConcurrencyResponse} "生效的并发数"
// @Failure 400 {object} ErrorResponse "请求参数错误"
// @Router /api/v1/translate/concurrency [put]
func (h *Handler) SetConcurrency(c *gin.Context) {
	var req ConcurrencyRequest
	if !bindJSON(c, &req) {
		return
	}
	n, err := h.session.SetConcurrency(c.Request.Context(), req.Concurrency)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, ConcurrencyResponse{Concurrency: n})
}

// GetStatus 获取批量翻译状态
// @Summary 获取批量翻译状态
// @Tags 批量翻译
// @Produce json
// @Success 200 {object} SuccessResponse{data=StatusResponse} "调度状态"
// @Router /api/v1/translate/status [get]
func (h *Handler) GetStatus(c *gin.Context) {
	ok(c, h.status())
}

func (h *Handler) status() StatusResponse {
	chunks := h.session.Chunks()
	counts := map[string]int{
		model.StatusPending.String(): 0,
		model.StatusActive.String():  0,
		model.StatusDone.String():    0,
		model.StatusError.String():   0,
	}
	for _, chunk := range chunks {
		counts[chunk.Status.String()]++
	}
	return StatusResponse{
		Queue:  h.session.QueueState(),
		Counts: counts,
		Total:  len(chunks),
	}
}
