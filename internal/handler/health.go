package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	httputil "chunkslate/internal/pkg/http"
)

// Probe 就绪检查项，返回 nil 表示依赖可用
type Probe func(ctx context.Context) error

// readyTimeout 单次就绪检查的超时
const readyTimeout = 3 * time.Second

// HealthHandler 健康检查处理器
type HealthHandler struct {
	probes map[string]Probe
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(probes map[string]Probe) *HealthHandler {
	return &HealthHandler{probes: probes}
}

// Health 健康检查
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready 就绪检查，任一依赖不可用时返回 503
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	checks := make(map[string]string, len(h.probes))
	ready := true
	for name, probe := range h.probes {
		if err := probe(ctx); err != nil {
			log.Warn().Err(err).Str("probe", name).Msg("readiness probe failed")
			checks[name] = err.Error()
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, httputil.NewErrorResponse(httputil.CodeUnavailable, "not ready"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"checks": checks,
	})
}
