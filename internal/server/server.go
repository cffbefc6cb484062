package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "chunkslate/docs"
	"chunkslate/internal/config"
	"chunkslate/internal/handler"
	translationHandler "chunkslate/internal/handler/translation"
	"chunkslate/internal/pkg/jwt"
	"chunkslate/internal/server/middleware"
	svc "chunkslate/internal/service/translation"
)

// shutdownTimeout 优雅关闭的最长等待时间
const shutdownTimeout = 10 * time.Second

// Deps 服务器依赖
type Deps struct {
	Session *svc.Session
	Events  translationHandler.EventSource
	Checker translationHandler.ConnectionChecker
	Probes  map[string]handler.Probe // 就绪检查项，可选
}

// Server HTTP 服务器
type Server struct {
	cfg    *config.Config
	engine *gin.Engine
	deps   Deps
}

// New 创建服务器实例
func New(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.Session == nil || deps.Events == nil || deps.Checker == nil {
		return nil, errors.New("server: session, events and checker are required")
	}

	// 设置 Gin 模式
	switch cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &Server{
		cfg:    cfg,
		engine: gin.New(),
		deps:   deps,
	}
	srv.setupRoutes()

	return srv, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// 全局中间件
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Logger("/health", "/ready"))
	s.engine.Use(middleware.CORS())

	// 健康检查
	healthHandler := handler.NewHealthHandler(s.deps.Probes)
	s.engine.GET("/health", healthHandler.Health)
	s.engine.GET("/ready", healthHandler.Ready)

	// Swagger 文档
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1
	v1 := s.engine.Group("/api/v1")
	if s.cfg.Auth.JWTSecret != "" {
		v1.Use(middleware.Auth(jwt.NewJWT(s.cfg.Auth.JWTSecret, s.cfg.Auth.AccessTokenExpiry)))
	} else {
		log.Warn().Msg("auth.jwt_secret not configured, API is not authenticated")
	}

	h := translationHandler.NewHandler(s.deps.Session, s.deps.Checker, s.deps.Events)
	{
		// 设置
		v1.GET("/settings", h.GetSettings)
		v1.PUT("/settings", h.UpdateSettings)
		v1.POST("/connection/test", h.TestConnection)

		// 原文与分段
		v1.GET("/source", h.GetSource)
		v1.PUT("/source", h.SetSource)
		v1.POST("/source/upload", h.UploadSource)
		v1.POST("/chunks/segment", h.Segment)

		// 块
		v1.GET("/chunks", h.ListChunks)
		v1.GET("/chunks/:id", h.GetChunk)
		v1.PUT("/chunks/:id/source", h.UpdateChunkSource)
		v1.PUT("/chunks/:id/instruction", h.SetInstruction)
		v1.POST("/chunks/:id/merge", h.MergeChunk)
		v1.POST("/chunks/:id/split", h.SplitChunk)
		v1.POST("/chunks/:id/translate", h.TranslateChunk)

		// 批量翻译
		v1.POST("/translate/start", h.StartBulk)
		v1.POST("/translate/cancel", h.CancelAll)
		v1.PUT("/translate/concurrency", h.SetConcurrency)
		v1.GET("/translate/status", h.GetStatus)

		// 摘要
		v1.GET("/summary", h.GetSummary)
		v1.POST("/summary", h.GenerateSummary)
		v1.PUT("/summary", h.SetSummary)
		v1.DELETE("/summary", h.CancelSummary)

		// 用量与导出
		v1.GET("/usage", h.GetUsage)
		v1.GET("/export", h.Export)

		// 草稿
		v1.GET("/draft", h.GetDraft)
		v1.POST("/draft/restore", h.RestoreDraft)
		v1.POST("/reset", h.Reset)

		// 事件流
		v1.GET("/events", h.Events)
	}
}

// Run 启动服务器，ctx 取消后优雅关闭
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	// 启动服务器
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待关闭信号或错误
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Engine 获取 Gin 引擎 (用于测试)
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
