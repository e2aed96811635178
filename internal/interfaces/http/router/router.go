// Package router 提供 HTTP 路由配置
package router

import (
	"net/http"

	"z-multimodal-chat/internal/config"
	"z-multimodal-chat/internal/infrastructure/persistence/redis"
	"z-multimodal-chat/internal/interfaces/http/handler"
	"z-multimodal-chat/internal/interfaces/http/middleware"
	"z-multimodal-chat/internal/interfaces/http/webui"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router HTTP 路由器
type Router struct {
	engine *gin.Engine
	cfg    *config.Config

	chatHandler   *handler.ChatHandler
	usageHandler  *handler.UsageHandler
	healthHandler *handler.HealthHandler
	rateLimiter   *redis.RateLimiter
}

// New 创建新的路由器
// rateLimiter 可以为 nil（未接入 Redis 时限流自动停用）
func New(
	cfg *config.Config,
	chatHandler *handler.ChatHandler,
	usageHandler *handler.UsageHandler,
	healthHandler *handler.HealthHandler,
	rateLimiter *redis.RateLimiter,
) *Router {
	// 设置 Gin 模式
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	r := &Router{
		engine:        engine,
		cfg:           cfg,
		chatHandler:   chatHandler,
		usageHandler:  usageHandler,
		healthHandler: healthHandler,
		rateLimiter:   rateLimiter,
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// setupMiddleware 配置中间件
func (r *Router) setupMiddleware() {
	// 基础中间件
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.Identity())

	// CORS 中间件
	r.engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: r.cfg.Security.CORS.AllowedOrigins,
		AllowedMethods: r.cfg.Security.CORS.AllowedMethods,
		AllowedHeaders: r.cfg.Security.CORS.AllowedHeaders,
	}))

	// 追踪中间件
	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name))
		r.engine.Use(middleware.TraceContext())
	}

	// 指标中间件
	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics())
	}
}

// setupRoutes 配置路由
func (r *Router) setupRoutes() {
	// 系统端点
	r.engine.GET("/health", r.healthHandler.Health)
	r.engine.GET("/ready", r.healthHandler.Ready)
	r.engine.GET("/live", r.healthHandler.Live)

	// Prometheus 指标端点
	if r.cfg.Observability.Metrics.Enabled {
		r.engine.GET(r.cfg.Observability.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// 内嵌单页界面
	r.engine.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", webui.Index())
	})

	// 对话限流器
	var limiter middleware.RateLimiter
	if r.rateLimiter != nil {
		limiter = r.rateLimiter
	}
	rateLimit := middleware.RateLimit(middleware.RateLimitConfig{
		Enabled:           r.cfg.Security.RateLimit.Enabled,
		RequestsPerSecond: r.cfg.Security.RateLimit.RequestsPerSecond,
	}, limiter)

	// API v1 路由组
	v1 := r.engine.Group("/v1")
	{
		chat := v1.Group("/chat")
		{
			chat.GET("/config", r.chatHandler.GetConfig)
			chat.GET("/usage", r.usageHandler.GetSummary)
			chat.POST("/messages", rateLimit, r.chatHandler.SendMessage)
		}
	}
}
