package server

import (
	"net/http"
	"time"

	_ "learnhub_client/internal/domain/common"
	_ "learnhub_client/internal/domain/content"
	_ "learnhub_client/internal/domain/user"
	"learnhub_client/internal/pkg/config"
	"learnhub_client/internal/pkg/middleware"
	"learnhub_client/internal/pkg/registry"
	"learnhub_client/internal/pkg/uploader"
	"learnhub_client/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Options 组装引擎时的可选依赖
type Options struct {
	Logger *zap.Logger
	// Registry 为空时创建独立的注册表，便于测试中多次组装
	Registry *prometheus.Registry
	// MediaPrefix 上传文件对外 URL 前缀，默认 /media
	MediaPrefix string
}

// NewEngine 组装开发用后端：中间件、模块路由、/health 与 /metrics
func NewEngine(cfg *config.Config, opts Options) (*gin.Engine, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	mediaPrefix := opts.MediaPrefix
	if mediaPrefix == "" {
		mediaPrefix = "/media"
	}

	collector := metrics.NewMetricsCollector(reg)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.MetricsMiddleware(collector))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", middleware.TraceHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.TraceHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.Server.RateLimit > 0 {
		limiter := middleware.NewIPRateLimiter(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateBurst)
		r.Use(middleware.RateLimitMiddleware(limiter))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	media := uploader.NewMemoryUploader(mediaPrefix, cfg.Upload.MaxBytes, cfg.Upload.AllowedTypes)

	ctx := &registry.ModuleContext{
		Config:  cfg,
		Router:  r,
		API:     r.Group("/api"),
		Logger:  log,
		Media:   media,
		Metrics: collector,
	}
	if err := registry.InitModules(ctx); err != nil {
		return nil, err
	}

	return r, nil
}
