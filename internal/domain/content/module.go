package content

import (
	"learnhub_client/internal/domain/content/handler"
	"learnhub_client/internal/domain/content/model"
	"learnhub_client/internal/domain/content/repository"
	"learnhub_client/internal/domain/content/service"
	"learnhub_client/internal/pkg/middleware"
	"learnhub_client/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// ContentModule 目标/技能/学习计划/学习进度模块
type ContentModule struct{}

func init() {
	registry.Register(&ContentModule{})
}

func (m *ContentModule) Name() string {
	return "content"
}

func (m *ContentModule) Priority() int {
	return 10
}

func (m *ContentModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入，四种内容共用一个仓库
	cRepo := repository.NewContentRepository()
	cService := service.NewContentService(cRepo)
	cHandler := handler.NewContentHandler(cService, ctx.Media, ctx.Metrics)

	// 2. 路由注册
	for _, collection := range model.Collections {
		setupRoutes(ctx.API.Group("/"+collection.String(), handler.WithCollection(collection)), cHandler)
	}

	return nil
}

func setupRoutes(g *gin.RouterGroup, h *handler.ContentHandler) {
	// Public reads
	g.GET("/:id/liked-users", h.LikedUsers)
	g.GET("/:id/comments", h.GetComments)

	// User interactions (Requires Login)
	auth := g.Group("")
	auth.Use(middleware.AuthMiddleware())
	{
		auth.GET("", h.List)
		auth.GET("/:id", h.Get)
		auth.POST("", h.Create)
		auth.PUT("/:id", h.Update)
		auth.DELETE("/:id", h.Delete)
		auth.PUT("/:id/like", h.ToggleLike)
		auth.POST("/:id/comments", h.AddComment)
		auth.PUT("/comments/:commentId", h.UpdateComment)
		auth.DELETE("/comments/:commentId", h.DeleteComment)
	}
}
