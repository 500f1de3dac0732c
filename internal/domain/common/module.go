package common

import (
	commonHandler "learnhub_client/internal/pkg/common"
	"learnhub_client/internal/pkg/middleware"
	"learnhub_client/internal/pkg/registry"
)

// CommonModule 通用功能模块
type CommonModule struct{}

func init() {
	registry.Register(&CommonModule{})
}

func (m *CommonModule) Name() string {
	return "common"
}

func (m *CommonModule) Priority() int {
	return 100 // 最后初始化
}

func (m *CommonModule) Init(ctx *registry.ModuleContext) error {
	// 文件上传接口
	ctx.API.POST("/upload", middleware.AuthMiddleware(), commonHandler.UploadFile(ctx.Media))
	// 媒体回读
	ctx.Router.GET("/media/*key", commonHandler.ServeMedia(ctx.Media))
	return nil
}
