// Package servertest 启动内存版后端，供客户端组件做端到端测试
package servertest

import (
	"context"
	"net/http/httptest"
	"testing"

	"learnhub_client/internal/client/auth"
	"learnhub_client/internal/client/content"
	"learnhub_client/internal/domain/content/model"
	"learnhub_client/internal/pkg/apiclient"
	"learnhub_client/internal/pkg/config"
	"learnhub_client/internal/pkg/session"
	"learnhub_client/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// Secret 测试用 JWT 密钥
const Secret = "0123456789abcdef0123456789abcdef"

type Server struct {
	*httptest.Server
}

// Start 启动后端，测试结束时自动关闭
func Start(t testing.TB) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.JWT.Secret = Secret
	cfg.JWT.Expire = 1
	cfg.Upload.MaxBytes = 1 << 20
	cfg.Upload.AllowedTypes = []string{"image/png", "image/jpeg"}
	config.GlobalConfig = *cfg

	engine, err := server.NewEngine(cfg, server.Options{})
	require.NoError(t, err)

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return &Server{Server: srv}
}

// User 已登录的客户端
type User struct {
	Viewer   model.Viewer
	Sessions *session.Manager
	Client   *apiclient.Client
}

// Login 以 email 登录并返回客户端栈
func (s *Server) Login(t testing.TB, email string) *User {
	t.Helper()
	sessions := session.NewManager(session.NewMemoryStore(), nil)
	client := apiclient.New(s.URL, sessions)
	viewer, err := auth.NewService(client, sessions).Login(context.Background(), email, "")
	require.NoError(t, err)
	return &User{Viewer: viewer, Sessions: sessions, Client: client}
}

// Anonymous 未登录的客户端
func (s *Server) Anonymous() *apiclient.Client {
	return apiclient.New(s.URL, session.NewManager(session.NewMemoryStore(), nil))
}

// API 某一内容类型的接口
func (u *User) API(t testing.TB, collection model.Collection) *content.API {
	t.Helper()
	api, err := content.NewAPI(u.Client, collection)
	require.NoError(t, err)
	return api
}
