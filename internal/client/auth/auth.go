package auth

import (
	"context"
	"errors"
	"strings"

	"learnhub_client/internal/domain/content/model"
	"learnhub_client/internal/pkg/apiclient"
	"learnhub_client/internal/pkg/session"
)

// LoginPath 登录/注册接口
const LoginPath = "/api/auth/login"

// Doer 适配器的最小接口
type Doer interface {
	Do(ctx context.Context, method, path string, body any, out any, opts ...apiclient.RequestOption) error
}

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Service 登录流程：换取 Token 后交给会话管理器
type Service struct {
	doer     Doer
	sessions *session.Manager
}

func NewService(doer Doer, sessions *session.Manager) *Service {
	return &Service{doer: doer, sessions: sessions}
}

// Login 邮箱不存在时由后端自动注册
func (s *Service) Login(ctx context.Context, email, username string) (model.Viewer, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return model.Viewer{}, apiclient.Validation("email is required")
	}

	var resp loginResponse
	err := s.doer.Do(ctx, "POST", LoginPath, loginRequest{Email: email, Username: username}, &resp, apiclient.WithAnonymous())
	if err != nil {
		return model.Viewer{}, err
	}
	if resp.Token == "" {
		return model.Viewer{}, errors.New("login response carried no token")
	}
	return s.sessions.Login(ctx, resp.Token)
}

// Logout 只清理本地会话
func (s *Service) Logout(ctx context.Context) error {
	return s.sessions.Logout(ctx)
}

// Current 当前登录用户，未登录返回匿名
func (s *Service) Current() model.Viewer {
	v, _ := s.sessions.CurrentUser()
	return v
}
