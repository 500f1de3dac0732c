package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"learnhub_client/internal/domain/content/model"
	"learnhub_client/pkg/logger"
	"learnhub_client/pkg/utils"

	"go.uber.org/zap"
)

// Manager 凭证提供者。登录时写入，登出时清空，其余地方只读
type Manager struct {
	mu      sync.RWMutex
	store   Store
	current *Session
	now     func() time.Time
	log     *zap.Logger
}

func NewManager(store Store, log *zap.Logger) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Manager{
		store: store,
		now:   time.Now,
		log:   logger.OrNop(log),
	}
}

// Login 保存 Token，并从 Token 中解析当前用户
func (m *Manager) Login(ctx context.Context, token string) (model.Viewer, error) {
	claims, err := utils.ParseUnverified(token)
	if err != nil {
		return model.Viewer{}, fmt.Errorf("parse token: %w", err)
	}

	s := &Session{
		Token: token,
		User: model.Viewer{
			ID:       claims.UserID,
			Email:    claims.Email,
			Username: claims.Username,
		},
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}

	if err := m.store.Save(ctx, s); err != nil {
		return model.Viewer{}, err
	}

	m.mu.Lock()
	m.current = s
	m.mu.Unlock()

	m.log.Info("session started", zap.String("user_id", s.User.ID), zap.String("email", s.User.Email))
	return s.User, nil
}

// Restore 从存储中恢复上次的会话
func (m *Manager) Restore(ctx context.Context) (model.Viewer, error) {
	s, err := m.store.Load(ctx)
	if err != nil {
		return model.Viewer{}, err
	}
	if s.Expired(m.now()) {
		_ = m.store.Clear(ctx)
		return model.Viewer{}, ErrNoSession
	}

	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
	return s.User, nil
}

// Logout 清空会话，存储清理失败时内存状态仍会清空
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()

	if err := m.store.Clear(ctx); err != nil && !errors.Is(err, ErrNoSession) {
		return err
	}
	m.log.Info("session cleared")
	return nil
}

// Token 实现 apiclient.CredentialProvider
func (m *Manager) Token() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil || m.current.Expired(m.now()) {
		return "", false
	}
	return m.current.Token, true
}

// CurrentUser 当前登录用户
func (m *Manager) CurrentUser() (model.Viewer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil || m.current.Expired(m.now()) {
		return model.Viewer{}, false
	}
	return m.current.User, true
}
