package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"learnhub_client/internal/domain/content/model"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrNoSession 没有已保存的会话
	ErrNoSession = errors.New("no session")
	// ErrSessionExpired Token 已过期，不再保存
	ErrSessionExpired = errors.New("session expired")
)

// Session 登录会话
type Session struct {
	Token     string       `json:"token"`
	User      model.Viewer `json:"user"`
	ExpiresAt time.Time    `json:"expiresAt,omitempty"`
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Store 会话持久化
type Store interface {
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Clear(ctx context.Context) error
}

// MemoryStore 进程内存储，进程退出即丢失
type MemoryStore struct {
	mu sync.Mutex
	s  *Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s == nil {
		return nil, ErrNoSession
	}
	cp := *m.s
	return &cp, nil
}

func (m *MemoryStore) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.s = &cp
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = nil
	return nil
}

// RedisStore 把会话保存在 Redis，多个客户端进程共享同一登录状态
type RedisStore struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

// NewRedisStore key 一般为 prefix + 设备/用户标识
func NewRedisStore(rdb *redis.Client, key string, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, key: key, ttl: ttl}
}

func (r *RedisStore) Load(ctx context.Context) (*Session, error) {
	raw, err := r.rdb.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	ttl, err := r.ttlFor(s, time.Now())
	if err != nil {
		return err
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, r.key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// ttlFor 不超过 Token 本身的有效期；Redis 中 0 表示永不过期，所以已过期的会话直接拒绝
func (r *RedisStore) ttlFor(s *Session, now time.Time) (time.Duration, error) {
	ttl := r.ttl
	if s.ExpiresAt.IsZero() {
		return ttl, nil
	}
	left := s.ExpiresAt.Sub(now)
	if left <= 0 {
		return 0, ErrSessionExpired
	}
	if ttl <= 0 || left < ttl {
		ttl = left
	}
	return ttl, nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.rdb.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
