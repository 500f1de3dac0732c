package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.App.Env)
	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, "memory", cfg.Session.Store)
	assert.Equal(t, int64(10<<20), cfg.Upload.MaxBytes)
	assert.Contains(t, cfg.Upload.AllowedTypes, "image/png")
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
api:
  base_url: "https://learn.example.com"
  timeout: 5s
session:
  store: redis
redis:
  addr: "cache:6379"
jwt:
  secret: "0123456789abcdef0123456789abcdef"
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.staging.yaml"), yaml, 0o600))

	t.Setenv("APP_ENV", "staging")
	t.Setenv("REDIS_ADDR", "redis.internal:6379")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.App.Env)
	assert.Equal(t, "https://learn.example.com", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, "redis", cfg.Session.Store)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	assert.NoError(t, cfg.Validate())
	assert.NoError(t, cfg.ValidateServer())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			API:     APIConfig{BaseURL: "http://localhost:8080", Timeout: time.Second},
			Session: SessionConfig{Store: "memory"},
			Upload:  UploadConfig{MaxBytes: 1024},
		}
	}

	t.Run("relative base url", func(t *testing.T) {
		c := base()
		c.API.BaseURL = "/api"
		assert.Error(t, c.Validate())
	})

	t.Run("redis store without addr", func(t *testing.T) {
		c := base()
		c.Session.Store = "redis"
		assert.Error(t, c.Validate())
	})

	t.Run("unknown store", func(t *testing.T) {
		c := base()
		c.Session.Store = "cookie"
		assert.Error(t, c.Validate())
	})

	t.Run("short jwt secret", func(t *testing.T) {
		c := base()
		c.Server.Port = "8080"
		c.JWT.Secret = "short"
		assert.Error(t, c.ValidateServer())
	})
}
