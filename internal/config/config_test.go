package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresAuthSecret(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingAuthSecret)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "test-secret")
	t.Setenv("BACKEND_URL", "http://backend:9000")
	t.Setenv("AUTH_URL", "")
	t.Setenv("CITATION_URL", "")
	t.Setenv("SESSION_BACKEND", "")
	t.Setenv("STREAM_CHUNKING", "")
	t.Setenv("BACKEND_TIMEOUT_MS", "")
	t.Setenv("RATE_LIMIT_RPS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://backend:9000", cfg.AuthURL)
	assert.Equal(t, "http://backend:9000", cfg.CitationURL)
	assert.Equal(t, 60*time.Second, cfg.BackendTimeout)
	assert.Equal(t, SessionBackendSQLite, cfg.SessionBackend)
	assert.Equal(t, "word", cfg.StreamChunking)
	assert.Zero(t, cfg.RateLimitRPS)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			AuthSecret:     "s",
			BackendURL:     "http://localhost:8000",
			SessionBackend: SessionBackendSQLite,
			SessionTTL:     time.Hour,
			StreamChunking: "rune",
		}
	}

	assert.NoError(t, base().Validate())

	cfg := base()
	cfg.SessionBackend = SessionBackendRedis
	assert.Error(t, cfg.Validate())
	cfg.RedisURL = "redis://localhost:6379/0"
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.StreamChunking = "sentence"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.SessionBackend = "memcached"
	assert.Error(t, cfg.Validate())
}
