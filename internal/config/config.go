// Package config provides configuration for the chat relay.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingAuthSecret is returned when AUTH_SECRET is unset.
var ErrMissingAuthSecret = errors.New("AUTH_SECRET is required")

// Session store backends.
const (
	SessionBackendSQLite = "sqlite"
	SessionBackendRedis  = "redis"
)

// Config holds the relay configuration.
type Config struct {
	// Server settings
	HTTPPort     int
	CookieSecure bool

	// Backend settings
	BackendURL     string
	AuthURL        string
	CitationURL    string
	BackendTimeout time.Duration
	RelayMode      string

	// Session settings
	AuthSecret     string
	SessionTTL     time.Duration
	SessionBackend string
	DatabaseURL    string
	RedisURL       string

	// Streaming
	StreamChunking string

	// Rate limiting, per user. RateLimitRPS <= 0 disables it.
	RateLimitRPS   float64
	RateLimitBurst int

	// WebSocket settings
	WSPingInterval   time.Duration
	WSWriteTimeout   time.Duration
	WSReadTimeout    time.Duration
	WSMaxMessageSize int64

	// Logging
	LogLevel string
	Env      string
}

// Load loads configuration from the environment, reading a .env file first
// when present, and validates it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	backendURL := getEnv("BACKEND_URL", "http://localhost:8000")
	cfg := &Config{
		HTTPPort:         getEnvInt("HTTP_PORT", 8080),
		CookieSecure:     getEnvBool("COOKIE_SECURE", false),
		BackendURL:       backendURL,
		AuthURL:          getEnv("AUTH_URL", backendURL),
		CitationURL:      getEnv("CITATION_URL", backendURL),
		BackendTimeout:   time.Duration(getEnvInt("BACKEND_TIMEOUT_MS", 60000)) * time.Millisecond,
		RelayMode:        strings.ToUpper(getEnv("RELAY_MODE", "")),
		AuthSecret:       os.Getenv("AUTH_SECRET"),
		SessionTTL:       time.Duration(getEnvInt("SESSION_TTL_MS", 86400000)) * time.Millisecond,
		SessionBackend:   strings.ToLower(getEnv("SESSION_BACKEND", SessionBackendSQLite)),
		DatabaseURL:      getEnv("DATABASE_URL", "file:relay.db?cache=shared&mode=rwc"),
		RedisURL:         getEnv("REDIS_URL", ""),
		StreamChunking:   strings.ToLower(getEnv("STREAM_CHUNKING", "word")),
		RateLimitRPS:     getEnvFloat("RATE_LIMIT_RPS", 0),
		RateLimitBurst:   getEnvInt("RATE_LIMIT_BURST", 5),
		WSPingInterval:   time.Duration(getEnvInt("WS_PING_INTERVAL_MS", 30000)) * time.Millisecond,
		WSWriteTimeout:   time.Duration(getEnvInt("WS_WRITE_TIMEOUT_MS", 10000)) * time.Millisecond,
		WSReadTimeout:    time.Duration(getEnvInt("WS_READ_TIMEOUT_MS", 60000)) * time.Millisecond,
		WSMaxMessageSize: int64(getEnvInt("WS_MAX_MESSAGE_SIZE", 1<<20)),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		Env:              getEnv("ENV", "development"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings. AUTH_SECRET has no fallback.
func (c *Config) Validate() error {
	if c.AuthSecret == "" {
		return ErrMissingAuthSecret
	}
	switch c.SessionBackend {
	case SessionBackendSQLite:
	case SessionBackendRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required when SESSION_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend)
	}
	switch c.StreamChunking {
	case "word", "rune":
	default:
		return fmt.Errorf("unknown STREAM_CHUNKING %q", c.StreamChunking)
	}
	if c.BackendURL == "" {
		return errors.New("BACKEND_URL is required")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL_MS must be positive")
	}
	return nil
}

// IsDevelopment reports whether the relay runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
