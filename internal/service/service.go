// Package service implements the relay's request flows: session bridging,
// chat streaming, history, votes and citation evidence.
package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/xiaot623/chatrelay/internal/adapter/backend"
	"github.com/xiaot623/chatrelay/internal/auth"
	"github.com/xiaot623/chatrelay/internal/config"
	"github.com/xiaot623/chatrelay/internal/policy"
	"github.com/xiaot623/chatrelay/internal/repository"
	"github.com/xiaot623/chatrelay/internal/stream"
)

type Service struct {
	backend      backend.ChatBackend
	sessions     repository.SessionStore
	events       repository.EventStore
	signer       *auth.Signer
	policyEngine *policy.Engine
	limiter      *userLimiter
	config       *config.Config
	chunking     stream.Chunking
	logger       zerolog.Logger
	now          func() time.Time
}

func New(chatBackend backend.ChatBackend, sessions repository.SessionStore, events repository.EventStore, signer *auth.Signer, policyEngine *policy.Engine, cfg *config.Config, logger zerolog.Logger) *Service {
	chunking, err := stream.ParseChunking(cfg.StreamChunking)
	if err != nil {
		chunking = stream.ChunkWord
	}
	return &Service{
		backend:      chatBackend,
		sessions:     sessions,
		events:       events,
		signer:       signer,
		policyEngine: policyEngine,
		limiter:      newUserLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		config:       cfg,
		chunking:     chunking,
		logger:       logger,
		now:          time.Now,
	}
}

type requestIDKey struct{}

// WithRequestID attaches the transport request id to ctx for event records.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// backendContext bounds a backend call by the configured timeout.
func (s *Service) backendContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.BackendTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.config.BackendTimeout)
}
