// Package repository persists relay sessions and relay events.
package repository

import (
	"context"
	"time"

	"github.com/xiaot623/chatrelay/internal/domain"
)

// SessionStore holds server-side sessions. GetSession returns nil, nil when
// the session does not exist.
type SessionStore interface {
	SaveSession(ctx context.Context, session *domain.ChatSession) error
	GetSession(ctx context.Context, sessionID string) (*domain.ChatSession, error)
	DeleteSession(ctx context.Context, sessionID string) error
	// DeleteExpiredSessions removes sessions expired at now and returns how many were removed.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
	Close() error
}

// EventStore is the append-only relay event log.
type EventStore interface {
	CreateEvent(ctx context.Context, event *domain.Event) error
	GetEvents(ctx context.Context, chatID string, types []domain.EventType, limit int) ([]domain.Event, error)
}

var (
	_ SessionStore = (*SQLiteStore)(nil)
	_ EventStore   = (*SQLiteStore)(nil)
	_ SessionStore = (*RedisSessionStore)(nil)
)
