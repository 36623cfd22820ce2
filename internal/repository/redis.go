package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xiaot623/chatrelay/internal/domain"
)

// RedisSessionStore keeps sessions in Redis with a TTL matching their expiry.
type RedisSessionStore struct {
	client *redis.Client
	now    func() time.Time
}

// sessionRecord is the stored form of a session, token included.
type sessionRecord struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	BackendToken string `json:"backend_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// NewRedisSessionStore connects to redisURL and verifies the connection.
func NewRedisSessionStore(ctx context.Context, redisURL string) (*RedisSessionStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &RedisSessionStore{client: client, now: time.Now}, nil
}

// Close closes the Redis connection.
func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("relay:session:%s", sessionID)
}

// SaveSession stores the session until its expiry.
func (s *RedisSessionStore) SaveSession(ctx context.Context, session *domain.ChatSession) error {
	ttl := session.ExpiresAt().Sub(s.now())
	if ttl <= 0 {
		return errors.New("session already expired")
	}
	data, err := json.Marshal(sessionRecord{
		ID:           session.ID(),
		UserID:       session.UserID(),
		Email:        session.Email(),
		BackendToken: session.BackendToken(),
		ExpiresAt:    session.ExpiresAt().UnixMilli(),
	})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(session.ID()), data, ttl).Err()
}

// GetSession retrieves a session by ID.
func (s *RedisSessionStore) GetSession(ctx context.Context, sessionID string) (*domain.ChatSession, error) {
	data, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return domain.NewChatSession(rec.ID, rec.UserID, rec.Email, rec.BackendToken, time.UnixMilli(rec.ExpiresAt))
}

// DeleteSession removes a session.
func (s *RedisSessionStore) DeleteSession(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionKey(sessionID)).Err()
}

// DeleteExpiredSessions is a no-op; Redis expires keys itself.
func (s *RedisSessionStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}
