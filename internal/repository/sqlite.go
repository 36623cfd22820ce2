package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/xiaot623/chatrelay/internal/domain"
)

// SQLiteStore implements SessionStore and EventStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS relay_sessions (
			session_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			backend_token TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			expires_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_relay_sessions_expires ON relay_sessions(expires_at)`,
		`CREATE TABLE IF NOT EXISTS relay_events (
			event_id TEXT PRIMARY KEY,
			request_id TEXT,
			chat_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			ts INTEGER NOT NULL,
			type TEXT NOT NULL,
			payload TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_relay_events_chat ON relay_events(chat_id, ts)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveSession inserts or replaces a session.
func (s *SQLiteStore) SaveSession(ctx context.Context, session *domain.ChatSession) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO relay_sessions (session_id, user_id, email, backend_token, expires_at) VALUES (?, ?, ?, ?, ?)`,
		session.ID(), session.UserID(), session.Email(), session.BackendToken(), session.ExpiresAt().UnixMilli())
	return err
}

// GetSession retrieves a session by ID.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.ChatSession, error) {
	var id, userID, email, token string
	var expiresAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, user_id, email, backend_token, expires_at FROM relay_sessions WHERE session_id = ?`,
		sessionID).Scan(&id, &userID, &email, &token, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return domain.NewChatSession(id, userID, email, token, time.UnixMilli(expiresAt))
}

// DeleteSession removes a session. Deleting a missing session is not an error.
func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM relay_sessions WHERE session_id = ?`, sessionID)
	return err
}

// DeleteExpiredSessions removes sessions whose expiry is at or before now.
func (s *SQLiteStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM relay_sessions WHERE expires_at <= ?`, now.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CreateEvent appends a relay event.
func (s *SQLiteStore) CreateEvent(ctx context.Context, event *domain.Event) error {
	payload := ""
	if event.Payload != nil {
		payload = string(event.Payload)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO relay_events (event_id, request_id, chat_id, user_id, ts, type, payload) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.EventID, nullString(event.RequestID), event.ChatID, event.UserID, event.Ts, event.Type, payload)
	return err
}

// GetEvents retrieves events for a chat in time order, optionally filtered by type.
func (s *SQLiteStore) GetEvents(ctx context.Context, chatID string, types []domain.EventType, limit int) ([]domain.Event, error) {
	query := `SELECT event_id, request_id, chat_id, user_id, ts, type, payload FROM relay_events WHERE chat_id = ?`
	args := []interface{}{chatID}

	if len(types) > 0 {
		placeholders := make([]string, len(types))
		for i, t := range types {
			placeholders[i] = "?"
			args = append(args, string(t))
		}
		query += fmt.Sprintf(" AND type IN (%s)", strings.Join(placeholders, ","))
	}

	query += ` ORDER BY ts ASC, event_id ASC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var event domain.Event
		var requestID, payload sql.NullString
		if err := rows.Scan(&event.EventID, &requestID, &event.ChatID, &event.UserID, &event.Ts, &event.Type, &payload); err != nil {
			return nil, err
		}
		event.RequestID = requestID.String
		if payload.Valid && payload.String != "" {
			event.Payload = json.RawMessage(payload.String)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
