package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ChatSession binds a relay user to the backend bearer token issued at login.
// It is immutable once constructed; the token is only reachable via
// BackendToken and never appears in String or JSON output.
type ChatSession struct {
	id           string
	userID       string
	email        string
	backendToken string
	expiresAt    time.Time
}

// NewChatSession builds a session. userID and backendToken are mandatory.
func NewChatSession(id, userID, email, backendToken string, expiresAt time.Time) (*ChatSession, error) {
	if id == "" || userID == "" || backendToken == "" {
		return nil, fmt.Errorf("%w: session requires id, user and backend token", ErrUnauthorized)
	}
	return &ChatSession{
		id:           id,
		userID:       userID,
		email:        email,
		backendToken: backendToken,
		expiresAt:    expiresAt,
	}, nil
}

func (s *ChatSession) ID() string           { return s.id }
func (s *ChatSession) UserID() string       { return s.userID }
func (s *ChatSession) Email() string        { return s.email }
func (s *ChatSession) BackendToken() string { return s.backendToken }
func (s *ChatSession) ExpiresAt() time.Time { return s.expiresAt }

// Valid reports whether the session is complete and not expired at now.
func (s *ChatSession) Valid(now time.Time) bool {
	if s == nil || s.userID == "" || s.backendToken == "" {
		return false
	}
	return now.Before(s.expiresAt)
}

func (s *ChatSession) String() string {
	return fmt.Sprintf("ChatSession{id=%s user=%s token=[redacted] expires=%s}",
		s.id, s.userID, s.expiresAt.UTC().Format(time.RFC3339))
}

func (s *ChatSession) MarshalJSON() ([]byte, error) {
	return json.Marshal(SessionUser{
		ID:        s.userID,
		Email:     s.email,
		ExpiresAt: s.expiresAt,
	})
}

// SessionUser is the public view of a session returned to clients.
type SessionUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Credentials are user-supplied login or registration inputs.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}
