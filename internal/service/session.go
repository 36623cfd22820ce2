package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/xiaot623/chatrelay/internal/adapter/backend"
	"github.com/xiaot623/chatrelay/internal/domain"
	"github.com/xiaot623/chatrelay/internal/metrics"
)

// MintKind selects the auth flow used to mint a session.
type MintKind string

const (
	MintLogin    MintKind = "login"
	MintRegister MintKind = "register"
)

// Mint exchanges credentials for a backend token through the auth service and
// wraps it in a new stored session. It returns the session and the signed
// carrier the client presents on later requests.
func (s *Service) Mint(ctx context.Context, kind MintKind, creds domain.Credentials) (*domain.ChatSession, string, error) {
	if err := creds.Validate(); err != nil {
		return nil, "", err
	}

	callCtx, cancel := s.backendContext(ctx)
	defer cancel()

	var resp *backend.AuthResponse
	var err error
	if kind == MintRegister {
		resp, err = s.backend.Register(callCtx, creds)
	} else {
		resp, err = s.backend.Login(callCtx, creds)
	}
	if err != nil {
		return nil, "", classifyAuthError(err)
	}
	if resp.Token == "" || resp.User.ID == "" {
		return nil, "", &domain.BackendError{Status: http.StatusBadGateway, Body: "incomplete auth response"}
	}

	email := resp.User.Email
	if email == "" {
		email = creds.Email
	}
	session, err := domain.NewChatSession(uuid.NewString(), resp.User.ID, email, resp.Token, s.now().Add(s.config.SessionTTL))
	if err != nil {
		return nil, "", err
	}
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, "", fmt.Errorf("failed to save session: %w", err)
	}

	carrier, err := s.signer.Sign(session.ID(), session.UserID(), session.ExpiresAt())
	if err != nil {
		_ = s.sessions.DeleteSession(ctx, session.ID())
		return nil, "", fmt.Errorf("failed to sign session: %w", err)
	}

	metrics.SessionsMinted.WithLabelValues(string(kind)).Inc()
	s.logger.Info().
		Str("user_id", session.UserID()).
		Str("session_id", session.ID()).
		Str("kind", string(kind)).
		Msg("session minted")
	return session, carrier, nil
}

func classifyAuthError(err error) error {
	var be *domain.BackendError
	if !errors.As(err, &be) {
		return err
	}
	switch be.Status {
	case http.StatusConflict:
		return fmt.Errorf("%w: account already exists", domain.ErrConflict)
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return domain.ErrInvalidCredentials
	}
	return err
}

// ResolveSession verifies a carrier and loads its session. Every failure to
// produce a complete, unexpired session is domain.ErrUnauthorized.
func (s *Service) ResolveSession(ctx context.Context, carrier string) (*domain.ChatSession, error) {
	if carrier == "" {
		return nil, domain.ErrUnauthorized
	}
	claims, err := s.signer.Verify(carrier)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	session, err := s.sessions.GetSession(ctx, claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil || session.UserID() != claims.UserID() || !session.Valid(s.now()) {
		return nil, domain.ErrUnauthorized
	}
	return session, nil
}

// Revoke deletes the session named by the carrier. Revoking an unknown or
// already revoked session succeeds.
func (s *Service) Revoke(ctx context.Context, carrier string) error {
	if carrier == "" {
		return nil
	}
	claims, err := s.signer.Verify(carrier)
	if err != nil {
		return nil
	}
	if err := s.sessions.DeleteSession(ctx, claims.SessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.logger.Info().Str("session_id", claims.SessionID).Msg("session revoked")
	return nil
}
