// Package backend provides a typed client for the external chat service.
package backend

import (
	"context"

	"github.com/xiaot623/chatrelay/internal/domain"
)

// ChatBackend defines the chat service operations the relay depends on.
// Every chat operation takes the caller's bearer token and rejects an empty
// one with domain.ErrMissingToken before any I/O. No operation retries.
type ChatBackend interface {
	// Login exchanges credentials for a backend-issued token.
	Login(ctx context.Context, creds domain.Credentials) (*AuthResponse, error)

	// Register creates an account and returns its token.
	Register(ctx context.Context, creds domain.Credentials) (*AuthResponse, error)

	// CreateOrAppendTurn persists a user turn and returns the chat with the assistant reply.
	CreateOrAppendTurn(ctx context.Context, token, chatID string, turn UserTurn) (*TurnResponse, error)

	GetChat(ctx context.Context, token, chatID string) (*domain.Chat, error)
	DeleteChat(ctx context.Context, token, chatID string) error
	ListChats(ctx context.Context, token, userID string) ([]domain.Chat, error)

	ListVotes(ctx context.Context, token, chatID string) ([]domain.Vote, error)
	CastVote(ctx context.Context, token, chatID, messageID string, voteType domain.VoteType) (*domain.Vote, error)

	// FetchCitationEvidence returns the raw evidence document with its content type.
	FetchCitationEvidence(ctx context.Context, token string, req domain.CitationRequest) (*domain.Evidence, error)
}

// Ensure Client implements ChatBackend interface.
var _ ChatBackend = (*Client)(nil)
