package service

import (
	"context"
	"fmt"

	"github.com/xiaot623/chatrelay/internal/domain"
	"github.com/xiaot623/chatrelay/internal/policy"
)

// ListVotes returns the votes on a chat.
func (s *Service) ListVotes(ctx context.Context, carrier, chatID string) ([]domain.Vote, error) {
	if chatID == "" {
		return nil, fmt.Errorf("%w: chatId is required", domain.ErrBadRequest)
	}
	session, err := s.ResolveSession(ctx, carrier)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedChat(ctx, session, chatID, policy.ActionReadVotes); err != nil {
		return nil, err
	}

	callCtx, cancel := s.backendContext(ctx)
	defer cancel()
	return s.backend.ListVotes(callCtx, session.BackendToken(), chatID)
}

// CastVote records a vote. Repeating the current vote is a no-op; the
// opposite type overwrites it.
func (s *Service) CastVote(ctx context.Context, carrier string, req domain.VoteRequest) (*domain.Vote, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	session, err := s.ResolveSession(ctx, carrier)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedChat(ctx, session, req.ChatID, policy.ActionCastVote); err != nil {
		return nil, err
	}

	callCtx, cancel := s.backendContext(ctx)
	defer cancel()

	existing, err := s.backend.ListVotes(callCtx, session.BackendToken(), req.ChatID)
	if err != nil {
		return nil, err
	}
	for _, v := range existing {
		if v.MessageID == req.MessageID && v.Type == req.Type {
			s.recordVote(ctx, session, req, true)
			return &v, nil
		}
	}

	vote, err := s.backend.CastVote(callCtx, session.BackendToken(), req.ChatID, req.MessageID, req.Type)
	if err != nil {
		return nil, err
	}
	s.recordVote(ctx, session, req, false)
	return vote, nil
}

func (s *Service) recordVote(ctx context.Context, session *domain.ChatSession, req domain.VoteRequest, noop bool) {
	payload := domain.VoteCastPayload{MessageID: req.MessageID, Type: req.Type, Noop: noop}
	if err := s.recordEvent(ctx, req.ChatID, session.UserID(), domain.EventTypeVoteCast, payload); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record vote_cast event")
	}
}
