package service

import (
	"context"
	"fmt"

	"github.com/xiaot623/chatrelay/internal/domain"
	"github.com/xiaot623/chatrelay/internal/policy"
)

// ListHistory returns the chats owned by the session user.
func (s *Service) ListHistory(ctx context.Context, carrier string) ([]domain.Chat, error) {
	session, err := s.ResolveSession(ctx, carrier)
	if err != nil {
		return nil, err
	}
	callCtx, cancel := s.backendContext(ctx)
	defer cancel()
	return s.backend.ListChats(callCtx, session.BackendToken(), session.UserID())
}

// DeleteChat deletes a chat owned by the session user. A missing id is
// domain.ErrNotFound; a chat owned by someone else is domain.ErrUnauthorized
// and is left untouched.
func (s *Service) DeleteChat(ctx context.Context, carrier, chatID string) error {
	if chatID == "" {
		return fmt.Errorf("%w: chat id is required", domain.ErrNotFound)
	}
	session, err := s.ResolveSession(ctx, carrier)
	if err != nil {
		return err
	}
	if _, err := s.ownedChat(ctx, session, chatID, policy.ActionDeleteChat); err != nil {
		return err
	}

	callCtx, cancel := s.backendContext(ctx)
	defer cancel()
	if err := s.backend.DeleteChat(callCtx, session.BackendToken(), chatID); err != nil {
		return err
	}

	if err := s.recordEvent(ctx, chatID, session.UserID(), domain.EventTypeChatDeleted, struct{}{}); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record chat_deleted event")
	}
	s.logger.Info().Str("chat_id", chatID).Str("user_id", session.UserID()).Msg("chat deleted")
	return nil
}

// ownedChat fetches a chat and checks the policy for action.
func (s *Service) ownedChat(ctx context.Context, session *domain.ChatSession, chatID, action string) (*domain.Chat, error) {
	callCtx, cancel := s.backendContext(ctx)
	defer cancel()
	chat, err := s.backend.GetChat(callCtx, session.BackendToken(), chatID)
	if err != nil {
		return nil, err
	}

	decision, err := s.policyEngine.Evaluate(ctx, policy.Input{
		Action:     action,
		UserID:     session.UserID(),
		OwnerID:    chat.UserID,
		Visibility: string(chat.Visibility),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate ownership policy: %w", err)
	}
	if !decision.Allow {
		s.logger.Info().
			Str("chat_id", chatID).
			Str("user_id", session.UserID()).
			Str("action", action).
			Str("reason", decision.Reason).
			Msg("policy denied chat access")
		return nil, fmt.Errorf("%w: %s", domain.ErrUnauthorized, decision.Reason)
	}
	return chat, nil
}
