package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/xiaot623/chatrelay/internal/domain"
	"github.com/xiaot623/chatrelay/internal/policy"
)

// recordEvent appends a relay event. It runs detached from ctx cancellation
// so aborted streams are still recorded.
func (s *Service) recordEvent(ctx context.Context, chatID, userID string, eventType domain.EventType, payload interface{}) error {
	if s.events == nil {
		return nil
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	event := &domain.Event{
		EventID:   "evt_" + ulid.Make().String(),
		RequestID: requestIDFrom(ctx),
		ChatID:    chatID,
		UserID:    userID,
		Ts:        s.now().UnixMilli(),
		Type:      eventType,
		Payload:   payloadBytes,
	}

	return s.events.CreateEvent(context.WithoutCancel(ctx), event)
}

// ListEvents returns the relay events recorded for a chat the caller owns.
func (s *Service) ListEvents(ctx context.Context, carrier, chatID string, limit int) ([]domain.Event, error) {
	session, err := s.ResolveSession(ctx, carrier)
	if err != nil {
		return nil, err
	}
	if chatID == "" {
		return nil, fmt.Errorf("%w: chatId is required", domain.ErrBadRequest)
	}
	if _, err := s.ownedChat(ctx, session, chatID, policy.ActionListEvents); err != nil {
		return nil, err
	}
	if s.events == nil {
		return []domain.Event{}, nil
	}
	events, err := s.events.GetEvents(ctx, chatID, nil, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	if events == nil {
		events = []domain.Event{}
	}
	return events, nil
}
