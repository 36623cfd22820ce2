package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/xiaot623/chatrelay/internal/adapter/backend"
	"github.com/xiaot623/chatrelay/internal/domain"
	"github.com/xiaot623/chatrelay/internal/metrics"
	"github.com/xiaot623/chatrelay/internal/stream"
)

// RelayState is a step of the chat relay state machine.
type RelayState string

const (
	StateReceived      RelayState = "received"
	StateAuthenticated RelayState = "authenticated"
	StatePersisted     RelayState = "persisted"
	StateStreaming     RelayState = "streaming"
	StateCompleted     RelayState = "completed"
	StateFailed        RelayState = "failed"
)

// streamErrorMessage is the only error text sent in-band to clients.
const streamErrorMessage = "An error occurred while streaming the response."

// SinkOpener commits the transport to streaming and returns the frame sink.
// For HTTP this writes the status line and headers.
type SinkOpener func() (stream.Sink, error)

// RelayChat runs one chat request: validate, resolve the session, persist the
// user turn through the backend, then stream the assistant turn.
//
// A non-nil error means the request failed before streaming and open was
// never called; the caller maps it to a status code. Once open has been
// called RelayChat returns nil and reports failures in-band.
func (s *Service) RelayChat(ctx context.Context, carrier string, req *domain.ChatRequest, open SinkOpener) error {
	state := StateReceived
	if err := req.Validate(); err != nil {
		return s.relayFailed(state, req.ID, err)
	}

	session, err := s.ResolveSession(ctx, carrier)
	if err != nil {
		return s.relayFailed(state, req.ID, err)
	}
	state = StateAuthenticated

	userMsg := req.MostRecentUserMessage()
	if userMsg == nil {
		return s.relayFailed(state, req.ID, fmt.Errorf("%w: no user message", domain.ErrBadRequest))
	}
	if !s.limiter.Allow(session.UserID(), s.now()) {
		metrics.RateLimitHits.Inc()
		return s.relayFailed(state, req.ID, domain.ErrRateLimited)
	}

	userTurnID := userMsg.ID
	if userTurnID == "" {
		userTurnID = uuid.NewString()
	}

	start := s.now()
	callCtx, cancel := s.backendContext(ctx)
	resp, err := s.backend.CreateOrAppendTurn(callCtx, session.BackendToken(), req.ID, backend.UserTurn{
		ID:      userTurnID,
		Content: userMsg.Content,
		Model:   req.SelectedChatModel,
	})
	timedOut := errors.Is(callCtx.Err(), context.DeadlineExceeded)
	cancel()
	if err != nil {
		if timedOut && !errors.Is(err, domain.ErrGatewayTimeout) {
			err = fmt.Errorf("%w: %v", domain.ErrGatewayTimeout, err)
		}
		return s.relayFailed(state, req.ID, err)
	}
	state = StatePersisted

	messageID, content := "", ""
	if reply := resp.AssistantReply(userTurnID); reply != nil {
		messageID, content = reply.ID, reply.Content
	}
	if messageID == "" {
		messageID = "msg-" + uuid.NewString()
	}

	sink, err := open()
	if err != nil {
		return s.relayFailed(state, req.ID, err)
	}
	state = StateStreaming

	if err := s.recordEvent(ctx, req.ID, session.UserID(), domain.EventTypeStreamStarted, domain.StreamStartedPayload{
		MessageID: messageID,
		Model:     req.SelectedChatModel,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record stream_started event")
	}

	s.streamTurn(ctx, session, req.ID, messageID, content, resp.Usage.ToDomain(), sink, start)
	return nil
}

// streamTurn drives the framer. Failures here never escape: aborts are
// silent and other errors become an in-band error frame.
func (s *Service) streamTurn(ctx context.Context, session *domain.ChatSession, chatID, messageID, content string, usage domain.Usage, sink stream.Sink, start time.Time) {
	framer := stream.NewFramer(sink, s.chunking)
	outcome := StateCompleted
	var streamErr error

	defer func() {
		if r := recover(); r != nil {
			outcome = StateFailed
			streamErr = fmt.Errorf("panic while streaming: %v", r)
			_ = framer.EmitError(ctx, streamErrorMessage)
		}
		s.finishStream(ctx, session, chatID, messageID, usage, framer.Frames(), start, outcome, streamErr)
	}()

	err := framer.Emit(ctx, messageID, content, usage)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrStreamAborted):
		outcome = StateFailed
		streamErr = err
	default:
		outcome = StateFailed
		streamErr = err
		_ = framer.EmitError(ctx, streamErrorMessage)
	}
}

func (s *Service) finishStream(ctx context.Context, session *domain.ChatSession, chatID, messageID string, usage domain.Usage, frames int, start time.Time, outcome RelayState, streamErr error) {
	payload := domain.StreamDonePayload{
		MessageID:        messageID,
		Frames:           frames,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		LatencyMs:        s.now().Sub(start).Milliseconds(),
	}

	eventType := domain.EventTypeStreamCompleted
	label := "completed"
	switch {
	case outcome == StateCompleted:
		s.logger.Debug().Str("chat_id", chatID).Str("message_id", messageID).Int("frames", frames).Msg("stream completed")
	case errors.Is(streamErr, domain.ErrStreamAborted):
		eventType, label = domain.EventTypeStreamAborted, "aborted"
		payload.Error = streamErr.Error()
		s.logger.Debug().Str("chat_id", chatID).Err(streamErr).Msg("stream aborted by client")
	default:
		eventType, label = domain.EventTypeStreamFailed, "failed"
		payload.Error = streamErr.Error()
		s.logger.Error().Str("chat_id", chatID).Err(streamErr).Msg("stream failed")
	}
	metrics.StreamsTotal.WithLabelValues(label).Inc()

	if err := s.recordEvent(ctx, chatID, session.UserID(), eventType, payload); err != nil {
		s.logger.Warn().Err(err).Msgf("failed to record %s event", eventType)
	}
}

func (s *Service) relayFailed(state RelayState, chatID string, err error) error {
	ev := s.logger.Debug()
	if !isClientError(err) {
		ev = s.logger.Warn()
	}
	ev.Str("chat_id", chatID).Str("state", string(state)).Err(err).Msg("chat relay failed")
	return err
}

func isClientError(err error) bool {
	return errors.Is(err, domain.ErrBadRequest) ||
		errors.Is(err, domain.ErrUnauthorized) ||
		errors.Is(err, domain.ErrRateLimited) ||
		errors.Is(err, domain.ErrNotFound)
}
