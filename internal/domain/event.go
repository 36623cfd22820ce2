package domain

import "encoding/json"

// Event is an append-only record of a relay lifecycle step.
type Event struct {
	EventID   string          `json:"event_id"`
	RequestID string          `json:"request_id,omitempty"`
	ChatID    string          `json:"chat_id"`
	UserID    string          `json:"user_id"`
	Ts        int64           `json:"ts"`
	Type      EventType       `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// StreamStartedPayload is recorded when a relay enters streaming.
type StreamStartedPayload struct {
	MessageID string `json:"message_id"`
	Model     string `json:"model,omitempty"`
}

// StreamDonePayload is recorded when a stream completes, aborts or fails.
type StreamDonePayload struct {
	MessageID        string `json:"message_id"`
	Frames           int    `json:"frames"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	LatencyMs        int64  `json:"latency_ms"`
	Error            string `json:"error,omitempty"`
}

// VoteCastPayload is recorded when a vote is written.
type VoteCastPayload struct {
	MessageID string   `json:"message_id"`
	Type      VoteType `json:"type"`
	Noop      bool     `json:"noop,omitempty"`
}
