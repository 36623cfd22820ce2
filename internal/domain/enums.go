// Package domain defines the core domain models for the chat relay.
package domain

// Role is the author of a chat turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// VoteType is the polarity of a vote on an assistant turn.
type VoteType string

const (
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

// Valid reports whether t is a known vote type.
func (t VoteType) Valid() bool {
	return t == VoteUp || t == VoteDown
}

// Visibility of a chat.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// EventType represents the type of a relay event.
type EventType string

const (
	EventTypeStreamStarted   EventType = "stream_started"
	EventTypeStreamCompleted EventType = "stream_completed"
	EventTypeStreamAborted   EventType = "stream_aborted"
	EventTypeStreamFailed    EventType = "stream_failed"
	EventTypeChatDeleted     EventType = "chat_deleted"
	EventTypeVoteCast        EventType = "vote_cast"
)

// FinishReason values carried in finish and done frames.
const (
	FinishReasonStop  = "stop"
	FinishReasonError = "error"
)
