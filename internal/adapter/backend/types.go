package backend

import "github.com/xiaot623/chatrelay/internal/domain"

// UserTurn is the user message persisted by CreateOrAppendTurn.
type UserTurn struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	// Model is the client's selected chat model, sent alongside the message.
	Model string `json:"-"`
}

// CreateTurnRequest is the body of POST /chats.
type CreateTurnRequest struct {
	ID      string   `json:"id"`
	Message UserTurn `json:"message"`
	Model   string   `json:"model,omitempty"`
}

// TurnResponse is the chat returned after persisting a user turn.
type TurnResponse struct {
	domain.Chat
	Usage *Usage `json:"usage,omitempty"`
}

// Usage is the backend's token accounting.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// ToDomain converts backend usage, treating nil as zero.
func (u *Usage) ToDomain() domain.Usage {
	if u == nil {
		return domain.Usage{}
	}
	return domain.Usage{PromptTokens: u.PromptTokens, CompletionTokens: u.CompletionTokens}
}

// AssistantReply returns the assistant turn answering userMessageID: the
// last assistant turn after that user turn. If the user turn is not in the
// response, the last assistant turn overall is used. Nil means the backend
// produced no assistant content.
func (r *TurnResponse) AssistantReply(userMessageID string) *domain.ChatTurn {
	start := 0
	for i, m := range r.Messages {
		if m.Role == domain.RoleUser && m.ID == userMessageID {
			start = i + 1
		}
	}
	var reply *domain.ChatTurn
	for i := start; i < len(r.Messages); i++ {
		if r.Messages[i].Role == domain.RoleAssistant {
			reply = &r.Messages[i]
		}
	}
	return reply
}

// AuthRequest is the body of the auth endpoints.
type AuthRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username,omitempty"`
}

// AuthResponse carries the backend-issued bearer token.
type AuthResponse struct {
	Token string   `json:"token"`
	User  AuthUser `json:"user"`
}

// AuthUser identifies the authenticated backend user.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// VoteRequest is the body of PUT /chats/{chatId}/messages/{messageId}/vote.
type VoteRequest struct {
	Type domain.VoteType `json:"type"`
}

// EvidenceRequest is the body of POST /citations/evidence.
type EvidenceRequest struct {
	FilePath   string `json:"file_path"`
	PageNumber int    `json:"page_number"`
	ChunkID    string `json:"chunk_id,omitempty"`
}
