package domain

import "time"

// Usage holds token counters reported for an assistant turn.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
}

// Chat is a conversation owned by one user.
type Chat struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Title      string     `json:"title,omitempty"`
	Visibility Visibility `json:"visibility,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	Messages   []ChatTurn `json:"messages,omitempty"`
}

// ChatTurn is one persisted message. The relay never mutates a turn.
type ChatTurn struct {
	ID          string       `json:"id"`
	ChatID      string       `json:"chat_id"`
	Role        Role         `json:"role"`
	Content     string       `json:"content"`
	CreatedAt   time.Time    `json:"created_at"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

// Citations returns the citation annotations of the turn in order.
func (t *ChatTurn) Citations() []Citation {
	var out []Citation
	for _, a := range t.Annotations {
		if a.Citation != nil {
			out = append(out, *a.Citation)
		}
	}
	return out
}

// ClientMessage is a message as sent by the chat client.
type ClientMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role" validate:"required"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// ChatRequest is the inbound body of a chat relay request.
type ChatRequest struct {
	ID                string          `json:"id" validate:"required"`
	Messages          []ClientMessage `json:"messages" validate:"dive"`
	SelectedChatModel string          `json:"selectedChatModel"`
}

// MostRecentUserMessage returns the last user-authored message, or nil.
func (r *ChatRequest) MostRecentUserMessage() *ClientMessage {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			return &r.Messages[i]
		}
	}
	return nil
}
