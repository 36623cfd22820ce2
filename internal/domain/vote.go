package domain

// Vote is a user's rating of an assistant turn, keyed by (ChatID, MessageID).
type Vote struct {
	ChatID    string   `json:"chatId"`
	MessageID string   `json:"messageId"`
	Type      VoteType `json:"type"`
}

// VoteRequest is the inbound body for casting a vote.
type VoteRequest struct {
	ChatID    string   `json:"chatId" validate:"required"`
	MessageID string   `json:"messageId" validate:"required"`
	Type      VoteType `json:"type" validate:"required,votetype"`
}
