package backend

import "github.com/rs/zerolog"

// ModeMock selects the in-memory backend.
const ModeMock = "MOCK"

// NewChatBackend creates the backend for mode. MOCK returns an in-memory
// backend that echoes user turns; anything else returns the HTTP client.
func NewChatBackend(mode string, opts Options, logger zerolog.Logger) ChatBackend {
	if mode == ModeMock {
		logger.Warn().Msg("RELAY_MODE=MOCK detected, using in-memory chat backend")
		return NewMockBackend()
	}
	return NewClient(opts)
}

// NewMockBackend creates an in-memory backend that answers every user turn
// with an echo of its content. Accounts are created through Register.
func NewMockBackend() *MemoryBackend {
	m := NewMemoryBackend()
	m.echo = true
	return m
}
