package helpers

import "github.com/xiaot623/chatrelay/internal/adapter/backend"

// FakeBackend is the in-memory backend used as a test double.
type FakeBackend = backend.MemoryBackend

const (
	OpLogin         = backend.OpLogin
	OpRegister      = backend.OpRegister
	OpCreateTurn    = backend.OpCreateTurn
	OpGetChat       = backend.OpGetChat
	OpDeleteChat    = backend.OpDeleteChat
	OpListChats     = backend.OpListChats
	OpListVotes     = backend.OpListVotes
	OpCastVote      = backend.OpCastVote
	OpFetchEvidence = backend.OpFetchEvidence
)

// NewFakeBackend returns an empty in-memory backend.
func NewFakeBackend() *FakeBackend {
	return backend.NewMemoryBackend()
}
