package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/chatrelay/internal/domain"
)

func TestNewChatBackendMode(t *testing.T) {
	_, ok := NewChatBackend(ModeMock, Options{}, zerolog.Nop()).(*MemoryBackend)
	assert.True(t, ok)

	_, ok = NewChatBackend("", Options{BaseURL: "http://localhost"}, zerolog.Nop()).(*Client)
	assert.True(t, ok)
}

func TestMockBackendEchoes(t *testing.T) {
	ctx := context.Background()
	m := NewMockBackend()

	auth, err := m.Register(ctx, domain.Credentials{Email: "new@x.com", Password: "secret1"})
	require.NoError(t, err)

	resp, err := m.CreateOrAppendTurn(ctx, auth.Token, "c1", UserTurn{ID: "u1", Content: "ping"})
	require.NoError(t, err)

	reply := resp.AssistantReply("u1")
	require.NotNil(t, reply)
	assert.Equal(t, "You said: ping", reply.Content)
}

func TestMemoryBackendWithoutReply(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBackend()
	m.AddUser("a@x.com", "secret1", "user-a", "token-a")

	resp, err := m.CreateOrAppendTurn(ctx, "token-a", "c1", UserTurn{ID: "u1", Content: "hi"})
	require.NoError(t, err)
	assert.Nil(t, resp.AssistantReply("u1"))
	assert.Len(t, resp.Messages, 1)
}

func TestMemoryBackendTokenChecks(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBackend()

	_, err := m.ListChats(ctx, "", "user-a")
	assert.ErrorIs(t, err, domain.ErrMissingToken)

	_, err = m.ListChats(ctx, "bogus", "user-a")
	var be *domain.BackendError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, 401, be.Status)
	assert.Equal(t, 2, m.Calls(OpListChats))
}
