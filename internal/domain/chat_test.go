package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMostRecentUserMessage(t *testing.T) {
	req := &ChatRequest{
		ID: "c1",
		Messages: []ClientMessage{
			{ID: "u1", Role: RoleUser, Content: "first"},
			{ID: "a1", Role: RoleAssistant, Content: "reply"},
			{ID: "u2", Role: RoleUser, Content: "second"},
			{ID: "a2", Role: RoleAssistant, Content: "reply"},
		},
	}
	msg := req.MostRecentUserMessage()
	require.NotNil(t, msg)
	assert.Equal(t, "u2", msg.ID)

	req.Messages = []ClientMessage{{ID: "a1", Role: RoleAssistant}}
	assert.Nil(t, req.MostRecentUserMessage())
}

func TestRequestValidation(t *testing.T) {
	t.Run("chat request needs id", func(t *testing.T) {
		err := (&ChatRequest{}).Validate()
		assert.ErrorIs(t, err, ErrBadRequest)
	})

	t.Run("chat request without messages is well formed", func(t *testing.T) {
		assert.NoError(t, (&ChatRequest{ID: "c1"}).Validate())
	})

	t.Run("vote type must be up or down", func(t *testing.T) {
		err := (&VoteRequest{ChatID: "c1", MessageID: "m1", Type: "sideways"}).Validate()
		assert.ErrorIs(t, err, ErrBadRequest)
		assert.NoError(t, (&VoteRequest{ChatID: "c1", MessageID: "m1", Type: VoteDown}).Validate())
	})

	t.Run("vote fields required", func(t *testing.T) {
		err := (&VoteRequest{Type: VoteUp}).Validate()
		assert.ErrorIs(t, err, ErrBadRequest)
		assert.Contains(t, err.Error(), "ChatID")
	})

	t.Run("credentials", func(t *testing.T) {
		assert.ErrorIs(t, (&Credentials{Email: "nope", Password: "secret1"}).Validate(), ErrBadRequest)
		assert.NoError(t, (&Credentials{Email: "a@x.com", Password: "secret1"}).Validate())
	})

	t.Run("citation needs file path", func(t *testing.T) {
		assert.ErrorIs(t, (&CitationRequest{PageNumber: 2}).Validate(), ErrBadRequest)
	})
}
