package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChatSession(t *testing.T) {
	exp := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := NewChatSession("s1", "", "a@x.com", "tok", exp)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = NewChatSession("s1", "u1", "a@x.com", "", exp)
	assert.ErrorIs(t, err, ErrUnauthorized)

	s, err := NewChatSession("s1", "u1", "a@x.com", "secret-token", exp)
	require.NoError(t, err)
	assert.Equal(t, "secret-token", s.BackendToken())
	assert.True(t, s.Valid(exp.Add(-time.Second)))
	assert.False(t, s.Valid(exp))
}

func TestChatSessionRedaction(t *testing.T) {
	s, err := NewChatSession("s1", "u1", "a@x.com", "secret-token", time.Now().Add(time.Hour))
	require.NoError(t, err)

	assert.NotContains(t, s.String(), "secret-token")
	assert.NotContains(t, fmt.Sprintf("%v", s), "secret-token")

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "secret-token")
	assert.Contains(t, string(out), `"id":"u1"`)
}

func TestBackendErrorClassification(t *testing.T) {
	err := fmt.Errorf("get chat: %w", &BackendError{Status: 404, Body: "chat not found"})
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))

	var be *BackendError
	require.True(t, errors.As(err, &be))
	assert.True(t, be.SafeBody())
	assert.False(t, (&BackendError{Status: 500}).SafeBody())
}
