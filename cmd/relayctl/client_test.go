package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/chatrelay/internal/auth"
	"github.com/xiaot623/chatrelay/internal/config"
	"github.com/xiaot623/chatrelay/internal/domain"
	"github.com/xiaot623/chatrelay/internal/policy"
	"github.com/xiaot623/chatrelay/internal/service"
	"github.com/xiaot623/chatrelay/internal/stream"
	transport "github.com/xiaot623/chatrelay/internal/transport/http"
	"github.com/xiaot623/chatrelay/tests/helpers"
)

func newRelay(t *testing.T) (string, *helpers.FakeBackend) {
	t.Helper()
	cfg := &config.Config{
		AuthSecret:       "test-secret",
		BackendTimeout:   time.Second,
		SessionTTL:       time.Hour,
		StreamChunking:   "word",
		WSPingInterval:   time.Second,
		WSWriteTimeout:   time.Second,
		WSReadTimeout:    5 * time.Second,
		WSMaxMessageSize: 1 << 20,
	}
	signer, err := auth.NewSigner([]byte(cfg.AuthSecret))
	require.NoError(t, err)
	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)

	fake := helpers.NewFakeBackend()
	fake.AddUser("a@x.com", "secret1", "user-a", "token-a")
	store := helpers.NewTestSQLiteStore(t)
	svc := service.New(fake, store, store, signer, engine, cfg, zerolog.Nop())

	srv := httptest.NewServer(transport.NewServer(svc, cfg, zerolog.Nop()))
	t.Cleanup(srv.Close)
	return srv.URL, fake
}

func loggedInClient(t *testing.T, url string) *Client {
	t.Helper()
	c := NewClient(url, "")
	res, err := c.Login(context.Background(), false, domain.Credentials{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "user-a", res.User.ID)
	assert.NotEmpty(t, res.Carrier)
	return c
}

func chatRequest(content string) *domain.ChatRequest {
	return &domain.ChatRequest{
		ID:       "c1",
		Messages: []domain.ClientMessage{{ID: "u1", Role: domain.RoleUser, Content: content}},
	}
}

func TestClientChatHTTP(t *testing.T) {
	url, fake := newRelay(t)
	fake.QueueReply("Hello world")
	c := loggedInClient(t, url)

	var text bytes.Buffer
	var tags []stream.FrameType
	err := c.Chat(context.Background(), chatRequest("Hi there"), func(f stream.Frame) error {
		tags = append(tags, f.Type)
		text.WriteString(f.Text)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello world", text.String())
	assert.Equal(t, stream.FrameMessageStart, tags[0])
	assert.Equal(t, stream.FrameDone, tags[len(tags)-1])
}

func TestClientChatWebSocket(t *testing.T) {
	url, fake := newRelay(t)
	fake.QueueReply("over the socket")
	c := loggedInClient(t, url)

	var text bytes.Buffer
	err := c.ChatWS(context.Background(), chatRequest("Hi"), func(f stream.Frame) error {
		text.WriteString(f.Text)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "over the socket", text.String())
}

func TestClientUnauthenticated(t *testing.T) {
	url, fake := newRelay(t)
	c := NewClient(url, "")

	err := c.Chat(context.Background(), chatRequest("Hi"), func(stream.Frame) error { return nil })
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Status)
	assert.Equal(t, 0, fake.TotalCalls())
}

func TestClientHistoryVoteDelete(t *testing.T) {
	url, fake := newRelay(t)
	fake.QueueReply("answer")
	c := loggedInClient(t, url)
	ctx := context.Background()

	require.NoError(t, c.Chat(ctx, chatRequest("question"), func(stream.Frame) error { return nil }))

	chats, err := c.History(ctx)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, "c1", chats[0].ID)

	vote, err := c.Vote(ctx, domain.VoteRequest{ChatID: "c1", MessageID: "m1", Type: domain.VoteDown})
	require.NoError(t, err)
	assert.Equal(t, domain.VoteDown, vote.Type)

	votes, err := c.Votes(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, votes, 1)

	require.NoError(t, c.DeleteChat(ctx, "c1"))
	chats, err = c.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, chats)
}

func TestCommandsUseSessionFile(t *testing.T) {
	url, fake := newRelay(t)
	fake.QueueReply("from the cli")
	sessionFile := filepath.Join(t.TempDir(), "session")

	run := func(args ...string) (string, error) {
		cmd := newRootCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(append([]string{"--server", url, "--session-file", sessionFile}, args...))
		err := cmd.ExecuteContext(context.Background())
		return out.String(), err
	}

	_, err := run("history")
	require.Error(t, err)

	out, err := run("login", "-e", "a@x.com", "-p", "secret1")
	require.NoError(t, err)
	assert.Contains(t, out, "a@x.com")

	out, err = run("chat", "--chat-id", "c9", "hello")
	require.NoError(t, err)
	assert.Contains(t, out, "from the cli")

	out, err = run("history")
	require.NoError(t, err)
	assert.Contains(t, out, "c9")

	_, err = run("logout")
	require.NoError(t, err)
	carrier, err := loadCarrier(sessionFile)
	require.NoError(t, err)
	assert.Empty(t, carrier)
}
