package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/chatrelay/internal/auth"
	"github.com/xiaot623/chatrelay/internal/config"
	"github.com/xiaot623/chatrelay/internal/domain"
	"github.com/xiaot623/chatrelay/internal/policy"
	"github.com/xiaot623/chatrelay/internal/repository"
	"github.com/xiaot623/chatrelay/internal/stream"
	"github.com/xiaot623/chatrelay/tests/helpers"
)

const (
	aliceEmail = "a@x.com"
	bobEmail   = "b@x.com"
	password   = "secret1"
)

type testEnv struct {
	svc     *Service
	backend *helpers.FakeBackend
	store   *repository.SQLiteStore
	cfg     *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	cfg := &config.Config{
		AuthSecret:     "test-secret",
		BackendTimeout: time.Second,
		SessionTTL:     time.Hour,
		StreamChunking: "word",
	}
	signer, err := auth.NewSigner([]byte(cfg.AuthSecret))
	require.NoError(t, err)
	engine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	require.NoError(t, err)

	fake := helpers.NewFakeBackend()
	fake.AddUser(aliceEmail, password, "user-a", "token-a")
	fake.AddUser(bobEmail, password, "user-b", "token-b")

	store := helpers.NewTestSQLiteStore(t)
	svc := New(fake, store, store, signer, engine, cfg, zerolog.Nop())
	return &testEnv{svc: svc, backend: fake, store: store, cfg: cfg}
}

// login mints a session for email and returns its carrier.
func (e *testEnv) login(t *testing.T, email string) string {
	t.Helper()
	_, carrier, err := e.svc.Mint(context.Background(), MintLogin, domain.Credentials{Email: email, Password: password})
	require.NoError(t, err)
	return carrier
}

// bufferOpener returns a SinkOpener writing into buf and a flag set when it is called.
func bufferOpener(buf *bytes.Buffer) (SinkOpener, *bool) {
	opened := false
	return func() (stream.Sink, error) {
		opened = true
		return stream.NewHTTPSink(buf), nil
	}, &opened
}

func chatRequest(chatID string, msgs ...domain.ClientMessage) *domain.ChatRequest {
	return &domain.ChatRequest{ID: chatID, Messages: msgs, SelectedChatModel: "chat-model"}
}

func userMessage(id, content string) domain.ClientMessage {
	return domain.ClientMessage{ID: id, Role: domain.RoleUser, Content: content}
}
