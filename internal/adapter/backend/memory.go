package backend

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/xiaot623/chatrelay/internal/domain"
)

// Operation names used by MemoryBackend for call counting and forced errors.
const (
	OpLogin         = "login"
	OpRegister      = "register"
	OpCreateTurn    = "create_turn"
	OpGetChat       = "get_chat"
	OpDeleteChat    = "delete_chat"
	OpListChats     = "list_chats"
	OpListVotes     = "list_votes"
	OpCastVote      = "cast_vote"
	OpFetchEvidence = "fetch_evidence"
)

type memoryUser struct {
	id       string
	password string
	token    string
}

// MemoryBackend is an in-memory ChatBackend that counts calls. Assistant
// replies are whatever is queued; with nothing queued the user turn is
// persisted and no assistant turn is returned, unless echo is enabled.
type MemoryBackend struct {
	mu           sync.Mutex
	calls        map[string]int
	tokensSeen   []string
	users        map[string]*memoryUser
	tokens       map[string]string
	chats        map[string]*domain.Chat
	votes        map[string][]domain.Vote
	evidence     map[string]*domain.Evidence
	replies      []string
	errs         map[string]error
	usage        *Usage
	delay        time.Duration
	assistantSeq int
	echo         bool
	userSeq      int
}

var _ ChatBackend = (*MemoryBackend)(nil)

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		calls:    make(map[string]int),
		users:    make(map[string]*memoryUser),
		tokens:   make(map[string]string),
		chats:    make(map[string]*domain.Chat),
		votes:    make(map[string][]domain.Vote),
		evidence: make(map[string]*domain.Evidence),
		errs:     make(map[string]error),
	}
}

// AddUser registers a user that can log in.
func (m *MemoryBackend) AddUser(email, password, userID, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[email] = &memoryUser{id: userID, password: password, token: token}
	m.tokens[token] = userID
}

// QueueReply queues the content of the next assistant turn.
func (m *MemoryBackend) QueueReply(content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, content)
}

// SetUsage sets the usage reported with each turn.
func (m *MemoryBackend) SetUsage(u *Usage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage = u
}

// SetError forces op to fail with err until cleared with nil.
func (m *MemoryBackend) SetError(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errs, op)
		return
	}
	m.errs[op] = err
}

// SetDelay makes CreateOrAppendTurn wait d or until its context ends.
func (m *MemoryBackend) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// PutChat stores a chat as the backend's copy.
func (m *MemoryBackend) PutChat(chat domain.Chat) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := chat
	m.chats[chat.ID] = &c
}

// PutEvidence stores evidence under its file path.
func (m *MemoryBackend) PutEvidence(filePath string, ev *domain.Evidence) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evidence[filePath] = ev
}

// Calls returns the number of calls made to op.
func (m *MemoryBackend) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// TotalCalls returns the number of calls made to any operation.
func (m *MemoryBackend) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

// TokensSeen returns every bearer token received, in call order.
func (m *MemoryBackend) TokensSeen() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.tokensSeen...)
}

// Chat returns the stored chat.
func (m *MemoryBackend) Chat(id string) (domain.Chat, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chats[id]
	if !ok {
		return domain.Chat{}, false
	}
	return *c, true
}

// Votes returns the stored votes of a chat.
func (m *MemoryBackend) Votes(chatID string) []domain.Vote {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Vote(nil), m.votes[chatID]...)
}

// begin counts the call and returns the user behind token. Callers hold m.mu.
func (m *MemoryBackend) begin(op, token string) (string, error) {
	m.calls[op]++
	if err := m.errs[op]; err != nil {
		return "", err
	}
	if op == OpLogin || op == OpRegister {
		return "", nil
	}
	if token == "" {
		return "", domain.ErrMissingToken
	}
	m.tokensSeen = append(m.tokensSeen, token)
	userID, ok := m.tokens[token]
	if !ok {
		return "", &domain.BackendError{Status: http.StatusUnauthorized, Body: "invalid token"}
	}
	return userID, nil
}

func (m *MemoryBackend) Login(ctx context.Context, creds domain.Credentials) (*AuthResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.begin(OpLogin, ""); err != nil {
		return nil, err
	}
	u, ok := m.users[creds.Email]
	if !ok || u.password != creds.Password {
		return nil, &domain.BackendError{Status: http.StatusUnauthorized, Body: "invalid credentials"}
	}
	return &AuthResponse{Token: u.token, User: AuthUser{ID: u.id, Email: creds.Email}}, nil
}

func (m *MemoryBackend) Register(ctx context.Context, creds domain.Credentials) (*AuthResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.begin(OpRegister, ""); err != nil {
		return nil, err
	}
	if _, exists := m.users[creds.Email]; exists {
		return nil, &domain.BackendError{Status: http.StatusConflict, Body: "user already exists"}
	}
	m.userSeq++
	u := &memoryUser{
		id:       fmt.Sprintf("user-%d", m.userSeq),
		password: creds.Password,
		token:    fmt.Sprintf("token-%d", m.userSeq),
	}
	m.users[creds.Email] = u
	m.tokens[u.token] = u.id
	return &AuthResponse{Token: u.token, User: AuthUser{ID: u.id, Email: creds.Email}}, nil
}

func (m *MemoryBackend) CreateOrAppendTurn(ctx context.Context, token, chatID string, turn UserTurn) (*TurnResponse, error) {
	m.mu.Lock()
	delay := m.delay
	m.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			m.mu.Lock()
			m.calls[OpCreateTurn]++
			m.mu.Unlock()
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	userID, err := m.begin(OpCreateTurn, token)
	if err != nil {
		return nil, err
	}

	chat, ok := m.chats[chatID]
	if !ok {
		chat = &domain.Chat{ID: chatID, UserID: userID, Title: turn.Content, Visibility: domain.VisibilityPrivate, CreatedAt: time.Now()}
		m.chats[chatID] = chat
	}
	if chat.UserID != userID {
		return nil, &domain.BackendError{Status: http.StatusForbidden, Body: "forbidden"}
	}

	chat.Messages = append(chat.Messages, domain.ChatTurn{
		ID: turn.ID, ChatID: chatID, Role: domain.RoleUser, Content: turn.Content, CreatedAt: time.Now(),
	})
	content, ok := m.nextReply(turn.Content)
	if ok {
		m.assistantSeq++
		chat.Messages = append(chat.Messages, domain.ChatTurn{
			ID:        fmt.Sprintf("m%d", m.assistantSeq),
			ChatID:    chatID,
			Role:      domain.RoleAssistant,
			Content:   content,
			CreatedAt: time.Now(),
		})
	}

	resp := &TurnResponse{Chat: *chat, Usage: m.usage}
	resp.Messages = append([]domain.ChatTurn(nil), chat.Messages...)
	return resp, nil
}

func (m *MemoryBackend) GetChat(ctx context.Context, token, chatID string) (*domain.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.begin(OpGetChat, token); err != nil {
		return nil, err
	}
	chat, ok := m.chats[chatID]
	if !ok {
		return nil, &domain.BackendError{Status: http.StatusNotFound, Body: "Chat not found"}
	}
	c := *chat
	return &c, nil
}

func (m *MemoryBackend) DeleteChat(ctx context.Context, token, chatID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.begin(OpDeleteChat, token); err != nil {
		return err
	}
	if _, ok := m.chats[chatID]; !ok {
		return &domain.BackendError{Status: http.StatusNotFound, Body: "Chat not found"}
	}
	delete(m.chats, chatID)
	delete(m.votes, chatID)
	return nil
}

func (m *MemoryBackend) ListChats(ctx context.Context, token, userID string) ([]domain.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.begin(OpListChats, token); err != nil {
		return nil, err
	}
	out := []domain.Chat{}
	for _, c := range m.chats {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *MemoryBackend) ListVotes(ctx context.Context, token, chatID string) ([]domain.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.begin(OpListVotes, token); err != nil {
		return nil, err
	}
	return append([]domain.Vote{}, m.votes[chatID]...), nil
}

func (m *MemoryBackend) CastVote(ctx context.Context, token, chatID, messageID string, voteType domain.VoteType) (*domain.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.begin(OpCastVote, token); err != nil {
		return nil, err
	}
	vote := domain.Vote{ChatID: chatID, MessageID: messageID, Type: voteType}
	votes := m.votes[chatID]
	for i := range votes {
		if votes[i].MessageID == messageID {
			votes[i] = vote
			return &vote, nil
		}
	}
	m.votes[chatID] = append(votes, vote)
	return &vote, nil
}

func (m *MemoryBackend) FetchCitationEvidence(ctx context.Context, token string, req domain.CitationRequest) (*domain.Evidence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.begin(OpFetchEvidence, token); err != nil {
		return nil, err
	}
	ev, ok := m.evidence[req.FilePath]
	if !ok {
		return nil, &domain.BackendError{Status: http.StatusNotFound, Body: "document not found"}
	}
	return &domain.Evidence{ContentType: ev.ContentType, Data: append([]byte(nil), ev.Data...)}, nil
}

// nextReply pops the queued reply, falling back to an echo when enabled.
// Callers hold m.mu.
func (m *MemoryBackend) nextReply(userContent string) (string, bool) {
	if len(m.replies) > 0 {
		content := m.replies[0]
		m.replies = m.replies[1:]
		return content, true
	}
	if m.echo {
		return "You said: " + userContent, true
	}
	return "", false
}
