package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/xiaot623/chatrelay/internal/domain"
	"github.com/xiaot623/chatrelay/internal/metrics"
)

const maxErrorBody = 4 << 10

// Options configures a Client. AuthURL and CitationURL default to BaseURL.
type Options struct {
	BaseURL     string
	AuthURL     string
	CitationURL string
	Timeout     time.Duration
}

// Client is the HTTP client for the chat backend.
type Client struct {
	baseURL     string
	authURL     string
	citationURL string
	httpClient  *http.Client
}

// NewClient creates a new backend client.
func NewClient(opts Options) *Client {
	base := strings.TrimSuffix(opts.BaseURL, "/")
	c := &Client{
		baseURL:     base,
		authURL:     strings.TrimSuffix(opts.AuthURL, "/"),
		citationURL: strings.TrimSuffix(opts.CitationURL, "/"),
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
	}
	if c.authURL == "" {
		c.authURL = base
	}
	if c.citationURL == "" {
		c.citationURL = base
	}
	return c
}

// Login exchanges credentials for a backend token.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*AuthResponse, error) {
	var out AuthResponse
	body := AuthRequest{Email: creds.Email, Password: creds.Password}
	if err := c.doJSON(ctx, "login", http.MethodPost, c.authURL+"/auth/login", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates a backend account. The username is the email's local part.
func (c *Client) Register(ctx context.Context, creds domain.Credentials) (*AuthResponse, error) {
	username, _, _ := strings.Cut(creds.Email, "@")
	var out AuthResponse
	body := AuthRequest{Email: creds.Email, Password: creds.Password, Username: username}
	if err := c.doJSON(ctx, "register", http.MethodPost, c.authURL+"/auth/register", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateOrAppendTurn sends the user turn to POST /chats. The backend creates
// the chat on first use.
func (c *Client) CreateOrAppendTurn(ctx context.Context, token, chatID string, turn UserTurn) (*TurnResponse, error) {
	if token == "" {
		return nil, domain.ErrMissingToken
	}
	req := CreateTurnRequest{ID: chatID, Message: turn, Model: turn.Model}
	var out TurnResponse
	if err := c.doJSON(ctx, "create_turn", http.MethodPost, c.baseURL+"/chats", token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetChat fetches a chat with its messages.
func (c *Client) GetChat(ctx context.Context, token, chatID string) (*domain.Chat, error) {
	if token == "" {
		return nil, domain.ErrMissingToken
	}
	var out domain.Chat
	if err := c.doJSON(ctx, "get_chat", http.MethodGet, c.chatURL(chatID), token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteChat deletes a chat.
func (c *Client) DeleteChat(ctx context.Context, token, chatID string) error {
	if token == "" {
		return domain.ErrMissingToken
	}
	return c.doJSON(ctx, "delete_chat", http.MethodDelete, c.chatURL(chatID), token, nil, nil)
}

// ListChats lists the chats owned by userID.
func (c *Client) ListChats(ctx context.Context, token, userID string) ([]domain.Chat, error) {
	if token == "" {
		return nil, domain.ErrMissingToken
	}
	u := c.baseURL + "/chats?user_id=" + url.QueryEscape(userID)
	var out []domain.Chat
	if err := c.doJSON(ctx, "list_chats", http.MethodGet, u, token, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Chat{}
	}
	return out, nil
}

// ListVotes lists the votes recorded on a chat.
func (c *Client) ListVotes(ctx context.Context, token, chatID string) ([]domain.Vote, error) {
	if token == "" {
		return nil, domain.ErrMissingToken
	}
	var out []domain.Vote
	if err := c.doJSON(ctx, "list_votes", http.MethodGet, c.chatURL(chatID)+"/votes", token, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Vote{}
	}
	return out, nil
}

// CastVote upserts the vote on (chatID, messageID).
func (c *Client) CastVote(ctx context.Context, token, chatID, messageID string, voteType domain.VoteType) (*domain.Vote, error) {
	if token == "" {
		return nil, domain.ErrMissingToken
	}
	u := c.chatURL(chatID) + "/messages/" + url.PathEscape(messageID) + "/vote"
	var out domain.Vote
	if err := c.doJSON(ctx, "cast_vote", http.MethodPut, u, token, VoteRequest{Type: voteType}, &out); err != nil {
		return nil, err
	}
	if out.Type == "" {
		out = domain.Vote{ChatID: chatID, MessageID: messageID, Type: voteType}
	}
	return &out, nil
}

// FetchCitationEvidence returns the evidence document unmodified.
func (c *Client) FetchCitationEvidence(ctx context.Context, token string, req domain.CitationRequest) (*domain.Evidence, error) {
	if token == "" {
		return nil, domain.ErrMissingToken
	}
	body, err := json.Marshal(EvidenceRequest{FilePath: req.FilePath, PageNumber: req.PageNumber, ChunkID: req.ChunkID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.send(ctx, "fetch_evidence", http.MethodPost, c.citationURL+"/citations/evidence", token, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &domain.Evidence{ContentType: contentType, Data: data}, nil
}

func (c *Client) chatURL(chatID string) string {
	return c.baseURL + "/chats/" + url.PathEscape(chatID)
}

// doJSON sends a JSON request and decodes a JSON response into out when non-nil.
func (c *Client) doJSON(ctx context.Context, op, method, u, token string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	resp, err := c.send(ctx, op, method, u, token, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// send performs the request and converts non-2xx statuses to *domain.BackendError.
// On success the caller owns resp.Body.
func (c *Client) send(ctx context.Context, op, method, u, token string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(httpReq, token, body != nil)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		metrics.BackendLatency.WithLabelValues(op, "error").Observe(time.Since(start).Seconds())
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %s %s", domain.ErrGatewayTimeout, method, op)
		}
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	metrics.BackendLatency.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &domain.BackendError{Status: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	return resp, nil
}

func (c *Client) setHeaders(req *http.Request, token string, hasBody bool) {
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json, */*")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
