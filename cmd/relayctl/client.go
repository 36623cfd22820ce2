package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/xiaot623/chatrelay/internal/auth"
	"github.com/xiaot623/chatrelay/internal/domain"
	"github.com/xiaot623/chatrelay/internal/stream"
)

// APIError is a non-2xx relay response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("relay error [%d]: %s", e.Status, e.Message)
}

// Client talks to a relay server on behalf of one session.
type Client struct {
	baseURL string
	carrier string
	http    *http.Client
}

// NewClient creates a client for the relay at baseURL.
func NewClient(baseURL, carrier string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		carrier: carrier,
		http:    &http.Client{Timeout: 5 * time.Minute},
	}
}

// LoginResult is the body returned by login and register.
type LoginResult struct {
	User    domain.SessionUser `json:"user"`
	Carrier string             `json:"token"`
}

// Login mints a session and returns its carrier.
func (c *Client) Login(ctx context.Context, register bool, creds domain.Credentials) (*LoginResult, error) {
	path := "/api/auth/login"
	if register {
		path = "/api/auth/register"
	}
	var out LoginResult
	if err := c.doJSON(ctx, http.MethodPost, path, creds, &out); err != nil {
		return nil, err
	}
	c.carrier = out.Carrier
	return &out, nil
}

// Logout revokes the current session.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// Chat sends req and calls onFrame for every frame of the streamed reply.
func (c *Client) Chat(ctx context.Context, req *domain.ChatRequest, onFrame stream.FrameHandler) error {
	resp, err := c.send(ctx, http.MethodPost, "/api/chat", req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return stream.Parse(resp.Body, onFrame)
}

// ChatWS sends req over a WebSocket and calls onFrame until the stream ends.
func (c *Client) ChatWS(ctx context.Context, req *domain.ChatRequest, onFrame stream.FrameHandler) error {
	u, err := url.Parse(c.baseURL + "/api/chat/ws")
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.carrier)
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write request: %w", err)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}
		f, err := stream.Decode(data)
		if err != nil {
			return err
		}
		if err := onFrame(f); err != nil {
			return err
		}
		if f.Type == stream.FrameDone || f.Type == stream.FrameError {
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return nil
		}
	}
}

// History lists the session user's chats.
func (c *Client) History(ctx context.Context) ([]domain.Chat, error) {
	var chats []domain.Chat
	if err := c.doJSON(ctx, http.MethodGet, "/api/history", nil, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// Votes lists the votes on a chat.
func (c *Client) Votes(ctx context.Context, chatID string) ([]domain.Vote, error) {
	var votes []domain.Vote
	if err := c.doJSON(ctx, http.MethodGet, "/api/vote?chatId="+url.QueryEscape(chatID), nil, &votes); err != nil {
		return nil, err
	}
	return votes, nil
}

// Vote rates an assistant turn.
func (c *Client) Vote(ctx context.Context, req domain.VoteRequest) (*domain.Vote, error) {
	var vote domain.Vote
	if err := c.doJSON(ctx, http.MethodPatch, "/api/vote", req, &vote); err != nil {
		return nil, err
	}
	return &vote, nil
}

// DeleteChat deletes a chat owned by the session user.
func (c *Client) DeleteChat(ctx context.Context, chatID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/chat?id="+url.QueryEscape(chatID), nil, nil)
}

// Citation fetches a cited document.
func (c *Client) Citation(ctx context.Context, req domain.CitationRequest) (*domain.Evidence, error) {
	resp, err := c.send(ctx, http.MethodPost, "/api/citations", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read evidence: %w", err)
	}
	return &domain.Evidence{ContentType: resp.Header.Get("Content-Type"), Data: data}, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	resp, err := c.send(ctx, method, path, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// send performs the request and returns the response only on 2xx.
func (c *Client) send(ctx context.Context, method, path string, in any) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.carrier != "" {
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: c.carrier})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload.Error == "" {
		payload.Error = http.StatusText(resp.StatusCode)
	}
	return nil, &APIError{Status: resp.StatusCode, Message: payload.Error}
}
