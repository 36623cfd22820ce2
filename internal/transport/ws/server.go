// Package ws relays chat frames over WebSocket connections.
package ws

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/xiaot623/chatrelay/internal/auth"
	"github.com/xiaot623/chatrelay/internal/config"
	"github.com/xiaot623/chatrelay/internal/domain"
	"github.com/xiaot623/chatrelay/internal/metrics"
	"github.com/xiaot623/chatrelay/internal/service"
	"github.com/xiaot623/chatrelay/internal/stream"
)

// Server handles WebSocket connections.
type Server struct {
	cfg      *config.Config
	service  *service.Service
	logger   zerolog.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a new WebSocket server.
func NewServer(cfg *config.Config, svc *service.Service, logger zerolog.Logger) *Server {
	return &Server{
		cfg:     cfg,
		service: svc,
		logger:  logger.With().Str("component", "ws").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// RegisterRoutes registers the upgrade route.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/chat/ws", s.HandleWebSocket)
}

// connection is one upgraded client. Writes are serialized by mu; pings go
// through WriteControl, which is safe alongside them.
type connection struct {
	conn    *websocket.Conn
	carrier string
	mu      sync.Mutex
	timeout time.Duration
}

func (c *connection) writeText(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WriteFrame sends one frame per text message, without the line terminator.
func (c *connection) WriteFrame(line []byte) error {
	return c.writeText(bytes.TrimSuffix(line, []byte("\n")))
}

// HandleWebSocket authenticates and upgrades the connection. Requests
// without a valid session are rejected before the upgrade.
func (s *Server) HandleWebSocket(c echo.Context) error {
	carrier := auth.FromRequest(c.Request())
	if _, err := s.service.ResolveSession(c.Request().Context(), carrier); err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": domain.ErrUnauthorized.Error()})
	}

	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to upgrade websocket")
		return nil
	}

	conn := &connection{conn: ws, carrier: carrier, timeout: s.cfg.WSWriteTimeout}
	ws.SetReadLimit(s.cfg.WSMaxMessageSize)

	metrics.WSConnections.Inc()
	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request().Context()))
	go s.pingPump(ctx, conn)
	go func() {
		defer func() {
			cancel()
			ws.Close()
			metrics.WSConnections.Dec()
		}()
		s.readPump(ctx, conn)
	}()

	return nil
}

// readPump serves chat requests one at a time so frames never interleave.
func (s *Server) readPump(ctx context.Context, conn *connection) {
	extend := func() {
		conn.conn.SetReadDeadline(time.Now().Add(s.cfg.WSReadTimeout))
	}
	extend()
	conn.conn.SetPongHandler(func(string) error {
		extend()
		return nil
	})

	for {
		_, message, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Warn().Err(err).Msg("websocket read error")
			}
			return
		}

		s.handleMessage(ctx, conn, message)
		extend()
	}
}

// pingPump keeps the connection alive until ctx ends.
func (s *Server) pingPump(ctx context.Context, conn *connection) {
	ticker := time.NewTicker(s.cfg.WSPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(s.cfg.WSWriteTimeout)
			if err := conn.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// handleMessage relays one chat request. Errors raised before streaming are
// reported as a single error frame.
func (s *Server) handleMessage(ctx context.Context, conn *connection, data []byte) {
	reqCtx := service.WithRequestID(ctx, uuid.NewString())

	var req domain.ChatRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendError(conn, "invalid request body")
		return
	}

	err := s.service.RelayChat(reqCtx, conn.carrier, &req, func() (stream.Sink, error) {
		return conn, nil
	})
	if err != nil {
		s.sendError(conn, domain.PublicMessage(err))
	}
}

func (s *Server) sendError(conn *connection, message string) {
	line, err := stream.Encode(stream.Error(message))
	if err != nil {
		return
	}
	if err := conn.WriteFrame(line); err != nil {
		s.logger.Debug().Err(err).Msg("failed to send error frame")
	}
}
