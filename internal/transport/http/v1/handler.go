// Package v1 provides the relay's HTTP API handlers.
package v1

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/chatrelay/internal/auth"
	"github.com/xiaot623/chatrelay/internal/domain"
	"github.com/xiaot623/chatrelay/internal/service"
)

// SessionCookie carries the signed session carrier.
const SessionCookie = auth.CookieName

// Options configures the handler.
type Options struct {
	CookieSecure bool
}

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
	opts    Options
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service, opts Options) *Handler {
	return &Handler{
		service: service,
		opts:    opts,
	}
}

// RegisterRoutes registers the API routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Session API
	e.POST("/api/auth/login", h.Login)
	e.POST("/api/auth/register", h.Register)
	e.POST("/api/auth/logout", h.Logout)
	e.GET("/api/auth/session", h.Session)

	// Chat API
	e.POST("/api/chat", h.Chat)
	e.DELETE("/api/chat", h.DeleteChat)
	e.GET("/api/chat/events", h.ChatEvents)
	e.GET("/api/history", h.History)

	// Vote API
	e.GET("/api/vote", h.GetVotes)
	e.POST("/api/vote", h.Vote)
	e.PATCH("/api/vote", h.Vote)

	// Citation API
	e.POST("/api/citations", h.Citation)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

// Carrier extracts the session carrier from the cookie or a bearer header.
func Carrier(c echo.Context) string {
	return auth.FromRequest(c.Request())
}

// requestContext returns the request context tagged with the request id.
func requestContext(c echo.Context) context.Context {
	ctx := c.Request().Context()
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return service.WithRequestID(ctx, id)
	}
	return ctx
}

func writeError(c echo.Context, err error) error {
	return c.JSON(domain.HTTPStatus(err), map[string]string{"error": domain.PublicMessage(err)})
}
