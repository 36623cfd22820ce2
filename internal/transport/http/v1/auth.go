package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/chatrelay/internal/domain"
	"github.com/xiaot623/chatrelay/internal/service"
)

// sessionResponse is returned by login and register.
type sessionResponse struct {
	User    *domain.ChatSession `json:"user"`
	Carrier string              `json:"token"`
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(c echo.Context) error {
	return h.mint(c, service.MintLogin, http.StatusOK)
}

// Register handles POST /api/auth/register.
func (h *Handler) Register(c echo.Context) error {
	return h.mint(c, service.MintRegister, http.StatusCreated)
}

func (h *Handler) mint(c echo.Context, kind service.MintKind, status int) error {
	var creds domain.Credentials
	if err := c.Bind(&creds); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	session, carrier, err := h.service.Mint(requestContext(c), kind, creds)
	if err != nil {
		return writeError(c, err)
	}

	c.SetCookie(h.sessionCookie(carrier, session.ExpiresAt()))
	return c.JSON(status, sessionResponse{User: session, Carrier: carrier})
}

// Logout handles POST /api/auth/logout.
func (h *Handler) Logout(c echo.Context) error {
	if err := h.service.Revoke(requestContext(c), Carrier(c)); err != nil {
		return writeError(c, err)
	}
	cookie := h.sessionCookie("", time.Unix(0, 0))
	cookie.MaxAge = -1
	c.SetCookie(cookie)
	return c.JSON(http.StatusOK, map[string]string{"status": "logged_out"})
}

// Session handles GET /api/auth/session.
func (h *Handler) Session(c echo.Context) error {
	session, err := h.service.ResolveSession(requestContext(c), Carrier(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"user": session})
}

func (h *Handler) sessionCookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
