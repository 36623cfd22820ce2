package auth

import (
	"net/http"
	"strings"
)

// CookieName is the cookie that carries the session carrier.
const CookieName = "relay_session"

// FromRequest extracts the carrier from the session cookie, falling back to
// an Authorization bearer header. It returns "" when neither is present.
func FromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
