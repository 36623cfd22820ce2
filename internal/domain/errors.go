package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Relay error taxonomy. Callers wrap these with fmt.Errorf("%w: ...") to add detail.
var (
	ErrBadRequest         = errors.New("bad request")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrGatewayTimeout     = errors.New("gateway timeout")
	ErrRateLimited        = errors.New("rate limited")
	ErrStreamAborted      = errors.New("stream aborted")
	ErrMissingToken       = errors.New("backend token is required")
)

// BackendError is a non-2xx response from the chat backend.
type BackendError struct {
	Status int
	Body   string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend error [%d]: %s", e.Status, e.Body)
}

// Is lets errors.Is classify backend statuses against the sentinel errors.
func (e *BackendError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrConflict:
		return e.Status == http.StatusConflict
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case ErrGatewayTimeout:
		return e.Status == http.StatusGatewayTimeout
	}
	return false
}

// SafeBody reports whether the backend body can be shown to relay clients.
func (e *BackendError) SafeBody() bool {
	return e.Status == http.StatusNotFound || e.Status == http.StatusConflict
}

// HTTPStatus maps a relay error to an HTTP status code.
func HTTPStatus(err error) int {
	var be *BackendError
	switch {
	case errors.As(err, &be):
		if be.Status < 400 {
			return http.StatusBadGateway
		}
		return be.Status
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrGatewayTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrMissingToken):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// PublicMessage is the client-visible text for err. Backend bodies are only
// echoed when safe and server errors never expose internals.
func PublicMessage(err error) string {
	status := HTTPStatus(err)
	var be *BackendError
	switch {
	case errors.As(err, &be):
		if be.SafeBody() && be.Body != "" {
			return be.Body
		}
		return strings.ToLower(http.StatusText(status))
	case errors.Is(err, ErrBadRequest):
		return err.Error()
	case errors.Is(err, ErrInvalidCredentials):
		return ErrInvalidCredentials.Error()
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrMissingToken):
		return ErrUnauthorized.Error()
	case errors.Is(err, ErrConflict):
		return err.Error()
	case status >= 500:
		return strings.ToLower(http.StatusText(status))
	}
	return err.Error()
}
