package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRequest is the root of every remote failure: non-2xx replies and
	// unreadable bodies both match it.
	ErrRequest = errors.New("request failed")

	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("already taken")

	// ErrMalformedResponse marks a 2xx reply whose body could not be used.
	ErrMalformedResponse = fmt.Errorf("malformed server response: %w", ErrRequest)

	ErrMissingUsername = fmt.Errorf("login successful but username missing: %w", ErrMalformedResponse)
)

// APIError is a non-2xx reply. Message is the server-provided explanation
// (detail, error or message field) or a generic fallback.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

// Is lets callers match status classes with errors.Is.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrRequest:
		return true
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case ErrConflict:
		return e.Status == http.StatusConflict
	}
	return false
}
