package azdo

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized is wrapped by API errors with status 401 or 403.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is wrapped by API errors with status 404.
	ErrNotFound = errors.New("not found")
	// ErrTokenExpired is returned before sending a request with an expired JWT.
	ErrTokenExpired = errors.New("access token expired")
)

// APIError is a non-2xx response from Azure DevOps.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("azure devops returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("azure devops returned status %d", e.StatusCode)
}

// Unwrap maps well-known status codes onto sentinel errors.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return nil
	}
}
