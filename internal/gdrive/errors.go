// Package gdrive is a thin adapter over the Google Drive v3 API, scoped to
// the handful of calls the sharing monitor needs: changed-file listing,
// permission inspection and deletion, parent lookup, and probe-file
// lifecycle. It does not retry — the monitor treats every provider failure
// as transient and revisits it on the next poll cycle.
package gdrive

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// Sentinel errors for provider status classification.
// Use errors.Is(err, gdrive.ErrNotFound) to check.
var (
	ErrBadRequest   = errors.New("gdrive: bad request")
	ErrUnauthorized = errors.New("gdrive: unauthorized")
	ErrForbidden    = errors.New("gdrive: forbidden")
	ErrNotFound     = errors.New("gdrive: not found")
	ErrThrottled    = errors.New("gdrive: rate limited")
	ErrServerError  = errors.New("gdrive: server error")

	// ErrNotLoggedIn is returned when no credential store exists.
	ErrNotLoggedIn = errors.New("gdrive: not logged in")
)

// APIError wraps a sentinel with the failed operation, HTTP status code,
// and the provider's error message for debugging.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error // sentinel, for errors.Is()
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gdrive: %s: HTTP %d: %s", e.Op, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to a sentinel error.
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrThrottled
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		return nil
	}
}

// wrapErr converts a Drive client error into an APIError when the provider
// returned a status code, and otherwise wraps it with the operation name
// (network failures, context cancellation).
func wrapErr(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &APIError{
			Op:         op,
			StatusCode: gerr.Code,
			Message:    gerr.Message,
			Err:        classifyStatus(gerr.Code),
		}
	}

	return fmt.Errorf("gdrive: %s: %w", op, err)
}
