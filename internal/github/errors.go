// Package github reads and writes JSON documents stored as files in a GitHub
// repository through the repository contents API. Writes are guarded by the
// blob SHA of the file being replaced (optimistic concurrency): a stale SHA is
// rejected by GitHub instead of silently clobbering a concurrent edit.
package github

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tonimelisma/motolog/internal/store"
)

// Sentinel errors for HTTP status code classification.
// Use errors.Is(err, github.ErrNotFound) to check.
var (
	ErrBadRequest    = errors.New("github: bad request")
	ErrUnauthorized  = errors.New("github: unauthorized")
	ErrForbidden     = errors.New("github: forbidden")
	ErrNotFound      = errors.New("github: not found")
	ErrConflict      = errors.New("github: conflict")
	ErrUnprocessable = errors.New("github: unprocessable request")
	ErrThrottled     = errors.New("github: rate limited")
	ErrServerError   = errors.New("github: server error")
)

// Failure kinds that are not a single HTTP status.
var (
	// ErrTransport means the request never got an HTTP answer (DNS, TCP,
	// TLS, timeouts) even after retries.
	ErrTransport = errors.New("github: network failure")

	// ErrStaleRevision means a write was rejected because the file changed
	// since its revision was read.
	ErrStaleRevision = errors.New("github: document changed remotely (stale revision)")

	// ErrDecode means the stored file exists but is not base64 of UTF-8
	// JSON. It wraps store.ErrCorrupt.
	ErrDecode = fmt.Errorf("github: undecodable content: %w", store.ErrCorrupt)
)

// APIError wraps a sentinel error with the HTTP status code, GitHub request
// ID, and the server's message.
type APIError struct {
	StatusCode int
	RequestID  string
	Message    string
	Err        error // sentinel, for errors.Is()
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("github: HTTP %d (request-id: %s): %s", e.StatusCode, e.RequestID, e.Message)
	}

	return fmt.Sprintf("github: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to a sentinel error.
// Returns nil for codes without a dedicated sentinel.
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
	case http.StatusConflict:
		return ErrConflict
	case http.StatusUnprocessableEntity:
		return ErrUnprocessable
	case http.StatusTooManyRequests:
		return ErrThrottled
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		return nil
	}
}

// isRetryable reports whether the given HTTP status code should be retried.
func isRetryable(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// isStaleWrite reports whether a PUT failure means the supplied SHA did not
// match the stored file. GitHub answers 409 for a mismatched SHA and 422
// when a SHA is required but missing.
func isStaleWrite(err error) bool {
	if errors.Is(err, ErrConflict) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnprocessableEntity {
		return strings.Contains(strings.ToLower(apiErr.Message), "sha")
	}

	return false
}

// IsAuth reports whether err is an authorization failure: a bad or expired
// token, or a token lacking the needed scope.
func IsAuth(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}

// IsStale reports whether err is a rejected write due to a stale revision.
func IsStale(err error) bool {
	return errors.Is(err, ErrStaleRevision)
}

// IsDecode reports whether err means stored content could not be decoded.
func IsDecode(err error) bool {
	return errors.Is(err, ErrDecode)
}

// IsTransport reports whether err is a network-level failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}
