package providers

import (
	"fmt"
	"time"
)

// BackendError is a general upstream failure: a non-2xx status or an
// exhausted retry budget.
type BackendError struct {
	// Backend is the name of the backend that failed.
	Backend string

	// StatusCode is the HTTP status code, 0 when not applicable.
	StatusCode int

	// Message is the upstream error body or a description of the failure.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *BackendError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("backend %q error (status %d): %s", e.Backend, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend %q error: %s", e.Backend, e.Message)
}

func (e *BackendError) Unwrap() error {
	return e.Cause
}

// AuthError means the backend rejected the configured credentials (401/403).
// Never retried.
type AuthError struct {
	Backend string
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("backend %q authentication failed: %s", e.Backend, e.Message)
}

// RateLimitError means the backend returned 429. RetryAfter carries the
// upstream's hint when present.
type RateLimitError struct {
	Backend    string
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("backend %q rate limit exceeded (retry after %s): %s",
			e.Backend, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("backend %q rate limit exceeded: %s", e.Backend, e.Message)
}

// TimeoutError means the request exceeded the configured timeout or the
// caller's context deadline.
type TimeoutError struct {
	Backend string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("backend %q request timeout after %s", e.Backend, e.Timeout)
}

// ParseError means the backend returned a response the adapter could not
// decode.
type ParseError struct {
	Backend     string
	RawResponse string
	Cause       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("backend %q response parse error: %v", e.Backend, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
