// Package apierr defines the four error kinds every upstream client
// classifies its failures into, and the retry policy that goes with each.
package apierr

import "fmt"

// APIError is a non-2xx HTTP response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.Status, truncate(e.Body, 256))
}

// Retryable is true for 5xx and the two well-known client-retry codes.
func (e *APIError) Retryable() bool {
	if e.Status >= 500 {
		return true
	}
	return e.Status == 408 || e.Status == 429
}

// ValidationError means the response body failed schema validation.
// Never retryable: retrying an unparseable response yields the same result.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %v", e.Issues)
}

func (e *ValidationError) Retryable() bool { return false }

// NetworkError wraps a transport-level failure (connection reset, DNS,
// timeout).
type NetworkError struct {
	IsTimeout bool
	Cause     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error (timeout=%v): %v", e.IsTimeout, e.Cause)
}

func (e *NetworkError) Unwrap() error { return e.Cause }

func (e *NetworkError) Retryable() bool { return true }

// RateLimitError means the upstream itself asked us to back off.
type RateLimitError struct {
	RetryAfterSec int
	ResetAtUnix   int64
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited: retry_after=%ds reset_at=%d", e.RetryAfterSec, e.ResetAtUnix)
}

func (e *RateLimitError) Retryable() bool { return true }

// Classified is implemented by every error kind above.
type Classified interface {
	error
	Retryable() bool
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
