package provider

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrMissingCredential is returned when the secret store has no API key.
	ErrMissingCredential = errors.New("missing credential")
	// ErrEmptyResponse is returned when the vendor answered without usable content.
	ErrEmptyResponse = errors.New("empty response")
	// ErrInvalidConfig is returned when a provider cannot be constructed.
	ErrInvalidConfig = errors.New("invalid provider configuration")
)

// HTTPError is a non-2xx vendor response other than 429.
type HTTPError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.StatusCode, e.Message)
}

// RateLimitError is an HTTP 429 from the vendor. The reset hints are copied
// verbatim from the response headers or error payload when present.
type RateLimitError struct {
	Provider      string
	Message       string
	RetryAfter    string
	ResetRequests string
	ResetTokens   string
}

func (e *RateLimitError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s rate limit exceeded (%d)", e.Provider, http.StatusTooManyRequests)
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	if e.RetryAfter != "" {
		fmt.Fprintf(&sb, "; retry after %s", e.RetryAfter)
	}
	if e.ResetRequests != "" {
		fmt.Fprintf(&sb, "; request limit resets in %s", e.ResetRequests)
	}
	if e.ResetTokens != "" {
		fmt.Fprintf(&sb, "; token limit resets in %s", e.ResetTokens)
	}
	return sb.String()
}

// StatusCode is always 429.
func (e *RateLimitError) StatusCode() int { return http.StatusTooManyRequests }

// IsRateLimited reports whether err is, or wraps, a RateLimitError.
func IsRateLimited(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

func missingCredential(displayName, key string) error {
	return fmt.Errorf("%w: %s API key is not configured (secret %q)", ErrMissingCredential, displayName, key)
}
