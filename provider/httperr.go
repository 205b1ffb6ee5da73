package provider

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

const maxErrorBody = 300

// DecodeHTTPError turns a non-2xx vendor answer into a readable error.
// HTTP 429 becomes a *RateLimitError carrying the reset hints, anything else
// an *HTTPError.
func DecodeHTTPError(providerName string, resp *http.Response, body []byte) error {
	err := VendorError(providerName, resp.StatusCode, resp.Header, ErrorMessage(body))
	if rl, ok := err.(*RateLimitError); ok && rl.RetryAfter == "" {
		// Gemini reports the delay in a google.rpc.RetryInfo detail
		rl.RetryAfter = retryDelay(body)
	}
	return err
}

// VendorError builds the error for a failed vendor call from its status,
// headers and already extracted message.
func VendorError(providerName string, statusCode int, header http.Header, msg string) error {
	if msg == "" {
		msg = http.StatusText(statusCode)
	}
	if statusCode != http.StatusTooManyRequests {
		return &HTTPError{
			Provider:   providerName,
			StatusCode: statusCode,
			Message:    msg,
		}
	}

	if header == nil {
		header = http.Header{}
	}
	rl := &RateLimitError{
		Provider:      providerName,
		Message:       msg,
		RetryAfter:    header.Get("Retry-After"),
		ResetRequests: header.Get("X-RateLimit-Reset-Requests"),
		ResetTokens:   header.Get("X-RateLimit-Reset-Tokens"),
	}
	if rl.ResetRequests == "" {
		rl.ResetRequests = header.Get("X-RateLimit-Reset")
	}
	return rl
}

// ErrorMessage extracts the human readable message from a vendor error body.
// It understands {"error":{"message":..}}, {"error":"..."} and {"message":..};
// anything else is returned trimmed and truncated.
func ErrorMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if gjson.ValidBytes(body) {
		for _, path := range []string{"error.message", "message", "error"} {
			if v := gjson.GetBytes(body, path); v.Type == gjson.String && v.String() != "" {
				return v.String()
			}
		}
	}
	msg := strings.TrimSpace(string(body))
	return truncate(msg, maxErrorBody)
}

// truncate cuts s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func retryDelay(body []byte) string {
	var delay string
	gjson.GetBytes(body, "error.details").ForEach(func(_, detail gjson.Result) bool {
		delay = detail.Get("retryDelay").String()
		return delay == ""
	})
	return delay
}
