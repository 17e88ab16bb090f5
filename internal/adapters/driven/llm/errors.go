package llm

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
)

// statusOverloaded is Anthropic's non-standard "overloaded" status.
const statusOverloaded = 529

// maxErrorBody bounds how much of a response body ends up in an error message.
const maxErrorBody = 512

// APIError is a non-success response from a completion API.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string

	// RetryAfter is the server's Retry-After hint. Zero when absent.
	RetryAfter time.Duration
}

// Error implements error.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: API returned status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// Unwrap maps the status to domain.ErrRateLimited or domain.ErrTransient.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case e.StatusCode == http.StatusRequestTimeout,
		e.StatusCode == statusOverloaded,
		e.StatusCode >= 500:
		return domain.ErrTransient
	default:
		return nil
	}
}

// CheckResponse returns an *APIError for any non-2xx response.
// message is the provider's own error text when it could be decoded.
func CheckResponse(provider string, resp *http.Response, body []byte, message string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if message == "" {
		message = strings.TrimSpace(string(body))
		if len(message) > maxErrorBody {
			message = message[:maxErrorBody]
		}
	}
	return &APIError{
		Provider:   provider,
		StatusCode: resp.StatusCode,
		Message:    message,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}
}

// parseRetryAfter reads a Retry-After header in seconds or HTTP-date form.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// IsRetryable reports whether err is worth another attempt: rate limits,
// transient upstream failures and network timeouts.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domain.ErrRateLimited) || errors.Is(err, domain.ErrTransient) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
