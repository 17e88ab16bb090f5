package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
)

func TestAPIError_Unwrap(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, domain.ErrRateLimited},
		{http.StatusInternalServerError, domain.ErrTransient},
		{http.StatusBadGateway, domain.ErrTransient},
		{http.StatusServiceUnavailable, domain.ErrTransient},
		{http.StatusRequestTimeout, domain.ErrTransient},
		{529, domain.ErrTransient},
		{http.StatusUnauthorized, nil},
		{http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := &APIError{Provider: "test", StatusCode: tt.status}
			if tt.want == nil {
				assert.Nil(t, err.Unwrap())
				assert.False(t, IsRetryable(err))
				return
			}
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsRetryable(err))
		})
	}
}

func TestCheckResponse(t *testing.T) {
	ok := &http.Response{StatusCode: http.StatusOK, Header: http.Header{}}
	assert.NoError(t, CheckResponse("openai", ok, nil, ""))

	limited := &http.Response{StatusCode: http.StatusTooManyRequests, Header: http.Header{}}
	limited.Header.Set("Retry-After", "7")
	err := CheckResponse("openai", limited, []byte(" slow down \n"), "")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 7*time.Second, apiErr.RetryAfter)
	assert.Equal(t, "slow down", apiErr.Message)
	assert.Contains(t, err.Error(), "openai: API returned status 429")

	bad := &http.Response{StatusCode: http.StatusBadRequest, Header: http.Header{}}
	err = CheckResponse("anthropic", bad, []byte("raw"), "invalid model")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "invalid model", apiErr.Message)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Zero(t, parseRetryAfter(""))
	assert.Zero(t, parseRetryAfter("soon"))
	assert.Zero(t, parseRetryAfter("-3"))
	assert.Equal(t, 2*time.Second, parseRetryAfter("2"))

	future := time.Now().Add(time.Minute).UTC().Format(http.TimeFormat)
	d := parseRetryAfter(future)
	assert.Greater(t, d, 30*time.Second)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(errors.New("boom")))
	assert.False(t, IsRetryable(context.Canceled))
	assert.True(t, IsRetryable(timeoutErr{}))
	assert.True(t, IsRetryable(domain.ErrTransient))
}
