package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/ports/driven"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/logger"
)

// Ensure Retrying implements the interface.
var _ driven.TextCompletionProvider = (*Retrying)(nil)

// Retrying decorates a provider with request throttling and bounded
// exponential backoff on rate limits and transient failures.
type Retrying struct {
	inner   driven.TextCompletionProvider
	retry   domain.RetrySettings
	limiter *rate.Limiter
	sleep   func(ctx context.Context, d time.Duration) error
	jitter  func(d time.Duration) time.Duration
}

// RetryingOption configures a Retrying provider.
type RetryingOption func(*Retrying)

// WithSleep replaces the backoff sleep. Used by tests.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) RetryingOption {
	return func(r *Retrying) { r.sleep = fn }
}

// WithJitter replaces the backoff jitter. Used by tests.
func WithJitter(fn func(d time.Duration) time.Duration) RetryingOption {
	return func(r *Retrying) { r.jitter = fn }
}

// NewRetrying wraps inner. requestsPerSecond <= 0 disables throttling and
// MaxAttempts < 1 is treated as a single attempt.
func NewRetrying(
	inner driven.TextCompletionProvider,
	retry domain.RetrySettings,
	requestsPerSecond float64,
	opts ...RetryingOption,
) *Retrying {
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}
	r := &Retrying{
		inner:  inner,
		retry:  retry,
		sleep:  sleepCtx,
		jitter: fullJitter,
	}
	if requestsPerSecond > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Complete implements driven.TextCompletionProvider.
func (r *Retrying) Complete(
	ctx context.Context,
	prompt string,
	opts driven.CompletionOptions,
) (driven.Completion, error) {
	var out driven.Completion
	err := r.do(ctx, "complete", func() error {
		var err error
		out, err = r.inner.Complete(ctx, prompt, opts)
		return err
	})
	return out, err
}

// CompleteJSON implements driven.TextCompletionProvider.
func (r *Retrying) CompleteJSON(
	ctx context.Context,
	prompt, schema string,
	opts driven.CompletionOptions,
) (driven.JSONCompletion, error) {
	var out driven.JSONCompletion
	err := r.do(ctx, "complete json", func() error {
		var err error
		out, err = r.inner.CompleteJSON(ctx, prompt, schema, opts)
		return err
	})
	return out, err
}

// ModelName implements driven.TextCompletionProvider.
func (r *Retrying) ModelName() string {
	return r.inner.ModelName()
}

// Ping is not retried.
func (r *Retrying) Ping(ctx context.Context) error {
	return r.inner.Ping(ctx)
}

// Close implements driven.TextCompletionProvider.
func (r *Retrying) Close() error {
	return r.inner.Close()
}

func (r *Retrying) do(ctx context.Context, op string, call func() error) error {
	var err error
	for attempt := 1; attempt <= r.retry.MaxAttempts; attempt++ {
		if r.limiter != nil {
			if werr := r.limiter.Wait(ctx); werr != nil {
				return werr
			}
		}

		err = call()
		if err == nil || !IsRetryable(err) || attempt == r.retry.MaxAttempts {
			return err
		}

		delay := r.backoff(attempt, err)
		logger.Debug("llm: %s attempt %d/%d failed (%v), retrying in %s",
			op, attempt, r.retry.MaxAttempts, err, delay)
		if serr := r.sleep(ctx, delay); serr != nil {
			return serr
		}
	}
	return err
}

// backoff returns the wait before attempt+1: base*2^(attempt-1) with jitter,
// capped at MaxDelay. Without a MaxDelay the doubling stops short of
// overflow. A longer server Retry-After hint wins.
func (r *Retrying) backoff(attempt int, err error) time.Duration {
	delay := r.retry.BaseDelay
	for i := 1; i < attempt; i++ {
		if r.retry.MaxDelay > 0 && delay >= r.retry.MaxDelay {
			break
		}
		if delay > math.MaxInt64/2 {
			break
		}
		delay *= 2
	}
	if r.retry.MaxDelay > 0 && delay > r.retry.MaxDelay {
		delay = r.retry.MaxDelay
	}
	if delay <= 0 {
		delay = r.retry.BaseDelay
	}
	delay = r.jitter(delay)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > delay {
		delay = apiErr.RetryAfter
		if r.retry.MaxDelay > 0 && delay > r.retry.MaxDelay {
			delay = r.retry.MaxDelay
		}
	}
	return delay
}

// fullJitter picks a delay in [d/2, d].
func fullJitter(d time.Duration) time.Duration {
	if d <= 1 {
		return d
	}
	half := d / 2
	return half + time.Duration(rand.Int64N(int64(d-half)+1))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
