package arangorest

import (
	"context"
	"math/rand/v2"
	"time"
)

// RetryConfig configures Retry with exponential backoff.
// The client never retries on its own; Retry is for callers that know an
// operation is idempotent.
type RetryConfig struct {
	MaxRetries     int           // Maximum number of retries (0 = no retries)
	InitialBackoff time.Duration // Initial backoff duration
	MaxBackoff     time.Duration // Maximum backoff duration
	Multiplier     float64       // Backoff multiplier (e.g., 2.0 for doubling)
	JitterFactor   float64       // Jitter factor (0.0-1.0)

	// Retryable decides whether an error is worth another attempt.
	// Defaults to IsRetryable.
	Retryable func(error) bool
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		Multiplier:     2.0,
		JitterFactor:   0.2,
	}
}

// NoRetry returns a config that disables retries.
func NoRetry() RetryConfig {
	return RetryConfig{MaxRetries: 0}
}

// backoff returns the wait before retry number attempt (1-based).
func (c RetryConfig) backoff(attempt int) time.Duration {
	d := float64(c.InitialBackoff)
	for i := 1; i < attempt; i++ {
		d *= c.Multiplier
	}
	if c.MaxBackoff > 0 && d > float64(c.MaxBackoff) {
		d = float64(c.MaxBackoff)
	}
	if c.JitterFactor > 0 {
		d += (rand.Float64()*2 - 1) * c.JitterFactor * d
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}

// Retry calls fn until it succeeds, returns a non-retryable error, the
// retry budget is spent or ctx is done.
//
// Example:
//
//	version, err := arangorest.Retry(ctx, arangorest.DefaultRetryConfig(),
//	    func(ctx context.Context) (*arangorest.Response, error) {
//	        return client.Get(ctx, "/_api/version")
//	    })
func Retry[T any](ctx context.Context, config RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	retryable := config.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}

	var zero T
	for attempt := 1; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if attempt > config.MaxRetries || !retryable(err) {
			return zero, err
		}

		timer := time.NewTimer(config.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}
