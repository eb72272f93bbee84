package http

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy controls how a Fetcher retries transient failures.
// Total attempts per Fetch are 1 + MaxRetries.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// InitialDelay is the wait after the first 429 response of a call.
	InitialDelay time.Duration
	// Multiplier scales the wait after each further 429 of the same call.
	// Zero means doubling.
	Multiplier float64
	// MaxDelay caps a single 429 wait. Zero means no cap beyond the backoff default.
	MaxDelay time.Duration
	// TransientDelay is the fixed wait after a network error or timeout.
	TransientDelay time.Duration
}

// DefaultRetryPolicy returns 3 retries, 429 waits of 2s, 4s, 8s and a 1s
// wait after network errors.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     3,
		InitialDelay:   2 * time.Second,
		Multiplier:     2,
		MaxDelay:       2 * time.Minute,
		TransientDelay: 1 * time.Second,
	}
}

// rateLimitBackOff returns a fresh, jitter-free exponential schedule for
// 429 responses.
func (p RetryPolicy) rateLimitBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialDelay
	b.Multiplier = 2
	if p.Multiplier > 0 {
		b.Multiplier = p.Multiplier
	}
	if p.MaxDelay > 0 {
		b.MaxInterval = p.MaxDelay
	}
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// SleepFunc waits for d or until ctx is done, returning ctx.Err() in the
// latter case.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
