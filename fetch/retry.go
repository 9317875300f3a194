package fetch

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net/http"
	"time"
)

// RetryPolicy retries transient fetch failures with backoff. Timeouts and
// 5xx or 429 responses are transient; other failures are returned at once.
type RetryPolicy struct {
	// MaxAttempts is the maximum number of attempts, the first included.
	// Zero or one disables retries.
	MaxAttempts int

	// InitialDelay is the delay before the first retry.
	// Default: 100ms
	InitialDelay time.Duration

	// MaxDelay caps the delay between retries.
	// Default: 5s
	MaxDelay time.Duration

	// Multiplier grows the delay after each retry.
	// Default: 2.0
	Multiplier float64

	// Jitter adds up to 25% random delay to each wait.
	Jitter bool
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = 100 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 5 * time.Second
	}
	if p.Multiplier <= 0 {
		p.Multiplier = 2.0
	}
	return p
}

// do runs op until it succeeds, fails permanently, runs out of attempts or
// ctx is done. onRetry, when set, runs before each wait.
func (p RetryPolicy) do(ctx context.Context, op func(context.Context) error, onRetry func(attempt int, err error, delay time.Duration)) error {
	p = p.withDefaults()

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err) || attempt >= p.MaxAttempts {
			break
		}

		delay := p.delay(attempt)
		if onRetry != nil {
			onRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}
	return lastErr
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	delay := time.Duration(float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt-1)))
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	if p.Jitter && delay >= 4 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		delay += time.Duration(rand.Int64N(int64(delay / 4)))
	}
	return delay
}

func retryable(err error) bool {
	var fe *Error
	if !errors.As(err, &fe) {
		return false
	}
	switch fe.Kind {
	case KindTimeout:
		return true
	case KindClient:
		return fe.StatusCode >= http.StatusInternalServerError || fe.StatusCode == http.StatusTooManyRequests
	default:
		return false
	}
}
