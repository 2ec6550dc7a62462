package boot

import (
	"context"
	"time"

	"github.com/sensdot/sensdot/internal/logging"
)

// Default retry policy for connection attempts: three tries with
// doubling delays of 1s and 2s between them (a third delay would be 4s,
// capped by MaxDelay).
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 1 * time.Second
	DefaultMaxDelay    = 4 * time.Second
)

// RetryPolicy is a bounded-retry combinator. Backoff is data, not
// control flow: the policy is passed around and inspected by tests
// rather than being buried inside each connect loop.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	// sleep is injectable so tests do not wait out real backoff delays
	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy returns the policy used for station and broker
// connects
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
	}
}

// Run invokes op up to MaxAttempts times, sleeping the backoff delay
// between attempts. retryable gates continuation: when it reports false
// for an attempt's error, that error is returned immediately with no
// further tries. The last error is returned when all attempts fail.
func (p RetryPolicy) Run(ctx context.Context, label string, retryable func(error) bool, op func(context.Context) error) error {
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	delay := p.BaseDelay

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, delay); err != nil {
				return err
			}
			delay *= 2
			if delay > p.MaxDelay {
				delay = p.MaxDelay
			}
		}

		err := op(ctx)
		logging.LogAttempt(label, attempt, p.MaxAttempts, err)
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err) {
			return err
		}
	}

	return lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Always is a retryable gate that retries every failure
func Always(error) bool { return true }
