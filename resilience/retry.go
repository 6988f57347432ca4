// Package resilience provides the retry executor used for outbound gateway
// calls: a bounded attempt loop with exponential backoff that inspects
// failures as classified error values.
package resilience

import (
	"context"
	"errors"
	"time"
)

// Config configures retry behavior for one logical call.
type Config struct {
	// Enabled toggles retries. When false, exactly one attempt is made and
	// any failure is terminal.
	Enabled bool
	// MaxRetries is the number of retries after the first attempt, so the
	// total attempt budget is MaxRetries+1.
	MaxRetries int
	// BaseDelay is the wait before the second attempt. The wait before
	// attempt n is BaseDelay doubled n-2 times.
	BaseDelay time.Duration
	// MaxDelay caps the computed wait. Zero means uncapped.
	MaxDelay time.Duration
	// RetryIf reports whether a failed attempt may be retried. Defaults to
	// retrying everything except context cancellation.
	RetryIf func(error) bool
	// OnRetry is called before each wait with the upcoming attempt number,
	// the wait, and the error that triggered it.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// RetryAfterHinter is implemented by errors that carry a server-directed
// minimum wait before the next attempt. When the hint exceeds the computed
// backoff, the hint wins.
type RetryAfterHinter interface {
	RetryAfterHint() time.Duration
}

// DefaultRetryIf retries all errors except context cancellation.
func DefaultRetryIf(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Do executes fn with retry logic. On success it returns fn's result; once
// the attempt budget is exhausted it returns the last error unchanged, so
// callers keep the original classification for handling logic. A context
// error during a wait or between attempts is returned as-is.
func Do[T any](ctx context.Context, cfg Config, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	attempts := 1
	if cfg.Enabled {
		attempts = cfg.MaxRetries + 1
	}
	if attempts < 1 {
		attempts = 1
	}
	retryIf := cfg.RetryIf
	if retryIf == nil {
		retryIf = DefaultRetryIf
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := Backoff(cfg.BaseDelay, cfg.MaxDelay, attempt)
			var hinter RetryAfterHinter
			if errors.As(lastErr, &hinter) {
				if hint := hinter.RetryAfterHint(); hint > delay {
					delay = hint
				}
			}

			if cfg.OnRetry != nil {
				cfg.OnRetry(attempt, delay, lastErr)
			}

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}

		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !retryIf(err) {
			return zero, err
		}
	}

	return zero, lastErr
}

// Backoff computes the wait before the given 1-based attempt number:
// base before attempt 2, then doubling per attempt, capped at limit when
// limit is positive. Delays are monotonically non-decreasing in the
// attempt number; no jitter is applied.
func Backoff(base, limit time.Duration, attempt int) time.Duration {
	if attempt < 2 || base <= 0 {
		return 0
	}
	shift := uint(attempt - 2)
	// Beyond 62 doublings any practical base overflows int64.
	if shift > 62 {
		shift = 62
	}
	delay := base << shift
	if delay>>shift != base || delay < 0 {
		delay = time.Duration(1<<62)
	}
	if limit > 0 && delay > limit {
		delay = limit
	}
	return delay
}
