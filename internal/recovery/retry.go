package recovery

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryOptions configures WithRetry.
type RetryOptions struct {
	MaxAttempts       int           // Total attempts including the first (default 3)
	InitialDelay      time.Duration // Delay before the first retry (default 1s)
	BackoffMultiplier float64       // Delay growth factor between retries (default 2.0)
	MaxDelay          time.Duration // Cap on the inter-attempt delay (default 10s)

	// ShouldRetry, when set, replaces the classified error's Retryable flag
	// as the retry decision.
	ShouldRetry func(err error) bool
}

// DefaultRetryOptions returns the default retry configuration.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxAttempts:       3,
		InitialDelay:      time.Second,
		BackoffMultiplier: 2.0,
		MaxDelay:          10 * time.Second,
	}
}

func (o RetryOptions) withDefaults() RetryOptions {
	d := DefaultRetryOptions()
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = d.MaxAttempts
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = d.InitialDelay
	}
	if o.BackoffMultiplier <= 0 {
		o.BackoffMultiplier = d.BackoffMultiplier
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = d.MaxDelay
	}
	return o
}

// WithRetry runs op up to MaxAttempts times, sleeping between attempts with
// exponential backoff: the delay starts at InitialDelay and grows by
// BackoffMultiplier, capped at MaxDelay. Retrying stops immediately when the
// failure is not retryable (per ShouldRetry if set, otherwise the classified
// error's Retryable flag) or when ctx is cancelled. The last failure's error
// is returned after attempts are exhausted.
func WithRetry[T any](ctx context.Context, op func(ctx context.Context) (T, error), opts RetryOptions) (T, error) {
	opts = opts.withDefaults()

	var result T
	attempt := 0

	operation := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}

		attempt++
		v, err := op(ctx)
		if err == nil {
			result = v
			return nil
		}

		retryable := IsRetryable(err)
		if opts.ShouldRetry != nil {
			retryable = opts.ShouldRetry(err)
		}
		if !retryable {
			return backoff.Permanent(err)
		}
		return err
	}

	// RandomizationFactor is zeroed so the delay sequence is exactly
	// min(delay*multiplier, maxDelay) each step.
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = opts.InitialDelay
	policy.MaxInterval = opts.MaxDelay
	policy.MaxElapsedTime = 0
	policy.Multiplier = opts.BackoffMultiplier
	policy.RandomizationFactor = 0

	wrapped := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(opts.MaxAttempts-1)), ctx)

	err := backoff.Retry(operation, wrapped)
	return result, err
}

// AttemptRecovery runs primary; on failure it tries each fallback strictly in
// order and returns the first success. When every operation fails, the
// PRIMARY's error is returned — fallback errors are discarded.
func AttemptRecovery[T any](ctx context.Context, primary func(ctx context.Context) (T, error), fallbacks ...func(ctx context.Context) (T, error)) (T, error) {
	v, primaryErr := primary(ctx)
	if primaryErr == nil {
		return v, nil
	}

	for _, fb := range fallbacks {
		if err := ctx.Err(); err != nil {
			break
		}
		if v, err := fb(ctx); err == nil {
			return v, nil
		}
	}

	var zero T
	return zero, primaryErr
}
