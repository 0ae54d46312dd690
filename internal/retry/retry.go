// Package retry applies the per-file retry/backoff policy around remote calls.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"

	"github.com/SirHooke/debias-batch-processor/internal/debias"
)

type Options struct {
	// MaxRetries is the number of extra attempts after the first, so a value
	// of N allows N+1 attempts in total.
	MaxRetries int

	// RequestTimeout bounds each individual attempt. <=0 disables.
	RequestTimeout time.Duration

	// BackoffInitial is the sleep before the first retry.
	BackoffInitial time.Duration
	// BackoffMax caps exponential backoff.
	BackoffMax time.Duration
	// BackoffJitterFrac applies +/- jitter to backoff sleeps (0.2 = +/-20%).
	BackoffJitterFrac float64

	// Limiter, when set, gates every attempt. Shared across files so retries
	// and fresh calls drain the same budget.
	Limiter *rate.Limiter

	// Sleep overrides the backoff wait. Tests use this; nil means real timers.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (o Options) withDefaults() Options {
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.BackoffInitial <= 0 {
		o.BackoffInitial = 500 * time.Millisecond
	}
	if o.BackoffMax <= 0 {
		o.BackoffMax = 30 * time.Second
	}
	if o.Sleep == nil {
		o.Sleep = sleepTimer
	}
	return o
}

// Invoke runs op until it succeeds, fails permanently, or the retry budget is
// exhausted. Retryable failures (transient, throttled) wait with exponential
// backoff between attempts; a permanent failure propagates immediately. After
// the last allowed attempt fails the error is a *debias.RetriesExhaustedError
// wrapping the final failure.
func Invoke[T any](ctx context.Context, op func(context.Context) (T, error), opts Options) (T, error) {
	opts = opts.withDefaults()

	var zero T
	attempts := opts.MaxRetries + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		if opts.Limiter != nil {
			if err := opts.Limiter.Wait(ctx); err != nil {
				return zero, err
			}
		}

		attemptCtx := ctx
		var cancel context.CancelFunc
		if opts.RequestTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, opts.RequestTimeout)
		}
		out, err := op(attemptCtx)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return out, nil
		}
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if !debias.IsRetryable(err) {
			return zero, err
		}
		lastErr = err

		if attempt == attempts-1 {
			break
		}
		sleep := backoffSleep(opts.BackoffInitial, opts.BackoffMax, opts.BackoffJitterFrac, attempt)
		if err := opts.Sleep(ctx, sleep); err != nil {
			return zero, err
		}
	}
	return zero, &debias.RetriesExhaustedError{Attempts: attempts, Last: lastErr}
}

func sleepTimer(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func backoffSleep(initial, max time.Duration, jitterFrac float64, attempt int) time.Duration {
	sleep := initial
	for i := 0; i < attempt && sleep < max; i++ {
		sleep *= 2
		if sleep > max {
			sleep = max
			break
		}
	}
	if jitterFrac <= 0 {
		return sleep
	}
	// Apply +/- jitterFrac.
	j := 1 + (rand.Float64()*2-1)*jitterFrac
	return time.Duration(float64(sleep) * j)
}
