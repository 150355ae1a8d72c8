package provider

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Throttler rate-limits one provider instance's outbound calls and applies
// the retry policy: RateLimited retries with exponential backoff (base 1s,
// cap 30s, 5 attempts); ProviderUnavailable and IOError retry once;
// everything else surfaces immediately.
type Throttler struct {
	limiter *rate.Limiter
}

const (
	backoffBase     = 1 * time.Second
	backoffCap      = 30 * time.Second
	backoffAttempts = 5
)

// NewThrottler builds a Throttler allowing callsPerSecond sustained calls
// with the given burst.
func NewThrottler(callsPerSecond float64, burst int) *Throttler {
	if callsPerSecond <= 0 {
		callsPerSecond = 10
	}
	if burst <= 0 {
		burst = 1
	}
	return &Throttler{limiter: rate.NewLimiter(rate.Limit(callsPerSecond), burst)}
}

// Do runs fn under the rate limit, retrying per the §7 policy. The ctx
// deadline bounds the whole sequence including backoff sleeps.
func (t *Throttler) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	retriedOnce := false
	backoff := backoffBase

	for attempt := 0; ; attempt++ {
		if err := t.limiter.Wait(ctx); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}

		switch {
		case Is(err, KindRateLimited):
			if attempt+1 >= backoffAttempts {
				return err
			}
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			backoff *= 2
			if backoff > backoffCap {
				backoff = backoffCap
			}

		case Is(err, KindProviderUnavailable), Is(err, KindIO):
			if retriedOnce {
				return err
			}
			retriedOnce = true

		default:
			return err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// WithDeadline wraps ctx with the default per-provider call deadline when
// no tighter deadline is already set.
func WithDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, CallDeadline)
}
