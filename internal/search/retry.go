package search

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"
)

// RetryPolicy configures exponential backoff for backend requests.
type RetryPolicy struct {
	// MaxAttempts includes the first attempt. Zero means no upper bound;
	// only context cancellation ends the loop then.
	MaxAttempts int
	// BaseBackoff is the wait before the first retry. It doubles per retry.
	BaseBackoff time.Duration
	// MaxBackoff caps the doubled backoff. Zero means uncapped.
	MaxBackoff time.Duration
	// MaxJitter bounds the uniform random jitter added to each wait.
	MaxJitter time.Duration
	// ProportionalJitter draws jitter from [0, backoff) instead of [0, MaxJitter).
	ProportionalJitter bool
}

// DuckDuckGoRetry is used for transport failures against the HTML endpoint.
var DuckDuckGoRetry = RetryPolicy{
	MaxAttempts: 3,
	BaseBackoff: time.Second,
	MaxBackoff:  30 * time.Second,
	MaxJitter:   time.Second,
}

// SerpAPIRateLimitRetry keeps retrying on rate limits until ctx is done.
var SerpAPIRateLimitRetry = RetryPolicy{
	MaxAttempts:        0,
	BaseBackoff:        2 * time.Second,
	MaxBackoff:         120 * time.Second,
	ProportionalJitter: true,
}

func (p RetryPolicy) next(backoff time.Duration) time.Duration {
	backoff *= 2
	if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
		backoff = p.MaxBackoff
	}
	return backoff
}

func (p RetryPolicy) jitter(backoff time.Duration) time.Duration {
	limit := p.MaxJitter
	if p.ProportionalJitter {
		limit = backoff
	}
	if limit <= 0 {
		return 0
	}
	return rand.N(limit)
}

// retry runs fn until it succeeds, returns a non-retryable error, the policy
// runs out of attempts or ctx is done. It returns the attempts made.
func retry[T any](ctx context.Context, p RetryPolicy, backend string, isRetryable func(error) bool, fn func() (T, error)) (T, int, error) {
	var zero T
	backoff := p.BaseBackoff
	for attempt := 1; ; attempt++ {
		result, err := fn()
		if err == nil {
			return result, attempt, nil
		}
		if !isRetryable(err) {
			return zero, attempt, err
		}
		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return zero, attempt, err
		}

		wait := backoff + p.jitter(backoff)
		log.Warn().Err(err).Str("backend", backend).Int("attempt", attempt).Dur("wait", wait).Msg("search request failed, retrying")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, attempt, ctx.Err()
		case <-timer.C:
		}
		backoff = p.next(backoff)
	}
}
