package source

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Option configures a Store.
type Option func(*cacheStore)

// WithTTL sets the snapshot validity window.
func WithTTL(ttl time.Duration) Option {
	return func(s *cacheStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithRetry sets the bounded retry policy for upstream fetches.
func WithRetry(maxAttempts int, baseDelay time.Duration, factor float64) Option {
	return func(s *cacheStore) {
		if maxAttempts > 0 {
			s.maxAttempts = maxAttempts
		}
		if baseDelay > 0 {
			s.baseDelay = baseDelay
		}
		if factor >= 1 {
			s.backoffFactor = factor
		}
	}
}

// WithFetchRate sets the per-source rate limit on upstream fetches.
func WithFetchRate(r rate.Limit, burst int) Option {
	return func(s *cacheStore) {
		if r > 0 {
			s.fetchRate = r
		}
		if burst > 0 {
			s.fetchBurst = burst
		}
	}
}

// WithClock injects the time source. Tests use this to expire entries
// without waiting.
func WithClock(now func() time.Time) Option {
	return func(s *cacheStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSleeper injects the backoff sleep function. Tests use this to run
// retries without real delays.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *cacheStore) {
		if sleep != nil {
			s.sleep = sleep
		}
	}
}

// WithJitter injects the jitter source for backoff delays. The function
// must return values in [0,1).
func WithJitter(jitter func() float64) Option {
	return func(s *cacheStore) {
		s.jitter = jitter
	}
}
