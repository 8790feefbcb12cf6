package source

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/okian/trundler/internal/domain/model"
	"github.com/okian/trundler/pkg/logger"
	"github.com/okian/trundler/pkg/metrics"
)

// Store is a read-through TTL cache over Providers. Concurrent misses on
// the same (source, player) key coalesce into one upstream fetch.
type Store interface {
	// GetOrFetch returns the cached snapshot when fresh, otherwise fetches
	// through the provider with bounded retry. On fetch failure a stale
	// snapshot is served if one exists; otherwise ErrNoData.
	GetOrFetch(ctx context.Context, p Provider, playerID string) (model.SourceSnapshot, error)
	// Refresh bypasses the freshness check and fetches through the
	// provider, replacing the cached entry on success.
	Refresh(ctx context.Context, p Provider, playerID string) (model.SourceSnapshot, error)
	// Invalidate forces the next GetOrFetch for the key to re-fetch.
	Invalidate(sourceID, playerID string)
	// InvalidatePlayer drops every cached snapshot for a player.
	InvalidatePlayer(playerID string)
	// Stats reports cache counters for the stats endpoint.
	Stats() Stats
}

// Stats is a point-in-time view of the cache counters.
type Stats struct {
	Entries     int   `json:"entries"`
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	StaleServed int64 `json:"stale_served"`
	Coalesced   int64 `json:"coalesced"`
}

// Default store parameters.
const (
	defaultTTL           = time.Hour
	defaultMaxAttempts   = 3
	defaultBaseDelay     = time.Second
	defaultBackoffFactor = 2.0
	defaultJitterFrac    = 0.25
	defaultFetchRate     = rate.Limit(5)
	defaultFetchBurst    = 2
)

type entry struct {
	snapshot model.SourceSnapshot
	storedAt time.Time
}

// cacheStore is the in-memory Store implementation.
type cacheStore struct {
	mu      sync.RWMutex
	entries map[string]entry

	ttl time.Duration

	maxAttempts   int
	baseDelay     time.Duration
	backoffFactor float64
	jitterFrac    float64

	fetchRate  rate.Limit
	fetchBurst int

	// now, sleep and jitter are injectable so retry and TTL behaviour is
	// testable without real time passing.
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64

	flight singleflight.Group

	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter
	breakers  map[string]*gobreaker.CircuitBreaker

	hits        int64
	misses      int64
	staleServed int64
	coalesced   int64

	log logger.Logger
}

// NewStore creates a Store with the default TTL and retry policy.
func NewStore(opts ...Option) Store {
	s := &cacheStore{
		entries:       make(map[string]entry),
		ttl:           defaultTTL,
		maxAttempts:   defaultMaxAttempts,
		baseDelay:     defaultBaseDelay,
		backoffFactor: defaultBackoffFactor,
		jitterFrac:    defaultJitterFrac,
		fetchRate:     defaultFetchRate,
		fetchBurst:    defaultFetchBurst,
		now:           time.Now,
		sleep:         sleepCtx,
		jitter:        rand.Float64,
		limiters:      make(map[string]*rate.Limiter),
		breakers:      make(map[string]*gobreaker.CircuitBreaker),
		log:           logger.Named("source-store"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func cacheKey(sourceID, playerID string) string {
	return sourceID + "/" + playerID
}

// GetOrFetch implements Store.
func (s *cacheStore) GetOrFetch(ctx context.Context, p Provider, playerID string) (model.SourceSnapshot, error) {
	key := cacheKey(p.ID(), playerID)

	if snap, ok := s.fresh(key); ok {
		s.mu.Lock()
		s.hits++
		s.mu.Unlock()
		metrics.RecordCacheHit()
		return snap, nil
	}

	v, err, shared := s.flight.Do(key, func() (interface{}, error) {
		// A concurrent flight may have refilled the entry between our
		// freshness check and entering the flight.
		if snap, ok := s.fresh(key); ok {
			return snap, nil
		}

		s.mu.Lock()
		s.misses++
		s.mu.Unlock()
		metrics.RecordCacheMiss()

		snap, fetchErr := s.fetchWithRetry(ctx, p, playerID)
		if fetchErr != nil {
			return s.fallback(ctx, key, p.ID(), fetchErr)
		}

		s.store(key, snap)
		return snap, nil
	})
	if shared {
		s.mu.Lock()
		s.coalesced++
		s.mu.Unlock()
		metrics.RecordFetchCoalesced()
	}
	if err != nil {
		return model.SourceSnapshot{}, err
	}
	return v.(model.SourceSnapshot), nil
}

// Refresh implements Store. The prefetcher uses it to keep tracked players
// warm; the forced fetch still coalesces with any in-flight miss for the key.
func (s *cacheStore) Refresh(ctx context.Context, p Provider, playerID string) (model.SourceSnapshot, error) {
	key := cacheKey(p.ID(), playerID)

	v, err, _ := s.flight.Do(key, func() (interface{}, error) {
		snap, fetchErr := s.fetchWithRetry(ctx, p, playerID)
		if fetchErr != nil {
			return nil, fetchErr
		}
		s.store(key, snap)
		return snap, nil
	})
	if err != nil {
		return model.SourceSnapshot{}, err
	}
	return v.(model.SourceSnapshot), nil
}

// fresh returns the cached snapshot when it is inside the TTL window.
func (s *cacheStore) fresh(key string) (model.SourceSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok {
		return model.SourceSnapshot{}, false
	}
	if s.now().Sub(e.storedAt) >= s.ttl {
		return model.SourceSnapshot{}, false
	}
	return e.snapshot, true
}

func (s *cacheStore) store(key string, snap model.SourceSnapshot) {
	s.mu.Lock()
	s.entries[key] = entry{snapshot: snap, storedAt: s.now()}
	total := len(s.entries)
	s.mu.Unlock()
	metrics.UpdateCacheEntries(total)
}

// fallback serves the expired entry for the key when one exists, otherwise
// surfaces the fetch failure as ErrNoData.
func (s *cacheStore) fallback(ctx context.Context, key, sourceID string, cause error) (interface{}, error) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if ok {
		s.staleServed++
	}
	s.mu.Unlock()

	if ok {
		metrics.RecordCacheStaleServed()
		s.log.Warn(ctx, "serving stale snapshot after fetch failure",
			logger.String("source", sourceID),
			logger.String("key", key),
			logger.Error(cause))
		return e.snapshot, nil
	}
	return nil, errors.Join(ErrNoData, cause)
}

// fetchWithRetry runs the provider fetch under the per-source rate limiter
// and circuit breaker, retrying transient failures with exponential backoff.
func (s *cacheStore) fetchWithRetry(ctx context.Context, p Provider, playerID string) (model.SourceSnapshot, error) {
	limiter := s.limiter(p.ID())
	breaker := s.breaker(p.ID())

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return model.SourceSnapshot{}, err
		}

		metrics.RecordFetch(p.ID())
		v, err := breaker.Execute(func() (interface{}, error) {
			return p.Fetch(ctx, playerID)
		})
		if err == nil {
			return v.(model.SourceSnapshot), nil
		}
		lastErr = err
		metrics.RecordFetchError(p.ID())

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordBreakerOpen(p.ID())
			break
		}
		if errors.Is(err, ErrNoData) {
			// The source answered; retrying will not conjure data.
			break
		}

		if attempt < s.maxAttempts {
			metrics.RecordFetchRetry()
			if err := s.sleep(ctx, s.backoff(attempt)); err != nil {
				return model.SourceSnapshot{}, err
			}
		}
	}

	return model.SourceSnapshot{}, newFetchError(p.ID(), playerID, s.maxAttempts, lastErr)
}

// backoff computes the delay before the next attempt: base * factor^(n-1)
// plus up to jitterFrac of itself.
func (s *cacheStore) backoff(attempt int) time.Duration {
	d := float64(s.baseDelay)
	for i := 1; i < attempt; i++ {
		d *= s.backoffFactor
	}
	if s.jitter != nil && s.jitterFrac > 0 {
		d += d * s.jitterFrac * s.jitter()
	}
	return time.Duration(d)
}

func (s *cacheStore) limiter(sourceID string) *rate.Limiter {
	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()

	l, ok := s.limiters[sourceID]
	if !ok {
		l = rate.NewLimiter(s.fetchRate, s.fetchBurst)
		s.limiters[sourceID] = l
	}
	return l
}

func (s *cacheStore) breaker(sourceID string) *gobreaker.CircuitBreaker {
	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()

	b, ok := s.breakers[sourceID]
	if !ok {
		b = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    sourceID,
			Timeout: 30 * time.Second,
		})
		s.breakers[sourceID] = b
	}
	return b
}

// Invalidate implements Store.
func (s *cacheStore) Invalidate(sourceID, playerID string) {
	s.mu.Lock()
	delete(s.entries, cacheKey(sourceID, playerID))
	total := len(s.entries)
	s.mu.Unlock()
	metrics.UpdateCacheEntries(total)
}

// InvalidatePlayer implements Store.
func (s *cacheStore) InvalidatePlayer(playerID string) {
	suffix := "/" + playerID
	s.mu.Lock()
	for key := range s.entries {
		if len(key) > len(suffix) && key[len(key)-len(suffix):] == suffix {
			delete(s.entries, key)
		}
	}
	total := len(s.entries)
	s.mu.Unlock()
	metrics.UpdateCacheEntries(total)
}

// Stats implements Store.
func (s *cacheStore) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Entries:     len(s.entries),
		Hits:        s.hits,
		Misses:      s.misses,
		StaleServed: s.staleServed,
		Coalesced:   s.coalesced,
	}
}
