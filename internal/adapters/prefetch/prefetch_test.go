package prefetch

import (
	"context"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/trundler/internal/adapters/source"
	"github.com/okian/trundler/internal/domain/model"
	"github.com/okian/trundler/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// countingStore records which keys were warmed and which were force-refreshed.
type countingStore struct {
	mu        sync.Mutex
	fetched   map[string]int
	refreshed map[string]int
}

func newCountingStore() *countingStore {
	return &countingStore{
		fetched:   make(map[string]int),
		refreshed: make(map[string]int),
	}
}

func (s *countingStore) GetOrFetch(_ context.Context, p source.Provider, playerID string) (model.SourceSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetched[p.ID()+"/"+playerID]++
	return model.SourceSnapshot{SourceID: p.ID(), PlayerID: playerID}, nil
}

func (s *countingStore) Refresh(_ context.Context, p source.Provider, playerID string) (model.SourceSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetched[p.ID()+"/"+playerID]++
	s.refreshed[p.ID()+"/"+playerID]++
	return model.SourceSnapshot{SourceID: p.ID(), PlayerID: playerID}, nil
}

func (s *countingStore) Invalidate(_, _ string)    {}
func (s *countingStore) InvalidatePlayer(_ string) {}
func (s *countingStore) Stats() source.Stats       { return source.Stats{} }

func (s *countingStore) count(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetched[key]
}

func (s *countingStore) refreshCount(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshed[key]
}

// staticProvider is a minimal Provider for warming tests.
type staticProvider struct{ id string }

func (p *staticProvider) ID() string               { return p.id }
func (p *staticProvider) Tier() string             { return p.id }
func (p *staticProvider) Group() model.MetricGroup { return model.Batting }
func (p *staticProvider) Fetch(_ context.Context, playerID string) (model.SourceSnapshot, error) {
	return model.SourceSnapshot{SourceID: p.id, PlayerID: playerID}, nil
}

func TestWarmerTracking(t *testing.T) {
	Convey("Given a running warmer", t, func() {
		store := newCountingStore()
		providers := []source.Provider{
			&staticProvider{id: "recent_form"},
			&staticProvider{id: "historical"},
		}
		w := NewWarmer(store, providers,
			WithWorkerCount(2),
			WithQueueCapacity(16),
			WithInterval(time.Hour))

		ctx, cancel := context.WithCancel(context.Background())
		go w.Run(ctx)
		Reset(func() {
			cancel()
			_ = w.Shutdown(context.Background())
		})

		Convey("tracking a new player warms every provider", func() {
			ok := w.Track(ctx, "player-1")
			So(ok, ShouldBeTrue)

			So(eventually(func() bool {
				return store.count("recent_form/player-1") == 1 &&
					store.count("historical/player-1") == 1
			}), ShouldBeTrue)
		})

		Convey("tracking the same player twice enqueues once", func() {
			So(w.Track(ctx, "player-1"), ShouldBeTrue)
			So(w.Track(ctx, "player-1"), ShouldBeTrue)

			So(eventually(func() bool {
				return store.count("recent_form/player-1") == 1
			}), ShouldBeTrue)
			So(w.Tracked(), ShouldEqual, 1)
		})
	})
}

func TestWarmerScheduledRefresh(t *testing.T) {
	Convey("Given a warmer with a short refresh interval", t, func() {
		store := newCountingStore()
		providers := []source.Provider{&staticProvider{id: "recent_form"}}
		w := NewWarmer(store, providers,
			WithWorkerCount(1),
			WithInterval(20*time.Millisecond))

		ctx, cancel := context.WithCancel(context.Background())
		go w.Run(ctx)
		Reset(func() {
			cancel()
			_ = w.Shutdown(context.Background())
		})

		Convey("tracked players are force-refreshed on the schedule", func() {
			So(w.Track(ctx, "player-1"), ShouldBeTrue)

			So(eventually(func() bool {
				return store.count("recent_form/player-1") >= 3 &&
					store.refreshCount("recent_form/player-1") >= 2
			}), ShouldBeTrue)
		})
	})
}

func TestWarmerQueueBound(t *testing.T) {
	Convey("Given a warmer that is not running", t, func() {
		store := newCountingStore()
		w := NewWarmer(store, []source.Provider{&staticProvider{id: "recent_form"}},
			WithQueueCapacity(2))

		Convey("enqueues beyond capacity are rejected", func() {
			ctx := context.Background()
			So(w.Track(ctx, "a"), ShouldBeTrue)
			So(w.Track(ctx, "b"), ShouldBeTrue)
			So(w.Track(ctx, "c"), ShouldBeFalse)
		})
	})
}

func TestWarmerShutdown(t *testing.T) {
	Convey("Given a running warmer", t, func() {
		store := newCountingStore()
		w := NewWarmer(store, nil, WithInterval(time.Hour))

		ctx := context.Background()
		go w.Run(ctx)

		Convey("shutdown returns promptly", func() {
			time.Sleep(10 * time.Millisecond)
			So(w.Shutdown(ctx), ShouldBeNil)
		})
	})
}

// eventually polls cond for up to two seconds.
func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}
