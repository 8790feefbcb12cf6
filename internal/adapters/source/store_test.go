package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

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

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 4, 12, 18, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// scriptedProvider counts fetches and fails for the first failures calls.
type scriptedProvider struct {
	mu       sync.Mutex
	calls    int
	failures int
	err      error
	block    chan struct{}
}

func (p *scriptedProvider) ID() string               { return "recent_form" }
func (p *scriptedProvider) Tier() string             { return "recent_form" }
func (p *scriptedProvider) Group() model.MetricGroup { return model.Batting }

func (p *scriptedProvider) Fetch(_ context.Context, playerID string) (model.SourceSnapshot, error) {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls <= p.failures {
		err := p.err
		if err == nil {
			err = ErrSourceUnavailable
		}
		return model.SourceSnapshot{}, err
	}
	return model.SourceSnapshot{
		SourceID:    p.ID(),
		PlayerID:    playerID,
		MetricGroup: model.Batting,
		Values:      map[string]float64{model.MetricRuns: 45},
		SampleSize:  p.calls,
	}, nil
}

func (p *scriptedProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// recordingSleeper captures backoff delays without sleeping.
type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return nil
}

func newTestStore(clock *fakeClock, sleeper *recordingSleeper, opts ...Option) Store {
	base := []Option{
		WithClock(clock.Now),
		WithSleeper(sleeper.sleep),
		WithJitter(func() float64 { return 0 }),
		WithFetchRate(1e6, 1000),
	}
	return NewStore(append(base, opts...)...)
}

func TestStoreCacheWindow(t *testing.T) {
	Convey("Given a store with a one hour TTL", t, func() {
		clock := newFakeClock()
		sleeper := &recordingSleeper{}
		store := newTestStore(clock, sleeper)
		provider := &scriptedProvider{}
		ctx := context.Background()

		Convey("two reads inside the TTL trigger one fetch", func() {
			first, err := store.GetOrFetch(ctx, provider, "player-1")
			So(err, ShouldBeNil)

			clock.Advance(30 * time.Minute)
			second, err := store.GetOrFetch(ctx, provider, "player-1")
			So(err, ShouldBeNil)

			So(provider.callCount(), ShouldEqual, 1)
			So(second, ShouldResemble, first)
		})

		Convey("a read after the TTL triggers a second fetch", func() {
			_, err := store.GetOrFetch(ctx, provider, "player-1")
			So(err, ShouldBeNil)

			clock.Advance(61 * time.Minute)
			_, err = store.GetOrFetch(ctx, provider, "player-1")
			So(err, ShouldBeNil)

			So(provider.callCount(), ShouldEqual, 2)
		})

		Convey("distinct players are cached independently", func() {
			_, err := store.GetOrFetch(ctx, provider, "player-1")
			So(err, ShouldBeNil)
			_, err = store.GetOrFetch(ctx, provider, "player-2")
			So(err, ShouldBeNil)

			So(provider.callCount(), ShouldEqual, 2)
		})

		Convey("invalidation forces a re-fetch", func() {
			_, err := store.GetOrFetch(ctx, provider, "player-1")
			So(err, ShouldBeNil)

			store.Invalidate(provider.ID(), "player-1")
			_, err = store.GetOrFetch(ctx, provider, "player-1")
			So(err, ShouldBeNil)

			So(provider.callCount(), ShouldEqual, 2)
		})

		Convey("player-wide invalidation drops all of a player's keys", func() {
			_, err := store.GetOrFetch(ctx, provider, "player-1")
			So(err, ShouldBeNil)

			store.InvalidatePlayer("player-1")
			So(store.Stats().Entries, ShouldEqual, 0)
		})

		Convey("a refresh fetches even inside the TTL and renews the entry", func() {
			_, err := store.GetOrFetch(ctx, provider, "player-1")
			So(err, ShouldBeNil)

			clock.Advance(30 * time.Minute)
			refreshed, err := store.Refresh(ctx, provider, "player-1")
			So(err, ShouldBeNil)
			So(provider.callCount(), ShouldEqual, 2)
			So(refreshed.SampleSize, ShouldEqual, 2)

			clock.Advance(59 * time.Minute)
			cached, err := store.GetOrFetch(ctx, provider, "player-1")
			So(err, ShouldBeNil)
			So(provider.callCount(), ShouldEqual, 2)
			So(cached, ShouldResemble, refreshed)
		})
	})
}

func TestStoreRetryPolicy(t *testing.T) {
	Convey("Given a flaky provider", t, func() {
		clock := newFakeClock()
		sleeper := &recordingSleeper{}
		store := newTestStore(clock, sleeper)
		ctx := context.Background()

		Convey("transient failures are retried with exponential backoff", func() {
			provider := &scriptedProvider{failures: 2}

			snap, err := store.GetOrFetch(ctx, provider, "player-1")
			So(err, ShouldBeNil)
			So(snap.Values[model.MetricRuns], ShouldEqual, 45)
			So(provider.callCount(), ShouldEqual, 3)
			So(sleeper.delays, ShouldResemble, []time.Duration{time.Second, 2 * time.Second})
		})

		Convey("retries stop after the maximum attempts", func() {
			provider := &scriptedProvider{failures: 10}

			_, err := store.GetOrFetch(ctx, provider, "player-1")
			So(err, ShouldNotBeNil)
			So(provider.callCount(), ShouldEqual, 3)
		})

		Convey("a definitive no-data answer is not retried", func() {
			provider := &scriptedProvider{failures: 10, err: ErrNoData}

			_, err := store.GetOrFetch(ctx, provider, "player-1")
			So(errors.Is(err, ErrNoData), ShouldBeTrue)
			So(provider.callCount(), ShouldEqual, 1)
		})
	})
}

func TestStoreStaleFallback(t *testing.T) {
	Convey("Given a provider that starts failing after one good fetch", t, func() {
		clock := newFakeClock()
		sleeper := &recordingSleeper{}
		store := newTestStore(clock, sleeper)
		ctx := context.Background()

		Convey("the expired snapshot is served instead of an error", func() {
			provider := &scriptedProvider{}
			first, err := store.GetOrFetch(ctx, provider, "player-1")
			So(err, ShouldBeNil)

			clock.Advance(2 * time.Hour)
			provider.mu.Lock()
			provider.failures = 100
			provider.calls = 0
			provider.mu.Unlock()

			snap, err := store.GetOrFetch(ctx, provider, "player-1")
			So(err, ShouldBeNil)
			So(snap, ShouldResemble, first)
			So(store.Stats().StaleServed, ShouldEqual, 1)
		})

		Convey("with no prior snapshot the failure surfaces as no data", func() {
			provider := &scriptedProvider{failures: 100}

			_, err := store.GetOrFetch(ctx, provider, "player-1")
			So(errors.Is(err, ErrNoData), ShouldBeTrue)
		})
	})
}

func TestStoreSingleFlight(t *testing.T) {
	Convey("Given concurrent misses on the same key", t, func() {
		clock := newFakeClock()
		sleeper := &recordingSleeper{}
		store := newTestStore(clock, sleeper)
		ctx := context.Background()

		Convey("only one upstream fetch happens", func() {
			gate := make(chan struct{})
			provider := &scriptedProvider{block: gate}

			const callers = 8
			var wg sync.WaitGroup
			results := make([]model.SourceSnapshot, callers)
			errs := make([]error, callers)

			for i := 0; i < callers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					results[i], errs[i] = store.GetOrFetch(ctx, provider, "player-1")
				}(i)
			}

			time.Sleep(50 * time.Millisecond)
			close(gate)
			wg.Wait()

			So(provider.callCount(), ShouldEqual, 1)
			for i := 0; i < callers; i++ {
				So(errs[i], ShouldBeNil)
				So(results[i], ShouldResemble, results[0])
			}
		})
	})
}

func TestFixtureProvider(t *testing.T) {
	Convey("Given a YAML fixture", t, func() {
		dir := t.TempDir()
		path := dir + "/recent.yaml"
		fixture := `player-1:
  values:
    runs: 45
    strike_rate: 140
  observed_at: 2026-04-11T12:00:00Z
  sample_size: 5
`
		So(os.WriteFile(path, []byte(fixture), 0o600), ShouldBeNil)

		provider, err := NewFixtureProvider("recent_form", "recent_form", model.Batting, path)
		So(err, ShouldBeNil)

		Convey("known players resolve to snapshots", func() {
			snap, err := provider.Fetch(context.Background(), "player-1")
			So(err, ShouldBeNil)
			So(snap.Values[model.MetricRuns], ShouldEqual, 45)
			So(snap.SampleSize, ShouldEqual, 5)
			So(snap.ObservedAt.IsZero(), ShouldBeFalse)
		})

		Convey("unknown players return no data", func() {
			_, err := provider.Fetch(context.Background(), "nobody")
			So(errors.Is(err, ErrNoData), ShouldBeTrue)
		})
	})
}

func TestHTTPProvider(t *testing.T) {
	Convey("Given a stats endpoint", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/player-1":
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{
					"values": {"wickets": 2.1, "economy_rate": 7.4},
					"observed_at": "2026-04-11T12:00:00Z",
					"sample_size": 8
				}`))
			case "/broken":
				w.WriteHeader(http.StatusInternalServerError)
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		Reset(srv.Close)

		provider, err := NewHTTPProvider("espn", "historical", model.Bowling, srv.URL)
		So(err, ShouldBeNil)

		Convey("known players resolve to snapshots", func() {
			snap, err := provider.Fetch(context.Background(), "player-1")
			So(err, ShouldBeNil)
			So(snap.Values[model.MetricWickets], ShouldEqual, 2.1)
			So(snap.Values[model.MetricEconomyRate], ShouldEqual, 7.4)
			So(snap.SampleSize, ShouldEqual, 8)
		})

		Convey("a 404 is a definitive no-data answer", func() {
			_, err := provider.Fetch(context.Background(), "nobody")
			So(errors.Is(err, ErrNoData), ShouldBeTrue)
		})

		Convey("a server error is transient", func() {
			_, err := provider.Fetch(context.Background(), "broken")
			So(errors.Is(err, ErrSourceUnavailable), ShouldBeTrue)
		})
	})
}
