// Package prefetch keeps the snapshot cache warm. Players seen by the
// prediction engine are tracked and their snapshots refreshed on a schedule
// through a bounded job queue and a small worker pool, so match-day request
// bursts mostly hit a warm cache.
package prefetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/trundler/internal/adapters/source"
	"github.com/okian/trundler/pkg/logger"
	"github.com/okian/trundler/pkg/metrics"
)

// Default warmer configuration constants.
const (
	defaultQueueCapacity = 1024
	defaultWorkerCount   = 4
	defaultInterval      = 5 * time.Minute

	shutdownTimeout = 10 * time.Second
)

// Job is one cache-warming unit of work: refresh every source for a player.
// Force bypasses the cache so scheduled cycles renew entries still inside
// their TTL.
type Job struct {
	ID       string
	PlayerID string
	Force    bool
}

// Warmer schedules and executes cache-warming fetches.
type Warmer struct {
	store     source.Store
	providers []source.Provider

	jobs     chan Job
	capacity int
	workers  int
	interval time.Duration

	mu   sync.Mutex
	seen map[string]struct{}

	shutdown chan struct{}
	done     chan struct{}
	wg       sync.WaitGroup

	log logger.Logger
}

// NewWarmer creates a Warmer over the given store and providers.
func NewWarmer(store source.Store, providers []source.Provider, opts ...Option) *Warmer {
	w := &Warmer{
		store:     store,
		providers: providers,
		capacity:  defaultQueueCapacity,
		workers:   defaultWorkerCount,
		interval:  defaultInterval,
		seen:      make(map[string]struct{}),
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		log:       logger.Named("prefetch"),
	}

	for _, opt := range opts {
		opt(w)
	}

	w.jobs = make(chan Job, w.capacity)

	metrics.UpdatePrefetchQueueCapacity(w.capacity)
	metrics.UpdatePrefetchQueueSize(0)
	metrics.UpdatePrefetchWorkerCount(w.workers)

	return w
}

// Track registers a player for scheduled warming and enqueues an immediate
// warm-up if the player is new. Returns false when the queue is full.
func (w *Warmer) Track(ctx context.Context, playerID string) bool {
	w.mu.Lock()
	_, known := w.seen[playerID]
	w.seen[playerID] = struct{}{}
	w.mu.Unlock()

	if known {
		return true
	}
	return w.enqueue(ctx, playerID, false)
}

// Tracked returns the number of players under scheduled warming.
func (w *Warmer) Tracked() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.seen)
}

func (w *Warmer) enqueue(_ context.Context, playerID string, force bool) bool {
	job := Job{ID: uuid.NewString(), PlayerID: playerID, Force: force}
	select {
	case w.jobs <- job:
		metrics.UpdatePrefetchQueueSize(len(w.jobs))
		return true
	default:
		metrics.RecordErrorByComponent("prefetch", "queue_full")
		return false
	}
}

// Run starts the workers and the refresh scheduler, blocking until the
// context is cancelled or Shutdown is called.
func (w *Warmer) Run(ctx context.Context) {
	defer close(w.done)

	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.worker(ctx, i)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.wg.Wait()
			return
		case <-w.shutdown:
			w.wg.Wait()
			return
		case <-ticker.C:
			w.refreshAll(ctx)
		}
	}
}

// refreshAll enqueues a warm job for every tracked player.
func (w *Warmer) refreshAll(ctx context.Context) {
	w.mu.Lock()
	players := make([]string, 0, len(w.seen))
	for id := range w.seen {
		players = append(players, id)
	}
	w.mu.Unlock()

	for _, id := range players {
		if !w.enqueue(ctx, id, true) {
			w.log.Warn(ctx, "prefetch queue full, skipping refresh cycle remainder",
				logger.Int("tracked", len(players)))
			return
		}
	}
}

func (w *Warmer) worker(ctx context.Context, n int) {
	defer w.wg.Done()

	log := w.log.Named(fmt.Sprintf("worker-%d", n))
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job := <-w.jobs:
			metrics.UpdatePrefetchQueueSize(len(w.jobs))
			w.process(ctx, log, job)
		}
	}
}

// process refreshes every provider's snapshot for the job's player. Failures
// are logged and counted; the next cycle retries naturally.
func (w *Warmer) process(ctx context.Context, log logger.Logger, job Job) {
	metrics.RecordPrefetchJob()

	for _, p := range w.providers {
		var err error
		if job.Force {
			_, err = w.store.Refresh(ctx, p, job.PlayerID)
		} else {
			_, err = w.store.GetOrFetch(ctx, p, job.PlayerID)
		}
		if err != nil {
			metrics.RecordPrefetchJobError()
			log.Debug(ctx, "warm fetch failed",
				logger.String("job_id", job.ID),
				logger.String("source", p.ID()),
				logger.String("player_id", job.PlayerID),
				logger.Error(err))
		}
	}
}

// Shutdown stops the scheduler and waits for in-flight jobs to finish.
func (w *Warmer) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	timer := time.NewTimer(shutdownTimeout)
	defer timer.Stop()

	select {
	case <-w.done:
		return nil
	case <-timer.C:
		return fmt.Errorf("prefetch shutdown timed out after %s", shutdownTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}
