package prefetch

import (
	"time"

	"github.com/okian/trundler/pkg/logger"
)

// Option applies a configuration option to the Warmer.
type Option func(*Warmer)

// WithQueueCapacity sets the bounded job queue size.
func WithQueueCapacity(n int) Option {
	return func(w *Warmer) {
		if n > 0 {
			w.capacity = n
		}
	}
}

// WithWorkerCount sets the number of warm-fetch workers.
func WithWorkerCount(n int) Option {
	return func(w *Warmer) {
		if n > 0 {
			w.workers = n
		}
	}
}

// WithInterval sets the scheduled refresh period.
func WithInterval(d time.Duration) Option {
	return func(w *Warmer) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithLogger sets a custom logger for the warmer.
func WithLogger(log logger.Logger) Option {
	return func(w *Warmer) {
		if log != nil {
			w.log = log
		}
	}
}
