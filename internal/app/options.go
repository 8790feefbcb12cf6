package service

import (
	"time"

	"github.com/okian/trundler/internal/adapters/prefetch"
	"github.com/okian/trundler/internal/adapters/source"
	"github.com/okian/trundler/internal/domain/adjust"
	"github.com/okian/trundler/internal/domain/aggregate"
	"github.com/okian/trundler/internal/domain/baseline"
	"github.com/okian/trundler/internal/domain/confidence"
	"github.com/okian/trundler/internal/domain/model"
	"github.com/okian/trundler/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the snapshot store.
func WithStore(store source.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithProviders registers the feature providers for one metric group.
func WithProviders(group model.MetricGroup, providers ...source.Provider) Option {
	return func(s *Service) {
		s.providers[group] = append(s.providers[group], providers...)
	}
}

// WithBaselines sets the role baseline resolver.
func WithBaselines(r baseline.Resolver) Option {
	return func(s *Service) {
		if r != nil {
			s.baselines = r
		}
	}
}

// WithAggregator sets the feature aggregator.
func WithAggregator(a *aggregate.Aggregator) Option {
	return func(s *Service) {
		if a != nil {
			s.aggregator = a
		}
	}
}

// WithEstimator sets the confidence estimator.
func WithEstimator(e confidence.Estimator) Option {
	return func(s *Service) {
		if e != nil {
			s.estimator = e
		}
	}
}

// WithAdjuster sets the contextual adjuster.
func WithAdjuster(a *adjust.Adjuster) Option {
	return func(s *Service) {
		if a != nil {
			s.adjuster = a
		}
	}
}

// WithWarmer sets the prefetch warmer. Passing nil leaves warming to be
// constructed at Start from the registered providers.
func WithWarmer(w *prefetch.Warmer) Option {
	return func(s *Service) {
		s.warmer = w
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithClock injects the time source used for recency decisions.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
