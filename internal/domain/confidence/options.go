package confidence

import "time"

// Option configures a Statistical estimator.
type Option func(*Statistical)

// WithBaseUncertainty sets the relative half-width of the interval.
func WithBaseUncertainty(u float64) Option {
	return func(s *Statistical) {
		if u > 0 {
			s.baseUncertainty = u
		}
	}
}

// WithMinAbsolute sets the minimum interval half-width for one metric.
func WithMinAbsolute(metric string, v float64) Option {
	return func(s *Statistical) {
		if v >= 0 {
			s.minAbsolute[metric] = v
		}
	}
}

// WithCeiling sets the sanity ceiling for one metric.
func WithCeiling(metric string, v float64) Option {
	return func(s *Statistical) {
		if v > 0 {
			s.ceilings[metric] = v
		}
	}
}

// WithFreshWindow sets the age under which recency scores 1.
func WithFreshWindow(d time.Duration) Option {
	return func(s *Statistical) {
		if d > 0 {
			s.freshWindow = d
		}
	}
}

// WithRecencyCutoff sets the age at which recency scores 0.
func WithRecencyCutoff(d time.Duration) Option {
	return func(s *Statistical) {
		if d > 0 {
			s.recencyCutoff = d
		}
	}
}
