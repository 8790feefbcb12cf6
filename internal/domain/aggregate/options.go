package aggregate

import (
	"time"

	"github.com/okian/trundler/internal/domain/model"
)

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithTiers replaces the tier scheme for one metric group.
func WithTiers(group model.MetricGroup, tiers []Tier) Option {
	return func(a *Aggregator) {
		a.tiers[group] = tiers
	}
}

// WithStalenessThreshold sets the age past which decay starts.
func WithStalenessThreshold(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.stalenessThreshold = d
		}
	}
}

// WithHardCutoff sets the age past which a snapshot is excluded entirely.
func WithHardCutoff(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.hardCutoff = d
		}
	}
}

// WithDecay sets the per-day decay rate and the decay floor.
func WithDecay(perDay, floor float64) Option {
	return func(a *Aggregator) {
		if perDay > 0 {
			a.decayPerDay = perDay
		}
		if floor > 0 && floor <= 1 {
			a.decayFloor = floor
		}
	}
}
