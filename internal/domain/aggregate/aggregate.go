// Package aggregate combines same-metric values from multiple sources into
// one feature vector per metric group, using fixed tier weights with recency
// decay and renormalization over the tiers that actually contributed.
package aggregate

import (
	"math"
	"time"

	"github.com/okian/trundler/internal/domain/model"
)

// Tier names for the canonical three-tier scheme. A venue tier may be added
// through configuration at a lower weight.
const (
	TierRecentForm        = "recent_form"
	TierCurrentTournament = "current_tournament"
	TierHistorical        = "historical"
	TierVenue             = "venue"
)

// Default aggregation parameters.
const (
	defaultStalenessThreshold = 14 * 24 * time.Hour
	defaultHardCutoff         = 30 * 24 * time.Hour
	defaultDecayPerDay        = 0.02
	defaultDecayFloor         = 0.5

	// weightSumTolerance bounds float drift when validating that a group's
	// tier weights sum to 1.
	weightSumTolerance = 1e-9

	hoursPerDay = 24
)

// Tier pairs a source tier name with its configured weight.
type Tier struct {
	Name   string
	Weight float64
}

// DefaultTiers returns the canonical recent/current/historical scheme.
func DefaultTiers() []Tier {
	return []Tier{
		{Name: TierRecentForm, Weight: 0.4},
		{Name: TierCurrentTournament, Weight: 0.3},
		{Name: TierHistorical, Weight: 0.3},
	}
}

// Aggregator turns N source snapshots (possibly zero) into one
// FeatureVector per metric group. Aggregation is a pure function of its
// inputs; the Aggregator itself only holds validated configuration.
type Aggregator struct {
	tiers map[model.MetricGroup][]Tier

	stalenessThreshold time.Duration
	hardCutoff         time.Duration
	decayPerDay        float64
	decayFloor         float64
}

// New creates an Aggregator and validates the tier configuration. Weights
// for every metric group must sum to 1.0; this is checked here once, never
// at call time.
func New(opts ...Option) (*Aggregator, error) {
	a := &Aggregator{
		tiers: map[model.MetricGroup][]Tier{
			model.Batting: DefaultTiers(),
			model.Bowling: DefaultTiers(),
		},
		stalenessThreshold: defaultStalenessThreshold,
		hardCutoff:         defaultHardCutoff,
		decayPerDay:        defaultDecayPerDay,
		decayFloor:         defaultDecayFloor,
	}

	for _, opt := range opts {
		opt(a)
	}

	for group, tiers := range a.tiers {
		if err := validateTiers(group, tiers); err != nil {
			return nil, err
		}
	}

	return a, nil
}

func validateTiers(group model.MetricGroup, tiers []Tier) error {
	if len(tiers) == 0 {
		return NewWeightError(group, 0)
	}
	sum := 0.0
	for _, t := range tiers {
		if t.Weight <= 0 {
			return NewWeightError(group, t.Weight)
		}
		sum += t.Weight
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return NewWeightError(group, sum)
	}
	return nil
}

// Tiers returns the configured tiers for a metric group.
func (a *Aggregator) Tiers(group model.MetricGroup) []Tier {
	return a.tiers[group]
}

// contribution is one tier's decay-adjusted input to a metric's weighted sum.
type contribution struct {
	value      float64
	rawWeight  float64
	effWeight  float64
	observedAt time.Time
}

// Aggregate combines the snapshots available per tier into a FeatureVector
// for one metric group. Snapshots are keyed by tier name; tiers without a
// snapshot are excluded and the remaining weights renormalized. Returns
// ErrInsufficientData when no tier contributed to any metric.
func (a *Aggregator) Aggregate(playerID string, group model.MetricGroup, snapshots map[string]model.SourceSnapshot, now time.Time) (model.FeatureVector, error) {
	tiers, ok := a.tiers[group]
	if !ok {
		return model.FeatureVector{}, NewUnknownGroupError(group)
	}

	totalWeight := 0.0
	for _, t := range tiers {
		totalWeight += t.Weight
	}

	vec := model.FeatureVector{
		PlayerID:    playerID,
		MetricGroup: group,
		PerMetric:   make(map[string]model.Feature, len(model.GroupMetrics[group])),
	}

	contributed := false
	for _, metric := range model.GroupMetrics[group] {
		contribs := a.collect(tiers, snapshots, metric, now)
		feature := combine(contribs, totalWeight)
		if feature.Completeness > 0 {
			contributed = true
		}
		vec.PerMetric[metric] = feature
	}

	if !contributed {
		return model.FeatureVector{}, ErrInsufficientData
	}
	return vec, nil
}

// collect gathers the decay-adjusted contributions for one metric, walking
// tiers in configuration order so results are deterministic.
func (a *Aggregator) collect(tiers []Tier, snapshots map[string]model.SourceSnapshot, metric string, now time.Time) []contribution {
	var contribs []contribution
	for _, tier := range tiers {
		snap, ok := snapshots[tier.Name]
		if !ok {
			continue
		}
		value, ok := snap.Value(metric)
		if !ok {
			continue
		}

		age := now.Sub(snap.ObservedAt)
		if age > a.hardCutoff {
			// Beyond the hard cutoff the tier is treated as absent.
			continue
		}

		eff := tier.Weight
		if age > a.stalenessThreshold {
			daysOver := (age - a.stalenessThreshold).Hours() / hoursPerDay
			decay := math.Max(a.decayFloor, 1-a.decayPerDay*daysOver)
			eff *= decay
		}

		contribs = append(contribs, contribution{
			value:      value,
			rawWeight:  tier.Weight,
			effWeight:  eff,
			observedAt: snap.ObservedAt,
		})
	}
	return contribs
}

// combine renormalizes the effective weights over contributing tiers and
// computes the weighted value plus the completeness signal.
func combine(contribs []contribution, totalWeight float64) model.Feature {
	if len(contribs) == 0 {
		return model.Feature{}
	}

	effSum := 0.0
	rawSum := 0.0
	var freshest time.Time
	for _, c := range contribs {
		effSum += c.effWeight
		rawSum += c.rawWeight
		if c.observedAt.After(freshest) {
			freshest = c.observedAt
		}
	}

	value := 0.0
	values := make([]float64, 0, len(contribs))
	for _, c := range contribs {
		value += (c.effWeight / effSum) * c.value
		values = append(values, c.value)
	}

	return model.Feature{
		Value:              value,
		Completeness:       rawSum / totalWeight,
		Contributions:      values,
		FreshestObservedAt: freshest,
	}
}
