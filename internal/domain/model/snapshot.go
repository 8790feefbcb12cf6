// Package model contains domain models passed between layers.
package model

import "time"

// MetricGroup identifies which side of the game a set of metrics describes.
type MetricGroup string

// Recognized metric groups.
const (
	Batting MetricGroup = "batting"
	Bowling MetricGroup = "bowling"
)

// Recognized metric names. Missing-key access anywhere else in the codebase
// is a bug; every metric a snapshot may carry is declared here.
const (
	MetricRuns        = "runs"
	MetricStrikeRate  = "strike_rate"
	MetricWickets     = "wickets"
	MetricEconomyRate = "economy_rate"
	MetricAverage     = "average"
)

// GroupMetrics is the single declared table of metrics per group.
var GroupMetrics = map[MetricGroup][]string{
	Batting: {MetricRuns, MetricStrikeRate, MetricAverage},
	Bowling: {MetricWickets, MetricEconomyRate, MetricAverage},
}

// TargetMetrics lists the metrics a prediction is produced for, with the
// group each one is aggregated from.
var TargetMetrics = map[string]MetricGroup{
	MetricRuns:        Batting,
	MetricStrikeRate:  Batting,
	MetricWickets:     Bowling,
	MetricEconomyRate: Bowling,
}

// MetricGroups returns the groups in a stable order.
func MetricGroups() []MetricGroup {
	return []MetricGroup{Batting, Bowling}
}

// GroupTargets returns the prediction target metrics for a group in a
// stable order.
func GroupTargets(group MetricGroup) []string {
	switch group {
	case Batting:
		return []string{MetricRuns, MetricStrikeRate}
	case Bowling:
		return []string{MetricWickets, MetricEconomyRate}
	default:
		return nil
	}
}

// SourceSnapshot is a typed, timestamped record of statistics pulled from one
// source for one player. Immutable once created; a newer snapshot from the
// same source supersedes it rather than mutating it.
type SourceSnapshot struct {
	SourceID    string
	PlayerID    string
	MetricGroup MetricGroup
	Values      map[string]float64
	ObservedAt  time.Time
	SampleSize  int
}

// Value returns the named metric and whether the snapshot carries it.
func (s SourceSnapshot) Value(metric string) (float64, bool) {
	v, ok := s.Values[metric]
	return v, ok
}

// Feature is one aggregated metric with its data-quality signals.
type Feature struct {
	Value        float64
	Completeness float64 // fraction of configured tier weight that contributed, in [0,1]

	// Contributions holds the raw per-tier values that went into the
	// weighted sum; the estimator derives its variance term from them.
	Contributions []float64

	// FreshestObservedAt is the newest ObservedAt among contributing
	// snapshots; zero when the feature is baseline-sourced.
	FreshestObservedAt time.Time
}

// FeatureVector is the aggregated view of one metric group for one player.
// Created fresh per prediction request and never mutated after construction.
type FeatureVector struct {
	PlayerID    string
	MetricGroup MetricGroup
	PerMetric   map[string]Feature

	// BaselineOnly marks a vector substituted wholesale from a RoleBaseline
	// after every source failed.
	BaselineOnly bool
}
