// Package confidence converts an aggregated feature into a point value, an
// uncertainty interval and a scalar confidence score. Estimation is a pure
// function of its inputs: identical features and reference time always yield
// identical predictions.
package confidence

import (
	"math"
	"time"

	"github.com/okian/trundler/internal/domain/model"
)

// Default estimation parameters.
const (
	defaultBaseUncertainty = 0.2
	defaultMinAbsolute     = 0.5
	defaultFreshWindow     = 7 * 24 * time.Hour
	defaultRecencyCutoff   = 30 * 24 * time.Hour

	completenessShare = 0.5
	varianceShare     = 0.3
	recencyShare      = 0.2
)

// Sanity ceilings per metric. Values above these are clamped; they guard
// against corrupt source data, not against legitimate extremes.
var defaultCeilings = map[string]float64{
	model.MetricRuns:        500,
	model.MetricWickets:     10,
	model.MetricStrikeRate:  300,
	model.MetricEconomyRate: 20,
}

// Minimum absolute interval half-widths per metric, so metrics near zero
// still carry a visible band.
var defaultMinAbsolutes = map[string]float64{
	model.MetricRuns:        2.0,
	model.MetricWickets:     0.5,
	model.MetricStrikeRate:  5.0,
	model.MetricEconomyRate: 0.5,
}

// Estimator derives one Prediction per metric from an aggregated feature.
// Implementations must be deterministic; a trained regressor can satisfy
// this interface as long as its weights are fixed at construction.
type Estimator interface {
	Estimate(metric string, feature model.Feature, now time.Time) model.Prediction
}

// Statistical is the default Estimator, built on the aggregated value plus
// completeness, source variance and recency signals.
type Statistical struct {
	baseUncertainty float64
	minAbsolute     map[string]float64
	ceilings        map[string]float64
	freshWindow     time.Duration
	recencyCutoff   time.Duration
}

// New creates a Statistical estimator.
func New(opts ...Option) *Statistical {
	s := &Statistical{
		baseUncertainty: defaultBaseUncertainty,
		minAbsolute:     make(map[string]float64, len(defaultMinAbsolutes)),
		ceilings:        make(map[string]float64, len(defaultCeilings)),
		freshWindow:     defaultFreshWindow,
		recencyCutoff:   defaultRecencyCutoff,
	}
	for k, v := range defaultMinAbsolutes {
		s.minAbsolute[k] = v
	}
	for k, v := range defaultCeilings {
		s.ceilings[k] = v
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Estimate produces the point value, interval and confidence for one metric.
func (s *Statistical) Estimate(metric string, feature model.Feature, now time.Time) model.Prediction {
	value := s.clamp(metric, feature.Value)

	half := math.Max(value*s.baseUncertainty, s.minAbs(metric))
	half *= 1 + (1 - feature.Completeness)

	conf := completenessShare*feature.Completeness +
		varianceShare*varianceScore(feature.Contributions) +
		recencyShare*s.recencyScore(feature.FreshestObservedAt, now)

	return model.Prediction{
		Metric:     metric,
		Value:      value,
		LowerBound: math.Max(0, value-half),
		UpperBound: value + half,
		Confidence: clamp01(conf),
	}
}

func (s *Statistical) clamp(metric string, v float64) float64 {
	if v < 0 {
		v = 0
	}
	if ceil, ok := s.ceilings[metric]; ok && v > ceil {
		v = ceil
	}
	return v
}

func (s *Statistical) minAbs(metric string) float64 {
	if m, ok := s.minAbsolute[metric]; ok {
		return m
	}
	return defaultMinAbsolute
}

// varianceScore rewards agreement between contributing sources. It is the
// complement of the coefficient of variation: a single contributor or a set
// of identical values scores 1, widely scattered values approach 0.
func varianceScore(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if len(values) == 1 {
		return 1
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	stddev := math.Sqrt(variance)

	if mean == 0 {
		if stddev == 0 {
			return 1
		}
		return 0
	}

	cv := stddev / math.Abs(mean)
	return clamp01(1 - cv)
}

// recencyScore is 1 while the freshest snapshot is inside the fresh window
// and falls linearly to 0 at the recency cutoff.
func (s *Statistical) recencyScore(freshest, now time.Time) float64 {
	if freshest.IsZero() {
		return 0
	}
	age := now.Sub(freshest)
	if age <= s.freshWindow {
		return 1
	}
	if age >= s.recencyCutoff {
		return 0
	}
	span := (s.recencyCutoff - s.freshWindow).Seconds()
	over := (age - s.freshWindow).Seconds()
	return clamp01(1 - over/span)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
