// Package adjust applies contextual multipliers to estimated predictions.
// Multipliers compose by multiplication in a fixed order so repeated runs
// over the same inputs are reproducible: home advantage first, then
// weather/venue, then the team-strength differential.
package adjust

import (
	"github.com/okian/trundler/internal/domain/model"
)

// Default adjustment parameters.
const (
	defaultHomeBattingBoost = 1.10
	defaultStrengthScale    = 0.1
)

// Weather factor thresholds, derived from T20 scoring conditions. Hot or
// windy weather favours bowlers; mild weather favours neither side much.
const (
	hotTemperatureC  = 35.0
	coldTemperatureC = 15.0
	highHumidityPct  = 80.0
	highWindKPH      = 20.0

	hotBatting   = 0.9
	hotBowling   = 1.1
	coldBatting  = 0.95
	coldBowling  = 1.05
	humidBatting = 0.95
	humidBowling = 1.1
	windyBatting = 0.9
	windyBowling = 1.1
)

// Adjuster scales predictions by match context.
type Adjuster struct {
	homeBattingBoost float64
	strengthScale    float64
}

// New creates an Adjuster.
func New(opts ...Option) *Adjuster {
	a := &Adjuster{
		homeBattingBoost: defaultHomeBattingBoost,
		strengthScale:    defaultStrengthScale,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Apply returns a copy of the prediction with all contextual multipliers
// applied. Value and both bounds scale together so interval ordering is
// preserved; confidence is untouched.
func (a *Adjuster) Apply(p model.Prediction, group model.MetricGroup, ctx model.MatchContext) model.Prediction {
	m := 1.0

	if ctx.IsHomeGame && (p.Metric == model.MetricRuns || p.Metric == model.MetricStrikeRate) {
		m *= a.homeBattingBoost
	}

	batting, bowling := weatherFactors(ctx)
	switch group {
	case model.Batting:
		m *= batting * ctx.VenueRunsFactor
	case model.Bowling:
		m *= bowling * ctx.VenueWicketsFactor
	}

	m *= 1 + (ctx.TeamStrength-ctx.OppositionStrength)*a.strengthScale

	p.Value *= m
	p.LowerBound *= m
	p.UpperBound *= m
	return p
}

// weatherFactors resolves the batting/bowling weather multipliers. Each side
// is resolved independently: an explicit factor in the context wins for that
// side, and a neutral side falls back to the value derived from the raw
// observation when one is present.
func weatherFactors(ctx model.MatchContext) (batting, bowling float64) {
	batting, bowling = ctx.WeatherBattingFactor, ctx.WeatherBowlingFactor
	if ctx.Weather == nil {
		return batting, bowling
	}
	derivedBatting, derivedBowling := DeriveWeatherFactors(*ctx.Weather)
	if batting == 1.0 {
		batting = derivedBatting
	}
	if bowling == 1.0 {
		bowling = derivedBowling
	}
	return batting, bowling
}

// DeriveWeatherFactors turns a raw forecast into batting and bowling
// multipliers. Conditions compound: a hot, humid, windy day stacks all
// three penalties.
func DeriveWeatherFactors(w model.WeatherObservation) (batting, bowling float64) {
	batting, bowling = 1.0, 1.0

	switch {
	case w.TemperatureC > hotTemperatureC:
		batting *= hotBatting
		bowling *= hotBowling
	case w.TemperatureC > 0 && w.TemperatureC < coldTemperatureC:
		batting *= coldBatting
		bowling *= coldBowling
	}

	if w.HumidityPct > highHumidityPct {
		batting *= humidBatting
		bowling *= humidBowling
	}

	if w.WindSpeedKPH > highWindKPH {
		batting *= windyBatting
		bowling *= windyBowling
	}

	return batting, bowling
}
