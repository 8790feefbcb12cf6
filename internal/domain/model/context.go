package model

// MatchContext carries the caller-supplied conditions for the upcoming match.
// Zero-value factors mean "unset"; NewMatchContext installs neutral defaults.
type MatchContext struct {
	IsHomeGame bool

	WeatherBattingFactor float64
	WeatherBowlingFactor float64
	VenueRunsFactor      float64
	VenueWicketsFactor   float64

	TeamStrength       float64
	OppositionStrength float64

	// Weather, when present, lets the engine derive the weather factors
	// from raw observations. Explicit factors above take precedence.
	Weather *WeatherObservation
}

// WeatherObservation is a raw forecast for the match window.
type WeatherObservation struct {
	TemperatureC    float64
	HumidityPct     float64
	WindSpeedKPH    float64
	RainProbability float64
}

// NewMatchContext returns a context with all adjustments neutral.
func NewMatchContext() MatchContext {
	return MatchContext{
		WeatherBattingFactor: 1.0,
		WeatherBowlingFactor: 1.0,
		VenueRunsFactor:      1.0,
		VenueWicketsFactor:   1.0,
		TeamStrength:         0.5,
		OppositionStrength:   0.5,
	}
}

// Normalize fills unset adjustments with the neutral defaults, so a literal
// MatchContext{} predicts exactly like NewMatchContext(). Strengths are only
// treated as unset when both are zero; a single zero is a legitimate point
// on the [0,1] scale.
func (c MatchContext) Normalize() MatchContext {
	if c.WeatherBattingFactor == 0 {
		c.WeatherBattingFactor = 1.0
	}
	if c.WeatherBowlingFactor == 0 {
		c.WeatherBowlingFactor = 1.0
	}
	if c.VenueRunsFactor == 0 {
		c.VenueRunsFactor = 1.0
	}
	if c.VenueWicketsFactor == 0 {
		c.VenueWicketsFactor = 1.0
	}
	if c.TeamStrength == 0 && c.OppositionStrength == 0 {
		c.TeamStrength = 0.5
		c.OppositionStrength = 0.5
	}
	return c
}
