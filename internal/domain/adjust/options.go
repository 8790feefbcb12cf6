package adjust

// Option configures an Adjuster.
type Option func(*Adjuster)

// WithHomeBattingBoost sets the home-game multiplier for batting output.
func WithHomeBattingBoost(b float64) Option {
	return func(a *Adjuster) {
		if b > 0 {
			a.homeBattingBoost = b
		}
	}
}

// WithStrengthScale sets how strongly the team-strength differential skews
// the result.
func WithStrengthScale(s float64) Option {
	return func(a *Adjuster) {
		if s >= 0 {
			a.strengthScale = s
		}
	}
}
