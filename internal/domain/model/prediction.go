package model

import "time"

// Prediction is one estimated metric with its uncertainty band.
// Invariant: 0 <= LowerBound <= Value <= UpperBound and Confidence in [0,1].
type Prediction struct {
	Metric     string  `json:"metric"`
	Value      float64 `json:"value"`
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
	Confidence float64 `json:"confidence"`
	Degraded   bool    `json:"degraded"`
}

// PlayerPrediction is the full four-metric result for one player.
type PlayerPrediction struct {
	PlayerID          string                `json:"player_id"`
	Role              Role                  `json:"role"`
	Predictions       map[string]Prediction `json:"predictions"`
	OverallConfidence float64               `json:"overall_confidence"`
	GeneratedAt       time.Time             `json:"generated_at"`
}
