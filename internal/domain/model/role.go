package model

import (
	"fmt"
	"strings"
)

// Role classifies a player for baseline resolution.
type Role string

// Recognized player roles.
const (
	Batsman      Role = "batsman"
	Bowler       Role = "bowler"
	AllRounder   Role = "all_rounder"
	WicketKeeper Role = "wicket_keeper"
)

// ParseRole maps a request string onto a Role. Unknown strings are an input
// error at the API boundary; the baseline resolver itself stays total.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case Batsman:
		return Batsman, nil
	case Bowler:
		return Bowler, nil
	case AllRounder:
		return AllRounder, nil
	case WicketKeeper:
		return WicketKeeper, nil
	default:
		return "", fmt.Errorf("unknown role: %q", s)
	}
}

// RoleBaseline holds role-conditioned default statistics used when no real
// data exists for a player. Static reference data, read-only at runtime.
type RoleBaseline struct {
	Role     Role
	Batting  BattingBaseline
	Bowling  BowlingBaseline
	Fielding FieldingBaseline
}

// BattingBaseline carries default batting statistics for a role.
type BattingBaseline struct {
	Average    float64
	StrikeRate float64
	Runs       float64
}

// BowlingBaseline carries default bowling statistics for a role.
type BowlingBaseline struct {
	Wickets float64
	Economy float64
	Average float64
}

// FieldingBaseline carries default fielding statistics for a role.
type FieldingBaseline struct {
	Catches   float64
	Stumpings float64
}

// GroupValues projects the baseline onto the declared metric table for a
// group, in the same shape a snapshot would carry.
func (b RoleBaseline) GroupValues(group MetricGroup) map[string]float64 {
	switch group {
	case Batting:
		return map[string]float64{
			MetricRuns:       b.Batting.Runs,
			MetricStrikeRate: b.Batting.StrikeRate,
			MetricAverage:    b.Batting.Average,
		}
	case Bowling:
		return map[string]float64{
			MetricWickets:     b.Bowling.Wickets,
			MetricEconomyRate: b.Bowling.Economy,
			MetricAverage:     b.Bowling.Average,
		}
	default:
		return nil
	}
}
