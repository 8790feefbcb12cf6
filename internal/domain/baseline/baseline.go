// Package baseline supplies role-conditioned default statistics used when no
// real data exists for a player.
package baseline

import (
	"github.com/okian/trundler/internal/domain/model"
)

// TableVersion identifies the default baseline table. Bump when the numbers
// change so downstream consumers can tell which defaults produced a result.
const TableVersion = "2025.1"

// defaultTable holds one row per role. There is exactly one copy of these
// numbers in the codebase; every fallback path resolves through it.
var defaultTable = map[model.Role]model.RoleBaseline{
	model.Batsman: {
		Role:     model.Batsman,
		Batting:  model.BattingBaseline{Average: 32.0, StrikeRate: 135.0, Runs: 30.0},
		Bowling:  model.BowlingBaseline{Wickets: 0.1, Economy: 9.5, Average: 45.0},
		Fielding: model.FieldingBaseline{Catches: 1.0, Stumpings: 0.0},
	},
	model.Bowler: {
		Role:     model.Bowler,
		Batting:  model.BattingBaseline{Average: 12.0, StrikeRate: 95.0, Runs: 8.0},
		Bowling:  model.BowlingBaseline{Wickets: 1.5, Economy: 8.0, Average: 25.0},
		Fielding: model.FieldingBaseline{Catches: 0.5, Stumpings: 0.0},
	},
	model.AllRounder: {
		Role:     model.AllRounder,
		Batting:  model.BattingBaseline{Average: 25.0, StrikeRate: 125.0, Runs: 22.0},
		Bowling:  model.BowlingBaseline{Wickets: 0.8, Economy: 8.5, Average: 30.0},
		Fielding: model.FieldingBaseline{Catches: 0.8, Stumpings: 0.0},
	},
	model.WicketKeeper: {
		Role:     model.WicketKeeper,
		Batting:  model.BattingBaseline{Average: 28.0, StrikeRate: 128.0, Runs: 25.0},
		Bowling:  model.BowlingBaseline{Wickets: 0.0, Economy: 0.0, Average: 0.0},
		Fielding: model.FieldingBaseline{Catches: 1.5, Stumpings: 0.5},
	},
}

// Resolver performs role baseline lookups. It is a total function: unknown
// roles resolve to the all-rounder row rather than failing.
type Resolver interface {
	Resolve(role model.Role) model.RoleBaseline
	Version() string
}

// TableResolver implements Resolver over an in-memory table.
type TableResolver struct {
	table   map[model.Role]model.RoleBaseline
	version string
}

// NewResolver creates a resolver over the default table, with options applied.
// Returns an error when the resulting table does not cover every role.
func NewResolver(opts ...Option) (*TableResolver, error) {
	r := &TableResolver{
		table:   make(map[model.Role]model.RoleBaseline, len(defaultTable)),
		version: TableVersion,
	}
	for role, row := range defaultTable {
		r.table[role] = row
	}

	for _, opt := range opts {
		opt(r)
	}

	// Missing rows are a configuration error, caught here once rather than
	// at request time.
	for _, role := range []model.Role{model.Batsman, model.Bowler, model.AllRounder, model.WicketKeeper} {
		if _, ok := r.table[role]; !ok {
			return nil, NewMissingRoleError(role)
		}
	}

	return r, nil
}

// Resolve returns the baseline row for role, falling back to all-rounder for
// anything unrecognized.
func (r *TableResolver) Resolve(role model.Role) model.RoleBaseline {
	if row, ok := r.table[role]; ok {
		return row
	}
	return r.table[model.AllRounder]
}

// Version returns the version of the loaded table.
func (r *TableResolver) Version() string {
	return r.version
}
