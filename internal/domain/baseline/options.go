package baseline

import "github.com/okian/trundler/internal/domain/model"

// Option applies a configuration option to the TableResolver.
type Option func(*TableResolver)

// WithRow replaces the baseline row for one role.
func WithRow(row model.RoleBaseline) Option {
	return func(r *TableResolver) {
		if row.Role != "" {
			r.table[row.Role] = row
		}
	}
}

// WithTable replaces the whole baseline table.
func WithTable(table map[model.Role]model.RoleBaseline, version string) Option {
	return func(r *TableResolver) {
		if len(table) == 0 {
			return
		}
		r.table = make(map[model.Role]model.RoleBaseline, len(table))
		for role, row := range table {
			r.table[role] = row
		}
		if version != "" {
			r.version = version
		}
	}
}
