package pgdb

import (
	"fmt"
	"strings"
)

// TruncateOptions controls Truncate. Only marks tables (keyed by the name
// exactly as passed) whose descendant tables must not be truncated; OnlyAll
// requests that for every table. RestartIdentity restarts sequences owned
// by columns of the truncated tables; Cascade extends the truncation to
// tables with foreign key references to the named ones.
type TruncateOptions struct {
	RestartIdentity bool
	Cascade         bool
	OnlyAll         bool
	Only            map[string]bool
}

// Truncate quickly removes all rows from the given tables. It has the same
// effect as an unqualified DELETE on each table, but does not scan them, so
// it is faster, and it reclaims disk space immediately.
//
// A table name may carry a trailing '*' to explicitly include descendant
// tables; combining that with an ONLY request for the same name is
// contradictory and rejected before any statement is built.
func (d *DB) Truncate(tables []string, opts *TruncateOptions) error {
	if err := d.valid(); err != nil {
		return err
	}
	if len(tables) == 0 {
		return fmt.Errorf("truncate: no tables given")
	}
	if opts == nil {
		opts = &TruncateOptions{}
	}
	names := make([]string, len(tables))
	for i, table := range tables {
		only := opts.OnlyAll || opts.Only[table]
		if strings.HasSuffix(table, "*") {
			if only {
				return fmt.Errorf("truncate %s: %w", table, ErrContradictoryOnly)
			}
			table = trimDescendantHint(table)
		}
		name := d.escapeQualifiedName(table)
		if only {
			name = "ONLY " + name
		}
		names[i] = name
	}
	parts := []string{"TRUNCATE", strings.Join(names, ", ")}
	if opts.RestartIdentity {
		parts = append(parts, "RESTART IDENTITY")
	}
	if opts.Cascade {
		parts = append(parts, "CASCADE")
	}
	_, err := d.execute(statement{text: strings.Join(parts, " ")})
	return err
}
