package pgdb

import (
	"errors"
	"fmt"
	"strings"
)

// ListOptions controls GetAsList. What restricts the returned columns,
// Where adds conditions that all need to be fulfilled, Order overrides the
// default ordering (the What columns if given, otherwise the primary key,
// otherwise all columns), NoOrder suppresses ordering entirely, Limit and
// Offset window the result.
type ListOptions struct {
	What    []string
	Where   []string
	Order   []string
	NoOrder bool
	Limit   int
	Offset  int
}

// GetAsList returns the content of a table as a list of records. The table
// argument may also be any other SQL expression returning rows and is used
// verbatim. Note that without options this returns the full content of the
// table, which can be huge; use Where, Limit and Offset to control the
// amount of data returned.
func (d *DB) GetAsList(table string, opts *ListOptions) ([]Record, error) {
	if err := d.valid(); err != nil {
		return nil, err
	}
	if table == "" {
		return nil, errors.New("the table name is missing")
	}
	if opts == nil {
		opts = &ListOptions{}
	}
	what := "*"
	if len(opts.What) > 0 {
		what = strings.Join(opts.What, ", ")
	}
	parts := []string{"SELECT", what, "FROM", table}
	if len(opts.Where) > 0 {
		parts = append(parts, "WHERE", strings.Join(opts.Where, " AND "))
	}
	if !opts.NoOrder {
		order := opts.Order
		if len(order) == 0 {
			order = opts.What
		}
		if len(order) == 0 {
			order = d.defaultOrder(table)
		}
		if len(order) > 0 {
			parts = append(parts, "ORDER BY", strings.Join(order, ", "))
		}
	}
	if opts.Limit > 0 {
		parts = append(parts, fmt.Sprintf("LIMIT %d", opts.Limit))
	}
	if opts.Offset > 0 {
		parts = append(parts, fmt.Sprintf("OFFSET %d", opts.Offset))
	}
	return d.query(statement{text: strings.Join(parts, " ")})
}

// defaultOrder picks the ordering for GetAsList: the primary key columns if
// the table has a primary key, all columns otherwise, nothing if the table
// name is not actually a table.
func (d *DB) defaultOrder(table string) []string {
	if columns, err := d.PrimaryKeyColumns(table); err == nil {
		return columns
	}
	if attrs, err := d.Attributes(table); err == nil {
		return attrs.Names()
	}
	return nil
}
