package pgdb

import (
	"strings"

	"github.com/gopsql/db"
)

// stub is a canned response for queries containing match. The first
// matching stub wins, so more specific matches go first.
type stub struct {
	match    string
	columns  []string
	rows     [][]interface{}
	affected int64
	err      error
}

// fakeConn is a scripted transport recording every statement sent.
type fakeConn struct {
	stubs   []stub
	queries []string
	params  [][]interface{}
	closed  bool
}

func (c *fakeConn) find(query string) *stub {
	for i := range c.stubs {
		if c.stubs[i].match == "" || strings.Contains(query, c.stubs[i].match) {
			return &c.stubs[i]
		}
	}
	return nil
}

func (c *fakeConn) Query(query string, args ...interface{}) (db.Rows, error) {
	c.queries = append(c.queries, query)
	c.params = append(c.params, args)
	if s := c.find(query); s != nil {
		if s.err != nil {
			return nil, s.err
		}
		return &fakeRows{columns: s.columns, rows: s.rows}, nil
	}
	return &fakeRows{}, nil
}

func (c *fakeConn) Exec(query string, args ...interface{}) (db.Result, error) {
	c.queries = append(c.queries, query)
	c.params = append(c.params, args)
	if s := c.find(query); s != nil {
		if s.err != nil {
			return nil, s.err
		}
		return fakeResult{affected: s.affected}, nil
	}
	return fakeResult{}, nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

// count returns the number of recorded statements containing substr.
func (c *fakeConn) count(substr string) (n int) {
	for _, query := range c.queries {
		if strings.Contains(query, substr) {
			n++
		}
	}
	return
}

// last returns the most recent statement containing substr.
func (c *fakeConn) last(substr string) (string, []interface{}) {
	for i := len(c.queries) - 1; i >= 0; i-- {
		if strings.Contains(c.queries[i], substr) {
			return c.queries[i], c.params[i]
		}
	}
	return "", nil
}

type fakeRows struct {
	columns []string
	rows    [][]interface{}
	i       int
}

func (r *fakeRows) Close() error { return nil }

func (r *fakeRows) Columns() ([]string, error) { return r.columns, nil }

func (r *fakeRows) Err() error { return nil }

func (r *fakeRows) Next() bool {
	if r.i < len(r.rows) {
		r.i++
		return true
	}
	return false
}

func (r *fakeRows) Scan(dest ...interface{}) error {
	row := r.rows[r.i-1]
	for i, d := range dest {
		if p, ok := d.(*interface{}); ok && i < len(row) {
			*p = row[i]
		}
	}
	return nil
}

type fakeResult struct {
	affected int64
}

func (r fakeResult) RowsAffected() (int64, error) { return r.affected, nil }

// usersAttrStub answers the attribute catalog query for a plain users table
// with an integer id, a text name and a bytea photo column.
func usersAttrStub() stub {
	return stub{
		match:   "pg_type",
		columns: []string{"attname", "typname"},
		rows: [][]interface{}{
			{"id", "int4"},
			{"name", "varchar"},
			{"photo", "bytea"},
		},
	}
}

// usersPkeyStub answers the primary key catalog query with a single id key.
func usersPkeyStub() stub {
	return stub{
		match:   "pg_index",
		columns: []string{"attname", "attnum", "indkey"},
		rows:    [][]interface{}{{"id", 1, "1"}},
	}
}
