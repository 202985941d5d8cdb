package pgdb

import (
	"fmt"

	"github.com/gopsql/db"
)

// statement is a generated SQL text together with its positional parameters.
// The two are always built in lock-step and never modified afterwards.
type statement struct {
	text   string
	params []interface{}
}

func (s statement) String() string {
	return s.text
}

// query runs a statement expected to return rows and collects them as
// records keyed by column name.
func (d *DB) query(stmt statement) ([]Record, error) {
	d.log(stmt.text, stmt.params)
	rows, err := d.conn.Query(stmt.text, stmt.params...)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

// execute runs a statement that returns no rows and reports the number of
// rows affected.
func (d *DB) execute(stmt statement) (int, error) {
	d.log(stmt.text, stmt.params)
	result, err := d.conn.Exec(stmt.text, stmt.params...)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func collectRecords(rows db.Rows) (records []Record, err error) {
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		dests := make([]interface{}, len(columns))
		for i := range values {
			dests[i] = &values[i]
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, err
		}
		record := make(Record, len(columns))
		for i, column := range columns {
			record[column] = values[i]
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// queryTuples runs a query and returns raw row tuples in column order.
func (d *DB) queryTuples(query string, args ...interface{}) (tuples [][]interface{}, err error) {
	d.log(query, args)
	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		dests := make([]interface{}, len(columns))
		for i := range values {
			dests[i] = &values[i]
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, err
		}
		tuples = append(tuples, values)
	}
	return tuples, rows.Err()
}

// scalars collects the first column of every row as strings.
func (d *DB) scalars(query string, args ...interface{}) ([]string, error) {
	tuples, err := d.queryTuples(query, args...)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(tuples))
	for _, tuple := range tuples {
		if len(tuple) > 0 {
			out = append(out, asString(tuple[0]))
		}
	}
	return out, nil
}

func asString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	}
	return fmt.Sprint(value)
}

func asInt(value interface{}) int {
	switch v := value.(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case uint32:
		return int(v)
	case uint64:
		return int(v)
	case float64:
		return int(v)
	}
	var n int
	fmt.Sscanf(asString(value), "%d", &n)
	return n
}

func asBool(value interface{}) bool {
	if v, ok := value.(bool); ok {
		return v
	}
	s := asString(value)
	return s == "t" || s == "true"
}
