package pgdb

import (
	"errors"
	"fmt"
	"strings"
)

// Get fetches a single row from a database table or view and merges it into
// row. The key columns are taken from keyname if given, otherwise from the
// table's primary key, otherwise from the row's OID. The record must carry
// values for all key columns. ErrNoSuchRecord is returned when no row
// matches.
//
// The row's OID, if the table has one, is stored under the synthetic key
// OidKey(table), so that records spanning several tables don't collide on a
// plain "oid" entry.
func (d *DB) Get(table string, row Record, keyname ...string) error {
	if err := d.valid(); err != nil {
		return err
	}
	if row == nil {
		return fmt.Errorf("get from %s: %w", table, ErrNilRecord)
	}
	table = trimDescendantHint(table)
	attrs, err := d.Attributes(table)
	if err != nil {
		return err
	}
	qoid := ""
	if attrs.Has("oid") {
		qoid = OidKey(table)
	}
	liftOid(row, qoid)
	keys := keyname
	if len(keys) == 0 {
		if keys, err = d.resolveKeyColumns(table, row, qoid); err != nil {
			return err
		}
	} else if !row.hasAll(keys) {
		return fmt.Errorf("get from %s: %w", table, ErrMissingKeyValue)
	}
	params := []interface{}{}
	where, err := d.keyCondition(table, keys, row, attrs, &params)
	if err != nil {
		return err
	}
	stowOid(row, qoid)
	what := "*"
	if qoid != "" {
		what = "oid, *"
	}
	stmt := statement{
		text: fmt.Sprintf("SELECT %s FROM %s WHERE %s LIMIT 1",
			what, d.escapeQualifiedName(table), where),
		params: params,
	}
	records, err := d.query(stmt)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("%w in %s where %s with %s",
			ErrNoSuchRecord, table, where, listParams(params))
	}
	return d.mergeRow(row, records[0], attrs, qoid)
}

// GetByKey is like Get but takes the key values positionally and returns a
// fresh record. The values must correspond to keyname, or to the table's
// primary key columns if no keyname is given.
func (d *DB) GetByKey(table string, values []interface{}, keyname ...string) (Record, error) {
	if err := d.valid(); err != nil {
		return nil, err
	}
	keys := keyname
	if len(keys) == 0 {
		var err error
		if keys, err = d.PrimaryKeyColumns(trimDescendantHint(table)); err != nil {
			return nil, err
		}
	}
	if len(keys) != len(values) {
		return nil, fmt.Errorf("get from %s: %w", table, ErrKeyValueMismatch)
	}
	row := make(Record, len(keys))
	for i, key := range keys {
		row[key] = values[i]
	}
	if err := d.Get(table, row, keys...); err != nil {
		return nil, err
	}
	return row, nil
}

// resolveKeyColumns picks the key columns for a row operation: the table's
// primary key if all of its columns have values in the row, otherwise the
// row's OID.
func (d *DB) resolveKeyColumns(table string, row Record, qoid string) ([]string, error) {
	keys, err := d.PrimaryKeyColumns(table)
	if err != nil {
		if errors.Is(err, ErrNoPrimaryKey) && qoid != "" && row.Has("oid") {
			return []string{"oid"}, nil
		}
		return nil, err
	}
	if !row.hasAll(keys) {
		if qoid != "" && row.Has("oid") {
			return []string{"oid"}, nil
		}
		return nil, fmt.Errorf("table %s: %w", table, ErrMissingKeyValue)
	}
	return keys, nil
}

// keyCondition builds the WHERE condition matching the key columns,
// appending the prepared key values to params.
func (d *DB) keyCondition(table string, keys []string, row Record, attrs *AttrMap, params *[]interface{}) (string, error) {
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		typ, ok := attrs.TypeOf(key)
		if !ok {
			return "", fmt.Errorf("column %s of table %s: %w", key, table, ErrUnknownColumn)
		}
		fragment, err := d.prepareParam(row[key], typ, params)
		if err != nil {
			return "", err
		}
		parts = append(parts, d.escapeIdentifier(key)+" = "+fragment)
	}
	return strings.Join(parts, " AND "), nil
}

// liftOid copies the table-qualified OID entry to the plain oid key, so key
// resolution can fall back to it.
func liftOid(row Record, qoid string) {
	if qoid != "" && row.Has(qoid) && !row.Has("oid") {
		row["oid"] = row[qoid]
	}
}

// stowOid moves the plain oid entry back under the table-qualified key.
func stowOid(row Record, qoid string) {
	if row.Has("oid") {
		if qoid != "" {
			row[qoid] = row["oid"]
		}
		delete(row, "oid")
	}
}
