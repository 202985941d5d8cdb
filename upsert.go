package pgdb

import (
	"fmt"
	"strings"
)

// Upsert inserts row into a database table, but instead of failing on a
// primary key conflict, updates the existing row as a single atomic
// operation. A primary key is required: the ON CONFLICT target names its
// columns, so tables without one yield ErrNoPrimaryKey.
//
// The updates map controls what happens to each non-key column on conflict.
// A false or nil value means the column is not touched, true means it is
// updated with the value proposed for insertion, and a string is used
// verbatim as the update expression; inside it, the existing row can be
// referenced as included.<column> and the proposed row as excluded.<column>.
// Non-key columns absent from the map are updated as if true had been
// given. Pass nil to update every non-key column from the proposed values.
//
// The record is modified in place to reflect the values in the database
// after the operation has completed; when every column resolves to "do
// nothing" and the insert conflicts, the existing row is re-fetched with
// Get.
//
// The statement uses the ON CONFLICT clause available since PostgreSQL 9.5;
// older servers yield ErrUpsertUnsupported.
func (d *DB) Upsert(table string, row Record, updates map[string]interface{}) error {
	if err := d.valid(); err != nil {
		return err
	}
	if row == nil {
		return fmt.Errorf("upsert into %s: %w", table, ErrNilRecord)
	}
	table = trimDescendantHint(table)
	delete(row, "oid") // do not insert oid
	attrs, err := d.Attributes(table)
	if err != nil {
		return err
	}
	qoid := ""
	if attrs.Has("oid") {
		qoid = OidKey(table)
	}
	params := []interface{}{}
	names, values := []string{}, []string{}
	for _, name := range attrs.Names() {
		value, ok := row[name]
		if !ok {
			continue
		}
		typ, _ := attrs.TypeOf(name)
		fragment, err := d.prepareParam(value, typ, &params)
		if err != nil {
			return err
		}
		names = append(names, d.escapeIdentifier(name))
		values = append(values, fragment)
	}
	keys, err := d.PrimaryKeyColumns(table)
	if err != nil {
		return err
	}
	target := make([]string, len(keys))
	keyset := map[string]bool{"oid": true}
	for i, key := range keys {
		target[i] = d.escapeIdentifier(key)
		keyset[key] = true
	}
	assignments := []string{}
	for _, name := range attrs.Names() {
		if keyset[name] {
			continue
		}
		value, ok := updates[name]
		if !ok {
			value = true
		}
		if !truthy(value) {
			continue
		}
		expression, ok := value.(string)
		if !ok {
			expression = "excluded." + d.escapeIdentifier(name)
		}
		assignments = append(assignments, d.escapeIdentifier(name)+" = "+expression)
	}
	if len(values) == 0 {
		return nil
	}
	do := "NOTHING"
	if len(assignments) > 0 {
		do = "UPDATE SET " + strings.Join(assignments, ", ")
	}
	ret := "*"
	if qoid != "" {
		ret = "oid, *"
	}
	stmt := statement{
		text: fmt.Sprintf("INSERT INTO %s AS included (%s) VALUES (%s)"+
			" ON CONFLICT (%s) DO %s RETURNING %s",
			d.escapeQualifiedName(table),
			strings.Join(names, ", "), strings.Join(values, ", "),
			strings.Join(target, ", "), do, ret),
		params: params,
	}
	records, err := d.query(stmt)
	if err != nil {
		if version := d.serverVersionNumber(); version > 0 && version < 90500 {
			return fmt.Errorf("%w (%d)", ErrUpsertUnsupported, version)
		}
		return err
	}
	if len(records) > 0 { // may be empty with "do nothing"
		return d.mergeRow(row, records[0], attrs, qoid)
	}
	return d.Get(table, row)
}
