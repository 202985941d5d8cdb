package pgdb

import (
	"fmt"
	"strings"
)

// Update updates an existing row in a database table. The row to update is
// located by the table's primary key or by the OID previously stored under
// OidKey(table) by Get. Every non-key attribute present in the record goes
// into the SET clause; if there is nothing to set, the record is returned
// unchanged without a statement being sent.
//
// The record is modified in place to reflect changes caused by triggers,
// rules, default values, etc. If the key matches no row, the record is left
// as is; the caller may be operating against a stale row, which is not an
// error.
func (d *DB) Update(table string, row Record) error {
	if err := d.valid(); err != nil {
		return err
	}
	if row == nil {
		return fmt.Errorf("update %s: %w", table, ErrNilRecord)
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
	// a plain oid entry is dropped for safety; the OID has to come from
	// the table-qualified key
	delete(row, "oid")
	liftOid(row, qoid)
	keys, err := d.resolveKeyColumns(table, row, qoid)
	if err != nil {
		return err
	}
	params := []interface{}{}
	where, err := d.keyCondition(table, keys, row, attrs, &params)
	if err != nil {
		return err
	}
	stowOid(row, qoid)
	keyset := map[string]bool{}
	for _, key := range keys {
		keyset[key] = true
	}
	assignments := []string{}
	for _, name := range attrs.Names() {
		value, ok := row[name]
		if !ok || keyset[name] {
			continue
		}
		typ, _ := attrs.TypeOf(name)
		fragment, err := d.prepareParam(value, typ, &params)
		if err != nil {
			return err
		}
		assignments = append(assignments, d.escapeIdentifier(name)+" = "+fragment)
	}
	if len(assignments) == 0 {
		return nil
	}
	ret := "*"
	if qoid != "" {
		ret = "oid, *"
	}
	stmt := statement{
		text: fmt.Sprintf("UPDATE %s SET %s WHERE %s RETURNING %s",
			d.escapeQualifiedName(table),
			strings.Join(assignments, ", "), where, ret),
		params: params,
	}
	records, err := d.query(stmt)
	if err != nil {
		return err
	}
	if len(records) > 0 { // may be empty when the row does not exist
		return d.mergeRow(row, records[0], attrs, qoid)
	}
	return nil
}
