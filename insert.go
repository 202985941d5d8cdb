package pgdb

import (
	"fmt"
	"strings"
)

// Insert inserts row into a database table. Entries of row that are not
// attributes of the table are ignored; a plain "oid" entry is never
// inserted. The record is then reloaded in place with the values actually
// inserted, picking up values modified by rules, triggers, defaults, etc.
func (d *DB) Insert(table string, row Record) error {
	if err := d.valid(); err != nil {
		return err
	}
	if row == nil {
		return fmt.Errorf("insert into %s: %w", table, ErrNilRecord)
	}
	table = trimDescendantHint(table)
	delete(row, "oid")
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
	ret := "*"
	if qoid != "" {
		ret = "oid, *"
	}
	var text string
	if len(names) == 0 {
		text = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING %s",
			d.escapeQualifiedName(table), ret)
	} else {
		text = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
			d.escapeQualifiedName(table),
			strings.Join(names, ", "), strings.Join(values, ", "), ret)
	}
	records, err := d.query(statement{text, params})
	if err != nil {
		return err
	}
	if len(records) > 0 { // this should always be true
		return d.mergeRow(row, records[0], attrs, qoid)
	}
	return nil
}
