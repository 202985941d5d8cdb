package pgdb

import "fmt"

// Delete deletes a row from a database table, located by the table's
// primary key or by the OID previously stored under OidKey(table) by Get.
// It returns the number of deleted rows, which is 0 if the row did not
// exist and 1 if it was deleted; a zero match is not an error.
//
// If the row cannot be deleted because it is still referenced by another
// table, the server's error is returned unchanged.
func (d *DB) Delete(table string, row Record) (int, error) {
	if err := d.valid(); err != nil {
		return 0, err
	}
	if row == nil {
		return 0, fmt.Errorf("delete from %s: %w", table, ErrNilRecord)
	}
	table = trimDescendantHint(table)
	attrs, err := d.Attributes(table)
	if err != nil {
		return 0, err
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
		return 0, err
	}
	params := []interface{}{}
	where, err := d.keyCondition(table, keys, row, attrs, &params)
	if err != nil {
		return 0, err
	}
	stowOid(row, qoid)
	stmt := statement{
		text:   fmt.Sprintf("DELETE FROM %s WHERE %s", d.escapeQualifiedName(table), where),
		params: params,
	}
	return d.execute(stmt)
}
