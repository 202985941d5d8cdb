package pgdb

import (
	"fmt"
	"sort"
	"strings"
)

type (
	// AttrMap is a read-only mapping of a table's attribute names to their
	// type names, in catalog attribute order. The type names are semantic
	// type classes (see SimpleType) unless UseRegtypes has been enabled.
	AttrMap struct {
		names []string
		types map[string]string
	}

	pkeyEntry struct {
		columns []string
		exists  bool
	}

	privilegeKey struct {
		table     string
		privilege string
	}
)

// Names returns the attribute names in catalog attribute order.
func (a *AttrMap) Names() []string {
	return append([]string(nil), a.names...)
}

// TypeOf returns the type of the named attribute.
func (a *AttrMap) TypeOf(name string) (string, bool) {
	typ, ok := a.types[name]
	return typ, ok
}

// Has reports whether the table has the named attribute.
func (a *AttrMap) Has(name string) bool {
	_, ok := a.types[name]
	return ok
}

// Len returns the number of attributes.
func (a *AttrMap) Len() int {
	return len(a.names)
}

// qualifiedParam wraps a positional parameter holding a table name in
// quote_ident(), unless the name contains a dot, in which case the name is
// ambiguous (could be schema-qualified or contain a literal dot) and the
// caller bears quoting responsibility.
func qualifiedParam(name string, position int) string {
	param := fmt.Sprintf("$%d", position)
	if !strings.Contains(name, ".") {
		param = "quote_ident(" + param + ")"
	}
	return param
}

// Attributes returns the attribute names and types of a table, in catalog
// attribute order, including a synthetic oid entry when the table has OIDs.
// The result is cached until FlushAttributes is called. The cache keys on
// the exact table name string as supplied.
func (d *DB) Attributes(table string) (*AttrMap, error) {
	if err := d.valid(); err != nil {
		return nil, err
	}
	if attrs, ok := d.attnames[table]; ok {
		return attrs, nil
	}
	regtype := ""
	if d.regtypes {
		regtype = "::regtype"
	}
	q := fmt.Sprintf("SELECT a.attname, t.typname%s"+
		" FROM pg_attribute a"+
		" JOIN pg_type t ON t.oid = a.atttypid"+
		" WHERE a.attrelid = %s::regclass"+
		" AND (a.attnum > 0 OR a.attname = 'oid')"+
		" AND NOT a.attisdropped ORDER BY a.attnum",
		regtype, qualifiedParam(table, 1))
	tuples, err := d.queryTuples(q, table)
	if err != nil {
		return nil, err
	}
	attrs := &AttrMap{types: make(map[string]string, len(tuples))}
	for _, tuple := range tuples {
		name, typ := asString(tuple[0]), asString(tuple[1])
		if !d.regtypes {
			typ = SimpleType(typ)
		}
		attrs.names = append(attrs.names, name)
		attrs.types[name] = typ
	}
	d.attnames[table] = attrs
	return attrs, nil
}

// FlushAttributes empties the attribute cache. This may be necessary after
// the database schema or the search path has been changed.
func (d *DB) FlushAttributes() {
	d.attnames = map[string]*AttrMap{}
	if d.logger != nil {
		d.logger.Debug("the attribute cache has been flushed")
	}
}

// Regtypes reports whether regular type names are used instead of
// simplified type names.
func (d *DB) Regtypes() bool {
	return d.regtypes
}

// UseRegtypes switches between regular and simplified type names in the
// attribute cache. Changing the mode invalidates the cache, since cached
// types must be recomputed.
func (d *DB) UseRegtypes(regtypes bool) {
	if regtypes != d.regtypes {
		d.regtypes = regtypes
		d.attnames = map[string]*AttrMap{}
	}
}

// PrimaryKey returns the primary key column of a table. Tables with a
// composite primary key yield ErrCompositePrimaryKey; use PrimaryKeyColumns
// for those. Tables without a primary key yield ErrNoPrimaryKey.
func (d *DB) PrimaryKey(table string) (string, error) {
	columns, err := d.PrimaryKeyColumns(table)
	if err != nil {
		return "", err
	}
	if len(columns) > 1 {
		return "", fmt.Errorf("table %s: %w", table, ErrCompositePrimaryKey)
	}
	return columns[0], nil
}

// PrimaryKeyColumns returns the primary key columns of a table in the order
// defined by the primary key index, which for composite keys is not
// necessarily the order of the columns in the table. The result, including
// the absence of a primary key, is cached until FlushPrimaryKeys is called.
func (d *DB) PrimaryKeyColumns(table string) ([]string, error) {
	if err := d.valid(); err != nil {
		return nil, err
	}
	if entry, ok := d.pkeys[table]; ok {
		if !entry.exists {
			return nil, fmt.Errorf("table %s: %w", table, ErrNoPrimaryKey)
		}
		return append([]string(nil), entry.columns...), nil
	}
	q := fmt.Sprintf("SELECT a.attname, a.attnum, i.indkey FROM pg_index i"+
		" JOIN pg_attribute a ON a.attrelid = i.indrelid"+
		" AND a.attnum = ANY(i.indkey)"+
		" AND NOT a.attisdropped"+
		" WHERE i.indrelid=%s::regclass"+
		" AND i.indisprimary ORDER BY a.attnum",
		qualifiedParam(table, 1))
	tuples, err := d.queryTuples(q, table)
	if err != nil {
		return nil, err
	}
	if len(tuples) == 0 {
		d.pkeys[table] = pkeyEntry{}
		return nil, fmt.Errorf("table %s: %w", table, ErrNoPrimaryKey)
	}
	columns := make([]string, len(tuples))
	if len(tuples) > 1 {
		// use the order defined by the primary key index, not the
		// order of the columns in the table
		order := indexKeyOrder(asString(tuples[0][2]))
		sort.SliceStable(tuples, func(i, j int) bool {
			return order[asInt(tuples[i][1])] < order[asInt(tuples[j][1])]
		})
	}
	for i, tuple := range tuples {
		columns[i] = asString(tuple[0])
	}
	d.pkeys[table] = pkeyEntry{columns: columns, exists: true}
	return append([]string(nil), columns...), nil
}

// indexKeyOrder parses the space-separated attribute numbers of an
// int2vector index key into a attnum -> position map.
func indexKeyOrder(indkey string) map[int]int {
	order := map[int]int{}
	for i, field := range strings.Fields(indkey) {
		var attnum int
		fmt.Sscanf(field, "%d", &attnum)
		order[attnum] = i
	}
	return order
}

// FlushPrimaryKeys empties the primary key cache. This may be necessary
// after the database schema or the search path has been changed.
func (d *DB) FlushPrimaryKeys() {
	d.pkeys = map[string]pkeyEntry{}
	if d.logger != nil {
		d.logger.Debug("the primary key cache has been flushed")
	}
}

// HasTablePrivilege checks whether the current user has the specified table
// privilege (select if empty). Results are cached per table and privilege
// for the lifetime of the DB; use a fresh DB if grants change.
func (d *DB) HasTablePrivilege(table, privilege string) (bool, error) {
	if err := d.valid(); err != nil {
		return false, err
	}
	if privilege == "" {
		privilege = "select"
	}
	privilege = strings.ToLower(privilege)
	key := privilegeKey{table, privilege}
	if granted, ok := d.privileges[key]; ok {
		return granted, nil
	}
	q := fmt.Sprintf("SELECT has_table_privilege(%s, $2)", qualifiedParam(table, 1))
	tuples, err := d.queryTuples(q, table, privilege)
	if err != nil {
		return false, err
	}
	granted := len(tuples) > 0 && len(tuples[0]) > 0 && asBool(tuples[0][0])
	d.privileges[key] = granted
	return granted, nil
}

// Databases returns the names of all databases in the system.
func (d *DB) Databases() ([]string, error) {
	if err := d.valid(); err != nil {
		return nil, err
	}
	return d.scalars("SELECT datname FROM pg_database")
}

// Relations returns the qualified names of relations of the given kinds
// ('r' for tables, 'v' for views, ...) in the connected database. With no
// kinds, all kinds of relations are returned.
func (d *DB) Relations(kinds ...string) ([]string, error) {
	if err := d.valid(); err != nil {
		return nil, err
	}
	where := ""
	if len(kinds) > 0 {
		quoted := make([]string, len(kinds))
		for i, kind := range kinds {
			quoted[i] = "'" + kind + "'"
		}
		where = " AND r.relkind IN (" + strings.Join(quoted, ",") + ")"
	}
	q := "SELECT quote_ident(s.nspname)||'.'||quote_ident(r.relname)" +
		" FROM pg_class r" +
		" JOIN pg_namespace s ON s.oid = r.relnamespace" +
		" WHERE s.nspname NOT SIMILAR" +
		" TO 'pg/_%|information/_schema' ESCAPE '/'" + where +
		" ORDER BY s.nspname, r.relname"
	return d.scalars(q)
}

// Tables returns the qualified names of all tables in the connected
// database.
func (d *DB) Tables() ([]string, error) {
	return d.Relations("r")
}
