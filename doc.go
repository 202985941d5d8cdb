// Package pgdb is a schema-aware convenience layer over a PostgreSQL
// connection. It turns raw row tuples into typed records and synthesizes
// parameterized get, insert, update, upsert, delete and truncate statements
// without the caller writing SQL.
//
// # Overview
//
// A DB wraps a transport connection and lazily caches each table's primary
// key and attribute types from the system catalogs. The caches drive
// statement synthesis: key columns become WHERE conditions, attribute types
// pick the parameter preparation (boolean normalization, date keyword
// literals, binary and json escaping), and result rows are merged back into
// the caller's record with the reverse transforms applied.
//
// Key features include:
//   - Record-based CRUD without hand-written SQL
//   - Lazily populated, explicitly flushable metadata caches
//   - Composite primary keys in index key order
//   - Upsert with per-column conflict resolution
//   - Table-qualified OID bookkeeping across multiple tables
//   - Table privilege checks with per-session caching
//
// # Basic Usage
//
// Wrap a connection and operate on records:
//
//	d := pgdb.NewDB(conn, logger.StandardLogger)
//
//	// Insert a record; server-computed defaults are merged back
//	row := pgdb.Record{"name": "Alice", "email": "alice@example.com"}
//	d.Insert("users", row)
//
//	// Get a row by primary key
//	row = pgdb.Record{"id": 1}
//	d.Get("users", row)
//
//	// Change it and write it back
//	row["name"] = "Bob"
//	d.Update("users", row)
//
//	// Insert or update atomically
//	d.Upsert("users", pgdb.Record{"id": 1, "name": "Carol"}, nil)
//
//	// Delete it
//	deleted, _ := d.Delete("users", pgdb.Record{"id": 1})
//
// # Records
//
// A Record is a mutable mapping of column name to value. CRUD operations
// mutate it in place: Insert and Update reload it with the values actually
// stored, so defaults and trigger effects become visible. When a table has
// OIDs, the row's OID is kept under the synthetic key "oid(<table>)" (see
// OidKey), so one record can safely span several OID-bearing tables.
//
// # Metadata Caches
//
// Attributes and PrimaryKeyColumns populate per-instance caches on first
// use. The caches key on the table name exactly as supplied and stay valid
// until FlushAttributes or FlushPrimaryKeys is called, which may be
// necessary after the schema or the search path has changed. The absence of
// a primary key is cached as well, so repeated lookups against keyless
// tables don't hit the catalog again. UseRegtypes switches the attribute
// cache from simplified type classes to regular catalog type names.
//
// # Qualified Names
//
// Table names without a dot are escaped as identifiers automatically. A
// name containing a dot is ambiguous (schema separator or literal dot) and
// is passed through verbatim; such names must be quoted by the caller.
//
// # Transports
//
// The transport is any value implementing Queryer; adapters for the
// github.com/gopsql/db interface (gopsql/standard, gopsql/pq, gopsql/pgx)
// satisfy it as is. Optional capabilities (identifier and bytea escaping,
// json encoding, server version reporting, notification delivery) are
// detected once at construction and have built-in fallbacks.
//
// # Concurrency
//
// A DB, its caches and its connection belong to a single goroutine; no
// internal locking is performed. A second goroutine must use a second DB
// with its own connection.
package pgdb
