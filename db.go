package pgdb

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gopsql/logger"
)

var (
	// ErrClosed is returned by every operation on a DB whose underlying
	// connection has been released with Close().
	ErrClosed = errors.New("connection is not valid")

	// ErrNoPrimaryKey is returned when a table has no primary key. The
	// outcome is cached, so repeated lookups do not hit the catalog again.
	ErrNoPrimaryKey = errors.New("table has no primary key")

	// ErrCompositePrimaryKey is returned by PrimaryKey for tables whose
	// primary key spans multiple columns; use PrimaryKeyColumns instead.
	ErrCompositePrimaryKey = errors.New("table has a composite primary key")

	// ErrNoSuchRecord is returned by Get when no row matches the key.
	ErrNoSuchRecord = errors.New("no such record")

	// ErrMissingKeyValue is returned when a record lacks a value for one
	// of the resolved key columns.
	ErrMissingKeyValue = errors.New("missing value for key column")

	// ErrNilRecord is returned when a nil record is passed to an operation
	// that mutates it in place.
	ErrNilRecord = errors.New("record must not be nil")

	// ErrUnknownColumn is returned when a key name is not an attribute of
	// the table.
	ErrUnknownColumn = errors.New("no such column in table")

	// ErrKeyValueMismatch is returned when the number of key columns and
	// key values differ.
	ErrKeyValueMismatch = errors.New("differing number of key columns and values")

	// ErrContradictoryOnly is returned by Truncate when a table name ends
	// with the descendant hint '*' but ONLY was requested for it as well.
	ErrContradictoryOnly = errors.New("contradictory table name and only options")

	// ErrUpsertUnsupported is returned by Upsert when the server predates
	// the ON CONFLICT clause (PostgreSQL 9.5).
	ErrUpsertUnsupported = errors.New("upsert is not supported by this server version")
)

// DB wraps a transport connection with a metadata cache and dynamic
// statement synthesis for get, insert, update, upsert, delete and truncate
// without writing SQL by hand.
//
// A DB and its caches belong to a single goroutine. The underlying transport
// allows one in-flight statement at a time and this layer adds no locking;
// another goroutine must use its own DB with its own connection.
type DB struct {
	conn      Queryer
	logger    logger.Logger
	escaper   Escaper
	jsonCoder JSONCoder
	reporter  VersionReporter

	regtypes      bool
	serverVersion int

	attnames   map[string]*AttrMap
	pkeys      map[string]pkeyEntry
	privileges map[privilegeKey]bool
}

// NewDB wraps a transport connection. Optional transport capabilities
// (Escaper, JSONCoder, VersionReporter) are detected here once; transports
// lacking them get built-in fallbacks. For available options, see
// SetOptions().
func NewDB(conn Queryer, options ...interface{}) *DB {
	d := &DB{
		conn:       conn,
		attnames:   map[string]*AttrMap{},
		pkeys:      map[string]pkeyEntry{},
		privileges: map[privilegeKey]bool{},
	}
	if e, ok := conn.(Escaper); ok {
		d.escaper = e
	} else {
		d.escaper = defaultEscaper{}
	}
	if c, ok := conn.(JSONCoder); ok {
		d.jsonCoder = c
	} else {
		d.jsonCoder = defaultJSONCoder{}
	}
	if r, ok := conn.(VersionReporter); ok {
		d.reporter = r
	}
	d.SetOptions(options...)
	return d
}

// SetOptions sets the logger (see SetLogger()) and/or overrides detected
// transport capabilities.
func (d *DB) SetOptions(options ...interface{}) *DB {
	for _, option := range options {
		switch o := option.(type) {
		case logger.Logger:
			d.SetLogger(o)
		case Escaper:
			d.escaper = o
		case JSONCoder:
			d.jsonCoder = o
		case VersionReporter:
			d.reporter = o
		}
	}
	return d
}

// Set the logger for the DB. Use logger.StandardLogger if you want to use
// Go's built-in standard logging package. By default, no logger is used, so
// the SQL statements are not printed to the console.
func (d *DB) SetLogger(logger logger.Logger) *DB {
	d.logger = logger
	return d
}

func (d *DB) log(query string, params []interface{}) {
	if d.logger == nil {
		return
	}
	if len(params) == 0 {
		d.logger.Debug(query)
		return
	}
	d.logger.Debug(query, listParams(params))
}

func (d *DB) valid() error {
	if d.conn == nil {
		return ErrClosed
	}
	return nil
}

// Close releases the underlying connection. Any further operation on this
// DB fails with ErrClosed.
func (d *DB) Close() error {
	if d.conn == nil {
		return ErrClosed
	}
	err := d.conn.Close()
	d.conn = nil
	return err
}

// Query executes an arbitrary row-returning SQL statement and collects the
// result as records keyed by column name. The statement may contain
// positional placeholders ($1, $2, ...) matched by args.
func (d *DB) Query(query string, args ...interface{}) ([]Record, error) {
	if err := d.valid(); err != nil {
		return nil, err
	}
	return d.query(statement{query, args})
}

// Exec executes an arbitrary SQL statement that returns no rows and reports
// the number of rows affected.
func (d *DB) Exec(query string, args ...interface{}) (int, error) {
	if err := d.valid(); err != nil {
		return 0, err
	}
	return d.execute(statement{query, args})
}

func (d *DB) run(query string) error {
	if err := d.valid(); err != nil {
		return err
	}
	_, err := d.execute(statement{text: query})
	return err
}

// Begin starts a transaction. An optional mode string (e.g. "ISOLATION
// LEVEL SERIALIZABLE") is appended verbatim.
func (d *DB) Begin(mode ...string) error {
	query := "BEGIN"
	if len(mode) > 0 && mode[0] != "" {
		query += " " + mode[0]
	}
	return d.run(query)
}

// Commit commits the current transaction.
func (d *DB) Commit() error {
	return d.run("COMMIT")
}

// Rollback aborts the current transaction.
func (d *DB) Rollback() error {
	return d.run("ROLLBACK")
}

// RollbackTo rolls back to a previously defined savepoint.
func (d *DB) RollbackTo(name string) error {
	return d.run("ROLLBACK TO " + name)
}

// Savepoint defines a new savepoint within the current transaction.
func (d *DB) Savepoint(name string) error {
	return d.run("SAVEPOINT " + name)
}

// ReleaseSavepoint destroys a previously defined savepoint.
func (d *DB) ReleaseSavepoint(name string) error {
	return d.run("RELEASE " + name)
}

// Transaction runs block inside a transaction. The transaction is rolled
// back if block returns an error or panics, committed otherwise.
func (d *DB) Transaction(block func() error) (err error) {
	if err = d.Begin(); err != nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			d.Rollback()
			if rerr, ok := r.(error); ok {
				err = rerr
			} else {
				err = errors.New(fmt.Sprint(r))
			}
		} else if err != nil {
			d.Rollback()
		} else {
			err = d.Commit()
		}
	}()
	err = block()
	return
}

// GetParameter returns the current setting of a run-time parameter.
func (d *DB) GetParameter(parameter string) (string, error) {
	if err := d.valid(); err != nil {
		return "", err
	}
	parameter = strings.ToLower(strings.TrimSpace(parameter))
	if parameter == "" {
		return "", fmt.Errorf("%w: empty parameter name", ErrUnknownColumn)
	}
	tuples, err := d.queryTuples("SHOW " + parameter)
	if err != nil {
		return "", err
	}
	if len(tuples) == 0 || len(tuples[0]) == 0 {
		return "", nil
	}
	return asString(tuples[0][0]), nil
}

// GetParameters returns all run-time parameters and their settings.
func (d *DB) GetParameters() (map[string]string, error) {
	if err := d.valid(); err != nil {
		return nil, err
	}
	tuples, err := d.queryTuples("SHOW ALL")
	if err != nil {
		return nil, err
	}
	values := make(map[string]string, len(tuples))
	for _, tuple := range tuples {
		if len(tuple) >= 2 {
			values[asString(tuple[0])] = asString(tuple[1])
		}
	}
	return values, nil
}

// SetParameter sets a run-time parameter. With local set, the command takes
// effect for the current transaction only.
func (d *DB) SetParameter(parameter, value string, local bool) error {
	scope := ""
	if local {
		scope = " LOCAL"
	}
	return d.run(fmt.Sprintf("SET%s %s TO %s", scope, parameter, value))
}

// ResetParameter restores a run-time parameter to its default value.
func (d *DB) ResetParameter(parameter string, local bool) error {
	scope := ""
	if local {
		scope = " LOCAL"
	}
	return d.run(fmt.Sprintf("RESET%s %s", scope, parameter))
}

// serverVersionNumber reports the server version, preferring the transport's
// own report and falling back to a single current_setting query whose result
// is cached for the connection's lifetime.
func (d *DB) serverVersionNumber() int {
	if d.reporter != nil {
		return d.reporter.ServerVersionNumber()
	}
	if d.serverVersion == 0 {
		tuples, err := d.queryTuples("SELECT current_setting('server_version_num')")
		if err == nil && len(tuples) > 0 && len(tuples[0]) > 0 {
			d.serverVersion = asInt(tuples[0][0])
		}
	}
	return d.serverVersion
}

func (d *DB) escapeIdentifier(name string) string {
	return d.escaper.EscapeIdentifier(name)
}

// escapeQualifiedName escapes a table name for use as an SQL identifier,
// unless the name contains a dot, in which case the name is ambiguous
// (could be a qualified name or just a name with a dot in it) and must be
// quoted by the caller.
func (d *DB) escapeQualifiedName(name string) string {
	if !strings.Contains(name, ".") {
		return d.escaper.EscapeIdentifier(name)
	}
	return name
}

func (d *DB) escapeBytea(data []byte) string {
	return d.escaper.EscapeBytea(data)
}

// UnescapeBytea reverses the binary escape transform of the transport.
func (d *DB) UnescapeBytea(s string) ([]byte, error) {
	return d.escaper.UnescapeBytea(s)
}

func (d *DB) encodeJSON(value interface{}) (string, error) {
	return d.jsonCoder.EncodeJSON(value)
}

// DecodeJSON decodes a JSON string coming from the database.
func (d *DB) DecodeJSON(s string) (interface{}, error) {
	return d.jsonCoder.DecodeJSON(s)
}

// trimDescendantHint strips the legacy trailing '*' hint for descendant
// tables from a table name. It has no further effect on generated SQL.
func trimDescendantHint(table string) string {
	if strings.HasSuffix(table, "*") {
		table = strings.TrimRight(strings.TrimSuffix(table, "*"), " ")
	}
	return table
}
