package pgdb

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	t.Parallel()
	conn := &fakeConn{stubs: []stub{
		usersAttrStub(),
		usersPkeyStub(),
		{
			match:   "SELECT",
			columns: []string{"id", "name", "photo"},
			rows:    [][]interface{}{{1, "Alice", nil}},
		},
	}}
	d := NewDB(conn)
	row := Record{"id": 1}
	if err := d.Get("users", row); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	query, params := conn.last("SELECT *")
	if want := `SELECT * FROM "users" WHERE "id" = $1 LIMIT 1`; query != want {
		t.Errorf("query = %q, want %q", query, want)
	}
	if !reflect.DeepEqual(params, []interface{}{1}) {
		t.Errorf("params = %v", params)
	}
	if row["name"] != "Alice" {
		t.Errorf("row = %v, want merged name", row)
	}
	if row["photo"] != nil {
		t.Errorf("photo = %v, want nil", row["photo"])
	}
}

func TestGetNoSuchRecord(t *testing.T) {
	t.Parallel()
	conn := &fakeConn{stubs: []stub{usersAttrStub(), usersPkeyStub()}}
	d := NewDB(conn)
	err := d.Get("users", Record{"id": 42})
	if !errors.Is(err, ErrNoSuchRecord) {
		t.Fatalf("Get() error = %v, want ErrNoSuchRecord", err)
	}
	// the error names the condition and the parameters for diagnostics
	if !strings.Contains(err.Error(), `"id" = $1`) || !strings.Contains(err.Error(), "$1=42") {
		t.Errorf("error lacks context: %v", err)
	}
}

func TestGetNilRecord(t *testing.T) {
	t.Parallel()
	d := NewDB(&fakeConn{})
	if err := d.Get("users", nil); !errors.Is(err, ErrNilRecord) {
		t.Errorf("Get(nil) error = %v, want ErrNilRecord", err)
	}
}

func TestGetExplicitKey(t *testing.T) {
	t.Parallel()
	conn := &fakeConn{stubs: []stub{
		usersAttrStub(),
		{match: "SELECT", columns: []string{"id", "name"}, rows: [][]interface{}{{7, "Bob"}}},
	}}
	d := NewDB(conn)
	row := Record{"name": "Bob"}
	if err := d.Get("users", row, "name"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	// explicit key names skip the primary key lookup entirely
	if n := conn.count("pg_index"); n != 0 {
		t.Errorf("primary key catalog was queried %d times, want 0", n)
	}
	query, _ := conn.last("SELECT *")
	if !strings.Contains(query, `"name" = $1`) {
		t.Errorf("query = %q", query)
	}

	if err := d.Get("users", Record{}, "name"); !errors.Is(err, ErrMissingKeyValue) {
		t.Errorf("Get() without key value error = %v, want ErrMissingKeyValue", err)
	}
	if err := d.Get("users", Record{"nope": 1}, "nope"); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("Get() with unknown key error = %v, want ErrUnknownColumn", err)
	}
}

func TestGetOidFallback(t *testing.T) {
	t.Parallel()
	conn := &fakeConn{stubs: []stub{
		{
			match:   "pg_type",
			columns: []string{"attname", "typname"},
			rows:    [][]interface{}{{"oid", "oid"}, {"body", "text"}},
		},
		{match: "pg_index"}, // no primary key
		{
			match:   "SELECT oid, *",
			columns: []string{"oid", "body"},
			rows:    [][]interface{}{{12345, "hello"}},
		},
	}}
	d := NewDB(conn)
	row := Record{OidKey("notes"): 12345}
	if err := d.Get("notes", row); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	query, params := conn.last("SELECT oid")
	if want := `SELECT oid, * FROM "notes" WHERE "oid" = $1 LIMIT 1`; query != want {
		t.Errorf("query = %q, want %q", query, want)
	}
	if !reflect.DeepEqual(params, []interface{}{12345}) {
		t.Errorf("params = %v", params)
	}
	if row[OidKey("notes")] != 12345 {
		t.Errorf("qualified oid = %v", row[OidKey("notes")])
	}
	if row.Has("oid") {
		t.Error("plain oid key leaked into the record")
	}
	if row["body"] != "hello" {
		t.Errorf("body = %v", row["body"])
	}
}

func TestGetDescendantHint(t *testing.T) {
	t.Parallel()
	conn := &fakeConn{stubs: []stub{
		usersAttrStub(),
		usersPkeyStub(),
		{match: "SELECT", columns: []string{"id"}, rows: [][]interface{}{{1}}},
	}}
	d := NewDB(conn)
	if err := d.Get("users *", Record{"id": 1}); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	query, _ := conn.last("SELECT *")
	if !strings.Contains(query, `FROM "users" `) {
		t.Errorf("descendant hint was not stripped: %q", query)
	}
}

func TestGetDottedTable(t *testing.T) {
	t.Parallel()
	conn := &fakeConn{stubs: []stub{
		usersAttrStub(),
		usersPkeyStub(),
		{match: "SELECT", columns: []string{"id"}, rows: [][]interface{}{{1}}},
	}}
	d := NewDB(conn)
	if err := d.Get(`public.users`, Record{"id": 1}); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	query, _ := conn.last("SELECT *")
	if !strings.Contains(query, `FROM public.users `) {
		t.Errorf("dotted table name was not passed verbatim: %q", query)
	}
}

func TestGetByteaMerge(t *testing.T) {
	t.Parallel()
	conn := &fakeConn{stubs: []stub{
		usersAttrStub(),
		usersPkeyStub(),
		{
			match:   "SELECT",
			columns: []string{"id", "photo"},
			rows:    [][]interface{}{{1, `\xdeadbeef`}},
		},
	}}
	d := NewDB(conn)
	row := Record{"id": 1}
	if err := d.Get("users", row); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	photo, ok := row["photo"].([]byte)
	if !ok || !bytes.Equal(photo, []byte{0xde, 0xad, 0xbe, 0xef}) {
		t.Errorf("photo = %#v, want unescaped bytes", row["photo"])
	}
}

func TestGetByKey(t *testing.T) {
	t.Parallel()
	conn := &fakeConn{stubs: []stub{
		usersAttrStub(),
		usersPkeyStub(),
		{match: "SELECT", columns: []string{"id", "name"}, rows: [][]interface{}{{1, "Alice"}}},
	}}
	d := NewDB(conn)
	row, err := d.GetByKey("users", []interface{}{1})
	if err != nil {
		t.Fatalf("GetByKey() error = %v", err)
	}
	if row["name"] != "Alice" {
		t.Errorf("row = %v", row)
	}

	if _, err := d.GetByKey("users", []interface{}{1, 2}); !errors.Is(err, ErrKeyValueMismatch) {
		t.Errorf("GetByKey() arity error = %v, want ErrKeyValueMismatch", err)
	}
}

func TestGetClosed(t *testing.T) {
	t.Parallel()
	d := NewDB(&fakeConn{})
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if err := d.Get("users", Record{"id": 1}); !errors.Is(err, ErrClosed) {
		t.Errorf("Get() after Close error = %v, want ErrClosed", err)
	}
}
