package pgdb

// Record is a single logical row as a mutable mapping of column name to
// value. CRUD operations mutate it in place to reflect server-computed
// defaults, trigger effects and returned columns. When the table has OIDs,
// the row's OID is stored under the synthetic key returned by OidKey, so a
// record can carry OIDs of several tables without collision.
type Record map[string]interface{}

// Has reports whether the record carries a value for the named column.
func (r Record) Has(name string) bool {
	_, ok := r[name]
	return ok
}

func (r Record) hasAll(names []string) bool {
	for _, name := range names {
		if !r.Has(name) {
			return false
		}
	}
	return true
}

// OidKey builds the synthetic record key carrying a row's OID for the named
// table.
func OidKey(table string) string {
	return "oid(" + table + ")"
}

// mergeRow merges a result row into the caller's record: the raw oid column
// is renamed to the table-qualified synthetic key and bytea values coming
// back in their escaped string form are reverse-transformed. Everything
// else passes through unchanged.
func (d *DB) mergeRow(row, result Record, attrs *AttrMap, qoid string) error {
	for name, value := range result {
		if qoid != "" && name == "oid" {
			row[qoid] = value
			continue
		}
		if value != nil {
			if typ, ok := attrs.TypeOf(name); ok && typ == TypeBytea {
				if s, ok := value.(string); ok {
					data, err := d.UnescapeBytea(s)
					if err != nil {
						return err
					}
					value = data
				}
			}
		}
		row[name] = value
	}
	return nil
}

// Clear resets all attributes of a record to values determined by their
// types: numeric types to 0, booleans to false and everything else to the
// empty string. Entries of row that are not attributes of the table are
// left unchanged. A nil row yields a fresh record.
func (d *DB) Clear(table string, row Record) (Record, error) {
	if row == nil {
		row = Record{}
	}
	attrs, err := d.Attributes(table)
	if err != nil {
		return nil, err
	}
	for _, name := range attrs.Names() {
		if name == "oid" {
			continue
		}
		typ, _ := attrs.TypeOf(name)
		switch {
		case numTypes[typ]:
			row[name] = 0
		case typ == TypeBool || typ == "boolean":
			row[name] = false
		default:
			row[name] = ""
		}
	}
	return row, nil
}

// numTypes covers both the simplified numeric classes and the catalog type
// names seen in regtypes mode.
var numTypes = map[string]bool{
	TypeInt: true, TypeFloat: true, TypeNum: true, TypeMoney: true,
	"int2": true, "int4": true, "int8": true,
	"float4": true, "float8": true, "numeric": true,
}
