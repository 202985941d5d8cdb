package pgdb

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

var boolTrueValues = map[string]bool{
	"t": true, "true": true, "1": true, "y": true, "yes": true, "on": true,
}

// Date and time keyword literals that must be emitted as bare SQL.
// Quoting them as parameters would change their meaning.
var dateLiterals = map[string]bool{
	"current_date":      true,
	"current_time":      true,
	"current_timestamp": true,
	"localtime":         true,
	"localtimestamp":    true,
}

// prepareParam converts value according to its semantic type class, appends
// it to params and returns the SQL fragment referencing it, usually a
// positional placeholder. Values that prepare to "no value" (empty string
// for bool and numeric classes, falsy dates) yield an inline NULL with no
// parameter appended, so the placeholder count always equals the parameter
// count.
func (d *DB) prepareParam(value interface{}, typ string, params *[]interface{}) (string, error) {
	if value != nil && typ != TypeText {
		switch typ {
		case TypeBool:
			if s, ok := value.(string); ok {
				if s == "" {
					return "NULL", nil
				}
				value = boolTrueValues[strings.ToLower(s)]
			}
			if truthy(value) {
				value = "t"
			} else {
				value = "f"
			}
		case TypeDate:
			if s, ok := value.(string); ok && dateLiterals[strings.ToLower(s)] {
				return s, nil
			}
			if !truthy(value) {
				return "NULL", nil
			}
		case TypeInt, TypeNum, TypeFloat, TypeMoney:
			if s, ok := value.(string); ok && s == "" {
				return "NULL", nil
			}
		case TypeBytea:
			value = d.escapeBytea(toBytes(value))
		case TypeJSON:
			encoded, err := d.encodeJSON(value)
			if err != nil {
				return "", fmt.Errorf("preparing json parameter: %w", err)
			}
			value = encoded
		}
	}
	*params = append(*params, value)
	return fmt.Sprintf("$%d", len(*params)), nil
}

// truthy reports whether value would be considered non-empty: false, zero
// numbers, empty strings, zero time values and empty containers are not.
func truthy(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case time.Time:
		return !v.IsZero()
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

func toBytes(value interface{}) []byte {
	switch v := value.(type) {
	case []byte:
		return v
	case string:
		return []byte(v)
	}
	return []byte(fmt.Sprint(value))
}

// listParams renders a parameter list for diagnostics. Parameters have
// already been through type-specific preparation, so binary and json values
// appear in their escaped form.
func listParams(params []interface{}) string {
	parts := make([]string, len(params))
	for i, v := range params {
		parts[i] = fmt.Sprintf("$%d=%#v", i+1, v)
	}
	return strings.Join(parts, ", ")
}
