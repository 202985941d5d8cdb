package pgdb

import "strings"

// Semantic type classes used to pick parameter preparation and reverse
// marshalling behavior. These are the simplified names stored in the
// attribute cache unless UseRegtypes has been enabled.
const (
	TypeBool  = "bool"
	TypeDate  = "date"
	TypeInt   = "int"
	TypeFloat = "float"
	TypeNum   = "num"
	TypeMoney = "money"
	TypeBytea = "bytea"
	TypeJSON  = "json"
	TypeText  = "text"
)

// SimpleType reduces a pg_type name to its semantic type class. The first
// matching prefix rule wins; unrecognized names classify as text.
func SimpleType(typname string) string {
	switch {
	case strings.HasPrefix(typname, "bool"):
		return TypeBool
	case hasAnyPrefix(typname, "abstime", "date", "interval", "timestamp"):
		return TypeDate
	case hasAnyPrefix(typname, "cid", "oid", "int", "xid"):
		return TypeInt
	case strings.HasPrefix(typname, "float"):
		return TypeFloat
	case strings.HasPrefix(typname, "numeric"):
		return TypeNum
	case strings.HasPrefix(typname, "money"):
		return TypeMoney
	case strings.HasPrefix(typname, "bytea"):
		return TypeBytea
	case strings.HasPrefix(typname, "json"):
		return TypeJSON
	}
	return TypeText
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
