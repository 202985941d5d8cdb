package pgdb

import "testing"

func TestSimpleType(t *testing.T) {
	t.Parallel()
	tests := []struct {
		typname string
		want    string
	}{
		{"bool", TypeBool},
		{"boolean", TypeBool},
		{"abstime", TypeDate},
		{"date", TypeDate},
		{"interval", TypeDate},
		{"timestamp", TypeDate},
		{"timestamptz", TypeDate},
		{"cid", TypeInt},
		{"oid", TypeInt},
		{"int2", TypeInt},
		{"int4", TypeInt},
		{"int8", TypeInt},
		{"integer", TypeInt},
		{"xid", TypeInt},
		{"float4", TypeFloat},
		{"float8", TypeFloat},
		{"numeric", TypeNum},
		{"money", TypeMoney},
		{"bytea", TypeBytea},
		{"json", TypeJSON},
		{"jsonb", TypeJSON},
		{"text", TypeText},
		{"varchar", TypeText},
		{"name", TypeText},
		{"uuid", TypeText},
		{"", TypeText},
	}
	for _, tt := range tests {
		if got := SimpleType(tt.typname); got != tt.want {
			t.Errorf("SimpleType(%q) = %q, want %q", tt.typname, got, tt.want)
		}
	}
}
