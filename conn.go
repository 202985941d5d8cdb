package pgdb

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gopsql/db"
)

type (
	// Queryer is the query execution capability every transport must
	// provide. Any github.com/gopsql/db implementation (gopsql/standard,
	// gopsql/pq, gopsql/pgx) satisfies it without modification.
	Queryer interface {
		Query(query string, args ...interface{}) (db.Rows, error)
		Exec(query string, args ...interface{}) (db.Result, error)
		Close() error
	}

	// Escaper is an optional transport capability for identifier and
	// binary escaping. Transports that don't implement it get a built-in
	// PostgreSQL-syntax fallback.
	Escaper interface {
		EscapeIdentifier(name string) string
		EscapeBytea(data []byte) string
		UnescapeBytea(s string) ([]byte, error)
	}

	// JSONCoder is an optional transport capability for encoding and
	// decoding json values. The fallback uses encoding/json.
	JSONCoder interface {
		EncodeJSON(value interface{}) (string, error)
		DecodeJSON(s string) (interface{}, error)
	}

	// VersionReporter is an optional transport capability reporting the
	// server version as an integer, e.g. 90500 for PostgreSQL 9.5.
	// Without it, the version is read once from
	// current_setting('server_version_num').
	VersionReporter interface {
		ServerVersionNumber() int
	}

	// Notification is a payload received on a LISTEN channel.
	Notification struct {
		Channel string
		PID     int
		Payload string
	}

	// NotificationReceiver is an optional transport capability delivering
	// asynchronous notifications. It is required only by
	// NotificationHandler.
	NotificationReceiver interface {
		Notifications() <-chan Notification
	}
)

var ErrBadBytea = errors.New("malformed bytea representation")

// defaultEscaper implements Escaper with plain PostgreSQL escaping rules.
type defaultEscaper struct{}

func (defaultEscaper) EscapeIdentifier(name string) string {
	return `"` + strings.Replace(name, `"`, `""`, -1) + `"`
}

func (defaultEscaper) EscapeBytea(data []byte) string {
	return `\x` + hex.EncodeToString(data)
}

// UnescapeBytea decodes both the hex format introduced in PostgreSQL 9.0
// and the traditional escape format.
func (defaultEscaper) UnescapeBytea(s string) ([]byte, error) {
	if strings.HasPrefix(s, `\x`) {
		data, err := hex.DecodeString(s[2:])
		if err != nil {
			return nil, ErrBadBytea
		}
		return data, nil
	}
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); {
		if s[i] != '\\' {
			out = append(out, s[i])
			i++
			continue
		}
		if i+1 < len(s) && s[i+1] == '\\' {
			out = append(out, '\\')
			i += 2
			continue
		}
		if i+3 < len(s) && isOctal(s[i+1]) && isOctal(s[i+2]) && isOctal(s[i+3]) {
			out = append(out, (s[i+1]-'0')<<6|(s[i+2]-'0')<<3|(s[i+3]-'0'))
			i += 4
			continue
		}
		return nil, ErrBadBytea
	}
	return out, nil
}

func isOctal(c byte) bool {
	return c >= '0' && c <= '7'
}

// defaultJSONCoder implements JSONCoder with encoding/json.
type defaultJSONCoder struct{}

func (defaultJSONCoder) EncodeJSON(value interface{}) (string, error) {
	j, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(j), nil
}

func (defaultJSONCoder) DecodeJSON(s string) (interface{}, error) {
	var value interface{}
	if err := json.Unmarshal([]byte(s), &value); err != nil {
		return nil, err
	}
	return value, nil
}
