// Package records maps rows of the record table to Go values and provides
// the repository and the client-side filter and sort over them.
package records

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"recordbook/internal/errors"
)

// Record is one row of the record table. Records are created by insert and
// removed by delete; the repository never updates them.
type Record struct {
	ID        int64     `json:"id" yaml:"id" toml:"id"`
	Name      string    `json:"name" yaml:"name" toml:"name"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at" toml:"created_at"`
}

// Column positions of a record row.
const (
	colID = iota
	colName
	colCreatedAt
	rowArity
)

// timestampLayouts are the text forms SQLite and the driver produce for
// DATETIME values.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02",
}

// RecordFromRow maps a (id, name, created_at) row by position.
func RecordFromRow(row []interface{}) (Record, error) {
	if len(row) != rowArity {
		return Record{}, rowError(fmt.Sprintf("expected %d columns, got %d", rowArity, len(row)), row)
	}

	id, err := toInt64(row[colID])
	if err != nil {
		return Record{}, rowError("id: "+err.Error(), row)
	}

	var name string
	switch v := row[colName].(type) {
	case string:
		name = v
	case []byte:
		name = string(v)
	default:
		return Record{}, rowError(fmt.Sprintf("name: unexpected type %T", row[colName]), row)
	}

	created, err := toTime(row[colCreatedAt])
	if err != nil {
		return Record{}, rowError("created_at: "+err.Error(), row)
	}

	return Record{ID: id, Name: name, CreatedAt: created}, nil
}

func rowError(msg string, row []interface{}) error {
	return errors.NewDatabaseError(errors.DatabaseFailure, "malformed record row: "+msg, nil).
		WithDetails(map[string]interface{}{"row": row})
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}

func toTime(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t, nil
	case int64:
		return time.Unix(t, 0).UTC(), nil
	case string:
		return ParseTimestamp(t)
	case []byte:
		return ParseTimestamp(string(t))
	default:
		return time.Time{}, fmt.Errorf("unexpected type %T", v)
	}
}

// ParseTimestamp parses a stored DATETIME value. Values without a zone are
// UTC, which is what CURRENT_TIMESTAMP writes.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// FormatDate renders t in loc with layout. The zero time renders empty.
func FormatDate(t time.Time, layout string, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if layout == "" {
		layout = time.DateTime
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(layout)
}

// LoadLocation resolves a configured timezone name; "" and "Local" are the
// process zone.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}
