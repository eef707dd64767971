package storage

import (
	"fmt"
	"regexp"
)

// DefaultTable is the record table created when none is configured.
const DefaultTable = "test_table"

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SchemaSQL returns the create-if-not-exists statement for the record table.
func SchemaSQL(table string) (string, error) {
	if table == "" {
		table = DefaultTable
	}
	// The name is interpolated, so it must be a plain identifier.
	if !identifierPattern.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`, table), nil
}
