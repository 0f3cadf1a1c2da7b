package database

import (
	"fmt"
	"regexp"
)

// Dialect identifies the SQL flavour behind a driver.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

var numberedParam = regexp.MustCompile(`\$\d+`)

// DialectFor maps a database/sql driver name to its dialect.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "pgx", "postgres":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Rebind rewrites $n placeholders for the dialect. Queries must use each
// placeholder once and in order.
func (d Dialect) Rebind(query string) string {
	if d == SQLite {
		return numberedParam.ReplaceAllString(query, "?")
	}
	return query
}
