package database

import "strconv"

// Dialect identifies the SQL flavour spoken by the open database.
// Its value is the database/sql driver name.
type Dialect string

// Supported dialects.
const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

// Placeholder returns the bind parameter marker for the n-th (1-based)
// argument: "?" for SQLite and "$n" for PostgreSQL.
func (d Dialect) Placeholder(n int) string {
	if d == DialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Valid reports whether d is a supported dialect.
func (d Dialect) Valid() bool {
	return d == DialectSQLite || d == DialectPostgres
}
