package coordinate

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/nerrad567/waveform-core/internal/infrastructure/database"
)

const opInsert = "coordinate.insert"

// Conn is the part of *sql.Conn the gateway uses.
type Conn interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Gateway inserts coordinates on a caller-supplied connection.
// It holds no connection of its own and is safe for concurrent use.
type Gateway struct {
	dialect database.Dialect

	// cached is the resolved insert statement when the statement cache is
	// enabled, and "" otherwise.
	cached string
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithStatementCache resolves the insert statement once and sends it
// without an explicit prepare round trip.
//
// Without it every Insert re-resolves the template and prepares the
// statement on the connection, which costs one extra round trip per row.
func WithStatementCache() Option {
	return func(g *Gateway) {
		g.cached = resolveInsert(g.dialect)
	}
}

// NewGateway creates a gateway speaking dialect d.
func NewGateway(d database.Dialect, opts ...Option) *Gateway {
	g := &Gateway{dialect: d}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Insert appends c as one row and returns the row as stored.
//
// An empty result is reported as KindNotFound. Statement failures are
// KindQuery and undecodable rows are KindMapping. If the engine returns
// several rows the last one wins. No transaction is opened, so the row's
// fate on a KindQuery failure is whatever the engine's auto-commit does.
func (g *Gateway) Insert(ctx context.Context, conn Conn, c Coordinate) (Coordinate, error) {
	var (
		rows *sql.Rows
		err  error
	)

	if g.cached != "" {
		rows, err = conn.QueryContext(ctx, g.cached, c.args()...)
	} else {
		var stmt *sql.Stmt
		stmt, err = conn.PrepareContext(ctx, resolveInsert(g.dialect))
		if err != nil {
			return Coordinate{}, &Error{Kind: KindQuery, Op: opInsert, Err: fmt.Errorf("preparing: %w", err)}
		}
		defer stmt.Close()
		rows, err = stmt.QueryContext(ctx, c.args()...)
	}
	if err != nil {
		return Coordinate{}, &Error{Kind: KindQuery, Op: opInsert, Err: err}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return Coordinate{}, &Error{Kind: KindQuery, Op: opInsert, Err: err}
	}

	var (
		stored Coordinate
		found  bool
	)
	for rows.Next() {
		vals := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return Coordinate{}, &Error{Kind: KindMapping, Op: opInsert, Err: err}
		}

		stored, err = decodeRow(cols, vals)
		if err != nil {
			return Coordinate{}, &Error{Kind: KindMapping, Op: opInsert, Err: err}
		}
		found = true
	}
	if err := rows.Err(); err != nil {
		return Coordinate{}, &Error{Kind: KindQuery, Op: opInsert, Err: err}
	}

	if !found {
		return Coordinate{}, &Error{Kind: KindNotFound, Op: opInsert}
	}
	return stored, nil
}

// decodeRow builds a Coordinate from one result row. Columns are matched
// by name, case-insensitively; extra columns are ignored.
func decodeRow(cols []string, vals []any) (Coordinate, error) {
	var (
		c                   Coordinate
		haveValue, haveAxis bool
	)

	for i, col := range cols {
		switch strings.ToLower(col) {
		case "value":
			v, err := decodeValue(vals[i])
			if err != nil {
				return Coordinate{}, err
			}
			c.Value, haveValue = v, true
		case "axis":
			a, err := decodeAxis(vals[i])
			if err != nil {
				return Coordinate{}, err
			}
			c.Axis, haveAxis = a, true
		}
	}

	if !haveValue {
		return Coordinate{}, fmt.Errorf("missing column %q", "value")
	}
	if !haveAxis {
		return Coordinate{}, fmt.Errorf("missing column %q", "axis")
	}
	return c, nil
}

func decodeValue(v any) (int16, error) {
	var n int64
	switch t := v.(type) {
	case int64:
		n = t
	case int32:
		n = int64(t)
	case int16:
		n = int64(t)
	case nil:
		return 0, fmt.Errorf("column %q is NULL", "value")
	default:
		return 0, fmt.Errorf("column %q has type %T, want integer", "value", v)
	}

	if n < -1<<15 || n > 1<<15-1 {
		return 0, fmt.Errorf("column %q value %d overflows int16", "value", n)
	}
	return int16(n), nil
}

func decodeAxis(v any) (Axis, error) {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case []byte:
		s = string(t)
	case nil:
		return "", fmt.Errorf("column %q is NULL", "axis")
	default:
		return "", fmt.Errorf("column %q has type %T, want text", "axis", v)
	}

	a := Axis(s)
	if !a.Valid() {
		return "", fmt.Errorf("column %q has unknown tag %q", "axis", s)
	}
	return a, nil
}
