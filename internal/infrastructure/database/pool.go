package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Acquire checks a single connection out of the pool.
//
// It waits at most the configured acquire timeout (or until ctx ends) and
// never retries. Failures wrap one of ErrPoolTimeout, ErrPoolClosed or
// ErrPoolUnavailable, or the caller's context error. The caller must Close
// the returned connection to hand it back.
//
// Parameters:
//   - ctx: Context bounding the wait
//
// Returns:
//   - *sql.Conn: Dedicated connection
//   - error: If no connection could be checked out
func (db *DB) Acquire(ctx context.Context) (*sql.Conn, error) {
	if db.closed.Load() {
		return nil, ErrPoolClosed
	}

	waitCtx := ctx
	if db.acquireTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, db.acquireTimeout)
		defer cancel()
	}

	conn, err := db.DB.Conn(waitCtx)
	if err == nil {
		return conn, nil
	}

	switch {
	case db.closed.Load():
		return nil, ErrPoolClosed
	case ctx.Err() != nil:
		// The caller gave up; not a pool fault.
		return nil, fmt.Errorf("acquiring connection: %w", ctx.Err())
	case errors.Is(err, context.DeadlineExceeded):
		return nil, fmt.Errorf("%w after %s", ErrPoolTimeout, db.acquireTimeout)
	default:
		return nil, fmt.Errorf("%w: %w", ErrPoolUnavailable, err)
	}
}
