package database

import "errors"

// Pool acquisition errors.
var (
	// ErrPoolTimeout is returned when no connection became available within
	// the configured acquire timeout.
	ErrPoolTimeout = errors.New("database: timed out waiting for a pooled connection")

	// ErrPoolClosed is returned when acquiring from a closed pool.
	ErrPoolClosed = errors.New("database: pool is closed")

	// ErrPoolUnavailable is returned when the driver could not open a new
	// connection for the pool.
	ErrPoolUnavailable = errors.New("database: could not open a pooled connection")
)

// Configuration errors.
var (
	// ErrUnknownDriver is returned by Open for drivers other than sqlite3 and postgres.
	ErrUnknownDriver = errors.New("database: unknown driver")
)
