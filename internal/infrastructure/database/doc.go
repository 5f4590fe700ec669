// Package database provides the pooled relational store for Waveform Core.
//
// This package manages:
//   - Opening a database/sql pool for SQLite (mattn/go-sqlite3) or
//     PostgreSQL (lib/pq)
//   - Bounded connection checkout via Acquire
//   - Dialect-specific bind placeholders
//   - Embedded schema migrations
//
// Security Considerations:
//   - All queries use parameterised statements
//   - SQLite database files are restricted to 0600
//   - PostgreSQL passwords come from the environment and are never logged
//
// Usage:
//
//	db, err := database.Open(database.Config{
//	    Driver:         database.DialectSQLite,
//	    Path:           "./data/waveform.db",
//	    AcquireTimeout: 5 * time.Second,
//	    Migrations:     migrations.FS(),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	conn, err := db.Acquire(ctx)
//	if err != nil {
//	    return err // wraps ErrPoolTimeout, ErrPoolClosed or ErrPoolUnavailable
//	}
//	defer conn.Close()
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with an
// optional matching .down.sql, and must be valid for both dialects.
package database
