package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Database configuration constants.
const (
	// dirPermissions is the permission mode for the SQLite database directory.
	dirPermissions = 0750

	// filePermissions is the permission mode for the SQLite database file.
	filePermissions = 0600

	// msPerSecond converts seconds to milliseconds.
	msPerSecond = 1000

	// connectionTimeout is the timeout for verifying database connectivity.
	connectionTimeout = 5 * time.Second

	// postgresConnsPerCPU sizes the default PostgreSQL pool.
	postgresConnsPerCPU = 4
)

// DB wraps a sql.DB with dialect awareness, bounded pool acquisition and
// embedded migrations.
type DB struct {
	*sql.DB
	dialect        Dialect
	path           string
	acquireTimeout time.Duration
	migrations     fs.FS
	closed         atomic.Bool
}

// Config contains database configuration options.
type Config struct {
	// Driver selects the dialect. Empty means SQLite.
	Driver Dialect

	// Path is the filesystem path to the SQLite database file.
	// The directory will be created if it doesn't exist.
	Path string

	// WALMode enables Write-Ahead Logging on SQLite.
	WALMode bool

	// BusyTimeout is the maximum time to wait for a SQLite lock (seconds).
	BusyTimeout int

	// DSN is the PostgreSQL connection string. See PostgresDSN.
	DSN string

	// MaxOpenConns bounds the pool. Zero selects a driver default:
	// 1 for SQLite (single writer) and 4 per CPU for PostgreSQL.
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// AcquireTimeout bounds how long Acquire waits for a connection.
	// Zero waits until the caller's context ends.
	AcquireTimeout time.Duration

	// Migrations holds *.up.sql / *.down.sql files at its root.
	// Nil disables Migrate.
	Migrations fs.FS
}

// Open creates a connection pool and verifies it with a ping.
//
// For SQLite it also creates the database directory, applies the busy
// timeout and WAL pragmas, and restricts the file to 0600.
//
// Parameters:
//   - cfg: Database configuration
//
// Returns:
//   - *DB: Connected database wrapper
//   - error: If connection or configuration fails
func Open(cfg Config) (*DB, error) {
	if cfg.Driver == "" {
		cfg.Driver = DialectSQLite
	}
	if !cfg.Driver.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}

	var connStr string
	switch cfg.Driver {
	case DialectSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), dirPermissions); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
		connStr = sqliteDSN(cfg)
	case DialectPostgres:
		connStr = cfg.DSN
	}

	sqlDB, err := sql.Open(string(cfg.Driver), connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = defaultMaxOpen(cfg.Driver)
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle == 0 || maxIdle > maxOpen {
		maxIdle = maxOpen
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	db := &DB{
		DB:             sqlDB,
		dialect:        cfg.Driver,
		path:           cfg.Path,
		acquireTimeout: cfg.AcquireTimeout,
		migrations:     cfg.Migrations,
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		sqlDB.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("verifying database connection: %w", err)
	}

	if cfg.Driver == DialectSQLite {
		_ = os.Chmod(cfg.Path, filePermissions) //nolint:errcheck // File may not exist until first write
	}

	return db, nil
}

// sqliteDSN builds a go-sqlite3 connection string with pragmas.
// See: https://github.com/mattn/go-sqlite3#connection-string
func sqliteDSN(cfg Config) string {
	connStr := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on",
		cfg.Path,
		cfg.BusyTimeout*msPerSecond,
	)
	if cfg.WALMode {
		connStr += "&_journal_mode=WAL&_synchronous=NORMAL"
	}
	return connStr
}

func defaultMaxOpen(d Dialect) int {
	if d == DialectPostgres {
		return runtime.NumCPU() * postgresConnsPerCPU
	}
	return 1
}

// PostgresParams are the discrete connection settings for PostgreSQL.
type PostgresParams struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// PostgresDSN renders params as a lib/pq keyword/value connection string.
// Empty fields are omitted so libpq defaults apply.
func PostgresDSN(p PostgresParams) string {
	var parts []string
	add := func(key, value string) {
		if value != "" {
			parts = append(parts, key+"="+quoteDSNValue(value))
		}
	}

	add("host", p.Host)
	if p.Port > 0 {
		add("port", strconv.Itoa(p.Port))
	}
	add("user", p.User)
	add("password", p.Password)
	add("dbname", p.DBName)
	add("sslmode", p.SSLMode)

	return strings.Join(parts, " ")
}

// quoteDSNValue single-quotes values containing spaces, quotes or
// backslashes, escaping the latter two.
func quoteDSNValue(v string) string {
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

// Close closes the pool. Subsequent Acquire calls fail with ErrPoolClosed.
func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	db.closed.Store(true)
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// Dialect returns the SQL dialect of the open database.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Path returns the SQLite database file path, or "" for PostgreSQL.
func (db *DB) Path() string {
	return db.path
}

// HealthCheck verifies the database is accessible and functioning.
func (db *DB) HealthCheck(ctx context.Context) error {
	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// Stats returns connection pool statistics.
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}

// ExecContext executes a statement that doesn't return rows, wrapping errors.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	result, err := db.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	return result, nil
}

// BeginTx starts a new transaction with the given options.
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	tx, err := db.DB.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	return tx, nil
}
