package database

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"
)

// Migration filename parsing constants.
const (
	// migrationFilenameParts is the expected number of parts in a migration filename.
	// Format: YYYYMMDD_HHMMSS_description.up.sql (3 parts when split by "_")
	migrationFilenameParts = 3

	// minVersionParts is the minimum parts needed to extract a version.
	minVersionParts = 2
)

// Migration is one versioned schema change.
type Migration struct {
	// Version is YYYYMMDD_HHMMSS, taken from the filename.
	Version string
	Name    string
	UpSQL   string
	DownSQL string
}

// MigrationRecord represents a row in the schema_migrations table.
type MigrationRecord struct {
	Version   string
	AppliedAt time.Time
}

// Migrate applies all pending migrations in version order.
//
// Each migration runs in its own transaction together with its
// schema_migrations record. If migration N fails, migrations before it stay
// committed and re-running Migrate continues from N. The SQL must be valid
// for every dialect the service is deployed against.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: If any migration fails (that migration is rolled back)
func (db *DB) Migrate(ctx context.Context) error {
	if err := db.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	_, pending, err := db.GetMigrationStatus(ctx)
	if err != nil {
		return err
	}

	for _, m := range pending {
		if err := db.applyMigration(ctx, m); err != nil {
			return fmt.Errorf("applying migration %s (%s): %w", m.Version, m.Name, err)
		}
	}

	return nil
}

// MigrateDown rolls back the most recently applied migration.
// Used in development and tests.
func (db *DB) MigrateDown(ctx context.Context) error {
	applied, err := db.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("getting applied migrations: %w", err)
	}
	if len(applied) == 0 {
		return nil
	}
	latest := applied[len(applied)-1]

	migrations, err := loadMigrations(db.migrations)
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	var migration *Migration
	for i := range migrations {
		if migrations[i].Version == latest.Version {
			migration = &migrations[i]
			break
		}
	}
	if migration == nil {
		return fmt.Errorf("migration %s not found in filesystem", latest.Version)
	}
	if migration.DownSQL == "" {
		return fmt.Errorf("migration %s has no down SQL", latest.Version)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	if _, err := tx.ExecContext(ctx, migration.DownSQL); err != nil {
		return fmt.Errorf("executing down SQL: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM schema_migrations WHERE version = "+db.dialect.Placeholder(1),
		migration.Version,
	); err != nil {
		return fmt.Errorf("removing migration record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing rollback: %w", err)
	}
	return nil
}

// GetMigrationStatus returns applied records and the migrations still pending.
// The schema_migrations table must exist.
func (db *DB) GetMigrationStatus(ctx context.Context) (applied []MigrationRecord, pending []Migration, err error) {
	applied, err = db.getAppliedMigrations(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("getting applied migrations: %w", err)
	}

	migrations, err := loadMigrations(db.migrations)
	if err != nil {
		return nil, nil, fmt.Errorf("loading migrations: %w", err)
	}

	appliedSet := make(map[string]bool, len(applied))
	for _, m := range applied {
		appliedSet[m.Version] = true
	}

	for _, m := range migrations {
		if !appliedSet[m.Version] {
			pending = append(pending, m)
		}
	}

	return applied, pending, nil
}

func (db *DB) createMigrationsTable(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		)
	`)
	return err
}

func (db *DB) getAppliedMigrations(ctx context.Context) ([]MigrationRecord, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT version, applied_at FROM schema_migrations ORDER BY version",
	)
	if err != nil {
		return nil, fmt.Errorf("querying migrations: %w", err)
	}
	defer rows.Close()

	var records []MigrationRecord
	for rows.Next() {
		var r MigrationRecord
		var appliedAt string
		if err := rows.Scan(&r.Version, &appliedAt); err != nil {
			return nil, fmt.Errorf("scanning migration row: %w", err)
		}
		r.AppliedAt, _ = time.Parse(time.RFC3339, appliedAt) //nolint:errcheck // Format is controlled
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating migrations: %w", err)
	}
	return records, nil
}

func (db *DB) applyMigration(ctx context.Context, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	if _, err := tx.ExecContext(ctx, m.UpSQL); err != nil {
		return fmt.Errorf("executing SQL: %w", err)
	}

	insert := fmt.Sprintf("INSERT INTO schema_migrations (version, applied_at) VALUES (%s, %s)",
		db.dialect.Placeholder(1), db.dialect.Placeholder(2))
	if _, err := tx.ExecContext(ctx, insert,
		m.Version,
		time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("recording migration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration: %w", err)
	}
	return nil
}

// loadMigrations reads migration files from the root of fsys, oldest first.
// A nil fsys yields no migrations.
func loadMigrations(fsys fs.FS) ([]Migration, error) {
	if fsys == nil {
		return nil, nil
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	upFiles, downFiles := categoriseMigrationFiles(entries)

	migrations := make([]Migration, 0, len(upFiles))
	for version, upFile := range upFiles {
		m, err := buildMigration(fsys, version, upFile, downFiles[version])
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, m)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// categoriseMigrationFiles groups migration files by version and direction.
func categoriseMigrationFiles(entries []fs.DirEntry) (upFiles, downFiles map[string]string) {
	upFiles = make(map[string]string)
	downFiles = make(map[string]string)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		version, isUp, ok := parseMigrationFilename(name)
		if !ok {
			continue
		}

		if isUp {
			upFiles[version] = name
		} else {
			downFiles[version] = name
		}
	}

	return upFiles, downFiles
}

// parseMigrationFilename extracts version and direction from a migration filename.
func parseMigrationFilename(name string) (version string, isUp bool, ok bool) {
	base, found := strings.CutSuffix(name, ".sql")
	if !found {
		return "", false, false
	}

	switch {
	case strings.HasSuffix(base, ".up"):
		isUp = true
		base = strings.TrimSuffix(base, ".up")
	case strings.HasSuffix(base, ".down"):
		base = strings.TrimSuffix(base, ".down")
	default:
		return "", false, false
	}

	parts := strings.SplitN(base, "_", migrationFilenameParts)
	if len(parts) < minVersionParts {
		return "", false, false
	}

	return parts[0] + "_" + parts[1], isUp, true
}

func buildMigration(fsys fs.FS, version, upFile, downFile string) (Migration, error) {
	upSQL, err := fs.ReadFile(fsys, upFile)
	if err != nil {
		return Migration{}, fmt.Errorf("reading %s: %w", upFile, err)
	}

	m := Migration{
		Version: version,
		Name:    extractMigrationName(upFile),
		UpSQL:   string(upSQL),
	}

	if downFile != "" {
		downSQL, err := fs.ReadFile(fsys, downFile)
		if err != nil {
			return Migration{}, fmt.Errorf("reading %s: %w", downFile, err)
		}
		m.DownSQL = string(downSQL)
	}

	return m, nil
}

// extractMigrationName returns the description part of a migration filename.
// Example: "20260301_000000_coordinates.up.sql" -> "coordinates"
func extractMigrationName(filename string) string {
	base := strings.TrimSuffix(filename, ".sql")
	base = strings.TrimSuffix(base, ".up")
	base = strings.TrimSuffix(base, ".down")

	parts := strings.SplitN(base, "_", migrationFilenameParts)
	if len(parts) >= migrationFilenameParts {
		return parts[minVersionParts]
	}
	return base
}
