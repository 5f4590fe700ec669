package database

import (
	"context"
	"embed"
	"io/fs"
	"testing"
	"time"
)

//go:embed testdata/*.sql
var testMigrationsFS embed.FS

func testMigrations(t *testing.T) fs.FS {
	t.Helper()
	sub, err := fs.Sub(testMigrationsFS, "testdata")
	if err != nil {
		t.Fatalf("fs.Sub() error = %v", err)
	}
	return sub
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name,
	).Scan(&count)
	if err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	return count == 1
}

func TestMigrate(t *testing.T) {
	db := openTestDBWith(t, func(c *Config) { c.Migrations = testMigrations(t) })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if !tableExists(t, db, "test_samples") {
		t.Fatal("table test_samples not created")
	}

	applied, pending, err := db.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if len(applied) != 1 {
		t.Errorf("expected 1 applied migration, got %d", len(applied))
	}
	if len(pending) != 0 {
		t.Errorf("expected 0 pending migrations, got %d", len(pending))
	}
	if applied[0].AppliedAt.IsZero() {
		t.Error("AppliedAt should be recorded")
	}

	// Running again should be idempotent
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestMigrateDown(t *testing.T) {
	db := openTestDBWith(t, func(c *Config) { c.Migrations = testMigrations(t) })
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := db.MigrateDown(ctx); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}

	if tableExists(t, db, "test_samples") {
		t.Error("table test_samples should have been dropped")
	}

	applied, _, err := db.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("expected 0 applied migrations after rollback, got %d", len(applied))
	}
}

func TestMigrateNoMigrations(t *testing.T) {
	db := openTestDB(t)

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() with no migrations error = %v", err)
	}
	if !tableExists(t, db, "schema_migrations") {
		t.Error("schema_migrations should exist even with no migrations")
	}
}

func TestGetMigrationStatus_Pending(t *testing.T) {
	db := openTestDBWith(t, func(c *Config) { c.Migrations = testMigrations(t) })
	ctx := context.Background()

	if err := db.createMigrationsTable(ctx); err != nil {
		t.Fatalf("createMigrationsTable() error = %v", err)
	}

	applied, pending, err := db.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("expected 0 applied, got %d", len(applied))
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending, got %d", len(pending))
	}
	if pending[0].Name != "create_samples" {
		t.Errorf("pending[0].Name = %q, want create_samples", pending[0].Name)
	}
	if pending[0].DownSQL == "" {
		t.Error("pending[0].DownSQL should be loaded")
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		wantVersion string
		wantIsUp    bool
		wantOk      bool
	}{
		{
			name:        "valid up migration",
			filename:    "20260301_000000_coordinates.up.sql",
			wantVersion: "20260301_000000",
			wantIsUp:    true,
			wantOk:      true,
		},
		{
			name:        "valid down migration",
			filename:    "20260301_000000_coordinates.down.sql",
			wantVersion: "20260301_000000",
			wantIsUp:    false,
			wantOk:      true,
		},
		{name: "not sql file", filename: "readme.txt", wantOk: false},
		{name: "missing direction", filename: "20260301_000000_coordinates.sql", wantOk: false},
		{name: "invalid format", filename: "invalid.up.sql", wantOk: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, isUp, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOk {
				t.Errorf("ok = %v, want %v", ok, tt.wantOk)
			}
			if ok {
				if version != tt.wantVersion {
					t.Errorf("version = %v, want %v", version, tt.wantVersion)
				}
				if isUp != tt.wantIsUp {
					t.Errorf("isUp = %v, want %v", isUp, tt.wantIsUp)
				}
			}
		})
	}
}

func TestExtractMigrationName(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"20260301_000000_coordinates.up.sql", "coordinates"},
		{"20260301_000000_coordinates.down.sql", "coordinates"},
		{"20260302_120000_add_axis_index.up.sql", "add_axis_index"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := extractMigrationName(tt.filename); got != tt.want {
				t.Errorf("extractMigrationName(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}
