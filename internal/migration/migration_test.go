package migration

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func addNoteColumn(ctx context.Context, tx *sql.Tx) error {
	return AddColumnIfMissing(ctx, tx, "items", "note", "TEXT")
}

func testMigrations() []Migration {
	return []Migration{
		{Version: 2, Name: "item_note", Patch: addNoteColumn},
		{Version: 1, Name: "init", SQL: "CREATE TABLE IF NOT EXISTS items (id TEXT PRIMARY KEY, title TEXT);"},
	}
}

func TestGetCurrentVersionFreshDatabase(t *testing.T) {
	db := setupTestDB(t)
	runner := NewRunner(db, testMigrations()...)

	version, err := runner.GetCurrentVersion(context.Background())
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 0 {
		t.Errorf("expected version 0, got %d", version)
	}
}

func TestApplyMigrations(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	runner := NewRunner(db, testMigrations()...)

	var logs []string
	applied, err := runner.ApplyMigrations(ctx, func(s string) { logs = append(logs, s) })
	if err != nil {
		t.Fatalf("ApplyMigrations failed: %v", err)
	}
	if applied != 2 {
		t.Errorf("expected 2 migrations applied, got %d", applied)
	}
	if len(logs) == 0 {
		t.Error("expected log output")
	}

	version, err := runner.GetCurrentVersion(ctx)
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 2 {
		t.Errorf("expected version 2, got %d", version)
	}

	ok, err := ColumnExists(ctx, db, "items", "note")
	if err != nil {
		t.Fatalf("ColumnExists failed: %v", err)
	}
	if !ok {
		t.Error("expected note column after migration")
	}

	// Second run is a no-op
	applied, err = runner.ApplyMigrations(ctx, nil)
	if err != nil {
		t.Fatalf("second ApplyMigrations failed: %v", err)
	}
	if applied != 0 {
		t.Errorf("expected 0 migrations on second run, got %d", applied)
	}
}

func TestApplyMigrationsUnversionedLegacyDatabase(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	// Older builds created the full table without recording a version
	if _, err := db.Exec("CREATE TABLE items (id TEXT PRIMARY KEY, title TEXT, note TEXT)"); err != nil {
		t.Fatalf("failed to create legacy table: %v", err)
	}
	if _, err := db.Exec("INSERT INTO items (id, title, note) VALUES ('a', 'kept', 'n')"); err != nil {
		t.Fatalf("failed to insert legacy row: %v", err)
	}

	runner := NewRunner(db, testMigrations()...)
	if _, err := runner.ApplyMigrations(ctx, nil); err != nil {
		t.Fatalf("ApplyMigrations failed on legacy database: %v", err)
	}

	var title, note string
	if err := db.QueryRow("SELECT title, note FROM items WHERE id = 'a'").Scan(&title, &note); err != nil {
		t.Fatalf("legacy row lost: %v", err)
	}
	if title != "kept" || note != "n" {
		t.Errorf("legacy row changed: title=%q note=%q", title, note)
	}
}

func TestApplyMigrationsRejectsNewerDatabase(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	runner := NewRunner(db, testMigrations()...)

	if err := runner.EnsureSchemaVersionTable(ctx); err != nil {
		t.Fatalf("EnsureSchemaVersionTable failed: %v", err)
	}
	if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (9)"); err != nil {
		t.Fatalf("failed to set version: %v", err)
	}

	_, err := runner.ApplyMigrations(ctx, nil)
	if err == nil {
		t.Fatal("expected error for newer schema version")
	}
	if !strings.Contains(err.Error(), "newer than supported") {
		t.Errorf("unexpected error: %v", err)
	}
	if err := runner.ValidateVersion(ctx); err == nil {
		t.Error("expected ValidateVersion to fail")
	}
}

func TestFailedMigrationRollsBack(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	runner := NewRunner(db,
		Migration{Version: 1, Name: "init", SQL: "CREATE TABLE items (id TEXT PRIMARY KEY);"},
		Migration{Version: 2, Name: "broken", SQL: "CREATE TABLE other (id TEXT); NOT VALID SQL;"},
	)

	applied, err := runner.ApplyMigrations(ctx, nil)
	if err == nil {
		t.Fatal("expected error from broken migration")
	}
	if applied != 1 {
		t.Errorf("expected 1 applied migration, got %d", applied)
	}

	version, err := runner.GetCurrentVersion(ctx)
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 1 {
		t.Errorf("expected version to stay at 1, got %d", version)
	}
}

func TestSortedRejectsDuplicates(t *testing.T) {
	runner := NewRunner(nil,
		Migration{Version: 1, Name: "a"},
		Migration{Version: 1, Name: "b"},
	)
	if _, err := runner.Sorted(); err == nil {
		t.Error("expected duplicate version error")
	}

	runner = NewRunner(nil, Migration{Version: 0, Name: "zero"})
	if _, err := runner.Sorted(); err == nil {
		t.Error("expected error for version 0")
	}
}

func TestReadMigrationFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"001_init.sql":     {Data: []byte("CREATE TABLE a (id INTEGER);")},
		"003_more.sql":     {Data: []byte("CREATE TABLE c (id INTEGER);")},
		"README.md":        {Data: []byte("ignored")},
		"sub/004_skip.sql": {Data: []byte("ignored")},
	}

	migrations, err := ReadMigrationFiles(fsys)
	if err != nil {
		t.Fatalf("ReadMigrationFiles failed: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}

	latest, err := NewRunner(nil, migrations...).GetLatestVersion()
	if err != nil {
		t.Fatalf("GetLatestVersion failed: %v", err)
	}
	if latest != 3 {
		t.Errorf("expected latest version 3, got %d", latest)
	}

	if _, err := ReadMigrationFiles(fstest.MapFS{"bad.sql": {Data: []byte("")}}); err == nil {
		t.Error("expected error for malformed filename")
	}
}
