package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/julianstephens/daytrack/internal/constants"
	"github.com/julianstephens/daytrack/internal/logger"
	"github.com/julianstephens/daytrack/internal/migration"
	"github.com/julianstephens/daytrack/internal/models"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// DefaultCategories are seeded into a fresh database
var DefaultCategories = []models.Category{
	{ID: "work", Name: "JIRA", Color: "#0d9488", Icon: "Briefcase"},
	{ID: "personal", Name: "Personal", Color: "#6366f1", Icon: "User"},
	{ID: "health", Name: "Health", Color: "#22c55e", Icon: "Heart"},
	{ID: "shopping", Name: "Shopping", Color: "#f59e0b", Icon: "ShoppingCart"},
	{ID: "learning", Name: "Learning", Color: "#ec4899", Icon: "BookOpen"},
}

// schemaMigrations returns the SQL file migrations plus the column patches.
// Column patches check pragma_table_info first because snapshots written
// before schema versioning may already carry some of the columns.
func schemaMigrations() ([]migration.Migration, error) {
	sub, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to access migrations: %w", err)
	}
	migrations, err := migration.ReadMigrationFiles(sub)
	if err != nil {
		return nil, err
	}

	return append(migrations,
		migration.Migration{Version: 2, Name: "task_recurrence", Patch: addTaskRecurrenceColumns},
		migration.Migration{Version: 4, Name: "subtask_position", Patch: addSubtaskPositionColumn},
	), nil
}

// LatestSchemaVersion returns the highest schema version this build knows.
func LatestSchemaVersion() (int, error) {
	migrations, err := schemaMigrations()
	if err != nil {
		return 0, err
	}
	return migration.NewRunner(nil, migrations...).GetLatestVersion()
}

func addTaskRecurrenceColumns(ctx context.Context, tx *sql.Tx) error {
	columns := []struct{ name, def string }{
		{"repeatType", "TEXT"},
		{"repeatInterval", "INTEGER"},
		{"seriesId", "TEXT"},
	}
	for _, c := range columns {
		if err := migration.AddColumnIfMissing(ctx, tx, "tasks", c.name, c.def); err != nil {
			return err
		}
	}
	return nil
}

func addSubtaskPositionColumn(ctx context.Context, tx *sql.Tx) error {
	return migration.AddColumnIfMissing(ctx, tx, "subtasks", "position", "INTEGER DEFAULT 0")
}

// migrate brings db up to the current schema and fills in missing default
// settings. It reports whether the database had no tasks table beforehand.
func migrate(ctx context.Context, db *sql.DB) (bool, error) {
	fresh, err := tableMissing(ctx, db, "tasks")
	if err != nil {
		return false, err
	}

	migrations, err := schemaMigrations()
	if err != nil {
		return false, err
	}
	runner := migration.NewRunner(db, migrations...)
	if _, err := runner.ApplyMigrations(ctx, func(msg string) {
		logger.Debug("Schema migration", "detail", msg)
	}); err != nil {
		return false, err
	}

	for _, key := range constants.SettingKeys {
		if _, err := db.ExecContext(ctx,
			"INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)",
			key, constants.DefaultSettings[key]); err != nil {
			return false, fmt.Errorf("failed to insert default setting %s: %w", key, err)
		}
	}

	if fresh {
		for _, c := range DefaultCategories {
			if _, err := db.ExecContext(ctx,
				"INSERT OR IGNORE INTO categories (id, name, color, icon) VALUES (?, ?, ?, ?)",
				c.ID, c.Name, c.Color, c.Icon); err != nil {
				return false, fmt.Errorf("failed to seed category %s: %w", c.ID, err)
			}
		}
	}
	return fresh, nil
}

func tableMissing(ctx context.Context, db *sql.DB, table string) (bool, error) {
	var count int
	if err := db.QueryRowContext(ctx,
		"SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}
