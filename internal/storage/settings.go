package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/julianstephens/daytrack/internal/logger"
	"github.com/julianstephens/daytrack/internal/models"
)

// LoadSettingsMap returns the raw key/value settings rows
func (e *Engine) LoadSettingsMap(ctx context.Context) (map[string]string, error) {
	settings := make(map[string]string)
	err := e.withDB(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, "SELECT key, value FROM settings")
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var key string
			var value sql.NullString
			if err := rows.Scan(&key, &value); err != nil {
				return err
			}
			settings[key] = value.String
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

// LoadSettings returns typed settings. Unknown keys and unparseable values
// fall back to defaults.
func (e *Engine) LoadSettings(ctx context.Context) (models.Settings, error) {
	raw, err := e.LoadSettingsMap(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	settings, err := models.SettingsFromMap(raw)
	if err != nil {
		logger.Warn("Ignoring invalid stored setting", "error", err)
	}
	return settings, nil
}

// SaveSetting stores a single setting value
func (e *Engine) SaveSetting(ctx context.Context, key, value string) error {
	return e.mutate(ctx, func(db *sql.DB) error {
		if _, err := db.ExecContext(ctx, "INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", key, value); err != nil {
			return fmt.Errorf("failed to save setting %s: %w", key, err)
		}
		return nil
	})
}
