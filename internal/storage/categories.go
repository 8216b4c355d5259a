package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/julianstephens/daytrack/internal/constants"
	"github.com/julianstephens/daytrack/internal/models"
)

// LoadCategories returns all categories in insertion order
func (e *Engine) LoadCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := e.withDB(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, "SELECT id, name, color, icon FROM categories ORDER BY rowid")
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var c models.Category
			var name, color, icon sql.NullString
			if err := rows.Scan(&c.ID, &name, &color, &icon); err != nil {
				return err
			}
			c.Name, c.Color, c.Icon = name.String, color.String, icon.String
			categories = append(categories, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	return categories, nil
}

// InsertCategory upserts c by id
func (e *Engine) InsertCategory(ctx context.Context, c models.Category) error {
	return e.mutate(ctx, func(db *sql.DB) error {
		_, err := db.ExecContext(ctx,
			"INSERT OR REPLACE INTO categories (id, name, color, icon) VALUES (?, ?, ?, ?)",
			c.ID, c.Name, c.Color, c.Icon)
		if err != nil {
			return fmt.Errorf("failed to save category %s: %w", c.ID, err)
		}
		return nil
	})
}

// DeleteCategoryRow removes a category and moves its tasks to the fallback
// category in the same transaction
func (e *Engine) DeleteCategoryRow(ctx context.Context, id string) error {
	return e.mutate(ctx, func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to delete category %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE tasks SET categoryId = ? WHERE categoryId = ?",
			constants.FallbackCategoryID, id); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to reassign tasks of category %s: %w", id, err)
		}
		return tx.Commit()
	})
}
