package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/julianstephens/daytrack/internal/models"
)

// LoadSubtasks returns all subtasks ordered by position, then creation time
func (e *Engine) LoadSubtasks(ctx context.Context) ([]models.Subtask, error) {
	var subtasks []models.Subtask
	err := e.withDB(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, `
			SELECT id, taskId, title, completed, createdAt, updatedAt, position
			FROM subtasks
			ORDER BY position ASC, createdAt ASC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var s models.Subtask
			var taskID, title, createdAt, updatedAt sql.NullString
			var completed, position sql.NullInt64
			if err := rows.Scan(&s.ID, &taskID, &title, &completed, &createdAt, &updatedAt, &position); err != nil {
				return err
			}
			s.TaskID = taskID.String
			s.Title = title.String
			s.Completed = completed.Int64 != 0
			s.Position = int(position.Int64)
			if s.CreatedAt, err = parseTime(createdAt.String); err != nil {
				return fmt.Errorf("subtask %s: invalid createdAt %q: %w", s.ID, createdAt.String, err)
			}
			if s.UpdatedAt, err = parseTime(updatedAt.String); err != nil {
				return fmt.Errorf("subtask %s: invalid updatedAt %q: %w", s.ID, updatedAt.String, err)
			}
			subtasks = append(subtasks, s)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load subtasks: %w", err)
	}
	return subtasks, nil
}

// InsertSubtask upserts s by id
func (e *Engine) InsertSubtask(ctx context.Context, s models.Subtask) error {
	return e.InsertSubtasks(ctx, []models.Subtask{s})
}

// InsertSubtasks upserts every subtask in one transaction and persists once
func (e *Engine) InsertSubtasks(ctx context.Context, subtasks []models.Subtask) error {
	if len(subtasks) == 0 {
		return nil
	}
	return e.mutate(ctx, func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		for _, s := range subtasks {
			completed := 0
			if s.Completed {
				completed = 1
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT OR REPLACE INTO subtasks (id, taskId, title, completed, createdAt, updatedAt, position)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, s.ID, s.TaskID, s.Title, completed, formatTime(s.CreatedAt), formatTime(s.UpdatedAt), s.Position); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("failed to save subtask %s: %w", s.ID, err)
			}
		}
		return tx.Commit()
	})
}

// DeleteSubtaskRow removes a subtask by id
func (e *Engine) DeleteSubtaskRow(ctx context.Context, id string) error {
	return e.mutate(ctx, func(db *sql.DB) error {
		if _, err := db.ExecContext(ctx, "DELETE FROM subtasks WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete subtask %s: %w", id, err)
		}
		return nil
	})
}
