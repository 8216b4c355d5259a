package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/julianstephens/daytrack/internal/constants"
	"github.com/julianstephens/daytrack/internal/models"
)

// timestampLayout matches the ISO-8601 UTC strings older snapshots contain
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

const taskColumns = `id, title, description, dueDate, dueTime, priority, status, categoryId,
	reminderType, reminderCustomMinutes, reminderNotified,
	createdAt, updatedAt, completedAt, repeatType, repeatInterval, seriesId`

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// LoadTasks returns all tasks, most recently updated first
func (e *Engine) LoadTasks(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	err := e.withDB(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, "SELECT "+taskColumns+" FROM tasks ORDER BY updatedAt DESC, rowid DESC")
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTask(rows)
			if err != nil {
				return err
			}
			tasks = append(tasks, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	return tasks, nil
}

// InsertTask upserts t by id, replacing the whole row
func (e *Engine) InsertTask(ctx context.Context, t models.Task) error {
	return e.mutate(ctx, func(db *sql.DB) error {
		var customMinutes sql.NullFloat64
		if t.Reminder.CustomMinutes != nil {
			customMinutes = sql.NullFloat64{Float64: *t.Reminder.CustomMinutes, Valid: true}
		}
		var repeatInterval sql.NullInt64
		if t.RepeatInterval != nil {
			repeatInterval = sql.NullInt64{Int64: int64(*t.RepeatInterval), Valid: true}
		}
		var seriesID sql.NullString
		if t.SeriesID != nil {
			seriesID = sql.NullString{String: *t.SeriesID, Valid: true}
		}
		var completedAt sql.NullString
		if t.CompletedAt != nil {
			completedAt = sql.NullString{String: formatTime(*t.CompletedAt), Valid: true}
		}
		notified := 0
		if t.Reminder.Notified {
			notified = 1
		}
		repeatType := t.RepeatType
		if repeatType == "" {
			repeatType = models.RepeatNone
		}

		_, err := db.ExecContext(ctx, `
			INSERT OR REPLACE INTO tasks (`+taskColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			t.ID, t.Title, t.Description, t.DueDate, t.DueTime,
			string(t.Priority), string(t.Status), t.CategoryID,
			string(t.Reminder.Type), customMinutes, notified,
			formatTime(t.CreatedAt), formatTime(t.UpdatedAt), completedAt,
			string(repeatType), repeatInterval, seriesID,
		)
		if err != nil {
			return fmt.Errorf("failed to save task %s: %w", t.ID, err)
		}
		return nil
	})
}

// DeleteTaskRow removes a task and its subtasks
func (e *Engine) DeleteTaskRow(ctx context.Context, id string) error {
	return e.mutate(ctx, func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM subtasks WHERE taskId = ?", id); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to delete subtasks of %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to delete task %s: %w", id, err)
		}
		return tx.Commit()
	})
}

func scanTask(rows *sql.Rows) (models.Task, error) {
	var (
		t                                          models.Task
		title, description, dueDate, dueTime       sql.NullString
		priority, status, categoryID, reminderType sql.NullString
		customMinutes                              sql.NullFloat64
		notified                                   sql.NullInt64
		createdAt, updatedAt, completedAt          sql.NullString
		repeatType, seriesID                       sql.NullString
		repeatInterval                             sql.NullInt64
	)
	if err := rows.Scan(
		&t.ID, &title, &description, &dueDate, &dueTime, &priority, &status, &categoryID,
		&reminderType, &customMinutes, &notified,
		&createdAt, &updatedAt, &completedAt, &repeatType, &repeatInterval, &seriesID,
	); err != nil {
		return t, err
	}

	t.Title = title.String
	t.Description = description.String
	t.DueDate = dueDate.String
	t.DueTime = dueTime.String
	t.Priority = models.Priority(orDefault(priority.String, constants.DefaultPriority))
	t.Status = models.Status(orDefault(status.String, string(models.StatusTodo)))
	t.CategoryID = orDefault(categoryID.String, constants.FallbackCategoryID)
	t.Reminder = models.Reminder{
		Type:     models.ReminderType(orDefault(reminderType.String, string(models.ReminderNone))),
		Notified: notified.Int64 != 0,
	}
	if customMinutes.Valid {
		v := customMinutes.Float64
		t.Reminder.CustomMinutes = &v
	}
	t.RepeatType = models.RepeatType(orDefault(repeatType.String, string(models.RepeatNone)))
	if repeatInterval.Valid {
		v := int(repeatInterval.Int64)
		t.RepeatInterval = &v
	}
	if seriesID.Valid && seriesID.String != "" {
		v := seriesID.String
		t.SeriesID = &v
	}

	var err error
	if t.CreatedAt, err = parseTime(createdAt.String); err != nil {
		return t, fmt.Errorf("task %s: invalid createdAt %q: %w", t.ID, createdAt.String, err)
	}
	if t.UpdatedAt, err = parseTime(updatedAt.String); err != nil {
		return t, fmt.Errorf("task %s: invalid updatedAt %q: %w", t.ID, updatedAt.String, err)
	}
	if completedAt.Valid && completedAt.String != "" {
		ts, err := parseTime(completedAt.String)
		if err != nil {
			return t, fmt.Errorf("task %s: invalid completedAt %q: %w", t.ID, completedAt.String, err)
		}
		t.CompletedAt = &ts
	}
	return t, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
