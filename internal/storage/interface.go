package storage

import (
	"context"

	"github.com/julianstephens/daytrack/internal/models"
)

// Repository is the typed CRUD surface over the task database. Every
// mutating call persists the whole database before returning.
type Repository interface {
	// Loads
	LoadTasks(ctx context.Context) ([]models.Task, error)
	LoadCategories(ctx context.Context) ([]models.Category, error)
	LoadSubtasks(ctx context.Context) ([]models.Subtask, error)
	LoadSettings(ctx context.Context) (models.Settings, error)

	// Tasks
	InsertTask(ctx context.Context, t models.Task) error
	DeleteTaskRow(ctx context.Context, id string) error

	// Categories
	InsertCategory(ctx context.Context, c models.Category) error
	DeleteCategoryRow(ctx context.Context, id string) error

	// Subtasks
	InsertSubtask(ctx context.Context, s models.Subtask) error
	InsertSubtasks(ctx context.Context, subtasks []models.Subtask) error
	DeleteSubtaskRow(ctx context.Context, id string) error

	// Settings
	SaveSetting(ctx context.Context, key, value string) error
}

var _ Repository = (*Engine)(nil)
