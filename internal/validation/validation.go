package validation

import (
	"fmt"
	"time"

	"github.com/julianstephens/daytrack/internal/constants"
	"github.com/julianstephens/daytrack/internal/models"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictNoCategories       ConflictType = "no_categories"
	ConflictUnknownCategory    ConflictType = "unknown_category"
	ConflictCompletionMismatch ConflictType = "completion_mismatch"
	ConflictSubtaskPositions   ConflictType = "subtask_positions"
	ConflictInvalidDateTime    ConflictType = "invalid_datetime"
	ConflictInvalidField       ConflictType = "invalid_field"
	ConflictMissingInterval    ConflictType = "missing_interval"
)

// Conflict represents an inconsistency found in stored data
type Conflict struct {
	Type        ConflictType
	Description string
	TaskID      string // empty for store-wide conflicts
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	report := "Conflicts detected:\n"
	for _, conflict := range vr.Conflicts {
		report += fmt.Sprintf("- %s\n", conflict.Description)
	}
	return report
}

func (vr *ValidationResult) add(t ConflictType, taskID, format string, args ...any) {
	vr.Conflicts = append(vr.Conflicts, Conflict{
		Type:        t,
		Description: fmt.Sprintf(format, args...),
		TaskID:      taskID,
	})
}

// SubtaskSource looks up the ordered subtasks of a task
type SubtaskSource func(taskID string) []models.Subtask

// Validator checks stored records for states the task store never produces
// itself, such as hand-edited snapshots or imports from older builds
type Validator struct{}

// New creates a new Validator
func New() *Validator {
	return &Validator{}
}

// Validate checks tasks against categories and their subtasks
func (v *Validator) Validate(tasks []models.Task, categories []models.Category, subtasks SubtaskSource) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	if len(categories) == 0 {
		result.add(ConflictNoCategories, "", "No categories defined")
	}
	known := make(map[string]bool, len(categories))
	for _, c := range categories {
		known[c.ID] = true
	}

	for _, task := range tasks {
		if !known[task.CategoryID] {
			result.add(ConflictUnknownCategory, task.ID, "Task %s references unknown category %q", task.ID, task.CategoryID)
		}

		if task.IsCompleted() && task.CompletedAt == nil {
			result.add(ConflictCompletionMismatch, task.ID, "Task %s is completed without a completion time", task.ID)
		}
		if !task.IsCompleted() && task.CompletedAt != nil {
			result.add(ConflictCompletionMismatch, task.ID, "Task %s has a completion time but is %s", task.ID, task.Status)
		}

		if task.DueDate != "" && !isValidDate(task.DueDate) {
			result.add(ConflictInvalidDateTime, task.ID, "Task %s has invalid due date: %s", task.ID, task.DueDate)
		}
		if task.DueTime != "" && !isValidTimeFormat(task.DueTime) {
			result.add(ConflictInvalidDateTime, task.ID, "Task %s has invalid due time: %s", task.ID, task.DueTime)
		}

		if !models.ValidPriority(task.Priority) {
			result.add(ConflictInvalidField, task.ID, "Task %s has invalid priority %q", task.ID, task.Priority)
		}
		if !models.ValidStatus(task.Status) {
			result.add(ConflictInvalidField, task.ID, "Task %s has invalid status %q", task.ID, task.Status)
		}

		if task.RepeatType == models.RepeatCustom && (task.RepeatInterval == nil || *task.RepeatInterval < 1) {
			result.add(ConflictMissingInterval, task.ID, "Task %s repeats on a custom schedule without an interval", task.ID)
		}

		if subtasks == nil {
			continue
		}
		for i, s := range subtasks(task.ID) {
			if s.Position != i {
				result.add(ConflictSubtaskPositions, task.ID, "Task %s subtask positions are not contiguous", task.ID)
				break
			}
		}
	}

	return result
}

func isValidDate(dateStr string) bool {
	_, err := time.Parse(constants.DateFormat, dateStr)
	return err == nil
}

func isValidTimeFormat(timeStr string) bool {
	_, err := time.Parse(constants.TimeFormat, timeStr)
	return err == nil
}
