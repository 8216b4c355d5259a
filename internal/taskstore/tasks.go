package taskstore

import (
	"context"
	"time"

	"github.com/julianstephens/daytrack/internal/models"
)

// AddTask creates a task from draft and places it at the head of the list.
// Empty fields take their values from the current settings.
func (s *Store) AddTask(draft models.TaskDraft) models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	t := models.Task{
		ID:             s.newID(),
		Title:          draft.Title,
		Description:    draft.Description,
		DueDate:        draft.DueDate,
		DueTime:        draft.DueTime,
		Priority:       draft.Priority,
		Status:         draft.Status,
		CategoryID:     draft.CategoryID,
		Reminder:       draft.Reminder,
		RepeatType:     draft.RepeatType,
		RepeatInterval: draft.RepeatInterval,
		SeriesID:       draft.SeriesID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if t.Priority == "" {
		t.Priority = s.settings.DefaultPriority
	}
	if t.Status == "" {
		t.Status = models.StatusTodo
	}
	if t.CategoryID == "" {
		t.CategoryID = s.settings.DefaultCategoryID
	}
	if t.Reminder.Type == "" {
		t.Reminder.Type = s.settings.DefaultReminderType
	}
	if t.RepeatType == "" {
		t.RepeatType = models.RepeatNone
	}
	t.Reminder.Notified = false
	if t.Status == models.StatusCompleted {
		completed := now
		t.CompletedAt = &completed
	}

	s.insertLocked(t)
	return t.Clone()
}

// insertLocked persists t and prepends it to the list
func (s *Store) insertLocked(t models.Task) {
	row := t.Clone()
	s.enqueueLocked("insert task", func(ctx context.Context) error {
		return s.repo.InsertTask(ctx, row)
	})
	s.tasks[t.ID] = t
	s.order = append([]string{t.ID}, s.order...)
}

// replaceLocked persists t and swaps it in place
func (s *Store) replaceLocked(t models.Task) {
	row := t.Clone()
	s.enqueueLocked("update task", func(ctx context.Context) error {
		return s.repo.InsertTask(ctx, row)
	})
	s.tasks[t.ID] = t
}

// UpdateTask merges patch onto the task with id. Unknown ids are ignored.
// Moving into completed stamps completedAt, any other status clears it.
// Reassigning the due date, due time or reminder settings re-arms the
// reminder.
func (s *Store) UpdateTask(id string, patch models.TaskPatch) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tasks[id]
	if !ok {
		return models.Task{}, false
	}

	next := applyPatch(current.Clone(), patch)
	now := s.clock()
	next.UpdatedAt = now
	setCompletion(&next, current.Status, now)

	if rearms(current, next, patch) {
		next.Reminder.Notified = false
	}

	s.replaceLocked(next)
	return next.Clone(), true
}

func applyPatch(t models.Task, p models.TaskPatch) models.Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.DueTime != nil {
		t.DueTime = *p.DueTime
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
	}
	if p.Reminder != nil {
		t.Reminder = *p.Reminder
		if p.Reminder.CustomMinutes != nil {
			v := *p.Reminder.CustomMinutes
			t.Reminder.CustomMinutes = &v
		}
	}
	if p.RepeatType != nil {
		t.RepeatType = *p.RepeatType
	}
	if p.RepeatInterval != nil {
		v := *p.RepeatInterval
		t.RepeatInterval = &v
	}
	if p.SeriesID != nil {
		v := *p.SeriesID
		t.SeriesID = &v
	}
	return t
}

// rearms reports whether the patch reassigned the due occurrence or the
// reminder's timing
func rearms(prev, next models.Task, p models.TaskPatch) bool {
	if prev.DueDate != next.DueDate || prev.DueTime != next.DueTime {
		return true
	}
	if p.Reminder == nil {
		return false
	}
	if prev.Reminder.Type != next.Reminder.Type {
		return true
	}
	pm, nm := prev.Reminder.CustomMinutes, next.Reminder.CustomMinutes
	return (pm == nil) != (nm == nil) || (pm != nil && *pm != *nm)
}

// setCompletion keeps completedAt non-nil exactly when the task is completed
func setCompletion(t *models.Task, prevStatus models.Status, now time.Time) {
	switch {
	case t.Status != models.StatusCompleted:
		t.CompletedAt = nil
	case prevStatus != models.StatusCompleted:
		completed := now
		t.CompletedAt = &completed
	case t.CompletedAt == nil:
		completed := now
		t.CompletedAt = &completed
	}
}

// DeleteTask removes a task together with its subtasks
func (s *Store) DeleteTask(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return false
	}
	s.enqueueLocked("delete task", func(ctx context.Context) error {
		return s.repo.DeleteTaskRow(ctx, id)
	})

	delete(s.tasks, id)
	delete(s.subtasks, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// ToggleComplete flips a task between todo and completed. Completing a
// repeating task also creates its next occurrence, which is returned.
func (s *Store) ToggleComplete(id string) (models.Task, *models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tasks[id]
	if !ok {
		return models.Task{}, nil, false
	}

	now := s.clock()
	next := current.Clone()
	if current.Status == models.StatusCompleted {
		next.Status = models.StatusTodo
	} else {
		next.Status = models.StatusCompleted
	}
	next.UpdatedAt = now
	setCompletion(&next, current.Status, now)
	s.replaceLocked(next)

	if next.Status != models.StatusCompleted || current.RepeatType == "" || current.RepeatType == models.RepeatNone {
		return next.Clone(), nil, true
	}

	successor := Successor(current, s.newID(), now)
	s.insertLocked(successor)
	spawned := successor.Clone()
	return next.Clone(), &spawned, true
}

// MarkNotified sets the reminder's notified flag. It reports false when the
// task is unknown or was already notified.
func (s *Store) MarkNotified(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tasks[id]
	if !ok || current.Reminder.Notified {
		return false
	}
	next := current.Clone()
	next.Reminder.Notified = true
	s.replaceLocked(next)
	return true
}
