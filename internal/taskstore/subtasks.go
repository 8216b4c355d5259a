package taskstore

import (
	"context"
	"time"

	"github.com/julianstephens/daytrack/internal/models"
)

// AddSubtask appends a subtask to the end of taskID's list
func (s *Store) AddSubtask(taskID, title string) models.Subtask {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	st := models.Subtask{
		ID:        s.newID(),
		TaskID:    taskID,
		Title:     title,
		Position:  len(s.subtasks[taskID]),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.enqueueLocked("insert subtask", func(ctx context.Context) error {
		return s.repo.InsertSubtask(ctx, st)
	})
	s.subtasks[taskID] = append(s.subtasks[taskID], st)
	return st
}

// ToggleSubtask flips a subtask's completed flag
func (s *Store) ToggleSubtask(taskID, subtaskID string) (models.Subtask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.subtasks[taskID]
	for i, st := range list {
		if st.ID != subtaskID {
			continue
		}
		st.Completed = !st.Completed
		st.UpdatedAt = s.clock()
		updated := st
		s.enqueueLocked("update subtask", func(ctx context.Context) error {
			return s.repo.InsertSubtask(ctx, updated)
		})
		list[i] = updated
		return updated, true
	}
	return models.Subtask{}, false
}

// DeleteSubtask removes a subtask and closes the gap in its siblings'
// positions
func (s *Store) DeleteSubtask(taskID, subtaskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.subtasks[taskID]
	idx := indexOfSubtask(list, subtaskID)
	if idx < 0 {
		return false
	}

	s.enqueueLocked("delete subtask", func(ctx context.Context) error {
		return s.repo.DeleteSubtaskRow(ctx, subtaskID)
	})

	rest := make([]models.Subtask, 0, len(list)-1)
	rest = append(rest, list[:idx]...)
	rest = append(rest, list[idx+1:]...)
	s.resequenceLocked(taskID, rest, false)
	return true
}

// ReorderSubtasks moves the subtask at index from to index to. Every
// sibling's position and updatedAt is rewritten. Out-of-range indices are
// ignored.
func (s *Store) ReorderSubtasks(taskID string, from, to int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.subtasks[taskID]
	if from < 0 || from >= len(list) || to < 0 || to >= len(list) {
		return false
	}

	reordered := make([]models.Subtask, 0, len(list))
	reordered = append(reordered, list[:from]...)
	reordered = append(reordered, list[from+1:]...)
	moved := list[from]
	reordered = append(reordered[:to], append([]models.Subtask{moved}, reordered[to:]...)...)

	s.resequenceLocked(taskID, reordered, true)
	return true
}

// resequenceLocked assigns dense positions to list and persists the rows
// that changed. With touchAll every row is rewritten with a new updatedAt.
func (s *Store) resequenceLocked(taskID string, list []models.Subtask, touchAll bool) {
	var now time.Time
	if touchAll {
		now = s.clock()
	}

	var changed []models.Subtask
	for i := range list {
		if !touchAll && list[i].Position == i {
			continue
		}
		list[i].Position = i
		if touchAll {
			list[i].UpdatedAt = now
		}
		changed = append(changed, list[i])
	}

	if len(changed) > 0 {
		s.enqueueLocked("resequence subtasks", func(ctx context.Context) error {
			return s.repo.InsertSubtasks(ctx, changed)
		})
	}
	if len(list) == 0 {
		delete(s.subtasks, taskID)
		return
	}
	s.subtasks[taskID] = list
}

func indexOfSubtask(list []models.Subtask, id string) int {
	for i, st := range list {
		if st.ID == id {
			return i
		}
	}
	return -1
}
