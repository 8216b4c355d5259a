package taskstore

import (
	"context"
	"fmt"

	"github.com/julianstephens/daytrack/internal/constants"
	"github.com/julianstephens/daytrack/internal/errors"
	"github.com/julianstephens/daytrack/internal/models"
)

// AddCategory creates a category with a generated id
func (s *Store) AddCategory(name, color, icon string) models.Category {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := models.Category{ID: s.newID(), Name: name, Color: color, Icon: icon}
	s.enqueueLocked("insert category", func(ctx context.Context) error {
		return s.repo.InsertCategory(ctx, c)
	})
	s.categories = append(s.categories, c)
	return c
}

// UpdateCategory applies fn to the category with id and persists the result
func (s *Store) UpdateCategory(id string, fn func(c *models.Category)) (models.Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.categories {
		if c.ID != id {
			continue
		}
		fn(&c)
		c.ID = id
		updated := c
		s.enqueueLocked("update category", func(ctx context.Context) error {
			return s.repo.InsertCategory(ctx, updated)
		})
		s.categories[i] = updated
		return updated, true
	}
	return models.Category{}, false
}

// DeleteCategory removes a category and moves its tasks to the fallback
// category. Deleting the only remaining category is rejected.
func (s *Store) DeleteCategory(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, c := range s.categories {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("category %s: %w", id, errors.ErrNotFound)
	}
	if len(s.categories) <= 1 {
		return fmt.Errorf("cannot delete the last category: %w", errors.ErrInvariantViolation)
	}

	s.enqueueLocked("delete category", func(ctx context.Context) error {
		return s.repo.DeleteCategoryRow(ctx, id)
	})

	s.categories = append(s.categories[:idx:idx], s.categories[idx+1:]...)
	for tid, t := range s.tasks {
		if t.CategoryID == id {
			t.CategoryID = constants.FallbackCategoryID
			s.tasks[tid] = t
		}
	}
	return nil
}
