package taskstore

import (
	"context"

	"github.com/julianstephens/daytrack/internal/models"
)

// UpdateSetting validates and stores one setting. Boolean keys take the
// strings "true" and "false".
func (s *Store) UpdateSetting(key, value string) (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings
	if err := next.Set(key, value); err != nil {
		return s.settings, err
	}

	s.enqueueLocked("save setting", func(ctx context.Context) error {
		return s.repo.SaveSetting(ctx, key, value)
	})
	s.settings = next
	return next, nil
}
