// Package snapshot persists serialized database images to a primary blob
// backend and a best-effort private filesystem mirror.
package snapshot

import (
	"context"
	"fmt"

	"github.com/julianstephens/daytrack/internal/logger"
)

// Backend stores a single snapshot image. Read returns nil, nil when no
// snapshot has been written yet.
type Backend interface {
	Name() string
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

// Remover is implemented by backends that can discard their copy.
type Remover interface {
	Remove(ctx context.Context) error
}

// Store reads and writes snapshots across the two backends. The mirror is
// preferred on read and written only when mirroring is enabled; the blob
// backend is the path of record.
type Store struct {
	blob   Backend
	mirror Backend
}

// NewStore creates a store. mirror may be nil.
func NewStore(blob, mirror Backend) *Store {
	return &Store{blob: blob, mirror: mirror}
}

// Image is a snapshot read from one backend
type Image struct {
	Source string
	Data   []byte
}

// Candidates returns every stored snapshot in preference order: the mirror
// first, then the blob backend. Mirror read failures are logged and skipped;
// blob read failures are returned.
func (s *Store) Candidates(ctx context.Context) ([]Image, error) {
	var images []Image
	if s.mirror != nil {
		data, err := s.mirror.Read(ctx)
		if err != nil {
			logger.Warn("Snapshot mirror read failed, falling back", "backend", s.mirror.Name(), "error", err)
		} else if len(data) > 0 {
			images = append(images, Image{Source: s.mirror.Name(), Data: data})
		}
	}

	data, err := s.blob.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot from %s: %w", s.blob.Name(), err)
	}
	if len(data) > 0 {
		images = append(images, Image{Source: s.blob.Name(), Data: data})
	}
	return images, nil
}

// Read returns the most preferred available snapshot and the name of the
// backend it came from. It returns nil data when neither backend has one.
func (s *Store) Read(ctx context.Context) ([]byte, string, error) {
	images, err := s.Candidates(ctx)
	if err != nil {
		return nil, "", err
	}
	if len(images) == 0 {
		return nil, "", nil
	}
	return images[0].Data, images[0].Source, nil
}

// Write persists data to the blob backend, then to the mirror when mirror is
// true. Mirror failures are logged and dropped. With mirroring off, any
// existing mirror copy is removed so it cannot shadow newer blob data.
func (s *Store) Write(ctx context.Context, data []byte, mirror bool) error {
	if err := s.blob.Write(ctx, data); err != nil {
		return fmt.Errorf("failed to write snapshot to %s: %w", s.blob.Name(), err)
	}

	if s.mirror == nil {
		return nil
	}
	if mirror {
		if err := s.mirror.Write(ctx, data); err != nil {
			logger.Debug("Snapshot mirror write skipped", "backend", s.mirror.Name(), "error", err)
		}
		return nil
	}
	if r, ok := s.mirror.(Remover); ok {
		if err := r.Remove(ctx); err != nil {
			logger.Debug("Snapshot mirror cleanup skipped", "backend", s.mirror.Name(), "error", err)
		}
	}
	return nil
}

// Mirror returns the mirror backend, or nil.
func (s *Store) Mirror() Backend {
	return s.mirror
}
