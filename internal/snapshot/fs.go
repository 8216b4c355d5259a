package snapshot

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/julianstephens/daytrack/internal/errors"
	"github.com/julianstephens/daytrack/internal/logger"
)

// FSBackend mirrors the snapshot as a plain database file in a private
// directory. When the directory cannot be used the backend reports itself
// unavailable and every operation degrades to a no-op.
type FSBackend struct {
	dir      string
	fileName string

	mu        sync.Mutex
	available bool
	lastHash  [sha256.Size]byte
}

// NewFSBackend prepares dir for snapshot files. It never fails; an unusable
// directory yields an unavailable backend.
func NewFSBackend(dir, fileName string) *FSBackend {
	b := &FSBackend{dir: dir, fileName: fileName, available: true}
	if err := os.MkdirAll(dir, 0700); err != nil {
		logger.Warn("Snapshot directory unavailable, using blob store only", "dir", dir, "error", err)
		b.available = false
	}
	return b
}

func (b *FSBackend) Name() string {
	return "fs"
}

// Available reports whether the private directory is usable
func (b *FSBackend) Available() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.available
}

// Path returns the snapshot file path
func (b *FSBackend) Path() string {
	return filepath.Join(b.dir, b.fileName)
}

func (b *FSBackend) Dir() string {
	return b.dir
}

func (b *FSBackend) Read(ctx context.Context) ([]byte, error) {
	if !b.Available() {
		return nil, nil
	}
	data, err := os.ReadFile(b.Path())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Write stores data via a temporary file and atomic rename
func (b *FSBackend) Write(ctx context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.available {
		return errors.ErrStorageUnavailable
	}

	tempPath := b.Path() + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	if err := os.Rename(tempPath, b.Path()); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to replace snapshot file: %w", err)
	}

	b.lastHash = sha256.Sum256(data)
	return nil
}

// Remove deletes the mirrored snapshot if present
func (b *FSBackend) Remove(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.available {
		return nil
	}
	if err := os.Remove(b.Path()); err != nil && !os.IsNotExist(err) {
		return err
	}
	b.lastHash = [sha256.Size]byte{}
	return nil
}

// WrittenByUs reports whether data matches the last image this process wrote
func (b *FSBackend) WrittenByUs(data []byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastHash == sha256.Sum256(data)
}
