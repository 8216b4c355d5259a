package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/daytrack/internal/constants"
)

// BlobBackend is a key/value blob store kept in its own SQLite file. The
// snapshot lives under a single key.
type BlobBackend struct {
	path string
	key  string
	db   *sql.DB
}

// OpenBlobBackend opens (creating if needed) the blob store at path
func OpenBlobBackend(ctx context.Context, path string) (*BlobBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create blob store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open blob store: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS blobs (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			updated_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize blob store: %w", err)
	}

	return &BlobBackend{path: path, key: constants.BlobSnapshotKey, db: db}, nil
}

func (b *BlobBackend) Name() string {
	return "blob"
}

func (b *BlobBackend) Read(ctx context.Context) ([]byte, error) {
	return b.Get(ctx, b.key)
}

func (b *BlobBackend) Write(ctx context.Context, data []byte) error {
	return b.Put(ctx, b.key, data)
}

// Get returns the value stored under key, or nil when absent
func (b *BlobBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := b.db.QueryRowContext(ctx, "SELECT value FROM blobs WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Put replaces the value stored under key
func (b *BlobBackend) Put(ctx context.Context, key string, value []byte) error {
	_, err := b.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO blobs (key, value, updated_at) VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))",
		key, value)
	return err
}

// Delete removes key from the store
func (b *BlobBackend) Delete(ctx context.Context, key string) error {
	_, err := b.db.ExecContext(ctx, "DELETE FROM blobs WHERE key = ?", key)
	return err
}

func (b *BlobBackend) Path() string {
	return b.path
}

func (b *BlobBackend) Close() error {
	return b.db.Close()
}
