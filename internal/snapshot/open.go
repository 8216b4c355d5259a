package snapshot

import (
	"context"
	"path/filepath"

	"github.com/julianstephens/daytrack/internal/constants"
)

// Backends holds the two snapshot backends rooted in one data directory
type Backends struct {
	Blob *BlobBackend
	FS   *FSBackend
}

// OpenDir opens the blob store and snapshot directory under dataDir
func OpenDir(ctx context.Context, dataDir string) (*Backends, error) {
	blob, err := OpenBlobBackend(ctx, filepath.Join(dataDir, constants.BlobStoreFileName))
	if err != nil {
		return nil, err
	}
	return &Backends{
		Blob: blob,
		FS:   NewFSBackend(filepath.Join(dataDir, constants.SnapshotDirName), constants.SnapshotFileName),
	}, nil
}

// Store combines the backends with the filesystem copy as the mirror
func (b *Backends) Store() *Store {
	return NewStore(b.Blob, b.FS)
}

func (b *Backends) Close() error {
	return b.Blob.Close()
}
