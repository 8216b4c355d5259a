package snapshot

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/daytrack/internal/errors"
)

func setupStore(t *testing.T) (*Store, *BlobBackend, *FSBackend) {
	t.Helper()
	dir := t.TempDir()

	blob, err := OpenBlobBackend(context.Background(), filepath.Join(dir, "blobs.db"))
	if err != nil {
		t.Fatalf("OpenBlobBackend failed: %v", err)
	}
	t.Cleanup(func() { blob.Close() })

	fsb := NewFSBackend(filepath.Join(dir, "snapshots"), "daytrack.sqlite")
	return NewStore(blob, fsb), blob, fsb
}

func TestReadEmpty(t *testing.T) {
	store, _, _ := setupStore(t)

	data, source, err := store.Read(context.Background())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if data != nil || source != "" {
		t.Errorf("expected no snapshot, got %d bytes from %q", len(data), source)
	}
}

func TestWriteMirrorsAndPrefersFS(t *testing.T) {
	ctx := context.Background()
	store, blob, fsb := setupStore(t)

	if err := store.Write(ctx, []byte("one"), true); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	blobData, err := blob.Read(ctx)
	if err != nil {
		t.Fatalf("blob Read failed: %v", err)
	}
	if string(blobData) != "one" {
		t.Errorf("blob data = %q, want %q", blobData, "one")
	}
	if _, err := os.Stat(fsb.Path()); err != nil {
		t.Fatalf("expected mirror file: %v", err)
	}

	// Diverge the copies; the mirror wins on read
	if err := blob.Write(ctx, []byte("blob-only")); err != nil {
		t.Fatalf("blob Write failed: %v", err)
	}
	data, source, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if source != "fs" || string(data) != "one" {
		t.Errorf("Read = %q from %q, want %q from fs", data, source, "one")
	}
}

func TestWriteWithoutMirrorRemovesStaleCopy(t *testing.T) {
	ctx := context.Background()
	store, _, fsb := setupStore(t)

	if err := store.Write(ctx, []byte("old"), true); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := store.Write(ctx, []byte("new"), false); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if _, err := os.Stat(fsb.Path()); !os.IsNotExist(err) {
		t.Errorf("expected mirror file removed, stat err = %v", err)
	}
	data, source, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if source != "blob" || string(data) != "new" {
		t.Errorf("Read = %q from %q, want %q from blob", data, source, "new")
	}
}

func TestUnavailableFSBackendDegrades(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// A regular file where the directory should be makes MkdirAll fail
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
		t.Fatalf("failed to create blocker: %v", err)
	}
	fsb := NewFSBackend(filepath.Join(blocker, "snapshots"), "daytrack.sqlite")
	if fsb.Available() {
		t.Fatal("expected backend to be unavailable")
	}
	if err := fsb.Write(ctx, []byte("x")); !errors.Is(err, errors.ErrStorageUnavailable) {
		t.Errorf("expected ErrStorageUnavailable, got %v", err)
	}

	blob, err := OpenBlobBackend(ctx, filepath.Join(dir, "blobs.db"))
	if err != nil {
		t.Fatalf("OpenBlobBackend failed: %v", err)
	}
	defer blob.Close()

	store := NewStore(blob, fsb)
	if err := store.Write(ctx, []byte("durable"), true); err != nil {
		t.Fatalf("Write should not fail with unavailable mirror: %v", err)
	}
	data, source, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if source != "blob" || string(data) != "durable" {
		t.Errorf("Read = %q from %q", data, source)
	}
}

func TestBlobBackendKeys(t *testing.T) {
	ctx := context.Background()
	_, blob, _ := setupStore(t)

	if err := blob.Put(ctx, "a", []byte{0, 1, 2}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := blob.Put(ctx, "a", []byte{3}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := blob.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, []byte{3}) {
		t.Errorf("Get = %v, want [3]", got)
	}

	if err := blob.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	got, err = blob.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil after delete, got %v", got)
	}
}

func TestWatcherReportsExternalWrites(t *testing.T) {
	ctx := context.Background()
	_, _, fsb := setupStore(t)

	w, err := NewWatcher(fsb)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	w.debounce = 20 * time.Millisecond
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	// Our own write is ignored
	if err := fsb.Write(ctx, []byte("ours")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	select {
	case <-w.Changes():
		t.Fatal("own write should not be reported")
	case <-time.After(300 * time.Millisecond):
	}

	// Another process replacing the file is reported
	if err := os.WriteFile(fsb.Path(), []byte("theirs"), 0600); err != nil {
		t.Fatalf("external write failed: %v", err)
	}
	select {
	case <-w.Changes():
	case <-time.After(3 * time.Second):
		t.Fatal("expected external write to be reported")
	}
}
