package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/julianstephens/daytrack/internal/logger"
)

// DefaultDebounce coalesces the write and rename events of a single save
const DefaultDebounce = 250 * time.Millisecond

// Watcher reports snapshot files written by other processes. Writes made
// through the watched FSBackend are filtered out by content hash.
type Watcher struct {
	backend  *FSBackend
	watcher  *fsnotify.Watcher
	debounce time.Duration

	changes chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewWatcher creates a watcher for backend's snapshot file. The watcher must
// be started with Start before it emits changes.
func NewWatcher(backend *FSBackend) (*Watcher, error) {
	if !backend.Available() {
		return nil, fmt.Errorf("snapshot directory %s is not available", backend.Dir())
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	return &Watcher{
		backend:  backend,
		watcher:  w,
		debounce: DefaultDebounce,
		changes:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching the snapshot directory
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("watcher already running")
	}
	if err := w.watcher.Add(w.backend.Dir()); err != nil {
		return fmt.Errorf("failed to watch snapshot directory %s: %w", w.backend.Dir(), err)
	}

	w.running = true
	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop stops watching and waits for the event loop to exit
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	close(w.changes)
	if err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

// Changes emits once per burst of external snapshot writes. The channel is
// closed when the watcher stops.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	target := filepath.Clean(w.backend.Path())
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if w.external() {
				select {
				case w.changes <- struct{}{}:
				default:
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Snapshot watcher error", "error", err)
		}
	}
}

func (w *Watcher) external() bool {
	data, err := os.ReadFile(w.backend.Path())
	if err != nil || len(data) == 0 {
		return false
	}
	return !w.backend.WrittenByUs(data)
}
