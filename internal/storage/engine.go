package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"

	"modernc.org/sqlite"

	"github.com/julianstephens/daytrack/internal/constants"
	"github.com/julianstephens/daytrack/internal/errors"
	"github.com/julianstephens/daytrack/internal/logger"
	"github.com/julianstephens/daytrack/internal/snapshot"
)

type serializer interface {
	Serialize() ([]byte, error)
}

type restorer interface {
	NewRestore(srcURI string) (*sqlite.Backup, error)
}

// initFlight is one in-progress initialization shared by concurrent callers
type initFlight struct {
	done chan struct{}
	err  error
}

// Engine is the working copy of the task database. It lives in memory,
// is loaded from and saved to a snapshot.Store as a whole image, and
// broadcasts after every successful save.
type Engine struct {
	snapshots *snapshot.Store

	initMu sync.Mutex
	flight *initFlight

	mu sync.Mutex // guards db and serializes mutate-then-persist
	db *sql.DB

	subMu   sync.Mutex
	subs    map[int]chan struct{}
	nextSub int
}

// NewEngine creates an engine over snapshots. Nothing is read until the
// first call that needs the database.
func NewEngine(snapshots *snapshot.Store) *Engine {
	return &Engine{
		snapshots: snapshots,
		subs:      make(map[int]chan struct{}),
	}
}

// Init loads the snapshot, or creates and seeds a fresh database, exactly
// once. Concurrent callers share a single in-flight initialization; a failed
// attempt is retried by the next caller.
func (e *Engine) Init(ctx context.Context) error {
	e.initMu.Lock()
	e.mu.Lock()
	ready := e.db != nil
	e.mu.Unlock()
	if ready {
		e.initMu.Unlock()
		return nil
	}

	f := e.flight
	leader := f == nil
	if leader {
		f = &initFlight{done: make(chan struct{})}
		e.flight = f
	}
	e.initMu.Unlock()

	if leader {
		// Detached so one caller's cancellation does not fail the others
		f.err = e.initialize(context.WithoutCancel(ctx))
		e.initMu.Lock()
		e.flight = nil
		e.initMu.Unlock()
		close(f.done)
	}

	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) initialize(ctx context.Context) error {
	images, err := e.snapshots.Candidates(ctx)
	if err != nil {
		return err
	}

	var db *sql.DB
	for _, img := range images {
		candidate, err := openImage(ctx, img.Data)
		if err != nil {
			logger.Warn("Skipping unreadable snapshot", "backend", img.Source, "error", err)
			continue
		}
		db = candidate
		logger.Debug("Loaded snapshot", "backend", img.Source, "bytes", len(img.Data))
		break
	}
	if db == nil && len(images) > 0 {
		return fmt.Errorf("%w: no stored snapshot could be opened", errors.ErrCorruptSnapshot)
	}
	if db == nil {
		if db, err = openMemory(); err != nil {
			return err
		}
	}

	fresh, err := migrate(ctx, db)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.db = db

	if fresh {
		logger.Info("Initialized new database")
		if err := e.persistLocked(ctx); err != nil {
			e.db = nil
			db.Close()
			return err
		}
	}
	return nil
}

// openMemory opens an empty in-memory database pinned to one connection;
// the data lives only as long as that connection.
func openMemory() (*sql.DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)
	return db, nil
}

// openImage deserializes data into a new in-memory database and checks that
// it is a readable database.
func openImage(ctx context.Context, data []byte) (*sql.DB, error) {
	db, err := openMemory()
	if err != nil {
		return nil, err
	}
	if err := deserialize(ctx, db, data); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", errors.ErrCorruptSnapshot, err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master").Scan(&count); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", errors.ErrCorruptSnapshot, err)
	}
	return db, nil
}

func serialize(ctx context.Context, db *sql.DB) ([]byte, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var data []byte
	err = conn.Raw(func(driverConn any) error {
		s, ok := driverConn.(serializer)
		if !ok {
			return fmt.Errorf("sqlite driver does not support serialization")
		}
		data, err = s.Serialize()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize database: %w", err)
	}
	return data, nil
}

// deserialize loads data into db through the online backup API. The image
// is staged in a temp file so SQLite owns every page it later frees.
func deserialize(ctx context.Context, db *sql.DB, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty snapshot")
	}

	f, err := os.CreateTemp("", constants.AppName+"-image-*.db")
	if err != nil {
		return fmt.Errorf("failed to stage snapshot: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to stage snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to stage snapshot: %w", err)
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	return conn.Raw(func(driverConn any) error {
		r, ok := driverConn.(restorer)
		if !ok {
			return fmt.Errorf("sqlite driver does not support restore")
		}
		bk, err := r.NewRestore(path)
		if err != nil {
			return err
		}
		for {
			more, err := bk.Step(-1)
			if err != nil {
				bk.Finish()
				return err
			}
			if !more {
				break
			}
		}
		return bk.Finish()
	})
}

// withDB runs fn against the initialized database under the engine lock
func (e *Engine) withDB(ctx context.Context, fn func(db *sql.DB) error) error {
	if err := e.Init(ctx); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.db == nil {
		return fmt.Errorf("database is closed")
	}
	return fn(e.db)
}

// mutate runs fn and then persists the whole database
func (e *Engine) mutate(ctx context.Context, fn func(db *sql.DB) error) error {
	return e.withDB(ctx, func(db *sql.DB) error {
		if err := fn(db); err != nil {
			return err
		}
		return e.persistLocked(ctx)
	})
}

// persistLocked writes the current image to the snapshot store. The mirror
// is written only while the opfsEnabled setting reads "true" at this moment.
func (e *Engine) persistLocked(ctx context.Context) error {
	data, err := serialize(ctx, e.db)
	if err != nil {
		return err
	}

	if err := e.snapshots.Write(ctx, data, e.mirrorEnabledLocked(ctx)); err != nil {
		return err
	}

	e.broadcast()
	return nil
}

func (e *Engine) mirrorEnabledLocked(ctx context.Context) bool {
	var value string
	err := e.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", constants.SettingOPFSEnabled).Scan(&value)
	if err != nil {
		return false
	}
	return value == "true"
}

// Subscribe returns a channel that receives a value after every successful
// persist. Sends never block; a slow subscriber sees one pending signal.
func (e *Engine) Subscribe() (<-chan struct{}, func()) {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	id := e.nextSub
	e.nextSub++
	ch := make(chan struct{}, 1)
	e.subs[id] = ch

	return ch, func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		if _, ok := e.subs[id]; ok {
			delete(e.subs, id)
			close(ch)
		}
	}
}

func (e *Engine) broadcast() {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for _, ch := range e.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// ExportSnapshot returns the serialized database image
func (e *Engine) ExportSnapshot(ctx context.Context) ([]byte, error) {
	var data []byte
	err := e.withDB(ctx, func(db *sql.DB) error {
		var err error
		data, err = serialize(ctx, db)
		return err
	})
	return data, err
}

// ImportSnapshot replaces the whole database with data and persists it.
// Invalid data returns ErrCorruptSnapshot and leaves the current database
// untouched.
func (e *Engine) ImportSnapshot(ctx context.Context, data []byte) error {
	if err := e.Init(ctx); err != nil {
		return err
	}

	next, err := openImage(ctx, data)
	if err != nil {
		return err
	}
	missing, err := tableMissing(ctx, next, "tasks")
	if err != nil || missing {
		next.Close()
		return fmt.Errorf("%w: snapshot has no tasks table", errors.ErrCorruptSnapshot)
	}
	if _, err := migrate(ctx, next); err != nil {
		next.Close()
		return fmt.Errorf("%w: %v", errors.ErrCorruptSnapshot, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.db
	e.db = next
	if err := e.persistLocked(ctx); err != nil {
		e.db = prev
		next.Close()
		return err
	}
	if prev != nil {
		prev.Close()
	}
	return nil
}

// Reload discards the working copy and reads the snapshot store again
func (e *Engine) Reload(ctx context.Context) error {
	e.mu.Lock()
	prev := e.db
	e.db = nil
	e.mu.Unlock()

	if err := e.Init(ctx); err != nil {
		e.mu.Lock()
		if e.db == nil {
			e.db = prev
			prev = nil
		}
		e.mu.Unlock()
		if prev != nil {
			prev.Close()
		}
		return err
	}
	if prev != nil {
		prev.Close()
	}
	return nil
}

// SchemaVersion returns the version recorded in the working copy
func (e *Engine) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := e.withDB(ctx, func(db *sql.DB) error {
		return db.QueryRowContext(ctx, "SELECT version FROM schema_version").Scan(&version)
	})
	return version, err
}

// Close releases the working copy. Data already persisted is unaffected.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.db == nil {
		return nil
	}
	err := e.db.Close()
	e.db = nil
	return err
}
