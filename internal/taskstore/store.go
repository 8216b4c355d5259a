// Package taskstore holds the authoritative in-memory task state. Mutations
// apply to memory immediately and are persisted in order by a background
// queue.
package taskstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/daytrack/internal/logger"
	"github.com/julianstephens/daytrack/internal/models"
	"github.com/julianstephens/daytrack/internal/storage"
)

const queueSize = 256

type job struct {
	name string
	run  func(ctx context.Context) error
}

// Store is the in-memory view of tasks, categories, subtasks and settings
type Store struct {
	repo  storage.Repository
	now   func() time.Time
	newID func() string

	mu         sync.Mutex
	tasks      map[string]models.Task
	order      []string // task ids, newest first
	categories []models.Category
	subtasks   map[string][]models.Subtask // by task id, dense positions
	settings   models.Settings
	closed     bool

	queue   chan job
	errs    chan error
	stopped chan struct{}
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides id generation
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// Open loads every collection from repo and starts the persistence queue
func Open(ctx context.Context, repo storage.Repository, opts ...Option) (*Store, error) {
	s := &Store{
		repo:    repo,
		now:     time.Now,
		newID:   uuid.NewString,
		queue:   make(chan job, queueSize),
		errs:    make(chan error, 16),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mu.Lock()
	err := s.loadLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	go s.worker()
	return s, nil
}

// clock returns the current time at the millisecond precision the
// database stores
func (s *Store) clock() time.Time {
	return s.now().Truncate(time.Millisecond)
}

func (s *Store) loadLocked(ctx context.Context) error {
	tasks, err := s.repo.LoadTasks(ctx)
	if err != nil {
		return err
	}
	categories, err := s.repo.LoadCategories(ctx)
	if err != nil {
		return err
	}
	subtasks, err := s.repo.LoadSubtasks(ctx)
	if err != nil {
		return err
	}
	settings, err := s.repo.LoadSettings(ctx)
	if err != nil {
		return err
	}

	s.tasks = make(map[string]models.Task, len(tasks))
	s.order = make([]string, 0, len(tasks))
	for _, t := range tasks {
		s.tasks[t.ID] = t
		s.order = append(s.order, t.ID)
	}
	s.categories = categories
	s.subtasks = make(map[string][]models.Subtask)
	for _, st := range subtasks {
		s.subtasks[st.TaskID] = append(s.subtasks[st.TaskID], st)
	}
	s.settings = settings
	return nil
}

// enqueueLocked schedules a persistence job. Called with s.mu held so jobs
// are queued in the same order memory was changed.
func (s *Store) enqueueLocked(name string, run func(ctx context.Context) error) {
	if s.closed {
		logger.Warn("Dropping write on closed store", "op", name)
		return
	}
	s.queue <- job{name: name, run: run}
}

func (s *Store) worker() {
	defer close(s.stopped)
	ctx := context.Background()
	for j := range s.queue {
		if err := j.run(ctx); err != nil {
			logger.Error("Failed to persist change", "op", j.name, "error", err)
			select {
			case s.errs <- fmt.Errorf("%s: %w", j.name, err):
			default:
			}
		}
	}
}

// Errors reports persistence failures. Memory is not rolled back.
func (s *Store) Errors() <-chan error {
	return s.errs
}

// Flush waits until every change queued so far has been persisted
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	done := s.barrierLocked()
	s.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) barrierLocked() chan struct{} {
	done := make(chan struct{})
	s.queue <- job{name: "flush", run: func(context.Context) error {
		close(done)
		return nil
	}}
	return done
}

// Reload drains pending writes and replaces memory with the repository's
// contents. Mutations wait until the reload finishes.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		done := s.barrierLocked()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.loadLocked(ctx)
}

// Close drains the queue and stops the worker
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	select {
	case <-s.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Tasks returns all tasks, newest first
func (s *Store) Tasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Task, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.tasks[id].Clone())
	}
	return out
}

// Task returns the task with id
func (s *Store) Task(id string) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	return t.Clone(), ok
}

// Categories returns all categories in display order
func (s *Store) Categories() []models.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Category, len(s.categories))
	copy(out, s.categories)
	return out
}

// Category returns the category with id
func (s *Store) Category(id string) (models.Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.ID == id {
			return c, true
		}
	}
	return models.Category{}, false
}

// Subtasks returns the subtasks of taskID in position order
func (s *Store) Subtasks(taskID string) []models.Subtask {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.subtasks[taskID]
	out := make([]models.Subtask, len(list))
	copy(out, list)
	return out
}

// Settings returns the current settings
func (s *Store) Settings() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}
