package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/julianstephens/daytrack/internal/constants"
	"github.com/julianstephens/daytrack/internal/logger"
	"github.com/julianstephens/daytrack/internal/models"
)

// Store is the part of the task store the scheduler reads and marks
type Store interface {
	Tasks() []models.Task
	Settings() models.Settings
	MarkNotified(id string) bool
}

// Scheduler polls the store for due reminders
type Scheduler struct {
	store   Store
	effects *Effects
	now     func() time.Time

	cron *cron.Cron

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	running sync.WaitGroup
}

// NewScheduler creates a scheduler. now defaults to time.Now when nil.
func NewScheduler(store Store, effects *Effects, now func() time.Time) *Scheduler {
	if now == nil {
		now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		store:   store,
		effects: effects,
		now:     now,
		cron:    cron.New(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start registers the poll job, runs one check immediately and starts the
// cron loop
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(constants.ReminderPollSpec, func() { s.Tick() }); err != nil {
		return err
	}
	s.Tick()
	s.cron.Start()
	return nil
}

// Tick fires every due reminder once. Each task is marked notified before
// its effects start, and effects run in the background.
func (s *Scheduler) Tick() []Decision {
	s.mu.Lock()
	defer s.mu.Unlock()

	decisions := Due(s.store.Tasks(), s.now())
	if len(decisions) == 0 {
		return nil
	}
	sound := s.store.Settings().ReminderSound

	fired := decisions[:0]
	for _, d := range decisions {
		if !s.store.MarkNotified(d.Task.ID) {
			continue
		}
		logger.Info("Reminder fired", "task", d.Task.ID, "due", d.DueAt.Format(time.RFC3339))
		fired = append(fired, d)

		s.running.Add(1)
		go func(d Decision) {
			defer s.running.Done()
			s.effects.Execute(s.ctx, d, sound)
		}(d)
	}
	return fired
}

// Wait blocks until effects started so far have finished
func (s *Scheduler) Wait() {
	s.running.Wait()
}

// Stop halts polling and cancels running effects. The returned context is
// done once the cron loop and all effects have exited.
func (s *Scheduler) Stop() context.Context {
	cronDone := s.cron.Stop()
	s.cancel()

	ctx, done := context.WithCancel(context.Background())
	go func() {
		<-cronDone.Done()
		s.running.Wait()
		done()
	}()
	return ctx
}

// Snoozer is the part of the task store that snoozing updates
type Snoozer interface {
	UpdateTask(id string, patch models.TaskPatch) (models.Task, bool)
}

// Snooze pushes a task's due time to now plus the snooze duration with a
// fresh one-shot reminder
func Snooze(store Snoozer, id string, now time.Time) (models.Task, bool) {
	return store.UpdateTask(id, SnoozePatch(now))
}
