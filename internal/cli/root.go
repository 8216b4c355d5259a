package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/daytrack/internal/backup"
	"github.com/julianstephens/daytrack/internal/config"
	"github.com/julianstephens/daytrack/internal/constants"
	"github.com/julianstephens/daytrack/internal/errors"
	"github.com/julianstephens/daytrack/internal/models"
	"github.com/julianstephens/daytrack/internal/snapshot"
	"github.com/julianstephens/daytrack/internal/storage"
	"github.com/julianstephens/daytrack/internal/taskstore"
)

// minIDPrefix is the shortest id prefix accepted in place of a full id
const minIDPrefix = 4

type Context struct {
	Config   *config.Config
	Backends *snapshot.Backends
	Engine   *storage.Engine
	Store    *taskstore.Store
	Now      func() time.Time
}

// Open prepares the data directory, loads the task database and starts the
// task store
func Open(ctx context.Context, cfg *config.Config) (*Context, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	backends, err := snapshot.OpenDir(ctx, cfg.DataDir)
	if err != nil {
		return nil, err
	}

	engine := storage.NewEngine(backends.Store())
	if err := engine.Init(ctx); err != nil {
		backends.Close()
		return nil, err
	}

	store, err := taskstore.Open(ctx, engine)
	if err != nil {
		engine.Close()
		backends.Close()
		return nil, err
	}

	return &Context{
		Config:   cfg,
		Backends: backends,
		Engine:   engine,
		Store:    store,
		Now:      time.Now,
	}, nil
}

// Close waits for pending writes and releases every resource. The first
// persistence failure reported while the command ran is returned.
func (c *Context) Close(ctx context.Context) error {
	closeErr := c.Store.Close(ctx)

	var persistErr error
drain:
	for {
		select {
		case err := <-c.Store.Errors():
			if persistErr == nil {
				persistErr = err
			}
		default:
			break drain
		}
	}

	c.Engine.Close()
	c.Backends.Close()

	if persistErr != nil {
		return fmt.Errorf("changes were not saved: %w", persistErr)
	}
	return closeErr
}

// Backups returns a backup manager rooted in the data directory
func (c *Context) Backups() *backup.Manager {
	return backup.NewManager(c.Engine, c.Config.DataDir, c.Config.Backup.Keep)
}

// Today returns the current date in due date format
func (c *Context) Today() string {
	return c.Now().Format(constants.DateFormat)
}

// ResolveTask finds a task by full id or by a unique id prefix
func (c *Context) ResolveTask(id string) (models.Task, error) {
	if t, ok := c.Store.Task(id); ok {
		return t, nil
	}
	if len(id) < minIDPrefix {
		return models.Task{}, fmt.Errorf("task %s: %w", id, errors.ErrNotFound)
	}

	var match *models.Task
	for _, t := range c.Store.Tasks() {
		if !strings.HasPrefix(t.ID, id) {
			continue
		}
		if match != nil {
			return models.Task{}, fmt.Errorf("task id prefix %q is ambiguous", id)
		}
		found := t
		match = &found
	}
	if match == nil {
		return models.Task{}, fmt.Errorf("task %s: %w", id, errors.ErrNotFound)
	}
	return *match, nil
}

// ResolveCategory finds a category by id or case-insensitive name
func (c *Context) ResolveCategory(ref string) (models.Category, error) {
	if cat, ok := c.Store.Category(ref); ok {
		return cat, nil
	}
	for _, cat := range c.Store.Categories() {
		if strings.EqualFold(cat.Name, ref) {
			return cat, nil
		}
	}
	return models.Category{}, fmt.Errorf("category %s: %w", ref, errors.ErrNotFound)
}

// CategoryNames maps category ids to display names
func (c *Context) CategoryNames() map[string]string {
	names := make(map[string]string)
	for _, cat := range c.Store.Categories() {
		names[cat.ID] = cat.Name
	}
	return names
}

// ParseDate accepts YYYY-MM-DD, "today" and "tomorrow"
func (c *Context) ParseDate(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "today":
		return c.Today(), nil
	case "tomorrow":
		return c.Now().AddDate(0, 0, 1).Format(constants.DateFormat), nil
	}
	if _, err := time.Parse(constants.DateFormat, s); err != nil {
		return "", fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return s, nil
}

// ValidateTime checks an HH:MM due time. Empty means all day.
func ValidateTime(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse(constants.TimeFormat, s); err != nil {
		return fmt.Errorf("invalid time %q (expected HH:MM)", s)
	}
	return nil
}

// ParseReminder builds a reminder from its type and, for custom reminders,
// the lead time in minutes
func ParseReminder(kind string, minutes float64) (models.Reminder, error) {
	rt := models.ReminderType(kind)
	if !models.ValidReminderType(rt) {
		return models.Reminder{}, fmt.Errorf("invalid reminder %q", kind)
	}
	r := models.Reminder{Type: rt}
	if rt == models.ReminderCustom {
		if minutes < 0 {
			return models.Reminder{}, fmt.Errorf("custom reminder minutes cannot be negative")
		}
		m := minutes
		r.CustomMinutes = &m
	}
	return r, nil
}

// ParseRepeat validates a repeat type and its custom interval
func ParseRepeat(kind string, every int) (models.RepeatType, *int, error) {
	rt := models.RepeatType(kind)
	if !models.ValidRepeatType(rt) {
		return "", nil, fmt.Errorf("invalid repeat %q", kind)
	}
	if rt != models.RepeatCustom {
		return rt, nil, nil
	}
	if every < 1 {
		return "", nil, fmt.Errorf("custom repeat needs --every of at least 1 day")
	}
	n := every
	return rt, &n, nil
}

// FormatDue renders a task's due date and time for display
func FormatDue(t models.Task, use24h bool) string {
	if t.DueDate == "" {
		return "-"
	}
	if t.DueTime == "" {
		return t.DueDate
	}
	return t.DueDate + " " + FormatClock(t.DueTime, use24h)
}

// FormatClock renders an HH:MM value in the preferred clock style
func FormatClock(hhmm string, use24h bool) string {
	if use24h {
		return hhmm
	}
	t, err := time.Parse(constants.TimeFormat, hhmm)
	if err != nil {
		return hhmm
	}
	return t.Format("3:04 PM")
}

// FormatReminder describes a reminder setting
func FormatReminder(r models.Reminder) string {
	if r.Type == models.ReminderCustom && r.CustomMinutes != nil {
		return fmt.Sprintf("%g min before", *r.CustomMinutes)
	}
	return string(r.Type)
}

// FormatRepeat describes a repeat rule
func FormatRepeat(t models.Task) string {
	if t.RepeatType == models.RepeatCustom && t.RepeatInterval != nil {
		return fmt.Sprintf("every %d days", *t.RepeatInterval)
	}
	return string(t.RepeatType)
}

// ShortID abbreviates an id for table output
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
