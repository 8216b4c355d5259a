// Package reminder decides which task reminders are due and runs the
// side effects for them on a fixed poll.
package reminder

import (
	"fmt"
	"time"

	"github.com/julianstephens/daytrack/internal/constants"
	"github.com/julianstephens/daytrack/internal/models"
)

const (
	longTone  = 30 * time.Second
	shortTone = 500 * time.Millisecond

	// Grace lets a zero-lead reminder, whose window is a single instant,
	// land on the next poll tick. It matches the poll interval.
	Grace = 5 * time.Second
)

// Decision describes one reminder that should fire now
type Decision struct {
	Task  models.Task
	DueAt time.Time
	Tone  time.Duration
}

// Title is the notification headline for the decision
func (d Decision) Title() string {
	return fmt.Sprintf("Task Reminder: %s", d.Task.Title)
}

// Body describes when the task is due
func (d Decision) Body() string {
	return fmt.Sprintf("Due at %s on %s", d.Task.DueTime, d.Task.DueDate)
}

// Due returns a decision for every task whose reminder window contains now.
// The window runs from the due time minus the lead time up to the due time,
// so occurrences that elapsed unseen never fire. Zero-lead reminders get
// Grace past the due time.
func Due(tasks []models.Task, now time.Time) []Decision {
	var out []Decision
	for _, t := range tasks {
		if t.IsCompleted() || t.Reminder.Type == models.ReminderNone || t.Reminder.Type == "" || t.Reminder.Notified {
			continue
		}
		due, ok := t.DueAt(now.Location())
		if !ok {
			continue
		}
		lead, ok := t.Reminder.LeadMinutes()
		if !ok {
			continue
		}
		start := due.Add(-time.Duration(lead * float64(time.Minute)))
		end := due
		if lead <= 0 {
			end = due.Add(Grace)
		}
		if now.Before(start) || now.After(end) {
			continue
		}
		out = append(out, Decision{Task: t.Clone(), DueAt: due, Tone: ToneDuration(t.Reminder.Type)})
	}
	return out
}

// ToneDuration is how long the audible alert plays for a reminder type
func ToneDuration(rt models.ReminderType) time.Duration {
	if rt == models.Reminder30Sec {
		return longTone
	}
	return shortTone
}

// SnoozePatch moves a task's due time to now plus the snooze duration and
// arms a one-shot reminder at that moment.
func SnoozePatch(now time.Time) models.TaskPatch {
	next := now.Add(constants.SnoozeDuration)
	date := next.Format(constants.DateFormat)
	clock := next.Format(constants.TimeFormat)
	zero := 0.0
	return models.TaskPatch{
		DueDate: &date,
		DueTime: &clock,
		Reminder: &models.Reminder{
			Type:          models.ReminderCustom,
			CustomMinutes: &zero,
			Notified:      false,
		},
	}
}
