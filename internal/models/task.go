package models

import (
	"time"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

type RepeatType string

const (
	RepeatNone    RepeatType = "none"
	RepeatDaily   RepeatType = "daily"
	RepeatWeekly  RepeatType = "weekly"
	RepeatMonthly RepeatType = "monthly"
	RepeatCustom  RepeatType = "custom"
)

type ReminderType string

const (
	ReminderNone   ReminderType = "none"
	Reminder30Sec  ReminderType = "30sec"
	Reminder5Min   ReminderType = "5min"
	Reminder15Min  ReminderType = "15min"
	Reminder30Min  ReminderType = "30min"
	Reminder1Hour  ReminderType = "1hour"
	Reminder1Day   ReminderType = "1day"
	ReminderCustom ReminderType = "custom"
)

// Reminder describes when a task should alert before it is due.
type Reminder struct {
	Type          ReminderType `json:"type"`
	CustomMinutes *float64     `json:"custom_minutes,omitempty"`
	Notified      bool         `json:"notified"`
}

// LeadMinutes returns how many minutes before the due time the reminder fires.
// The second return is false when the reminder has no usable lead time.
func (r Reminder) LeadMinutes() (float64, bool) {
	switch r.Type {
	case Reminder30Sec:
		return 0.5, true
	case Reminder5Min:
		return 5, true
	case Reminder15Min:
		return 15, true
	case Reminder30Min:
		return 30, true
	case Reminder1Hour:
		return 60, true
	case Reminder1Day:
		return 1440, true
	case ReminderCustom:
		if r.CustomMinutes == nil {
			return 0, false
		}
		return *r.CustomMinutes, true
	default:
		return 0, false
	}
}

type Task struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	DueDate        string     `json:"due_date"`           // YYYY-MM-DD format
	DueTime        string     `json:"due_time,omitempty"` // HH:MM format, empty means all day
	Priority       Priority   `json:"priority"`
	Status         Status     `json:"status"`
	CategoryID     string     `json:"category_id"`
	Reminder       Reminder   `json:"reminder"`
	RepeatType     RepeatType `json:"repeat_type"`
	RepeatInterval *int       `json:"repeat_interval,omitempty"` // days, only for custom repeats
	SeriesID       *string    `json:"series_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	c := t
	if t.Reminder.CustomMinutes != nil {
		v := *t.Reminder.CustomMinutes
		c.Reminder.CustomMinutes = &v
	}
	if t.RepeatInterval != nil {
		v := *t.RepeatInterval
		c.RepeatInterval = &v
	}
	if t.SeriesID != nil {
		v := *t.SeriesID
		c.SeriesID = &v
	}
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		c.CompletedAt = &v
	}
	return c
}

func (t Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// DueAt combines DueDate and DueTime in loc. It reports false for all-day
// tasks or unparseable values.
func (t Task) DueAt(loc *time.Location) (time.Time, bool) {
	if t.DueDate == "" || t.DueTime == "" {
		return time.Time{}, false
	}
	due, err := time.ParseInLocation("2006-01-02 15:04", t.DueDate+" "+t.DueTime, loc)
	if err != nil {
		return time.Time{}, false
	}
	return due, true
}

// TaskDraft carries the caller-provided fields of a new task.
type TaskDraft struct {
	Title          string
	Description    string
	DueDate        string
	DueTime        string
	Priority       Priority
	Status         Status
	CategoryID     string
	Reminder       Reminder
	RepeatType     RepeatType
	RepeatInterval *int
	SeriesID       *string
}

// TaskPatch is a partial update; nil fields are left unchanged.
type TaskPatch struct {
	Title          *string
	Description    *string
	DueDate        *string
	DueTime        *string
	Priority       *Priority
	Status         *Status
	CategoryID     *string
	Reminder       *Reminder
	RepeatType     *RepeatType
	RepeatInterval *int
	SeriesID       *string
}

// ReschedulesReminder reports whether applying the patch reassigns the due
// occurrence or the reminder itself.
func (p TaskPatch) ReschedulesReminder() bool {
	return p.DueDate != nil || p.DueTime != nil || p.Reminder != nil
}

func ValidPriority(p Priority) bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

func ValidStatus(s Status) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

func ValidRepeatType(r RepeatType) bool {
	switch r {
	case RepeatNone, RepeatDaily, RepeatWeekly, RepeatMonthly, RepeatCustom:
		return true
	}
	return false
}

func ValidReminderType(r ReminderType) bool {
	switch r {
	case ReminderNone, Reminder30Sec, Reminder5Min, Reminder15Min, Reminder30Min, Reminder1Hour, Reminder1Day, ReminderCustom:
		return true
	}
	return false
}
