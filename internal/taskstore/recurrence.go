package taskstore

import (
	"time"

	"github.com/julianstephens/daytrack/internal/constants"
	"github.com/julianstephens/daytrack/internal/models"
)

// NextDueDate advances dueDate by one repeat step. Monthly steps clamp to
// the last day of the target month. Custom steps use interval days, at
// least one. An empty or unparseable dueDate advances from today.
func NextDueDate(dueDate string, repeat models.RepeatType, interval *int, today time.Time) string {
	base, err := time.Parse(constants.DateFormat, dueDate)
	if err != nil {
		y, m, d := today.Date()
		base = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	var next time.Time
	switch repeat {
	case models.RepeatDaily:
		next = base.AddDate(0, 0, 1)
	case models.RepeatWeekly:
		next = base.AddDate(0, 0, 7)
	case models.RepeatMonthly:
		next = addMonthClamped(base)
	case models.RepeatCustom:
		days := 1
		if interval != nil && *interval > 1 {
			days = *interval
		}
		next = base.AddDate(0, 0, days)
	default:
		next = base
	}
	return next.Format(constants.DateFormat)
}

func addMonthClamped(t time.Time) time.Time {
	year, month, day := t.Date()
	month++
	if month > time.December {
		month = time.January
		year++
	}
	if last := daysInMonth(month, year); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(month time.Month, year int) int {
	// Day 0 of the following month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Successor builds the next occurrence of a repeating task. It shares the
// source's series, starts as todo with a re-armed reminder, and is due one
// repeat step after the source.
func Successor(source models.Task, id string, now time.Time) models.Task {
	next := source.Clone()
	next.ID = id
	next.Status = models.StatusTodo
	next.CompletedAt = nil
	next.CreatedAt = now
	next.UpdatedAt = now
	next.DueDate = NextDueDate(source.DueDate, source.RepeatType, source.RepeatInterval, now)
	next.Reminder.Notified = false

	series := source.ID
	if source.SeriesID != nil && *source.SeriesID != "" {
		series = *source.SeriesID
	}
	next.SeriesID = &series
	return next
}
