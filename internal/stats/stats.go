// Package stats derives dashboard counters and calendar views from the
// task list.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/jinzhu/now"

	"github.com/julianstephens/daytrack/internal/constants"
	"github.com/julianstephens/daytrack/internal/models"
)

const upcomingDays = 7

var calendar = &now.Config{WeekStartDay: time.Sunday}

// CategoryCount is the number of open tasks in a category
type CategoryCount struct {
	Category models.Category
	Open     int
}

// DayCount is the number of tasks completed on one day
type DayCount struct {
	Date  string
	Count int
}

// Dashboard holds the summary counters
type Dashboard struct {
	Total             int
	Completed         int
	CompletedToday    int
	CompletedThisWeek int
	Overdue           int
	DueToday          int
	Upcoming          int
	CompletionRate    int
	ByCategory        []CategoryCount
	LastSevenDays     []DayCount
}

func dayKey(t time.Time) string {
	return t.Format(constants.DateFormat)
}

// Compute builds the dashboard relative to ref
func Compute(tasks []models.Task, categories []models.Category, ref time.Time) Dashboard {
	today := dayKey(ref)
	horizon := dayKey(ref.AddDate(0, 0, upcomingDays))
	weekStart := calendar.With(ref).BeginningOfWeek()
	weekEnd := calendar.With(ref).EndOfWeek()

	d := Dashboard{Total: len(tasks)}
	open := make(map[string]int)
	for _, t := range tasks {
		if t.IsCompleted() {
			d.Completed++
			if t.CompletedAt != nil {
				done := t.CompletedAt.In(ref.Location())
				if dayKey(done) == today {
					d.CompletedToday++
				}
				if !done.Before(weekStart) && !done.After(weekEnd) {
					d.CompletedThisWeek++
				}
			}
			continue
		}

		open[t.CategoryID]++
		if t.DueDate == "" {
			continue
		}
		// Due dates are ISO formatted, so string order is date order
		switch {
		case t.DueDate < today:
			d.Overdue++
		case t.DueDate == today:
			d.DueToday++
		case t.DueDate <= horizon:
			d.Upcoming++
		}
	}

	if d.Total > 0 {
		d.CompletionRate = int(math.Round(float64(d.Completed) / float64(d.Total) * 100))
	}
	for _, c := range categories {
		if n := open[c.ID]; n > 0 {
			d.ByCategory = append(d.ByCategory, CategoryCount{Category: c, Open: n})
		}
	}
	d.LastSevenDays = completionsByDay(tasks, ref)
	return d
}

// completionsByDay counts completions for the seven days ending at ref,
// oldest first
func completionsByDay(tasks []models.Task, ref time.Time) []DayCount {
	days := make([]DayCount, upcomingDays)
	index := make(map[string]int, upcomingDays)
	for i := range days {
		key := dayKey(ref.AddDate(0, 0, i-(upcomingDays-1)))
		days[i].Date = key
		index[key] = i
	}
	for _, t := range tasks {
		if t.CompletedAt == nil {
			continue
		}
		if i, ok := index[dayKey(t.CompletedAt.In(ref.Location()))]; ok {
			days[i].Count++
		}
	}
	return days
}

// MissedReminders returns open tasks with a reminder whose due moment fell
// before today. All-day tasks count as due at the end of their day.
func MissedReminders(tasks []models.Task, ref time.Time) []models.Task {
	today := dayKey(ref)
	var out []models.Task
	for _, t := range tasks {
		if t.IsCompleted() || t.Reminder.Type == "" || t.Reminder.Type == models.ReminderNone || t.DueDate == "" {
			continue
		}
		if t.DueDate < today {
			out = append(out, t)
		}
	}
	return out
}

// Day is one cell of a month grid
type Day struct {
	Date    string
	InMonth bool
	IsToday bool
	TaskIDs []string
	Open    int
	Done    int
}

// Month returns a six week grid starting on the Sunday on or before the
// first of the month
func Month(year int, month time.Month, tasks []models.Task, ref time.Time) []Day {
	first := time.Date(year, month, 1, 0, 0, 0, 0, ref.Location())
	start := calendar.With(first).BeginningOfWeek()

	byDate := make(map[string][]models.Task)
	for _, t := range tasks {
		byDate[t.DueDate] = append(byDate[t.DueDate], t)
	}

	today := dayKey(ref)
	grid := make([]Day, 42)
	for i := range grid {
		date := start.AddDate(0, 0, i)
		key := dayKey(date)
		cell := Day{Date: key, InMonth: date.Month() == month, IsToday: key == today}
		for _, t := range byDate[key] {
			cell.TaskIDs = append(cell.TaskIDs, t.ID)
			if t.IsCompleted() {
				cell.Done++
			} else {
				cell.Open++
			}
		}
		grid[i] = cell
	}
	return grid
}

// PriorityRank orders priorities from most to least urgent
func PriorityRank(p models.Priority) int {
	switch p {
	case models.PriorityHigh:
		return 0
	case models.PriorityMedium:
		return 1
	}
	return 2
}

// ForDate returns the tasks due on date. All-day tasks come first, then
// by time and priority.
func ForDate(tasks []models.Task, date string) []models.Task {
	var out []models.Task
	for _, t := range tasks {
		if t.DueDate == date {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.DueTime != b.DueTime {
			return a.DueTime < b.DueTime
		}
		return PriorityRank(a.Priority) < PriorityRank(b.Priority)
	})
	return out
}
