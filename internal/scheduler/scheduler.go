package scheduler

import (
	"fmt"
	"sort"
	"time"

	"github.com/jinzhu/now"

	"github.com/julianstephens/daytrack/internal/constants"
	"github.com/julianstephens/daytrack/internal/models"
)

const (
	DefaultMaxPerDay = 5

	firstSlotHour = 9
	lastSlotHour  = 23
)

// Assignment places one task on a date, optionally at a time
type Assignment struct {
	TaskID string
	Title  string
	Date   string
	Time   string
	Index  int
}

// Changes reports whether applying the assignment would modify task
func (a Assignment) Changes(task models.Task) bool {
	return task.DueDate != a.Date || task.DueTime != a.Time
}

// Plan is a preview of assignments over one or more days
type Plan struct {
	Days        []string
	Assignments []Assignment
}

// ForDay returns the assignments placed on date, in placement order
func (p Plan) ForDay(date string) []Assignment {
	var out []Assignment
	for _, a := range p.Assignments {
		if a.Date == date {
			out = append(out, a)
		}
	}
	return out
}

type Scheduler struct {
	weeks *now.Config
}

func New() *Scheduler {
	return &Scheduler{weeks: &now.Config{WeekStartDay: time.Sunday}}
}

// PlanDay spreads the open tasks due on date over hourly slots
func (s *Scheduler) PlanDay(tasks []models.Task, date string) (Plan, error) {
	if _, err := time.Parse(constants.DateFormat, date); err != nil {
		return Plan{}, fmt.Errorf("invalid date format: %w", err)
	}

	var candidates []models.Task
	for _, task := range tasks {
		if task.Status == models.StatusTodo && task.DueDate == date {
			candidates = append(candidates, task)
		}
	}
	sortCandidates(candidates)

	plan := Plan{Days: []string{date}}
	for i, task := range candidates {
		plan.Assignments = append(plan.Assignments, Assignment{
			TaskID: task.ID,
			Title:  task.Title,
			Date:   date,
			Time:   slotTime(i),
			Index:  i,
		})
	}
	return plan, nil
}

// PlanWeek balances the open tasks of the week containing ref so that no
// day takes more than maxPerDay new placements. Overflow moves to the least
// loaded day.
func (s *Scheduler) PlanWeek(tasks []models.Task, ref time.Time, maxPerDay int, assignTimes bool) Plan {
	if maxPerDay <= 0 {
		maxPerDay = DefaultMaxPerDay
	}

	start := s.weeks.With(ref).BeginningOfWeek()
	days := make([]string, 7)
	for i := range days {
		days[i] = start.AddDate(0, 0, i).Format(constants.DateFormat)
	}
	inWeek := func(date string) bool {
		return date >= days[0] && date <= days[6]
	}

	counts := make(map[string]int, len(days))
	var candidates []models.Task
	for _, task := range tasks {
		if task.Status != models.StatusTodo || !inWeek(task.DueDate) {
			continue
		}
		counts[task.DueDate]++
		candidates = append(candidates, task)
	}
	sortCandidates(candidates)

	plan := Plan{Days: days}
	for _, task := range candidates {
		target := task.DueDate
		if counts[target] >= maxPerDay {
			target = leastLoaded(days, counts)
		}
		idx := counts[target]
		counts[target] = min(maxPerDay, counts[target]+1)

		dueTime := task.DueTime
		if assignTimes {
			dueTime = slotTime(idx)
		}
		plan.Assignments = append(plan.Assignments, Assignment{
			TaskID: task.ID,
			Title:  task.Title,
			Date:   target,
			Time:   dueTime,
			Index:  idx,
		})
	}
	return plan
}

// leastLoaded returns the earliest day with the smallest count
func leastLoaded(days []string, counts map[string]int) string {
	best := days[0]
	for _, d := range days[1:] {
		if counts[d] < counts[best] {
			best = d
		}
	}
	return best
}

func sortCandidates(tasks []models.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Priority != tasks[j].Priority {
			return priorityWeight(tasks[i].Priority) > priorityWeight(tasks[j].Priority)
		}
		// Newer tasks first
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
}

func priorityWeight(p models.Priority) int {
	switch p {
	case models.PriorityHigh:
		return 3
	case models.PriorityMedium:
		return 2
	}
	return 1
}

func slotTime(index int) string {
	return formatTime(min(lastSlotHour, firstSlotHour+index) * 60)
}

func formatTime(minutes int) string {
	hours := minutes / 60
	mins := minutes % 60
	return fmt.Sprintf("%02d:%02d", hours, mins)
}
