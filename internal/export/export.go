// Package export flattens tasks into rows and writes them as CSV or JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jinzhu/now"

	"github.com/julianstephens/daytrack/internal/constants"
	"github.com/julianstephens/daytrack/internal/models"
)

// Range selects tasks by due date
type Range string

const (
	RangeAll       Range = "all"
	RangeThisWeek  Range = "this-week"
	RangeThisMonth Range = "this-month"
	RangeThisYear  Range = "this-year"
	RangeLastMonth Range = "last-month"
	RangeLastYear  Range = "last-year"
)

// Ranges lists every supported range
var Ranges = []Range{RangeThisWeek, RangeThisMonth, RangeLastMonth, RangeThisYear, RangeLastYear, RangeAll}

const rowTimeLayout = "2006-01-02 15:04"

// Calendar weeks start on Sunday
var calendar = &now.Config{WeekStartDay: time.Sunday}

// ParseRange validates a range name
func ParseRange(s string) (Range, error) {
	for _, r := range Ranges {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown range %q", s)
}

// Bounds returns the inclusive first and last day of r relative to ref.
// RangeAll reports false.
func Bounds(r Range, ref time.Time) (time.Time, time.Time, bool) {
	n := calendar.With(ref)
	switch r {
	case RangeThisWeek:
		return n.BeginningOfWeek(), n.EndOfWeek(), true
	case RangeThisMonth:
		return n.BeginningOfMonth(), n.EndOfMonth(), true
	case RangeThisYear:
		return n.BeginningOfYear(), n.EndOfYear(), true
	case RangeLastMonth:
		last := calendar.With(n.BeginningOfMonth().AddDate(0, -1, 0))
		return last.BeginningOfMonth(), last.EndOfMonth(), true
	case RangeLastYear:
		last := calendar.With(n.BeginningOfYear().AddDate(-1, 0, 0))
		return last.BeginningOfYear(), last.EndOfYear(), true
	}
	return time.Time{}, time.Time{}, false
}

// Filter keeps tasks whose due date falls in r. Completed tasks are
// dropped unless includeCompleted is set.
func Filter(tasks []models.Task, r Range, includeCompleted bool, ref time.Time) []models.Task {
	start, end, bounded := Bounds(r, ref)

	var out []models.Task
	for _, t := range tasks {
		if !includeCompleted && t.IsCompleted() {
			continue
		}
		if bounded {
			due, err := time.ParseInLocation(constants.DateFormat, t.DueDate, ref.Location())
			if err != nil || due.Before(start) || due.After(end) {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// Row is the flat document form of a task
type Row struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
	DueTime     string `json:"due_time"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	Category    string `json:"category"`
	Repeat      string `json:"repeat"`
	Created     string `json:"created"`
	Completed   string `json:"completed"`
}

// Header is the CSV column order
var Header = []string{"Title", "Description", "Due Date", "Due Time", "Priority", "Status", "Category", "Repeat", "Created", "Completed"}

func (r Row) values() []string {
	return []string{r.Title, r.Description, r.DueDate, r.DueTime, r.Priority, r.Status, r.Category, r.Repeat, r.Created, r.Completed}
}

// Rows flattens tasks, resolving category names
func Rows(tasks []models.Task, categories []models.Category) []Row {
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	rows := make([]Row, 0, len(tasks))
	for _, t := range tasks {
		category, ok := names[t.CategoryID]
		if !ok {
			category = "Unknown"
		}
		row := Row{
			Title:       t.Title,
			Description: t.Description,
			DueDate:     t.DueDate,
			DueTime:     t.DueTime,
			Priority:    string(t.Priority),
			Status:      string(t.Status),
			Category:    category,
			Repeat:      repeatLabel(t),
			Created:     t.CreatedAt.Local().Format(rowTimeLayout),
		}
		if t.CompletedAt != nil {
			row.Completed = t.CompletedAt.Local().Format(rowTimeLayout)
		}
		rows = append(rows, row)
	}
	return rows
}

func repeatLabel(t models.Task) string {
	if t.RepeatType == models.RepeatCustom {
		n := 1
		if t.RepeatInterval != nil && *t.RepeatInterval > 1 {
			n = *t.RepeatInterval
		}
		return fmt.Sprintf("every %d days", n)
	}
	if t.RepeatType == "" {
		return string(models.RepeatNone)
	}
	return string(t.RepeatType)
}

// WriteCSV writes rows with a header line
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes rows as an indented JSON array
func WriteJSON(w io.Writer, rows []Row) error {
	if rows == nil {
		rows = []Row{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
