// Package ical converts tasks to and from iCalendar documents.
package ical

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/julianstephens/daytrack/internal/constants"
	"github.com/julianstephens/daytrack/internal/logger"
	"github.com/julianstephens/daytrack/internal/models"
)

const (
	ProductID = "-//daytrack//EN"

	dateLayout     = "20060102"
	dateTimeLayout = "20060102T150405"
)

var dtStartPattern = regexp.MustCompile(`^(\d{8})(?:T(\d{6})(Z)?)?$`)

// Export writes one VEVENT per task
func Export(w io.Writer, tasks []models.Task, categories []models.Category, now time.Time) error {
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	cal := ics.NewCalendar()
	cal.SetProductId(ProductID)

	for _, t := range tasks {
		start, allDay, err := startOf(t)
		if err != nil {
			logger.Warn("Skipping task with invalid due date", "task", t.ID, "error", err)
			continue
		}

		event := cal.AddEvent(t.ID)
		event.SetDtStampTime(now)
		if allDay {
			event.SetAllDayStartAt(start)
		} else {
			event.SetProperty(ics.ComponentPropertyDtStart, start.Format(dateTimeLayout))
		}
		event.SetSummary(singleLine(t.Title))
		if t.Description != "" {
			event.SetDescription(singleLine(t.Description))
		}
		if rule := rrule(t); rule != "" {
			event.AddRrule(rule)
		}
		if name, ok := names[t.CategoryID]; ok {
			event.AddCategory(name)
		}
		event.SetPriority(priorityValue(t.Priority))
	}

	return cal.SerializeTo(w)
}

// startOf returns the local start of a task and whether it is all day
func startOf(t models.Task) (time.Time, bool, error) {
	date, err := time.ParseInLocation(constants.DateFormat, t.DueDate, time.Local)
	if err != nil {
		return time.Time{}, false, err
	}
	if t.DueTime == "" {
		return date, true, nil
	}
	clock, err := time.Parse(constants.TimeFormat, t.DueTime)
	if err != nil {
		return time.Time{}, false, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), 0, 0, time.Local), false, nil
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\r\n", " ")), " ")
}

func rrule(t models.Task) string {
	switch t.RepeatType {
	case models.RepeatDaily:
		return "FREQ=DAILY"
	case models.RepeatWeekly:
		return "FREQ=WEEKLY"
	case models.RepeatMonthly:
		return "FREQ=MONTHLY"
	case models.RepeatCustom:
		n := 1
		if t.RepeatInterval != nil && *t.RepeatInterval > 1 {
			n = *t.RepeatInterval
		}
		return fmt.Sprintf("FREQ=DAILY;INTERVAL=%d", n)
	}
	return ""
}

func priorityValue(p models.Priority) int {
	switch p {
	case models.PriorityHigh:
		return 1
	case models.PriorityLow:
		return 9
	}
	return 5
}

// Result is the outcome of an import
type Result struct {
	Drafts  []models.TaskDraft
	Skipped int
}

// Import parses a calendar and turns each VEVENT into a task draft. Fields
// the event does not carry come from settings.
func Import(r io.Reader, categories []models.Category, settings models.Settings) (Result, error) {
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return Result{}, fmt.Errorf("failed to parse calendar: %w", err)
	}

	var res Result
	for _, event := range cal.Events() {
		date, clock, ok := parseStart(event.GetProperty(ics.ComponentPropertyDtStart))
		if !ok {
			logger.Warn("Skipping event without a valid DTSTART", "uid", event.Id())
			res.Skipped++
			continue
		}

		draft := models.TaskDraft{
			Title:      "Untitled",
			DueDate:    date,
			DueTime:    clock,
			Priority:   settings.DefaultPriority,
			Status:     models.StatusTodo,
			CategoryID: settings.DefaultCategoryID,
			Reminder:   models.Reminder{Type: settings.DefaultReminderType},
			RepeatType: models.RepeatNone,
		}
		if p := event.GetProperty(ics.ComponentPropertySummary); p != nil && strings.TrimSpace(p.Value) != "" {
			draft.Title = strings.TrimSpace(p.Value)
		}
		if p := event.GetProperty(ics.ComponentPropertyDescription); p != nil {
			draft.Description = strings.TrimSpace(p.Value)
		}
		if p := event.GetProperty(ics.ComponentPropertyRrule); p != nil {
			draft.RepeatType, draft.RepeatInterval = parseRRule(p.Value)
		}
		if p := event.GetProperty(ics.ComponentPropertyCategories); p != nil {
			if id, ok := matchCategory(p.Value, categories); ok {
				draft.CategoryID = id
			}
		}
		if p := event.GetProperty(ics.ComponentPropertyPriority); p != nil {
			if pr, ok := parsePriority(p.Value); ok {
				draft.Priority = pr
			}
		}
		res.Drafts = append(res.Drafts, draft)
	}
	return res, nil
}

// parseStart accepts DATE, floating DATE-TIME, UTC DATE-TIME and TZID
// qualified values. UTC and zoned times are converted to local time.
func parseStart(p *ics.IANAProperty) (string, string, bool) {
	if p == nil {
		return "", "", false
	}
	m := dtStartPattern.FindStringSubmatch(strings.TrimSpace(p.Value))
	if m == nil {
		return "", "", false
	}
	if m[2] == "" {
		d, err := time.Parse(dateLayout, m[1])
		if err != nil {
			return "", "", false
		}
		return d.Format(constants.DateFormat), "", true
	}

	loc := time.Local
	if m[3] == "Z" {
		loc = time.UTC
	} else if tz := p.ICalParameters[string(ics.ParameterTzid)]; len(tz) > 0 {
		if zone, err := time.LoadLocation(tz[0]); err == nil {
			loc = zone
		}
	}
	t, err := time.ParseInLocation(dateTimeLayout, m[1]+"T"+m[2], loc)
	if err != nil {
		return "", "", false
	}
	t = t.In(time.Local)
	return t.Format(constants.DateFormat), t.Format(constants.TimeFormat), true
}

func parseRRule(value string) (models.RepeatType, *int) {
	var freq string
	var interval *int
	for _, part := range strings.Split(value, ";") {
		k, v, _ := strings.Cut(part, "=")
		switch strings.ToUpper(k) {
		case "FREQ":
			freq = strings.ToUpper(v)
		case "INTERVAL":
			if n, err := strconv.Atoi(v); err == nil {
				interval = &n
			}
		}
	}
	if interval != nil {
		return models.RepeatCustom, interval
	}
	switch freq {
	case "DAILY":
		return models.RepeatDaily, nil
	case "WEEKLY":
		return models.RepeatWeekly, nil
	case "MONTHLY":
		return models.RepeatMonthly, nil
	}
	return models.RepeatNone, nil
}

// matchCategory resolves the first listed category by name or id,
// ignoring case
func matchCategory(value string, categories []models.Category) (string, bool) {
	names := strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ';' })
	if len(names) == 0 {
		return "", false
	}
	first := strings.TrimSpace(names[0])
	for _, c := range categories {
		if strings.EqualFold(c.Name, first) || strings.EqualFold(c.ID, first) {
			return c.ID, true
		}
	}
	return "", false
}

// parsePriority maps 1-2 to high, 3-6 to medium and 7-9 to low. Zero
// means undefined.
func parsePriority(value string) (models.Priority, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return "", false
	}
	switch {
	case n <= 2:
		return models.PriorityHigh, true
	case n <= 6:
		return models.PriorityMedium, true
	}
	return models.PriorityLow, true
}
