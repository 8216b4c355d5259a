package cli

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/daytrack/internal/config"
	"github.com/julianstephens/daytrack/internal/models"
)

func fixedContext(now time.Time) *Context {
	return &Context{Now: func() time.Time { return now }}
}

func TestParseDate(t *testing.T) {
	ctx := fixedContext(time.Date(2024, 2, 29, 22, 0, 0, 0, time.Local))

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "", false},
		{"today", "2024-02-29", false},
		{" Tomorrow ", "2024-03-01", false},
		{"2024-12-31", "2024-12-31", false},
		{"2024-02-30", "", true},
		{"next week", "", true},
	}
	for _, tt := range tests {
		got, err := ctx.ParseDate(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDate(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseDate(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestParseRepeat(t *testing.T) {
	if rt, every, err := ParseRepeat("weekly", 0); err != nil || rt != models.RepeatWeekly || every != nil {
		t.Errorf("weekly: got %v %v %v", rt, every, err)
	}
	if _, _, err := ParseRepeat("custom", 0); err == nil {
		t.Error("custom repeat without --every should fail")
	}
	rt, every, err := ParseRepeat("custom", 3)
	if err != nil || rt != models.RepeatCustom || every == nil || *every != 3 {
		t.Errorf("custom: got %v %v %v", rt, every, err)
	}
	if _, _, err := ParseRepeat("hourly", 0); err == nil {
		t.Error("expected invalid repeat error")
	}
}

func TestParseReminder(t *testing.T) {
	r, err := ParseReminder("custom", 2.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.CustomMinutes == nil || *r.CustomMinutes != 2.5 {
		t.Errorf("expected 2.5 custom minutes, got %v", r.CustomMinutes)
	}
	if FormatReminder(r) != "2.5 min before" {
		t.Errorf("unexpected format: %s", FormatReminder(r))
	}

	r, err = ParseReminder("15min", 99)
	if err != nil || r.CustomMinutes != nil {
		t.Errorf("fixed reminders ignore minutes, got %v %v", r.CustomMinutes, err)
	}
	if _, err := ParseReminder("custom", -1); err == nil {
		t.Error("expected negative minutes to fail")
	}
}

func TestFormatClock(t *testing.T) {
	if got := FormatClock("15:04", false); got != "3:04 PM" {
		t.Errorf("12h: got %q", got)
	}
	if got := FormatClock("15:04", true); got != "15:04" {
		t.Errorf("24h: got %q", got)
	}
	if got := FormatClock("bogus", false); got != "bogus" {
		t.Errorf("invalid values pass through, got %q", got)
	}
}

func TestResolveTaskPrefix(t *testing.T) {
	// Setup
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	bg := context.Background()

	ctx, err := Open(bg, cfg)
	if err != nil {
		t.Fatalf("failed to open: %v", err)
	}
	defer ctx.Close(bg)

	task := ctx.Store.AddTask(models.TaskDraft{Title: "Water plants"})

	// Execute / Assert
	got, err := ctx.ResolveTask(task.ID[:6])
	if err != nil {
		t.Fatalf("prefix lookup failed: %v", err)
	}
	if got.ID != task.ID {
		t.Errorf("expected %s, got %s", task.ID, got.ID)
	}

	if _, err := ctx.ResolveTask(task.ID[:2]); err == nil {
		t.Error("prefixes shorter than the minimum should not resolve")
	}

	cat, err := ctx.ResolveCategory("jira")
	if err != nil || cat.ID != "work" {
		t.Errorf("expected case-insensitive name lookup to find work, got %v %v", cat.ID, err)
	}
	if _, err := ctx.ResolveCategory("nope"); err == nil || !strings.Contains(err.Error(), "nope") {
		t.Errorf("expected not found error, got %v", err)
	}
}
