package tasks

import (
	"fmt"
	"strings"

	"github.com/julianstephens/daytrack/internal/cli"
	"github.com/julianstephens/daytrack/internal/models"
)

type TaskAddCmd struct {
	Title           string  `arg:"" help:"Task title."`
	Description     string  `short:"D" help:"Task description."`
	Due             string  `short:"d" help:"Due date (YYYY-MM-DD, today or tomorrow)."`
	At              string  `short:"t" help:"Due time (HH:MM). Omit for an all-day task."`
	Priority        string  `short:"p" help:"Priority (high|medium|low). Defaults to the default_priority setting."`
	Category        string  `short:"c" help:"Category id or name. Defaults to the default_category_id setting."`
	Status          string  `short:"s" help:"Initial status (todo|in-progress|completed)."`
	Reminder        string  `short:"r" help:"Reminder (none|30sec|5min|15min|30min|1hour|1day|custom)."`
	ReminderMinutes float64 `help:"Lead time in minutes for a custom reminder."`
	Repeat          string  `help:"Repeat (none|daily|weekly|monthly|custom)." default:"none"`
	Every           int     `help:"Interval in days for a custom repeat."`
}

func (c *TaskAddCmd) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("title cannot be empty")
	}
	if c.Priority != "" && !models.ValidPriority(models.Priority(c.Priority)) {
		return fmt.Errorf("invalid priority %q", c.Priority)
	}
	if c.Status != "" && !models.ValidStatus(models.Status(c.Status)) {
		return fmt.Errorf("invalid status %q", c.Status)
	}
	if err := cli.ValidateTime(c.At); err != nil {
		return err
	}
	if c.At != "" && c.Due == "" {
		return fmt.Errorf("a due time needs a due date")
	}
	return nil
}

func (c *TaskAddCmd) Run(ctx *cli.Context) error {
	due, err := ctx.ParseDate(c.Due)
	if err != nil {
		return err
	}

	draft := models.TaskDraft{
		Title:       strings.TrimSpace(c.Title),
		Description: c.Description,
		DueDate:     due,
		DueTime:     c.At,
		Priority:    models.Priority(c.Priority),
		Status:      models.Status(c.Status),
	}

	if c.Category != "" {
		cat, err := ctx.ResolveCategory(c.Category)
		if err != nil {
			return err
		}
		draft.CategoryID = cat.ID
	}
	if c.Reminder != "" {
		if draft.Reminder, err = cli.ParseReminder(c.Reminder, c.ReminderMinutes); err != nil {
			return err
		}
	}
	if draft.RepeatType, draft.RepeatInterval, err = cli.ParseRepeat(c.Repeat, c.Every); err != nil {
		return err
	}

	task := ctx.Store.AddTask(draft)
	fmt.Println(cli.Success(fmt.Sprintf("Added task: %s (ID: %s)", task.Title, task.ID)))
	return nil
}
