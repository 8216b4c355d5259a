package tasks

import (
	"fmt"
	"strings"

	"github.com/julianstephens/daytrack/internal/cli"
	"github.com/julianstephens/daytrack/internal/models"
)

type TaskEditCmd struct {
	ID              string   `arg:"" help:"Task ID or unique prefix."`
	Title           *string  `help:"New title."`
	Description     *string  `short:"D" help:"New description."`
	Due             *string  `short:"d" help:"New due date (YYYY-MM-DD, today or tomorrow). Empty clears it."`
	At              *string  `short:"t" help:"New due time (HH:MM). Empty makes the task all day."`
	Priority        *string  `short:"p" help:"New priority (high|medium|low)."`
	Category        *string  `short:"c" help:"New category id or name."`
	Status          *string  `short:"s" help:"New status (todo|in-progress|completed)."`
	Reminder        *string  `short:"r" help:"New reminder (none|30sec|5min|15min|30min|1hour|1day|custom)."`
	ReminderMinutes *float64 `help:"Lead time in minutes for a custom reminder."`
	Repeat          *string  `help:"New repeat (none|daily|weekly|monthly|custom)."`
	Every           *int     `help:"Interval in days for a custom repeat."`
}

func (c *TaskEditCmd) Validate() error {
	if c.Title != nil && strings.TrimSpace(*c.Title) == "" {
		return fmt.Errorf("title cannot be empty")
	}
	if c.Priority != nil && !models.ValidPriority(models.Priority(*c.Priority)) {
		return fmt.Errorf("invalid priority %q", *c.Priority)
	}
	if c.Status != nil && !models.ValidStatus(models.Status(*c.Status)) {
		return fmt.Errorf("invalid status %q", *c.Status)
	}
	if c.At != nil {
		if err := cli.ValidateTime(*c.At); err != nil {
			return err
		}
	}
	return nil
}

func (c *TaskEditCmd) Run(ctx *cli.Context) error {
	task, err := ctx.ResolveTask(c.ID)
	if err != nil {
		return err
	}

	var patch models.TaskPatch
	changed := false

	if c.Title != nil {
		title := strings.TrimSpace(*c.Title)
		patch.Title = &title
		changed = true
	}
	if c.Description != nil {
		patch.Description = c.Description
		changed = true
	}
	if c.Due != nil {
		due, err := ctx.ParseDate(*c.Due)
		if err != nil {
			return err
		}
		patch.DueDate = &due
		changed = true
	}
	if c.At != nil {
		patch.DueTime = c.At
		changed = true
	}
	if c.Priority != nil {
		p := models.Priority(*c.Priority)
		patch.Priority = &p
		changed = true
	}
	if c.Status != nil {
		s := models.Status(*c.Status)
		patch.Status = &s
		changed = true
	}
	if c.Category != nil {
		cat, err := ctx.ResolveCategory(*c.Category)
		if err != nil {
			return err
		}
		patch.CategoryID = &cat.ID
		changed = true
	}
	if c.Reminder != nil || c.ReminderMinutes != nil {
		kind := string(task.Reminder.Type)
		if c.Reminder != nil {
			kind = *c.Reminder
		}
		var minutes float64
		if c.ReminderMinutes != nil {
			minutes = *c.ReminderMinutes
		} else if task.Reminder.CustomMinutes != nil {
			minutes = *task.Reminder.CustomMinutes
		}
		r, err := cli.ParseReminder(kind, minutes)
		if err != nil {
			return err
		}
		patch.Reminder = &r
		changed = true
	}
	if c.Repeat != nil || c.Every != nil {
		kind := string(task.RepeatType)
		if c.Repeat != nil {
			kind = *c.Repeat
		}
		every := 0
		if c.Every != nil {
			every = *c.Every
		} else if task.RepeatInterval != nil {
			every = *task.RepeatInterval
		}
		rt, interval, err := cli.ParseRepeat(kind, every)
		if err != nil {
			return err
		}
		patch.RepeatType = &rt
		patch.RepeatInterval = interval
		changed = true
	}

	if !changed {
		fmt.Println("No changes specified.")
		return nil
	}

	updated, ok := ctx.Store.UpdateTask(task.ID, patch)
	if !ok {
		return fmt.Errorf("task %s disappeared while editing", task.ID)
	}
	fmt.Println(cli.Success(fmt.Sprintf("Updated task: %s (ID: %s)", updated.Title, updated.ID)))
	return nil
}
