package tasks

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/julianstephens/daytrack/internal/cli"
)

type TaskShowCmd struct {
	ID string `arg:"" help:"Task ID or unique prefix."`
}

func (c *TaskShowCmd) Run(ctx *cli.Context) error {
	task, err := ctx.ResolveTask(c.ID)
	if err != nil {
		return err
	}
	use24h := ctx.Store.Settings().Use24h
	category := ctx.CategoryNames()[task.CategoryID]

	fmt.Println(cli.HeaderStyle.Render(task.Title))
	if task.Description != "" {
		fmt.Println(task.Description)
	}
	fmt.Println()
	fmt.Printf("  ID:        %s\n", task.ID)
	fmt.Printf("  Due:       %s\n", cli.FormatDue(task, use24h))
	fmt.Printf("  Priority:  %s\n", cli.PriorityStyle(task.Priority).Render(string(task.Priority)))
	fmt.Printf("  Status:    %s\n", task.Status)
	fmt.Printf("  Category:  %s\n", category)
	fmt.Printf("  Reminder:  %s", cli.FormatReminder(task.Reminder))
	if task.Reminder.Notified {
		fmt.Print(cli.MutedStyle.Render(" (sent)"))
	}
	fmt.Println()
	fmt.Printf("  Repeat:    %s\n", cli.FormatRepeat(task))
	if task.SeriesID != nil {
		fmt.Printf("  Series:    %s\n", *task.SeriesID)
	}
	fmt.Printf("  Created:   %s (%s)\n", task.CreatedAt.Local().Format("2006-01-02 15:04"), humanize.Time(task.CreatedAt))
	if task.CompletedAt != nil {
		fmt.Printf("  Completed: %s (%s)\n", task.CompletedAt.Local().Format("2006-01-02 15:04"), humanize.Time(*task.CompletedAt))
	}

	subtasks := ctx.Store.Subtasks(task.ID)
	if len(subtasks) > 0 {
		done := 0
		for _, s := range subtasks {
			if s.Completed {
				done++
			}
		}
		fmt.Printf("\n  Subtasks (%d/%d):\n", done, len(subtasks))
		for _, s := range subtasks {
			mark := "[ ]"
			if s.Completed {
				mark = "[x]"
			}
			fmt.Printf("    %d. %s %s %s\n", s.Position+1, mark, s.Title, cli.MutedStyle.Render(cli.ShortID(s.ID)))
		}
	}
	return nil
}
