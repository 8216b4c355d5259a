package tasks

import (
	"fmt"

	"github.com/julianstephens/daytrack/internal/cli"
	"github.com/julianstephens/daytrack/internal/reminder"
)

type SnoozeCmd struct {
	ID string `arg:"" help:"Task ID or unique prefix."`
}

func (c *SnoozeCmd) Run(ctx *cli.Context) error {
	task, err := ctx.ResolveTask(c.ID)
	if err != nil {
		return err
	}

	snoozed, ok := reminder.Snooze(ctx.Store, task.ID, ctx.Now())
	if !ok {
		return fmt.Errorf("failed to snooze task %s", task.ID)
	}

	use24h := ctx.Store.Settings().Use24h
	fmt.Println(cli.Success(fmt.Sprintf("Snoozed %s until %s", snoozed.Title, cli.FormatDue(snoozed, use24h))))
	return nil
}
