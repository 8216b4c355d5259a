package tasks

import (
	"fmt"

	"github.com/julianstephens/daytrack/internal/cli"
)

type TaskDeleteCmd struct {
	ID string `arg:"" help:"Task ID or unique prefix."`
}

func (c *TaskDeleteCmd) Run(ctx *cli.Context) error {
	task, err := ctx.ResolveTask(c.ID)
	if err != nil {
		return err
	}

	if !ctx.Store.DeleteTask(task.ID) {
		return fmt.Errorf("failed to delete task %s", task.ID)
	}

	fmt.Println(cli.Success(fmt.Sprintf("Deleted task: %s (ID: %s)", task.Title, task.ID)))
	return nil
}

type TaskDoneCmd struct {
	ID string `arg:"" help:"Task ID or unique prefix."`
}

func (c *TaskDoneCmd) Run(ctx *cli.Context) error {
	task, err := ctx.ResolveTask(c.ID)
	if err != nil {
		return err
	}

	updated, next, ok := ctx.Store.ToggleComplete(task.ID)
	if !ok {
		return fmt.Errorf("failed to update task %s", task.ID)
	}

	if updated.IsCompleted() {
		fmt.Println(cli.Success(fmt.Sprintf("Completed: %s", updated.Title)))
	} else {
		fmt.Println(cli.Success(fmt.Sprintf("Reopened: %s", updated.Title)))
	}
	if next != nil {
		fmt.Printf("  Next occurrence due %s (ID: %s)\n", next.DueDate, next.ID)
	}
	return nil
}
