package subtasks

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/julianstephens/daytrack/internal/cli"
	"github.com/julianstephens/daytrack/internal/errors"
	"github.com/julianstephens/daytrack/internal/models"
)

// resolve finds a subtask by 1-based position or id prefix
func resolve(list []models.Subtask, ref string) (models.Subtask, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(list) {
			return models.Subtask{}, fmt.Errorf("subtask position %d out of range (1-%d)", n, len(list))
		}
		return list[n-1], nil
	}
	for _, s := range list {
		if s.ID == ref || strings.HasPrefix(s.ID, ref) {
			return s, nil
		}
	}
	return models.Subtask{}, fmt.Errorf("subtask %s: %w", ref, errors.ErrNotFound)
}

type SubtaskAddCmd struct {
	Task  string `arg:"" help:"Task ID or unique prefix."`
	Title string `arg:"" help:"Subtask title."`
}

func (c *SubtaskAddCmd) Run(ctx *cli.Context) error {
	task, err := ctx.ResolveTask(c.Task)
	if err != nil {
		return err
	}
	title := strings.TrimSpace(c.Title)
	if title == "" {
		return fmt.Errorf("title cannot be empty")
	}
	s := ctx.Store.AddSubtask(task.ID, title)
	fmt.Println(cli.Success(fmt.Sprintf("Added subtask %d to %s: %s", s.Position+1, task.Title, s.Title)))
	return nil
}

type SubtaskToggleCmd struct {
	Task    string `arg:"" help:"Task ID or unique prefix."`
	Subtask string `arg:"" help:"Subtask position (1-based) or ID."`
}

func (c *SubtaskToggleCmd) Run(ctx *cli.Context) error {
	task, err := ctx.ResolveTask(c.Task)
	if err != nil {
		return err
	}
	sub, err := resolve(ctx.Store.Subtasks(task.ID), c.Subtask)
	if err != nil {
		return err
	}
	updated, ok := ctx.Store.ToggleSubtask(task.ID, sub.ID)
	if !ok {
		return fmt.Errorf("failed to toggle subtask %s", sub.ID)
	}
	state := "open"
	if updated.Completed {
		state = "done"
	}
	fmt.Println(cli.Success(fmt.Sprintf("Marked %q %s", updated.Title, state)))
	return nil
}

type SubtaskDeleteCmd struct {
	Task    string `arg:"" help:"Task ID or unique prefix."`
	Subtask string `arg:"" help:"Subtask position (1-based) or ID."`
}

func (c *SubtaskDeleteCmd) Run(ctx *cli.Context) error {
	task, err := ctx.ResolveTask(c.Task)
	if err != nil {
		return err
	}
	sub, err := resolve(ctx.Store.Subtasks(task.ID), c.Subtask)
	if err != nil {
		return err
	}
	if !ctx.Store.DeleteSubtask(task.ID, sub.ID) {
		return fmt.Errorf("failed to delete subtask %s", sub.ID)
	}
	fmt.Println(cli.Success(fmt.Sprintf("Deleted subtask: %s", sub.Title)))
	return nil
}

type SubtaskMoveCmd struct {
	Task string `arg:"" help:"Task ID or unique prefix."`
	From int    `arg:"" help:"Current position (1-based)."`
	To   int    `arg:"" help:"New position (1-based)."`
}

func (c *SubtaskMoveCmd) Run(ctx *cli.Context) error {
	task, err := ctx.ResolveTask(c.Task)
	if err != nil {
		return err
	}
	n := len(ctx.Store.Subtasks(task.ID))
	if c.From < 1 || c.From > n || c.To < 1 || c.To > n {
		return fmt.Errorf("positions must be between 1 and %d", n)
	}
	if !ctx.Store.ReorderSubtasks(task.ID, c.From-1, c.To-1) {
		return fmt.Errorf("failed to move subtask")
	}
	fmt.Println(cli.Success(fmt.Sprintf("Moved subtask %d to position %d", c.From, c.To)))
	return nil
}
