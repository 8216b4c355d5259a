package tasks

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/julianstephens/daytrack/internal/cli"
	"github.com/julianstephens/daytrack/internal/models"
)

type TaskListCmd struct {
	Status   string `short:"s" help:"Only show tasks with this status (todo|in-progress|completed)."`
	Category string `short:"c" help:"Only show tasks in this category (id or name)."`
	Date     string `short:"d" help:"Only show tasks due on this date (YYYY-MM-DD, today or tomorrow)."`
	Open     bool   `help:"Hide completed tasks."`
	Search   string `short:"q" help:"Only show tasks whose title contains this text."`
}

func (c *TaskListCmd) Validate() error {
	if c.Status != "" && !models.ValidStatus(models.Status(c.Status)) {
		return fmt.Errorf("invalid status %q", c.Status)
	}
	return nil
}

func (c *TaskListCmd) Run(ctx *cli.Context) error {
	date, err := ctx.ParseDate(c.Date)
	if err != nil {
		return err
	}
	categoryID := ""
	if c.Category != "" {
		cat, err := ctx.ResolveCategory(c.Category)
		if err != nil {
			return err
		}
		categoryID = cat.ID
	}

	var tasks []models.Task
	for _, t := range ctx.Store.Tasks() {
		switch {
		case c.Status != "" && t.Status != models.Status(c.Status):
		case c.Open && t.IsCompleted():
		case categoryID != "" && t.CategoryID != categoryID:
		case date != "" && t.DueDate != date:
		case c.Search != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(c.Search)):
		default:
			tasks = append(tasks, t)
		}
	}

	if len(tasks) == 0 {
		fmt.Println("No tasks found")
		return nil
	}

	fmt.Println(RenderTable(tasks, ctx.CategoryNames(), ctx.Store.Settings().Use24h, ctx.Today()))
	return nil
}

// RenderTable formats tasks as a bordered table. Overdue open tasks are
// highlighted.
func RenderTable(tasks []models.Task, categories map[string]string, use24h bool, today string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(cli.MutedStyle).
		Headers("ID", "Title", "Due", "Priority", "Status", "Category", "Repeat")

	for _, task := range tasks {
		title := task.Title
		if task.IsCompleted() {
			title = "✓ " + title
		}
		t.Row(
			cli.ShortID(task.ID),
			title,
			cli.FormatDue(task, use24h),
			string(task.Priority),
			string(task.Status),
			categories[task.CategoryID],
			cli.FormatRepeat(task),
		)
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		style := lipgloss.NewStyle().Padding(0, 1)
		if row == table.HeaderRow {
			return style.Inherit(cli.HeaderStyle)
		}
		task := tasks[row]
		switch {
		case col == 3:
			return style.Inherit(cli.PriorityStyle(task.Priority))
		case col == 2 && !task.IsCompleted() && task.DueDate != "" && task.DueDate < today:
			return style.Inherit(cli.ErrorStyle)
		case task.IsCompleted():
			return style.Inherit(cli.MutedStyle)
		}
		return style
	})
	return t.String()
}
