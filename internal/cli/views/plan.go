package views

import (
	"fmt"
	"time"

	"github.com/julianstephens/daytrack/internal/cli"
	"github.com/julianstephens/daytrack/internal/constants"
	"github.com/julianstephens/daytrack/internal/models"
	"github.com/julianstephens/daytrack/internal/scheduler"
	"github.com/julianstephens/daytrack/internal/tui/components/plan"
)

type PlanDayCmd struct {
	Date  string `short:"d" help:"Date to plan (YYYY-MM-DD, today or tomorrow). Defaults to today."`
	Apply bool   `help:"Write the planned times to the tasks."`
}

func (c *PlanDayCmd) Run(ctx *cli.Context) error {
	date := ctx.Today()
	if c.Date != "" {
		var err error
		if date, err = ctx.ParseDate(c.Date); err != nil {
			return err
		}
	}

	p, err := scheduler.New().PlanDay(ctx.Store.Tasks(), date)
	if err != nil {
		return err
	}
	return show(ctx, p, c.Apply)
}

type PlanWeekCmd struct {
	Date      string `short:"d" help:"Any date in the week to plan (YYYY-MM-DD, today or tomorrow). Defaults to today."`
	MaxPerDay int    `help:"Most tasks to place on one day." default:"5"`
	NoTimes   bool   `help:"Keep existing due times instead of assigning hourly slots."`
	Apply     bool   `help:"Write the planned dates and times to the tasks."`
}

func (c *PlanWeekCmd) Validate() error {
	if c.MaxPerDay < 1 {
		return fmt.Errorf("--max-per-day must be at least 1")
	}
	return nil
}

func (c *PlanWeekCmd) Run(ctx *cli.Context) error {
	ref := ctx.Now()
	if c.Date != "" {
		date, err := ctx.ParseDate(c.Date)
		if err != nil {
			return err
		}
		if ref, err = time.ParseInLocation(constants.DateFormat, date, ref.Location()); err != nil {
			return err
		}
	}

	p := scheduler.New().PlanWeek(ctx.Store.Tasks(), ref, c.MaxPerDay, !c.NoTimes)
	return show(ctx, p, c.Apply)
}

func show(ctx *cli.Context, p scheduler.Plan, apply bool) error {
	if len(p.Assignments) == 0 {
		fmt.Println("No open tasks to plan.")
		return nil
	}
	fmt.Print(plan.Render(p))

	if !apply {
		fmt.Println(cli.MutedStyle.Render("\nPreview only. Re-run with --apply to save."))
		return nil
	}

	changed := 0
	for _, a := range p.Assignments {
		task, ok := ctx.Store.Task(a.TaskID)
		if !ok || !a.Changes(task) {
			continue
		}
		date, clock := a.Date, a.Time
		if _, ok := ctx.Store.UpdateTask(task.ID, models.TaskPatch{DueDate: &date, DueTime: &clock}); ok {
			changed++
		}
	}
	fmt.Println(cli.Success(fmt.Sprintf("Updated %d task(s)", changed)))
	return nil
}
