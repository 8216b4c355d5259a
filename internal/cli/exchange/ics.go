package exchange

import (
	"fmt"
	"os"

	"github.com/julianstephens/daytrack/internal/cli"
	"github.com/julianstephens/daytrack/internal/ical"
)

type ICSExportCmd struct {
	Output           string `short:"o" help:"Destination .ics file. Writes to stdout when omitted." default:"-"`
	IncludeCompleted bool   `help:"Include completed tasks."`
}

func (c *ICSExportCmd) Run(ctx *cli.Context) error {
	tasks := ctx.Store.Tasks()
	if !c.IncludeCompleted {
		open := tasks[:0]
		for _, t := range tasks {
			if !t.IsCompleted() {
				open = append(open, t)
			}
		}
		tasks = open
	}

	w, err := openOutput(c.Output)
	if err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}
	if err := ical.Export(w, tasks, ctx.Store.Categories(), ctx.Now()); err != nil {
		w.Close()
		return fmt.Errorf("failed to write calendar: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to write calendar: %w", err)
	}

	fmt.Fprintln(status(c.Output), cli.Success(fmt.Sprintf("Exported %d task(s)", len(tasks))))
	return nil
}

type ICSImportCmd struct {
	Path   string `arg:"" help:"Calendar file to import." type:"existingfile"`
	DryRun bool   `help:"Show what would be imported without saving."`
}

func (c *ICSImportCmd) Run(ctx *cli.Context) error {
	f, err := os.Open(c.Path)
	if err != nil {
		return fmt.Errorf("failed to open calendar: %w", err)
	}
	defer f.Close()

	res, err := ical.Import(f, ctx.Store.Categories(), ctx.Store.Settings())
	if err != nil {
		return err
	}

	use24h := ctx.Store.Settings().Use24h
	for _, draft := range res.Drafts {
		if c.DryRun {
			when := draft.DueDate
			if draft.DueTime != "" {
				when += " " + cli.FormatClock(draft.DueTime, use24h)
			}
			fmt.Printf("  %s  %s\n", when, draft.Title)
			continue
		}
		ctx.Store.AddTask(draft)
	}

	verb := "Imported"
	if c.DryRun {
		verb = "Would import"
	}
	fmt.Println(cli.Success(fmt.Sprintf("%s %d task(s)", verb, len(res.Drafts))))
	if res.Skipped > 0 {
		fmt.Println(cli.Warning(fmt.Sprintf("Skipped %d event(s) without a usable start date", res.Skipped)))
	}
	return nil
}
