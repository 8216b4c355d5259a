package exchange

import (
	"fmt"
	"io"

	"github.com/julianstephens/daytrack/internal/cli"
	"github.com/julianstephens/daytrack/internal/export"
)

// ExportFlags are shared by the document export commands
type ExportFlags struct {
	Output           string `short:"o" help:"Destination file. Writes to stdout when omitted." default:"-"`
	Range            string `short:"r" help:"Due date range (all|this-week|this-month|this-year|last-month|last-year)." default:"all"`
	IncludeCompleted bool   `help:"Include completed tasks."`
}

func (f ExportFlags) write(ctx *cli.Context, encode func(w io.Writer, rows []export.Row) error) error {
	r, err := export.ParseRange(f.Range)
	if err != nil {
		return err
	}

	tasks := export.Filter(ctx.Store.Tasks(), r, f.IncludeCompleted, ctx.Now())
	rows := export.Rows(tasks, ctx.Store.Categories())

	w, err := openOutput(f.Output)
	if err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}
	if err := encode(w, rows); err != nil {
		w.Close()
		return fmt.Errorf("failed to write export: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	fmt.Fprintln(status(f.Output), cli.Success(fmt.Sprintf("Exported %d task(s)", len(rows))))
	return nil
}

type ExportCSVCmd struct {
	ExportFlags `embed:""`
}

func (c *ExportCSVCmd) Run(ctx *cli.Context) error {
	return c.write(ctx, export.WriteCSV)
}

type ExportJSONCmd struct {
	ExportFlags `embed:""`
}

func (c *ExportJSONCmd) Run(ctx *cli.Context) error {
	return c.write(ctx, export.WriteJSON)
}
