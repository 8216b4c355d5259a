package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/daytrack/internal/cli"
	"github.com/julianstephens/daytrack/internal/constants"
	"github.com/julianstephens/daytrack/internal/stats"
)

const cellWidth = 6

var (
	cellStyle    = lipgloss.NewStyle().Width(cellWidth).Align(lipgloss.Right)
	outsideStyle = cellStyle.Foreground(lipgloss.Color("238"))
	todayStyle   = cellStyle.Foreground(lipgloss.Color("205")).Bold(true)
	busyStyle    = cellStyle.Foreground(lipgloss.Color("214"))
)

type CalendarCmd struct {
	Month string `short:"m" help:"Month to show (YYYY-MM). Defaults to the current month."`
	Date  string `short:"d" help:"List the tasks due on this date (YYYY-MM-DD, today or tomorrow)."`
}

func (c *CalendarCmd) Run(ctx *cli.Context) error {
	now := ctx.Now()
	tasks := ctx.Store.Tasks()

	if c.Date != "" {
		date, err := ctx.ParseDate(c.Date)
		if err != nil {
			return err
		}
		return printDay(ctx, date)
	}

	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	if c.Month != "" {
		m, err := time.ParseInLocation("2006-01", c.Month, now.Location())
		if err != nil {
			return fmt.Errorf("invalid month %q (expected YYYY-MM)", c.Month)
		}
		month = m
	}

	grid := stats.Month(month.Year(), month.Month(), tasks, now)

	fmt.Println(cli.HeaderStyle.Render(month.Format("January 2006")))
	var header strings.Builder
	for _, wd := range []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"} {
		header.WriteString(cellStyle.Render(wd))
	}
	fmt.Println(cli.MutedStyle.Render(header.String()))

	for week := 0; week < len(grid)/7; week++ {
		var line strings.Builder
		for _, day := range grid[week*7 : week*7+7] {
			label := strings.TrimLeft(day.Date[8:], "0")
			if day.Open > 0 {
				label = fmt.Sprintf("%s·%d", label, day.Open)
			}
			style := cellStyle
			switch {
			case day.IsToday:
				style = todayStyle
			case !day.InMonth:
				style = outsideStyle
			case day.Open > 0:
				style = busyStyle
			}
			line.WriteString(style.Render(label))
		}
		fmt.Println(line.String())
	}
	fmt.Println(cli.MutedStyle.Render("  day·n = n open tasks due"))
	return nil
}

func printDay(ctx *cli.Context, date string) error {
	day, err := time.Parse(constants.DateFormat, date)
	if err != nil {
		return err
	}
	fmt.Println(cli.HeaderStyle.Render(day.Format("Monday, January 2, 2006")))

	tasks := stats.ForDate(ctx.Store.Tasks(), date)
	if len(tasks) == 0 {
		fmt.Println("  Nothing due.")
		return nil
	}

	use24h := ctx.Store.Settings().Use24h
	for _, t := range tasks {
		when := "all day"
		if t.DueTime != "" {
			when = cli.FormatClock(t.DueTime, use24h)
		}
		mark := "[ ]"
		if t.IsCompleted() {
			mark = "[x]"
		}
		fmt.Printf("  %-9s %s %s %s\n", when, mark, t.Title, cli.PriorityStyle(t.Priority).Render(string(t.Priority)))
	}
	return nil
}
