package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/daytrack/internal/cli"
	"github.com/julianstephens/daytrack/internal/stats"
)

const barWidth = 20

type StatsCmd struct{}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	now := ctx.Now()
	tasks := ctx.Store.Tasks()
	d := stats.Compute(tasks, ctx.Store.Categories(), now)

	fmt.Println(cli.HeaderStyle.Render("Dashboard"))
	fmt.Println()
	fmt.Printf("  Total tasks:          %d\n", d.Total)
	fmt.Printf("  Completed:            %d (%d%%)\n", d.Completed, d.CompletionRate)
	fmt.Printf("  Completed today:      %d\n", d.CompletedToday)
	fmt.Printf("  Completed this week:  %d\n", d.CompletedThisWeek)
	fmt.Printf("  Due today:            %d\n", d.DueToday)
	fmt.Printf("  Upcoming (7 days):    %d\n", d.Upcoming)
	overdue := fmt.Sprintf("%d", d.Overdue)
	if d.Overdue > 0 {
		overdue = cli.ErrorStyle.Render(overdue)
	}
	fmt.Printf("  Overdue:              %s\n", overdue)

	if len(d.ByCategory) > 0 {
		fmt.Println()
		fmt.Println(cli.HeaderStyle.Render("Open by category"))
		for _, cc := range d.ByCategory {
			name := cc.Category.Name
			if strings.HasPrefix(cc.Category.Color, "#") {
				name = lipgloss.NewStyle().Foreground(lipgloss.Color(cc.Category.Color)).Render(name)
			}
			fmt.Printf("  %-20s %d\n", name, cc.Open)
		}
	}

	fmt.Println()
	fmt.Println(cli.HeaderStyle.Render("Completed, last 7 days"))
	peak := 0
	for _, day := range d.LastSevenDays {
		peak = max(peak, day.Count)
	}
	for _, day := range d.LastSevenDays {
		width := 0
		if peak > 0 {
			width = day.Count * barWidth / peak
		}
		fmt.Printf("  %s  %s %d\n", day.Date, cli.SuccessStyle.Render(strings.Repeat("█", width)), day.Count)
	}

	if missed := stats.MissedReminders(tasks, now); len(missed) > 0 {
		fmt.Println()
		fmt.Println(cli.Warning(fmt.Sprintf("%d open task(s) with a reminder are past due", len(missed))))
		use24h := ctx.Store.Settings().Use24h
		for _, t := range missed {
			fmt.Printf("    %s  %s %s\n", cli.FormatDue(t, use24h), t.Title, cli.MutedStyle.Render(cli.ShortID(t.ID)))
		}
	}
	return nil
}
