package plan

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/daytrack/internal/scheduler"
)

var (
	dayStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(8)

	taskStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// Model shows a week plan preview grouped by day
type Model struct {
	viewport viewport.Model
	Plan     *scheduler.Plan
	width    int
	height   int
}

func New(width, height int) Model {
	vp := viewport.New(width, height)
	return Model{viewport: vp}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.Plan == nil {
		return "No open tasks this week."
	}
	return m.viewport.View()
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.Render()
}

func (m *Model) SetPlan(plan scheduler.Plan) {
	m.Plan = &plan
	m.Render()
}

func (m *Model) Render() {
	if m.Plan == nil {
		m.viewport.SetContent("No plan loaded.")
		return
	}
	m.viewport.SetContent(Render(*m.Plan))
}

// Render formats a plan as one block per day
func Render(p scheduler.Plan) string {
	var b strings.Builder
	for _, day := range p.Days {
		b.WriteString(dayStyle.Render(day))
		b.WriteString("\n")
		assigned := p.ForDay(day)
		if len(assigned) == 0 {
			b.WriteString("  " + emptyStyle.Render("free") + "\n")
			continue
		}
		for _, a := range assigned {
			when := a.Time
			if when == "" {
				when = "all day"
			}
			fmt.Fprintf(&b, "  %s %s\n", timeStyle.Render(when), taskStyle.Render(a.Title))
		}
	}
	return b.String()
}
