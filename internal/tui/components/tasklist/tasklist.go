package tasklist

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/daytrack/internal/models"
)

// ToggleTaskMsg asks the parent model to flip a task's completion
type ToggleTaskMsg struct {
	ID string
}

type Item struct {
	Task     models.Task
	Category string
}

func (i Item) Title() string {
	if i.Task.IsCompleted() {
		return "✓ " + i.Task.Title
	}
	return i.Task.Title
}

func (i Item) Description() string {
	when := "all day"
	if i.Task.DueTime != "" {
		when = i.Task.DueTime
	}
	parts := []string{when, string(i.Task.Priority)}
	if i.Category != "" {
		parts = append(parts, i.Category)
	}
	if i.Task.RepeatType != "" && i.Task.RepeatType != models.RepeatNone {
		parts = append(parts, fmt.Sprintf("repeats %s", i.Task.RepeatType))
	}
	return strings.Join(parts, " | ")
}

func (i Item) FilterValue() string { return i.Task.Title }

type KeyMap struct {
	Toggle key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Toggle: key.NewBinding(
			key.WithKeys("x", " "),
			key.WithHelp("x", "toggle done"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func items(tasks []models.Task, categories map[string]string) []list.Item {
	out := make([]list.Item, len(tasks))
	for i, t := range tasks {
		out[i] = Item{Task: t, Category: categories[t.CategoryID]}
	}
	return out
}

func New(tasks []models.Task, categories map[string]string, width, height int) Model {
	l := list.New(items(tasks, categories), list.NewDefaultDelegate(), width, height)
	l.Title = "Today"
	l.SetShowTitle(false)
	l.SetShowHelp(false) // We handle help globally in the main model

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Toggle}
	}

	return Model{list: l, keys: keys}
}

func (m *Model) SetTasks(tasks []models.Task, categories map[string]string) {
	m.list.SetItems(items(tasks, categories))
}

// Selected returns the highlighted task
func (m Model) Selected() (models.Task, bool) {
	i, ok := m.list.SelectedItem().(Item)
	if !ok {
		return models.Task{}, false
	}
	return i.Task, true
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		if key.Matches(msg, m.keys.Toggle) {
			if t, ok := m.Selected(); ok {
				return m, func() tea.Msg { return ToggleTaskMsg{ID: t.ID} }
			}
			return m, nil
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return "\n  Nothing due today."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
