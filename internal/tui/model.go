package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/daytrack/internal/constants"
	"github.com/julianstephens/daytrack/internal/models"
	"github.com/julianstephens/daytrack/internal/reminder"
	"github.com/julianstephens/daytrack/internal/scheduler"
	"github.com/julianstephens/daytrack/internal/stats"
	"github.com/julianstephens/daytrack/internal/tui/components/plan"
	"github.com/julianstephens/daytrack/internal/tui/components/tasklist"
)

type SessionState int

const (
	StateToday SessionState = iota
	StateWeek
)

var tabTitles = []string{"Today", "Week"}

// Store is the part of the task store the watch view reads and changes
type Store interface {
	Tasks() []models.Task
	Categories() []models.Category
	ToggleComplete(id string) (models.Task, *models.Task, bool)
	UpdateTask(id string, patch models.TaskPatch) (models.Task, bool)
}

// AlertMsg carries a fired reminder into the view
type AlertMsg struct {
	Decision reminder.Decision
}

// ChangedMsg tells the view to reload from the store
type ChangedMsg struct{}

type Model struct {
	store     Store
	scheduler *scheduler.Scheduler
	now       func() time.Time
	state     SessionState
	keys      KeyMap
	help      help.Model
	taskList  tasklist.Model
	planModel plan.Model
	alerts    []reminder.Decision
	status    string
	quitting  bool
	width     int
	height    int
}

// NewModel builds the watch view. now defaults to time.Now when nil.
func NewModel(store Store, now func() time.Time) Model {
	if now == nil {
		now = time.Now
	}
	m := Model{
		store:     store,
		scheduler: scheduler.New(),
		now:       now,
		state:     StateToday,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		taskList:  tasklist.New(nil, nil, 0, 0),
		planModel: plan.New(0, 0),
	}
	m.refresh()
	return m
}

// refresh reloads today's list and the week preview from the store
func (m *Model) refresh() {
	tasks := m.store.Tasks()
	names := make(map[string]string)
	for _, c := range m.store.Categories() {
		names[c.ID] = c.Name
	}

	now := m.now()
	m.taskList.SetTasks(stats.ForDate(tasks, now.Format(constants.DateFormat)), names)
	m.planModel.SetPlan(m.scheduler.PlanWeek(tasks, now, scheduler.DefaultMaxPerDay, false))
}

// Alert returns the reminder currently shown, if any
func (m Model) Alert() (reminder.Decision, bool) {
	if len(m.alerts) == 0 {
		return reminder.Decision{}, false
	}
	return m.alerts[0], true
}

func (m Model) ShortHelp() []key.Binding {
	if _, ok := m.Alert(); ok {
		return []key.Binding{m.keys.Snooze, m.keys.Dismiss, m.keys.Quit}
	}
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	if m.state == StateToday {
		keys = append(keys, m.keys.Complete)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	return m.keys.FullHelp()
}

func (m Model) Init() tea.Cmd {
	return nil
}
