package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/daytrack/internal/reminder"
	"github.com/julianstephens/daytrack/internal/tui/components/tasklist"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.taskList.SetSize(msg.Width-4, msg.Height-6)
		m.planModel.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case AlertMsg:
		m.alerts = append(m.alerts, msg.Decision)
		m.refresh()
		return m, nil

	case ChangedMsg:
		m.refresh()
		return m, nil

	case tasklist.ToggleTaskMsg:
		task, spawned, ok := m.store.ToggleComplete(msg.ID)
		switch {
		case !ok:
			m.status = "Task no longer exists"
		case spawned != nil:
			m.status = fmt.Sprintf("Completed %q, next due %s", task.Title, spawned.DueDate)
		case task.IsCompleted():
			m.status = fmt.Sprintf("Completed %q", task.Title)
		default:
			m.status = fmt.Sprintf("Reopened %q", task.Title)
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		if alert, ok := m.Alert(); ok {
			return m.updateAlert(msg, alert)
		}
		switch {
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Tab):
			m.state = (m.state + 1) % SessionState(len(tabTitles))
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.state = (m.state - 1 + SessionState(len(tabTitles))) % SessionState(len(tabTitles))
			return m, nil
		}
	}

	switch m.state {
	case StateToday:
		m.taskList, cmd = m.taskList.Update(msg)
	case StateWeek:
		m.planModel, cmd = m.planModel.Update(msg)
	}
	return m, cmd
}

func (m Model) updateAlert(msg tea.KeyMsg, alert reminder.Decision) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Snooze):
		if task, ok := reminder.Snooze(m.store, alert.Task.ID, m.now()); ok {
			m.status = fmt.Sprintf("Snoozed %q until %s", task.Title, task.DueTime)
		} else {
			m.status = "Task no longer exists"
		}
		m.alerts = m.alerts[1:]
		m.refresh()
	case key.Matches(msg, m.keys.Dismiss):
		m.alerts = m.alerts[1:]
	}
	return m, nil
}
