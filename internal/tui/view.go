package tui

import (
	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	if alert, ok := m.Alert(); ok {
		content = m.viewAlert(alert.Title(), alert.Body())
	} else {
		switch m.state {
		case StateToday:
			content = docStyle.Render(m.taskList.View())
		case StateWeek:
			content = docStyle.Render(m.planModel.View())
		}
	}

	parts := []string{m.viewTabs(), content}
	if m.status != "" {
		parts = append(parts, mutedStyle.Render(m.status))
	}
	parts = append(parts, m.help.View(m))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) viewTabs() string {
	var tabs []string
	for i, title := range tabTitles {
		if m.state == SessionState(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewAlert(title, body string) string {
	box := alertStyle.Render(lipgloss.JoinVertical(lipgloss.Center,
		alertTitleStyle.Render(title),
		"",
		body,
		"",
		"[s] Snooze 5 min   [d] Dismiss",
	))
	if len(m.alerts) > 1 {
		box = lipgloss.JoinVertical(lipgloss.Center, box, dangerStyle.Render("more reminders waiting"))
	}
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height-4, lipgloss.Center, lipgloss.Center, box)
}
