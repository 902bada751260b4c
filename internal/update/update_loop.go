package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/timeline/internal/alerts"
	"github.com/sandeepkv93/timeline/internal/model"
	"github.com/sandeepkv93/timeline/internal/views"
)

func (m Model) Init() tea.Cmd {
	return waitForAlertCmd(m.alerts)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if typed.String() == "ctrl+c" {
			m.Quitting = true
			return m, tea.Quit
		}
		switch m.Mode {
		case ModePalette:
			return m.handlePaletteKey(typed), nil
		case ModeConflict:
			return m.handleConflictKey(typed), nil
		case ModeQuickAdd, ModeDraftStart, ModeDraftTitle:
			return m.handleInputKey(typed), nil
		}
		return m.handleBrowseKey(typed)
	case SetStatusMsg:
		m.setStatus(typed.Text, typed.IsError)
		m.notify("Status", typed.Text, levelFromError(typed.IsError))
		return m, nil
	case AppErrorMsg:
		if typed.Err != nil {
			m.fail(typed.Err)
			m.notify("Error", typed.Err.Error(), "error")
		}
		return m, nil
	case AlertDueMsg:
		body := fmt.Sprintf("%s starts at %s", typed.Alert.Title, typed.Alert.At.Format(clockLayout))
		m.setStatus(body, false)
		m.notify("Upcoming", body, "info")
		return m, waitForAlertCmd(m.alerts)
	}
	return m, nil
}

func (m Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case m.Keys.Quit:
		m.Quitting = true
		return m, tea.Quit
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
		return m, nil
	case "/":
		m.Mode = ModePalette
		m.commandInput.SetValue("")
		m.commandInput.Focus()
		m.setStatus("command palette active", false)
	case "j", "down":
		m.Cursor++
		m.clampCursor()
	case "k", "up":
		m.Cursor--
		m.clampCursor()
	case "h", "left":
		m.FocusDate = m.FocusDate.AddDate(0, 0, -1)
		m.Cursor = 0
	case "l", "right":
		m.FocusDate = m.FocusDate.AddDate(0, 0, 1)
		m.Cursor = 0
	case "t":
		m.FocusDate = model.StartOfDay(m.now())
		m.Cursor = 0
	case "a":
		m = m.beginInput(ModeQuickAdd, "add> ", "")
	case "n":
		if _, ok := m.Engine.Draft(); ok {
			m.selectID(model.DraftID)
			return m.beginInput(ModeDraftTitle, "title> ", ""), nil
		}
		m = m.beginInput(ModeDraftStart, "start> ", m.now().Format(clockLayout))
	case "x":
		m = m.setSelectedStatus(model.StatusCompleted)
	case "c":
		m = m.setSelectedStatus(model.StatusCancelled)
	case "d":
		m = m.deleteSelected()
	case "+", "=":
		m = m.shiftSelected(shiftStep)
	case "-":
		m = m.shiftSelected(-shiftStep)
	}
	return m, nil
}

func (m Model) View() string {
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}

	right := strings.TrimSpace(strings.Join([]string{m.renderDetailPane(), m.renderHelpIfVisible()}, "\n\n"))
	prompt := m.renderConflictPrompt()
	switch m.Mode {
	case ModePalette:
		prompt = views.RenderCommandPalette(true, m.commandInput.Value())
	case ModeQuickAdd, ModeDraftStart, ModeDraftTitle:
		prompt = views.RenderInput(true, strings.TrimSuffix(m.input.Prompt, "> "), m.input.Value())
	}

	notification := ""
	if len(m.Notifications) > 0 {
		n := m.Notifications[len(m.Notifications)-1]
		notification = views.RenderNotification(n.Level, n.Body)
	}

	return views.RenderApp(views.AppData{
		Header:       fmt.Sprintf("timeline | %s | mode: %s", m.focusKey(), m.Mode),
		Strip:        m.renderWeekStrip(),
		LeftPane:     m.renderDayView(),
		RightPane:    right,
		Prompt:       prompt,
		StatusLine:   status,
		Notification: notification,
		Footer:       fmt.Sprintf("keys: a add | n draft | / cmd | %s help | %s quit", m.Keys.Help, m.Keys.Quit),
	})
}

func waitForAlertCmd(ch <-chan alerts.Alert) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		a, ok := <-ch
		if !ok {
			return nil
		}
		return AlertDueMsg{Alert: a}
	}
}
