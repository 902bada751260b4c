package update

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/timeline/internal/model"
	"github.com/sandeepkv93/timeline/internal/scheduler"
	"github.com/sandeepkv93/timeline/internal/views"
)

const shiftStep = 15 * time.Minute

var errInvalidStart = errors.New("start must be HH:MM or YYYY-MM-DD HH:MM")

func (m Model) beginInput(mode Mode, prompt, value string) Model {
	m.Mode = mode
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
	return m
}

func (m Model) endInput() Model {
	m.Mode = ModeBrowse
	m.input.SetValue("")
	m.input.Blur()
	return m
}

func (m Model) handleInputKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		if m.Mode == ModeDraftTitle && m.Engine.RemoveDraftTask() {
			m.setStatus("draft discarded", false)
		} else {
			m.setStatus("cancelled", false)
		}
		m = m.endInput()
		m.clampCursor()
		return m
	case "enter":
		value := strings.TrimSpace(m.input.Value())
		switch m.Mode {
		case ModeQuickAdd:
			return m.submitQuickAdd(value)
		case ModeDraftStart:
			return m.submitDraftStart(value)
		case ModeDraftTitle:
			return m.submitDraftTitle(value)
		}
		return m.endInput()
	default:
		m.input = editInput(m.input, msg)
		return m
	}
}

// submitQuickAdd runs the input as an add command so @date and @time work.
func (m Model) submitQuickAdd(value string) Model {
	m = m.endInput()
	if value == "" {
		m.setStatus("nothing to add", false)
		return m
	}
	return m.runCommand("add " + value)
}

func (m Model) submitDraftStart(value string) Model {
	engine, day := m.Engine, m.focusKey()
	place := func(resolve scheduler.ConflictResolver) error {
		ok, err := engine.CreateDraftTask(value, day, resolve)
		if err != nil {
			return err
		}
		if !ok {
			return errInvalidStart
		}
		return nil
	}
	m = m.endInput()
	return m.place("draft "+value, place, func(m Model) Model {
		m.selectID(model.DraftID)
		m.setStatus("draft placed, enter a title", false)
		return m.beginInput(ModeDraftTitle, "title> ", "")
	})
}

func (m Model) submitDraftTitle(value string) Model {
	task, err := m.Engine.CreateFinalTask(value, "", "", m.focusKey())
	if err != nil {
		m.fail(err)
		return m
	}
	m = m.endInput()
	m.selectID(task.ID)
	m.setStatus(fmt.Sprintf("scheduled: %s", task.Title), false)
	m.notify("Scheduled", task.Title, "info")
	return m
}

// place runs fn without a resolver. A conflict parks fn for confirmation;
// success hands over to done.
func (m Model) place(label string, fn func(scheduler.ConflictResolver) error, done func(Model) Model) Model {
	err := fn(nil)
	var ce *scheduler.ConflictError
	switch {
	case errors.As(err, &ce):
		m.pending = &pendingPlacement{label: label, conflicts: ce.Conflicts, retry: fn, done: done}
		m.Mode = ModeConflict
		m.setStatus(fmt.Sprintf("%s overlaps %d task(s)", label, len(ce.Conflicts)), true)
		return m
	case err != nil:
		m.fail(err)
		return m
	}
	return done(m)
}

func (m Model) handleConflictKey(msg tea.KeyMsg) Model {
	p := m.pending
	if p == nil {
		m.Mode = ModeBrowse
		return m
	}
	switch msg.String() {
	case "y", "Y", "enter":
		m.pending = nil
		m.Mode = ModeBrowse
		if err := p.retry(scheduler.AcceptConflicts); err != nil {
			m.fail(err)
			return m
		}
		return p.done(m)
	case "n", "N", "esc":
		m.pending = nil
		m.Mode = ModeBrowse
		m.setStatus(p.label+" not scheduled", false)
	}
	return m
}

func (m Model) renderConflictPrompt() string {
	if m.Mode != ModeConflict || m.pending == nil {
		return ""
	}
	lines := make([]string, 0, len(m.pending.conflicts))
	for _, c := range m.pending.conflicts {
		lines = append(lines, fmt.Sprintf("%s %s-%s", c.Title, c.Start.Format(clockLayout), c.End.Format(clockLayout)))
	}
	return views.RenderConflictPrompt(views.ConflictPromptData{Candidate: m.pending.label, Conflicts: lines})
}

func (m Model) setSelectedStatus(status model.Status) Model {
	t, ok := m.selectedTask()
	if !ok {
		m.setStatus("no task selected", true)
		return m
	}
	return m.setTaskStatus(t.ID, status)
}

func (m Model) setTaskStatus(id string, status model.Status) Model {
	if id == model.DraftID {
		m.setStatus("finish or discard the draft first", true)
		return m
	}
	value := string(status)
	found, err := m.Engine.UpdateTask(id, model.Patch{Status: &value}, nil)
	switch {
	case err != nil:
		m.fail(err)
	case !found:
		m.setStatus(fmt.Sprintf("no task %s", id), true)
	default:
		m.setStatus(fmt.Sprintf("task %s", status), false)
	}
	return m
}

func (m Model) deleteSelected() Model {
	t, ok := m.selectedTask()
	if !ok {
		m.setStatus("no task selected", true)
		return m
	}
	return m.deleteTask(t.ID)
}

func (m Model) deleteTask(id string) Model {
	removed, err := m.Engine.DeleteTask(id)
	switch {
	case err != nil:
		m.fail(err)
	case !removed:
		m.setStatus(fmt.Sprintf("no task %s", id), true)
	default:
		m.setStatus("task deleted", false)
	}
	m.clampCursor()
	return m
}

// shiftSelected moves the selected task by delta, keeping its duration.
func (m Model) shiftSelected(delta time.Duration) Model {
	t, ok := m.selectedTask()
	if !ok {
		m.setStatus("no task selected", true)
		return m
	}
	start := model.FormatTimestamp(t.Start.Add(delta))
	end := model.FormatTimestamp(t.End.Add(delta))
	engine, id := m.Engine, t.ID
	move := func(resolve scheduler.ConflictResolver) error {
		_, err := engine.UpdateTask(id, model.Patch{Start: &start, End: &end}, resolve)
		return err
	}
	return m.place(fmt.Sprintf("move %q", t.Title), move, func(m Model) Model {
		m.FocusDate = model.StartOfDay(t.Start.Add(delta))
		m.selectID(id)
		m.setStatus(fmt.Sprintf("moved to %s", start), false)
		return m
	})
}
