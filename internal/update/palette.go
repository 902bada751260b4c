package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/sandeepkv93/timeline/internal/commands"
	"github.com/sandeepkv93/timeline/internal/dateindex"
	"github.com/sandeepkv93/timeline/internal/model"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m.Mode = ModeBrowse
		m.commandInput.SetValue("")
		m.commandInput.Blur()
		m.setStatus("command palette closed", false)
	case "enter":
		raw := strings.TrimSpace(m.commandInput.Value())
		m.Mode = ModeBrowse
		m.commandInput.SetValue("")
		m.commandInput.Blur()
		m = m.runCommand(raw)
	default:
		m.commandInput = editInput(m.commandInput, msg)
	}
	return m
}

// runCommand parses and executes a palette command. The draft handler may
// leave the model in a follow-up mode.
func (m Model) runCommand(raw string) Model {
	cmd, err := commands.Parse(raw)
	if err != nil {
		m.fail(err)
		return m
	}

	next := m
	res, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			date := ""
			if a.Date != "" {
				d, err := commands.ResolveDate(a.Date, m.now())
				if err != nil {
					return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: err.Error()}
				}
				date = d
			}
			task, err := m.Engine.QuickAddTask(a.Title, date, a.Clock)
			if err != nil {
				return commands.Result{}, err
			}
			next.FocusDate = model.StartOfDay(task.Start)
			next.selectID(task.ID)
			return commands.Result{Message: fmt.Sprintf("added: %s @ %s", task.Title, model.FormatTimestamp(task.Start))}, nil
		},
		Done: func(a commands.TargetArgs) (commands.Result, error) {
			next = next.setTaskStatus(a.ID, model.StatusCompleted)
			return commands.Result{Message: next.Status.Text}, statusErr(next)
		},
		Cancel: func(a commands.TargetArgs) (commands.Result, error) {
			next = next.setTaskStatus(a.ID, model.StatusCancelled)
			return commands.Result{Message: next.Status.Text}, statusErr(next)
		},
		Delete: func(a commands.TargetArgs) (commands.Result, error) {
			next = next.deleteTask(a.ID)
			return commands.Result{Message: next.Status.Text}, statusErr(next)
		},
		Goto: func(a commands.GotoArgs) (commands.Result, error) {
			key, err := commands.ResolveDate(a.Date, m.now())
			if err != nil {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: err.Error()}
			}
			d, _ := model.ParseDate(key)
			next.FocusDate = d
			next.Cursor = 0
			return commands.Result{Message: "showing " + dateindex.Key(d)}, nil
		},
		Draft: func(a commands.DraftArgs) (commands.Result, error) {
			next = next.submitDraftStart(a.Start)
			return commands.Result{Message: next.Status.Text}, statusErr(next)
		},
	})
	if err != nil {
		next.fail(err)
		next.notify("Command Failed", err.Error(), "error")
		return next
	}
	next.setStatus(res.Message, false)
	next.notify("Command", res.Message, "info")
	return next
}

// statusErr surfaces a failure already recorded on the status bar so Execute
// reports it.
func statusErr(m Model) error {
	if m.Status.IsError && m.Mode != ModeConflict {
		return fmt.Errorf("%s", m.Status.Text)
	}
	return nil
}

// editInput appends typed runes directly and delegates everything else to
// the textinput component.
func editInput(in textinput.Model, msg tea.KeyMsg) textinput.Model {
	if msg.Type == tea.KeyRunes {
		in.SetValue(in.Value() + string(msg.Runes))
		in.CursorEnd()
		return in
	}
	var cmd tea.Cmd
	in, cmd = in.Update(msg)
	_ = cmd
	return in
}
