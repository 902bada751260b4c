package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/sandeepkv93/timeline/internal/views"
)

type KeyBinding struct {
	Key    string
	Action string
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	return m.renderHelpView()
}

func (m Model) renderHelpView() string {
	bindings := m.helpBindings()
	var plain []string
	for _, kb := range m.modeBindings() {
		plain = append(plain, fmt.Sprintf("- %s: %s", kb.Key, kb.Action))
	}
	return views.RenderHelpPanel(views.HelpPanelData{
		Bindings: plain,
		HelpView: m.helpModel.View(helpKeyMap{
			short: bindings,
			full:  [][]key.Binding{bindings},
		}),
	})
}

func (m Model) globalBindings() []KeyBinding {
	return []KeyBinding{
		{Key: "/", Action: "open command palette"},
		{Key: m.Keys.Help, Action: "toggle help panel"},
		{Key: m.Keys.Quit, Action: "quit app"},
	}
}

func (m Model) modeBindings() []KeyBinding {
	switch m.Mode {
	case ModeBrowse:
		return []KeyBinding{
			{Key: "j/k", Action: "move selection"},
			{Key: "h/l", Action: "previous/next day"},
			{Key: "t", Action: "jump to today"},
			{Key: "a", Action: "quick add (title [@date] [@HH:MM])"},
			{Key: "n", Action: "place a draft on this day"},
			{Key: "x/c", Action: "mark done / cancel"},
			{Key: "d", Action: "delete"},
			{Key: "+/-", Action: "move 15 minutes later/earlier"},
		}
	case ModeConflict:
		return []KeyBinding{
			{Key: "y", Action: "schedule anyway"},
			{Key: "n", Action: "keep things as they were"},
		}
	case ModePalette:
		return []KeyBinding{
			{Key: "add/done/cancel/delete/goto/draft", Action: "commands"},
			{Key: "enter", Action: "run"},
			{Key: "esc", Action: "close"},
		}
	default:
		return []KeyBinding{
			{Key: "enter", Action: "submit"},
			{Key: "esc", Action: "cancel"},
		}
	}
}

func (m Model) helpBindings() []key.Binding {
	out := make([]key.Binding, 0, len(m.globalBindings())+len(m.modeBindings()))
	for _, kb := range m.globalBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	for _, kb := range m.modeBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}
