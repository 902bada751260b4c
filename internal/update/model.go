package update

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/log"
	"github.com/sandeepkv93/timeline/internal/alerts"
	"github.com/sandeepkv93/timeline/internal/dateindex"
	"github.com/sandeepkv93/timeline/internal/model"
	"github.com/sandeepkv93/timeline/internal/scheduler"
)

// Mode is the input mode of the TUI. Only one prompt is active at a time.
type Mode string

const (
	ModeBrowse     Mode = "browse"
	ModeQuickAdd   Mode = "quick_add"
	ModeDraftStart Mode = "draft_start"
	ModeDraftTitle Mode = "draft_title"
	ModeConflict   Mode = "conflict"
	ModePalette    Mode = "palette"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Help string
	Quit string
}

type Notification struct {
	Title string
	Body  string
	Level string
	At    time.Time
}

type DesktopNotifier interface {
	Send(Notification) error
}

type NoopDesktopNotifier struct{}

func (NoopDesktopNotifier) Send(Notification) error { return nil }

type ExecDesktopNotifier struct{}

func (ExecDesktopNotifier) Send(n Notification) error {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("notify-send", n.Title, n.Body).Run()
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(n.Body), escapeAppleScript(n.Title))
		return exec.Command("osascript", "-e", script).Run()
	default:
		return nil
	}
}

// pendingPlacement is an engine call that was declined because of a
// conflict. It is replayed with AcceptConflicts when the user confirms.
type pendingPlacement struct {
	label     string
	conflicts []model.Task
	retry     func(scheduler.ConflictResolver) error
	done      func(Model) Model
}

type Model struct {
	Engine        *scheduler.Engine
	Mode          Mode
	FocusDate     time.Time
	Cursor        int
	HelpVisible   bool
	Notifications []Notification
	Status        StatusBar
	Keys          GlobalKeyMap
	Quitting      bool
	LastError     error

	alerts         <-chan alerts.Alert
	notifier       DesktopNotifier
	desktopEnabled bool
	logger         *log.Logger
	now            func() time.Time
	pending        *pendingPlacement
	input          textinput.Model
	commandInput   textinput.Model
	helpModel      help.Model
}

type Options struct {
	Alerts         <-chan alerts.Alert
	Notifier       DesktopNotifier
	DesktopEnabled bool
	Logger         *log.Logger
	Now            func() time.Time
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type AppErrorMsg struct {
	Err error
}

type AlertDueMsg struct {
	Alert alerts.Alert
}

func NewModel(engine *scheduler.Engine, opts Options) Model {
	m := Model{
		Engine:         engine,
		Mode:           ModeBrowse,
		Keys:           GlobalKeyMap{Help: "?", Quit: "q"},
		alerts:         opts.Alerts,
		notifier:       opts.Notifier,
		desktopEnabled: opts.DesktopEnabled,
		logger:         opts.Logger,
		now:            opts.Now,
		helpModel:      help.New(),
	}
	if m.notifier == nil {
		m.notifier = NoopDesktopNotifier{}
	}
	if m.logger == nil {
		m.logger = log.New(io.Discard)
	}
	if m.now == nil {
		m.now = time.Now
	}
	m.FocusDate = model.StartOfDay(m.now())

	m.input = textinput.New()
	m.input.CharLimit = 256
	m.input.Width = 42

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 42
	return m
}

func (m Model) focusKey() string {
	return dateindex.Key(m.FocusDate)
}

func (m *Model) notify(title, body, level string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	n := Notification{
		Title: title,
		Body:  body,
		Level: level,
		At:    m.now(),
	}
	m.Notifications = append(m.Notifications, n)
	if len(m.Notifications) > 40 {
		m.Notifications = m.Notifications[len(m.Notifications)-40:]
	}
	if m.desktopEnabled && m.notifier != nil {
		if err := m.notifier.Send(n); err != nil {
			m.logger.Warn("desktop notification failed", "err", err)
		}
	}
}

func (m *Model) setStatus(text string, isErr bool) {
	m.Status = StatusBar{Text: text, IsError: isErr}
}

func (m *Model) fail(err error) {
	m.LastError = err
	m.setStatus(err.Error(), true)
	m.logger.Debug("action failed", "err", err)
}

func levelFromError(isErr bool) string {
	if isErr {
		return "error"
	}
	return "info"
}

func escapeAppleScript(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
