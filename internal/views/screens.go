package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type DayItemData struct {
	ID       string
	Title    string
	Start    string
	End      string
	Status   string
	Priority string
	Color    string
	Conflict bool
}

type DayPanelData struct {
	Date       string
	Weekday    string
	Items      []DayItemData
	SelectedID string
}

type DayCount struct {
	Date  string
	Label string
	Count int
}

type DetailData struct {
	ID          string
	Title       string
	When        string
	Priority    string
	Category    string
	Status      string
	SummaryView string
}

type ConflictPromptData struct {
	Candidate string
	Conflicts []string
}

type HelpPanelData struct {
	Bindings []string
	HelpView string
}

var (
	selectedStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Strikethrough(true)
	draftStyle    = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("11"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	focusDayStyle = lipgloss.NewStyle().Underline(true).Bold(true)
)

func RenderDayPanel(data DayPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("day: %s %s\n", data.Date, data.Weekday))
	b.WriteString("actions: [j/k]move [h/l]day [t]today [a]add [n]draft [x]done [c]cancel [d]delete\n")
	if len(data.Items) == 0 {
		b.WriteString("\n  (nothing scheduled)")
		return b.String()
	}
	b.WriteString("\n")
	for _, item := range data.Items {
		b.WriteString(renderDayItem(item, item.ID == data.SelectedID))
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func renderDayItem(item DayItemData, selected bool) string {
	cursor := " "
	if selected {
		cursor = ">"
	}
	flag := " "
	if item.Conflict {
		flag = warnStyle.Render("!")
	}
	title := item.Title
	if title == "" {
		title = "(untitled)"
	}
	line := fmt.Sprintf("%s-%s %s %s", item.Start, item.End, statusMark(item.Status), title)
	switch item.Status {
	case "completed", "cancelled":
		line = mutedStyle.Render(line)
	case "draft":
		line = draftStyle.Render(line)
	default:
		if selected {
			line = selectedStyle.Render(line)
		}
	}
	return fmt.Sprintf("%s%s %s %s", cursor, flag, Swatch(item.Color), line)
}

// Swatch renders a colored block for a task's display color.
func Swatch(color string) string {
	if strings.TrimSpace(color) == "" {
		return " "
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("█")
}

func statusMark(status string) string {
	switch status {
	case "completed":
		return "[x]"
	case "cancelled":
		return "[-]"
	case "draft":
		return "[~]"
	default:
		return "[ ]"
	}
}

// RenderWeekStrip shows task counts for the days around the focus date.
func RenderWeekStrip(days []DayCount, focus string) string {
	cells := make([]string, 0, len(days))
	for _, d := range days {
		cell := fmt.Sprintf("%s %d", d.Label, d.Count)
		if d.Date == focus {
			cell = focusDayStyle.Render(cell)
		}
		cells = append(cells, cell)
	}
	return strings.Join(cells, "  ")
}

func RenderDetailPane(data DetailData) string {
	if strings.TrimSpace(data.ID) == "" {
		return "details:\n(no selection)"
	}
	out := fmt.Sprintf("details:\nid: %s\ntitle: %s\nwhen: %s\npriority: %s\ncategory: %s\nstatus: %s",
		data.ID,
		data.Title,
		data.When,
		data.Priority,
		data.Category,
		data.Status,
	)
	if data.SummaryView != "" {
		out += "\n\nsummary:\n" + data.SummaryView
	}
	return out
}

func RenderConflictPrompt(data ConflictPromptData) string {
	if len(data.Conflicts) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(warnStyle.Render("conflict") + fmt.Sprintf(": %s overlaps\n", data.Candidate))
	for _, c := range data.Conflicts {
		b.WriteString("- " + c + "\n")
	}
	b.WriteString("schedule anyway? [y]es [n]o")
	return b.String()
}

func RenderInput(active bool, label, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("%s: %s", label, input)
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s", input)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("notification: [%s] %s", strings.ToUpper(level), body)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\n%s\n%s",
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}
