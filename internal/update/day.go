package update

import (
	"github.com/sandeepkv93/timeline/internal/conflict"
	"github.com/sandeepkv93/timeline/internal/dateindex"
	"github.com/sandeepkv93/timeline/internal/model"
	"github.com/sandeepkv93/timeline/internal/views"
)

const clockLayout = "15:04"

// dayTasks returns the focus day's bucket, draft included, ordered by start.
func (m Model) dayTasks() []model.Task {
	if m.Engine == nil {
		return nil
	}
	return dateindex.SortByStart(m.Engine.TasksOn(m.focusKey()))
}

func (m Model) selectedTask() (model.Task, bool) {
	tasks := m.dayTasks()
	if m.Cursor < 0 || m.Cursor >= len(tasks) {
		return model.Task{}, false
	}
	return tasks[m.Cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.dayTasks())
	if m.Cursor >= n {
		m.Cursor = n - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
}

func (m *Model) selectID(id string) {
	for i, t := range m.dayTasks() {
		if t.ID == id {
			m.Cursor = i
			return
		}
	}
	m.clampCursor()
}

func (m Model) renderDayView() string {
	tasks := m.dayTasks()
	items := make([]views.DayItemData, 0, len(tasks))
	selectedID := ""
	for i, t := range tasks {
		if i == m.Cursor {
			selectedID = t.ID
		}
		items = append(items, views.DayItemData{
			ID:       t.ID,
			Title:    t.Title,
			Start:    t.Start.Format(clockLayout),
			End:      t.End.Format(clockLayout),
			Status:   string(t.Status),
			Priority: string(t.Priority),
			Color:    t.Color,
			Conflict: conflict.HasConflict(t, tasks),
		})
	}
	return views.RenderDayPanel(views.DayPanelData{
		Date:       m.focusKey(),
		Weekday:    m.FocusDate.Format("Mon"),
		Items:      items,
		SelectedID: selectedID,
	})
}

func (m Model) renderWeekStrip() string {
	if m.Engine == nil {
		return ""
	}
	idx := m.Engine.Grouped()
	days := make([]views.DayCount, 0, 7)
	for offset := -3; offset <= 3; offset++ {
		day := m.FocusDate.AddDate(0, 0, offset)
		key := dateindex.Key(day)
		days = append(days, views.DayCount{
			Date:  key,
			Label: day.Format("Mon 02"),
			Count: len(idx.On(key)),
		})
	}
	return views.RenderWeekStrip(days, m.focusKey())
}

func (m Model) renderDetailPane() string {
	t, ok := m.selectedTask()
	if !ok {
		return views.RenderDetailPane(views.DetailData{})
	}
	return views.RenderDetailPane(views.DetailData{
		ID:          t.ID,
		Title:       t.Title,
		When:        model.FormatTimestamp(t.Start) + " - " + t.End.Format(clockLayout),
		Priority:    string(t.Priority),
		Category:    t.Category,
		Status:      string(t.Status),
		SummaryView: views.RenderMarkdown(t.Summary, 44),
	})
}
