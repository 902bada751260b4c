package alerts

import (
	"sort"
	"time"

	"github.com/sandeepkv93/timeline/internal/model"
)

// FromTasks plans one alert per pending task, lead before its start. Tasks
// whose alert time is already behind now are left out.
func FromTasks(tasks []model.Task, now time.Time, lead time.Duration) []Alert {
	if lead < 0 {
		lead = 0
	}
	out := make([]Alert, 0, len(tasks))
	for _, t := range tasks {
		if t.Status != model.StatusPending || t.Start.IsZero() {
			continue
		}
		at := t.Start.Add(-lead)
		if at.Before(now) {
			continue
		}
		out = append(out, Alert{TaskID: t.ID, Title: t.Title, At: at})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}
