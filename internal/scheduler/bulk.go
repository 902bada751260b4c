package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/timeline/internal/model"
)

// BulkPolicy decides what AddBulkTasks does with items that fail validation.
type BulkPolicy string

const (
	// BulkStrict skips invalid items and reports them in the result.
	BulkStrict BulkPolicy = "strict"
	// BulkTolerant creates invalid items anyway and logs a warning for each.
	BulkTolerant BulkPolicy = "tolerant"
)

func (p BulkPolicy) IsValid() bool {
	return p == BulkStrict || p == BulkTolerant
}

func ParseBulkPolicy(raw string) (BulkPolicy, error) {
	p := BulkPolicy(strings.ToLower(strings.TrimSpace(raw)))
	if !p.IsValid() {
		return "", fmt.Errorf("scheduler: unknown bulk policy %q", raw)
	}
	return p, nil
}

type BulkItem struct {
	Index   int
	Task    model.Task
	Errors  []string
	Created bool
}

type BulkResult struct {
	Items []BulkItem
}

func (r BulkResult) Created() int {
	n := 0
	for _, item := range r.Items {
		if item.Created {
			n++
		}
	}
	return n
}

func (r BulkResult) Invalid() []BulkItem {
	out := make([]BulkItem, 0)
	for _, item := range r.Items {
		if len(item.Errors) > 0 {
			out = append(out, item)
		}
	}
	return out
}

// AddBulkTasks validates every item independently and appends the accepted
// ones as pending tasks in a single commit. Which items are accepted depends
// on the engine's BulkPolicy; the result lists each item's outcome either way.
func (e *Engine) AddBulkTasks(items []model.Input) (BulkResult, error) {
	result := BulkResult{Items: make([]BulkItem, 0, len(items))}
	now := e.stamp()
	created := make([]model.Task, 0, len(items))

	for i, in := range items {
		res := model.Validate(in)
		item := BulkItem{Index: i, Errors: res.Errors}
		if !res.IsValid {
			if e.bulkPolicy != BulkTolerant {
				e.logger.Warn("bulk item rejected", "index", i, "errors", strings.Join(res.Errors, "; "))
				result.Items = append(result.Items, item)
				continue
			}
			e.logger.Warn("bulk item created despite validation errors", "index", i, "errors", strings.Join(res.Errors, "; "))
		}
		item.Task = e.taskFromInput(in, now)
		item.Created = true
		created = append(created, item.Task)
		result.Items = append(result.Items, item)
	}

	if len(created) == 0 {
		return result, nil
	}
	if err := e.replace(append(e.Tasks(), created...)); err != nil {
		for i := range result.Items {
			result.Items[i].Created = false
		}
		return result, err
	}
	return result, nil
}

// taskFromInput builds a pending task from a bulk item, falling back to now
// and the default duration for missing or unparsable times.
func (e *Engine) taskFromInput(in model.Input, now time.Time) model.Task {
	start := now
	if s, err := model.ParseTimestamp(in.Start); err == nil {
		start = s
	}
	end := start.Add(e.defaultDuration)
	if v, err := model.ParseTimestamp(in.End); err == nil && v.After(start) {
		end = v
	}

	status := model.Status(strings.TrimSpace(in.Status))
	if !status.IsValid() || status == model.StatusDraft {
		status = model.StatusPending
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = model.DefaultCategory
	}
	color := in.Color
	if color == "" {
		color = e.pickColor()
	}

	return model.Task{
		ID:        e.newID(),
		Title:     strings.TrimSpace(in.Title),
		Summary:   in.Summary,
		Start:     start,
		End:       end,
		Priority:  priorityOrDefault(in.Priority),
		Category:  category,
		Status:    status,
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
