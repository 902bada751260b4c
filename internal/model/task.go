package model

import (
	"errors"
	"time"
)

// DraftID is the reserved id of the single in-flight, unconfirmed task.
const DraftID = "draft"

const DefaultCategory = "general"

var ErrInvalidStatus = errors.New("model: invalid task status")

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

const DefaultPriority = PriorityMedium

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Task is a time-bound unit of work. Its calendar date is always derived from
// Start and is never stored.
type Task struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Priority  Priority  `json:"priority"`
	Category  string    `json:"category"`
	Status    Status    `json:"status"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t Task) IsDraft() bool {
	return t.ID == DraftID || t.Status == StatusDraft
}

func (t Task) Duration() time.Duration {
	return t.End.Sub(t.Start)
}

// Input renders the record in the candidate shape accepted by Validate.
func (t Task) Input() Input {
	return Input{
		ID:       t.ID,
		Title:    t.Title,
		Summary:  t.Summary,
		Start:    FormatTimestamp(t.Start),
		End:      FormatTimestamp(t.End),
		Priority: string(t.Priority),
		Category: t.Category,
		Status:   string(t.Status),
		Color:    t.Color,
	}
}

// Input is a candidate task as supplied by a caller. Every field is optional;
// timestamps are unparsed so validation can report them.
type Input struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title"`
	Summary  string `json:"summary,omitempty"`
	Start    string `json:"start,omitempty"`
	End      string `json:"end,omitempty"`
	Priority string `json:"priority,omitempty"`
	Category string `json:"category,omitempty"`
	Status   string `json:"status,omitempty"`
	Color    string `json:"color,omitempty"`
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title    *string
	Summary  *string
	Start    *string
	End      *string
	Priority *string
	Category *string
	Status   *string
	Color    *string
}

func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Summary == nil && p.Start == nil && p.End == nil &&
		p.Priority == nil && p.Category == nil && p.Status == nil && p.Color == nil
}

func (p Patch) TouchesSchedule() bool {
	return p.Start != nil || p.End != nil
}

// Apply overlays the patch onto in.
func (p Patch) Apply(in Input) Input {
	if p.Title != nil {
		in.Title = *p.Title
	}
	if p.Summary != nil {
		in.Summary = *p.Summary
	}
	if p.Start != nil {
		in.Start = *p.Start
	}
	if p.End != nil {
		in.End = *p.End
	}
	if p.Priority != nil {
		in.Priority = *p.Priority
	}
	if p.Category != nil {
		in.Category = *p.Category
	}
	if p.Status != nil {
		in.Status = *p.Status
	}
	if p.Color != nil {
		in.Color = *p.Color
	}
	return in
}
