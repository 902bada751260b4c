// Package scheduler implements the timeline engine: draft lifecycle, task
// creation, update, deletion and bulk import over a caller-owned collection.
//
// The engine never stores the committed collection itself. It reads it through
// a Snapshot and replaces it through a Commit, so persistence and re-rendering
// stay with the host. All operations are synchronous and unlocked; callers
// must serialize access.
package scheduler

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/sandeepkv93/timeline/internal/conflict"
	"github.com/sandeepkv93/timeline/internal/dateindex"
	"github.com/sandeepkv93/timeline/internal/model"
)

var (
	ErrNoDraft  = errors.New("scheduler: no draft task")
	ErrConflict = errors.New("scheduler: time conflict")
)

// Snapshot returns the current committed collection.
type Snapshot func() []model.Task

// Commit replaces the committed collection.
type Commit func([]model.Task) error

// ConflictResolver decides whether a candidate may be placed despite
// overlapping the given tasks.
type ConflictResolver func(candidate model.Task, conflicts []model.Task) bool

// AcceptConflicts places the candidate anyway.
func AcceptConflicts(model.Task, []model.Task) bool { return true }

// DeclineConflicts rejects the candidate.
func DeclineConflicts(model.Task, []model.Task) bool { return false }

// ConflictError is returned when a candidate overlaps existing tasks and the
// resolver did not accept it. Nothing was changed.
type ConflictError struct {
	Candidate model.Task
	Conflicts []model.Task
}

func (e *ConflictError) Error() string {
	titles := make([]string, 0, len(e.Conflicts))
	for _, t := range e.Conflicts {
		titles = append(titles, fmt.Sprintf("%q", t.Title))
	}
	return fmt.Sprintf("scheduler: time conflict with %s", strings.Join(titles, ", "))
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

type Engine struct {
	snapshot        Snapshot
	commit          Commit
	draft           *model.Task
	now             func() time.Time
	newID           func() string
	pickColor       func() string
	logger          *log.Logger
	defaultDuration time.Duration
	bulkPolicy      BulkPolicy
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

func WithColorPicker(pick func() string) Option {
	return func(e *Engine) { e.pickColor = pick }
}

func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithDefaultDuration(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.defaultDuration = d
		}
	}
}

func WithBulkPolicy(p BulkPolicy) Option {
	return func(e *Engine) { e.bulkPolicy = p }
}

func NewEngine(snapshot Snapshot, commit Commit, opts ...Option) *Engine {
	e := &Engine{
		snapshot:        snapshot,
		commit:          commit,
		now:             time.Now,
		newID:           uuid.NewString,
		pickColor:       RandomColor,
		logger:          log.New(io.Discard),
		defaultDuration: time.Hour,
		bulkPolicy:      BulkStrict,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Tasks returns a copy of the committed collection.
func (e *Engine) Tasks() []model.Task {
	return append([]model.Task(nil), e.snapshot()...)
}

// Draft returns the in-flight draft, if any.
func (e *Engine) Draft() (model.Task, bool) {
	if e.draft == nil {
		return model.Task{}, false
	}
	return *e.draft, true
}

// Grouped indexes the committed tasks plus the draft by date.
func (e *Engine) Grouped() dateindex.Index {
	all := e.Tasks()
	if e.draft != nil {
		all = append(all, *e.draft)
	}
	return dateindex.Rebuild(all)
}

// TasksOn returns the bucket for a YYYY-MM-DD key, draft included.
func (e *Engine) TasksOn(date string) []model.Task {
	return e.Grouped().On(date)
}

func (e *Engine) ValidateTaskInput(in model.Input) model.ValidationResult {
	return model.Validate(in)
}

func (e *Engine) CheckTimeConflicts(candidate model.Task, existing []model.Task) bool {
	return conflict.HasConflict(candidate, existing)
}

// CreateDraftTask places the singleton draft at start with the default
// duration. start may be a full timestamp or a clock time on contextDate; an
// empty start means contextDate at the current clock. It returns false with a
// nil error for unparsable input, and false with a *ConflictError when the
// window overlaps same-day tasks and resolve does not accept it.
func (e *Engine) CreateDraftTask(start, contextDate string, resolve ConflictResolver) (bool, error) {
	at, ok := e.resolveStart(start, contextDate)
	if !ok {
		return false, nil
	}
	now := e.stamp()
	candidate := model.Task{
		ID:        model.DraftID,
		Start:     at,
		End:       at.Add(e.defaultDuration),
		Priority:  model.DefaultPriority,
		Category:  model.DefaultCategory,
		Status:    model.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := e.checkPlacement(candidate, e.snapshot(), resolve); err != nil {
		return false, err
	}
	e.draft = &candidate
	e.logger.Debug("draft placed", "start", model.FormatTimestamp(candidate.Start))
	return true, nil
}

// CreateFinalTask promotes the draft to a pending task. On validation failure
// the draft is left untouched.
func (e *Engine) CreateFinalTask(title, summary, priority, contextDate string) (model.Task, error) {
	if e.draft == nil {
		return model.Task{}, ErrNoDraft
	}
	in := model.Input{
		Title:    title,
		Summary:  summary,
		Priority: priority,
		Status:   string(model.StatusPending),
	}
	if err := model.Validate(in).Err(); err != nil {
		return model.Task{}, err
	}

	now := e.stamp()
	task := *e.draft
	task.ID = e.newID()
	task.Title = strings.TrimSpace(title)
	task.Summary = summary
	task.Priority = priorityOrDefault(priority)
	task.Status = model.StatusPending
	task.Color = e.pickColor()
	task.CreatedAt = now
	task.UpdatedAt = now

	next := append(e.Tasks(), task)
	if err := e.replace(next); err != nil {
		return model.Task{}, err
	}
	e.draft = nil
	if contextDate != "" && contextDate != dateindex.BucketOf(task) {
		e.logger.Debug("draft finalized outside context date", "context", contextDate, "bucket", dateindex.BucketOf(task))
	}
	return task, nil
}

// RemoveDraftTask discards the draft and reports whether there was one.
func (e *Engine) RemoveDraftTask() bool {
	had := e.draft != nil
	e.draft = nil
	return had
}

// QuickAddTask appends a pending task with a default window. date and clock
// default to now when empty.
func (e *Engine) QuickAddTask(title, date, clock string) (model.Task, error) {
	if strings.TrimSpace(title) == "" {
		return model.Task{}, &model.ValidationError{Reasons: []string{model.MsgTitleRequired}}
	}
	now := e.stamp()
	start := now
	if date != "" || clock != "" {
		day := model.StartOfDay(now)
		if date != "" {
			d, err := model.ParseDate(date)
			if err != nil {
				return model.Task{}, &model.ValidationError{Reasons: []string{model.MsgInvalidStart}}
			}
			day = d
		}
		offset := now.Sub(model.StartOfDay(now))
		if clock != "" {
			c, err := model.ParseClock(clock)
			if err != nil {
				return model.Task{}, &model.ValidationError{Reasons: []string{model.MsgInvalidStart}}
			}
			offset = c
		}
		start = day.Add(offset)
	}

	task := model.Task{
		ID:        e.newID(),
		Title:     strings.TrimSpace(title),
		Start:     start,
		End:       start.Add(e.defaultDuration),
		Priority:  model.DefaultPriority,
		Category:  model.DefaultCategory,
		Status:    model.StatusPending,
		Color:     e.pickColor(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.replace(append(e.Tasks(), task)); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// UpdateTask merges patch into the task with id. An unknown id is a no-op and
// returns false. The merged record must validate; when the window moves onto
// other tasks resolve decides whether the update goes through.
func (e *Engine) UpdateTask(id string, patch model.Patch, resolve ConflictResolver) (bool, error) {
	if id == model.DraftID {
		return e.updateDraft(patch, resolve)
	}

	tasks := e.Tasks()
	pos := indexOf(tasks, id)
	if pos < 0 {
		return false, nil
	}
	if patch.IsEmpty() {
		return true, nil
	}
	current := tasks[pos]
	merged := patch.Apply(current.Input())
	if err := model.Validate(merged).Err(); err != nil {
		return true, err
	}
	if model.Status(strings.TrimSpace(merged.Status)) == model.StatusDraft {
		return true, &model.ValidationError{Reasons: []string{model.MsgInvalidStatus}}
	}

	updated, err := applyPatch(current, patch)
	if err != nil {
		return true, err
	}
	if patch.TouchesSchedule() {
		existing := tasks
		if e.draft != nil {
			existing = append(append(make([]model.Task, 0, len(tasks)+1), tasks...), *e.draft)
		}
		if err := e.checkPlacement(updated, existing, resolve); err != nil {
			return true, err
		}
	}
	updated.UpdatedAt = e.stamp()
	tasks[pos] = updated
	if err := e.replace(tasks); err != nil {
		return true, err
	}
	return true, nil
}

func (e *Engine) updateDraft(patch model.Patch, resolve ConflictResolver) (bool, error) {
	if e.draft == nil {
		return false, nil
	}
	merged := patch.Apply(e.draft.Input())
	merged.Status = string(model.StatusDraft)
	if err := model.Validate(merged).Err(); err != nil {
		return true, err
	}
	patch.Status = nil
	updated, err := applyPatch(*e.draft, patch)
	if err != nil {
		return true, err
	}
	if patch.TouchesSchedule() {
		if err := e.checkPlacement(updated, e.snapshot(), resolve); err != nil {
			return true, err
		}
	}
	updated.UpdatedAt = e.stamp()
	e.draft = &updated
	return true, nil
}

// DeleteTask removes the task with id. Unknown ids are a no-op and do not
// commit, so repeated deletes leave the same collection.
func (e *Engine) DeleteTask(id string) (bool, error) {
	if id == model.DraftID {
		return e.RemoveDraftTask(), nil
	}
	tasks := e.snapshot()
	next := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != id {
			next = append(next, t)
		}
	}
	if len(next) == len(tasks) {
		return false, nil
	}
	if err := e.replace(next); err != nil {
		return true, err
	}
	return true, nil
}

func (e *Engine) checkPlacement(candidate model.Task, existing []model.Task, resolve ConflictResolver) error {
	overlapping := conflict.Conflicts(candidate, existing)
	if len(overlapping) == 0 {
		return nil
	}
	if resolve != nil && resolve(candidate, overlapping) {
		e.logger.Info("conflict accepted", "task", candidate.ID, "conflicts", len(overlapping))
		return nil
	}
	return &ConflictError{Candidate: candidate, Conflicts: overlapping}
}

func (e *Engine) replace(tasks []model.Task) error {
	if err := e.commit(tasks); err != nil {
		e.logger.Error("commit failed", "err", err)
		return fmt.Errorf("scheduler: commit: %w", err)
	}
	e.logger.Debug("collection committed", "tasks", len(tasks))
	return nil
}

func (e *Engine) stamp() time.Time {
	return e.now().Local().Truncate(time.Second)
}

func (e *Engine) resolveStart(start, contextDate string) (time.Time, bool) {
	start = strings.TrimSpace(start)
	contextDate = strings.TrimSpace(contextDate)
	var day time.Time
	if contextDate != "" {
		d, err := model.ParseDate(contextDate)
		if err != nil {
			return time.Time{}, false
		}
		day = d
	}
	if start == "" {
		now := e.stamp()
		if day.IsZero() {
			return now, true
		}
		return day.Add(now.Sub(model.StartOfDay(now))), true
	}
	if at, err := model.ParseTimestamp(start); err == nil {
		return at, true
	}
	if day.IsZero() {
		return time.Time{}, false
	}
	offset, err := model.ParseClock(start)
	if err != nil {
		return time.Time{}, false
	}
	return day.Add(offset), true
}

// applyPatch copies the set fields of an already validated patch onto base.
func applyPatch(base model.Task, p model.Patch) (model.Task, error) {
	out := base
	if p.Title != nil {
		out.Title = strings.TrimSpace(*p.Title)
	}
	if p.Summary != nil {
		out.Summary = *p.Summary
	}
	if p.Category != nil {
		out.Category = strings.TrimSpace(*p.Category)
	}
	if p.Color != nil {
		out.Color = *p.Color
	}
	if p.Priority != nil {
		out.Priority = priorityOrDefault(*p.Priority)
	}
	if p.Status != nil && strings.TrimSpace(*p.Status) != "" {
		out.Status = model.Status(strings.TrimSpace(*p.Status))
	}
	if p.Start != nil && strings.TrimSpace(*p.Start) != "" {
		s, err := model.ParseTimestamp(*p.Start)
		if err != nil {
			return model.Task{}, err
		}
		out.Start = s
	}
	if p.End != nil && strings.TrimSpace(*p.End) != "" {
		end, err := model.ParseTimestamp(*p.End)
		if err != nil {
			return model.Task{}, err
		}
		out.End = end
	}
	return out, nil
}

// priorityOrDefault falls back to medium for empty or unknown values.
func priorityOrDefault(raw string) model.Priority {
	p := model.Priority(strings.TrimSpace(raw))
	if !p.IsValid() {
		return model.DefaultPriority
	}
	return p
}

func indexOf(tasks []model.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
