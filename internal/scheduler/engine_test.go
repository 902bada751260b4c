package scheduler

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/sandeepkv93/timeline/internal/model"
)

type memStore struct {
	tasks   []model.Task
	commits int
	fail    error
}

func (m *memStore) snapshot() []model.Task { return m.tasks }

func (m *memStore) commit(tasks []model.Task) error {
	if m.fail != nil {
		return m.fail
	}
	m.commits++
	m.tasks = tasks
	return nil
}

type fixture struct {
	store  *memStore
	engine *Engine
	now    time.Time
}

func newFixture(t *testing.T, seed []model.Task, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		store: &memStore{tasks: seed},
		now:   time.Date(2025, 1, 1, 8, 0, 0, 0, time.Local),
	}
	seq := 0
	base := []Option{
		WithClock(func() time.Time { return f.now }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("gen_%d", seq)
		}),
		WithColorPicker(func() string { return "#10B981" }),
	}
	f.engine = NewEngine(f.store.snapshot, f.store.commit, append(base, opts...)...)
	return f
}

func at(day, hour, minute int) time.Time {
	return time.Date(2025, 1, day, hour, minute, 0, 0, time.Local)
}

func seedTask(id string, start, end time.Time) model.Task {
	created := at(1, 7, 0)
	return model.Task{
		ID:        id,
		Title:     "Seed " + id,
		Summary:   "seeded",
		Start:     start,
		End:       end,
		Priority:  model.PriorityLow,
		Category:  "work",
		Status:    model.StatusPending,
		Color:     "#4F46E5",
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func strPtr(s string) *string { return &s }

func TestQuickAddOnEmptyCollection(t *testing.T) {
	f := newFixture(t, nil)

	task, err := f.engine.QuickAddTask("Buy milk", "", "")
	if err != nil {
		t.Fatalf("quick add: %v", err)
	}
	tasks := f.store.tasks
	if len(tasks) != 1 || tasks[0].ID != task.ID {
		t.Fatalf("expected exactly one task, got %+v", tasks)
	}
	got := tasks[0]
	if got.Title != "Buy milk" || got.Status != model.StatusPending {
		t.Fatalf("unexpected task: %+v", got)
	}
	if !got.Start.Equal(f.now) || got.End.Sub(got.Start) != time.Hour {
		t.Fatalf("expected one-hour window starting now, got %v - %v", got.Start, got.End)
	}
	if got.Priority != model.PriorityMedium || got.Category != model.DefaultCategory || got.Color == "" {
		t.Fatalf("expected defaults, got %+v", got)
	}
}

func TestQuickAddWithDateAndClock(t *testing.T) {
	f := newFixture(t, nil)
	task, err := f.engine.QuickAddTask("Dentist", "2025-01-03", "14:30")
	if err != nil {
		t.Fatalf("quick add: %v", err)
	}
	if !task.Start.Equal(at(3, 14, 30)) {
		t.Fatalf("unexpected start: %v", task.Start)
	}
}

func TestQuickAddRejectsBlankTitle(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.engine.QuickAddTask("   ", "", "")
	var ve *model.ValidationError
	if !errors.As(err, &ve) || ve.Reasons[0] != model.MsgTitleRequired {
		t.Fatalf("expected title validation error, got %v", err)
	}
	if f.store.commits != 0 {
		t.Fatalf("expected no commit, got %d", f.store.commits)
	}
}

func TestCreateDraftReportsConflict(t *testing.T) {
	existing := seedTask("task_1", at(1, 9, 0), at(1, 10, 0))
	f := newFixture(t, []model.Task{existing})

	ok, err := f.engine.CreateDraftTask("2025-01-01 09:30:00", "2025-01-01", nil)
	if ok {
		t.Fatal("expected draft not to be placed without a resolver")
	}
	var ce *ConflictError
	if !errors.As(err, &ce) || !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if len(ce.Conflicts) != 1 || ce.Conflicts[0].ID != "task_1" {
		t.Fatalf("unexpected conflicts: %+v", ce.Conflicts)
	}
	if !f.engine.CheckTimeConflicts(ce.Candidate, f.engine.Tasks()) {
		t.Fatal("expected CheckTimeConflicts to agree")
	}
	if _, has := f.engine.Draft(); has {
		t.Fatal("draft must not be inserted before the conflict is resolved")
	}

	ok, err = f.engine.CreateDraftTask("2025-01-01 09:30:00", "2025-01-01", AcceptConflicts)
	if !ok || err != nil {
		t.Fatalf("expected forced draft, got ok=%v err=%v", ok, err)
	}
	bucket := f.engine.TasksOn("2025-01-01")
	if len(bucket) != 2 || bucket[0].ID != "task_1" || bucket[1].ID != model.DraftID {
		t.Fatalf("expected draft to share the bucket, got %+v", bucket)
	}
	if f.store.commits != 0 {
		t.Fatal("drafts must not be committed")
	}
}

func TestCreateDraftDefaultsAndSingleton(t *testing.T) {
	f := newFixture(t, []model.Task{seedTask("task_1", at(1, 9, 0), at(1, 10, 0))})

	ok, err := f.engine.CreateDraftTask("10:00", "2025-01-01", nil)
	if !ok || err != nil {
		t.Fatalf("back-to-back draft should be placed, got ok=%v err=%v", ok, err)
	}
	draft, _ := f.engine.Draft()
	if !draft.Start.Equal(at(1, 10, 0)) || !draft.End.Equal(at(1, 11, 0)) || draft.Status != model.StatusDraft {
		t.Fatalf("unexpected draft: %+v", draft)
	}

	ok, err = f.engine.CreateDraftTask("2025-01-02 15:00:00", "", nil)
	if !ok || err != nil {
		t.Fatalf("second draft: ok=%v err=%v", ok, err)
	}
	idx := f.engine.Grouped()
	drafts := 0
	for _, key := range idx.Keys() {
		for _, task := range idx.On(key) {
			if task.ID == model.DraftID {
				drafts++
			}
		}
	}
	if drafts != 1 {
		t.Fatalf("expected a single draft, found %d", drafts)
	}
}

func TestCreateDraftRejectsBadInput(t *testing.T) {
	f := newFixture(t, nil)
	for _, tc := range [][2]string{
		{"not-a-time", "2025-01-01"},
		{"09:30", ""},
		{"09:30", "01/01/2025"},
	} {
		ok, err := f.engine.CreateDraftTask(tc[0], tc[1], nil)
		if ok || err != nil {
			t.Fatalf("CreateDraftTask(%q, %q) = %v, %v; want false, nil", tc[0], tc[1], ok, err)
		}
	}
}

func TestCreateDraftEmptyStartUsesContextDateAtCurrentClock(t *testing.T) {
	f := newFixture(t, nil)
	ok, err := f.engine.CreateDraftTask("", "2025-01-05", nil)
	if !ok || err != nil {
		t.Fatalf("create draft: ok=%v err=%v", ok, err)
	}
	draft, _ := f.engine.Draft()
	if !draft.Start.Equal(at(5, 8, 0)) {
		t.Fatalf("unexpected draft start: %v", draft.Start)
	}
}

func TestCreateFinalTaskPromotesDraft(t *testing.T) {
	f := newFixture(t, nil)
	if ok, err := f.engine.CreateDraftTask("2025-01-01 13:00:00", "2025-01-01", nil); !ok || err != nil {
		t.Fatalf("create draft: %v %v", ok, err)
	}

	task, err := f.engine.CreateFinalTask("  Plan sprint ", "agenda", "high", "2025-01-01")
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if task.ID == model.DraftID || task.Status != model.StatusPending || task.Title != "Plan sprint" {
		t.Fatalf("unexpected final task: %+v", task)
	}
	if task.Priority != model.PriorityHigh || task.Color != "#10B981" {
		t.Fatalf("unexpected priority/color: %+v", task)
	}
	if !task.CreatedAt.Equal(f.now) || !task.UpdatedAt.Equal(f.now) {
		t.Fatalf("expected timestamps stamped now: %+v", task)
	}
	if !task.Start.Equal(at(1, 13, 0)) {
		t.Fatalf("expected draft window kept, got %v", task.Start)
	}
	for _, stored := range f.store.tasks {
		if stored.ID == model.DraftID {
			t.Fatal("committed collection must not contain a draft")
		}
	}
	if _, has := f.engine.Draft(); has {
		t.Fatal("draft slot should be cleared")
	}
}

func TestCreateFinalTaskValidationKeepsDraft(t *testing.T) {
	f := newFixture(t, nil)
	if ok, _ := f.engine.CreateDraftTask("2025-01-01 13:00:00", "2025-01-01", nil); !ok {
		t.Fatal("create draft failed")
	}
	before, _ := f.engine.Draft()

	_, err := f.engine.CreateFinalTask("", "", "medium", "2025-01-01")
	var ve *model.ValidationError
	if !errors.As(err, &ve) || len(ve.Reasons) != 1 || ve.Reasons[0] != "Task title is required" {
		t.Fatalf("expected title error, got %v", err)
	}
	after, has := f.engine.Draft()
	if !has || after.ID != model.DraftID || !reflect.DeepEqual(before, after) {
		t.Fatalf("draft should be unchanged, got %+v", after)
	}
	if f.store.commits != 0 {
		t.Fatal("validation failure must not commit")
	}
}

func TestCreateFinalTaskWithoutDraft(t *testing.T) {
	f := newFixture(t, nil)
	if _, err := f.engine.CreateFinalTask("x", "", "", ""); !errors.Is(err, ErrNoDraft) {
		t.Fatalf("expected ErrNoDraft, got %v", err)
	}
}

func TestCreateFinalTaskCommitFailureKeepsDraft(t *testing.T) {
	f := newFixture(t, nil)
	f.engine.CreateDraftTask("2025-01-01 13:00:00", "", nil)
	f.store.fail = errors.New("disk full")

	if _, err := f.engine.CreateFinalTask("Title", "", "", ""); err == nil {
		t.Fatal("expected commit error")
	}
	if _, has := f.engine.Draft(); !has {
		t.Fatal("draft must survive a failed commit")
	}
}

func TestRemoveDraftTask(t *testing.T) {
	f := newFixture(t, nil)
	if f.engine.RemoveDraftTask() {
		t.Fatal("no draft to remove yet")
	}
	f.engine.CreateDraftTask("2025-01-01 13:00:00", "", nil)
	if !f.engine.RemoveDraftTask() {
		t.Fatal("expected draft removal")
	}
	if len(f.engine.TasksOn("2025-01-01")) != 0 {
		t.Fatal("draft still indexed")
	}
}

func TestUpdateRejectsInvalidPriority(t *testing.T) {
	seed := seedTask("task_1", at(1, 9, 0), at(1, 10, 0))
	f := newFixture(t, []model.Task{seed})

	found, err := f.engine.UpdateTask("task_1", model.Patch{Priority: strPtr("extreme")}, nil)
	if !found {
		t.Fatal("expected task to be found")
	}
	var ve *model.ValidationError
	if !errors.As(err, &ve) || len(ve.Reasons) != 1 || ve.Reasons[0] != "Priority must be low, medium, or high" {
		t.Fatalf("expected priority error, got %v", err)
	}
	if f.store.commits != 0 || !reflect.DeepEqual(f.store.tasks[0], seed) {
		t.Fatalf("task should be unchanged: %+v", f.store.tasks[0])
	}
}

func TestUpdatePreservesUntouchedFields(t *testing.T) {
	seed := seedTask("task_1", at(1, 9, 0), at(1, 10, 0))
	f := newFixture(t, []model.Task{seed})
	f.now = at(1, 12, 0)

	found, err := f.engine.UpdateTask("task_1", model.Patch{Title: strPtr("Renamed"), Status: strPtr("completed")}, nil)
	if !found || err != nil {
		t.Fatalf("update: found=%v err=%v", found, err)
	}
	got := f.store.tasks[0]
	want := seed
	want.Title = "Renamed"
	want.Status = model.StatusCompleted
	if !got.UpdatedAt.Equal(f.now) {
		t.Fatalf("expected UpdatedAt bumped to %v, got %v", f.now, got.UpdatedAt)
	}
	got.UpdatedAt = want.UpdatedAt
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected update:\n got %+v\nwant %+v", got, want)
	}
}

func TestUpdateUnknownIDIsNoop(t *testing.T) {
	f := newFixture(t, []model.Task{seedTask("task_1", at(1, 9, 0), at(1, 10, 0))})
	found, err := f.engine.UpdateTask("missing", model.Patch{Title: strPtr("x")}, nil)
	if found || err != nil || f.store.commits != 0 {
		t.Fatalf("expected silent no-op, got found=%v err=%v commits=%d", found, err, f.store.commits)
	}
}

func TestUpdateRejectsDemotionToDraft(t *testing.T) {
	f := newFixture(t, []model.Task{seedTask("task_1", at(1, 9, 0), at(1, 10, 0))})
	_, err := f.engine.UpdateTask("task_1", model.Patch{Status: strPtr("draft")}, nil)
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateScheduleConflicts(t *testing.T) {
	f := newFixture(t, []model.Task{
		seedTask("task_1", at(1, 9, 0), at(1, 10, 0)),
		seedTask("task_2", at(1, 11, 0), at(1, 12, 0)),
	})

	found, err := f.engine.UpdateTask("task_1", model.Patch{End: strPtr("2025-01-01 10:30:00")}, nil)
	if !found || err != nil {
		t.Fatalf("extending into free time should pass, got %v", err)
	}

	_, err = f.engine.UpdateTask("task_1", model.Patch{End: strPtr("2025-01-01 11:30:00")}, nil)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if !f.store.tasks[0].End.Equal(at(1, 10, 30)) {
		t.Fatalf("declined update must not apply: %v", f.store.tasks[0].End)
	}

	if _, err := f.engine.UpdateTask("task_1", model.Patch{End: strPtr("2025-01-01 11:30:00")}, AcceptConflicts); err != nil {
		t.Fatalf("accepted update: %v", err)
	}
	if !f.store.tasks[0].End.Equal(at(1, 11, 30)) {
		t.Fatalf("accepted update not applied: %v", f.store.tasks[0].End)
	}
}

func TestUpdateConflictsWithDraft(t *testing.T) {
	f := newFixture(t, []model.Task{seedTask("task_1", at(1, 12, 0), at(1, 13, 0))})
	if ok, err := f.engine.CreateDraftTask("09:00", "2025-01-01", nil); !ok || err != nil {
		t.Fatalf("place draft: %v %v", ok, err)
	}

	patch := model.Patch{Start: strPtr("2025-01-01 09:15:00"), End: strPtr("2025-01-01 10:15:00")}
	_, err := f.engine.UpdateTask("task_1", patch, nil)
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError against the draft, got %v", err)
	}
	if len(ce.Conflicts) != 1 || ce.Conflicts[0].ID != model.DraftID {
		t.Fatalf("expected the draft as the only conflict, got %+v", ce.Conflicts)
	}
	if f.store.commits != 0 || !f.store.tasks[0].Start.Equal(at(1, 12, 0)) {
		t.Fatalf("declined move must not commit: commits=%d start=%v", f.store.commits, f.store.tasks[0].Start)
	}

	if _, err := f.engine.UpdateTask("task_1", patch, AcceptConflicts); err != nil {
		t.Fatalf("accepted move: %v", err)
	}
	if !f.store.tasks[0].Start.Equal(at(1, 9, 15)) {
		t.Fatalf("accepted move not applied: %v", f.store.tasks[0].Start)
	}
	if _, ok := f.engine.Draft(); !ok {
		t.Fatal("draft must stay in its slot")
	}
}

func TestUpdateDraftStaysUncommitted(t *testing.T) {
	f := newFixture(t, nil)
	f.engine.CreateDraftTask("2025-01-01 09:00:00", "", nil)

	found, err := f.engine.UpdateTask(model.DraftID, model.Patch{Title: strPtr("Working title"), End: strPtr("2025-01-01 09:30:00")}, nil)
	if !found || err != nil {
		t.Fatalf("update draft: %v %v", found, err)
	}
	draft, _ := f.engine.Draft()
	if draft.Title != "Working title" || !draft.End.Equal(at(1, 9, 30)) || draft.Status != model.StatusDraft {
		t.Fatalf("unexpected draft: %+v", draft)
	}
	if f.store.commits != 0 {
		t.Fatal("draft updates must not commit")
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	f := newFixture(t, []model.Task{
		seedTask("task_1", at(1, 9, 0), at(1, 10, 0)),
		seedTask("task_2", at(1, 11, 0), at(1, 12, 0)),
	})

	removed, err := f.engine.DeleteTask("task_1")
	if !removed || err != nil {
		t.Fatalf("delete: %v %v", removed, err)
	}
	once := append([]model.Task(nil), f.store.tasks...)

	removed, err = f.engine.DeleteTask("task_1")
	if removed || err != nil {
		t.Fatalf("second delete: %v %v", removed, err)
	}
	if !reflect.DeepEqual(once, f.store.tasks) || f.store.commits != 1 {
		t.Fatalf("second delete changed state: %+v commits=%d", f.store.tasks, f.store.commits)
	}
	if len(once) != 1 || once[0].ID != "task_2" {
		t.Fatalf("unexpected remaining tasks: %+v", once)
	}
}

func TestDeleteDraftID(t *testing.T) {
	f := newFixture(t, nil)
	f.engine.CreateDraftTask("2025-01-01 09:00:00", "", nil)
	if removed, _ := f.engine.DeleteTask(model.DraftID); !removed {
		t.Fatal("expected draft removal through DeleteTask")
	}
}

func TestValidateTaskInputDelegates(t *testing.T) {
	f := newFixture(t, nil)
	res := f.engine.ValidateTaskInput(model.Input{Title: "ok", Priority: "low"})
	if !res.IsValid {
		t.Fatalf("expected valid, got %+v", res)
	}
}
