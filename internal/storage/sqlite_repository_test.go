package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandeepkv93/timeline/internal/model"
)

func setupRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "timeline-test.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := MigrateUp(db); err != nil {
		t.Fatalf("migrate up: %v", err)
	}

	repo, err := NewSQLiteRepository(db)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	return repo
}

func sampleTask(id string, start time.Time, status model.Status) model.Task {
	return model.Task{
		ID:        id,
		Title:     "Task " + id,
		Summary:   "notes for " + id,
		Start:     start,
		End:       start.Add(time.Hour),
		Priority:  model.PriorityHigh,
		Category:  "work",
		Status:    status,
		Color:     "#0EA5E9",
		CreatedAt: start.Add(-time.Hour),
		UpdatedAt: start.Add(-30 * time.Minute),
	}
}

func TestReplaceAndListKeepsOrderAndFields(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.Local)

	tasks := []model.Task{
		sampleTask("late", base.Add(5*time.Hour), model.StatusPending),
		sampleTask("early", base, model.StatusCompleted),
	}
	if err := repo.ReplaceTasks(ctx, tasks); err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, err := repo.ListTasks(ctx, TaskListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "late" || got[1].ID != "early" {
		t.Fatalf("expected insertion order, got %#v", got)
	}
	want := tasks[0]
	g := got[0]
	if g.Title != want.Title || g.Summary != want.Summary || g.Priority != want.Priority ||
		g.Category != want.Category || g.Status != want.Status || g.Color != want.Color {
		t.Fatalf("field mismatch:\n got %#v\nwant %#v", g, want)
	}
	for name, pair := range map[string][2]time.Time{
		"start":   {g.Start, want.Start},
		"end":     {g.End, want.End},
		"created": {g.CreatedAt, want.CreatedAt},
		"updated": {g.UpdatedAt, want.UpdatedAt},
	} {
		if !pair[0].Equal(pair[1]) {
			t.Fatalf("%s mismatch: got %v want %v", name, pair[0], pair[1])
		}
	}
	if g.Start.Location() != time.Local {
		t.Fatalf("expected local times, got %v", g.Start.Location())
	}
}

func TestReplaceSwapsWholeCollection(t *testing.T) {
	repo := setupRepo(t)
	ctx := t.Context()
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.Local)

	if err := repo.ReplaceTasks(ctx, []model.Task{
		sampleTask("a", base, model.StatusPending),
		sampleTask("b", base, model.StatusPending),
	}); err != nil {
		t.Fatalf("first replace: %v", err)
	}
	if err := repo.ReplaceTasks(ctx, []model.Task{sampleTask("c", base, model.StatusPending)}); err != nil {
		t.Fatalf("second replace: %v", err)
	}

	got, err := repo.ListTasks(ctx, TaskListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != "c" {
		t.Fatalf("unexpected collection: %#v", got)
	}
	if _, err := repo.GetTask(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReplaceRejectsDraftAndDuplicates(t *testing.T) {
	repo := setupRepo(t)
	ctx := t.Context()
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.Local)
	if err := repo.ReplaceTasks(ctx, []model.Task{sampleTask("keep", base, model.StatusPending)}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	draft := sampleTask(model.DraftID, base, model.StatusDraft)
	if err := repo.ReplaceTasks(ctx, []model.Task{draft}); !errors.Is(err, ErrDraftTask) {
		t.Fatalf("expected ErrDraftTask, got %v", err)
	}

	dup := sampleTask("dup", base, model.StatusPending)
	if err := repo.ReplaceTasks(ctx, []model.Task{dup, dup}); err == nil {
		t.Fatal("expected duplicate id to fail")
	}

	if _, err := repo.GetTask(ctx, "keep"); err != nil {
		t.Fatalf("failed replace must roll back, got %v", err)
	}
}

func TestListFiltersAndPaginates(t *testing.T) {
	repo := setupRepo(t)
	ctx := t.Context()
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.Local)
	if err := repo.ReplaceTasks(ctx, []model.Task{
		sampleTask("p1", base, model.StatusPending),
		sampleTask("c1", base, model.StatusCompleted),
		sampleTask("p2", base, model.StatusPending),
		sampleTask("p3", base, model.StatusPending),
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	pending, err := repo.ListTasks(ctx, TaskListFilter{Status: model.StatusPending, Offset: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != "p2" || pending[1].ID != "p3" {
		t.Fatalf("unexpected page: %#v", pending)
	}

	first, err := repo.ListTasks(ctx, TaskListFilter{Limit: 1})
	if err != nil || len(first) != 1 || first[0].ID != "p1" {
		t.Fatalf("unexpected limit result: %#v %v", first, err)
	}
}

func TestScanRejectsUnknownStatus(t *testing.T) {
	repo := setupRepo(t)
	ctx := t.Context()
	now := mustTime(time.Now())
	if _, err := repo.db.ExecContext(ctx, `
		INSERT INTO tasks (position, `+taskColumns+`)
		VALUES (0, 'x', 't', '', ?, ?, 'low', 'general', 'archived', '', ?, ?)`,
		now, now, now, now); err != nil {
		t.Fatalf("raw insert: %v", err)
	}
	if _, err := repo.GetTask(ctx, "x"); !errors.Is(err, model.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestOpenSQLiteMigrates(t *testing.T) {
	repo, err := OpenSQLite(filepath.Join(t.TempDir(), "open.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer repo.Close()
	tasks, err := repo.ListTasks(t.Context(), TaskListFilter{})
	if err != nil || len(tasks) != 0 {
		t.Fatalf("expected empty store, got %#v %v", tasks, err)
	}
}
