package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sandeepkv93/timeline/internal/model"
)

const sqliteTimeLayout = time.RFC3339Nano

const taskColumns = `id, title, summary, start_at, end_at, priority, category, status, color, created_at, updated_at`

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

// OpenSQLite opens path, applies migrations and returns a repository.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) GetTask(ctx context.Context, id string) (model.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, err
	}
	return task, nil
}

func (r *SQLiteRepository) ListTasks(ctx context.Context, filter TaskListFilter) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	args := make([]any, 0, 3)
	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY position ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ReplaceTasks(ctx context.Context, tasks []model.Task) error {
	for _, t := range tasks {
		if t.IsDraft() {
			return fmt.Errorf("%w: %q", ErrDraftTask, t.ID)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tasks (position, `+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range tasks {
		if _, err := stmt.ExecContext(ctx,
			i, t.ID, t.Title, t.Summary, mustTime(t.Start), mustTime(t.End),
			string(t.Priority), t.Category, string(t.Status), t.Color,
			mustTime(t.CreatedAt), mustTime(t.UpdatedAt),
		); err != nil {
			return fmt.Errorf("insert task %q: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

// parseTime reads a stored timestamp back into local wall-clock time.
func parseTime(v string) (time.Time, error) {
	tm, err := time.Parse(sqliteTimeLayout, v)
	if err != nil {
		return time.Time{}, err
	}
	return tm.Local(), nil
}

func applyPagination(args *[]any, limit, offset int) string {
	sql := ""
	if limit > 0 {
		sql += " LIMIT ?"
		*args = append(*args, limit)
	} else if offset > 0 {
		sql += " LIMIT -1"
	}
	if offset > 0 {
		sql += " OFFSET ?"
		*args = append(*args, offset)
	}
	return sql
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (model.Task, error) {
	var out model.Task
	var start, end, created, updated, priority, status string
	if err := s.Scan(&out.ID, &out.Title, &out.Summary, &start, &end, &priority, &out.Category, &status, &out.Color, &created, &updated); err != nil {
		return model.Task{}, err
	}
	out.Status = model.Status(status)
	if !out.Status.IsValid() || out.IsDraft() {
		return model.Task{}, fmt.Errorf("%w: %q", model.ErrInvalidStatus, status)
	}
	out.Priority = model.Priority(priority)

	var err error
	if out.Start, err = parseTime(start); err != nil {
		return model.Task{}, err
	}
	if out.End, err = parseTime(end); err != nil {
		return model.Task{}, err
	}
	if out.CreatedAt, err = parseTime(created); err != nil {
		return model.Task{}, err
	}
	if out.UpdatedAt, err = parseTime(updated); err != nil {
		return model.Task{}, err
	}
	return out, nil
}
