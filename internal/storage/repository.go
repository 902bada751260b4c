package storage

import (
	"context"
	"errors"

	"github.com/sandeepkv93/timeline/internal/model"
)

var (
	ErrNotFound  = errors.New("storage: not found")
	ErrDraftTask = errors.New("storage: draft tasks are not persisted")
)

// Repository stores the committed task collection. ReplaceTasks swaps the
// whole set atomically and keeps the given order.
type Repository interface {
	GetTask(ctx context.Context, id string) (model.Task, error)
	ListTasks(ctx context.Context, filter TaskListFilter) ([]model.Task, error)
	ReplaceTasks(ctx context.Context, tasks []model.Task) error
}

type TaskListFilter struct {
	Status model.Status
	Limit  int
	Offset int
}
