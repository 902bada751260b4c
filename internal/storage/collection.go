package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/sandeepkv93/timeline/internal/model"
)

// Collection caches the committed tasks in memory and writes every commit
// through to a Repository. Its Snapshot and Commit methods plug straight into
// scheduler.NewEngine.
type Collection struct {
	ctx      context.Context
	repo     Repository
	mu       sync.RWMutex
	tasks    []model.Task
	onCommit []func([]model.Task)
}

// LoadCollection reads the persisted tasks once.
func LoadCollection(ctx context.Context, repo Repository) (*Collection, error) {
	tasks, err := repo.ListTasks(ctx, TaskListFilter{})
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	return &Collection{ctx: ctx, repo: repo, tasks: tasks}, nil
}

func (c *Collection) Snapshot() []model.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.Task(nil), c.tasks...)
}

// Commit persists tasks and only then swaps the cache, so a failed write
// leaves the previous collection visible.
func (c *Collection) Commit(tasks []model.Task) error {
	next := append([]model.Task(nil), tasks...)
	if err := c.repo.ReplaceTasks(c.ctx, next); err != nil {
		return err
	}

	c.mu.Lock()
	c.tasks = next
	hooks := append([]func([]model.Task)(nil), c.onCommit...)
	c.mu.Unlock()

	for _, fn := range hooks {
		fn(append([]model.Task(nil), next...))
	}
	return nil
}

// OnCommit registers fn to run after every successful commit.
func (c *Collection) OnCommit(fn func([]model.Task)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onCommit = append(c.onCommit, fn)
}
