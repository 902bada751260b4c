// Package dateindex groups tasks into calendar-date buckets keyed by the
// local date of their start time.
//
// An Index is always rebuilt from the authoritative flat collection and holds
// nothing that cannot be derived from it.
package dateindex

import (
	"sort"
	"time"

	"github.com/sandeepkv93/timeline/internal/model"
)

// Index maps a YYYY-MM-DD key to the tasks starting that day, in insertion order.
type Index map[string][]model.Task

// Key returns the local calendar date of t as YYYY-MM-DD.
func Key(t time.Time) string {
	return t.Local().Format(model.DateLayout)
}

// BucketOf returns the date key a task belongs to.
func BucketOf(task model.Task) string {
	return Key(task.Start)
}

// Rebuild groups tasks by BucketOf.
func Rebuild(tasks []model.Task) Index {
	idx := make(Index)
	for _, task := range tasks {
		key := BucketOf(task)
		idx[key] = append(idx[key], task)
	}
	return idx
}

// On returns the bucket for key; nil when empty.
func (idx Index) On(key string) []model.Task {
	return idx[key]
}

// Keys returns the populated date keys in ascending order.
func (idx Index) Keys() []string {
	keys := make([]string, 0, len(idx))
	for k := range idx {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the total number of tasks across all buckets.
func (idx Index) Len() int {
	n := 0
	for _, bucket := range idx {
		n += len(bucket)
	}
	return n
}

// SortByStart returns a copy of tasks ordered by start, then end, for display.
func SortByStart(tasks []model.Task) []model.Task {
	out := append([]model.Task(nil), tasks...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].End.Before(out[j].End)
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out
}
