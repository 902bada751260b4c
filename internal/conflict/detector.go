// Package conflict detects overlapping task windows within a calendar day.
package conflict

import (
	"time"

	"github.com/sandeepkv93/timeline/internal/dateindex"
	"github.com/sandeepkv93/timeline/internal/model"
)

// Overlaps reports whether the half-open ranges [aStart,aEnd) and
// [bStart,bEnd) intersect. Back-to-back and zero-length ranges never overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	if !aEnd.After(aStart) || !bEnd.After(bStart) {
		return false
	}
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Conflicts returns the tasks in existing that share the candidate's date
// bucket and overlap its window. The candidate itself (same ID) is skipped.
func Conflicts(candidate model.Task, existing []model.Task) []model.Task {
	day := dateindex.BucketOf(candidate)
	var out []model.Task
	for _, other := range existing {
		if other.ID == candidate.ID {
			continue
		}
		if dateindex.BucketOf(other) != day {
			continue
		}
		if Overlaps(candidate.Start, candidate.End, other.Start, other.End) {
			out = append(out, other)
		}
	}
	return out
}

// HasConflict reports whether Conflicts would return anything.
func HasConflict(candidate model.Task, existing []model.Task) bool {
	return len(Conflicts(candidate, existing)) > 0
}
