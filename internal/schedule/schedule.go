// Package schedule maintains the time-ordered index used for the
// prioritized view and for overlap checks.
package schedule

import (
	"sort"

	"github.com/rlazarev/planner-go/internal/task"
)

// Index holds the tasks and subtasks that carry both a start time and a
// duration, ordered by (start, id). Epics are never indexed; their
// window is informational only.
type Index struct {
	entries []*task.Task
}

// New returns an empty index.
func New() *Index {
	return &Index{}
}

func before(a, b *task.Task) bool {
	if a.Start.Equal(*b.Start) {
		return a.ID < b.ID
	}
	return a.Start.Before(*b.Start)
}

// Add inserts t at its ordered position. Entities without a full time
// window are ignored.
func (ix *Index) Add(t *task.Task) {
	if t == nil || !t.Scheduled() {
		return
	}
	i := sort.Search(len(ix.entries), func(i int) bool {
		return !before(ix.entries[i], t)
	})
	ix.entries = append(ix.entries, nil)
	copy(ix.entries[i+1:], ix.entries[i:])
	ix.entries[i] = t
}

// Remove drops the entry with the given id if present.
func (ix *Index) Remove(id int) {
	for i, e := range ix.entries {
		if e.ID == id {
			ix.entries = append(ix.entries[:i], ix.entries[i+1:]...)
			return
		}
	}
}

// Overlaps reports whether t's half-open interval [start, start+duration)
// intersects any other entry's interval. The entry with t's own id is
// skipped so an entity can be re-validated during its own update.
// Intervals that merely touch do not overlap.
func (ix *Index) Overlaps(t *task.Task) bool {
	if t == nil || !t.Scheduled() {
		return false
	}
	start := *t.Start
	end := start.Add(*t.Duration)
	for _, e := range ix.entries {
		if e.ID == t.ID {
			continue
		}
		eStart := *e.Start
		eEnd := eStart.Add(*e.Duration)
		if start.Before(eEnd) && eStart.Before(end) {
			return true
		}
	}
	return false
}

// All returns the entries in ascending (start, id) order. This is the
// externally visible prioritized view.
func (ix *Index) All() []*task.Task {
	return append([]*task.Task(nil), ix.entries...)
}

// Len returns the number of indexed entries.
func (ix *Index) Len() int {
	return len(ix.entries)
}
