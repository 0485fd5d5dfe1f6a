// Package history tracks the order in which entities were viewed.
package history

import (
	"container/list"

	"github.com/rlazarev/planner-go/internal/task"
)

// List is a deduplicated, access-ordered sequence of entity snapshots.
// A doubly linked list keeps append and removal O(1); the id map keeps
// membership checks O(1). Revisiting an id moves it to the tail.
type List struct {
	order *list.List
	byID  map[int]*list.Element
}

// New returns an empty history.
func New() *List {
	return &List{
		order: list.New(),
		byID:  make(map[int]*list.Element),
	}
}

// Record appends a snapshot of t at the tail, removing any earlier
// entry for the same id first. The stored value is a copy, so later
// mutation of t does not change what the history shows. A nil t is a
// no-op.
func (l *List) Record(t *task.Task) {
	if t == nil {
		return
	}
	if el, ok := l.byID[t.ID]; ok {
		l.order.Remove(el)
	}
	l.byID[t.ID] = l.order.PushBack(t.Clone())
}

// Remove drops the entry for id if present.
func (l *List) Remove(id int) {
	el, ok := l.byID[id]
	if !ok {
		return
	}
	l.order.Remove(el)
	delete(l.byID, id)
}

// Entries returns the sequence oldest-viewed first.
func (l *List) Entries() []*task.Task {
	out := make([]*task.Task, 0, l.order.Len())
	for el := l.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*task.Task))
	}
	return out
}

// Len returns the number of distinct ids currently recorded.
func (l *List) Len() int {
	return l.order.Len()
}
