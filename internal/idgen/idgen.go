// Package idgen provides the shared id source for all entity kinds.
package idgen

// Allocator hands out monotonically increasing integer ids starting
// from 1. It carries no locking of its own; the store serializes access.
type Allocator struct {
	next int
}

// New returns an allocator whose first Next call yields 1.
func New() *Allocator {
	return &Allocator{next: 1}
}

// Next returns a previously unused id.
func (a *Allocator) Next() int {
	id := a.next
	a.next++
	return id
}

// AdvanceTo raises the next id to at least n. Used when replaying
// persisted entities that carry explicit ids.
func (a *Allocator) AdvanceTo(n int) {
	if n > a.next {
		a.next = n
	}
}
