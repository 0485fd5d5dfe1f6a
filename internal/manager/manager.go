// Package manager owns the authoritative in-memory entity store and
// keeps its two derived views — the viewed-entity history and the
// time-ordered schedule index — consistent with it.
package manager

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rlazarev/planner-go/internal/history"
	"github.com/rlazarev/planner-go/internal/idgen"
	"github.com/rlazarev/planner-go/internal/schedule"
	"github.com/rlazarev/planner-go/internal/task"
)

// ErrOverlap is returned when an add or update would give two scheduled
// entities intersecting time windows. The operation leaves no trace.
var ErrOverlap = errors.New("schedule overlap")

// Manager maps ids to tasks, epics and subtasks, enforcing reference
// integrity between a subtask and its owning epic. A single mutex
// covers the store and both derived views, since most operations touch
// all three.
type Manager struct {
	mu  sync.Mutex
	ids *idgen.Allocator

	tasks    map[int]*task.Task
	epics    map[int]*task.Task
	subtasks map[int]*task.Task

	// Insertion order per kind, for stable listings.
	taskOrder    []int
	epicOrder    []int
	subtaskOrder []int

	hist  *history.List
	sched *schedule.Index
}

// New returns an empty manager with a fresh allocator.
func New() *Manager {
	return &Manager{
		ids:      idgen.New(),
		tasks:    make(map[int]*task.Task),
		epics:    make(map[int]*task.Task),
		subtasks: make(map[int]*task.Task),
		hist:     history.New(),
		sched:    schedule.New(),
	}
}

// assignID hands out a fresh id unless t already carries one (the load
// path supplies explicit ids); either way the allocator ends up past it.
func (m *Manager) assignID(t *task.Task) {
	if t.ID == 0 {
		t.ID = m.ids.Next()
		return
	}
	m.ids.AdvanceTo(t.ID + 1)
}

// AddTask stores a plain task, indexing it when it carries a full time
// window. Returns ErrOverlap without any state change when the window
// intersects an existing scheduled entity.
func (m *Manager) AddTask(t *task.Task) (*task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t.Kind = task.KindTask
	if !t.Status.Valid() {
		t.Status = task.StatusNew
	}
	if m.sched.Overlaps(t) {
		return nil, fmt.Errorf("add task %q: %w", t.Name, ErrOverlap)
	}
	m.assignID(t)
	m.tasks[t.ID] = t
	m.taskOrder = append(m.taskOrder, t.ID)
	m.sched.Add(t)
	return t, nil
}

// AddEpic stores an epic. Its status and time window are derived, so
// whatever the caller set there is recomputed immediately.
func (m *Manager) AddEpic(e *task.Task) (*task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.Kind = task.KindEpic
	m.assignID(e)
	m.epics[e.ID] = e
	m.epicOrder = append(m.epicOrder, e.ID)
	m.aggregate(e)
	return e, nil
}

// AddSubtask stores a subtask under its epic and refreshes the epic's
// derived fields. A subtask referencing an unknown epic is silently
// dropped: it comes back unchanged, unadded, with no error.
func (m *Manager) AddSubtask(s *task.Task) (*task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.Kind = task.KindSubtask
	if !s.Status.Valid() {
		s.Status = task.StatusNew
	}
	parent, ok := m.epics[s.EpicID]
	if !ok {
		return s, nil
	}
	if m.sched.Overlaps(s) {
		return nil, fmt.Errorf("add subtask %q: %w", s.Name, ErrOverlap)
	}
	m.assignID(s)
	m.subtasks[s.ID] = s
	m.subtaskOrder = append(m.subtaskOrder, s.ID)
	m.sched.Add(s)
	if !containsID(parent.SubtaskIDs, s.ID) {
		parent.SubtaskIDs = append(parent.SubtaskIDs, s.ID)
	}
	m.aggregate(parent)
	return s, nil
}

// UpdateTask replaces a stored task wholesale. Updating an unknown id
// is a no-op returning the input. The new time window is validated
// before anything changes, so a rejected update leaves the previous
// entity stored and indexed.
func (m *Manager) UpdateTask(t *task.Task) (*task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tasks[t.ID]; !ok {
		return t, nil
	}
	t.Kind = task.KindTask
	if m.sched.Overlaps(t) {
		return nil, fmt.Errorf("update task %d: %w", t.ID, ErrOverlap)
	}
	m.sched.Remove(t.ID)
	m.tasks[t.ID] = t
	m.sched.Add(t)
	return t, nil
}

// UpdateEpic replaces an epic's caller-controlled fields (name and
// description). The child list stays store-owned and status and times
// are recomputed from the current subtasks. Unknown id is a no-op.
func (m *Manager) UpdateEpic(e *task.Task) (*task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.epics[e.ID]
	if !ok {
		return e, nil
	}
	next := e.Clone()
	next.Kind = task.KindEpic
	next.SubtaskIDs = stored.SubtaskIDs
	m.epics[e.ID] = next
	m.aggregate(next)
	return next, nil
}

// UpdateSubtask replaces a stored subtask, keeping its epic binding
// immutable, and refreshes the owning epic. Unknown id is a no-op.
func (m *Manager) UpdateSubtask(s *task.Task) (*task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.subtasks[s.ID]
	if !ok {
		return s, nil
	}
	next := s.Clone()
	next.Kind = task.KindSubtask
	next.EpicID = stored.EpicID
	if m.sched.Overlaps(next) {
		return nil, fmt.Errorf("update subtask %d: %w", s.ID, ErrOverlap)
	}
	m.sched.Remove(next.ID)
	m.subtasks[next.ID] = next
	m.sched.Add(next)
	if parent, ok := m.epics[next.EpicID]; ok {
		m.aggregate(parent)
	}
	return next, nil
}

// TaskByID returns the stored task and records the lookup in history.
func (m *Manager) TaskByID(id int) (*task.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if ok {
		m.hist.Record(t)
	}
	return t, ok
}

// EpicByID returns the stored epic and records the lookup in history.
func (m *Manager) EpicByID(id int) (*task.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.epics[id]
	if ok {
		m.hist.Record(e)
	}
	return e, ok
}

// SubtaskByID returns the stored subtask and records the lookup in
// history.
func (m *Manager) SubtaskByID(id int) (*task.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.subtasks[id]
	if ok {
		m.hist.Record(s)
	}
	return s, ok
}

// AllTasks lists plain tasks in insertion order. Listed entities are
// history-visible, same as lookups by id.
func (m *Manager) AllTasks() []*task.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listAll(m.taskOrder, m.tasks)
}

// AllEpics lists epics in insertion order, recording each in history.
func (m *Manager) AllEpics() []*task.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listAll(m.epicOrder, m.epics)
}

// AllSubtasks lists subtasks in insertion order, recording each in
// history.
func (m *Manager) AllSubtasks() []*task.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listAll(m.subtaskOrder, m.subtasks)
}

func (m *Manager) listAll(order []int, byID map[int]*task.Task) []*task.Task {
	out := make([]*task.Task, 0, len(order))
	for _, id := range order {
		t := byID[id]
		m.hist.Record(t)
		out = append(out, t)
	}
	return out
}

// DeleteTask removes a task from the store, the schedule index and the
// history. Unknown id is a no-op.
func (m *Manager) DeleteTask(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tasks[id]; !ok {
		return
	}
	delete(m.tasks, id)
	m.taskOrder = removeID(m.taskOrder, id)
	m.sched.Remove(id)
	m.hist.Remove(id)
}

// DeleteEpic removes an epic and cascades to every child subtask, each
// scrubbed from the store, the schedule index and the history.
func (m *Manager) DeleteEpic(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.epics[id]
	if !ok {
		return
	}
	for _, childID := range e.SubtaskIDs {
		if _, ok := m.subtasks[childID]; !ok {
			continue
		}
		delete(m.subtasks, childID)
		m.subtaskOrder = removeID(m.subtaskOrder, childID)
		m.sched.Remove(childID)
		m.hist.Remove(childID)
	}
	e.SubtaskIDs = nil
	delete(m.epics, id)
	m.epicOrder = removeID(m.epicOrder, id)
	m.hist.Remove(id)
}

// DeleteSubtask removes a subtask, detaches it from its epic's child
// list and refreshes the epic's derived fields.
func (m *Manager) DeleteSubtask(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.subtasks[id]
	if !ok {
		return
	}
	delete(m.subtasks, id)
	m.subtaskOrder = removeID(m.subtaskOrder, id)
	m.sched.Remove(id)
	m.hist.Remove(id)

	if parent, ok := m.epics[s.EpicID]; ok {
		parent.SubtaskIDs = removeID(parent.SubtaskIDs, id)
		m.aggregate(parent)
	}
}

// DeleteAllTasks clears every plain task along with its index and
// history entries.
func (m *Manager) DeleteAllTasks() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purgeKind(&m.taskOrder, m.tasks)
}

// DeleteAllEpics clears every epic and, with them, every subtask.
func (m *Manager) DeleteAllEpics() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purgeKind(&m.subtaskOrder, m.subtasks)
	m.purgeKind(&m.epicOrder, m.epics)
}

// DeleteAllSubtasks clears every subtask and resets each epic to the
// empty-children state.
func (m *Manager) DeleteAllSubtasks() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purgeKind(&m.subtaskOrder, m.subtasks)
	for _, id := range m.epicOrder {
		e := m.epics[id]
		e.SubtaskIDs = nil
		m.aggregate(e)
	}
}

func (m *Manager) purgeKind(order *[]int, byID map[int]*task.Task) {
	for _, id := range *order {
		m.sched.Remove(id)
		m.hist.Remove(id)
		delete(byID, id)
	}
	*order = nil
}

// EpicSubtaskIDs returns a copy of the epic's child ids in insertion
// order, or an empty slice for an unknown epic.
func (m *Manager) EpicSubtaskIDs(epicID int) []int {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.epics[epicID]
	if !ok {
		return []int{}
	}
	return append([]int{}, e.SubtaskIDs...)
}

// Prioritized returns the scheduled tasks and subtasks ordered by
// start time, ties broken by ascending id.
func (m *Manager) Prioritized() []*task.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sched.All()
}

// History returns the viewed entities, oldest first.
func (m *Manager) History() []*task.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hist.Entries()
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []int, id int) []int {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
