package manager

import "github.com/rlazarev/planner-go/internal/task"

// Snapshot is a point-in-time copy of the whole store, used by the
// persistence and export collaborators. Unlike the listing operations
// it does not touch history, and every entity is cloned.
type Snapshot struct {
	Tasks    []*task.Task
	Epics    []*task.Task
	Subtasks []*task.Task
	History  []*task.Task
}

// Snapshot captures the current state in insertion order.
func (m *Manager) Snapshot() *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := &Snapshot{
		Tasks:    cloneAll(m.taskOrder, m.tasks),
		Epics:    cloneAll(m.epicOrder, m.epics),
		Subtasks: cloneAll(m.subtaskOrder, m.subtasks),
	}
	for _, t := range m.hist.Entries() {
		snap.History = append(snap.History, t.Clone())
	}
	return snap
}

func cloneAll(order []int, byID map[int]*task.Task) []*task.Task {
	out := make([]*task.Task, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id].Clone())
	}
	return out
}
