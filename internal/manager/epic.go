package manager

import (
	"time"

	"github.com/rlazarev/planner-go/internal/task"
)

// aggregate recomputes an epic's status and time window from its
// current subtasks. Caller holds the lock.
func (m *Manager) aggregate(epic *task.Task) {
	children := make([]*task.Task, 0, len(epic.SubtaskIDs))
	for _, id := range epic.SubtaskIDs {
		if s, ok := m.subtasks[id]; ok {
			children = append(children, s)
		}
	}
	epic.Status = epicStatus(children)
	epicWindow(epic, children)
}

// epicStatus derives the epic status: no children or all NEW means NEW,
// all DONE means DONE, any mixture means IN_PROGRESS.
func epicStatus(children []*task.Task) task.Status {
	if len(children) == 0 {
		return task.StatusNew
	}
	allNew, allDone := true, true
	for _, c := range children {
		if c.Status != task.StatusNew {
			allNew = false
		}
		if c.Status != task.StatusDone {
			allDone = false
		}
	}
	switch {
	case allNew:
		return task.StatusNew
	case allDone:
		return task.StatusDone
	default:
		return task.StatusInProgress
	}
}

// epicWindow derives the epic's start, end and duration. Start is the
// earliest child start, end the latest child end, duration the sum of
// child durations. A duration sum can exist even when no child carries
// a start time; start and end stay unset in that case.
func epicWindow(epic *task.Task, children []*task.Task) {
	epic.Start, epic.End, epic.Duration = nil, nil, nil

	var total time.Duration
	counted := 0
	for _, c := range children {
		if c.Start != nil && (epic.Start == nil || c.Start.Before(*epic.Start)) {
			start := *c.Start
			epic.Start = &start
		}
		if end := c.EndTime(); end != nil && (epic.End == nil || end.After(*epic.End)) {
			epic.End = end
		}
		if c.Duration != nil {
			total += *c.Duration
			counted++
		}
	}
	if counted > 0 {
		epic.Duration = &total
	}
}
