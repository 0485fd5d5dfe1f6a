// Package task defines the entity model shared by the store and its views.
package task

import "time"

// Status represents an entity status.
type Status string

const (
	StatusNew        Status = "NEW"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Kind tags the three entity variants.
type Kind string

const (
	KindTask    Kind = "TASK"
	KindEpic    Kind = "EPIC"
	KindSubtask Kind = "SUBTASK"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindTask, KindEpic, KindSubtask:
		return true
	}
	return false
}

// Task is a single unit of work. The Kind tag selects the variant:
// plain tasks and subtasks own their schedule fields, while an epic's
// Status, Start, Duration and End are derived from its subtasks and the
// store keeps SubtaskIDs authoritative.
type Task struct {
	ID          int
	Kind        Kind
	Name        string
	Description string
	Status      Status

	// Start and Duration are optional; an entity enters the schedule
	// index only when both are set.
	Start    *time.Time
	Duration *time.Duration

	// SubtaskIDs holds an epic's child ids in insertion order.
	SubtaskIDs []int

	// End is the derived end of an epic's combined window. It can lag
	// behind Start+Duration when children leave gaps.
	End *time.Time

	// EpicID references a subtask's owning epic.
	EpicID int
}

// NewTask returns a plain task with status NEW and no id assigned.
func NewTask(name, description string) *Task {
	return &Task{Kind: KindTask, Name: name, Description: description, Status: StatusNew}
}

// NewEpic returns an epic with status NEW and no children.
func NewEpic(name, description string) *Task {
	return &Task{Kind: KindEpic, Name: name, Description: description, Status: StatusNew}
}

// NewSubtask returns a subtask bound to the given epic id.
func NewSubtask(name, description string, epicID int) *Task {
	return &Task{Kind: KindSubtask, Name: name, Description: description, Status: StatusNew, EpicID: epicID}
}

// Scheduled reports whether the entity carries both a start time and a
// duration and therefore belongs in the schedule index.
func (t *Task) Scheduled() bool {
	return t.Start != nil && t.Duration != nil
}

// EndTime returns the end of the entity's time window, or nil when it
// has none. Epics report their derived End; tasks and subtasks report
// Start+Duration.
func (t *Task) EndTime() *time.Time {
	if t.Kind == KindEpic {
		if t.End == nil {
			return nil
		}
		end := *t.End
		return &end
	}
	if !t.Scheduled() {
		return nil
	}
	end := t.Start.Add(*t.Duration)
	return &end
}

// Clone returns a deep copy. Later mutation of the original does not
// show through the copy.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	if t.Start != nil {
		start := *t.Start
		c.Start = &start
	}
	if t.Duration != nil {
		d := *t.Duration
		c.Duration = &d
	}
	if t.End != nil {
		end := *t.End
		c.End = &end
	}
	if t.SubtaskIDs != nil {
		c.SubtaskIDs = append([]int(nil), t.SubtaskIDs...)
	}
	return &c
}
