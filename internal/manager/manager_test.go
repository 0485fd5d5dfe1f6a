package manager

import (
	"errors"
	"testing"
	"time"

	"github.com/rlazarev/planner-go/internal/task"
)

var day = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func withWindow(t *task.Task, hour, minute int, d time.Duration) *task.Task {
	start := day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	t.Start = &start
	t.Duration = &d
	return t
}

func mustAddTask(t *testing.T, m *Manager, tk *task.Task) *task.Task {
	t.Helper()
	added, err := m.AddTask(tk)
	if err != nil {
		t.Fatalf("AddTask(%q): %v", tk.Name, err)
	}
	return added
}

func mustAddEpic(t *testing.T, m *Manager, e *task.Task) *task.Task {
	t.Helper()
	added, err := m.AddEpic(e)
	if err != nil {
		t.Fatalf("AddEpic(%q): %v", e.Name, err)
	}
	return added
}

func mustAddSubtask(t *testing.T, m *Manager, s *task.Task) *task.Task {
	t.Helper()
	added, err := m.AddSubtask(s)
	if err != nil {
		t.Fatalf("AddSubtask(%q): %v", s.Name, err)
	}
	return added
}

func historyIDs(m *Manager) []int {
	out := []int{}
	for _, t := range m.History() {
		out = append(out, t.ID)
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAddAssignsSharedSequentialIDs(t *testing.T) {
	m := New()
	a := mustAddTask(t, m, task.NewTask("a", ""))
	e := mustAddEpic(t, m, task.NewEpic("e", ""))
	s := mustAddSubtask(t, m, task.NewSubtask("s", "", e.ID))

	if a.ID != 1 || e.ID != 2 || s.ID != 3 {
		t.Fatalf("ids: got %d %d %d, want 1 2 3", a.ID, e.ID, s.ID)
	}
}

func TestAddWithExplicitIDAdvancesAllocator(t *testing.T) {
	m := New()
	loaded := task.NewTask("loaded", "")
	loaded.ID = 41
	mustAddTask(t, m, loaded)

	next := mustAddTask(t, m, task.NewTask("fresh", ""))
	if next.ID != 42 {
		t.Fatalf("fresh id after explicit 41: got %d, want 42", next.ID)
	}
}

func TestAddSubtaskUnknownEpicIsSilentlyDropped(t *testing.T) {
	m := New()
	s, err := m.AddSubtask(task.NewSubtask("orphan", "", 99))
	if err != nil {
		t.Fatalf("orphan subtask should not error: %v", err)
	}
	if s == nil {
		t.Fatal("orphan subtask should be returned unchanged")
	}
	if got := m.AllSubtasks(); len(got) != 0 {
		t.Fatalf("orphan subtask was stored: %v", got)
	}
}

func TestEpicStatusLifecycle(t *testing.T) {
	m := New()
	e := mustAddEpic(t, m, task.NewEpic("E", ""))
	if e.Status != task.StatusNew {
		t.Fatalf("empty epic: got %s, want NEW", e.Status)
	}

	s1 := mustAddSubtask(t, m, task.NewSubtask("S1", "", e.ID))
	s2 := mustAddSubtask(t, m, task.NewSubtask("S2", "", e.ID))
	s2.Status = task.StatusDone
	if _, err := m.UpdateSubtask(s2); err != nil {
		t.Fatal(err)
	}
	if e.Status != task.StatusInProgress {
		t.Fatalf("NEW+DONE children: got %s, want IN_PROGRESS", e.Status)
	}

	s1.Status = task.StatusDone
	if _, err := m.UpdateSubtask(s1); err != nil {
		t.Fatal(err)
	}
	if e.Status != task.StatusDone {
		t.Fatalf("all DONE children: got %s, want DONE", e.Status)
	}

	m.DeleteSubtask(s2.ID)
	if e.Status != task.StatusDone {
		t.Fatalf("single DONE child after delete: got %s, want DONE", e.Status)
	}

	m.DeleteSubtask(s1.ID)
	if e.Status != task.StatusNew {
		t.Fatalf("childless epic: got %s, want NEW", e.Status)
	}
}

func TestOverlappingAddIsRejectedWithoutStateChange(t *testing.T) {
	m := New()
	a := mustAddTask(t, m, withWindow(task.NewTask("A", ""), 10, 0, 2*time.Hour))

	_, err := m.AddTask(withWindow(task.NewTask("B", ""), 11, 0, time.Hour))
	if !errors.Is(err, ErrOverlap) {
		t.Fatalf("overlapping add: got %v, want ErrOverlap", err)
	}

	if got := m.AllTasks(); len(got) != 1 || got[0].ID != a.ID {
		t.Fatalf("store changed by rejected add: %v", got)
	}
	if got := m.Prioritized(); len(got) != 1 || got[0].ID != a.ID {
		t.Fatalf("index changed by rejected add: %v", got)
	}
}

func TestTouchingIntervalsDoNotConflict(t *testing.T) {
	m := New()
	mustAddTask(t, m, withWindow(task.NewTask("A", ""), 10, 0, 2*time.Hour))
	mustAddTask(t, m, withWindow(task.NewTask("B", ""), 12, 0, time.Hour))

	if got := m.Prioritized(); len(got) != 2 {
		t.Fatalf("back-to-back tasks should both index: %v", got)
	}
}

func TestOverlappingUpdatePreservesPreviousState(t *testing.T) {
	m := New()
	mustAddTask(t, m, withWindow(task.NewTask("A", ""), 10, 0, 2*time.Hour))
	b := mustAddTask(t, m, withWindow(task.NewTask("B", ""), 13, 0, time.Hour))

	conflicting := withWindow(task.NewTask("B moved", ""), 10, 30, time.Hour)
	conflicting.ID = b.ID
	if _, err := m.UpdateTask(conflicting); !errors.Is(err, ErrOverlap) {
		t.Fatalf("conflicting update: got %v, want ErrOverlap", err)
	}

	stored, ok := m.TaskByID(b.ID)
	if !ok || stored.Name != "B" {
		t.Fatalf("rejected update replaced the entity: %+v", stored)
	}
	prio := m.Prioritized()
	if len(prio) != 2 || !prio[1].Start.Equal(day.Add(13*time.Hour)) {
		t.Fatalf("rejected update disturbed the index: %v", prio)
	}
}

func TestUpdateUnknownIDIsNoop(t *testing.T) {
	m := New()
	ghost := task.NewTask("ghost", "")
	ghost.ID = 7

	got, err := m.UpdateTask(ghost)
	if err != nil || got != ghost {
		t.Fatalf("unknown update: got (%v, %v), want input back with nil error", got, err)
	}
	if len(m.AllTasks()) != 0 {
		t.Fatal("unknown update mutated the store")
	}
}

func TestUpdateEpicKeepsChildrenAndDerivedFields(t *testing.T) {
	m := New()
	e := mustAddEpic(t, m, task.NewEpic("E", "old"))
	s := mustAddSubtask(t, m, task.NewSubtask("S", "", e.ID))
	s.Status = task.StatusInProgress
	if _, err := m.UpdateSubtask(s); err != nil {
		t.Fatal(err)
	}

	replacement := task.NewEpic("E renamed", "new")
	replacement.ID = e.ID
	replacement.Status = task.StatusDone // derived, must be ignored
	updated, err := m.UpdateEpic(replacement)
	if err != nil {
		t.Fatal(err)
	}

	if updated.Name != "E renamed" || updated.Description != "new" {
		t.Errorf("caller fields not applied: %+v", updated)
	}
	if !equalInts(updated.SubtaskIDs, []int{s.ID}) {
		t.Errorf("children lost on update: %v", updated.SubtaskIDs)
	}
	if updated.Status != task.StatusInProgress {
		t.Errorf("status should be derived: got %s", updated.Status)
	}
}

func TestUpdateSubtaskKeepsEpicBinding(t *testing.T) {
	m := New()
	e1 := mustAddEpic(t, m, task.NewEpic("E1", ""))
	mustAddEpic(t, m, task.NewEpic("E2", ""))
	s := mustAddSubtask(t, m, task.NewSubtask("S", "", e1.ID))

	moved := task.NewSubtask("S", "", e1.ID+1)
	moved.ID = s.ID
	updated, err := m.UpdateSubtask(moved)
	if err != nil {
		t.Fatal(err)
	}
	if updated.EpicID != e1.ID {
		t.Fatalf("epic binding changed: got %d, want %d", updated.EpicID, e1.ID)
	}
}

func TestLookupsRecordHistoryInAccessOrder(t *testing.T) {
	m := New()
	a := mustAddTask(t, m, task.NewTask("a", ""))
	e := mustAddEpic(t, m, task.NewEpic("e", ""))
	s := mustAddSubtask(t, m, task.NewSubtask("s", "", e.ID))

	m.TaskByID(a.ID)
	m.EpicByID(e.ID)
	m.SubtaskByID(s.ID)
	m.TaskByID(a.ID) // revisit moves to end

	if got := historyIDs(m); !equalInts(got, []int{e.ID, s.ID, a.ID}) {
		t.Fatalf("history: got %v, want [%d %d %d]", got, e.ID, s.ID, a.ID)
	}

	if _, ok := m.TaskByID(999); ok {
		t.Fatal("lookup of unknown id succeeded")
	}
	if len(historyIDs(m)) != 3 {
		t.Fatal("missed lookup was recorded in history")
	}
}

func TestBulkListingsAreHistoryVisible(t *testing.T) {
	m := New()
	a := mustAddTask(t, m, task.NewTask("a", ""))
	b := mustAddTask(t, m, task.NewTask("b", ""))

	got := m.AllTasks()
	if len(got) != 2 || got[0].ID != a.ID || got[1].ID != b.ID {
		t.Fatalf("listing order: got %v, want insertion order", got)
	}
	if !equalInts(historyIDs(m), []int{a.ID, b.ID}) {
		t.Fatalf("listing not recorded in history: %v", historyIDs(m))
	}
}

func TestHistoryHoldsSnapshots(t *testing.T) {
	m := New()
	a := mustAddTask(t, m, task.NewTask("original", ""))
	m.TaskByID(a.ID)

	a.Name = "mutated"
	a.Status = task.StatusDone

	snap := m.History()[0]
	if snap.Name != "original" || snap.Status != task.StatusNew {
		t.Fatalf("history exposed later mutation: %+v", snap)
	}
}

func TestDeleteTaskScrubsAllViews(t *testing.T) {
	m := New()
	a := mustAddTask(t, m, withWindow(task.NewTask("a", ""), 9, 0, time.Hour))
	m.TaskByID(a.ID)

	m.DeleteTask(a.ID)

	if _, ok := m.TaskByID(a.ID); ok {
		t.Fatal("task still stored after delete")
	}
	if len(m.Prioritized()) != 0 {
		t.Fatal("task still indexed after delete")
	}
	if len(m.History()) != 0 {
		t.Fatal("task still in history after delete")
	}

	// Deleting again is a silent no-op.
	m.DeleteTask(a.ID)
}

func TestDeleteEpicCascades(t *testing.T) {
	m := New()
	e := mustAddEpic(t, m, task.NewEpic("E", ""))
	s1 := mustAddSubtask(t, m, withWindow(task.NewSubtask("S1", "", e.ID), 8, 0, time.Hour))
	s2 := mustAddSubtask(t, m, task.NewSubtask("S2", "", e.ID))
	m.EpicByID(e.ID)
	m.SubtaskByID(s1.ID)
	m.SubtaskByID(s2.ID)

	m.DeleteEpic(e.ID)

	if len(m.AllSubtasks()) != 0 {
		t.Fatal("subtasks survived epic delete")
	}
	if len(m.Prioritized()) != 0 {
		t.Fatal("schedule index survived epic delete")
	}
	if len(m.History()) != 0 {
		t.Fatal("history survived epic delete")
	}
}

func TestDeleteSubtaskDetachesFromEpic(t *testing.T) {
	m := New()
	e := mustAddEpic(t, m, task.NewEpic("E", ""))
	s := mustAddSubtask(t, m, task.NewSubtask("S", "", e.ID))
	s.Status = task.StatusInProgress
	if _, err := m.UpdateSubtask(s); err != nil {
		t.Fatal(err)
	}

	m.DeleteSubtask(s.ID)

	if got := m.EpicSubtaskIDs(e.ID); len(got) != 0 {
		t.Fatalf("child list not cleared: %v", got)
	}
	if e.Status != task.StatusNew {
		t.Fatalf("epic not re-aggregated: %s", e.Status)
	}
}

func TestDeleteAllSubtasksResetsEpics(t *testing.T) {
	m := New()
	e := mustAddEpic(t, m, task.NewEpic("E", ""))
	s := mustAddSubtask(t, m, withWindow(task.NewSubtask("S", "", e.ID), 9, 0, time.Hour))
	s.Status = task.StatusDone
	if _, err := m.UpdateSubtask(s); err != nil {
		t.Fatal(err)
	}

	m.DeleteAllSubtasks()

	if len(m.AllSubtasks()) != 0 || len(m.Prioritized()) != 0 {
		t.Fatal("subtasks not fully purged")
	}
	if e.Status != task.StatusNew || e.Start != nil || e.Duration != nil {
		t.Fatalf("epic not reset: %+v", e)
	}
}

func TestDeleteAllEpicsRemovesSubtasksToo(t *testing.T) {
	m := New()
	e := mustAddEpic(t, m, task.NewEpic("E", ""))
	mustAddSubtask(t, m, task.NewSubtask("S", "", e.ID))
	keep := mustAddTask(t, m, task.NewTask("keep", ""))

	m.DeleteAllEpics()

	if len(m.AllEpics()) != 0 || len(m.AllSubtasks()) != 0 {
		t.Fatal("epics or subtasks survived")
	}
	if _, ok := m.TaskByID(keep.ID); !ok {
		t.Fatal("plain task was caught in the epic purge")
	}
}

func TestSubtaskEpicIntegrity(t *testing.T) {
	m := New()
	e1 := mustAddEpic(t, m, task.NewEpic("E1", ""))
	e2 := mustAddEpic(t, m, task.NewEpic("E2", ""))
	mustAddSubtask(t, m, task.NewSubtask("a", "", e1.ID))
	mustAddSubtask(t, m, task.NewSubtask("b", "", e2.ID))
	mustAddSubtask(t, m, task.NewSubtask("c", "", e1.ID))
	m.DeleteEpic(e2.ID)

	subs := m.AllSubtasks()
	for _, s := range subs {
		if _, ok := m.EpicByID(s.EpicID); !ok {
			t.Fatalf("subtask %d references missing epic %d", s.ID, s.EpicID)
		}
		if !containsID(m.EpicSubtaskIDs(s.EpicID), s.ID) {
			t.Fatalf("epic %d child list misses subtask %d", s.EpicID, s.ID)
		}
	}
	if got := m.EpicSubtaskIDs(e1.ID); len(got) != len(subs) {
		t.Fatalf("child list and subtask store disagree: %v vs %d subtasks", got, len(subs))
	}
}

func TestEpicSubtaskIDsReturnsCopy(t *testing.T) {
	m := New()
	e := mustAddEpic(t, m, task.NewEpic("E", ""))
	mustAddSubtask(t, m, task.NewSubtask("S", "", e.ID))

	ids := m.EpicSubtaskIDs(e.ID)
	ids[0] = 999

	if got := m.EpicSubtaskIDs(e.ID); got[0] == 999 {
		t.Fatal("returned child list aliases internal state")
	}
	if got := m.EpicSubtaskIDs(12345); len(got) != 0 {
		t.Fatalf("unknown epic: got %v, want empty", got)
	}
}

func TestPrioritizedOrdering(t *testing.T) {
	m := New()
	e := mustAddEpic(t, m, task.NewEpic("E", ""))
	x := mustAddSubtask(t, m, withWindow(task.NewSubtask("X", "", e.ID), 8, 0, time.Hour))
	y := mustAddSubtask(t, m, withWindow(task.NewSubtask("Y", "", e.ID), 11, 0, 30*time.Minute))
	t1 := mustAddTask(t, m, withWindow(task.NewTask("T1", ""), 10, 0, time.Hour))
	t2 := mustAddTask(t, m, withWindow(task.NewTask("T2", ""), 9, 0, 45*time.Minute))
	mustAddTask(t, m, task.NewTask("unscheduled", ""))

	got := m.Prioritized()
	want := []int{x.ID, t2.ID, t1.ID, y.ID}
	if len(got) != len(want) {
		t.Fatalf("prioritized length: got %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("prioritized[%d]: got id %d, want %d", i, got[i].ID, id)
		}
	}
}
