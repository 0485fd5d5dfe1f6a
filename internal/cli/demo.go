package cli

import (
	"fmt"
	"time"

	"github.com/rlazarev/planner-go/internal/manager"
	"github.com/rlazarev/planner-go/internal/task"
)

// demoCommand walks an in-memory store through a typical session and
// prints the derived views after each phase.
func demoCommand() error {
	m := manager.New()

	laundry, _ := m.AddTask(task.NewTask("Laundry", "Wash and fold"))
	groceries, _ := m.AddTask(task.NewTask("Groceries", "Weekly shop"))

	move, _ := m.AddEpic(task.NewEpic("Move apartment", "Everything around the move"))
	packing, _ := m.AddSubtask(task.NewSubtask("Pack boxes", "Books first", move.ID))
	truck, _ := m.AddSubtask(task.NewSubtask("Book truck", "Saturday morning", move.ID))

	start := time.Date(2026, time.September, 5, 9, 0, 0, 0, time.UTC)
	hour := time.Hour
	packing.Start, packing.Duration = &start, &hour
	if _, err := m.UpdateSubtask(packing); err != nil {
		return err
	}

	m.TaskByID(laundry.ID)
	m.EpicByID(move.ID)
	m.SubtaskByID(truck.ID)
	m.TaskByID(groceries.ID)
	m.TaskByID(laundry.ID)

	fmt.Println("History (oldest first):")
	for _, t := range m.History() {
		fmt.Printf("  #%d %s [%s]\n", t.ID, t.Name, t.Status)
	}

	fmt.Println("\nPrioritized:")
	for _, t := range m.Prioritized() {
		fmt.Printf("  #%d %s starts %s\n", t.ID, t.Name, t.Start.Format(time.RFC3339))
	}

	truck.Status = task.StatusDone
	if _, err := m.UpdateSubtask(truck); err != nil {
		return err
	}
	epic, _ := m.EpicByID(move.ID)
	fmt.Printf("\nEpic %q is %s with subtasks %v\n", epic.Name, epic.Status, epic.SubtaskIDs)

	m.DeleteEpic(move.ID)
	fmt.Printf("After deleting the epic: %d history entries, %d scheduled\n",
		len(m.History()), len(m.Prioritized()))
	return nil
}
