// Package storage persists the store to a CSV file and loads it back.
package storage

import (
	"fmt"
	"strconv"
	"time"

	"github.com/rlazarev/planner-go/internal/task"
)

// One entity per row: id,type,name,status,description,start,duration,epic.
// Start is RFC 3339 or empty, duration is whole minutes or empty, epic
// is the owning epic id for subtasks and empty otherwise.
var csvHeader = []string{"id", "type", "name", "status", "description", "start", "duration", "epic"}

// historyMarker separates entity rows from history rows.
const historyMarker = "HISTORY"

func encodeRecord(t *task.Task) []string {
	start := ""
	if t.Start != nil {
		start = t.Start.Format(time.RFC3339)
	}
	duration := ""
	if t.Duration != nil {
		duration = strconv.FormatInt(int64(t.Duration.Minutes()), 10)
	}
	epic := ""
	if t.Kind == task.KindSubtask {
		epic = strconv.Itoa(t.EpicID)
	}
	return []string{
		strconv.Itoa(t.ID),
		string(t.Kind),
		t.Name,
		string(t.Status),
		t.Description,
		start,
		duration,
		epic,
	}
}

func decodeRecord(fields []string) (*task.Task, error) {
	if len(fields) != len(csvHeader) {
		return nil, fmt.Errorf("record has %d fields, want %d", len(fields), len(csvHeader))
	}
	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, fmt.Errorf("record id %q: %w", fields[0], err)
	}
	kind := task.Kind(fields[1])
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown record type %q", fields[1])
	}
	status := task.Status(fields[3])
	if !status.Valid() {
		return nil, fmt.Errorf("unknown record status %q", fields[3])
	}

	t := &task.Task{
		ID:          id,
		Kind:        kind,
		Name:        fields[2],
		Status:      status,
		Description: fields[4],
	}
	if fields[5] != "" {
		start, err := time.Parse(time.RFC3339, fields[5])
		if err != nil {
			return nil, fmt.Errorf("record start %q: %w", fields[5], err)
		}
		t.Start = &start
	}
	if fields[6] != "" {
		minutes, err := strconv.ParseInt(fields[6], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("record duration %q: %w", fields[6], err)
		}
		d := time.Duration(minutes) * time.Minute
		t.Duration = &d
	}
	if kind == task.KindSubtask {
		epicID, err := strconv.Atoi(fields[7])
		if err != nil {
			return nil, fmt.Errorf("record epic id %q: %w", fields[7], err)
		}
		t.EpicID = epicID
	}
	return t, nil
}
