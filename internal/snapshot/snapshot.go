// Package snapshot exports and imports the whole board as a versioned
// JSON document validated against an embedded JSON Schema.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/rlazarev/planner-go/internal/manager"
	"github.com/rlazarev/planner-go/internal/task"
)

// SchemaVersion identifies the current document layout.
const SchemaVersion = 1

// Record is one entity in a board document.
type Record struct {
	ID              int    `json:"id"`
	Kind            string `json:"kind"`
	Name            string `json:"name"`
	Status          string `json:"status"`
	Description     string `json:"description,omitempty"`
	Start           string `json:"start,omitempty"`
	DurationMinutes *int64 `json:"duration_minutes,omitempty"`
	EpicID          int    `json:"epic_id,omitempty"`
}

// Board is the full exported state: every entity plus the history as a
// sequence of entity ids, oldest viewed first.
type Board struct {
	SchemaVersion int      `json:"schema_version"`
	Entities      []Record `json:"entities"`
	History       []int    `json:"history,omitempty"`
}

const rawSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "required": ["schema_version", "entities"],
  "properties": {
    "schema_version": {"const": 1},
    "entities": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["id", "kind", "name", "status"],
        "properties": {
          "id": {"type": "integer", "minimum": 1},
          "kind": {"enum": ["TASK", "EPIC", "SUBTASK"]},
          "name": {"type": "string"},
          "status": {"enum": ["NEW", "IN_PROGRESS", "DONE"]},
          "description": {"type": "string"},
          "start": {"type": "string", "format": "date-time"},
          "duration_minutes": {"type": "integer", "minimum": 0},
          "epic_id": {"type": "integer", "minimum": 1}
        }
      }
    },
    "history": {
      "type": "array",
      "items": {"type": "integer", "minimum": 1}
    }
  }
}`

const schemaURL = "board.schema.json"

func compiledSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource(schemaURL, strings.NewReader(rawSchema)); err != nil {
		return nil, fmt.Errorf("register board schema: %w", err)
	}
	return compiler.Compile(schemaURL)
}

// Validate checks raw JSON against the board schema.
func Validate(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse board document: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("board document: %w", err)
	}
	return nil
}

func toRecord(t *task.Task) Record {
	r := Record{
		ID:          t.ID,
		Kind:        string(t.Kind),
		Name:        t.Name,
		Status:      string(t.Status),
		Description: t.Description,
	}
	if t.Start != nil {
		r.Start = t.Start.Format(time.RFC3339)
	}
	if t.Duration != nil {
		minutes := int64(t.Duration.Minutes())
		r.DurationMinutes = &minutes
	}
	if t.Kind == task.KindSubtask {
		r.EpicID = t.EpicID
	}
	return r
}

func fromRecord(r Record) (*task.Task, error) {
	t := &task.Task{
		ID:          r.ID,
		Kind:        task.Kind(r.Kind),
		Name:        r.Name,
		Status:      task.Status(r.Status),
		Description: r.Description,
		EpicID:      r.EpicID,
	}
	if r.Start != "" {
		start, err := time.Parse(time.RFC3339, r.Start)
		if err != nil {
			return nil, fmt.Errorf("entity %d start %q: %w", r.ID, r.Start, err)
		}
		t.Start = &start
	}
	if r.DurationMinutes != nil {
		d := time.Duration(*r.DurationMinutes) * time.Minute
		t.Duration = &d
	}
	return t, nil
}

// Export captures the manager's state as a board document.
func Export(m *manager.Manager) *Board {
	snap := m.Snapshot()
	board := &Board{SchemaVersion: SchemaVersion}
	for _, group := range [][]*task.Task{snap.Tasks, snap.Epics, snap.Subtasks} {
		for _, t := range group {
			board.Entities = append(board.Entities, toRecord(t))
		}
	}
	for _, t := range snap.History {
		board.History = append(board.History, t.ID)
	}
	return board
}

// Import validates raw JSON and replays it into m. Epics go first so
// subtasks always find their parent regardless of document order.
func Import(m *manager.Manager, data []byte) error {
	if err := Validate(data); err != nil {
		return err
	}
	var board Board
	if err := json.Unmarshal(data, &board); err != nil {
		return fmt.Errorf("parse board document: %w", err)
	}

	var epics, rest []Record
	for _, r := range board.Entities {
		if r.Kind == string(task.KindEpic) {
			epics = append(epics, r)
		} else {
			rest = append(rest, r)
		}
	}
	for _, r := range append(epics, rest...) {
		t, err := fromRecord(r)
		if err != nil {
			return err
		}
		switch t.Kind {
		case task.KindEpic:
			_, err = m.AddEpic(t)
		case task.KindSubtask:
			_, err = m.AddSubtask(t)
		default:
			_, err = m.AddTask(t)
		}
		if err != nil {
			return fmt.Errorf("import entity %d: %w", r.ID, err)
		}
	}
	for _, id := range board.History {
		if _, ok := m.TaskByID(id); ok {
			continue
		}
		if _, ok := m.EpicByID(id); ok {
			continue
		}
		m.SubtaskByID(id)
	}
	return nil
}

// WriteFile writes the board as indented JSON.
func WriteFile(path string, board *Board) error {
	data, err := json.MarshalIndent(board, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal board: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write board: %w", err)
	}
	return nil
}

// ReadFile loads and validates a board document.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read board: %w", err)
	}
	if err := Validate(data); err != nil {
		return nil, err
	}
	return data, nil
}
