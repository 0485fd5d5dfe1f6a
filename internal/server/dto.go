package server

import (
	"fmt"
	"time"

	"github.com/rlazarev/planner-go/internal/task"
)

// taskPayload is the wire shape for every entity kind. Durations travel
// as whole minutes, timestamps as RFC 3339.
type taskPayload struct {
	ID          int    `json:"id,omitempty"`
	Type        string `json:"type,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	StartTime   string `json:"startTime,omitempty"`
	Duration    *int64 `json:"duration,omitempty"`
	EndTime     string `json:"endTime,omitempty"`
	SubtaskIDs  []int  `json:"subtaskIds,omitempty"`
	EpicID      int    `json:"epicId,omitempty"`
}

func toPayload(t *task.Task) taskPayload {
	p := taskPayload{
		ID:          t.ID,
		Type:        string(t.Kind),
		Name:        t.Name,
		Description: t.Description,
		Status:      string(t.Status),
	}
	if t.Start != nil {
		p.StartTime = t.Start.Format(time.RFC3339)
	}
	if t.Duration != nil {
		minutes := int64(t.Duration.Minutes())
		p.Duration = &minutes
	}
	if end := t.EndTime(); end != nil {
		p.EndTime = end.Format(time.RFC3339)
	}
	switch t.Kind {
	case task.KindEpic:
		p.SubtaskIDs = t.SubtaskIDs
	case task.KindSubtask:
		p.EpicID = t.EpicID
	}
	return p
}

func toPayloads(tasks []*task.Task) []taskPayload {
	out := make([]taskPayload, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toPayload(t))
	}
	return out
}

// toTask converts an incoming payload. The kind is set by the store
// operation, not trusted from the body.
func (p taskPayload) toTask() (*task.Task, error) {
	status := task.Status(p.Status)
	if p.Status == "" {
		status = task.StatusNew
	}
	if !status.Valid() {
		return nil, fmt.Errorf("unknown status %q", p.Status)
	}
	t := &task.Task{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Status:      status,
		EpicID:      p.EpicID,
	}
	if p.StartTime != "" {
		start, err := time.Parse(time.RFC3339, p.StartTime)
		if err != nil {
			return nil, fmt.Errorf("startTime %q: %w", p.StartTime, err)
		}
		t.Start = &start
	}
	if p.Duration != nil {
		if *p.Duration < 0 {
			return nil, fmt.Errorf("duration must be non-negative, got %d", *p.Duration)
		}
		d := time.Duration(*p.Duration) * time.Minute
		t.Duration = &d
	}
	return t, nil
}
