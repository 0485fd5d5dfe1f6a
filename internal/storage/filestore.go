package storage

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/natefinch/atomic"

	"github.com/rlazarev/planner-go/internal/manager"
	"github.com/rlazarev/planner-go/internal/task"
)

// SaveError reports a failed write of the backing file. The in-memory
// mutation it follows has already committed and is not rolled back.
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save %s: %v", e.Path, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// FileStore wraps a manager and rewrites the backing CSV file after
// every operation that changes the store or the history. An empty path
// disables persistence, leaving a purely in-memory store.
type FileStore struct {
	m    *manager.Manager
	path string
}

// NewFileStore returns a file store over a fresh manager.
func NewFileStore(path string) *FileStore {
	return &FileStore{m: manager.New(), path: path}
}

// Open loads the store from path. A missing file yields an empty store;
// any other read or parse failure is an error.
func Open(path string) (*FileStore, error) {
	fs := NewFileStore(path)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return fs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if err := fs.replay(f); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return fs, nil
}

// Manager exposes the underlying manager for read-only collaborators.
func (fs *FileStore) Manager() *manager.Manager {
	return fs.m
}

// replay feeds entity rows through the add paths, then rebuilds history
// by re-fetching each recorded id. The allocator ends up past the
// largest replayed id because explicit ids advance it on add.
func (fs *FileStore) replay(r io.Reader) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return err
	}
	inHistory := false
	for i, row := range rows {
		if i == 0 && len(row) > 0 && row[0] == csvHeader[0] {
			continue
		}
		if len(row) > 0 && row[0] == historyMarker {
			inHistory = true
			continue
		}
		t, err := decodeRecord(row)
		if err != nil {
			return err
		}
		if inHistory {
			fs.refetch(t)
			continue
		}
		if err := fs.addReplayed(t); err != nil {
			return err
		}
	}
	return nil
}

func (fs *FileStore) addReplayed(t *task.Task) error {
	var err error
	switch t.Kind {
	case task.KindEpic:
		_, err = fs.m.AddEpic(t)
	case task.KindSubtask:
		_, err = fs.m.AddSubtask(t)
	default:
		_, err = fs.m.AddTask(t)
	}
	return err
}

func (fs *FileStore) refetch(t *task.Task) {
	switch t.Kind {
	case task.KindEpic:
		fs.m.EpicByID(t.ID)
	case task.KindSubtask:
		fs.m.SubtaskByID(t.ID)
	default:
		fs.m.TaskByID(t.ID)
	}
}

// save rewrites the whole file from a snapshot. The write goes through
// a temp file and rename so readers never see a partial file.
func (fs *FileStore) save() error {
	if fs.path == "" {
		return nil
	}
	snap := fs.m.Snapshot()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return &SaveError{Path: fs.path, Err: err}
	}
	for _, group := range [][]*task.Task{snap.Tasks, snap.Epics, snap.Subtasks} {
		for _, t := range group {
			if err := w.Write(encodeRecord(t)); err != nil {
				return &SaveError{Path: fs.path, Err: err}
			}
		}
	}
	if err := w.Write([]string{historyMarker}); err != nil {
		return &SaveError{Path: fs.path, Err: err}
	}
	for _, t := range snap.History {
		if err := w.Write(encodeRecord(t)); err != nil {
			return &SaveError{Path: fs.path, Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return &SaveError{Path: fs.path, Err: err}
	}
	if err := atomic.WriteFile(fs.path, &buf); err != nil {
		return &SaveError{Path: fs.path, Err: err}
	}
	return nil
}

// Flush writes the current state out immediately. Used after bulk
// replays that bypass the per-operation saves.
func (fs *FileStore) Flush() error {
	return fs.save()
}

// AddTask adds a task and persists the new state.
func (fs *FileStore) AddTask(t *task.Task) (*task.Task, error) {
	added, err := fs.m.AddTask(t)
	if err != nil {
		return nil, err
	}
	return added, fs.save()
}

// AddEpic adds an epic and persists the new state.
func (fs *FileStore) AddEpic(e *task.Task) (*task.Task, error) {
	added, err := fs.m.AddEpic(e)
	if err != nil {
		return nil, err
	}
	return added, fs.save()
}

// AddSubtask adds a subtask and persists the new state.
func (fs *FileStore) AddSubtask(s *task.Task) (*task.Task, error) {
	added, err := fs.m.AddSubtask(s)
	if err != nil {
		return nil, err
	}
	return added, fs.save()
}

// UpdateTask updates a task and persists the new state.
func (fs *FileStore) UpdateTask(t *task.Task) (*task.Task, error) {
	updated, err := fs.m.UpdateTask(t)
	if err != nil {
		return nil, err
	}
	return updated, fs.save()
}

// UpdateEpic updates an epic and persists the new state.
func (fs *FileStore) UpdateEpic(e *task.Task) (*task.Task, error) {
	updated, err := fs.m.UpdateEpic(e)
	if err != nil {
		return nil, err
	}
	return updated, fs.save()
}

// UpdateSubtask updates a subtask and persists the new state.
func (fs *FileStore) UpdateSubtask(s *task.Task) (*task.Task, error) {
	updated, err := fs.m.UpdateSubtask(s)
	if err != nil {
		return nil, err
	}
	return updated, fs.save()
}

// TaskByID looks up a task. The lookup lands in history, so the state
// is persisted too.
func (fs *FileStore) TaskByID(id int) (*task.Task, bool, error) {
	t, ok := fs.m.TaskByID(id)
	if !ok {
		return nil, false, nil
	}
	return t, true, fs.save()
}

// EpicByID looks up an epic, recording and persisting the visit.
func (fs *FileStore) EpicByID(id int) (*task.Task, bool, error) {
	e, ok := fs.m.EpicByID(id)
	if !ok {
		return nil, false, nil
	}
	return e, true, fs.save()
}

// SubtaskByID looks up a subtask, recording and persisting the visit.
func (fs *FileStore) SubtaskByID(id int) (*task.Task, bool, error) {
	s, ok := fs.m.SubtaskByID(id)
	if !ok {
		return nil, false, nil
	}
	return s, true, fs.save()
}

// AllTasks lists tasks; listing is history-visible, hence persisted.
func (fs *FileStore) AllTasks() ([]*task.Task, error) {
	out := fs.m.AllTasks()
	return out, fs.save()
}

// AllEpics lists epics, recording and persisting the visits.
func (fs *FileStore) AllEpics() ([]*task.Task, error) {
	out := fs.m.AllEpics()
	return out, fs.save()
}

// AllSubtasks lists subtasks, recording and persisting the visits.
func (fs *FileStore) AllSubtasks() ([]*task.Task, error) {
	out := fs.m.AllSubtasks()
	return out, fs.save()
}

// DeleteTask deletes a task and persists the new state.
func (fs *FileStore) DeleteTask(id int) error {
	fs.m.DeleteTask(id)
	return fs.save()
}

// DeleteEpic deletes an epic with its subtasks and persists the new
// state.
func (fs *FileStore) DeleteEpic(id int) error {
	fs.m.DeleteEpic(id)
	return fs.save()
}

// DeleteSubtask deletes a subtask and persists the new state.
func (fs *FileStore) DeleteSubtask(id int) error {
	fs.m.DeleteSubtask(id)
	return fs.save()
}

// DeleteAllTasks clears all tasks and persists the new state.
func (fs *FileStore) DeleteAllTasks() error {
	fs.m.DeleteAllTasks()
	return fs.save()
}

// DeleteAllEpics clears all epics and subtasks and persists the new
// state.
func (fs *FileStore) DeleteAllEpics() error {
	fs.m.DeleteAllEpics()
	return fs.save()
}

// DeleteAllSubtasks clears all subtasks and persists the new state.
func (fs *FileStore) DeleteAllSubtasks() error {
	fs.m.DeleteAllSubtasks()
	return fs.save()
}

// EpicSubtaskIDs returns the epic's child ids.
func (fs *FileStore) EpicSubtaskIDs(epicID int) []int {
	return fs.m.EpicSubtaskIDs(epicID)
}

// Prioritized returns the scheduled entities in start-time order.
func (fs *FileStore) Prioritized() []*task.Task {
	return fs.m.Prioritized()
}

// History returns the viewed entities, oldest first.
func (fs *FileStore) History() []*task.Task {
	return fs.m.History()
}
