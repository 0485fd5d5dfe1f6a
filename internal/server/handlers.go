package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rlazarev/planner-go/internal/manager"
	"github.com/rlazarev/planner-go/internal/task"
)

// kindOps bundles the store operations for one entity kind so the three
// resource trees share one handler set.
type kindOps struct {
	list      func() ([]*task.Task, error)
	get       func(int) (*task.Task, bool, error)
	add       func(*task.Task) (*task.Task, error)
	update    func(*task.Task) (*task.Task, error)
	delete    func(int) error
	deleteAll func() error
}

func (s *Server) registerKind(prefix string, ops kindOps) {
	s.mux.HandleFunc("GET "+prefix, s.handleList(ops))
	s.mux.HandleFunc("GET "+prefix+"/{id}", s.handleGet(ops))
	s.mux.HandleFunc("POST "+prefix, s.handlePost(ops))
	s.mux.HandleFunc("DELETE "+prefix+"/{id}", s.handleDelete(ops))
	s.mux.HandleFunc("DELETE "+prefix, s.handleDeleteAll(ops))
}

func (s *Server) handleList(ops kindOps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tasks, err := ops.list()
		if err != nil {
			s.storeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPayloads(tasks))
	}
}

func (s *Server) handleGet(ops kindOps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		t, found, err := ops.get(id)
		if err != nil {
			s.storeError(w, err)
			return
		}
		if !found {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeJSON(w, http.StatusOK, toPayload(t))
	}
}

// handlePost adds when the payload carries no id and updates otherwise,
// mirroring the whole-object replacement semantics of the store.
func (s *Server) handlePost(ops kindOps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p taskPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
		t, err := p.toTask()
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if t.ID == 0 {
			added, err := ops.add(t)
			if err != nil {
				s.storeError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, toPayload(added))
			return
		}
		updated, err := ops.update(t)
		if err != nil {
			s.storeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPayload(updated))
	}
}

func (s *Server) handleDelete(ops kindOps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := ops.delete(id); err != nil {
			s.storeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func (s *Server) handleDeleteAll(ops kindOps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ops.deleteAll(); err != nil {
			s.storeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func (s *Server) handleEpicSubtasks(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.store.EpicSubtaskIDs(id))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toPayloads(s.store.History()))
}

func (s *Server) handlePrioritized(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toPayloads(s.store.Prioritized()))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// storeError maps an overlap conflict to 406 and everything else —
// persistence failures included — to 500.
func (s *Server) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, manager.ErrOverlap) {
		writeError(w, http.StatusNotAcceptable, err.Error())
		return
	}
	s.log.Error("store operation failed", "err", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id: "+r.PathValue("id"))
		return 0, false
	}
	return id, true
}
