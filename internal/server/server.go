// Package server exposes the task store over HTTP.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rlazarev/planner-go/internal/task"
)

// Store is the contract the HTTP layer needs from the task store. The
// error returns carry persistence failures; the in-memory mutation has
// committed even when they are non-nil.
type Store interface {
	AddTask(*task.Task) (*task.Task, error)
	UpdateTask(*task.Task) (*task.Task, error)
	TaskByID(int) (*task.Task, bool, error)
	AllTasks() ([]*task.Task, error)
	DeleteTask(int) error
	DeleteAllTasks() error

	AddEpic(*task.Task) (*task.Task, error)
	UpdateEpic(*task.Task) (*task.Task, error)
	EpicByID(int) (*task.Task, bool, error)
	AllEpics() ([]*task.Task, error)
	DeleteEpic(int) error
	DeleteAllEpics() error

	AddSubtask(*task.Task) (*task.Task, error)
	UpdateSubtask(*task.Task) (*task.Task, error)
	SubtaskByID(int) (*task.Task, bool, error)
	AllSubtasks() ([]*task.Task, error)
	DeleteSubtask(int) error
	DeleteAllSubtasks() error

	EpicSubtaskIDs(int) []int
	Prioritized() []*task.Task
	History() []*task.Task
}

// Server is the HTTP API server.
type Server struct {
	store   Store
	log     *log.Logger
	mux     *http.ServeMux
	handler http.Handler
}

// New creates a new Server.
func New(store Store, logger *log.Logger) *Server {
	s := &Server{
		store: store,
		log:   logger,
		mux:   http.NewServeMux(),
	}
	s.routes()
	s.handler = s.withObservability(s.mux)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.registerKind("/tasks", kindOps{
		list:      s.store.AllTasks,
		get:       s.store.TaskByID,
		add:       s.store.AddTask,
		update:    s.store.UpdateTask,
		delete:    s.store.DeleteTask,
		deleteAll: s.store.DeleteAllTasks,
	})
	s.registerKind("/epics", kindOps{
		list:      s.store.AllEpics,
		get:       s.store.EpicByID,
		add:       s.store.AddEpic,
		update:    s.store.UpdateEpic,
		delete:    s.store.DeleteEpic,
		deleteAll: s.store.DeleteAllEpics,
	})
	s.registerKind("/subtasks", kindOps{
		list:      s.store.AllSubtasks,
		get:       s.store.SubtaskByID,
		add:       s.store.AddSubtask,
		update:    s.store.UpdateSubtask,
		delete:    s.store.DeleteSubtask,
		deleteAll: s.store.DeleteAllSubtasks,
	})

	s.mux.HandleFunc("GET /epics/{id}/subtasks", s.handleEpicSubtasks)
	s.mux.HandleFunc("GET /history", s.handleHistory)
	s.mux.HandleFunc("GET /prioritized", s.handlePrioritized)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Default().Error("write json", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
