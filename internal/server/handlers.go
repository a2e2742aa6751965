package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/haskel/collswitch/internal/allocation"
	"github.com/haskel/collswitch/internal/decision/scheduler"
)

type InfoResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type ReadyResponse struct {
	Ready   bool   `json:"ready"`
	Message string `json:"message,omitempty"`
}

// ContextsResponse lists every allocation context.
type ContextsResponse struct {
	Contexts []allocation.ContextStats `json:"contexts"`
	Total    int                       `json:"total"`
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	resp := InfoResponse{
		Name:    "collswitch",
		Version: s.version,
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status: "ok",
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// handleReady reports ready once the scheduler is analyzing contexts.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	sched := s.engine.Scheduler()
	if sched == nil || !sched.IsRunning() {
		s.writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{
			Ready:   false,
			Message: "no context registered yet",
		})
		return
	}

	s.writeJSON(w, http.StatusOK, ReadyResponse{Ready: true})
}

func (s *Server) handleContexts(w http.ResponseWriter, r *http.Request) {
	contexts := s.engine.Contexts()

	domain := r.URL.Query().Get("domain")
	if domain != "" {
		filtered := contexts[:0]
		for _, c := range contexts {
			if c.Domain == domain {
				filtered = append(filtered, c)
			}
		}
		contexts = filtered
	}

	s.writeJSON(w, http.StatusOK, ContextsResponse{
		Contexts: contexts,
		Total:    len(contexts),
	})
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	for _, c := range s.engine.Contexts() {
		if c.ID == id {
			s.writeJSON(w, http.StatusOK, c)
			return
		}
	}
	http.Error(w, "context not found", http.StatusNotFound)
}

func (s *Server) handleScheduler(w http.ResponseWriter, r *http.Request) {
	sched := s.engine.Scheduler()
	if sched == nil {
		s.writeJSON(w, http.StatusOK, scheduler.Stats{})
		return
	}
	s.writeJSON(w, http.StatusOK, sched.Stats())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response",
			"error", err,
			"status", status,
		)
	}
}

// slogErrorLog adapts a slog logger to promhttp's error logger.
type slogErrorLog struct {
	logger *slog.Logger
}

func (l slogErrorLog) Println(v ...any) {
	l.logger.Error("metrics handler", "error", fmt.Sprint(v...))
}
