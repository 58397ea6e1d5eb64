// Package server exposes the editing pipeline over HTTP. Runs execute in
// the background; clients poll the task endpoint and fetch results or
// rendered documents once the task completes.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/valpere/peredit/internal"
	"github.com/valpere/peredit/internal/report"
	"github.com/valpere/peredit/internal/store"
	"github.com/valpere/peredit/internal/task"
)

// StartRequest is the body of POST /api/editor/start. SourceText is the
// page-preserving source dump; DraftText the human translation, which may
// be empty for translate-only runs.
type StartRequest struct {
	SourceText  string   `json:"source_text"`
	DraftText   string   `json:"draft_text"`
	SourceLang  string   `json:"source_lang"`
	TargetLang  string   `json:"target_lang"`
	Models      []string `json:"models"`
	EditorModel string   `json:"editor_model"`
	StartPage   int      `json:"start_page"`
	EndPage     int      `json:"end_page"`
	Workers     int      `json:"workers"`
}

// RunFunc executes one document run. The progress callback follows the
// pipeline's contract: one call per completed paragraph.
type RunFunc func(ctx context.Context, req StartRequest, progress func(completed, total int)) (internal.Report, error)

// Server routes task lifecycle and download requests.
type Server struct {
	tasks *task.Store
	store *store.Store
	run   RunFunc
	log   zerolog.Logger
}

// New creates a Server. st may be nil to disable run persistence.
func New(tasks *task.Store, st *store.Store, run RunFunc, log zerolog.Logger) *Server {
	return &Server{tasks: tasks, store: st, run: run, log: log}
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/editor/start", s.handleStart)
		r.Get("/editor/task/{id}", s.handleTask)
		r.Get("/editor/task/{id}/results", s.handleResults)
		r.Delete("/editor/task/{id}", s.handleDelete)
		r.Get("/editor/task/{id}/download/{kind}", s.handleDownload)

		r.Get("/runs", s.handleRuns)
		r.Get("/runs/{id}", s.handleRun)
		r.Delete("/runs/{id}", s.handleRunDelete)
	})

	return r
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SourceText == "" {
		writeError(w, http.StatusBadRequest, "source_text is required")
		return
	}

	t := s.tasks.Create()
	s.log.Info().Str("task", t.ID).Int("models", len(req.Models)).Msg("run accepted")

	go s.execute(t.ID, req)

	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": t.ID})
}

// execute drives one background run, mirroring pipeline progress into the
// task store.
func (s *Server) execute(id string, req StartRequest) {
	s.tasks.Update(id, func(t *task.Task) { t.Status = task.StatusProcessing })

	rep, err := s.run(context.Background(), req, func(completed, total int) {
		s.tasks.Update(id, func(t *task.Task) {
			t.Completed = completed
			t.Total = total
		})
	})
	if err != nil {
		s.log.Error().Str("task", id).Err(err).Msg("run failed")
		s.tasks.Update(id, func(t *task.Task) {
			t.Status = task.StatusError
			t.Error = err.Error()
		})
		return
	}

	s.tasks.Update(id, func(t *task.Task) {
		t.Status = task.StatusCompleted
		t.Report = &rep
	})

	if s.store != nil {
		run := internal.EditRun{
			ID:         id,
			SourceLang: req.SourceLang,
			TargetLang: req.TargetLang,
			Stats:      rep.Stats,
			CreatedAt:  time.Now(),
		}
		if err := s.store.SaveRun(context.Background(), run, rep); err != nil {
			s.log.Warn().Str("task", id).Err(err).Msg("failed to persist run")
		}
	}

	s.log.Info().Str("task", id).
		Int("total", rep.Stats.Total).
		Int("edited", rep.Stats.Edited).
		Msg("run completed")
}

func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tasks.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tasks.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if t.Status != task.StatusCompleted {
		writeError(w, http.StatusConflict, fmt.Sprintf("task is %s", t.Status))
		return
	}
	writeJSON(w, http.StatusOK, t.Report)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !s.tasks.Delete(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tasks.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if t.Status != task.StatusCompleted || t.Report == nil {
		writeError(w, http.StatusConflict, fmt.Sprintf("task is %s", t.Status))
		return
	}

	var doc string
	switch chi.URLParam(r, "kind") {
	case "final":
		doc = report.FinalText(*t.Report)
	case "review":
		doc = report.ReviewMarkdown(*t.Report)
	case "comparison":
		doc = report.ComparisonMarkdown(*t.Report)
	default:
		writeError(w, http.StatusNotFound, "unknown document kind")
		return
	}

	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, report.HTML(doc))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, doc)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "run persistence disabled")
		return
	}
	runs, err := s.store.ListRuns(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "run persistence disabled")
		return
	}
	rep, err := s.store.GetReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleRunDelete(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "run persistence disabled")
		return
	}
	if err := s.store.DeleteRun(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
