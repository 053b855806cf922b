// Package ui exposes the analysis services over a JSON HTTP API.
package ui

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"neurosync/adapters/excel"
	"neurosync/app"
	"neurosync/domain/core"
	"neurosync/domain/run"
	"neurosync/domain/signal"
	"neurosync/internal/errors"
)

// Server hosts the HTTP API.
type Server struct {
	analysis *app.AnalysisService
	modeling *app.ModelingService
	excel    *excel.Writer
	port     string
}

// NewServer creates a new API server
func NewServer(analysis *app.AnalysisService, modeling *app.ModelingService, port string) *Server {
	return &Server{
		analysis: analysis,
		modeling: modeling,
		excel:    excel.NewWriter(),
		port:     port,
	}
}

// Router builds the chi routing tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(middleware.Timeout(120 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/runs", s.handleSubmitRun)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Get("/runs/{id}/plv", s.handleGetPLV)
		r.Get("/runs/{id}/export", s.handleExport)
		r.Get("/runs/{id}/artifacts", s.handleArtifacts)
		r.Get("/recordings/{id}/summary", s.handleSubjectSummary)
	})
	return r
}

// ListenAndServe blocks serving the API on the configured port.
func (s *Server) ListenAndServe() error {
	log.Printf("[Server] listening on :%s", s.port)
	return http.ListenAndServe(":"+s.port, s.Router())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSubmitRun(w http.ResponseWriter, r *http.Request) {
	var req app.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.CodeConfigInvalid, "invalid request body: "+err.Error())
		return
	}
	if req.RecordingID == "" {
		writeError(w, http.StatusBadRequest, errors.CodeConfigInvalid, "recording_id is required")
		return
	}

	ar, err := s.analysis.Execute(r.Context(), req)
	if err != nil {
		if ar != nil && ar.Status == run.StatusFailed {
			// The run record captured the failure; report it with the
			// status the error class deserves.
			writeFailedRun(w, ar, err)
			return
		}
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ar)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	runs, err := s.analysis.ListRuns(r.Context(), limit, offset)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if runs == nil {
		runs = []*run.AnalysisRun{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	ar, err := s.analysis.GetRun(r.Context(), core.RunID(chi.URLParam(r, "id")))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ar)
}

func (s *Server) handleGetPLV(w http.ResponseWriter, r *http.Request) {
	result, err := s.analysis.GetResult(r.Context(), core.RunID(chi.URLParam(r, "id")))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := core.RunID(chi.URLParam(r, "id"))
	ar, err := s.analysis.GetRun(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	result, err := s.analysis.GetResult(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="plv_%s.xlsx"`, id))
	if err := s.excel.WritePLV(w, ar, result); err != nil {
		log.Printf("[Server] export failed for run %s: %v", id, err)
	}
}

// handleArtifacts lists the persisted outputs of a run together with the
// behavioral summary of its recording.
func (s *Server) handleArtifacts(w http.ResponseWriter, r *http.Request) {
	id := core.RunID(chi.URLParam(r, "id"))
	artifacts, err := s.analysis.Artifacts(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	ar, err := s.analysis.GetRun(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if summary, err := s.modeling.SummaryArtifact(r.Context(), ar.RecordingID); err == nil {
		artifacts = append(artifacts, summary)
	} else {
		log.Printf("[Server] summary artifact unavailable for run %s: %v", id, err)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"artifacts": artifacts})
}

func (s *Server) handleSubjectSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.modeling.Summarize(r.Context(), core.RecordingID(chi.URLParam(r, "id")))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// writeDomainError maps the domain error taxonomy onto HTTP statuses:
// validation to 400, missing resources to 404, everything else to 500.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case core.IsNotFoundError(err):
		writeError(w, http.StatusNotFound, errors.CodeNotFound, err.Error())
	case app.IsValidationError(err):
		writeError(w, http.StatusBadRequest, codeFor(err), err.Error())
	default:
		log.Printf("[Server] internal error: %v", err)
		writeError(w, http.StatusInternalServerError, errors.CodeInternalError, "internal server error")
	}
}

func writeFailedRun(w http.ResponseWriter, ar *run.AnalysisRun, err error) {
	status := http.StatusInternalServerError
	if app.IsValidationError(err) {
		status = http.StatusBadRequest
	} else if core.IsNotFoundError(err) {
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]interface{}{
		"error": err.Error(),
		"code":  codeFor(err),
		"run":   ar,
	})
}

// codeFor translates estimator validation errors into API error codes.
func codeFor(err error) string {
	var filterErr *signal.InvalidFilterSpecError
	var trialsErr *signal.InsufficientTrialsError
	var windowErr *signal.WindowTooShortError
	switch {
	case stderrors.As(err, &filterErr):
		return errors.CodeInvalidFilterSpec
	case stderrors.As(err, &trialsErr):
		return errors.CodeInsufficientTrials
	case stderrors.As(err, &windowErr):
		return errors.CodeWindowTooShort
	case core.IsNotFoundError(err):
		return errors.CodeNotFound
	}
	return errors.GetCode(err)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": message, "code": code})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[Server] failed to encode response: %v", err)
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
