// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/danielhkuo/envision/export"
	"github.com/danielhkuo/envision/middleware"
	"github.com/danielhkuo/envision/realtime"
	"github.com/danielhkuo/envision/results"
	"github.com/danielhkuo/envision/store"
)

// ResultsHandler serves combined scores and LLM results.
type ResultsHandler struct {
	Deps
	results *results.Service
}

func NewResultsHandler(d Deps, rs *results.Service) *ResultsHandler {
	return &ResultsHandler{Deps: d, results: rs}
}

// generationError maps results service failures. Model failures never
// leave a stored row behind.
func generationError(w http.ResponseWriter, err error, workspaceID, action string) {
	switch {
	case errors.Is(err, results.ErrUnavailable):
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "LLM is not configured")
	case errors.Is(err, results.ErrGenerationFailed):
		slog.Warn("failed to "+action, "workspace_id", workspaceID, "error", err)
		middleware.ErrorResponse(w, http.StatusBadGateway, "generation failed")
	case errors.Is(err, store.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Participant not found")
	default:
		slog.Error("failed to "+action, "workspace_id", workspaceID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
	}
}

// CombinedScores handles GET /workspaces/{id}/scores/combined
func (h *ResultsHandler) CombinedScores(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.loadWorkspace(w, r)
	if !ok {
		return
	}

	combined, err := h.Scoring.Combined(r.Context(), ws)
	if err != nil {
		slog.Error("failed to combine scores", "workspace_id", ws.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, combined)
}

// CohortPrompt handles GET /workspaces/{id}/results/cohort/prompt
// It shows the facilitator what the model would be asked.
func (h *ResultsHandler) CohortPrompt(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.loadWorkspace(w, r)
	if !ok {
		return
	}

	prompt, err := h.results.CohortPrompt(r.Context(), ws)
	if err != nil {
		slog.Error("failed to build cohort prompt", "workspace_id", ws.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, map[string]string{"prompt": prompt})
}

// GenerateCohort handles POST /workspaces/{id}/results/cohort
func (h *ResultsHandler) GenerateCohort(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.loadWorkspace(w, r)
	if !ok {
		return
	}

	stored, err := h.results.GenerateCohortResult(r.Context(), ws)
	if err != nil {
		generationError(w, err, ws.ID, "generate cohort result")
		return
	}

	slog.Info("cohort result generated", "workspace_id", ws.ID, "model", stored.Model)
	h.changed(r.Context(), ws.ID, realtime.EventResultsGenerated, map[string]string{"kind": "cohort"})
	middleware.JSONResponse(w, http.StatusCreated, stored)
}

// GetCohort handles GET /workspaces/{id}/results/cohort
func (h *ResultsHandler) GetCohort(w http.ResponseWriter, r *http.Request) {
	stored, err := h.Store.LatestCohortResult(r.Context(), r.PathValue("id"))
	if err != nil {
		storeError(w, err, "Cohort result", "query cohort result")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, stored)
}

// GenerateAllPersonalized handles POST /workspaces/{id}/results/personalized
// Individual failures are reported, not fatal.
func (h *ResultsHandler) GenerateAllPersonalized(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.loadWorkspace(w, r)
	if !ok {
		return
	}

	resp, err := h.results.GenerateAllPersonalized(r.Context(), ws)
	if err != nil {
		generationError(w, err, ws.ID, "generate personalized results")
		return
	}

	if resp.Succeeded > 0 {
		h.changed(r.Context(), ws.ID, realtime.EventResultsGenerated, map[string]string{"kind": "personalized"})
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// GenerateMine handles POST /workspaces/{id}/results/personalized/me
func (h *ResultsHandler) GenerateMine(w http.ResponseWriter, r *http.Request) {
	sess, ok := participantOf(w, r)
	if !ok {
		return
	}
	ws, ok := h.loadWorkspace(w, r)
	if !ok {
		return
	}

	stored, err := h.results.GeneratePersonalizedResult(r.Context(), ws, sess.ParticipantID)
	if err != nil {
		generationError(w, err, ws.ID, "generate personalized result")
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, stored)
}

// GetMine handles GET /workspaces/{id}/results/personalized/me
func (h *ResultsHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	sess, ok := participantOf(w, r)
	if !ok {
		return
	}

	stored, err := h.Store.LatestPersonalizedResult(r.Context(), sess.WorkspaceID, sess.ParticipantID)
	if err != nil {
		storeError(w, err, "Personalized result", "query personalized result")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, stored)
}

// ResultCounts handles GET /workspaces/{id}/results/counts
func (h *ResultsHandler) ResultCounts(w http.ResponseWriter, r *http.Request) {
	cohort, personalized, err := h.Store.CountResults(r.Context(), r.PathValue("id"))
	if err != nil {
		slog.Error("failed to count results", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, map[string]int{
		"cohort":       cohort,
		"personalized": personalized,
	})
}

// ExportCohort handles GET /workspaces/{id}/results/cohort/export?format=html|pdf
func (h *ResultsHandler) ExportCohort(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.loadWorkspace(w, r)
	if !ok {
		return
	}

	stored, err := h.Store.LatestCohortResult(r.Context(), ws.ID)
	if err != nil {
		storeError(w, err, "Cohort result", "query cohort result")
		return
	}
	combined, err := h.Scoring.Combined(r.Context(), ws)
	if err != nil {
		slog.Error("failed to combine scores", "workspace_id", ws.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	report, err := export.NewReport(ws, stored, combined, limit)
	if err != nil {
		slog.Error("failed to build report", "workspace_id", ws.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to build report")
		return
	}

	res, err := export.Export(r.Context(), export.Format(r.URL.Query().Get("format")), report)
	switch {
	case errors.Is(err, export.ErrUnsupportedFormat):
		middleware.ErrorResponse(w, http.StatusBadRequest, "format must be html or pdf")
		return
	case errors.Is(err, export.ErrPDFDependencyMissing):
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "PDF export is not available on this server")
		return
	case err != nil:
		slog.Error("failed to export report", "workspace_id", ws.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Export failed")
		return
	}

	w.Header().Set("Content-Type", res.MimeType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+res.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Data); err != nil {
		slog.Warn("failed to write export", "error", err)
	}
}
