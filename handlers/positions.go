// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/envision/middleware"
	"github.com/danielhkuo/envision/models"
	"github.com/danielhkuo/envision/ranking"
	"github.com/danielhkuo/envision/realtime"
	"github.com/danielhkuo/envision/store"
)

// PositionHandler serves the priority matrix, staircase and survey modules.
type PositionHandler struct {
	Deps
}

func NewPositionHandler(d Deps) *PositionHandler {
	return &PositionHandler{Deps: d}
}

// placeable checks that the module is enabled, the workspace is not closed,
// and noteID is a note shown in the module.
func (h *PositionHandler) placeable(w http.ResponseWriter, r *http.Request, ws models.Workspace, kind ranking.ModuleKind, noteID string) bool {
	if !requireModule(w, ws, kind) {
		return false
	}
	if ws.Status == models.StatusClosed {
		middleware.ErrorResponse(w, http.StatusConflict, "Workspace is closed")
		return false
	}
	n, err := h.Store.GetNote(r.Context(), ws.ID, noteID)
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "note_id does not belong to this workspace")
		return false
	}
	if err != nil {
		slog.Error("failed to query note", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return false
	}
	if !n.VisibleIn(kind) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "note is hidden in "+string(kind))
		return false
	}
	return true
}

// PutMatrixPosition handles PUT /workspaces/{id}/priority-matrix/positions
func (h *PositionHandler) PutMatrixPosition(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.loadWorkspace(w, r)
	if !ok {
		return
	}

	var req models.MatrixPositionRequest
	if !decode(w, r, &req) {
		return
	}
	if !h.placeable(w, r, ws, ranking.ModulePriorityMatrix, req.NoteID) {
		return
	}

	p, err := h.Store.UpsertMatrixPosition(r.Context(), ws.ID, models.MatrixPosition{
		NoteID: req.NoteID,
		RunID:  req.RunID,
		X:      req.X,
		Y:      req.Y,
	})
	if err != nil {
		slog.Error("failed to store matrix position", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	h.changed(r.Context(), ws.ID, realtime.EventMatrixPositionUpdated, p)
	middleware.JSONResponse(w, http.StatusOK, p)
}

// ListMatrixPositions handles GET /workspaces/{id}/priority-matrix/positions
func (h *PositionHandler) ListMatrixPositions(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListMatrixPositions(r.Context(), r.PathValue("id"))
	if err != nil {
		slog.Error("failed to list matrix positions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, list)
}

// PostStaircasePosition handles POST /workspaces/{id}/staircase-positions
func (h *PositionHandler) PostStaircasePosition(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.loadWorkspace(w, r)
	if !ok {
		return
	}

	var req models.StaircasePositionRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Score < ws.StaircaseMin || req.Score > ws.StaircaseMax {
		middleware.ErrorResponse(w, http.StatusBadRequest,
			fmt.Sprintf("score must be between %g and %g", ws.StaircaseMin, ws.StaircaseMax))
		return
	}
	if !h.placeable(w, r, ws, ranking.ModuleStaircase, req.NoteID) {
		return
	}

	p, err := h.Store.UpsertStaircasePosition(r.Context(), ws.ID, models.StaircasePosition{
		NoteID:     req.NoteID,
		RunID:      req.RunID,
		Score:      req.Score,
		SlotOffset: req.SlotOffset,
	})
	if err != nil {
		slog.Error("failed to store staircase position", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	h.changed(r.Context(), ws.ID, realtime.EventStaircasePositionUpdated, p)
	middleware.JSONResponse(w, http.StatusOK, p)
}

// ListStaircasePositions handles GET /workspaces/{id}/staircase-positions
func (h *PositionHandler) ListStaircasePositions(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListStaircasePositions(r.Context(), r.PathValue("id"))
	if err != nil {
		slog.Error("failed to list staircase positions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, list)
}

// CreateSurveyQuestion handles POST /workspaces/{id}/survey/questions
func (h *PositionHandler) CreateSurveyQuestion(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.loadWorkspace(w, r)
	if !ok {
		return
	}

	var req models.CreateSurveyQuestionRequest
	if !decode(w, r, &req) {
		return
	}

	q, err := h.Store.CreateSurveyQuestion(r.Context(), ws.ID, strings.TrimSpace(req.Prompt))
	if err != nil {
		slog.Error("failed to insert survey question", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, q)
}

// ListSurveyQuestions handles GET /workspaces/{id}/survey/questions
func (h *PositionHandler) ListSurveyQuestions(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListSurveyQuestions(r.Context(), r.PathValue("id"))
	if err != nil {
		slog.Error("failed to list survey questions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, list)
}

// SubmitSurveyResponses handles POST /workspaces/{id}/survey-responses
// Answers replace the participant's earlier answers for the same notes.
func (h *PositionHandler) SubmitSurveyResponses(w http.ResponseWriter, r *http.Request) {
	sess, ok := participantOf(w, r)
	if !ok {
		return
	}
	ws, ok := h.loadWorkspace(w, r)
	if !ok || !requireOpen(w, ws) || !requireModule(w, ws, ranking.ModuleSurvey) {
		return
	}

	var req models.SurveyResponsesRequest
	if !decode(w, r, &req) {
		return
	}

	notes, err := h.Store.ListNotesFor(r.Context(), ws.ID, ranking.ModuleSurvey)
	if err != nil {
		slog.Error("failed to list notes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	questions, err := h.Store.ListSurveyQuestions(r.Context(), ws.ID)
	if err != nil {
		slog.Error("failed to list survey questions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	knownNote := make(map[string]bool, len(notes))
	for _, n := range notes {
		knownNote[n.ID] = true
	}
	knownQuestion := make(map[string]bool, len(questions))
	for _, q := range questions {
		knownQuestion[q.ID] = true
	}
	ve := ranking.NewValidationError("survey response")
	for i, a := range req.Responses {
		if !knownNote[a.NoteID] {
			ve.AddError("responses[%d]: unknown note %s", i, a.NoteID)
		}
		if !knownQuestion[a.QuestionID] {
			ve.AddError("responses[%d]: unknown question %s", i, a.QuestionID)
		}
	}
	if ve.HasErrors() {
		middleware.ErrorResponse(w, http.StatusBadRequest, ve.Error())
		return
	}

	if err := h.Store.ReplaceSurveyResponses(r.Context(), ws.ID, sess.ParticipantID, req.Responses); err != nil {
		slog.Error("failed to store survey responses", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save survey responses")
		return
	}

	h.changed(r.Context(), ws.ID, realtime.EventSurveyResponseRecorded, map[string]string{"participant_id": sess.ParticipantID})
	middleware.JSONResponse(w, http.StatusOK, models.SubmissionResponse{
		Saved:   len(req.Responses),
		Message: fmt.Sprintf("Saved %d survey responses", len(req.Responses)),
	})
}

// SurveySummary handles GET /workspaces/{id}/survey/summary
func (h *PositionHandler) SurveySummary(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.loadWorkspace(w, r)
	if !ok {
		return
	}

	summary, err := h.Scoring.SurveySummary(r.Context(), ws)
	if err != nil {
		slog.Error("failed to compute survey summary", "workspace_id", ws.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, summary)
}
