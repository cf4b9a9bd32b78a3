// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/envision/auth"
	"github.com/danielhkuo/envision/middleware"
	"github.com/danielhkuo/envision/models"
	"github.com/danielhkuo/envision/ranking"
	"github.com/danielhkuo/envision/realtime"
)

// VotingHandler serves the pairwise, stack ranking and marketplace modules.
type VotingHandler struct {
	Deps
}

func NewVotingHandler(d Deps) *VotingHandler {
	return &VotingHandler{Deps: d}
}

// submissionError maps a validation or database failure of a submission.
func submissionError(w http.ResponseWriter, err error, action string) {
	if ranking.IsValidationError(err) {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	slog.Error("failed to "+action, "error", err)
	middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
}

// NextPair handles GET /workspaces/{id}/pairwise/next
func (h *VotingHandler) NextPair(w http.ResponseWriter, r *http.Request) {
	sess, ok := participantOf(w, r)
	if !ok {
		return
	}
	ws, ok := h.loadWorkspace(w, r)
	if !ok || !requireModule(w, ws, ranking.ModulePairwise) {
		return
	}

	resp, err := h.Scoring.NextPair(r.Context(), ws, sess)
	if errors.Is(err, auth.ErrInvalidToken) {
		middleware.ErrorResponse(w, http.StatusForbidden, "Token does not belong to this workspace")
		return
	}
	if err != nil {
		slog.Error("failed to select next pair", "workspace_id", ws.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// CastVote handles POST /votes
// The workspace comes from the participant token.
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	sess, ok := participantOf(w, r)
	if !ok {
		return
	}
	ws, ok := h.sessionWorkspace(w, r)
	if !ok || !requireOpen(w, ws) || !requireModule(w, ws, ranking.ModulePairwise) {
		return
	}

	var req models.CastVoteRequest
	if !decode(w, r, &req) {
		return
	}
	if req.WinnerNoteID == req.LoserNoteID {
		middleware.ErrorResponse(w, http.StatusBadRequest, "winner and loser must be different notes")
		return
	}

	allowed, err := h.Scoring.IsCandidatePair(r.Context(), ws, req.WinnerNoteID, req.LoserNoteID)
	if err != nil {
		slog.Error("failed to check pair", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !allowed {
		middleware.ErrorResponse(w, http.StatusBadRequest, "notes are not a valid pair in this workspace")
		return
	}

	vote, err := h.Store.CreateVote(r.Context(), models.Vote{
		WorkspaceID:   ws.ID,
		ParticipantID: sess.ParticipantID,
		WinnerNoteID:  req.WinnerNoteID,
		LoserNoteID:   req.LoserNoteID,
	})
	if err != nil {
		slog.Error("failed to insert vote", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}

	slog.Info("vote recorded", "workspace_id", ws.ID, "participant_id", sess.ParticipantID)
	h.changed(r.Context(), ws.ID, realtime.EventVoteRecorded, map[string]string{"participant_id": sess.ParticipantID})

	next, err := h.Scoring.NextPair(r.Context(), ws, sess)
	if err != nil {
		slog.Error("failed to select next pair", "workspace_id", ws.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, models.CastVoteResponse{VoteID: vote.ID, Next: next})
}

// Leaderboard handles GET /workspaces/{id}/pairwise/leaderboard
func (h *VotingHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.loadWorkspace(w, r)
	if !ok {
		return
	}

	board, err := h.Scoring.Leaderboard(r.Context(), ws)
	if err != nil {
		slog.Error("failed to compute leaderboard", "workspace_id", ws.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, board)
}

// SubmitRankings handles POST /rankings/bulk
// A submission replaces the participant's previous ranking.
func (h *VotingHandler) SubmitRankings(w http.ResponseWriter, r *http.Request) {
	sess, ok := participantOf(w, r)
	if !ok {
		return
	}
	ws, ok := h.sessionWorkspace(w, r)
	if !ok || !requireOpen(w, ws) || !requireModule(w, ws, ranking.ModuleStackRanking) {
		return
	}

	var req models.BulkRankingRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.Scoring.ValidateRanking(r.Context(), ws, req.Rankings); err != nil {
		submissionError(w, err, "validate ranking")
		return
	}
	if err := h.Store.ReplaceRankings(r.Context(), ws.ID, sess.ParticipantID, req.Rankings); err != nil {
		slog.Error("failed to store ranking", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save ranking")
		return
	}

	slog.Info("ranking submitted", "workspace_id", ws.ID, "participant_id", sess.ParticipantID, "notes", len(req.Rankings))
	h.changed(r.Context(), ws.ID, realtime.EventRankingSubmitted, map[string]string{"participant_id": sess.ParticipantID})
	middleware.JSONResponse(w, http.StatusOK, models.SubmissionResponse{
		Saved:   len(req.Rankings),
		Message: fmt.Sprintf("Saved ranking of %d notes", len(req.Rankings)),
	})
}

// RankingScores handles GET /workspaces/{id}/rankings/scores
func (h *VotingHandler) RankingScores(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.loadWorkspace(w, r)
	if !ok {
		return
	}

	scores, err := h.Scoring.BordaScores(r.Context(), ws)
	if err != nil {
		slog.Error("failed to compute borda scores", "workspace_id", ws.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, scores)
}

// RankingProgress handles GET /workspaces/{id}/rankings/progress
func (h *VotingHandler) RankingProgress(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.loadWorkspace(w, r)
	if !ok {
		return
	}

	progress, err := h.Scoring.RankingProgress(r.Context(), ws)
	if err != nil {
		slog.Error("failed to compute ranking progress", "workspace_id", ws.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, progress)
}

// MyRanking handles GET /workspaces/{id}/rankings/mine
func (h *VotingHandler) MyRanking(w http.ResponseWriter, r *http.Request) {
	sess, ok := participantOf(w, r)
	if !ok {
		return
	}

	rows, err := h.Store.ListParticipantRankings(r.Context(), sess.WorkspaceID, sess.ParticipantID)
	if err != nil {
		slog.Error("failed to query ranking", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	entries := make([]ranking.RankEntry, len(rows))
	for i, row := range rows {
		entries[i] = ranking.RankEntry{NoteID: row.NoteID, Rank: row.Rank}
	}
	middleware.JSONResponse(w, http.StatusOK, entries)
}

// SubmitAllocations handles POST /marketplace-allocations/bulk
// Submissions over the coin budget are rejected, never stored.
func (h *VotingHandler) SubmitAllocations(w http.ResponseWriter, r *http.Request) {
	sess, ok := participantOf(w, r)
	if !ok {
		return
	}
	ws, ok := h.sessionWorkspace(w, r)
	if !ok || !requireOpen(w, ws) || !requireModule(w, ws, ranking.ModuleMarketplace) {
		return
	}

	var req models.BulkAllocationRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.Scoring.ValidateAllocation(r.Context(), ws, req.Allocations); err != nil {
		submissionError(w, err, "validate allocation")
		return
	}
	if err := h.Store.ReplaceAllocations(r.Context(), ws.ID, sess.ParticipantID, req.Allocations); err != nil {
		slog.Error("failed to store allocation", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save allocation")
		return
	}

	spent := 0
	for _, a := range req.Allocations {
		spent += a.Coins
	}
	slog.Info("marketplace allocation saved", "workspace_id", ws.ID, "participant_id", sess.ParticipantID, "coins", spent)
	h.changed(r.Context(), ws.ID, realtime.EventMarketplaceUpdated, map[string]string{"participant_id": sess.ParticipantID})
	middleware.JSONResponse(w, http.StatusOK, models.SubmissionResponse{
		Saved:   len(req.Allocations),
		Message: fmt.Sprintf("Allocated %d of %d coins", spent, ws.CoinBudget),
	})
}

// MarketplaceTotals handles GET /workspaces/{id}/marketplace/totals
func (h *VotingHandler) MarketplaceTotals(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.loadWorkspace(w, r)
	if !ok {
		return
	}

	totals, err := h.Scoring.MarketplaceTotals(r.Context(), ws)
	if err != nil {
		slog.Error("failed to compute marketplace totals", "workspace_id", ws.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, totals)
}
