// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/envision/auth"
	"github.com/danielhkuo/envision/middleware"
	"github.com/danielhkuo/envision/models"
	"github.com/danielhkuo/envision/ranking"
	"github.com/danielhkuo/envision/realtime"
	"github.com/danielhkuo/envision/store"
)

type WorkspaceHandler struct {
	Deps
}

func NewWorkspaceHandler(d Deps) *WorkspaceHandler {
	return &WorkspaceHandler{Deps: d}
}

// parseModules converts requested module names, rejecting unknown ones.
func parseModules(entity string, names []string) ([]ranking.ModuleKind, error) {
	ve := ranking.NewValidationError(entity)
	requested := make([]string, 0, len(names))
	for _, name := range names {
		k := ranking.ModuleKind(strings.TrimSpace(name))
		if !k.Valid() {
			ve.AddError("unknown module %q", name)
			continue
		}
		requested = append(requested, string(k))
	}
	if ve.HasErrors() {
		return nil, ve
	}
	return ranking.ParseModules(strings.Join(requested, ",")), nil
}

func validateStaircaseRange(min, max float64) error {
	if min >= max {
		ve := ranking.NewValidationError("workspace")
		ve.AddError("staircase_min (%g) must be below staircase_max (%g)", min, max)
		return ve
	}
	return nil
}

// CreateOrganization handles POST /organizations
func (h *WorkspaceHandler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrganizationRequest
	if !decode(w, r, &req) {
		return
	}

	org, err := h.Store.CreateOrganization(r.Context(), strings.TrimSpace(req.Name))
	if err != nil {
		slog.Error("failed to insert organization", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create organization")
		return
	}

	slog.Info("organization created", "organization_id", org.ID)
	middleware.JSONResponse(w, http.StatusCreated, models.CreateOrganizationResponse{OrganizationID: org.ID})
}

// ListOrganizationWorkspaces handles GET /organizations/{id}/workspaces
func (h *WorkspaceHandler) ListOrganizationWorkspaces(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("id")
	if _, err := h.Store.GetOrganization(r.Context(), orgID); err != nil {
		storeError(w, err, "Organization", "query organization")
		return
	}

	list, err := h.Store.ListWorkspaces(r.Context(), orgID)
	if err != nil {
		slog.Error("failed to list workspaces", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, list)
}

// CreateWorkspace handles POST /workspaces
func (h *WorkspaceHandler) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	var req models.CreateWorkspaceRequest
	if !decode(w, r, &req) {
		return
	}

	ws := models.Workspace{
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		FacilitatorName: strings.TrimSpace(req.FacilitatorName),
		Modules:         models.DefaultModules,
		PairwiseScope:   ranking.ScopeAll,
		CoinBudget:      models.DefaultCoinBudget,
		StaircaseMin:    models.DefaultStaircaseMin,
		StaircaseMax:    models.DefaultStaircaseMax,
	}
	if req.Modules != nil {
		mods, err := parseModules("workspace", req.Modules)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		ws.Modules = mods
	}
	if req.PairwiseScope != "" {
		ws.PairwiseScope = ranking.PairwiseScope(req.PairwiseScope)
	}
	if req.CoinBudget != nil {
		ws.CoinBudget = *req.CoinBudget
	}
	if req.StaircaseMin != nil {
		ws.StaircaseMin = *req.StaircaseMin
	}
	if req.StaircaseMax != nil {
		ws.StaircaseMax = *req.StaircaseMax
	}
	if err := validateStaircaseRange(ws.StaircaseMin, ws.StaircaseMax); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.OrganizationID != "" {
		if _, err := h.Store.GetOrganization(r.Context(), req.OrganizationID); err != nil {
			storeError(w, err, "Organization", "query organization")
			return
		}
		ws.OrganizationID = &req.OrganizationID
	}

	ws, err := h.Store.CreateWorkspace(r.Context(), ws)
	if err != nil {
		slog.Error("failed to insert workspace", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create workspace")
		return
	}

	slog.Info("workspace created", "workspace_id", ws.ID, "facilitator", ws.FacilitatorName)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateWorkspaceResponse{
		WorkspaceID: ws.ID,
		AdminKey:    auth.GenerateAdminKey(ws.ID, h.Config.AdminKeySalt),
	})
}

// GetWorkspace handles GET /workspaces/{id}
func (h *WorkspaceHandler) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.loadWorkspace(w, r)
	if !ok {
		return
	}
	middleware.JSONResponse(w, http.StatusOK, ws)
}

// UpdateSettings handles PATCH /workspaces/{id}/settings
func (h *WorkspaceHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.loadWorkspace(w, r)
	if !ok {
		return
	}
	if ws.Status == models.StatusClosed {
		middleware.ErrorResponse(w, http.StatusConflict, "Cannot change settings of a closed workspace")
		return
	}

	var req models.UpdateSettingsRequest
	if !decode(w, r, &req) {
		return
	}

	if req.Modules != nil {
		mods, err := parseModules("workspace", *req.Modules)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		ws.Modules = mods
	}
	if req.PairwiseScope != nil {
		ws.PairwiseScope = ranking.PairwiseScope(*req.PairwiseScope)
	}
	if req.CoinBudget != nil {
		ws.CoinBudget = *req.CoinBudget
	}
	if req.StaircaseMin != nil {
		ws.StaircaseMin = *req.StaircaseMin
	}
	if req.StaircaseMax != nil {
		ws.StaircaseMax = *req.StaircaseMax
	}
	if err := validateStaircaseRange(ws.StaircaseMin, ws.StaircaseMax); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Store.UpdateWorkspaceSettings(r.Context(), ws); err != nil {
		storeError(w, err, "Workspace", "update workspace settings")
		return
	}

	slog.Info("workspace settings updated", "workspace_id", ws.ID, "modules", ranking.FormatModules(ws.Modules))
	h.changed(r.Context(), ws.ID, realtime.EventWorkspaceUpdated, ws)
	middleware.JSONResponse(w, http.StatusOK, ws)
}

// PublishWorkspace handles POST /workspaces/{id}/publish
func (h *WorkspaceHandler) PublishWorkspace(w http.ResponseWriter, r *http.Request) {
	workspaceID := r.PathValue("id")
	joinCode := auth.GenerateJoinCode(workspaceID, h.Config.JoinCodeSalt)

	err := h.Store.PublishWorkspace(r.Context(), workspaceID, joinCode)
	if errors.Is(err, store.ErrConflict) {
		middleware.ErrorResponse(w, http.StatusConflict, "Workspace is not in draft status")
		return
	}
	if err != nil {
		storeError(w, err, "Workspace", "publish workspace")
		return
	}

	slog.Info("workspace published", "workspace_id", workspaceID, "join_code", joinCode)
	h.changed(r.Context(), workspaceID, realtime.EventWorkspaceUpdated, map[string]string{"status": models.StatusOpen})

	middleware.JSONResponse(w, http.StatusOK, models.PublishWorkspaceResponse{
		JoinCode: joinCode,
		JoinURL:  "/join/" + joinCode,
	})
}

// CloseWorkspace handles POST /workspaces/{id}/close
func (h *WorkspaceHandler) CloseWorkspace(w http.ResponseWriter, r *http.Request) {
	workspaceID := r.PathValue("id")

	closedAt, err := h.Store.CloseWorkspace(r.Context(), workspaceID)
	if errors.Is(err, store.ErrConflict) {
		middleware.ErrorResponse(w, http.StatusConflict, "Workspace is not open")
		return
	}
	if err != nil {
		storeError(w, err, "Workspace", "close workspace")
		return
	}

	slog.Info("workspace closed", "workspace_id", workspaceID)
	h.changed(r.Context(), workspaceID, realtime.EventWorkspaceUpdated, map[string]string{"status": models.StatusClosed})
	middleware.JSONResponse(w, http.StatusOK, models.CloseWorkspaceResponse{ClosedAt: closedAt})
}

// JoinWorkspace handles POST /workspaces/{code}/join
func (h *WorkspaceHandler) JoinWorkspace(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	var req models.JoinWorkspaceRequest
	if !decode(w, r, &req) {
		return
	}

	ws, err := h.Store.GetWorkspaceByJoinCode(r.Context(), code)
	if err != nil {
		storeError(w, err, "Workspace", "query workspace by join code")
		return
	}
	if !requireOpen(w, ws) {
		return
	}

	p, err := h.Store.CreateParticipant(r.Context(), ws.ID, strings.TrimSpace(req.DisplayName))
	if errors.Is(err, store.ErrConflict) {
		middleware.ErrorResponse(w, http.StatusConflict, "Display name already taken")
		return
	}
	if err != nil {
		slog.Error("failed to insert participant", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to join workspace")
		return
	}

	slog.Info("participant joined", "workspace_id", ws.ID, "participant_id", p.ID)
	h.changed(r.Context(), ws.ID, realtime.EventParticipantJoined, map[string]string{
		"participant_id": p.ID,
		"display_name":   p.DisplayName,
	})

	middleware.JSONResponse(w, http.StatusCreated, models.JoinWorkspaceResponse{
		WorkspaceID:      ws.ID,
		ParticipantID:    p.ID,
		ParticipantToken: p.Token,
	})
}

// ListParticipants handles GET /workspaces/{id}/participants
func (h *WorkspaceHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListParticipants(r.Context(), r.PathValue("id"))
	if err != nil {
		slog.Error("failed to list participants", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, list)
}
