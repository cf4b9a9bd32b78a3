// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/envision/cliparse"
	"github.com/danielhkuo/envision/middleware"
	"github.com/danielhkuo/envision/models"
	"github.com/danielhkuo/envision/ranking"
	"github.com/danielhkuo/envision/realtime"
	"github.com/danielhkuo/envision/scoring"
	"github.com/danielhkuo/envision/store"
)

// Deps holds what every handler needs. Events may be nil.
type Deps struct {
	Store   *store.Store
	Config  cliparse.Config
	Scoring *scoring.Service
	Events  realtime.Publisher
}

// loadWorkspace fetches the {id} workspace, writing 404 or 500 on failure.
func (d Deps) loadWorkspace(w http.ResponseWriter, r *http.Request) (models.Workspace, bool) {
	ws, err := d.Store.GetWorkspace(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Workspace not found")
		return models.Workspace{}, false
	}
	if err != nil {
		slog.Error("failed to query workspace", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return models.Workspace{}, false
	}
	return ws, true
}

// sessionWorkspace loads the workspace of the participant session.
func (d Deps) sessionWorkspace(w http.ResponseWriter, r *http.Request) (models.Workspace, bool) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Missing participant token")
		return models.Workspace{}, false
	}
	ws, err := d.Store.GetWorkspace(r.Context(), sess.WorkspaceID)
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Workspace not found")
		return models.Workspace{}, false
	}
	if err != nil {
		slog.Error("failed to query workspace", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return models.Workspace{}, false
	}
	return ws, true
}

// requireOpen rejects submissions to draft or closed workspaces.
func requireOpen(w http.ResponseWriter, ws models.Workspace) bool {
	if ws.Status != models.StatusOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Workspace is not open")
		return false
	}
	return true
}

// requireModule rejects calls for modules the workspace has not enabled.
func requireModule(w http.ResponseWriter, ws models.Workspace, kind ranking.ModuleKind) bool {
	if !ws.ModuleEnabled(kind) {
		middleware.ErrorResponse(w, http.StatusConflict, "Module "+string(kind)+" is not enabled")
		return false
	}
	return true
}

// decode parses and validates a request body, writing 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := middleware.DecodeAndValidate(r, v)
	if err == nil {
		return true
	}
	if ranking.IsValidationError(err) {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return false
	}
	middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
	return false
}

// storeError maps store sentinels to responses. what names the entity in
// the 404 message.
func storeError(w http.ResponseWriter, err error, what, action string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, store.ErrConflict):
		middleware.ErrorResponse(w, http.StatusConflict, what+" already exists")
	case ranking.IsValidationError(err):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("failed to "+action, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
	}
}

// changed drops cached scores and tells connected clients to refetch.
// Event delivery is best effort.
func (d Deps) changed(ctx context.Context, workspaceID, eventType string, payload any) {
	d.Scoring.Invalidate(ctx, workspaceID)
	if d.Events == nil {
		return
	}
	ev, err := realtime.NewEvent(eventType, workspaceID, payload)
	if err != nil {
		slog.Warn("failed to build event", "type", eventType, "error", err)
		return
	}
	d.Events.Publish(ctx, ev)
}
