// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/envision/middleware"
	"github.com/danielhkuo/envision/realtime"
)

// RealtimeHandler upgrades workspace members to a websocket event stream.
type RealtimeHandler struct {
	hub *realtime.Hub
}

func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// Subscribe handles GET /workspaces/{id}/ws
func (h *RealtimeHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Missing credentials")
		return
	}

	slog.Info("websocket subscribe", "workspace_id", sess.WorkspaceID, "role", sess.Role)
	h.hub.ServeWS(w, r, sess.WorkspaceID)
}
