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
	"github.com/danielhkuo/envision/results"
	"github.com/danielhkuo/envision/store"
)

type NoteHandler struct {
	Deps
	results *results.Service
}

func NewNoteHandler(d Deps, rs *results.Service) *NoteHandler {
	return &NoteHandler{Deps: d, results: rs}
}

// CreateCategory handles POST /workspaces/{id}/categories
func (h *NoteHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.loadWorkspace(w, r)
	if !ok {
		return
	}

	var req models.CreateCategoryRequest
	if !decode(w, r, &req) {
		return
	}

	c, err := h.Store.CreateCategory(r.Context(), ws.ID, strings.TrimSpace(req.Name), req.Color)
	if err != nil {
		storeError(w, err, "Category", "insert category")
		return
	}

	slog.Info("category created", "workspace_id", ws.ID, "category_id", c.ID)
	h.changed(r.Context(), ws.ID, realtime.EventNotesUpdated, map[string]string{"category_id": c.ID})
	middleware.JSONResponse(w, http.StatusCreated, c)
}

// ListCategories handles GET /workspaces/{id}/categories
func (h *NoteHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Store.ListCategories(r.Context(), r.PathValue("id"))
	if err != nil {
		slog.Error("failed to list categories", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, cats)
}

// categoryRef resolves an optional category id. An empty id means none.
func (h *NoteHandler) categoryRef(w http.ResponseWriter, r *http.Request, workspaceID string, id *string) (*string, bool) {
	if id == nil || *id == "" {
		return nil, true
	}
	if _, err := h.Store.GetCategory(r.Context(), workspaceID, *id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			middleware.ErrorResponse(w, http.StatusBadRequest, "category_id does not belong to this workspace")
			return nil, false
		}
		storeError(w, err, "Category", "query category")
		return nil, false
	}
	return id, true
}

// CreateNote handles POST /workspaces/{id}/notes
// Participants may add notes while the workspace is open; the facilitator
// may add them at any time before close.
func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.loadWorkspace(w, r)
	if !ok {
		return
	}
	sess, _ := middleware.SessionFromContext(r.Context())

	switch {
	case ws.Status == models.StatusClosed:
		middleware.ErrorResponse(w, http.StatusConflict, "Workspace is closed")
		return
	case !sess.IsFacilitator() && !requireOpen(w, ws):
		return
	}

	var req models.CreateNoteRequest
	if !decode(w, r, &req) {
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "content is required")
		return
	}
	hidden, err := parseModules("note", req.HiddenModules)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	categoryID, ok := h.categoryRef(w, r, ws.ID, req.CategoryID)
	if !ok {
		return
	}

	n := models.Note{
		WorkspaceID:   ws.ID,
		Content:       content,
		CategoryID:    categoryID,
		Source:        models.SourceFacilitator,
		HiddenModules: hidden,
	}
	if !sess.IsFacilitator() {
		n.Source = models.SourceParticipant
		n.AuthorID = &sess.ParticipantID
	}

	n, err = h.Store.CreateNote(r.Context(), n)
	if err != nil {
		slog.Error("failed to insert note", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create note")
		return
	}

	slog.Info("note created", "workspace_id", ws.ID, "note_id", n.ID, "source", n.Source)
	h.changed(r.Context(), ws.ID, realtime.EventNotesUpdated, map[string]string{"note_id": n.ID})
	middleware.JSONResponse(w, http.StatusCreated, n)
}

// ListNotes handles GET /workspaces/{id}/notes
// ?module=<kind> returns only the notes visible in that module.
func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	workspaceID := r.PathValue("id")

	var (
		notes []models.Note
		err   error
	)
	if m := r.URL.Query().Get("module"); m != "" {
		kind := ranking.ModuleKind(m)
		if !kind.Valid() {
			middleware.ErrorResponse(w, http.StatusBadRequest, "unknown module "+m)
			return
		}
		notes, err = h.Store.ListNotesFor(r.Context(), workspaceID, kind)
	} else {
		notes, err = h.Store.ListNotes(r.Context(), workspaceID)
	}
	if err != nil {
		slog.Error("failed to list notes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, notes)
}

// editableNote loads {noteId} and checks the caller may change it:
// the facilitator always, a participant only for notes they wrote.
func (h *NoteHandler) editableNote(w http.ResponseWriter, r *http.Request) (models.Note, bool) {
	n, err := h.Store.GetNote(r.Context(), r.PathValue("id"), r.PathValue("noteId"))
	if err != nil {
		storeError(w, err, "Note", "query note")
		return models.Note{}, false
	}
	sess, _ := middleware.SessionFromContext(r.Context())
	if !sess.IsFacilitator() && (n.AuthorID == nil || *n.AuthorID != sess.ParticipantID) {
		middleware.ErrorResponse(w, http.StatusForbidden, "Only the author or facilitator can change this note")
		return models.Note{}, false
	}
	return n, true
}

// UpdateNote handles PATCH /workspaces/{id}/notes/{noteId}
func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	n, ok := h.editableNote(w, r)
	if !ok {
		return
	}

	var req models.UpdateNoteRequest
	if !decode(w, r, &req) {
		return
	}

	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		if content == "" {
			middleware.ErrorResponse(w, http.StatusBadRequest, "content cannot be empty")
			return
		}
		n.Content = content
	}
	if req.CategoryID != nil {
		categoryID, ok := h.categoryRef(w, r, n.WorkspaceID, req.CategoryID)
		if !ok {
			return
		}
		n.CategoryID = categoryID
	}
	if req.HiddenModules != nil {
		hidden, err := parseModules("note", *req.HiddenModules)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		n.HiddenModules = hidden
	}

	n, err := h.Store.UpdateNote(r.Context(), n)
	if err != nil {
		storeError(w, err, "Note", "update note")
		return
	}

	h.changed(r.Context(), n.WorkspaceID, realtime.EventNotesUpdated, map[string]string{"note_id": n.ID})
	middleware.JSONResponse(w, http.StatusOK, n)
}

// DeleteNote handles DELETE /workspaces/{id}/notes/{noteId}
func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	n, ok := h.editableNote(w, r)
	if !ok {
		return
	}

	if err := h.Store.DeleteNote(r.Context(), n.WorkspaceID, n.ID); err != nil {
		storeError(w, err, "Note", "delete note")
		return
	}

	slog.Info("note deleted", "workspace_id", n.WorkspaceID, "note_id", n.ID)
	h.changed(r.Context(), n.WorkspaceID, realtime.EventNotesUpdated, map[string]string{"note_id": n.ID})
	w.WriteHeader(http.StatusNoContent)
}

// ImportNotes handles POST /workspaces/{id}/notes/import
// The batch is all or nothing: one malformed row rejects every row.
func (h *NoteHandler) ImportNotes(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.loadWorkspace(w, r)
	if !ok {
		return
	}
	if ws.Status == models.StatusClosed {
		middleware.ErrorResponse(w, http.StatusConflict, "Workspace is closed")
		return
	}

	var req models.ImportNotesRequest
	if !decode(w, r, &req) {
		return
	}
	ve := ranking.NewValidationError("import")
	for i, in := range req.Notes {
		if strings.TrimSpace(in.Content) == "" {
			ve.AddError("notes[%d].content is blank", i)
		}
	}
	if ve.HasErrors() {
		middleware.ErrorResponse(w, http.StatusBadRequest, ve.Error())
		return
	}

	imported, created, err := h.Store.ImportNotes(r.Context(), ws.ID, req.Notes)
	if err != nil {
		slog.Error("failed to import notes", "workspace_id", ws.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("notes imported", "workspace_id", ws.ID, "imported", imported, "categories_created", created)
	h.changed(r.Context(), ws.ID, realtime.EventNotesUpdated, map[string]int{"imported": imported})
	middleware.JSONResponse(w, http.StatusCreated, models.ImportNotesResponse{
		Imported:          imported,
		CategoriesCreated: created,
	})
}

// Categorize handles POST /workspaces/{id}/categorize
func (h *NoteHandler) Categorize(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.loadWorkspace(w, r)
	if !ok {
		return
	}

	resp, err := h.results.Categorize(r.Context(), ws)
	if err != nil {
		generationError(w, err, ws.ID, "categorize notes")
		return
	}

	slog.Info("notes categorized", "workspace_id", ws.ID, "assigned", resp.Assigned)
	if resp.Assigned > 0 {
		h.changed(r.Context(), ws.ID, realtime.EventNotesUpdated, resp)
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// participantOf rejects sessions without a participant.
func participantOf(w http.ResponseWriter, r *http.Request) (auth.Session, bool) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok || sess.ParticipantID == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Missing participant token")
		return auth.Session{}, false
	}
	return sess, true
}
