// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/envision/models"
	"github.com/danielhkuo/envision/ranking"
	"github.com/danielhkuo/envision/realtime"
	"github.com/danielhkuo/envision/store"
	"github.com/danielhkuo/envision/testutil"
)

func TestCreateNote(t *testing.T) {
	env := newTestEnv(t)
	h := NewNoteHandler(env.deps, env.rs)

	open, _ := testutil.CreateTestWorkspace(t, env.st, env.cfg, models.StatusOpen)
	draft, _ := testutil.CreateTestWorkspace(t, env.st, env.cfg, models.StatusDraft)
	closed, _ := testutil.CreateTestWorkspace(t, env.st, env.cfg, models.StatusClosed)
	alice := testutil.AddTestParticipant(t, env.st, open.ID, "alice")
	cat := testutil.AddTestCategory(t, env.st, open.ID, "Transit")
	otherCat := testutil.AddTestCategory(t, env.st, draft.ID, "Elsewhere")

	t.Run("facilitator in draft", func(t *testing.T) {
		req := asFacilitator(testutil.MakeRequest("POST", "/workspaces/"+draft.ID+"/notes",
			models.CreateNoteRequest{Content: "  Seeded idea  "}, nil), draft.ID)
		w := httptest.NewRecorder()
		h.CreateNote(w, req)
		testutil.AssertStatus(t, w, http.StatusCreated)

		var n models.Note
		testutil.AssertJSON(t, w, &n)
		if n.Content != "Seeded idea" {
			t.Errorf("Expected trimmed content, got %q", n.Content)
		}
		if n.Source != models.SourceFacilitator || n.AuthorID != nil {
			t.Errorf("Expected facilitator note without author, got %+v", n)
		}
	})

	t.Run("participant in open workspace", func(t *testing.T) {
		client := env.hub.NewClient(open.ID)
		defer env.hub.CloseClient(client)

		req := asParticipant(testutil.MakeRequest("POST", "/workspaces/"+open.ID+"/notes",
			models.CreateNoteRequest{
				Content:       "Bike lanes",
				CategoryID:    &cat.ID,
				HiddenModules: []string{"survey"},
			}, nil), alice)
		w := httptest.NewRecorder()
		h.CreateNote(w, req)
		testutil.AssertStatus(t, w, http.StatusCreated)

		var n models.Note
		testutil.AssertJSON(t, w, &n)
		if n.Source != models.SourceParticipant {
			t.Errorf("Expected participant source, got %s", n.Source)
		}
		if n.AuthorID == nil || *n.AuthorID != alice.ID {
			t.Errorf("Expected author %s, got %v", alice.ID, n.AuthorID)
		}
		if n.CategoryID == nil || *n.CategoryID != cat.ID {
			t.Errorf("Expected category %s, got %v", cat.ID, n.CategoryID)
		}
		if n.VisibleIn(ranking.ModuleSurvey) {
			t.Error("Note should be hidden from the survey")
		}
		if ev := nextEvent(t, client); ev.Type != realtime.EventNotesUpdated {
			t.Errorf("Expected notes_updated event, got %s", ev.Type)
		}
	})

	draftParticipant := testutil.AddTestParticipant(t, env.st, draft.ID, "early")

	testCases := []struct {
		name           string
		req            *http.Request
		expectedStatus int
	}{
		{
			name: "participant in draft",
			req: asParticipant(testutil.MakeRequest("POST", "/workspaces/"+draft.ID+"/notes",
				models.CreateNoteRequest{Content: "Too early"}, nil), draftParticipant),
			expectedStatus: http.StatusConflict,
		},
		{
			name: "facilitator after close",
			req: asFacilitator(testutil.MakeRequest("POST", "/workspaces/"+closed.ID+"/notes",
				models.CreateNoteRequest{Content: "Too late"}, nil), closed.ID),
			expectedStatus: http.StatusConflict,
		},
		{
			name: "blank content",
			req: asFacilitator(testutil.MakeRequest("POST", "/workspaces/"+open.ID+"/notes",
				models.CreateNoteRequest{Content: "   "}, nil), open.ID),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "category from another workspace",
			req: asFacilitator(testutil.MakeRequest("POST", "/workspaces/"+open.ID+"/notes",
				models.CreateNoteRequest{Content: "Idea", CategoryID: &otherCat.ID}, nil), open.ID),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unknown hidden module",
			req: asFacilitator(testutil.MakeRequest("POST", "/workspaces/"+open.ID+"/notes",
				models.CreateNoteRequest{Content: "Idea", HiddenModules: []string{"voting"}}, nil), open.ID),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown workspace",
			req:            asFacilitator(testutil.MakeRequest("POST", "/workspaces/missing/notes", models.CreateNoteRequest{Content: "Idea"}, nil), "missing"),
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.CreateNote(w, tc.req)
			testutil.AssertStatus(t, w, tc.expectedStatus)
		})
	}
}

func TestListNotesModuleFilter(t *testing.T) {
	env := newTestEnv(t)
	h := NewNoteHandler(env.deps, env.rs)
	ws, _ := testutil.CreateTestWorkspace(t, env.st, env.cfg, models.StatusOpen)

	testutil.AddTestNote(t, env.st, ws.ID, "Everywhere")
	hidden := testutil.AddTestNote(t, env.st, ws.ID, "Not in pairwise")
	hidden.HiddenModules = []ranking.ModuleKind{ranking.ModulePairwise}
	if _, err := env.st.UpdateNote(context.Background(), hidden); err != nil {
		t.Fatalf("Failed to hide note: %v", err)
	}

	list := func(query string) []models.Note {
		t.Helper()
		req := asFacilitator(httptest.NewRequest("GET", "/workspaces/"+ws.ID+"/notes"+query, nil), ws.ID)
		w := httptest.NewRecorder()
		h.ListNotes(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)
		var notes []models.Note
		testutil.AssertJSON(t, w, &notes)
		return notes
	}

	if got := list(""); len(got) != 2 {
		t.Errorf("Expected 2 notes without filter, got %d", len(got))
	}
	if got := list("?module=pairwise"); len(got) != 1 || got[0].Content != "Everywhere" {
		t.Errorf("Expected only the visible note for pairwise, got %+v", got)
	}
	if got := list("?module=stack_ranking"); len(got) != 2 {
		t.Errorf("Expected 2 notes for stack_ranking, got %d", len(got))
	}

	req := asFacilitator(httptest.NewRequest("GET", "/workspaces/"+ws.ID+"/notes?module=nope", nil), ws.ID)
	w := httptest.NewRecorder()
	h.ListNotes(w, req)
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestUpdateAndDeleteNote(t *testing.T) {
	env := newTestEnv(t)
	h := NewNoteHandler(env.deps, env.rs)
	ws, _ := testutil.CreateTestWorkspace(t, env.st, env.cfg, models.StatusOpen)
	alice := testutil.AddTestParticipant(t, env.st, ws.ID, "alice")
	bob := testutil.AddTestParticipant(t, env.st, ws.ID, "bob")
	cat := testutil.AddTestCategory(t, env.st, ws.ID, "Parks")

	// Alice writes a note through the handler so it carries her as author
	req := asParticipant(testutil.MakeRequest("POST", "/workspaces/"+ws.ID+"/notes",
		models.CreateNoteRequest{Content: "Community garden"}, nil), alice)
	w := httptest.NewRecorder()
	h.CreateNote(w, req)
	testutil.AssertStatus(t, w, http.StatusCreated)
	var note models.Note
	testutil.AssertJSON(t, w, &note)

	patch := func(req *http.Request, body models.UpdateNoteRequest) *httptest.ResponseRecorder {
		r := testutil.MakeRequest("PATCH", "/workspaces/"+ws.ID+"/notes/"+note.ID, body, nil)
		r = r.WithContext(req.Context())
		r.SetPathValue("id", ws.ID)
		r.SetPathValue("noteId", note.ID)
		w := httptest.NewRecorder()
		h.UpdateNote(w, r)
		return w
	}
	aliceCtx := asParticipant(httptest.NewRequest("GET", "/", nil), alice)
	bobCtx := asParticipant(httptest.NewRequest("GET", "/", nil), bob)
	facCtx := asFacilitator(httptest.NewRequest("GET", "/", nil), ws.ID)

	content := "Community garden on 5th"
	w = patch(aliceCtx, models.UpdateNoteRequest{Content: &content})
	testutil.AssertStatus(t, w, http.StatusOK)
	var updated models.Note
	testutil.AssertJSON(t, w, &updated)
	if updated.Content != content {
		t.Errorf("Expected updated content, got %q", updated.Content)
	}

	testutil.AssertStatus(t, patch(bobCtx, models.UpdateNoteRequest{Content: &content}), http.StatusForbidden)

	w = patch(facCtx, models.UpdateNoteRequest{CategoryID: &cat.ID})
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSON(t, w, &updated)
	if updated.CategoryID == nil || *updated.CategoryID != cat.ID {
		t.Errorf("Expected category %s, got %v", cat.ID, updated.CategoryID)
	}
	if updated.Content != content {
		t.Errorf("Absent fields must be kept, content became %q", updated.Content)
	}

	empty := ""
	w = patch(facCtx, models.UpdateNoteRequest{CategoryID: &empty})
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSON(t, w, &updated)
	if updated.CategoryID != nil {
		t.Errorf("Expected category cleared, got %v", *updated.CategoryID)
	}

	del := func(req *http.Request, noteID string) *httptest.ResponseRecorder {
		r := httptest.NewRequest("DELETE", "/workspaces/"+ws.ID+"/notes/"+noteID, nil)
		r = r.WithContext(req.Context())
		r.SetPathValue("id", ws.ID)
		r.SetPathValue("noteId", noteID)
		w := httptest.NewRecorder()
		h.DeleteNote(w, r)
		return w
	}

	testutil.AssertStatus(t, del(bobCtx, note.ID), http.StatusForbidden)
	testutil.AssertStatus(t, del(aliceCtx, note.ID), http.StatusNoContent)
	testutil.AssertStatus(t, del(facCtx, note.ID), http.StatusNotFound)

	if _, err := env.st.GetNote(context.Background(), ws.ID, note.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected note to be gone, got %v", err)
	}

	// Facilitator notes have no author, so participants cannot touch them
	seeded := testutil.AddTestNote(t, env.st, ws.ID, "Seeded")
	testutil.AssertStatus(t, del(aliceCtx, seeded.ID), http.StatusForbidden)
	testutil.AssertStatus(t, del(facCtx, seeded.ID), http.StatusNoContent)
}

func TestImportNotes(t *testing.T) {
	env := newTestEnv(t)
	h := NewNoteHandler(env.deps, env.rs)
	ws, _ := testutil.CreateTestWorkspace(t, env.st, env.cfg, models.StatusDraft)
	testutil.AddTestCategory(t, env.st, ws.ID, "Transit")

	importNotes := func(body interface{}) *httptest.ResponseRecorder {
		req := asFacilitator(testutil.MakeRequest("POST", "/workspaces/"+ws.ID+"/notes/import", body, nil), ws.ID)
		w := httptest.NewRecorder()
		h.ImportNotes(w, req)
		return w
	}

	w := importNotes(models.ImportNotesRequest{Notes: []models.ImportNote{
		{Content: "Bus rapid transit", Category: "Transit"},
		{Content: "Pocket parks", Category: "Parks"},
		{Content: "Tree canopy", Category: "Parks"},
		{Content: "Night market"},
	}})
	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.ImportNotesResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Imported != 4 {
		t.Errorf("Expected 4 imported, got %d", resp.Imported)
	}
	if resp.CategoriesCreated != 1 {
		t.Errorf("Expected 1 new category, got %d", resp.CategoriesCreated)
	}

	notes, err := env.st.ListNotes(context.Background(), ws.ID)
	if err != nil {
		t.Fatalf("Failed to list notes: %v", err)
	}
	for _, n := range notes {
		if n.Source != models.SourceImport {
			t.Errorf("Expected import source, got %s", n.Source)
		}
	}

	t.Run("blank row rejects the batch", func(t *testing.T) {
		w := importNotes(models.ImportNotesRequest{Notes: []models.ImportNote{
			{Content: "Good row"},
			{Content: "   "},
		}})
		testutil.AssertStatus(t, w, http.StatusBadRequest)
		if !strings.Contains(w.Body.String(), "notes[1]") {
			t.Errorf("Expected the failing row to be named, got %s", w.Body.String())
		}

		after, _ := env.st.ListNotes(context.Background(), ws.ID)
		if len(after) != len(notes) {
			t.Errorf("Expected no notes stored, count went from %d to %d", len(notes), len(after))
		}
	})

	t.Run("empty batch", func(t *testing.T) {
		testutil.AssertStatus(t, importNotes(models.ImportNotesRequest{}), http.StatusBadRequest)
	})
}

func TestCategories(t *testing.T) {
	env := newTestEnv(t)
	h := NewNoteHandler(env.deps, env.rs)
	ws, _ := testutil.CreateTestWorkspace(t, env.st, env.cfg, models.StatusDraft)

	create := func(name string) *httptest.ResponseRecorder {
		req := asFacilitator(testutil.MakeRequest("POST", "/workspaces/"+ws.ID+"/categories",
			models.CreateCategoryRequest{Name: name, Color: "#00aa00"}, nil), ws.ID)
		w := httptest.NewRecorder()
		h.CreateCategory(w, req)
		return w
	}

	testutil.AssertStatus(t, create("Green"), http.StatusCreated)
	testutil.AssertStatus(t, create("Blue"), http.StatusCreated)
	testutil.AssertStatus(t, create("Green"), http.StatusConflict)
	testutil.AssertStatus(t, create(""), http.StatusBadRequest)

	req := asFacilitator(httptest.NewRequest("GET", "/workspaces/"+ws.ID+"/categories", nil), ws.ID)
	w := httptest.NewRecorder()
	h.ListCategories(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var cats []models.Category
	testutil.AssertJSON(t, w, &cats)
	if len(cats) != 2 || cats[0].Name != "Green" || cats[1].Name != "Blue" {
		t.Errorf("Expected [Green Blue] in creation order, got %+v", cats)
	}
}

func TestCategorize(t *testing.T) {
	env := newTestEnv(t)
	h := NewNoteHandler(env.deps, env.rs)
	ws, _ := testutil.CreateTestWorkspace(t, env.st, env.cfg, models.StatusOpen)
	testutil.AddTestNote(t, env.st, ws.ID, "Bus lanes")
	testutil.AddTestNote(t, env.st, ws.ID, "Tram line")

	categorize := func() *httptest.ResponseRecorder {
		req := asFacilitator(httptest.NewRequest("POST", "/workspaces/"+ws.ID+"/categorize", nil), ws.ID)
		w := httptest.NewRecorder()
		h.Categorize(w, req)
		return w
	}

	t.Run("out of range index rejects everything", func(t *testing.T) {
		env.llm.Respond = func(system, user string) (string, error) {
			return `{"assignments":[{"note":1,"category":"Transit"},{"note":9,"category":"Transit"}]}`, nil
		}
		testutil.AssertStatus(t, categorize(), http.StatusBadGateway)

		cats, _ := env.st.ListCategories(context.Background(), ws.ID)
		if len(cats) != 0 {
			t.Errorf("Expected no categories created, got %d", len(cats))
		}
	})

	t.Run("assigns every note", func(t *testing.T) {
		env.llm.Respond = func(system, user string) (string, error) {
			return `{"assignments":[{"note":1,"category":"Transit"},{"note":2,"category":"Transit"}]}`, nil
		}
		w := categorize()
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.CategorizeResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Assigned != 2 || resp.CategoriesCreated != 1 {
			t.Errorf("Expected 2 assigned and 1 created, got %+v", resp)
		}

		notes, _ := env.st.ListNotes(context.Background(), ws.ID)
		for _, n := range notes {
			if n.CategoryID == nil {
				t.Errorf("Note %q was not categorized", n.Content)
			}
		}
	})

	t.Run("no model configured", func(t *testing.T) {
		h := NewNoteHandler(env.deps, resultsWithoutModel(env))
		req := asFacilitator(httptest.NewRequest("POST", "/workspaces/"+ws.ID+"/categorize", nil), ws.ID)
		w := httptest.NewRecorder()
		h.Categorize(w, req)
		testutil.AssertStatus(t, w, http.StatusServiceUnavailable)
	})
}
