// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/envision/auth"
	"github.com/danielhkuo/envision/models"
	"github.com/danielhkuo/envision/ranking"
	"github.com/danielhkuo/envision/realtime"
	"github.com/danielhkuo/envision/testutil"
)

func TestCreateWorkspace(t *testing.T) {
	env := newTestEnv(t)
	h := NewWorkspaceHandler(env.deps)

	budget := 50
	negative := -5.0
	testCases := []struct {
		name           string
		body           interface{}
		expectedStatus int
		errorContains  string
	}{
		{
			name: "valid defaults",
			body: models.CreateWorkspaceRequest{
				Title:           "Future of Main Street",
				FacilitatorName: "Robin",
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "valid with modules",
			body: models.CreateWorkspaceRequest{
				Title:           "Budget day",
				FacilitatorName: "Robin",
				Modules:         []string{"marketplace", "staircase"},
				CoinBudget:      &budget,
				StaircaseMin:    &negative,
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing title",
			body:           models.CreateWorkspaceRequest{FacilitatorName: "Robin"},
			expectedStatus: http.StatusBadRequest,
			errorContains:  "Title is required",
		},
		{
			name:           "missing facilitator",
			body:           models.CreateWorkspaceRequest{Title: "Workshop"},
			expectedStatus: http.StatusBadRequest,
			errorContains:  "FacilitatorName is required",
		},
		{
			name: "unknown module",
			body: models.CreateWorkspaceRequest{
				Title:           "Workshop",
				FacilitatorName: "Robin",
				Modules:         []string{"pairwise", "dot_voting"},
			},
			expectedStatus: http.StatusBadRequest,
			errorContains:  "dot_voting",
		},
		{
			name: "unknown scope",
			body: models.CreateWorkspaceRequest{
				Title:           "Workshop",
				FacilitatorName: "Robin",
				PairwiseScope:   "sometimes",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			body:           "not json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/workspaces", tc.body, nil)
			w := httptest.NewRecorder()

			h.CreateWorkspace(w, req)

			testutil.AssertStatus(t, w, tc.expectedStatus)
			if tc.errorContains != "" && !strings.Contains(w.Body.String(), tc.errorContains) {
				t.Errorf("Expected error containing %q, got %s", tc.errorContains, w.Body.String())
			}
			if tc.expectedStatus != http.StatusCreated {
				return
			}

			var resp models.CreateWorkspaceResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.WorkspaceID == "" {
				t.Fatal("Expected workspace_id in response")
			}
			if err := auth.ValidateAdminKey(resp.WorkspaceID, resp.AdminKey, env.cfg.AdminKeySalt); err != nil {
				t.Errorf("Returned admin key does not validate: %v", err)
			}
			ws, err := env.st.GetWorkspace(context.Background(), resp.WorkspaceID)
			if err != nil {
				t.Fatalf("Failed to reload workspace: %v", err)
			}
			if ws.Status != models.StatusDraft {
				t.Errorf("Expected draft status, got %s", ws.Status)
			}
		})
	}
}

func TestCreateWorkspaceStoresSettings(t *testing.T) {
	env := newTestEnv(t)
	h := NewWorkspaceHandler(env.deps)

	budget := 20
	req := testutil.MakeRequest("POST", "/workspaces", models.CreateWorkspaceRequest{
		Title:           "Settings",
		FacilitatorName: "Robin",
		Modules:         []string{"survey", "pairwise", "survey"},
		PairwiseScope:   "within_categories",
		CoinBudget:      &budget,
	}, nil)
	w := httptest.NewRecorder()
	h.CreateWorkspace(w, req)
	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.CreateWorkspaceResponse
	testutil.AssertJSON(t, w, &resp)
	ws, err := env.st.GetWorkspace(context.Background(), resp.WorkspaceID)
	if err != nil {
		t.Fatalf("Failed to reload workspace: %v", err)
	}

	if len(ws.Modules) != 2 || ws.Modules[0] != ranking.ModulePairwise || ws.Modules[1] != ranking.ModuleSurvey {
		t.Errorf("Expected [pairwise survey] in canonical order, got %v", ws.Modules)
	}
	if ws.PairwiseScope != ranking.ScopeWithinCategories {
		t.Errorf("Expected within_categories scope, got %s", ws.PairwiseScope)
	}
	if ws.CoinBudget != 20 {
		t.Errorf("Expected coin budget 20, got %d", ws.CoinBudget)
	}
}

func TestOrganizations(t *testing.T) {
	env := newTestEnv(t)
	h := NewWorkspaceHandler(env.deps)

	req := testutil.MakeRequest("POST", "/organizations", models.CreateOrganizationRequest{Name: "City Council"}, nil)
	w := httptest.NewRecorder()
	h.CreateOrganization(w, req)
	testutil.AssertStatus(t, w, http.StatusCreated)

	var org models.CreateOrganizationResponse
	testutil.AssertJSON(t, w, &org)

	for _, title := range []string{"Parks", "Transit"} {
		req := testutil.MakeRequest("POST", "/workspaces", models.CreateWorkspaceRequest{
			OrganizationID:  org.OrganizationID,
			Title:           title,
			FacilitatorName: "Robin",
		}, nil)
		w := httptest.NewRecorder()
		h.CreateWorkspace(w, req)
		testutil.AssertStatus(t, w, http.StatusCreated)
	}

	t.Run("list workspaces", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/organizations/"+org.OrganizationID+"/workspaces", nil)
		req.SetPathValue("id", org.OrganizationID)
		w := httptest.NewRecorder()
		h.ListOrganizationWorkspaces(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)

		var list []models.Workspace
		testutil.AssertJSON(t, w, &list)
		if len(list) != 2 {
			t.Errorf("Expected 2 workspaces, got %d", len(list))
		}
	})

	t.Run("unknown organization", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/organizations/nope/workspaces", nil)
		req.SetPathValue("id", "nope")
		w := httptest.NewRecorder()
		h.ListOrganizationWorkspaces(w, req)
		testutil.AssertStatus(t, w, http.StatusNotFound)
	})

	t.Run("workspace for unknown organization", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/workspaces", models.CreateWorkspaceRequest{
			OrganizationID:  "nope",
			Title:           "Orphan",
			FacilitatorName: "Robin",
		}, nil)
		w := httptest.NewRecorder()
		h.CreateWorkspace(w, req)
		testutil.AssertStatus(t, w, http.StatusNotFound)
	})
}

func TestWorkspaceLifecycle(t *testing.T) {
	env := newTestEnv(t)
	h := NewWorkspaceHandler(env.deps)
	ws, _ := testutil.CreateTestWorkspace(t, env.st, env.cfg, models.StatusDraft)

	client := env.hub.NewClient(ws.ID)
	defer env.hub.CloseClient(client)

	// Join before publish: there is no join code yet
	code := auth.GenerateJoinCode(ws.ID, env.cfg.JoinCodeSalt)
	req := testutil.MakeRequest("POST", "/workspaces/"+code+"/join", models.JoinWorkspaceRequest{DisplayName: "Alice"}, nil)
	req.SetPathValue("code", code)
	w := httptest.NewRecorder()
	h.JoinWorkspace(w, req)
	testutil.AssertStatus(t, w, http.StatusNotFound)

	// Publish
	req = asFacilitator(httptest.NewRequest("POST", "/workspaces/"+ws.ID+"/publish", nil), ws.ID)
	w = httptest.NewRecorder()
	h.PublishWorkspace(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var pub models.PublishWorkspaceResponse
	testutil.AssertJSON(t, w, &pub)
	if pub.JoinCode != code {
		t.Errorf("Expected join code %s, got %s", code, pub.JoinCode)
	}
	if ev := nextEvent(t, client); ev.Type != realtime.EventWorkspaceUpdated {
		t.Errorf("Expected workspace_updated event, got %s", ev.Type)
	}

	// Publishing twice conflicts
	req = asFacilitator(httptest.NewRequest("POST", "/workspaces/"+ws.ID+"/publish", nil), ws.ID)
	w = httptest.NewRecorder()
	h.PublishWorkspace(w, req)
	testutil.AssertStatus(t, w, http.StatusConflict)

	// Join
	join := func(name string) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("POST", "/workspaces/"+code+"/join", models.JoinWorkspaceRequest{DisplayName: name}, nil)
		req.SetPathValue("code", code)
		w := httptest.NewRecorder()
		h.JoinWorkspace(w, req)
		return w
	}

	w = join("Alice")
	testutil.AssertStatus(t, w, http.StatusCreated)
	var joined models.JoinWorkspaceResponse
	testutil.AssertJSON(t, w, &joined)
	if joined.WorkspaceID != ws.ID || joined.ParticipantToken == "" {
		t.Errorf("Unexpected join response %+v", joined)
	}
	sess, err := env.st.ResolveParticipant(context.Background(), joined.ParticipantToken)
	if err != nil || sess.ParticipantID != joined.ParticipantID {
		t.Errorf("Token does not resolve to the participant: %+v %v", sess, err)
	}
	if ev := nextEvent(t, client); ev.Type != realtime.EventParticipantJoined {
		t.Errorf("Expected participant_joined event, got %s", ev.Type)
	}

	testutil.AssertStatus(t, join("Alice"), http.StatusConflict)
	testutil.AssertStatus(t, join(""), http.StatusBadRequest)

	// Close, then joining is refused
	req = asFacilitator(httptest.NewRequest("POST", "/workspaces/"+ws.ID+"/close", nil), ws.ID)
	w = httptest.NewRecorder()
	h.CloseWorkspace(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	testutil.AssertStatus(t, join("Bob"), http.StatusConflict)

	req = asFacilitator(httptest.NewRequest("POST", "/workspaces/"+ws.ID+"/close", nil), ws.ID)
	w = httptest.NewRecorder()
	h.CloseWorkspace(w, req)
	testutil.AssertStatus(t, w, http.StatusConflict)
}

func TestCloseUnknownWorkspace(t *testing.T) {
	env := newTestEnv(t)
	h := NewWorkspaceHandler(env.deps)

	req := asFacilitator(httptest.NewRequest("POST", "/workspaces/missing/close", nil), "missing")
	w := httptest.NewRecorder()
	h.CloseWorkspace(w, req)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestUpdateSettings(t *testing.T) {
	env := newTestEnv(t)
	h := NewWorkspaceHandler(env.deps)
	ws, _ := testutil.CreateTestWorkspace(t, env.st, env.cfg, models.StatusOpen)

	update := func(workspaceID string, body interface{}) *httptest.ResponseRecorder {
		req := asFacilitator(testutil.MakeRequest("PATCH", "/workspaces/"+workspaceID+"/settings", body, nil), workspaceID)
		w := httptest.NewRecorder()
		h.UpdateSettings(w, req)
		return w
	}

	mods := []string{"marketplace"}
	budget := 30
	w := update(ws.ID, models.UpdateSettingsRequest{Modules: &mods, CoinBudget: &budget})
	testutil.AssertStatus(t, w, http.StatusOK)

	var got models.Workspace
	testutil.AssertJSON(t, w, &got)
	if len(got.Modules) != 1 || got.Modules[0] != ranking.ModuleMarketplace {
		t.Errorf("Expected [marketplace], got %v", got.Modules)
	}
	if got.CoinBudget != 30 {
		t.Errorf("Expected coin budget 30, got %d", got.CoinBudget)
	}
	if got.PairwiseScope != ranking.ScopeAll {
		t.Errorf("Absent fields must be kept, scope became %s", got.PairwiseScope)
	}

	lo, hi := 5.0, 1.0
	testutil.AssertStatus(t, update(ws.ID, models.UpdateSettingsRequest{StaircaseMin: &lo, StaircaseMax: &hi}), http.StatusBadRequest)

	zero := 0
	testutil.AssertStatus(t, update(ws.ID, models.UpdateSettingsRequest{CoinBudget: &zero}), http.StatusBadRequest)

	testutil.AssertStatus(t, update("missing", models.UpdateSettingsRequest{}), http.StatusNotFound)

	closed, _ := testutil.CreateTestWorkspace(t, env.st, env.cfg, models.StatusClosed)
	testutil.AssertStatus(t, update(closed.ID, models.UpdateSettingsRequest{CoinBudget: &budget}), http.StatusConflict)
}

func TestListParticipants(t *testing.T) {
	env := newTestEnv(t)
	h := NewWorkspaceHandler(env.deps)
	ws, _ := testutil.CreateTestWorkspace(t, env.st, env.cfg, models.StatusOpen)
	testutil.AddTestParticipant(t, env.st, ws.ID, "alice")
	testutil.AddTestParticipant(t, env.st, ws.ID, "bob")

	req := asFacilitator(httptest.NewRequest("GET", "/workspaces/"+ws.ID+"/participants", nil), ws.ID)
	w := httptest.NewRecorder()
	h.ListParticipants(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	if strings.Contains(w.Body.String(), "token") {
		t.Error("Participant tokens must not be exposed")
	}
	var list []models.Participant
	testutil.AssertJSON(t, w, &list)
	if len(list) != 2 {
		t.Errorf("Expected 2 participants, got %d", len(list))
	}
}
