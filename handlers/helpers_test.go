// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/danielhkuo/envision/auth"
	"github.com/danielhkuo/envision/cliparse"
	"github.com/danielhkuo/envision/llm"
	"github.com/danielhkuo/envision/middleware"
	"github.com/danielhkuo/envision/models"
	"github.com/danielhkuo/envision/realtime"
	"github.com/danielhkuo/envision/results"
	"github.com/danielhkuo/envision/scoring"
	"github.com/danielhkuo/envision/store"
	"github.com/danielhkuo/envision/testutil"
)

const validCohortJSON = `{
	"summary": "The group leaned toward mobility.",
	"themes": [{"title": "Mobility", "description": "Getting around"}],
	"ideaImpacts": [{"rank": 1, "content": "Bike lanes", "impact": "Safer commutes"}],
	"insights": ["Transit ideas won most pairings"],
	"recommendations": ["Pilot a protected bike lane"]
}`

const validPersonalizedJSON = `{
	"summary": "You pushed for green space.",
	"contributions": ["Proposed the community garden"],
	"alignment": "Your top pick finished second overall.",
	"insights": ["You favored local projects"],
	"recommendations": ["Join the garden working group"]
}`

// testEnv wires handlers over an in-memory database.
type testEnv struct {
	st   *store.Store
	cfg  cliparse.Config
	deps Deps
	hub  *realtime.Hub
	llm  *llm.MockCompleter
	rs   *results.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := testutil.SetupTestStore(t)
	cfg := testutil.GetTestConfig()
	sc := scoring.NewService(st, nil, nil)
	hub := realtime.NewHub(nil)
	mock := llm.NewMockCompleter(validCohortJSON)

	return &testEnv{
		st:  st,
		cfg: cfg,
		deps: Deps{
			Store:   st,
			Config:  cfg,
			Scoring: sc,
			Events:  realtime.NewBroadcaster(hub, nil, nil),
		},
		hub: hub,
		llm: mock,
		rs:  results.NewService(st, sc, mock, nil, 2),
	}
}

// resultsWithoutModel returns a results service with no LLM configured.
func resultsWithoutModel(env *testEnv) *results.Service {
	return results.NewService(env.st, env.deps.Scoring, nil, nil, 2)
}

// asFacilitator sets the {id} path value and a facilitator session.
func asFacilitator(req *http.Request, workspaceID string) *http.Request {
	req.SetPathValue("id", workspaceID)
	sess := auth.Session{WorkspaceID: workspaceID, Role: auth.RoleFacilitator}
	return req.WithContext(middleware.WithSession(req.Context(), sess))
}

// asParticipant sets the {id} path value and p's session.
func asParticipant(req *http.Request, p models.Participant) *http.Request {
	req.SetPathValue("id", p.WorkspaceID)
	sess := auth.Session{WorkspaceID: p.WorkspaceID, ParticipantID: p.ID, Role: auth.RoleParticipant}
	return req.WithContext(middleware.WithSession(req.Context(), sess))
}

// nextEvent waits briefly for an event on c.
func nextEvent(t *testing.T, c *realtime.Client) realtime.Event {
	t.Helper()
	select {
	case ev := <-c.Outbound:
		return ev
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for event")
		return realtime.Event{}
	}
}
