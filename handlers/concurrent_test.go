// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/danielhkuo/envision/models"
	"github.com/danielhkuo/envision/ranking"
	"github.com/danielhkuo/envision/testutil"
)

// TestConcurrentRankingSubmissions verifies that simultaneous rankings from
// different participants are all stored exactly once
func TestConcurrentRankingSubmissions(t *testing.T) {
	env := newTestEnv(t)
	h := NewVotingHandler(env.deps)

	ws, _ := testutil.CreateTestWorkspace(t, env.st, env.cfg, models.StatusOpen)
	a := testutil.AddTestNote(t, env.st, ws.ID, "A")
	b := testutil.AddTestNote(t, env.st, ws.ID, "B")
	c := testutil.AddTestNote(t, env.st, ws.ID, "C")

	numParticipants := 10
	participants := make([]models.Participant, numParticipants)
	for i := range participants {
		participants[i] = testutil.AddTestParticipant(t, env.st, ws.ID, fmt.Sprintf("participant-%d", i))
	}

	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i, p := range participants {
		wg.Add(1)
		go func() {
			defer wg.Done()

			order := []string{a.ID, b.ID, c.ID}
			if i%2 == 1 {
				order = []string{c.ID, b.ID, a.ID}
			}
			entries := make([]ranking.RankEntry, len(order))
			for r, id := range order {
				entries[r] = ranking.RankEntry{NoteID: id, Rank: r + 1}
			}

			req := asParticipant(testutil.MakeRequest("POST", "/rankings/bulk", models.BulkRankingRequest{Rankings: entries}, nil), p)
			w := httptest.NewRecorder()
			h.SubmitRankings(w, req)
			if w.Code == http.StatusOK {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	if int(successCount.Load()) != numParticipants {
		t.Errorf("Expected %d successful submissions, got %d", numParticipants, successCount.Load())
	}

	rows, err := env.st.ListRankings(t.Context(), ws.ID)
	if err != nil {
		t.Fatalf("Failed to list rankings: %v", err)
	}
	if len(rows) != numParticipants*3 {
		t.Errorf("Expected %d ranking rows, got %d", numParticipants*3, len(rows))
	}

	progress, err := env.deps.Scoring.RankingProgress(t.Context(), ws)
	if err != nil {
		t.Fatalf("Failed to compute progress: %v", err)
	}
	if progress.CompletedParticipants != numParticipants {
		t.Errorf("Expected every participant complete, got %+v", progress)
	}
}

// TestConcurrentJoins verifies that racing joins with the same display name
// produce exactly one participant
func TestConcurrentJoins(t *testing.T) {
	env := newTestEnv(t)
	h := NewWorkspaceHandler(env.deps)
	ws, _ := testutil.CreateTestWorkspace(t, env.st, env.cfg, models.StatusOpen)
	code := *ws.JoinCode

	numAttempts := 8
	var created, conflicts atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numAttempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := testutil.MakeRequest("POST", "/workspaces/"+code+"/join", models.JoinWorkspaceRequest{DisplayName: "Sam"}, nil)
			req.SetPathValue("code", code)
			w := httptest.NewRecorder()
			h.JoinWorkspace(w, req)
			switch w.Code {
			case http.StatusCreated:
				created.Add(1)
			case http.StatusConflict:
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	if created.Load() != 1 {
		t.Errorf("Expected exactly 1 join to succeed, got %d", created.Load())
	}
	if conflicts.Load() != int32(numAttempts-1) {
		t.Errorf("Expected %d conflicts, got %d", numAttempts-1, conflicts.Load())
	}
}

// TestConcurrentVotesAcrossWorkspaces checks that parallel workspaces keep
// their votes apart
func TestConcurrentVotesAcrossWorkspaces(t *testing.T) {
	env := newTestEnv(t)
	h := NewVotingHandler(env.deps)

	type fixture struct {
		ws    models.Workspace
		voter models.Participant
		a, b  models.Note
	}
	fixtures := make([]fixture, 4)
	for i := range fixtures {
		ws, _ := testutil.CreateTestWorkspace(t, env.st, env.cfg, models.StatusOpen)
		fixtures[i] = fixture{
			ws:    ws,
			voter: testutil.AddTestParticipant(t, env.st, ws.ID, "voter"),
			a:     testutil.AddTestNote(t, env.st, ws.ID, "A"),
			b:     testutil.AddTestNote(t, env.st, ws.ID, "B"),
		}
	}

	var wg sync.WaitGroup
	for _, f := range fixtures {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := asParticipant(testutil.MakeRequest("POST", "/votes",
				models.CastVoteRequest{WinnerNoteID: f.a.ID, LoserNoteID: f.b.ID}, nil), f.voter)
			w := httptest.NewRecorder()
			h.CastVote(w, req)
			if w.Code != http.StatusCreated {
				t.Errorf("Vote in %s failed: %d - %s", f.ws.ID, w.Code, w.Body.String())
			}
		}()
	}
	wg.Wait()

	for _, f := range fixtures {
		votes, err := env.st.ListVotes(t.Context(), f.ws.ID)
		if err != nil {
			t.Fatalf("Failed to list votes: %v", err)
		}
		if len(votes) != 1 || votes[0].WinnerID != f.a.ID {
			t.Errorf("Expected one vote for A in %s, got %+v", f.ws.ID, votes)
		}
	}
}
