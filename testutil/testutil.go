// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/envision/auth"
	"github.com/danielhkuo/envision/cliparse"
	"github.com/danielhkuo/envision/db"
	"github.com/danielhkuo/envision/models"
	"github.com/danielhkuo/envision/ranking"
	"github.com/danielhkuo/envision/store"
)

// TestDBURL is an in-memory SQLite database, private to its connection
const TestDBURL = "file::memory:"

// SetupTestDB opens a fresh in-memory database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(context.Background(), db.TypeSQLite, TestDBURL)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// The database lives as long as its only connection.
	conn.SetConnMaxLifetime(0)
	conn.SetConnMaxIdleTime(0)
	conn.SetMaxIdleConns(1)

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// SetupTestStore returns a Store over a fresh test database
func SetupTestStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(SetupTestDB(t))
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:                    3318,
		DatabaseURL:             TestDBURL,
		DatabaseType:            db.TypeSQLite,
		AdminKeySalt:            "test-admin-salt",
		JoinCodeSalt:            "test-join-salt",
		OpenAIModel:             "test-model",
		LLMTimeout:              5 * time.Second,
		LLMRatePerSec:           100,
		ResultsBatchConcurrency: 2,
	}
}

// CreateTestWorkspace creates a workspace with the given status and modules
// and returns it with its admin key. status should be "draft", "open", or "closed"
func CreateTestWorkspace(t *testing.T, st *store.Store, cfg cliparse.Config, status string, mods ...ranking.ModuleKind) (models.Workspace, string) {
	t.Helper()
	ctx := context.Background()

	if len(mods) == 0 {
		mods = models.DefaultModules
	}
	ws, err := st.CreateWorkspace(ctx, models.Workspace{
		Title:           "Test Workshop",
		Description:     "A test workshop",
		FacilitatorName: "TestFacilitator",
		Modules:         mods,
		PairwiseScope:   ranking.ScopeAll,
		CoinBudget:      models.DefaultCoinBudget,
		StaircaseMin:    models.DefaultStaircaseMin,
		StaircaseMax:    models.DefaultStaircaseMax,
	})
	if err != nil {
		t.Fatalf("Failed to create test workspace: %v", err)
	}

	if status == models.StatusOpen || status == models.StatusClosed {
		code := auth.GenerateJoinCode(ws.ID, cfg.JoinCodeSalt)
		if err := st.PublishWorkspace(ctx, ws.ID, code); err != nil {
			t.Fatalf("Failed to publish test workspace: %v", err)
		}
	}
	if status == models.StatusClosed {
		if _, err := st.CloseWorkspace(ctx, ws.ID); err != nil {
			t.Fatalf("Failed to close test workspace: %v", err)
		}
	}

	ws, err = st.GetWorkspace(ctx, ws.ID)
	if err != nil {
		t.Fatalf("Failed to reload test workspace: %v", err)
	}
	return ws, auth.GenerateAdminKey(ws.ID, cfg.AdminKeySalt)
}

// AddTestNote adds a facilitator note and returns it
func AddTestNote(t *testing.T, st *store.Store, workspaceID, content string) models.Note {
	t.Helper()

	n, err := st.CreateNote(context.Background(), models.Note{
		WorkspaceID: workspaceID,
		Content:     content,
		Source:      models.SourceFacilitator,
	})
	if err != nil {
		t.Fatalf("Failed to create test note: %v", err)
	}
	return n
}

// AddTestCategory adds a category and returns it
func AddTestCategory(t *testing.T, st *store.Store, workspaceID, name string) models.Category {
	t.Helper()

	c, err := st.CreateCategory(context.Background(), workspaceID, name, "")
	if err != nil {
		t.Fatalf("Failed to create test category: %v", err)
	}
	return c
}

// AddTestParticipant joins a participant and returns it, token included
func AddTestParticipant(t *testing.T, st *store.Store, workspaceID, name string) models.Participant {
	t.Helper()

	p, err := st.CreateParticipant(context.Background(), workspaceID, name)
	if err != nil {
		t.Fatalf("Failed to create test participant: %v", err)
	}
	return p
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AdminHeaders returns the facilitator header set
func AdminHeaders(adminKey string) map[string]string {
	return map[string]string{"X-Admin-Key": adminKey}
}

// ParticipantHeaders returns the participant header set
func ParticipantHeaders(token string) map[string]string {
	return map[string]string{"X-Participant-Token": token}
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
