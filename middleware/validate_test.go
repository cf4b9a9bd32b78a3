// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/envision/models"
	"github.com/danielhkuo/envision/ranking"
)

func TestDecodeAndValidate(t *testing.T) {
	testCases := []struct {
		name        string
		body        string
		wantErr     bool
		wantInvalid bool
		wantMessage string
	}{
		{
			name: "valid",
			body: `{"title":"Future of transit","facilitator_name":"Sam"}`,
		},
		{
			name:        "missing title",
			body:        `{"facilitator_name":"Sam"}`,
			wantErr:     true,
			wantInvalid: true,
			wantMessage: "CreateWorkspaceRequest.Title is required",
		},
		{
			name:        "bad scope",
			body:        `{"title":"t","facilitator_name":"Sam","pairwise_scope":"sometimes"}`,
			wantErr:     true,
			wantInvalid: true,
			wantMessage: "must be one of [all within_categories]",
		},
		{
			name:        "zero budget",
			body:        `{"title":"t","facilitator_name":"Sam","coin_budget":0}`,
			wantErr:     true,
			wantInvalid: true,
			wantMessage: "CoinBudget must be at least 1",
		},
		{
			name:    "malformed JSON",
			body:    `{"title":`,
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/workspaces", strings.NewReader(tc.body))

			var parsed models.CreateWorkspaceRequest
			err := DecodeAndValidate(req, &parsed)

			if (err != nil) != tc.wantErr {
				t.Fatalf("DecodeAndValidate() error = %v, wantErr %v", err, tc.wantErr)
			}
			if !tc.wantErr {
				return
			}
			if ranking.IsValidationError(err) != tc.wantInvalid {
				t.Fatalf("IsValidationError(%v) = %v, want %v", err, !tc.wantInvalid, tc.wantInvalid)
			}
			if tc.wantMessage != "" && !strings.Contains(err.Error(), tc.wantMessage) {
				t.Errorf("Expected error to contain %q, got %q", tc.wantMessage, err.Error())
			}
		})
	}
}

func TestValidateStructNested(t *testing.T) {
	req := models.ImportNotesRequest{Notes: []models.ImportNote{{Content: "ok"}, {Content: ""}}}

	err := ValidateStruct("import", req)
	if !ranking.IsValidationError(err) {
		t.Fatalf("Expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Notes[1].Content is required") {
		t.Errorf("Expected the failing row to be named, got %q", err.Error())
	}
	if !strings.HasPrefix(err.Error(), "invalid import") {
		t.Errorf("Expected entity prefix, got %q", err.Error())
	}
}
