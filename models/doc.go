// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Request bodies carry go-playground/validator tags; handlers run them through
middleware.Validate before touching the store:

  - CreateWorkspaceRequest: title, facilitator_name, modules, settings
  - UpdateSettingsRequest: partial settings update
  - JoinWorkspaceRequest: display_name
  - CreateNoteRequest, UpdateNoteRequest, ImportNotesRequest
  - CastVoteRequest: winner_note_id, loser_note_id
  - BulkRankingRequest, BulkAllocationRequest, SurveyResponsesRequest
  - MatrixPositionRequest, StaircasePositionRequest

# Domain Types

  - Workspace: one workshop, its enabled modules and voting settings
  - Participant: a joined member; Token is never serialized
  - Note: an idea, with per-module visibility
  - Vote, MatrixPosition, StaircasePosition, SurveyQuestion
  - StoredResult: a cohort or personalized LLM artifact

Algorithm inputs and outputs (Borda scores, pair progress, combined scores)
live in package ranking and are returned as-is.

# Status Lifecycle

	draft → open → closed

Voting endpoints only accept submissions while a workspace is open.
*/
package models
