// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Envision API.

# Handler Types

Each handler is a struct embedding Deps (store, config, scoring service and
event publisher):

  - WorkspaceHandler: Organizations, workspace lifecycle, joining
  - NoteHandler: Categories, notes, bulk import, LLM categorization
  - VotingHandler: Pairwise votes, stack rankings, marketplace coins
  - PositionHandler: Priority matrix, staircase, survey
  - ResultsHandler: Combined scores, cohort and personalized results, export
  - RealtimeHandler: WebSocket subscriptions

Handlers are created via constructor functions:

	workspaceHandler := handlers.NewWorkspaceHandler(deps)
	resultsHandler := handlers.NewResultsHandler(deps, resultsService)

# Workspace Lifecycle

Workspaces progress through three states: draft → open → closed

	POST /workspaces               → CreateWorkspace (returns admin_key)
	POST /workspaces/{id}/publish  → PublishWorkspace (generates join_code)
	POST /workspaces/{code}/join   → JoinWorkspace (returns participant_token)
	POST /workspaces/{id}/close    → CloseWorkspace

Facilitator operations require the X-Admin-Key header; participant
operations require X-Participant-Token. Handlers read the resolved session
from the request context and never look credentials up themselves.

# Submissions

Participant submissions need an open workspace with the module enabled,
otherwise 409. Rankings and allocations replace the participant's previous
submission; pairwise votes append. Invalid submissions are rejected whole
with 400 and nothing is stored.

Every accepted write drops cached scores and publishes a realtime event so
connected dashboards refetch.

# Results

LLM output is validated before it is stored. A model failure or schema
mismatch is reported as 502 and leaves no row behind; with no model
configured the results endpoints answer 503.
*/
package handlers
