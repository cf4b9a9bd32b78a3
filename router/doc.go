// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Envision API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(router.Services{
		Deps:    handlers.Deps{Store: st, Config: cfg, Scoring: sc, Events: bc},
		Results: rs,
		Hub:     hub,
	})

# Access

Routes are wrapped by one of three guards:

  - facilitator: X-Admin-Key for the {id} workspace
  - participant: X-Participant-Token; on {id} routes it must match
  - member: either of the above

Organization creation, workspace creation and joining are public.

# Endpoints

Health and metrics:

	GET /health
	GET /metrics

Workspaces:

	POST  /organizations
	GET   /organizations/{id}/workspaces
	POST  /workspaces                   - Create (returns admin_key)
	GET   /workspaces/{id}
	PATCH /workspaces/{id}/settings     - Modules, scope, budget, staircase range
	POST  /workspaces/{id}/publish      - Open for participants (join code)
	POST  /workspaces/{id}/close
	POST  /workspaces/{code}/join       - Returns participant_token

Voting modules:

	GET  /workspaces/{id}/pairwise/next
	POST /votes
	POST /rankings/bulk
	POST /marketplace-allocations/bulk
	PUT  /workspaces/{id}/priority-matrix/positions
	POST /workspaces/{id}/staircase-positions
	POST /workspaces/{id}/survey-responses

Scores and results:

	GET  /workspaces/{id}/scores/combined
	POST /workspaces/{id}/results/cohort
	POST /workspaces/{id}/results/personalized
	GET  /workspaces/{id}/results/cohort/export?format=html|pdf

Realtime:

	GET /workspaces/{id}/ws?token=... or ?admin_key=...
*/
package router
