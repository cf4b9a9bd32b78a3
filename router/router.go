// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/envision/handlers"
	"github.com/danielhkuo/envision/middleware"
	"github.com/danielhkuo/envision/realtime"
	"github.com/danielhkuo/envision/results"
)

// Services are the long-lived dependencies the routes are built over.
type Services struct {
	handlers.Deps
	Results *results.Service
	Hub     *realtime.Hub
	// Gatherer backs GET /metrics. Nil serves the default registry.
	Gatherer prometheus.Gatherer
}

func NewRouter(svc Services) *http.ServeMux {
	mux := http.NewServeMux()
	salt := svc.Config.AdminKeySalt
	st := svc.Store

	// Auth wrappers
	facilitator := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireFacilitator(salt, h))
	}
	participant := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireParticipant(st, h))
	}
	member := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireMember(salt, st, h))
	}

	// Initialize handlers
	workspaceHandler := handlers.NewWorkspaceHandler(svc.Deps)
	noteHandler := handlers.NewNoteHandler(svc.Deps, svc.Results)
	votingHandler := handlers.NewVotingHandler(svc.Deps)
	positionHandler := handlers.NewPositionHandler(svc.Deps)
	resultsHandler := handlers.NewResultsHandler(svc.Deps, svc.Results)
	realtimeHandler := handlers.NewRealtimeHandler(svc.Hub)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Metrics
	gatherer := svc.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Organizations (public)
	mux.HandleFunc("POST /organizations", middleware.WithLogging(workspaceHandler.CreateOrganization))
	mux.HandleFunc("GET /organizations/{id}/workspaces", middleware.WithLogging(workspaceHandler.ListOrganizationWorkspaces))

	// Workspace management (facilitator operations)
	mux.HandleFunc("POST /workspaces", middleware.WithLogging(workspaceHandler.CreateWorkspace))
	mux.HandleFunc("GET /workspaces/{id}", member(workspaceHandler.GetWorkspace))
	mux.HandleFunc("PATCH /workspaces/{id}/settings", facilitator(workspaceHandler.UpdateSettings))
	mux.HandleFunc("POST /workspaces/{id}/publish", facilitator(workspaceHandler.PublishWorkspace))
	mux.HandleFunc("POST /workspaces/{id}/close", facilitator(workspaceHandler.CloseWorkspace))
	mux.HandleFunc("GET /workspaces/{id}/participants", facilitator(workspaceHandler.ListParticipants))

	// Joining (public, by join code)
	mux.HandleFunc("POST /workspaces/{code}/join", middleware.WithLogging(workspaceHandler.JoinWorkspace))

	// Categories and notes
	mux.HandleFunc("POST /workspaces/{id}/categories", facilitator(noteHandler.CreateCategory))
	mux.HandleFunc("GET /workspaces/{id}/categories", member(noteHandler.ListCategories))
	mux.HandleFunc("POST /workspaces/{id}/notes", member(noteHandler.CreateNote))
	mux.HandleFunc("GET /workspaces/{id}/notes", member(noteHandler.ListNotes))
	mux.HandleFunc("PATCH /workspaces/{id}/notes/{noteId}", member(noteHandler.UpdateNote))
	mux.HandleFunc("DELETE /workspaces/{id}/notes/{noteId}", member(noteHandler.DeleteNote))
	mux.HandleFunc("POST /workspaces/{id}/notes/import", facilitator(noteHandler.ImportNotes))
	mux.HandleFunc("POST /workspaces/{id}/categorize", facilitator(noteHandler.Categorize))

	// Pairwise
	mux.HandleFunc("GET /workspaces/{id}/pairwise/next", participant(votingHandler.NextPair))
	mux.HandleFunc("POST /votes", participant(votingHandler.CastVote))
	mux.HandleFunc("GET /workspaces/{id}/pairwise/leaderboard", member(votingHandler.Leaderboard))

	// Stack ranking
	mux.HandleFunc("POST /rankings/bulk", participant(votingHandler.SubmitRankings))
	mux.HandleFunc("GET /workspaces/{id}/rankings/scores", member(votingHandler.RankingScores))
	mux.HandleFunc("GET /workspaces/{id}/rankings/progress", member(votingHandler.RankingProgress))
	mux.HandleFunc("GET /workspaces/{id}/rankings/mine", participant(votingHandler.MyRanking))

	// Marketplace
	mux.HandleFunc("POST /marketplace-allocations/bulk", participant(votingHandler.SubmitAllocations))
	mux.HandleFunc("GET /workspaces/{id}/marketplace/totals", member(votingHandler.MarketplaceTotals))

	// Priority matrix and staircase
	mux.HandleFunc("PUT /workspaces/{id}/priority-matrix/positions", member(positionHandler.PutMatrixPosition))
	mux.HandleFunc("GET /workspaces/{id}/priority-matrix/positions", member(positionHandler.ListMatrixPositions))
	mux.HandleFunc("POST /workspaces/{id}/staircase-positions", member(positionHandler.PostStaircasePosition))
	mux.HandleFunc("GET /workspaces/{id}/staircase-positions", member(positionHandler.ListStaircasePositions))

	// Survey
	mux.HandleFunc("POST /workspaces/{id}/survey/questions", facilitator(positionHandler.CreateSurveyQuestion))
	mux.HandleFunc("GET /workspaces/{id}/survey/questions", member(positionHandler.ListSurveyQuestions))
	mux.HandleFunc("POST /workspaces/{id}/survey-responses", participant(positionHandler.SubmitSurveyResponses))
	mux.HandleFunc("GET /workspaces/{id}/survey/summary", member(positionHandler.SurveySummary))

	// Scores and results
	mux.HandleFunc("GET /workspaces/{id}/scores/combined", facilitator(resultsHandler.CombinedScores))
	mux.HandleFunc("GET /workspaces/{id}/results/cohort/prompt", facilitator(resultsHandler.CohortPrompt))
	mux.HandleFunc("POST /workspaces/{id}/results/cohort", facilitator(resultsHandler.GenerateCohort))
	mux.HandleFunc("GET /workspaces/{id}/results/cohort", member(resultsHandler.GetCohort))
	mux.HandleFunc("GET /workspaces/{id}/results/cohort/export", facilitator(resultsHandler.ExportCohort))
	mux.HandleFunc("POST /workspaces/{id}/results/personalized", facilitator(resultsHandler.GenerateAllPersonalized))
	mux.HandleFunc("POST /workspaces/{id}/results/personalized/me", participant(resultsHandler.GenerateMine))
	mux.HandleFunc("GET /workspaces/{id}/results/personalized/me", participant(resultsHandler.GetMine))
	mux.HandleFunc("GET /workspaces/{id}/results/counts", facilitator(resultsHandler.ResultCounts))

	// Realtime
	mux.HandleFunc("GET /workspaces/{id}/ws", member(realtimeHandler.Subscribe))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("envision API v1"))
	})

	return mux
}
