// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (status, duration_ms).

# Sessions

Facilitator routes check X-Admin-Key against the {id} workspace; participant
routes resolve X-Participant-Token through a ParticipantLookup:

	mux.HandleFunc("POST /votes", middleware.WithLogging(
		middleware.RequireParticipant(st, h.CastVote)))

The resolved auth.Session is read back with SessionFromContext. The
websocket route also accepts ?admin_key= and ?token=.

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, PUT, PATCH, DELETE, OPTIONS with headers
Content-Type, Authorization, X-Admin-Key, X-Participant-Token.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

Parse and validate JSON request bodies:

	var req models.CreateWorkspaceRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		...
	}

Tag failures are returned as *ranking.ValidationError.

# Metrics

Metrics.Handler counts requests and observes latency per matched route
pattern. Register it once and wrap the mux:

	m := middleware.NewMetrics(prometheus.DefaultRegisterer)
	handler := m.Handler(mux)

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)
*/
package middleware
