// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/envision/auth"
)

// Credential headers. Browsers cannot set headers on a websocket
// handshake, so the same values are also accepted as query parameters.
const (
	AdminKeyHeader         = "X-Admin-Key"
	ParticipantTokenHeader = "X-Participant-Token"

	adminKeyQuery = "admin_key"
	tokenQuery    = "token"
)

// ParticipantLookup resolves a participant token to a session.
type ParticipantLookup interface {
	ResolveParticipant(ctx context.Context, token string) (auth.Session, error)
}

type sessionKey struct{}

// WithSession returns ctx carrying sess.
func WithSession(ctx context.Context, sess auth.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFromContext returns the session stored by the auth middleware.
func SessionFromContext(ctx context.Context) (auth.Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(auth.Session)
	return sess, ok
}

func credential(r *http.Request, header, query string) string {
	if v := r.Header.Get(header); v != "" {
		return v
	}
	return r.URL.Query().Get(query)
}

// RequireFacilitator admits requests carrying the admin key for the
// workspace in the {id} path segment.
func RequireFacilitator(salt string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workspaceID := r.PathValue("id")
		key := credential(r, AdminKeyHeader, adminKeyQuery)
		if workspaceID == "" || auth.ValidateAdminKey(workspaceID, key, salt) != nil {
			ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
			return
		}

		sess := auth.Session{WorkspaceID: workspaceID, Role: auth.RoleFacilitator}
		next(w, r.WithContext(WithSession(r.Context(), sess)))
	}
}

// RequireParticipant admits requests carrying a valid participant token.
// When the route has an {id} segment the token must belong to that workspace.
func RequireParticipant(lookup ParticipantLookup, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := resolveParticipant(w, r, lookup)
		if !ok {
			return
		}
		next(w, r.WithContext(WithSession(r.Context(), sess)))
	}
}

// RequireMember admits the workspace facilitator or any of its participants.
func RequireMember(salt string, lookup ParticipantLookup, next http.HandlerFunc) http.HandlerFunc {
	facilitator := RequireFacilitator(salt, next)
	participant := RequireParticipant(lookup, next)
	return func(w http.ResponseWriter, r *http.Request) {
		if credential(r, AdminKeyHeader, adminKeyQuery) != "" {
			facilitator(w, r)
			return
		}
		participant(w, r)
	}
}

func resolveParticipant(w http.ResponseWriter, r *http.Request, lookup ParticipantLookup) (auth.Session, bool) {
	token := credential(r, ParticipantTokenHeader, tokenQuery)
	if token == "" {
		ErrorResponse(w, http.StatusUnauthorized, "Missing participant token")
		return auth.Session{}, false
	}

	sess, err := lookup.ResolveParticipant(r.Context(), token)
	if errors.Is(err, auth.ErrInvalidToken) {
		ErrorResponse(w, http.StatusUnauthorized, "Invalid participant token")
		return auth.Session{}, false
	}
	if err != nil {
		slog.Error("failed to resolve participant", "error", err)
		ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return auth.Session{}, false
	}

	if id := r.PathValue("id"); id != "" && id != sess.WorkspaceID {
		ErrorResponse(w, http.StatusForbidden, "Token does not belong to this workspace")
		return auth.Session{}, false
	}
	return sess, true
}
