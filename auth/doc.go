// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides identifiers, workspace keys, and the request Session.

# Admin Keys

Facilitators authenticate with an HMAC-SHA256 admin key derived from the
workspace ID:

	adminKey := auth.GenerateAdminKey(workspaceID, salt)
	err := auth.ValidateAdminKey(workspaceID, adminKey, salt)

The key is deterministic, so it never needs to be stored.

# Participant Tokens

Participants receive a random 24-byte token when they join:

	token, err := auth.GenerateParticipantToken()

The token is stored on the participant row and sent back in the
X-Participant-Token header on every voting call.

# Join Codes

Published workspaces get a short base62 join code:

	code := auth.GenerateJoinCode(workspaceID, salt)

# Sessions

Session is the explicit "who is acting" value. Middleware resolves it from
the admin key or participant token and handlers pass it down; nothing looks
the caller up from ambient state.
*/
package auth
