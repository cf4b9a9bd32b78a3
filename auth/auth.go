// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidAdminKey = errors.New("invalid admin key")
	ErrInvalidToken    = errors.New("invalid token format")
)

// Roles carried by a Session.
const (
	RoleFacilitator = "facilitator"
	RoleParticipant = "participant"
)

// Session identifies who is acting in a workspace. It is resolved from
// request headers by middleware and passed explicitly to every call that
// needs to know the caller.
type Session struct {
	WorkspaceID   string
	ParticipantID string // empty for facilitators
	Role          string
}

// IsFacilitator reports whether the session holds the workspace admin key.
func (s Session) IsFacilitator() bool { return s.Role == RoleFacilitator }

// NewID returns a random UUID string for database records.
func NewID() string {
	return uuid.NewString()
}

// GenerateAdminKey creates an HMAC-based admin key for a workspace
// This is deterministic and verifiable
func GenerateAdminKey(workspaceID, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(workspaceID))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner keys
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidateAdminKey checks if the provided admin key is valid for the workspace
func ValidateAdminKey(workspaceID, adminKey, salt string) error {
	if adminKey == "" {
		return ErrInvalidAdminKey
	}
	expected := GenerateAdminKey(workspaceID, salt)
	if !hmac.Equal([]byte(adminKey), []byte(expected)) {
		return ErrInvalidAdminKey
	}
	return nil
}

// GenerateParticipantToken creates a random secure token for a participant.
// The token is the participant's capability for every voting call.
func GenerateParticipantToken() (string, error) {
	b := make([]byte, 24) // 192 bits of entropy
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate participant token: %w", err)
	}
	return strings.TrimRight(base64.URLEncoding.EncodeToString(b), "="), nil
}

// GenerateJoinCode creates a short, deterministic join code for a workspace
// Uses HMAC for determinism and base62 encoding for URL-friendliness
func GenerateJoinCode(workspaceID, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(workspaceID))
	sum := h.Sum(nil)

	// First 8 bytes are plenty for a join code
	return base62Encode(sum[:8])
}

// base62Encode converts bytes to base62 (0-9, a-z, A-Z)
func base62Encode(data []byte) string {
	const base62Chars = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	var num uint64
	for i := 0; i < len(data) && i < 8; i++ {
		num = num<<8 | uint64(data[i])
	}

	if num == 0 {
		return "0"
	}

	result := make([]byte, 0, 11) // max length for uint64
	for num > 0 {
		result = append(result, base62Chars[num%62])
		num /= 62
	}

	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}

	return string(result)
}
