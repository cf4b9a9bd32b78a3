// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/danielhkuo/envision/auth"
	"github.com/danielhkuo/envision/models"
)

// CreateParticipant joins displayName to the workspace with a fresh token.
// Returns ErrConflict if the name is already taken in the workspace.
func (s *Store) CreateParticipant(ctx context.Context, workspaceID, displayName string) (models.Participant, error) {
	token, err := auth.GenerateParticipantToken()
	if err != nil {
		return models.Participant{}, err
	}
	p := models.Participant{
		ID:          auth.NewID(),
		WorkspaceID: workspaceID,
		DisplayName: displayName,
		Token:       token,
		CreatedAt:   s.now(),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO participant (id, workspace_id, display_name, token, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, p.ID, p.WorkspaceID, p.DisplayName, p.Token, p.CreatedAt)
	if isUniqueViolation(err) {
		return models.Participant{}, ErrConflict
	}
	if err != nil {
		return models.Participant{}, fmt.Errorf("insert participant: %w", err)
	}
	return p, nil
}

// GetParticipantByToken returns ErrNotFound for unknown tokens.
func (s *Store) GetParticipantByToken(ctx context.Context, token string) (models.Participant, error) {
	var p models.Participant
	err := s.db.QueryRowContext(ctx, `
		SELECT id, workspace_id, display_name, token, created_at
		FROM participant WHERE token = $1
	`, token).Scan(&p.ID, &p.WorkspaceID, &p.DisplayName, &p.Token, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Participant{}, ErrNotFound
	}
	if err != nil {
		return models.Participant{}, fmt.Errorf("query participant: %w", err)
	}
	return p, nil
}

// ResolveParticipant turns a participant token into a Session.
func (s *Store) ResolveParticipant(ctx context.Context, token string) (auth.Session, error) {
	if token == "" {
		return auth.Session{}, auth.ErrInvalidToken
	}
	p, err := s.GetParticipantByToken(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return auth.Session{}, auth.ErrInvalidToken
	}
	if err != nil {
		return auth.Session{}, err
	}
	return auth.Session{WorkspaceID: p.WorkspaceID, ParticipantID: p.ID, Role: auth.RoleParticipant}, nil
}

// GetParticipant returns a participant of the workspace.
func (s *Store) GetParticipant(ctx context.Context, workspaceID, id string) (models.Participant, error) {
	var p models.Participant
	err := s.db.QueryRowContext(ctx, `
		SELECT id, workspace_id, display_name, token, created_at
		FROM participant WHERE workspace_id = $1 AND id = $2
	`, workspaceID, id).Scan(&p.ID, &p.WorkspaceID, &p.DisplayName, &p.Token, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Participant{}, ErrNotFound
	}
	if err != nil {
		return models.Participant{}, fmt.Errorf("query participant: %w", err)
	}
	return p, nil
}

// ListParticipants returns participants in join order.
func (s *Store) ListParticipants(ctx context.Context, workspaceID string) ([]models.Participant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, workspace_id, display_name, token, created_at
		FROM participant WHERE workspace_id = $1
		ORDER BY created_at, id
	`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("query participants: %w", err)
	}
	defer rows.Close()

	out := []models.Participant{}
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.WorkspaceID, &p.DisplayName, &p.Token, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
