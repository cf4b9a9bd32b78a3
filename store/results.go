// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/danielhkuo/envision/auth"
	"github.com/danielhkuo/envision/models"
)

// InsertCohortResult stores a new cohort result. Older rows are kept.
func (s *Store) InsertCohortResult(ctx context.Context, workspaceID, model string, payload []byte) (models.StoredResult, error) {
	r := models.StoredResult{
		ID:          auth.NewID(),
		WorkspaceID: workspaceID,
		Model:       model,
		Payload:     json.RawMessage(payload),
		CreatedAt:   s.now(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cohort_result (id, workspace_id, model, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, r.ID, r.WorkspaceID, r.Model, string(payload), r.CreatedAt)
	if err != nil {
		return models.StoredResult{}, fmt.Errorf("insert cohort result: %w", err)
	}
	return r, nil
}

// LatestCohortResult returns the newest cohort result or ErrNotFound.
func (s *Store) LatestCohortResult(ctx context.Context, workspaceID string) (models.StoredResult, error) {
	var (
		r       models.StoredResult
		payload string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, workspace_id, model, payload, created_at FROM cohort_result
		WHERE workspace_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, workspaceID).Scan(&r.ID, &r.WorkspaceID, &r.Model, &payload, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.StoredResult{}, ErrNotFound
	}
	if err != nil {
		return models.StoredResult{}, fmt.Errorf("query cohort result: %w", err)
	}
	r.Payload = json.RawMessage(payload)
	return r, nil
}

// InsertPersonalizedResult stores a new personalized result for a participant.
func (s *Store) InsertPersonalizedResult(ctx context.Context, workspaceID, participantID, model string, payload []byte) (models.StoredResult, error) {
	pid := participantID
	r := models.StoredResult{
		ID:            auth.NewID(),
		WorkspaceID:   workspaceID,
		ParticipantID: &pid,
		Model:         model,
		Payload:       json.RawMessage(payload),
		CreatedAt:     s.now(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO personalized_result (id, workspace_id, participant_id, model, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.ID, r.WorkspaceID, participantID, r.Model, string(payload), r.CreatedAt)
	if err != nil {
		return models.StoredResult{}, fmt.Errorf("insert personalized result: %w", err)
	}
	return r, nil
}

// LatestPersonalizedResult returns the participant's newest result or ErrNotFound.
func (s *Store) LatestPersonalizedResult(ctx context.Context, workspaceID, participantID string) (models.StoredResult, error) {
	var (
		r       models.StoredResult
		pid     string
		payload string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, workspace_id, participant_id, model, payload, created_at FROM personalized_result
		WHERE workspace_id = $1 AND participant_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, workspaceID, participantID).Scan(&r.ID, &r.WorkspaceID, &pid, &r.Model, &payload, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.StoredResult{}, ErrNotFound
	}
	if err != nil {
		return models.StoredResult{}, fmt.Errorf("query personalized result: %w", err)
	}
	r.ParticipantID = &pid
	r.Payload = json.RawMessage(payload)
	return r, nil
}

// CountResults reports stored cohort and personalized rows for a workspace.
func (s *Store) CountResults(ctx context.Context, workspaceID string) (cohort, personalized int, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cohort_result WHERE workspace_id = $1`, workspaceID).Scan(&cohort)
	if err != nil {
		return 0, 0, fmt.Errorf("count cohort results: %w", err)
	}
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM personalized_result WHERE workspace_id = $1`, workspaceID).Scan(&personalized)
	if err != nil {
		return 0, 0, fmt.Errorf("count personalized results: %w", err)
	}
	return cohort, personalized, nil
}
