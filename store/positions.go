// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"

	"github.com/danielhkuo/envision/models"
)

// UpsertMatrixPosition stores one position per (note, run).
func (s *Store) UpsertMatrixPosition(ctx context.Context, workspaceID string, p models.MatrixPosition) (models.MatrixPosition, error) {
	p.UpdatedAt = s.now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO matrix_position (workspace_id, note_id, run_id, x, y, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (workspace_id, note_id, run_id)
		DO UPDATE SET x = excluded.x, y = excluded.y, updated_at = excluded.updated_at
	`, workspaceID, p.NoteID, p.RunID, p.X, p.Y, p.UpdatedAt)
	if err != nil {
		return models.MatrixPosition{}, fmt.Errorf("upsert matrix position: %w", err)
	}
	return p, nil
}

// ListMatrixPositions returns all matrix positions in the workspace.
func (s *Store) ListMatrixPositions(ctx context.Context, workspaceID string) ([]models.MatrixPosition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT note_id, run_id, x, y, updated_at FROM matrix_position
		WHERE workspace_id = $1
		ORDER BY run_id, note_id
	`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("query matrix positions: %w", err)
	}
	defer rows.Close()

	out := []models.MatrixPosition{}
	for rows.Next() {
		var p models.MatrixPosition
		if err := rows.Scan(&p.NoteID, &p.RunID, &p.X, &p.Y, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan matrix position: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpsertStaircasePosition stores one position per (note, run).
func (s *Store) UpsertStaircasePosition(ctx context.Context, workspaceID string, p models.StaircasePosition) (models.StaircasePosition, error) {
	p.UpdatedAt = s.now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO staircase_position (workspace_id, note_id, run_id, score, slot_offset, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (workspace_id, note_id, run_id)
		DO UPDATE SET score = excluded.score, slot_offset = excluded.slot_offset, updated_at = excluded.updated_at
	`, workspaceID, p.NoteID, p.RunID, p.Score, p.SlotOffset, p.UpdatedAt)
	if err != nil {
		return models.StaircasePosition{}, fmt.Errorf("upsert staircase position: %w", err)
	}
	return p, nil
}

// ListStaircasePositions returns all staircase positions in the workspace.
func (s *Store) ListStaircasePositions(ctx context.Context, workspaceID string) ([]models.StaircasePosition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT note_id, run_id, score, slot_offset, updated_at FROM staircase_position
		WHERE workspace_id = $1
		ORDER BY run_id, note_id
	`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("query staircase positions: %w", err)
	}
	defer rows.Close()

	out := []models.StaircasePosition{}
	for rows.Next() {
		var p models.StaircasePosition
		if err := rows.Scan(&p.NoteID, &p.RunID, &p.Score, &p.SlotOffset, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan staircase position: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
