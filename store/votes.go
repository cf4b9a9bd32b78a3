// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danielhkuo/envision/auth"
	"github.com/danielhkuo/envision/models"
	"github.com/danielhkuo/envision/ranking"
)

// CreateVote appends a pairwise vote. Votes are never deduplicated.
func (s *Store) CreateVote(ctx context.Context, v models.Vote) (models.Vote, error) {
	v.ID = auth.NewID()
	v.CreatedAt = s.now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vote (id, workspace_id, participant_id, winner_note_id, loser_note_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, v.ID, v.WorkspaceID, v.ParticipantID, v.WinnerNoteID, v.LoserNoteID, v.CreatedAt)
	if err != nil {
		return models.Vote{}, fmt.Errorf("insert vote: %w", err)
	}
	return v, nil
}

// ListVotes returns every vote in the workspace.
func (s *Store) ListVotes(ctx context.Context, workspaceID string) ([]ranking.VoteRow, error) {
	return s.queryVotes(ctx, `
		SELECT participant_id, winner_note_id, loser_note_id
		FROM vote WHERE workspace_id = $1
		ORDER BY created_at, id
	`, workspaceID)
}

// ListParticipantVotes returns one participant's votes.
func (s *Store) ListParticipantVotes(ctx context.Context, workspaceID, participantID string) ([]ranking.VoteRow, error) {
	return s.queryVotes(ctx, `
		SELECT participant_id, winner_note_id, loser_note_id
		FROM vote WHERE workspace_id = $1 AND participant_id = $2
		ORDER BY created_at, id
	`, workspaceID, participantID)
}

func (s *Store) queryVotes(ctx context.Context, query string, args ...any) ([]ranking.VoteRow, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query votes: %w", err)
	}
	defer rows.Close()

	var out []ranking.VoteRow
	for rows.Next() {
		var v ranking.VoteRow
		if err := rows.Scan(&v.ParticipantID, &v.WinnerID, &v.LoserID); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ReplaceRankings swaps a participant's ranking rows for entries in one
// transaction. The caller validates entries first.
func (s *Store) ReplaceRankings(ctx context.Context, workspaceID, participantID string, entries []ranking.RankEntry) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM ranking WHERE workspace_id = $1 AND participant_id = $2`,
			workspaceID, participantID)
		if err != nil {
			return fmt.Errorf("delete rankings: %w", err)
		}

		now := s.now()
		for _, e := range entries {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO ranking (workspace_id, participant_id, note_id, rank, updated_at)
				VALUES ($1, $2, $3, $4, $5)
			`, workspaceID, participantID, e.NoteID, e.Rank, now)
			if err != nil {
				return fmt.Errorf("insert ranking: %w", err)
			}
		}
		return nil
	})
}

// ListRankings returns every ranking row in the workspace.
func (s *Store) ListRankings(ctx context.Context, workspaceID string) ([]ranking.RankRow, error) {
	return s.queryRankings(ctx, `
		SELECT participant_id, note_id, rank FROM ranking
		WHERE workspace_id = $1
		ORDER BY participant_id, rank
	`, workspaceID)
}

// ListParticipantRankings returns one participant's ranking in rank order.
func (s *Store) ListParticipantRankings(ctx context.Context, workspaceID, participantID string) ([]ranking.RankRow, error) {
	return s.queryRankings(ctx, `
		SELECT participant_id, note_id, rank FROM ranking
		WHERE workspace_id = $1 AND participant_id = $2
		ORDER BY rank, note_id
	`, workspaceID, participantID)
}

func (s *Store) queryRankings(ctx context.Context, query string, args ...any) ([]ranking.RankRow, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rankings: %w", err)
	}
	defer rows.Close()

	var out []ranking.RankRow
	for rows.Next() {
		var r ranking.RankRow
		if err := rows.Scan(&r.ParticipantID, &r.NoteID, &r.Rank); err != nil {
			return nil, fmt.Errorf("scan ranking: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ReplaceAllocations swaps a participant's marketplace allocations for
// entries in one transaction. The caller validates entries first.
func (s *Store) ReplaceAllocations(ctx context.Context, workspaceID, participantID string, entries []ranking.AllocationEntry) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM marketplace_allocation WHERE workspace_id = $1 AND participant_id = $2`,
			workspaceID, participantID)
		if err != nil {
			return fmt.Errorf("delete allocations: %w", err)
		}

		now := s.now()
		for _, e := range entries {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO marketplace_allocation (workspace_id, participant_id, note_id, coins, updated_at)
				VALUES ($1, $2, $3, $4, $5)
			`, workspaceID, participantID, e.NoteID, e.Coins, now)
			if err != nil {
				return fmt.Errorf("insert allocation: %w", err)
			}
		}
		return nil
	})
}

// ListAllocations returns every allocation in the workspace.
func (s *Store) ListAllocations(ctx context.Context, workspaceID string) ([]ranking.AllocationRow, error) {
	return s.queryAllocations(ctx, `
		SELECT participant_id, note_id, coins FROM marketplace_allocation
		WHERE workspace_id = $1
		ORDER BY participant_id, note_id
	`, workspaceID)
}

// ListParticipantAllocations returns one participant's allocations.
func (s *Store) ListParticipantAllocations(ctx context.Context, workspaceID, participantID string) ([]ranking.AllocationRow, error) {
	return s.queryAllocations(ctx, `
		SELECT participant_id, note_id, coins FROM marketplace_allocation
		WHERE workspace_id = $1 AND participant_id = $2
		ORDER BY note_id
	`, workspaceID, participantID)
}

func (s *Store) queryAllocations(ctx context.Context, query string, args ...any) ([]ranking.AllocationRow, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query allocations: %w", err)
	}
	defer rows.Close()

	var out []ranking.AllocationRow
	for rows.Next() {
		var a ranking.AllocationRow
		if err := rows.Scan(&a.ParticipantID, &a.NoteID, &a.Coins); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
