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

// CreateSurveyQuestion appends a question to the workspace survey.
func (s *Store) CreateSurveyQuestion(ctx context.Context, workspaceID, prompt string) (models.SurveyQuestion, error) {
	q := models.SurveyQuestion{ID: auth.NewID(), WorkspaceID: workspaceID, Prompt: prompt}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(position), -1) + 1 FROM survey_question WHERE workspace_id = $1`,
			workspaceID).Scan(&q.Position)
		if err != nil {
			return fmt.Errorf("query question position: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO survey_question (id, workspace_id, prompt, position)
			VALUES ($1, $2, $3, $4)
		`, q.ID, q.WorkspaceID, q.Prompt, q.Position)
		if err != nil {
			return fmt.Errorf("insert survey question: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.SurveyQuestion{}, err
	}
	return q, nil
}

// ListSurveyQuestions returns questions in display order.
func (s *Store) ListSurveyQuestions(ctx context.Context, workspaceID string) ([]models.SurveyQuestion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, workspace_id, prompt, position FROM survey_question
		WHERE workspace_id = $1
		ORDER BY position, id
	`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("query survey questions: %w", err)
	}
	defer rows.Close()

	out := []models.SurveyQuestion{}
	for rows.Next() {
		var q models.SurveyQuestion
		if err := rows.Scan(&q.ID, &q.WorkspaceID, &q.Prompt, &q.Position); err != nil {
			return nil, fmt.Errorf("scan survey question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// ReplaceSurveyResponses replaces, for every note in answers, the
// participant's responses to that note. Runs in one transaction.
func (s *Store) ReplaceSurveyResponses(ctx context.Context, workspaceID, participantID string, answers []models.SurveyAnswer) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		cleared := make(map[string]bool)
		for _, a := range answers {
			if cleared[a.NoteID] {
				continue
			}
			cleared[a.NoteID] = true
			_, err := tx.ExecContext(ctx, `
				DELETE FROM survey_response
				WHERE workspace_id = $1 AND participant_id = $2 AND note_id = $3
			`, workspaceID, participantID, a.NoteID)
			if err != nil {
				return fmt.Errorf("delete survey responses: %w", err)
			}
		}

		now := s.now()
		for _, a := range answers {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO survey_response (workspace_id, participant_id, note_id, question_id, score, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (participant_id, note_id, question_id)
				DO UPDATE SET score = excluded.score, updated_at = excluded.updated_at
			`, workspaceID, participantID, a.NoteID, a.QuestionID, a.Score, now)
			if err != nil {
				return fmt.Errorf("insert survey response: %w", err)
			}
		}
		return nil
	})
}

// ListSurveyResponses returns every survey response in the workspace.
func (s *Store) ListSurveyResponses(ctx context.Context, workspaceID string) ([]ranking.SurveyRow, error) {
	return s.querySurvey(ctx, `
		SELECT participant_id, note_id, question_id, score FROM survey_response
		WHERE workspace_id = $1
		ORDER BY participant_id, note_id, question_id
	`, workspaceID)
}

// ListParticipantSurveyResponses returns one participant's responses.
func (s *Store) ListParticipantSurveyResponses(ctx context.Context, workspaceID, participantID string) ([]ranking.SurveyRow, error) {
	return s.querySurvey(ctx, `
		SELECT participant_id, note_id, question_id, score FROM survey_response
		WHERE workspace_id = $1 AND participant_id = $2
		ORDER BY note_id, question_id
	`, workspaceID, participantID)
}

func (s *Store) querySurvey(ctx context.Context, query string, args ...any) ([]ranking.SurveyRow, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query survey responses: %w", err)
	}
	defer rows.Close()

	var out []ranking.SurveyRow
	for rows.Next() {
		var r ranking.SurveyRow
		if err := rows.Scan(&r.ParticipantID, &r.NoteID, &r.QuestionID, &r.Score); err != nil {
			return nil, fmt.Errorf("scan survey response: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
