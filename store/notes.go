// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/danielhkuo/envision/auth"
	"github.com/danielhkuo/envision/models"
	"github.com/danielhkuo/envision/ranking"
)

const noteColumns = `id, workspace_id, content, category_id, source, author_id, hidden_modules, created_at, updated_at`

func scanNote(row rowScanner) (models.Note, error) {
	var (
		n          models.Note
		categoryID sql.NullString
		authorID   sql.NullString
		hidden     string
	)
	err := row.Scan(&n.ID, &n.WorkspaceID, &n.Content, &categoryID, &n.Source, &authorID,
		&hidden, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return models.Note{}, err
	}
	n.CategoryID = stringPtr(categoryID)
	n.AuthorID = stringPtr(authorID)
	n.HiddenModules = modules(hidden)
	return n, nil
}

// CreateNote inserts n. ID and timestamps are filled in.
func (s *Store) CreateNote(ctx context.Context, n models.Note) (models.Note, error) {
	n.ID = auth.NewID()
	n.CreatedAt = s.now()
	n.UpdatedAt = n.CreatedAt
	if err := insertNote(ctx, s.db, n); err != nil {
		return models.Note{}, err
	}
	return n, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertNote(ctx context.Context, db execer, n models.Note) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO note (id, workspace_id, content, category_id, source, author_id, hidden_modules, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, n.ID, n.WorkspaceID, n.Content, nullString(n.CategoryID), n.Source, nullString(n.AuthorID),
		ranking.FormatModules(n.HiddenModules), n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

// GetNote returns ErrNotFound unless the note belongs to the workspace.
func (s *Store) GetNote(ctx context.Context, workspaceID, id string) (models.Note, error) {
	n, err := scanNote(s.db.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM note WHERE workspace_id = $1 AND id = $2`, workspaceID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Note{}, ErrNotFound
	}
	if err != nil {
		return models.Note{}, fmt.Errorf("query note: %w", err)
	}
	return n, nil
}

// ListNotes returns all notes of the workspace in creation order.
func (s *Store) ListNotes(ctx context.Context, workspaceID string) ([]models.Note, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM note WHERE workspace_id = $1 ORDER BY created_at, id`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	out := []models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// ListNotesFor returns the notes visible in module kind.
func (s *Store) ListNotesFor(ctx context.Context, workspaceID string, kind ranking.ModuleKind) ([]models.Note, error) {
	all, err := s.ListNotes(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, n := range all {
		if n.VisibleIn(kind) {
			out = append(out, n)
		}
	}
	return out, nil
}

// UpdateNote writes content, category and hidden modules of n.
func (s *Store) UpdateNote(ctx context.Context, n models.Note) (models.Note, error) {
	n.UpdatedAt = s.now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE note SET content = $1, category_id = $2, hidden_modules = $3, updated_at = $4
		WHERE workspace_id = $5 AND id = $6
	`, n.Content, nullString(n.CategoryID), ranking.FormatModules(n.HiddenModules), n.UpdatedAt,
		n.WorkspaceID, n.ID)
	if err != nil {
		return models.Note{}, fmt.Errorf("update note: %w", err)
	}
	if err := expectOne(res); err != nil {
		return models.Note{}, err
	}
	return n, nil
}

// DeleteNote removes the note and, through cascades, its votes and positions.
func (s *Store) DeleteNote(ctx context.Context, workspaceID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM note WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return expectOne(res)
}

// ImportNotes inserts a batch of notes in one transaction, creating any
// category named by the batch that does not exist yet. Either every note is
// stored or none.
func (s *Store) ImportNotes(ctx context.Context, workspaceID string, notes []models.ImportNote) (imported, categoriesCreated int, err error) {
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		byName, err := categoryIDsByName(ctx, tx, workspaceID)
		if err != nil {
			return err
		}

		now := s.now()
		for _, in := range notes {
			n := models.Note{
				ID:          auth.NewID(),
				WorkspaceID: workspaceID,
				Content:     strings.TrimSpace(in.Content),
				Source:      models.SourceImport,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if name := strings.TrimSpace(in.Category); name != "" {
				id, ok := byName[name]
				if !ok {
					c, err := createCategoryTx(ctx, tx, workspaceID, name, "")
					if err != nil {
						return err
					}
					id = c.ID
					byName[name] = id
					categoriesCreated++
				}
				n.CategoryID = &id
			}
			if err := insertNote(ctx, tx, n); err != nil {
				return err
			}
			imported++
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return imported, categoriesCreated, nil
}

// AssignCategories sets each note's category by name, creating missing
// categories. Notes that are not in the workspace are skipped.
func (s *Store) AssignCategories(ctx context.Context, workspaceID string, assignments map[string]string) (assigned, categoriesCreated int, err error) {
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		byName, err := categoryIDsByName(ctx, tx, workspaceID)
		if err != nil {
			return err
		}

		noteIDs := make([]string, 0, len(assignments))
		for id := range assignments {
			noteIDs = append(noteIDs, id)
		}
		sort.Strings(noteIDs)

		now := s.now()
		for _, noteID := range noteIDs {
			name := strings.TrimSpace(assignments[noteID])
			if name == "" {
				continue
			}
			id, ok := byName[name]
			if !ok {
				c, err := createCategoryTx(ctx, tx, workspaceID, name, "")
				if err != nil {
					return err
				}
				id = c.ID
				byName[name] = id
				categoriesCreated++
			}
			res, err := tx.ExecContext(ctx,
				`UPDATE note SET category_id = $1, updated_at = $2 WHERE workspace_id = $3 AND id = $4`,
				id, now, workspaceID, noteID)
			if err != nil {
				return fmt.Errorf("assign category: %w", err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				assigned++
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return assigned, categoriesCreated, nil
}
