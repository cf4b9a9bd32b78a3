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

// CreateCategory appends a category to the workspace.
// Returns ErrConflict if the name exists.
func (s *Store) CreateCategory(ctx context.Context, workspaceID, name, color string) (models.Category, error) {
	var c models.Category
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		c, err = createCategoryTx(ctx, tx, workspaceID, name, color)
		return err
	})
	return c, err
}

func createCategoryTx(ctx context.Context, tx *sql.Tx, workspaceID, name, color string) (models.Category, error) {
	var next int
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), -1) + 1 FROM category WHERE workspace_id = $1`,
		workspaceID).Scan(&next)
	if err != nil {
		return models.Category{}, fmt.Errorf("query category position: %w", err)
	}

	c := models.Category{ID: auth.NewID(), WorkspaceID: workspaceID, Name: name, Color: color, Position: next}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO category (id, workspace_id, name, color, position)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.WorkspaceID, c.Name, c.Color, c.Position)
	if isUniqueViolation(err) {
		return models.Category{}, ErrConflict
	}
	if err != nil {
		return models.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

// ListCategories returns categories in display order.
func (s *Store) ListCategories(ctx context.Context, workspaceID string) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, workspace_id, name, color, position
		FROM category WHERE workspace_id = $1
		ORDER BY position, id
	`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	out := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.WorkspaceID, &c.Name, &c.Color, &c.Position); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCategory returns ErrNotFound unless the category belongs to the workspace.
func (s *Store) GetCategory(ctx context.Context, workspaceID, id string) (models.Category, error) {
	var c models.Category
	err := s.db.QueryRowContext(ctx, `
		SELECT id, workspace_id, name, color, position
		FROM category WHERE workspace_id = $1 AND id = $2
	`, workspaceID, id).Scan(&c.ID, &c.WorkspaceID, &c.Name, &c.Color, &c.Position)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Category{}, ErrNotFound
	}
	if err != nil {
		return models.Category{}, fmt.Errorf("query category: %w", err)
	}
	return c, nil
}

// categoryIDsByName maps existing category names to ids inside tx.
func categoryIDsByName(ctx context.Context, tx *sql.Tx, workspaceID string) (map[string]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id, name FROM category WHERE workspace_id = $1`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out[name] = id
	}
	return out, rows.Err()
}
