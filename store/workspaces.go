// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/envision/auth"
	"github.com/danielhkuo/envision/models"
	"github.com/danielhkuo/envision/ranking"
)

// CreateOrganization inserts an organization and returns it.
func (s *Store) CreateOrganization(ctx context.Context, name string) (models.Organization, error) {
	org := models.Organization{ID: auth.NewID(), Name: name, CreatedAt: s.now()}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO organization (id, name, created_at) VALUES ($1, $2, $3)`,
		org.ID, org.Name, org.CreatedAt)
	if err != nil {
		return models.Organization{}, fmt.Errorf("insert organization: %w", err)
	}
	return org, nil
}

// GetOrganization returns ErrNotFound if the organization does not exist.
func (s *Store) GetOrganization(ctx context.Context, id string) (models.Organization, error) {
	var org models.Organization
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM organization WHERE id = $1`, id,
	).Scan(&org.ID, &org.Name, &org.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Organization{}, ErrNotFound
	}
	if err != nil {
		return models.Organization{}, fmt.Errorf("query organization: %w", err)
	}
	return org, nil
}

const workspaceColumns = `id, organization_id, title, description, facilitator_name, status,
	join_code, modules, pairwise_scope, coin_budget, staircase_min, staircase_max,
	closed_at, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkspace(row rowScanner) (models.Workspace, error) {
	var (
		w        models.Workspace
		orgID    sql.NullString
		joinCode sql.NullString
		mods     string
		scope    string
		closedAt sql.NullTime
	)
	err := row.Scan(&w.ID, &orgID, &w.Title, &w.Description, &w.FacilitatorName, &w.Status,
		&joinCode, &mods, &scope, &w.CoinBudget, &w.StaircaseMin, &w.StaircaseMax,
		&closedAt, &w.CreatedAt)
	if err != nil {
		return models.Workspace{}, err
	}
	w.OrganizationID = stringPtr(orgID)
	w.JoinCode = stringPtr(joinCode)
	w.Modules = modules(mods)
	w.PairwiseScope = ranking.PairwiseScope(scope)
	w.ClosedAt = timePtr(closedAt)
	return w, nil
}

// CreateWorkspace inserts w in draft status. ID and CreatedAt are filled in.
func (s *Store) CreateWorkspace(ctx context.Context, w models.Workspace) (models.Workspace, error) {
	w.ID = auth.NewID()
	w.Status = models.StatusDraft
	w.CreatedAt = s.now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workspace (id, organization_id, title, description, facilitator_name, status,
			modules, pairwise_scope, coin_budget, staircase_min, staircase_max, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, w.ID, nullString(w.OrganizationID), w.Title, w.Description, w.FacilitatorName, w.Status,
		ranking.FormatModules(w.Modules), string(w.PairwiseScope), w.CoinBudget,
		w.StaircaseMin, w.StaircaseMax, w.CreatedAt)
	if err != nil {
		return models.Workspace{}, fmt.Errorf("insert workspace: %w", err)
	}
	return w, nil
}

// GetWorkspace returns ErrNotFound if the workspace does not exist.
func (s *Store) GetWorkspace(ctx context.Context, id string) (models.Workspace, error) {
	w, err := scanWorkspace(s.db.QueryRowContext(ctx,
		`SELECT `+workspaceColumns+` FROM workspace WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Workspace{}, ErrNotFound
	}
	if err != nil {
		return models.Workspace{}, fmt.Errorf("query workspace: %w", err)
	}
	return w, nil
}

// GetWorkspaceByJoinCode looks up a published workspace.
func (s *Store) GetWorkspaceByJoinCode(ctx context.Context, code string) (models.Workspace, error) {
	w, err := scanWorkspace(s.db.QueryRowContext(ctx,
		`SELECT `+workspaceColumns+` FROM workspace WHERE join_code = $1`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Workspace{}, ErrNotFound
	}
	if err != nil {
		return models.Workspace{}, fmt.Errorf("query workspace by join code: %w", err)
	}
	return w, nil
}

// ListWorkspaces returns an organization's workspaces, newest first.
func (s *Store) ListWorkspaces(ctx context.Context, organizationID string) ([]models.Workspace, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+workspaceColumns+` FROM workspace WHERE organization_id = $1 ORDER BY created_at DESC, id`,
		organizationID)
	if err != nil {
		return nil, fmt.Errorf("query workspaces: %w", err)
	}
	defer rows.Close()

	out := []models.Workspace{}
	for rows.Next() {
		w, err := scanWorkspace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan workspace: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// UpdateWorkspaceSettings writes the module and voting settings of w.
func (s *Store) UpdateWorkspaceSettings(ctx context.Context, w models.Workspace) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE workspace
		SET modules = $1, pairwise_scope = $2, coin_budget = $3, staircase_min = $4, staircase_max = $5
		WHERE id = $6
	`, ranking.FormatModules(w.Modules), string(w.PairwiseScope), w.CoinBudget,
		w.StaircaseMin, w.StaircaseMax, w.ID)
	if err != nil {
		return fmt.Errorf("update workspace settings: %w", err)
	}
	return expectOne(res)
}

// PublishWorkspace moves a draft workspace to open with the given join code.
// Returns ErrConflict if the workspace is not in draft.
func (s *Store) PublishWorkspace(ctx context.Context, id, joinCode string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE workspace SET status = $1, join_code = $2 WHERE id = $3 AND status = $4`,
		models.StatusOpen, joinCode, id, models.StatusDraft)
	if err != nil {
		return fmt.Errorf("publish workspace: %w", err)
	}
	return s.conflictUnlessExists(ctx, res, id)
}

// CloseWorkspace moves an open workspace to closed.
func (s *Store) CloseWorkspace(ctx context.Context, id string) (time.Time, error) {
	closedAt := s.now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE workspace SET status = $1, closed_at = $2 WHERE id = $3 AND status = $4`,
		models.StatusClosed, closedAt, id, models.StatusOpen)
	if err != nil {
		return time.Time{}, fmt.Errorf("close workspace: %w", err)
	}
	if err := s.conflictUnlessExists(ctx, res, id); err != nil {
		return time.Time{}, err
	}
	return closedAt, nil
}

// conflictUnlessExists maps a zero-row update to ErrNotFound or ErrConflict.
func (s *Store) conflictUnlessExists(ctx context.Context, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := s.GetWorkspace(ctx, id); err != nil {
		return err
	}
	return ErrConflict
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
