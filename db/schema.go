// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The DDL is restricted to the subset shared by PostgreSQL and SQLite.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// DropSchema removes every table. Only used by tests.
func DropSchema(db *sql.DB) error {
	_, err := db.Exec(dropSchema)
	if err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}
	return nil
}

const dropSchema = `
DROP TABLE IF EXISTS personalized_result;
DROP TABLE IF EXISTS cohort_result;
DROP TABLE IF EXISTS survey_response;
DROP TABLE IF EXISTS survey_question;
DROP TABLE IF EXISTS staircase_position;
DROP TABLE IF EXISTS matrix_position;
DROP TABLE IF EXISTS marketplace_allocation;
DROP TABLE IF EXISTS ranking;
DROP TABLE IF EXISTS vote;
DROP TABLE IF EXISTS note;
DROP TABLE IF EXISTS participant;
DROP TABLE IF EXISTS category;
DROP TABLE IF EXISTS workspace;
DROP TABLE IF EXISTS organization;
`

const schema = `
-- Organizations
CREATE TABLE IF NOT EXISTS organization (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

-- Workspaces (one workshop each)
CREATE TABLE IF NOT EXISTS workspace (
    id TEXT PRIMARY KEY,
    organization_id TEXT REFERENCES organization(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    facilitator_name TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'open', 'closed')),
    join_code TEXT UNIQUE,
    modules TEXT NOT NULL DEFAULT '',
    pairwise_scope TEXT NOT NULL DEFAULT 'all' CHECK (pairwise_scope IN ('all', 'within_categories')),
    coin_budget INTEGER NOT NULL DEFAULT 100,
    staircase_min DOUBLE PRECISION NOT NULL DEFAULT 0,
    staircase_max DOUBLE PRECISION NOT NULL DEFAULT 10,
    closed_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_workspace_join_code ON workspace(join_code);
CREATE INDEX IF NOT EXISTS idx_workspace_organization ON workspace(organization_id);

-- Categories
CREATE TABLE IF NOT EXISTS category (
    id TEXT PRIMARY KEY,
    workspace_id TEXT NOT NULL REFERENCES workspace(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    color TEXT NOT NULL DEFAULT '',
    position INTEGER NOT NULL DEFAULT 0,
    UNIQUE (workspace_id, name)
);

-- Participants
CREATE TABLE IF NOT EXISTS participant (
    id TEXT PRIMARY KEY,
    workspace_id TEXT NOT NULL REFERENCES workspace(id) ON DELETE CASCADE,
    display_name TEXT NOT NULL,
    token TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP NOT NULL,
    UNIQUE (workspace_id, display_name)
);

CREATE INDEX IF NOT EXISTS idx_participant_workspace ON participant(workspace_id);

-- Notes (ideas)
CREATE TABLE IF NOT EXISTS note (
    id TEXT PRIMARY KEY,
    workspace_id TEXT NOT NULL REFERENCES workspace(id) ON DELETE CASCADE,
    content TEXT NOT NULL,
    category_id TEXT REFERENCES category(id) ON DELETE SET NULL,
    source TEXT NOT NULL CHECK (source IN ('participant', 'facilitator', 'import')),
    author_id TEXT REFERENCES participant(id) ON DELETE SET NULL,
    hidden_modules TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_note_workspace ON note(workspace_id);

-- Pairwise votes (append-only)
CREATE TABLE IF NOT EXISTS vote (
    id TEXT PRIMARY KEY,
    workspace_id TEXT NOT NULL REFERENCES workspace(id) ON DELETE CASCADE,
    participant_id TEXT NOT NULL REFERENCES participant(id) ON DELETE CASCADE,
    winner_note_id TEXT NOT NULL REFERENCES note(id) ON DELETE CASCADE,
    loser_note_id TEXT NOT NULL REFERENCES note(id) ON DELETE CASCADE,
    created_at TIMESTAMP NOT NULL,
    CHECK (winner_note_id <> loser_note_id)
);

CREATE INDEX IF NOT EXISTS idx_vote_workspace ON vote(workspace_id);
CREATE INDEX IF NOT EXISTS idx_vote_participant ON vote(workspace_id, participant_id);

-- Stack rankings
CREATE TABLE IF NOT EXISTS ranking (
    workspace_id TEXT NOT NULL REFERENCES workspace(id) ON DELETE CASCADE,
    participant_id TEXT NOT NULL REFERENCES participant(id) ON DELETE CASCADE,
    note_id TEXT NOT NULL REFERENCES note(id) ON DELETE CASCADE,
    rank INTEGER NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (participant_id, note_id)
);

CREATE INDEX IF NOT EXISTS idx_ranking_workspace ON ranking(workspace_id);

-- Marketplace coin allocations
CREATE TABLE IF NOT EXISTS marketplace_allocation (
    workspace_id TEXT NOT NULL REFERENCES workspace(id) ON DELETE CASCADE,
    participant_id TEXT NOT NULL REFERENCES participant(id) ON DELETE CASCADE,
    note_id TEXT NOT NULL REFERENCES note(id) ON DELETE CASCADE,
    coins INTEGER NOT NULL CHECK (coins >= 0),
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (participant_id, note_id)
);

CREATE INDEX IF NOT EXISTS idx_allocation_workspace ON marketplace_allocation(workspace_id);

-- Priority matrix positions (one per note per module run)
CREATE TABLE IF NOT EXISTS matrix_position (
    workspace_id TEXT NOT NULL REFERENCES workspace(id) ON DELETE CASCADE,
    note_id TEXT NOT NULL REFERENCES note(id) ON DELETE CASCADE,
    run_id TEXT NOT NULL DEFAULT '',
    x DOUBLE PRECISION NOT NULL CHECK (x >= 0 AND x <= 1),
    y DOUBLE PRECISION NOT NULL CHECK (y >= 0 AND y <= 1),
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (workspace_id, note_id, run_id)
);

-- Staircase positions (one per note per module run)
CREATE TABLE IF NOT EXISTS staircase_position (
    workspace_id TEXT NOT NULL REFERENCES workspace(id) ON DELETE CASCADE,
    note_id TEXT NOT NULL REFERENCES note(id) ON DELETE CASCADE,
    run_id TEXT NOT NULL DEFAULT '',
    score DOUBLE PRECISION NOT NULL,
    slot_offset INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (workspace_id, note_id, run_id)
);

-- Survey
CREATE TABLE IF NOT EXISTS survey_question (
    id TEXT PRIMARY KEY,
    workspace_id TEXT NOT NULL REFERENCES workspace(id) ON DELETE CASCADE,
    prompt TEXT NOT NULL,
    position INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS survey_response (
    workspace_id TEXT NOT NULL REFERENCES workspace(id) ON DELETE CASCADE,
    participant_id TEXT NOT NULL REFERENCES participant(id) ON DELETE CASCADE,
    note_id TEXT NOT NULL REFERENCES note(id) ON DELETE CASCADE,
    question_id TEXT NOT NULL REFERENCES survey_question(id) ON DELETE CASCADE,
    score INTEGER NOT NULL CHECK (score >= 1 AND score <= 5),
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (participant_id, note_id, question_id)
);

CREATE INDEX IF NOT EXISTS idx_survey_response_workspace ON survey_response(workspace_id);

-- Generated results (regeneration inserts a new row)
CREATE TABLE IF NOT EXISTS cohort_result (
    id TEXT PRIMARY KEY,
    workspace_id TEXT NOT NULL REFERENCES workspace(id) ON DELETE CASCADE,
    model TEXT NOT NULL,
    payload TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cohort_result_workspace ON cohort_result(workspace_id, created_at);

CREATE TABLE IF NOT EXISTS personalized_result (
    id TEXT PRIMARY KEY,
    workspace_id TEXT NOT NULL REFERENCES workspace(id) ON DELETE CASCADE,
    participant_id TEXT NOT NULL REFERENCES participant(id) ON DELETE CASCADE,
    model TEXT NOT NULL,
    payload TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_personalized_result_participant ON personalized_result(workspace_id, participant_id, created_at);
`
