// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

# Connections

Open accepts "postgres" (lib/pq) or "sqlite" (modernc.org/sqlite):

	conn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)

SQLite connections get foreign keys and a busy timeout, and the pool is
limited to one connection. Tests use "file::memory:".

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The DDL only uses features both engines share: TEXT ids, $n placeholders,
explicit timestamps, and ON CONFLICT upserts in the store layer.

# Tables

	organization 1──* workspace
	workspace 1──* category, participant, note, survey_question
	note *──1 category (nullable, ON DELETE SET NULL)
	participant 1──* vote, ranking, marketplace_allocation, survey_response
	note 1──* matrix_position, staircase_position (one per run_id)
	workspace 1──* cohort_result
	participant 1──* personalized_result

Raw voting rows (vote, ranking, marketplace_allocation, survey_response) are
only written by submissions; derived scores are never stored.
*/
package db
