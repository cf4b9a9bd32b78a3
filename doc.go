// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Envision API server.

Envision runs envisioning workshops: participants contribute ideas (notes),
prioritize them through one or more voting modules (pairwise, stack ranking,
marketplace, priority matrix, staircase, survey), and the facilitator gets a
combined ranking plus LLM-written cohort and personalized summaries.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=envision.db ADMIN_KEY_SALT=... JOIN_CODE_SALT=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..."

A .env file in the working directory is loaded first; variables already set
in the environment win.

# Configuration

Required settings:

  - DATABASE_URL (-d): PostgreSQL URL or SQLite path
  - ADMIN_KEY_SALT (--admin-salt): Secret for admin key HMAC
  - JOIN_CODE_SALT (--join-salt): Secret for join code generation

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite (default) or postgres
  - OPENAI_API_KEY, OPENAI_MODEL (--model), OPENAI_BASE_URL
  - LLM_TIMEOUT (default 90s), LLM_RATE_PER_SEC (default 2)
  - REDIS_URL (--redis): score cache and cross-instance realtime events
  - RESULTS_BATCH_CONCURRENCY (default 4)

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (workspaces, notes, voting, positions, results)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, sessions, validation, metrics
  - ranking: Borda, pairwise selection and score combining
  - scoring: Loads rows and runs the ranking algorithms
  - results, llm, export: LLM summaries and report export
  - realtime, scorecache: Websocket events and the Redis score cache
  - store, db: SQL access and schema
  - models, auth, cliparse: Types, keys and tokens, configuration

See package documentation for each component.
*/
package main
