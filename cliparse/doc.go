// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

LoadDotEnv reads an optional .env file, then ParseFlags returns a Config:

	_ = cliparse.LoadDotEnv()
	cfg, err := cliparse.ParseFlags(os.Args[1:])

Values already present in the environment are never overwritten by .env.

# CLI Flags

	-p            Server port
	-d            Database URL
	-t            Database type (sqlite or postgres)
	-admin-salt   Admin key salt
	-join-salt    Join code salt
	-model        LLM model name
	-redis        Redis URL

# Environment Variables

	PORT                       default 3318
	DATABASE_URL               required
	DATABASE_TYPE              sqlite (default) or postgres
	ADMIN_KEY_SALT             required
	JOIN_CODE_SALT             required
	OPENAI_API_KEY             optional; results generation is disabled without it
	OPENAI_MODEL               default gpt-4o-mini
	OPENAI_BASE_URL            optional, for compatible endpoints
	LLM_TIMEOUT                default 90s
	LLM_RATE_PER_SEC           default 2
	REDIS_URL                  optional; enables the score cache and shared realtime bus
	RESULTS_BATCH_CONCURRENCY  default 4

CLI flags take precedence over environment variables.
*/
package cliparse
