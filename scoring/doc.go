// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package scoring computes derived workspace scores on read.

Service loads raw rows through the store and hands them to package ranking.
Nothing is materialized in the database. When a Cache is configured, Borda
scores, the pairwise leaderboard and the combined ranking are cached per
workspace until the next write calls Invalidate:

	svc := scoring.NewService(st, cache, logger)
	combined, err := svc.Combined(ctx, ws)

Cache failures never fail a read; the value is recomputed and the error logged.
*/
package scoring
