// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package scorecache is an invalidate-on-write Redis cache for derived
// workspace scores. Values are the JSON of the computed output, so a cache
// hit returns exactly what recomputation would. Each invalidation advances a
// per-workspace generation, and values computed under an older generation
// are never stored.
package scorecache
