// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

type rateLimitedCompleter struct {
	next    Completer
	limiter *rate.Limiter
}

// RateLimitMiddleware paces calls with a token bucket shared by every
// Completer it wraps. Batch generation relies on it to stay under provider limits.
func RateLimitMiddleware(limit rate.Limit, burst int) Middleware {
	limiter := rate.NewLimiter(limit, burst)
	return func(next Completer) Completer {
		return &rateLimitedCompleter{next: next, limiter: limiter}
	}
}

func (r *rateLimitedCompleter) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}
	return r.next.CompleteJSON(ctx, system, user)
}

func (r *rateLimitedCompleter) Model() string { return r.next.Model() }
