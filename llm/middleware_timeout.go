// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package llm

import (
	"context"
	"time"
)

type timeoutCompleter struct {
	next    Completer
	timeout time.Duration
}

// TimeoutMiddleware bounds every call to timeout.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next Completer) Completer {
		return &timeoutCompleter{next: next, timeout: timeout}
	}
}

func (t *timeoutCompleter) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.CompleteJSON(ctx, system, user)
}

func (t *timeoutCompleter) Model() string { return t.next.Model() }
