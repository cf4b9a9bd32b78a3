// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package llm

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
)

var (
	// ErrEmptyResponse is returned when the model answers with no content.
	ErrEmptyResponse = errors.New("llm returned empty response")
	ErrEmptyAPIKey   = errors.New("llm API key is required")
	ErrNoChoices     = errors.New("llm returned no choices")
)

// Completer asks a chat model for a single JSON object.
type Completer interface {
	// CompleteJSON sends the system and user messages and returns the raw
	// JSON text of the reply. It never returns empty content without an error.
	CompleteJSON(ctx context.Context, system, user string) (string, error)

	// Model returns the configured model name.
	Model() string
}

// Middleware wraps a Completer with a cross-cutting concern.
type Middleware func(Completer) Completer

// Chain applies middleware so the first one listed is the outermost.
func Chain(c Completer, mws ...Middleware) Completer {
	for i := len(mws) - 1; i >= 0; i-- {
		c = mws[i](c)
	}
	return c
}

// Config configures the client built by New.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	RatePerSec float64
}

// New builds the OpenAI client wrapped in metrics, rate limit and timeout
// middleware. metrics may be nil.
func New(cfg Config, metrics *Metrics) (Completer, error) {
	client, err := NewOpenAIClient(cfg)
	if err != nil {
		return nil, err
	}

	var mws []Middleware
	if metrics != nil {
		mws = append(mws, MetricsMiddleware(metrics))
	}
	if cfg.RatePerSec > 0 {
		burst := int(cfg.RatePerSec)
		if burst < 1 {
			burst = 1
		}
		mws = append(mws, RateLimitMiddleware(rate.Limit(cfg.RatePerSec), burst))
	}
	if cfg.Timeout > 0 {
		mws = append(mws, TimeoutMiddleware(cfg.Timeout))
	}
	return Chain(client, mws...), nil
}
