// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package llm is the chat-model client used for results and categorization.
//
// A Completer asks for one JSON object per call. New builds the OpenAI
// implementation wrapped in middleware:
//
//	client, err := llm.New(llm.Config{
//	    APIKey:     cfg.OpenAIAPIKey,
//	    Model:      cfg.OpenAIModel,
//	    Timeout:    cfg.LLMTimeout,
//	    RatePerSec: cfg.LLMRatePerSec,
//	}, llm.NewMetrics(prometheus.DefaultRegisterer))
//
// Callers validate the returned JSON themselves; this package only
// guarantees it is non-empty.
package llm
