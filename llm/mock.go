// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package llm

import (
	"context"
	"sync"
	"time"
)

// MockCompleter is a scripted Completer for tests.
type MockCompleter struct {
	mu sync.Mutex

	// Response is returned when Respond is nil.
	Response string
	Err      error
	// Respond, when set, computes the reply from the prompts.
	Respond func(system, user string) (string, error)
	Delay   time.Duration
	Name    string

	CallCount  int
	LastSystem string
	LastUser   string
}

// NewMockCompleter returns a mock that always answers response.
func NewMockCompleter(response string) *MockCompleter {
	return &MockCompleter{Response: response, Name: "mock-model"}
}

func (m *MockCompleter) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	m.mu.Lock()
	m.CallCount++
	m.LastSystem = system
	m.LastUser = user
	respond, resp, err, delay := m.Respond, m.Response, m.Err, m.Delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if respond != nil {
		return respond(system, user)
	}
	if err != nil {
		return "", err
	}
	if resp == "" {
		return "", ErrEmptyResponse
	}
	return resp, nil
}

func (m *MockCompleter) Model() string { return m.Name }

// Calls returns how many times CompleteJSON ran.
func (m *MockCompleter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// Prompts returns the last system and user messages.
func (m *MockCompleter) Prompts() (system, user string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.LastSystem, m.LastUser
}
