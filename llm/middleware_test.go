// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestTimeoutMiddleware_SucceedsWithinTimeout(t *testing.T) {
	mock := NewMockCompleter(`{}`)
	mock.Delay = 10 * time.Millisecond
	c := TimeoutMiddleware(200 * time.Millisecond)(mock)

	out, err := c.CompleteJSON(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, `{}`, out)
	assert.Equal(t, 1, mock.Calls())
}

func TestTimeoutMiddleware_FailsWhenExceedingTimeout(t *testing.T) {
	mock := NewMockCompleter(`{}`)
	mock.Delay = 500 * time.Millisecond
	c := TimeoutMiddleware(20 * time.Millisecond)(mock)

	start := time.Now()
	_, err := c.CompleteJSON(context.Background(), "s", "u")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestRateLimitMiddleware_Paces(t *testing.T) {
	mock := NewMockCompleter(`{}`)
	// One token up front, then one every 50ms.
	c := RateLimitMiddleware(rate.Every(50*time.Millisecond), 1)(mock)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.CompleteJSON(context.Background(), "s", "u")
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	assert.Equal(t, 3, mock.Calls())
}

func TestRateLimitMiddleware_RespectsCancellation(t *testing.T) {
	mock := NewMockCompleter(`{}`)
	c := RateLimitMiddleware(rate.Every(time.Hour), 1)(mock)

	_, err := c.CompleteJSON(context.Background(), "s", "u")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.CompleteJSON(ctx, "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
	assert.Equal(t, 1, mock.Calls())
}

func TestMetricsMiddleware_CountsByStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	ok := MetricsMiddleware(metrics)(NewMockCompleter(`{}`))
	empty := MetricsMiddleware(metrics)(NewMockCompleter(""))
	failing := NewMockCompleter("")
	failing.Err = errors.New("boom")
	bad := MetricsMiddleware(metrics)(failing)

	_, err := ok.CompleteJSON(context.Background(), "s", "u")
	require.NoError(t, err)
	_, err = empty.CompleteJSON(context.Background(), "s", "u")
	assert.ErrorIs(t, err, ErrEmptyResponse)
	_, err = bad.CompleteJSON(context.Background(), "s", "u")
	assert.Error(t, err)

	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.requests.WithLabelValues("mock-model", "success")))
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.requests.WithLabelValues("mock-model", "empty")))
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.requests.WithLabelValues("mock-model", "error")))
	assert.Equal(t, 1, promtest.CollectAndCount(metrics.latency))
}

func TestChainOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next Completer) Completer {
			return completerFunc{next: next, before: func() { order = append(order, name) }}
		}
	}

	c := Chain(NewMockCompleter(`{}`), tag("outer"), tag("inner"))
	_, err := c.CompleteJSON(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

type completerFunc struct {
	next   Completer
	before func()
}

func (c completerFunc) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	c.before()
	return c.next.CompleteJSON(ctx, system, user)
}

func (c completerFunc) Model() string { return c.next.Model() }
