// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package llm

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the LLM request collectors.
type Metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewMetrics registers the LLM collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "envision_llm_requests_total",
				Help: "LLM completion requests by model and outcome.",
			},
			[]string{"model", "status"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "envision_llm_request_duration_seconds",
				Help:    "LLM completion latency.",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
			},
			[]string{"model"},
		),
	}
}

type metricsCompleter struct {
	next    Completer
	metrics *Metrics
}

// MetricsMiddleware records request counts and latency.
func MetricsMiddleware(m *Metrics) Middleware {
	return func(next Completer) Completer {
		return &metricsCompleter{next: next, metrics: m}
	}
}

func (m *metricsCompleter) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	start := time.Now()
	out, err := m.next.CompleteJSON(ctx, system, user)

	model := m.next.Model()
	m.metrics.latency.WithLabelValues(model).Observe(time.Since(start).Seconds())
	m.metrics.requests.WithLabelValues(model, status(err)).Inc()

	return out, err
}

func (m *metricsCompleter) Model() string { return m.next.Model() }

func status(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrEmptyResponse):
		return "empty"
	default:
		return "error"
	}
}
