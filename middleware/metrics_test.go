// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /workspaces/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "missing" {
			ErrorResponse(w, http.StatusNotFound, "Workspace not found")
			return
		}
		JSONResponse(w, http.StatusOK, map[string]string{"id": r.PathValue("id")})
	})
	handler := m.Handler(mux)

	for _, path := range []string{"/workspaces/a", "/workspaces/b", "/workspaces/missing", "/nowhere"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
	}

	if got := promtest.ToFloat64(m.requests.WithLabelValues("GET", "GET /workspaces/{id}", "200")); got != 2 {
		t.Errorf("Expected 2 successful requests, got %v", got)
	}
	if got := promtest.ToFloat64(m.requests.WithLabelValues("GET", "GET /workspaces/{id}", "404")); got != 1 {
		t.Errorf("Expected 1 not-found request, got %v", got)
	}
	if got := promtest.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")); got != 1 {
		t.Errorf("Expected 1 unmatched request, got %v", got)
	}
	if n := promtest.CollectAndCount(m.duration); n != 2 {
		t.Errorf("Expected 2 latency series, got %d", n)
	}
}
