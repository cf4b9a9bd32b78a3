// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package export

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/envision/models"
	"github.com/danielhkuo/envision/ranking"
	"github.com/danielhkuo/envision/results"
)

func sampleReport(t *testing.T) Report {
	t.Helper()
	payload, err := json.Marshal(results.CohortResult{
		Summary:         "The group chose <mobility> first.",
		Themes:          []results.Theme{{Title: "Mobility", Description: "Getting around"}},
		IdeaImpacts:     []results.IdeaImpact{{Rank: 1, Content: "Bike lanes", Impact: "Safer commutes"}},
		Insights:        []string{"Consensus on transport"},
		Recommendations: []string{"Pilot a protected lane"},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	ws := models.Workspace{
		Title:   "City 2030",
		Modules: []ranking.ModuleKind{ranking.ModulePairwise, ranking.ModuleSurvey},
	}
	stored := models.StoredResult{Model: "gpt-4o-mini", Payload: payload, CreatedAt: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)}
	combined := ranking.CombinedRanking{Scores: []ranking.CombinedScore{
		{Position: 1, Content: "Bike lanes", Score: 0.75},
		{Position: 2, Content: "Garden", Score: 0.5},
		{Position: 3, Content: "Buses", Score: 0.1},
	}}

	r, err := NewReport(ws, stored, combined, 2)
	if err != nil {
		t.Fatalf("NewReport() error = %v", err)
	}
	return r
}

func TestNewReport(t *testing.T) {
	r := sampleReport(t)
	if len(r.Ranking) != 2 {
		t.Errorf("ranking limited to %d rows, want 2", len(r.Ranking))
	}
	if r.Cohort.Themes[0].Title != "Mobility" {
		t.Errorf("cohort not decoded: %+v", r.Cohort)
	}
	if strings.Join(r.Modules, ",") != "pairwise,survey" {
		t.Errorf("modules = %v", r.Modules)
	}

	_, err := NewReport(models.Workspace{}, models.StoredResult{Payload: json.RawMessage(`[]`)}, ranking.CombinedRanking{}, 0)
	if err == nil {
		t.Error("NewReport() should fail on a payload that is not a cohort result")
	}
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML(sampleReport(t))
	if err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}

	for _, want := range []string{
		"<h1>City 2030</h1>",
		"pairwise, survey",
		"Mar 14, 2025",
		"&lt;mobility&gt;",
		"<strong>Mobility</strong>",
		`<li value="1"><strong>Bike lanes</strong>: Safer commutes</li>`,
		"<li>Pilot a protected lane</li>",
		"75%",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered HTML missing %q", want)
		}
	}
	if strings.Contains(html, "Buses") {
		t.Error("rows past the limit should not render")
	}
}

func TestExportHTML(t *testing.T) {
	res, err := Export(context.Background(), FormatHTML, sampleReport(t))
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if res.Filename != "City-2030.html" {
		t.Errorf("Filename = %q", res.Filename)
	}
	if !strings.HasPrefix(res.MimeType, "text/html") {
		t.Errorf("MimeType = %q", res.MimeType)
	}
	if !strings.Contains(string(res.Data), "<h2>Summary</h2>") {
		t.Error("Data does not look like the report")
	}
}

func TestExportUnsupportedFormat(t *testing.T) {
	_, err := Export(context.Background(), Format("docx"), sampleReport(t))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Export(docx) error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestExportPDFWithoutChrome(t *testing.T) {
	if chromeAvailable() {
		t.Skip("chromium installed; dependency error path not reachable")
	}
	_, err := Export(context.Background(), FormatPDF, sampleReport(t))
	if !errors.Is(err, ErrPDFDependencyMissing) {
		t.Errorf("Export(pdf) error = %v, want ErrPDFDependencyMissing", err)
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"City 2030", "City-2030.pdf"},
		{"Q3: plans & goals!", "Q3-plans--goals.pdf"},
		{"", "results.pdf"},
		{"???", "results.pdf"},
		{strings.Repeat("a", 80), strings.Repeat("a", 50) + ".pdf"},
	}
	for _, tt := range tests {
		if got := filename(tt.title, "pdf"); got != tt.want {
			t.Errorf("filename(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}
