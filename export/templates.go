// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package export

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/danielhkuo/envision/models"
	"github.com/danielhkuo/envision/ranking"
)

//go:embed templates/*.html
var templateFS embed.FS

var reportTemplate = template.Must(template.New("report.html").Funcs(template.FuncMap{
	"pct": func(v float64) string { return fmt.Sprintf("%.0f%%", v*100) },
}).ParseFS(templateFS, "templates/report.html"))

// NewReport assembles a Report from a stored cohort result and the current
// combined ranking. limit caps the ranking table; zero shows every idea.
func NewReport(ws models.Workspace, stored models.StoredResult, combined ranking.CombinedRanking, limit int) (Report, error) {
	r := Report{
		Title:       ws.Title,
		Description: ws.Description,
		Model:       stored.Model,
		GeneratedAt: stored.CreatedAt,
	}
	if err := json.Unmarshal(stored.Payload, &r.Cohort); err != nil {
		return Report{}, fmt.Errorf("decode cohort result: %w", err)
	}
	for _, k := range ws.Modules {
		r.Modules = append(r.Modules, string(k))
	}
	for _, s := range combined.Scores {
		if limit > 0 && len(r.Ranking) == limit {
			break
		}
		r.Ranking = append(r.Ranking, RankedIdea{Position: s.Position, Content: s.Content, Score: s.Score})
	}
	return r, nil
}

// RenderHTML renders the report page. All text is escaped.
func RenderHTML(r Report) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, r); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}
