// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package results

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/danielhkuo/envision/models"
	"github.com/danielhkuo/envision/ranking"
	"github.com/danielhkuo/envision/scoring"
)

const (
	// maxPromptIdeas caps the ranked ideas sent to the model.
	maxPromptIdeas = 25
	// maxPersonalIdeas caps the cohort ideas shown next to one participant's activity.
	maxPersonalIdeas = 10
)

const cohortSystem = `You summarize the outcome of a group envisioning workshop.
Reply with a single JSON object and nothing else, with exactly these keys:
  "summary": string, two or three paragraphs on what the group prioritized,
  "themes": array of {"title": string, "description": string},
  "ideaImpacts": array of {"rank": integer starting at 1, "content": string, "impact": string} for the top five ideas in ranked order,
  "insights": array of strings,
  "recommendations": array of strings.
Every key is required. Base every statement on the data provided.`

const personalizedSystem = `You write a short personal debrief for one participant of a group envisioning workshop.
Reply with a single JSON object and nothing else, with exactly these keys:
  "summary": string addressed to the participant,
  "contributions": array of strings describing what they added,
  "alignment": string comparing their choices with the group's top ideas,
  "insights": array of strings,
  "recommendations": array of strings.
Every key is required. Base every statement on the data provided.`

const categorizeSystem = `You group workshop ideas into categories.
Reply with a single JSON object and nothing else:
  {"assignments": [{"note": integer, "category": string}]}
"note" is the number of the idea in the list. Reuse an existing category name when one fits,
otherwise invent a short new one. Assign every idea exactly once.`

var funcs = template.FuncMap{
	"pct": func(v float64) string { return fmt.Sprintf("%.0f%%", v*100) },
	"inc": func(i int) int { return i + 1 },
}

var cohortTmpl = template.Must(template.New("cohort").Funcs(funcs).Parse(`Workshop: {{.Title}}
{{- if .Description}}
Description: {{.Description}}
{{- end}}
Participants: {{.Participants}}

Voting activities used:
{{- range .Modules}}
- {{.Name}}: {{.Description}}
{{- end}}
{{- if .SurveyQuestions}}

Survey questions:
{{- range .SurveyQuestions}}
- {{.}}
{{- end}}
{{- end}}

Ideas in combined ranked order (score is the equal-weighted average across activities with data):
{{- range .Ideas}}
{{.Position}}. {{.Content}}{{if .Category}} [{{.Category}}]{{end}} (score {{pct .Score}}{{range .Contributions}}; {{.Name}} {{pct .Value}}{{end}})
{{- end}}
`))

var personalizedTmpl = template.Must(template.New("personalized").Funcs(funcs).Parse(`Workshop: {{.Title}}
Participant: {{.Name}}

Voting activities used:
{{- range .Modules}}
- {{.Name}}: {{.Description}}
{{- end}}

Ideas they wrote:
{{- range .Activity.AuthoredNotes}}
- {{.}}
{{- else}}
- none
{{- end}}
{{- if .Pairwise}}

Pairwise votes cast: {{.Activity.VotesCast}}
Ideas they picked most often:
{{- range .Activity.FavoredNotes}}
- {{.}}
{{- else}}
- none
{{- end}}
{{- end}}
{{- if .StackRanking}}

Their top-ranked ideas:
{{- range .Activity.TopRanked}}
- {{.}}
{{- else}}
- none submitted
{{- end}}
{{- end}}
{{- if .Marketplace}}

Where they spent coins:
{{- range .Activity.Allocations}}
- {{.Content}}: {{.Coins}}
{{- else}}
- none
{{- end}}
{{- end}}
{{- if .Survey}}

Survey answers given: {{.Activity.SurveyResponses}}
{{- end}}

The group's top ideas:
{{- range .TopIdeas}}
{{.Position}}. {{.Content}}
{{- end}}
`))

var categorizeTmpl = template.Must(template.New("categorize").Funcs(funcs).Parse(`Existing categories:
{{- range .Categories}}
- {{.}}
{{- else}}
- none yet
{{- end}}

Ideas:
{{- range $i, $n := .Notes}}
{{inc $i}}. {{$n}}
{{- end}}
`))

type moduleLine struct {
	Name        string
	Description string
}

type contributionLine struct {
	Name  string
	Value float64
}

type ideaLine struct {
	Position      int
	Content       string
	Category      string
	Score         float64
	Contributions []contributionLine
}

// moduleName is how an activity is introduced to the model.
func moduleName(k ranking.ModuleKind) string {
	switch k {
	case ranking.ModulePairwise:
		return "Pairwise voting"
	case ranking.ModuleStackRanking:
		return "Stack ranking"
	case ranking.ModuleMarketplace:
		return "Marketplace"
	case ranking.ModulePriorityMatrix:
		return "Priority matrix"
	case ranking.ModuleStaircase:
		return "Staircase"
	case ranking.ModuleSurvey:
		return "Survey"
	}
	return string(k)
}

func moduleDescription(k ranking.ModuleKind, ws models.Workspace) string {
	switch k {
	case ranking.ModulePairwise:
		return "participants repeatedly picked the stronger of two ideas"
	case ranking.ModuleStackRanking:
		return "participants ordered every idea from first to last, scored with a Borda count"
	case ranking.ModuleMarketplace:
		return fmt.Sprintf("participants spent a budget of %d coins across ideas", ws.CoinBudget)
	case ranking.ModulePriorityMatrix:
		return "ideas were placed on a two-by-two grid; the horizontal position counts as the score"
	case ranking.ModuleStaircase:
		return fmt.Sprintf("ideas were placed on steps from %g to %g", ws.StaircaseMin, ws.StaircaseMax)
	case ranking.ModuleSurvey:
		return "participants rated ideas from 1 to 5"
	}
	return ""
}

// enabledModules lists the workspace's modules in canonical order.
func enabledModules(ws models.Workspace) []moduleLine {
	var out []moduleLine
	for _, k := range ranking.AllModules {
		if ws.ModuleEnabled(k) {
			out = append(out, moduleLine{Name: moduleName(k), Description: moduleDescription(k, ws)})
		}
	}
	return out
}

func ideaLines(combined ranking.CombinedRanking, categories map[string]string, limit int) []ideaLine {
	n := len(combined.Scores)
	if n > limit {
		n = limit
	}
	out := make([]ideaLine, 0, n)
	for _, s := range combined.Scores[:n] {
		line := ideaLine{Position: s.Position, Content: s.Content, Category: categories[s.NoteID], Score: s.Score}
		for _, k := range combined.ActiveModules {
			line.Contributions = append(line.Contributions, contributionLine{Name: moduleName(k), Value: s.Contributions[k]})
		}
		out = append(out, line)
	}
	return out
}

type cohortInput struct {
	Title           string
	Description     string
	Participants    int
	Modules         []moduleLine
	SurveyQuestions []string
	Ideas           []ideaLine
}

func renderCohort(in cohortInput) (string, error) {
	var b strings.Builder
	if err := cohortTmpl.Execute(&b, in); err != nil {
		return "", fmt.Errorf("render cohort prompt: %w", err)
	}
	return b.String(), nil
}

type personalizedInput struct {
	Title        string
	Name         string
	Modules      []moduleLine
	Activity     scoring.ParticipantActivity
	TopIdeas     []ideaLine
	Pairwise     bool
	StackRanking bool
	Marketplace  bool
	Survey       bool
}

func renderPersonalized(in personalizedInput) (string, error) {
	var b strings.Builder
	if err := personalizedTmpl.Execute(&b, in); err != nil {
		return "", fmt.Errorf("render personalized prompt: %w", err)
	}
	return b.String(), nil
}

type categorizeInput struct {
	Categories []string
	Notes      []string
}

func renderCategorize(in categorizeInput) (string, error) {
	var b strings.Builder
	if err := categorizeTmpl.Execute(&b, in); err != nil {
		return "", fmt.Errorf("render categorize prompt: %w", err)
	}
	return b.String(), nil
}
