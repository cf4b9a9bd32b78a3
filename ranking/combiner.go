// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ranking

import (
	"slices"
	"sort"
)

// ModuleScores holds one module's raw per-note values.
type ModuleScores struct {
	Kind ModuleKind
	// Values maps note id to the module's raw value. Missing notes score 0.
	Values map[string]float64
	// Denominator is a fixed normalization base. Zero means the observed
	// maximum over the note set.
	Denominator float64
	// DataPoints counts recorded rows; a module with none is inactive.
	DataPoints int
}

// CombinedScore is a note's equal-weighted score across active modules
type CombinedScore struct {
	Position      int                    `json:"position"`
	NoteID        string                 `json:"note_id"`
	Content       string                 `json:"content"`
	Score         float64                `json:"score"`
	Contributions map[ModuleKind]float64 `json:"contributions"`
}

// CombinedRanking is the output of CombineScores
type CombinedRanking struct {
	ActiveModules []ModuleKind    `json:"active_modules"`
	Weight        float64         `json:"weight"`
	Scores        []CombinedScore `json:"scores"`
}

// CombineScores normalizes each active module onto [0,1] and averages them
// with equal weight. A module is active when it is enabled and has at least
// one data point. Results are sorted by score desc, content asc, id asc.
func CombineScores(notes []Note, enabled []ModuleKind, modules []ModuleScores) CombinedRanking {
	active := activeModules(enabled, modules)

	out := CombinedRanking{
		ActiveModules: make([]ModuleKind, 0, len(active)),
		Scores:        make([]CombinedScore, 0, len(notes)),
	}
	if len(active) > 0 {
		out.Weight = 1 / float64(len(active))
	}
	for _, m := range active {
		out.ActiveModules = append(out.ActiveModules, m.Kind)
	}

	seen := make(map[string]bool, len(notes))
	for _, n := range notes {
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		out.Scores = append(out.Scores, CombinedScore{
			NoteID:        n.ID,
			Content:       n.Content,
			Contributions: make(map[ModuleKind]float64, len(active)),
		})
	}

	// Modules are folded in canonical order so repeated calls are bit-identical.
	for _, m := range active {
		denom := m.Denominator
		if denom == 0 {
			denom = observedMax(out.Scores, m.Values)
		}
		for i := range out.Scores {
			s := &out.Scores[i]
			norm := normalize(m.Values[s.NoteID], denom)
			s.Contributions[m.Kind] = norm
			s.Score += norm * out.Weight
		}
	}

	sort.Slice(out.Scores, func(i, j int) bool {
		a, b := out.Scores[i], out.Scores[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Content != b.Content {
			return a.Content < b.Content
		}
		return a.NoteID < b.NoteID
	})
	for i := range out.Scores {
		out.Scores[i].Position = i + 1
	}

	return out
}

func activeModules(enabled []ModuleKind, modules []ModuleScores) []ModuleScores {
	var active []ModuleScores
	taken := make(map[ModuleKind]bool)
	for _, m := range modules {
		if taken[m.Kind] || !slices.Contains(enabled, m.Kind) || m.DataPoints <= 0 {
			continue
		}
		taken[m.Kind] = true
		active = append(active, m)
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Kind.order() < active[j].Kind.order()
	})
	return active
}

func observedMax(scores []CombinedScore, values map[string]float64) float64 {
	var max float64
	for _, s := range scores {
		if v := values[s.NoteID]; v > max {
			max = v
		}
	}
	return max
}

// normalize maps raw/denom into [0,1]; a non-positive denominator yields 0.
func normalize(raw, denom float64) float64 {
	if denom <= 0 {
		return 0
	}
	v := raw / denom
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
