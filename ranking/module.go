// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ranking

import (
	"slices"
	"strings"
)

// ModuleKind names one voting or rating mechanism a workspace can enable.
type ModuleKind string

const (
	ModulePairwise       ModuleKind = "pairwise"
	ModuleStackRanking   ModuleKind = "stack_ranking"
	ModuleMarketplace    ModuleKind = "marketplace"
	ModulePriorityMatrix ModuleKind = "priority_matrix"
	ModuleStaircase      ModuleKind = "staircase"
	ModuleSurvey         ModuleKind = "survey"
)

// AllModules lists every module in the fixed order used for combining.
var AllModules = []ModuleKind{
	ModulePairwise,
	ModuleStackRanking,
	ModuleMarketplace,
	ModulePriorityMatrix,
	ModuleStaircase,
	ModuleSurvey,
}

// Valid reports whether k is a known module.
func (k ModuleKind) Valid() bool {
	return slices.Contains(AllModules, k)
}

func (k ModuleKind) order() int {
	return slices.Index(AllModules, k)
}

// ParseModules parses a comma separated module list.
// Unknown names and duplicates are dropped; the result is in canonical order.
func ParseModules(s string) []ModuleKind {
	seen := make(map[ModuleKind]bool)
	for _, part := range strings.Split(s, ",") {
		k := ModuleKind(strings.TrimSpace(part))
		if k.Valid() {
			seen[k] = true
		}
	}
	out := make([]ModuleKind, 0, len(seen))
	for _, k := range AllModules {
		if seen[k] {
			out = append(out, k)
		}
	}
	return out
}

// FormatModules is the inverse of ParseModules.
func FormatModules(kinds []ModuleKind) string {
	parts := make([]string, 0, len(kinds))
	for _, k := range ParseModules(joinModules(kinds)) {
		parts = append(parts, string(k))
	}
	return strings.Join(parts, ",")
}

func joinModules(kinds []ModuleKind) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, ",")
}

// Note is the part of an idea the algorithms need.
type Note struct {
	ID         string
	Content    string
	CategoryID string // empty when uncategorized
}

// NoteIDs returns the ids of notes in order.
func NoteIDs(notes []Note) []string {
	ids := make([]string, len(notes))
	for i, n := range notes {
		ids[i] = n.ID
	}
	return ids
}
