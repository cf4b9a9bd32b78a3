// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var combinerNotes = []Note{
	{ID: "n1", Content: "Bike lanes"},
	{ID: "n2", Content: "Community garden"},
	{ID: "n3", Content: "Apprenticeships"},
}

func TestCombineScores_NoActiveModules(t *testing.T) {
	tests := []struct {
		name    string
		enabled []ModuleKind
		modules []ModuleScores
	}{
		{"nothing enabled", nil, []ModuleScores{{Kind: ModulePairwise, Values: map[string]float64{"n1": 3}, DataPoints: 3}}},
		{"enabled without data", AllModules, []ModuleScores{{Kind: ModulePairwise, Values: map[string]float64{}, DataPoints: 0}}},
		{"no modules", AllModules, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := CombineScores(combinerNotes, tt.enabled, tt.modules)
			assert.Empty(t, out.ActiveModules)
			assert.Zero(t, out.Weight)
			require.Len(t, out.Scores, 3)
			// Falls back to content order.
			assert.Equal(t, []string{"n3", "n1", "n2"}, []string{out.Scores[0].NoteID, out.Scores[1].NoteID, out.Scores[2].NoteID})
			for i, s := range out.Scores {
				assert.Zero(t, s.Score)
				assert.Equal(t, i+1, s.Position)
			}
		})
	}
}

func TestCombineScores_EqualWeights(t *testing.T) {
	modules := []ModuleScores{
		{Kind: ModuleSurvey, Values: map[string]float64{"n1": 5, "n2": 2.5}, Denominator: 5, DataPoints: 4},
		{Kind: ModulePairwise, Values: map[string]float64{"n1": 1, "n2": 4, "n3": 2}, DataPoints: 7},
		{Kind: ModuleMarketplace, Values: map[string]float64{"n3": 10}, DataPoints: 1},
	}
	enabled := []ModuleKind{ModulePairwise, ModuleMarketplace, ModuleSurvey}

	out := CombineScores(combinerNotes, enabled, modules)
	assert.Equal(t, []ModuleKind{ModulePairwise, ModuleMarketplace, ModuleSurvey}, out.ActiveModules)
	assert.InDelta(t, 1.0/3, out.Weight, 1e-12)

	byID := make(map[string]CombinedScore)
	for _, s := range out.Scores {
		byID[s.NoteID] = s
	}
	// n1: pairwise 0.25, marketplace 0, survey 1
	assert.InDelta(t, (0.25+0+1)/3, byID["n1"].Score, 1e-12)
	// n2: pairwise 1, marketplace 0, survey 0.5
	assert.InDelta(t, (1+0+0.5)/3, byID["n2"].Score, 1e-12)
	// n3: pairwise 0.5, marketplace 1, survey 0 (no responses)
	assert.InDelta(t, (0.5+1+0)/3, byID["n3"].Score, 1e-12)

	assert.Equal(t, "n3", out.Scores[0].NoteID)
	assert.Equal(t, 1.0, byID["n2"].Contributions[ModulePairwise])
}

func TestCombineScores_NormalizationBound(t *testing.T) {
	modules := []ModuleScores{
		{Kind: ModuleStaircase, Values: map[string]float64{"n1": 12, "n2": -3, "n3": 10}, Denominator: 10, DataPoints: 3},
		{Kind: ModulePriorityMatrix, Values: map[string]float64{"n1": 0.2, "n2": 0.9}, DataPoints: 2},
	}
	out := CombineScores(combinerNotes, AllModules, modules)

	for _, s := range out.Scores {
		for kind, v := range s.Contributions {
			assert.GreaterOrEqual(t, v, 0.0, "%s %s", s.NoteID, kind)
			assert.LessOrEqual(t, v, 1.0, "%s %s", s.NoteID, kind)
		}
	}

	byID := make(map[string]CombinedScore)
	for _, s := range out.Scores {
		byID[s.NoteID] = s
	}
	// The matrix maximum contributes exactly the module weight.
	assert.Equal(t, out.Weight, byID["n2"].Contributions[ModulePriorityMatrix]*out.Weight)
	assert.Equal(t, 1.0, byID["n2"].Contributions[ModulePriorityMatrix])
	assert.Equal(t, 1.0, byID["n1"].Contributions[ModuleStaircase])
	assert.Equal(t, 0.0, byID["n2"].Contributions[ModuleStaircase])
}

func TestCombineScores_ZeroMaximum(t *testing.T) {
	modules := []ModuleScores{
		{Kind: ModuleMarketplace, Values: map[string]float64{"n1": 0, "n2": 0}, DataPoints: 2},
		{Kind: ModulePairwise, Values: map[string]float64{"n1": 2}, DataPoints: 2},
	}
	out := CombineScores(combinerNotes, AllModules, modules)

	// Marketplace is active but has no signal, so it dilutes without adding.
	assert.Len(t, out.ActiveModules, 2)
	assert.Equal(t, "n1", out.Scores[0].NoteID)
	assert.InDelta(t, 0.5, out.Scores[0].Score, 1e-12)
	for _, s := range out.Scores {
		assert.Zero(t, s.Contributions[ModuleMarketplace])
	}
}

func TestCombineScores_IgnoresForeignNotes(t *testing.T) {
	modules := []ModuleScores{
		{Kind: ModulePairwise, Values: map[string]float64{"n1": 2, "deleted": 50}, DataPoints: 3},
	}
	out := CombineScores(combinerNotes, AllModules, modules)
	require.Len(t, out.Scores, 3)
	assert.Equal(t, "n1", out.Scores[0].NoteID)
	assert.Equal(t, 1.0, out.Scores[0].Score)
}

func TestCombineScores_TieBreaks(t *testing.T) {
	notes := []Note{
		{ID: "b", Content: "same"},
		{ID: "a", Content: "same"},
		{ID: "c", Content: "other"},
	}
	out := CombineScores(notes, nil, nil)
	assert.Equal(t, "c", out.Scores[0].NoteID)
	assert.Equal(t, "a", out.Scores[1].NoteID)
	assert.Equal(t, "b", out.Scores[2].NoteID)
}

func TestCombineScores_Idempotent(t *testing.T) {
	modules := []ModuleScores{
		{Kind: ModuleSurvey, Values: map[string]float64{"n1": 3.7, "n2": 4.1, "n3": 1.3}, Denominator: 5, DataPoints: 9},
		{Kind: ModuleStackRanking, Values: map[string]float64{"n1": 7, "n2": 5, "n3": 6}, DataPoints: 6},
		{Kind: ModulePriorityMatrix, Values: map[string]float64{"n1": 0.33, "n2": 0.71, "n3": 0.52}, DataPoints: 3},
	}
	first := CombineScores(combinerNotes, AllModules, modules)

	// Module order in the input does not change the result.
	reversed := []ModuleScores{modules[2], modules[1], modules[0]}
	second := CombineScores(combinerNotes, AllModules, reversed)

	assert.Equal(t, first, second)
}

func TestParseModules(t *testing.T) {
	got := ParseModules("survey, pairwise,bogus,,pairwise,stack_ranking")
	assert.Equal(t, []ModuleKind{ModulePairwise, ModuleStackRanking, ModuleSurvey}, got)
	assert.Empty(t, ParseModules(""))
	assert.Equal(t, "pairwise,stack_ranking,survey", FormatModules(got))
	assert.Equal(t, "marketplace,staircase", FormatModules([]ModuleKind{ModuleStaircase, ModuleMarketplace, "nope"}))
}
