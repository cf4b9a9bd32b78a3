// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package results

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validCohort = `{
	"summary": "The group leaned toward mobility.",
	"themes": [{"title": "Mobility", "description": "Getting around"}],
	"ideaImpacts": [{"rank": 1, "content": "Bike lanes", "impact": "Safer commutes"}],
	"insights": ["Strong consensus on transport"],
	"recommendations": ["Pilot a protected lane"]
}`

const validPersonalized = `{
	"summary": "You pushed for green space.",
	"contributions": ["Proposed the community garden"],
	"alignment": "Your top pick finished second overall.",
	"insights": ["You favored long-term ideas"],
	"recommendations": ["Join the garden working group"]
}`

func TestParseCohort(t *testing.T) {
	got, err := ParseCohort(validCohort)
	require.NoError(t, err)
	assert.Equal(t, "Mobility", got.Themes[0].Title)
	assert.Equal(t, 1, got.IdeaImpacts[0].Rank)

	tests := []struct {
		name string
		raw  string
	}{
		{"missing insights", `{"summary":"s","themes":[],"ideaImpacts":[],"recommendations":["r"]}`},
		{"missing summary", `{"themes":[],"ideaImpacts":[],"insights":["i"],"recommendations":["r"]}`},
		{"null themes", `{"summary":"s","themes":null,"ideaImpacts":[],"insights":["i"],"recommendations":["r"]}`},
		{"theme without description", `{"summary":"s","themes":[{"title":"t"}],"ideaImpacts":[],"insights":["i"],"recommendations":["r"]}`},
		{"rank as string", `{"summary":"s","themes":[],"ideaImpacts":[{"rank":"1","content":"c","impact":"i"}],"insights":["i"],"recommendations":["r"]}`},
		{"zero rank", `{"summary":"s","themes":[],"ideaImpacts":[{"rank":0,"content":"c","impact":"i"}],"insights":["i"],"recommendations":["r"]}`},
		{"empty insight", `{"summary":"s","themes":[],"ideaImpacts":[],"insights":[""],"recommendations":["r"]}`},
		{"blank summary", `{"summary":"   ","themes":[],"ideaImpacts":[],"insights":["i"],"recommendations":["r"]}`},
		{"blank theme title", `{"summary":"s","themes":[{"title":"\t","description":"d"}],"ideaImpacts":[],"insights":["i"],"recommendations":["r"]}`},
		{"blank impact", `{"summary":"s","themes":[],"ideaImpacts":[{"rank":1,"content":"c","impact":" \n "}],"insights":["i"],"recommendations":["r"]}`},
		{"blank recommendation", `{"summary":"s","themes":[],"ideaImpacts":[],"insights":["i"],"recommendations":["  "]}`},
		{"array instead of object", `[]`},
		{"not json", `Here is your summary`},
		{"null", `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCohort(tt.raw)
			assert.ErrorIs(t, err, ErrInvalidSchema)
		})
	}
}

func TestParseCohort_DropsUnknownFields(t *testing.T) {
	got, err := ParseCohort(`{"summary":"s","themes":[],"ideaImpacts":[],"insights":["i"],"recommendations":["r"],"confidence":0.9}`)
	require.NoError(t, err)
	assert.Equal(t, "s", got.Summary)
	assert.Empty(t, got.Themes)
}

func TestParsePersonalized(t *testing.T) {
	got, err := ParsePersonalized(validPersonalized)
	require.NoError(t, err)
	assert.Equal(t, "Your top pick finished second overall.", got.Alignment)

	_, err = ParsePersonalized(`{"summary":"s","contributions":[],"insights":["i"],"recommendations":["r"]}`)
	assert.ErrorIs(t, err, ErrInvalidSchema, "missing alignment must be rejected")

	_, err = ParsePersonalized(`{"summary":"s","contributions":["  "],"alignment":"a","insights":["i"],"recommendations":["r"]}`)
	assert.ErrorIs(t, err, ErrInvalidSchema, "blank contribution must be rejected")

	_, err = ParsePersonalized(`{"summary":"s","contributions":[],"alignment":"   ","insights":["i"],"recommendations":["r"]}`)
	assert.ErrorIs(t, err, ErrInvalidSchema, "blank alignment must be rejected")
}

func TestParseCategorization(t *testing.T) {
	got, err := ParseCategorization(`{"assignments":[{"note":1,"category":"Mobility"}]}`)
	require.NoError(t, err)
	assert.Equal(t, "Mobility", got.Assignments[0].Category)

	_, err = ParseCategorization(`{"assignments":[{"note":0,"category":"Mobility"}]}`)
	assert.ErrorIs(t, err, ErrInvalidSchema)

	_, err = ParseCategorization(`{"assignments":[{"note":1,"category":"  "}]}`)
	assert.ErrorIs(t, err, ErrInvalidSchema)
	_, err = ParseCategorization(`{"assignments":[{"note":1,"category":""}]}`)
	assert.ErrorIs(t, err, ErrInvalidSchema)
	_, err = ParseCategorization(`{}`)
	assert.ErrorIs(t, err, ErrInvalidSchema)
}
