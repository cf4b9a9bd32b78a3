// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ranking

import "sort"

// AllocationRow is one stored marketplace allocation.
type AllocationRow struct {
	ParticipantID string
	NoteID        string
	Coins         int
}

// AllocationEntry is one element of a marketplace submission.
type AllocationEntry struct {
	NoteID string `json:"note_id"`
	Coins  int    `json:"coins"`
}

// PositionRow is a stored matrix (X, Y) or staircase (X = score) position.
type PositionRow struct {
	NoteID string
	RunID  string
	X      float64
	Y      float64
}

// SurveyRow is one stored survey response.
type SurveyRow struct {
	ParticipantID string
	NoteID        string
	QuestionID    string
	Score         int
}

// NoteTotal is a per-note aggregate used by read endpoints
type NoteTotal struct {
	NoteID string  `json:"note_id"`
	Value  float64 `json:"value"`
	Count  int     `json:"count"`
}

// ValidateAllocation checks a marketplace submission against the note set
// and the coin budget.
func ValidateAllocation(noteIDs []string, budget int, submission []AllocationEntry) error {
	verr := NewValidationError("allocation")

	valid := make(map[string]bool, len(noteIDs))
	for _, id := range noteIDs {
		valid[id] = true
	}

	seen := make(map[string]bool, len(submission))
	spent := 0
	for _, e := range submission {
		switch {
		case !valid[e.NoteID]:
			verr.AddError("note %s does not belong to this workspace", e.NoteID)
		case seen[e.NoteID]:
			verr.AddError("note %s is allocated more than once", e.NoteID)
		}
		seen[e.NoteID] = true
		if e.Coins < 0 {
			verr.AddError("coins for note %s must not be negative", e.NoteID)
		}
		spent += e.Coins
	}
	if spent > budget {
		verr.AddError("allocated %d coins, budget is %d", spent, budget)
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// MarketplaceTotals sums coins per note. Stored allocations are taken as-is.
func MarketplaceTotals(rows []AllocationRow) map[string]float64 {
	totals := make(map[string]float64)
	for _, r := range rows {
		totals[r.NoteID] += float64(r.Coins)
	}
	return totals
}

// MeanX averages the X coordinate per note across module runs.
func MeanX(rows []PositionRow) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range rows {
		sums[r.NoteID] += r.X
		counts[r.NoteID]++
	}
	for id, c := range counts {
		sums[id] /= float64(c)
	}
	return sums
}

// SurveyMeans averages survey scores per note across questions and participants.
func SurveyMeans(rows []SurveyRow) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range rows {
		sums[r.NoteID] += float64(r.Score)
		counts[r.NoteID]++
	}
	for id, c := range counts {
		sums[id] /= float64(c)
	}
	return sums
}

// SurveyCounts returns response counts per note.
func SurveyCounts(rows []SurveyRow) map[string]int {
	counts := make(map[string]int)
	for _, r := range rows {
		counts[r.NoteID]++
	}
	return counts
}

// Totals turns a per-note value map into a sorted list covering every note.
// Sorted by value desc, note id asc.
func Totals(noteIDs []string, values map[string]float64, counts map[string]int) []NoteTotal {
	out := make([]NoteTotal, 0, len(noteIDs))
	seen := make(map[string]bool, len(noteIDs))
	for _, id := range noteIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, NoteTotal{NoteID: id, Value: values[id], Count: counts[id]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].NoteID < out[j].NoteID
	})
	return out
}

// BordaTotals maps Borda scores to raw module values.
func BordaTotals(scores []BordaScore) map[string]float64 {
	out := make(map[string]float64, len(scores))
	for _, s := range scores {
		out[s.NoteID] = float64(s.TotalScore)
	}
	return out
}

// WinValues converts win counts to raw module values.
func WinValues(wins map[string]int) map[string]float64 {
	out := make(map[string]float64, len(wins))
	for id, w := range wins {
		out[id] = float64(w)
	}
	return out
}
