// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ranking

import (
	"math"
	"sort"
)

// RankRow is one stored stack-ranking row.
type RankRow struct {
	ParticipantID string
	NoteID        string
	Rank          int
}

// RankEntry is one element of a ranking submission.
type RankEntry struct {
	NoteID string `json:"note_id"`
	Rank   int    `json:"rank"`
}

// BordaScore is the aggregate for a single note
type BordaScore struct {
	NoteID      string  `json:"note_id"`
	TotalScore  int     `json:"total_score"`
	AverageRank float64 `json:"average_rank"`
	RankedBy    int     `json:"ranked_by"`
}

// RankingProgress reports how many participants submitted a complete ranking
type RankingProgress struct {
	NoteCount             int      `json:"note_count"`
	CompletedParticipants int      `json:"completed_participants"`
	TotalParticipants     int      `json:"total_participants"`
	Percentage            int      `json:"percentage"`
	Completed             []string `json:"completed_participant_ids"`
}

// CalculateBordaScores awards N-r+1 points for every row with rank r, where N
// is the current note count. Ranks outside [1,N] are clamped, and rows for
// notes outside noteIDs are ignored. Every note appears in the output, sorted
// by total desc, average rank asc, note id asc.
func CalculateBordaScores(noteIDs []string, rows []RankRow) []BordaScore {
	type acc struct {
		total, rankSum, count int
	}

	n := 0
	byNote := make(map[string]*acc, len(noteIDs))
	for _, id := range noteIDs {
		if _, dup := byNote[id]; dup {
			continue
		}
		byNote[id] = &acc{}
		n++
	}

	for _, row := range rows {
		a, ok := byNote[row.NoteID]
		if !ok {
			continue
		}
		r := clampRank(row.Rank, n)
		a.total += n - r + 1
		a.rankSum += r
		a.count++
	}

	scores := make([]BordaScore, 0, n)
	for id, a := range byNote {
		s := BordaScore{NoteID: id, TotalScore: a.total, RankedBy: a.count}
		if a.count > 0 {
			s.AverageRank = float64(a.rankSum) / float64(a.count)
		}
		scores = append(scores, s)
	}

	sort.Slice(scores, func(i, j int) bool {
		a, b := scores[i], scores[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		if a.AverageRank != b.AverageRank {
			return a.AverageRank < b.AverageRank
		}
		return a.NoteID < b.NoteID
	})

	return scores
}

func clampRank(r, n int) int {
	if r < 1 {
		return 1
	}
	if r > n {
		return n
	}
	return r
}

// ValidateRanking accepts a submission only if it ranks every note in noteIDs
// exactly once and its ranks are exactly 1..N.
func ValidateRanking(noteIDs []string, submission []RankEntry) error {
	verr := NewValidationError("ranking")

	valid := make(map[string]bool, len(noteIDs))
	for _, id := range noteIDs {
		valid[id] = true
	}
	n := len(valid)

	if n == 0 {
		verr.AddError("workspace has no notes to rank")
		return verr
	}
	if len(submission) != n {
		verr.AddError("expected %d ranked notes, got %d", n, len(submission))
	}

	seen := make(map[string]bool, len(submission))
	ranks := make([]int, 0, len(submission))
	for _, e := range submission {
		switch {
		case e.NoteID == "":
			verr.AddError("note_id is required")
		case !valid[e.NoteID]:
			verr.AddError("note %s does not belong to this workspace", e.NoteID)
		case seen[e.NoteID]:
			verr.AddError("note %s is ranked more than once", e.NoteID)
		}
		seen[e.NoteID] = true
		ranks = append(ranks, e.Rank)
	}

	if len(ranks) == n {
		sort.Ints(ranks)
		for i, r := range ranks {
			if r != i+1 {
				verr.AddError("ranks must be exactly 1..%d", n)
				break
			}
		}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// CalculateRankingProgress counts participants whose stored row count equals
// the current note count. With no notes nobody is complete.
func CalculateRankingProgress(noteCount int, participantIDs []string, rows []RankRow) RankingProgress {
	perParticipant := make(map[string]int)
	for _, row := range rows {
		perParticipant[row.ParticipantID]++
	}

	progress := RankingProgress{
		NoteCount:         noteCount,
		TotalParticipants: len(participantIDs),
		Completed:         []string{},
	}
	for _, pid := range participantIDs {
		if noteCount > 0 && perParticipant[pid] == noteCount {
			progress.CompletedParticipants++
			progress.Completed = append(progress.Completed, pid)
		}
	}
	progress.Percentage = percentage(progress.CompletedParticipants, progress.TotalParticipants)

	return progress
}

// percentage returns round(part/whole*100), or 0 when whole is 0.
func percentage(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}
