// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ranking

import "sort"

// PairwiseScope controls which note pairs are compared.
type PairwiseScope string

const (
	ScopeAll              PairwiseScope = "all"
	ScopeWithinCategories PairwiseScope = "within_categories"
)

// Valid reports whether s is a known scope.
func (s PairwiseScope) Valid() bool {
	return s == ScopeAll || s == ScopeWithinCategories
}

// VoteRow is one recorded pairwise vote.
type VoteRow struct {
	ParticipantID string
	WinnerID      string
	LoserID       string
}

// Pair is an unordered note pair presented as left (A) and right (B).
type Pair struct {
	A string `json:"note_a_id"`
	B string `json:"note_b_id"`
}

func (p Pair) key() pairKey { return makePairKey(p.A, p.B) }

type pairKey struct{ lo, hi string }

func makePairKey(a, b string) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

// PairwiseProgress summarizes one participant's pairwise session
type PairwiseProgress struct {
	CompletedPairs int  `json:"completed_pairs"`
	TotalPairs     int  `json:"total_pairs"`
	Percentage     int  `json:"percentage"`
	IsComplete     bool `json:"is_complete"`
}

// CandidatePairs returns every pair a participant will be asked about, in
// presentation order. Each category group (uncategorized notes form their
// own group under ScopeWithinCategories) is scheduled with the circle method
// so consecutive pairs rarely repeat a note, and rounds from different groups
// are interleaved. Notes keep their input order inside a group.
func CandidatePairs(notes []Note, scope PairwiseScope) []Pair {
	groups := groupNotes(notes, scope)

	schedules := make([][][]Pair, len(groups))
	maxRounds := 0
	for i, g := range groups {
		schedules[i] = roundRobin(g)
		if len(schedules[i]) > maxRounds {
			maxRounds = len(schedules[i])
		}
	}

	var pairs []Pair
	for round := 0; round < maxRounds; round++ {
		for _, rounds := range schedules {
			if round < len(rounds) {
				pairs = append(pairs, rounds[round]...)
			}
		}
	}
	return pairs
}

// groupNotes splits notes into comparison groups, dropping duplicate ids.
// Groups are ordered by category id, with uncategorized first.
func groupNotes(notes []Note, scope PairwiseScope) [][]string {
	seen := make(map[string]bool, len(notes))
	if scope != ScopeWithinCategories {
		ids := make([]string, 0, len(notes))
		for _, n := range notes {
			if !seen[n.ID] {
				seen[n.ID] = true
				ids = append(ids, n.ID)
			}
		}
		return [][]string{ids}
	}

	byCategory := make(map[string][]string)
	for _, n := range notes {
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		byCategory[n.CategoryID] = append(byCategory[n.CategoryID], n.ID)
	}

	keys := make([]string, 0, len(byCategory))
	for k := range byCategory {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groups := make([][]string, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, byCategory[k])
	}
	return groups
}

// roundRobin schedules all C(n,2) pairs of ids into n-1 (or n, for odd n) rounds.
func roundRobin(ids []string) [][]Pair {
	n := len(ids)
	if n < 2 {
		return nil
	}

	// Slot -1 is a bye for odd groups.
	slots := make([]int, n, n+1)
	for i := range slots {
		slots[i] = i
	}
	if n%2 == 1 {
		slots = append(slots, -1)
	}
	m := len(slots)

	rounds := make([][]Pair, 0, m-1)
	for r := 0; r < m-1; r++ {
		var round []Pair
		for i := 0; i < m/2; i++ {
			a, b := slots[i], slots[m-1-i]
			if a < 0 || b < 0 {
				continue
			}
			if r%2 == 1 {
				a, b = b, a
			}
			round = append(round, Pair{A: ids[a], B: ids[b]})
		}
		rounds = append(rounds, round)

		// Keep slot 0 fixed and rotate the rest one step.
		last := slots[m-1]
		copy(slots[2:], slots[1:m-1])
		slots[1] = last
	}
	return rounds
}

// settledPairs returns the unordered pairs covered by votes.
func settledPairs(votes []VoteRow) map[pairKey]bool {
	settled := make(map[pairKey]bool, len(votes))
	for _, v := range votes {
		settled[makePairKey(v.WinnerID, v.LoserID)] = true
	}
	return settled
}

// NextPair returns the first candidate pair the participant has not voted on.
// votes must be that participant's votes only. ok is false when every
// candidate pair is settled.
func NextPair(notes []Note, scope PairwiseScope, votes []VoteRow) (Pair, PairwiseProgress, bool) {
	candidates := CandidatePairs(notes, scope)
	settled := settledPairs(votes)

	progress := pairwiseProgress(candidates, settled)

	for _, p := range candidates {
		if !settled[p.key()] {
			return p, progress, true
		}
	}
	return Pair{}, progress, false
}

// CalculatePairwiseProgress reports settled candidate pairs for one participant.
func CalculatePairwiseProgress(notes []Note, scope PairwiseScope, votes []VoteRow) PairwiseProgress {
	return pairwiseProgress(CandidatePairs(notes, scope), settledPairs(votes))
}

// IsCandidatePair reports whether a and b form a pair the selector would offer.
func IsCandidatePair(notes []Note, scope PairwiseScope, a, b string) bool {
	if a == b {
		return false
	}
	var na, nb *Note
	for i := range notes {
		switch notes[i].ID {
		case a:
			na = &notes[i]
		case b:
			nb = &notes[i]
		}
	}
	if na == nil || nb == nil {
		return false
	}
	if scope == ScopeWithinCategories {
		return na.CategoryID == nb.CategoryID
	}
	return true
}

func pairwiseProgress(candidates []Pair, settled map[pairKey]bool) PairwiseProgress {
	p := PairwiseProgress{TotalPairs: len(candidates)}
	for _, c := range candidates {
		if settled[c.key()] {
			p.CompletedPairs++
		}
	}
	p.IsComplete = p.CompletedPairs == p.TotalPairs
	if p.TotalPairs == 0 {
		p.Percentage = 100
	} else {
		p.Percentage = percentage(p.CompletedPairs, p.TotalPairs)
	}
	return p
}

// CountWins tallies wins per note across votes.
func CountWins(votes []VoteRow) map[string]int {
	wins := make(map[string]int)
	for _, v := range votes {
		wins[v.WinnerID]++
	}
	return wins
}

// LeaderboardEntry is a note's pairwise record
type LeaderboardEntry struct {
	NoteID  string  `json:"note_id"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	WinRate float64 `json:"win_rate"`
}

// Leaderboard returns win/loss records for every note, sorted by wins desc,
// win rate desc, note id asc. Votes on notes outside the set are ignored.
func Leaderboard(noteIDs []string, votes []VoteRow) []LeaderboardEntry {
	entries := make(map[string]*LeaderboardEntry, len(noteIDs))
	for _, id := range noteIDs {
		entries[id] = &LeaderboardEntry{NoteID: id}
	}
	for _, v := range votes {
		w, wok := entries[v.WinnerID]
		l, lok := entries[v.LoserID]
		if !wok || !lok {
			continue
		}
		w.Wins++
		l.Losses++
	}

	out := make([]LeaderboardEntry, 0, len(entries))
	for _, e := range entries {
		if played := e.Wins + e.Losses; played > 0 {
			e.WinRate = float64(e.Wins) / float64(played)
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.WinRate != b.WinRate {
			return a.WinRate > b.WinRate
		}
		return a.NoteID < b.NoteID
	})
	return out
}
