// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scoring

import (
	"context"
	"sort"

	"github.com/danielhkuo/envision/models"
	"github.com/danielhkuo/envision/ranking"
)

// surveyScale is the top of the Likert scale.
const surveyScale = 5

// Combined returns the equal-weighted ranking across every enabled module
// that has data.
func (s *Service) Combined(ctx context.Context, ws models.Workspace) (ranking.CombinedRanking, error) {
	return cached(ctx, s, ws.ID, kindCombined, func() (ranking.CombinedRanking, error) {
		notes, err := s.store.ListNotes(ctx, ws.ID)
		if err != nil {
			return ranking.CombinedRanking{}, err
		}
		modules, err := s.moduleScores(ctx, ws)
		if err != nil {
			return ranking.CombinedRanking{}, err
		}
		return ranking.CombineScores(rankingNotes(notes), ws.Modules, modules), nil
	})
}

// moduleScores loads raw per-note values for every enabled module.
func (s *Service) moduleScores(ctx context.Context, ws models.Workspace) ([]ranking.ModuleScores, error) {
	var out []ranking.ModuleScores

	for _, kind := range ws.Modules {
		m := ranking.ModuleScores{Kind: kind}

		switch kind {
		case ranking.ModulePairwise:
			votes, err := s.store.ListVotes(ctx, ws.ID)
			if err != nil {
				return nil, err
			}
			m.Values = ranking.WinValues(ranking.CountWins(votes))
			m.DataPoints = len(votes)

		case ranking.ModuleStackRanking:
			rows, err := s.store.ListRankings(ctx, ws.ID)
			if err != nil {
				return nil, err
			}
			scores, err := s.BordaScores(ctx, ws)
			if err != nil {
				return nil, err
			}
			m.Values = ranking.BordaTotals(scores)
			m.DataPoints = len(rows)

		case ranking.ModuleMarketplace:
			rows, err := s.store.ListAllocations(ctx, ws.ID)
			if err != nil {
				return nil, err
			}
			m.Values = ranking.MarketplaceTotals(rows)
			m.DataPoints = len(rows)

		case ranking.ModulePriorityMatrix:
			positions, err := s.store.ListMatrixPositions(ctx, ws.ID)
			if err != nil {
				return nil, err
			}
			rows := make([]ranking.PositionRow, len(positions))
			for i, p := range positions {
				rows[i] = ranking.PositionRow{NoteID: p.NoteID, RunID: p.RunID, X: p.X, Y: p.Y}
			}
			m.Values = ranking.MeanX(rows)
			m.DataPoints = len(rows)

		case ranking.ModuleStaircase:
			positions, err := s.store.ListStaircasePositions(ctx, ws.ID)
			if err != nil {
				return nil, err
			}
			rows := make([]ranking.PositionRow, len(positions))
			for i, p := range positions {
				rows[i] = ranking.PositionRow{NoteID: p.NoteID, RunID: p.RunID, X: p.Score}
			}
			m.Values = ranking.MeanX(rows)
			m.DataPoints = len(rows)
			m.Denominator = ws.StaircaseMax
			if m.Denominator <= 0 {
				// A negative denominator normalizes everything to 0.
				m.Denominator = -1
			}

		case ranking.ModuleSurvey:
			rows, err := s.store.ListSurveyResponses(ctx, ws.ID)
			if err != nil {
				return nil, err
			}
			m.Values = ranking.SurveyMeans(rows)
			m.DataPoints = len(rows)
			m.Denominator = surveyScale

		default:
			continue
		}

		out = append(out, m)
	}
	return out, nil
}

// NoteCoins is one marketplace allocation with its note content.
type NoteCoins struct {
	Content string `json:"content"`
	Coins   int    `json:"coins"`
}

// ParticipantActivity is what one participant contributed to a workspace.
type ParticipantActivity struct {
	Participant     models.Participant `json:"participant"`
	AuthoredNotes   []string           `json:"authored_notes"`
	VotesCast       int                `json:"votes_cast"`
	FavoredNotes    []string           `json:"favored_notes"`
	TopRanked       []string           `json:"top_ranked"`
	Allocations     []NoteCoins        `json:"allocations"`
	SurveyResponses int                `json:"survey_responses"`
}

// maxListed caps the per-participant lists fed to prompts.
const maxListed = 5

// ParticipantActivity collects a participant's contributions in enabled modules.
func (s *Service) ParticipantActivity(ctx context.Context, ws models.Workspace, participantID string) (ParticipantActivity, error) {
	p, err := s.store.GetParticipant(ctx, ws.ID, participantID)
	if err != nil {
		return ParticipantActivity{}, err
	}
	notes, err := s.store.ListNotes(ctx, ws.ID)
	if err != nil {
		return ParticipantActivity{}, err
	}

	content := make(map[string]string, len(notes))
	act := ParticipantActivity{
		Participant:   p,
		AuthoredNotes: []string{},
		FavoredNotes:  []string{},
		TopRanked:     []string{},
		Allocations:   []NoteCoins{},
	}
	for _, n := range notes {
		content[n.ID] = n.Content
		if n.AuthorID != nil && *n.AuthorID == participantID {
			act.AuthoredNotes = append(act.AuthoredNotes, n.Content)
		}
	}

	if ws.ModuleEnabled(ranking.ModulePairwise) {
		votes, err := s.store.ListParticipantVotes(ctx, ws.ID, participantID)
		if err != nil {
			return ParticipantActivity{}, err
		}
		act.VotesCast = len(votes)
		act.FavoredNotes = topByCount(ranking.CountWins(votes), content)
	}

	if ws.ModuleEnabled(ranking.ModuleStackRanking) {
		rows, err := s.store.ListParticipantRankings(ctx, ws.ID, participantID)
		if err != nil {
			return ParticipantActivity{}, err
		}
		for _, r := range rows {
			if c, ok := content[r.NoteID]; ok && len(act.TopRanked) < maxListed {
				act.TopRanked = append(act.TopRanked, c)
			}
		}
	}

	if ws.ModuleEnabled(ranking.ModuleMarketplace) {
		rows, err := s.store.ListParticipantAllocations(ctx, ws.ID, participantID)
		if err != nil {
			return ParticipantActivity{}, err
		}
		for _, r := range rows {
			if c, ok := content[r.NoteID]; ok && r.Coins > 0 {
				act.Allocations = append(act.Allocations, NoteCoins{Content: c, Coins: r.Coins})
			}
		}
		sort.SliceStable(act.Allocations, func(i, j int) bool {
			return act.Allocations[i].Coins > act.Allocations[j].Coins
		})
	}

	if ws.ModuleEnabled(ranking.ModuleSurvey) {
		rows, err := s.store.ListParticipantSurveyResponses(ctx, ws.ID, participantID)
		if err != nil {
			return ParticipantActivity{}, err
		}
		act.SurveyResponses = len(rows)
	}

	return act, nil
}

// topByCount returns the contents of the most counted notes, count desc then content asc.
func topByCount(counts map[string]int, content map[string]string) []string {
	type kv struct {
		content string
		count   int
	}
	var list []kv
	for id, c := range counts {
		if text, ok := content[id]; ok {
			list = append(list, kv{text, c})
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].count != list[j].count {
			return list[i].count > list[j].count
		}
		return list[i].content < list[j].content
	})

	out := []string{}
	for i := 0; i < len(list) && i < maxListed; i++ {
		out = append(out, list[i].content)
	}
	return out
}
