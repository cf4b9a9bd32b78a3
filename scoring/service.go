// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scoring

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/envision/auth"
	"github.com/danielhkuo/envision/models"
	"github.com/danielhkuo/envision/ranking"
	"github.com/danielhkuo/envision/store"
)

// Cache keeps computed scores between writes. Implementations must drop
// everything for a workspace on Invalidate and advance its generation, and
// Set must not store a value whose generation is no longer current.
type Cache interface {
	Generation(ctx context.Context, workspaceID string) (int64, error)
	Get(ctx context.Context, workspaceID, kind string, dst any) (bool, error)
	Set(ctx context.Context, workspaceID, kind string, gen int64, v any) error
	Invalidate(ctx context.Context, workspaceID string) error
}

// Cache kinds.
const (
	kindBorda       = "borda"
	kindLeaderboard = "leaderboard"
	kindCombined    = "combined"
)

// Service loads raw rows from the store and runs the ranking algorithms.
// Every read recomputes from raw rows unless a cache is configured.
type Service struct {
	store *store.Store
	cache Cache
	log   *slog.Logger
}

// NewService creates a Service. cache may be nil.
func NewService(st *store.Store, cache Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, cache: cache, log: logger.With("service", "scoring")}
}

// Invalidate drops cached scores after a write. Cache errors are logged only.
func (s *Service) Invalidate(ctx context.Context, workspaceID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, workspaceID); err != nil {
		s.log.Warn("failed to invalidate score cache", "workspace_id", workspaceID, "error", err)
	}
}

// cached returns the cached value of kind or computes and stores it. The
// generation is read before computing so a write landing mid-compute keeps
// the result out of the cache.
func cached[T any](ctx context.Context, s *Service, workspaceID, kind string, compute func() (T, error)) (T, error) {
	useCache := s.cache != nil
	var gen int64
	if useCache {
		var err error
		if gen, err = s.cache.Generation(ctx, workspaceID); err != nil {
			s.log.Warn("score cache read failed", "workspace_id", workspaceID, "kind", kind, "error", err)
			useCache = false
		}
	}
	if useCache {
		var v T
		ok, err := s.cache.Get(ctx, workspaceID, kind, &v)
		if err != nil {
			s.log.Warn("score cache read failed", "workspace_id", workspaceID, "kind", kind, "error", err)
		} else if ok {
			return v, nil
		}
	}

	v, err := compute()
	if err != nil {
		return v, err
	}

	if useCache {
		if err := s.cache.Set(ctx, workspaceID, kind, gen, v); err != nil {
			s.log.Warn("score cache write failed", "workspace_id", workspaceID, "kind", kind, "error", err)
		}
	}
	return v, nil
}

func rankingNotes(notes []models.Note) []ranking.Note {
	out := make([]ranking.Note, len(notes))
	for i, n := range notes {
		out[i] = n.RankingNote()
	}
	return out
}

func noteIDs(notes []models.Note) []string {
	ids := make([]string, len(notes))
	for i, n := range notes {
		ids[i] = n.ID
	}
	return ids
}

// BordaScores returns stack-ranking scores over the notes visible in that module.
func (s *Service) BordaScores(ctx context.Context, ws models.Workspace) ([]ranking.BordaScore, error) {
	return cached(ctx, s, ws.ID, kindBorda, func() ([]ranking.BordaScore, error) {
		notes, err := s.store.ListNotesFor(ctx, ws.ID, ranking.ModuleStackRanking)
		if err != nil {
			return nil, err
		}
		rows, err := s.store.ListRankings(ctx, ws.ID)
		if err != nil {
			return nil, err
		}
		return ranking.CalculateBordaScores(noteIDs(notes), rows), nil
	})
}

// RankingProgress reports how many participants have a complete ranking.
func (s *Service) RankingProgress(ctx context.Context, ws models.Workspace) (ranking.RankingProgress, error) {
	notes, err := s.store.ListNotesFor(ctx, ws.ID, ranking.ModuleStackRanking)
	if err != nil {
		return ranking.RankingProgress{}, err
	}
	participants, err := s.store.ListParticipants(ctx, ws.ID)
	if err != nil {
		return ranking.RankingProgress{}, err
	}
	rows, err := s.store.ListRankings(ctx, ws.ID)
	if err != nil {
		return ranking.RankingProgress{}, err
	}

	// Rows for hidden notes do not count toward completion.
	visible := make(map[string]bool, len(notes))
	for _, n := range notes {
		visible[n.ID] = true
	}
	counted := rows[:0:0]
	for _, r := range rows {
		if visible[r.NoteID] {
			counted = append(counted, r)
		}
	}

	pids := make([]string, len(participants))
	for i, p := range participants {
		pids[i] = p.ID
	}
	return ranking.CalculateRankingProgress(len(notes), pids, counted), nil
}

// ValidateRanking checks a submission against the workspace's rankable notes.
func (s *Service) ValidateRanking(ctx context.Context, ws models.Workspace, entries []ranking.RankEntry) error {
	notes, err := s.store.ListNotesFor(ctx, ws.ID, ranking.ModuleStackRanking)
	if err != nil {
		return err
	}
	return ranking.ValidateRanking(noteIDs(notes), entries)
}

// ValidateAllocation checks a marketplace submission against notes and budget.
func (s *Service) ValidateAllocation(ctx context.Context, ws models.Workspace, entries []ranking.AllocationEntry) error {
	notes, err := s.store.ListNotesFor(ctx, ws.ID, ranking.ModuleMarketplace)
	if err != nil {
		return err
	}
	return ranking.ValidateAllocation(noteIDs(notes), ws.CoinBudget, entries)
}

// NextPair returns the participant's next undecided pair. The session must be
// a participant session for ws.
func (s *Service) NextPair(ctx context.Context, ws models.Workspace, sess auth.Session) (models.NextPairResponse, error) {
	if sess.ParticipantID == "" || sess.WorkspaceID != ws.ID {
		return models.NextPairResponse{}, fmt.Errorf("next pair: %w", auth.ErrInvalidToken)
	}

	notes, err := s.store.ListNotesFor(ctx, ws.ID, ranking.ModulePairwise)
	if err != nil {
		return models.NextPairResponse{}, err
	}
	votes, err := s.store.ListParticipantVotes(ctx, ws.ID, sess.ParticipantID)
	if err != nil {
		return models.NextPairResponse{}, err
	}

	pair, progress, ok := ranking.NextPair(rankingNotes(notes), ws.PairwiseScope, votes)
	resp := models.NextPairResponse{Complete: !ok, Progress: progress}
	if ok {
		for i := range notes {
			switch notes[i].ID {
			case pair.A:
				resp.NoteA = &notes[i]
			case pair.B:
				resp.NoteB = &notes[i]
			}
		}
	}
	return resp, nil
}

// IsCandidatePair reports whether a vote on (a, b) is allowed in ws.
func (s *Service) IsCandidatePair(ctx context.Context, ws models.Workspace, a, b string) (bool, error) {
	notes, err := s.store.ListNotesFor(ctx, ws.ID, ranking.ModulePairwise)
	if err != nil {
		return false, err
	}
	return ranking.IsCandidatePair(rankingNotes(notes), ws.PairwiseScope, a, b), nil
}

// Leaderboard returns pairwise win/loss records.
func (s *Service) Leaderboard(ctx context.Context, ws models.Workspace) ([]ranking.LeaderboardEntry, error) {
	return cached(ctx, s, ws.ID, kindLeaderboard, func() ([]ranking.LeaderboardEntry, error) {
		notes, err := s.store.ListNotesFor(ctx, ws.ID, ranking.ModulePairwise)
		if err != nil {
			return nil, err
		}
		votes, err := s.store.ListVotes(ctx, ws.ID)
		if err != nil {
			return nil, err
		}
		return ranking.Leaderboard(noteIDs(notes), votes), nil
	})
}

// MarketplaceTotals returns coins received per note.
func (s *Service) MarketplaceTotals(ctx context.Context, ws models.Workspace) ([]ranking.NoteTotal, error) {
	notes, err := s.store.ListNotesFor(ctx, ws.ID, ranking.ModuleMarketplace)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListAllocations(ctx, ws.ID)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, r := range rows {
		if r.Coins > 0 {
			counts[r.NoteID]++
		}
	}
	return ranking.Totals(noteIDs(notes), ranking.MarketplaceTotals(rows), counts), nil
}

// SurveySummary returns the mean survey score per note.
func (s *Service) SurveySummary(ctx context.Context, ws models.Workspace) ([]models.SurveySummaryEntry, error) {
	notes, err := s.store.ListNotesFor(ctx, ws.ID, ranking.ModuleSurvey)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListSurveyResponses(ctx, ws.ID)
	if err != nil {
		return nil, err
	}

	content := make(map[string]string, len(notes))
	for _, n := range notes {
		content[n.ID] = n.Content
	}
	totals := ranking.Totals(noteIDs(notes), ranking.SurveyMeans(rows), ranking.SurveyCounts(rows))

	out := make([]models.SurveySummaryEntry, len(totals))
	for i, t := range totals {
		out[i] = models.SurveySummaryEntry{NoteID: t.NoteID, Content: content[t.NoteID], Mean: t.Value, Responses: t.Count}
	}
	return out, nil
}
