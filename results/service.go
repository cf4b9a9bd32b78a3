// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/envision/llm"
	"github.com/danielhkuo/envision/models"
	"github.com/danielhkuo/envision/ranking"
	"github.com/danielhkuo/envision/scoring"
	"github.com/danielhkuo/envision/store"
)

var (
	// ErrGenerationFailed wraps every model failure: transport errors, empty
	// content and schema mismatches. Nothing is persisted when it is returned.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrUnavailable is returned when no model is configured.
	ErrUnavailable = errors.New("llm not configured")
)

// DefaultConcurrency bounds parallel model calls in GenerateAllPersonalized.
const DefaultConcurrency = 4

// Service generates, validates and stores narrative results.
type Service struct {
	store       *store.Store
	scoring     *scoring.Service
	llm         llm.Completer
	log         *slog.Logger
	concurrency int
}

// NewService creates a Service. completer may be nil, in which case every
// generating call returns ErrUnavailable.
func NewService(st *store.Store, sc *scoring.Service, completer llm.Completer, logger *slog.Logger, concurrency int) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Service{
		store:       st,
		scoring:     sc,
		llm:         completer,
		log:         logger.With("service", "results"),
		concurrency: concurrency,
	}
}

// Available reports whether a model is configured.
func (s *Service) Available() bool { return s.llm != nil }

func (s *Service) complete(ctx context.Context, system, user string) (string, error) {
	if s.llm == nil {
		return "", ErrUnavailable
	}
	raw, err := s.llm.CompleteJSON(ctx, system, user)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	return raw, nil
}

func (s *Service) model() string {
	if s.llm == nil {
		return ""
	}
	return s.llm.Model()
}

// categoryNames maps note id to category name.
func (s *Service) categoryNames(ctx context.Context, workspaceID string) (map[string]string, error) {
	cats, err := s.store.ListCategories(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]string, len(cats))
	for _, c := range cats {
		byID[c.ID] = c.Name
	}
	notes, err := s.store.ListNotes(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(notes))
	for _, n := range notes {
		if n.CategoryID != nil {
			out[n.ID] = byID[*n.CategoryID]
		}
	}
	return out, nil
}

// CohortPrompt builds the user prompt for ws from the combined ranking.
func (s *Service) CohortPrompt(ctx context.Context, ws models.Workspace) (string, error) {
	combined, err := s.scoring.Combined(ctx, ws)
	if err != nil {
		return "", err
	}
	participants, err := s.store.ListParticipants(ctx, ws.ID)
	if err != nil {
		return "", err
	}
	categories, err := s.categoryNames(ctx, ws.ID)
	if err != nil {
		return "", err
	}

	in := cohortInput{
		Title:        ws.Title,
		Description:  ws.Description,
		Participants: len(participants),
		Modules:      enabledModules(ws),
		Ideas:        ideaLines(combined, categories, maxPromptIdeas),
	}
	if ws.ModuleEnabled(ranking.ModuleSurvey) {
		questions, err := s.store.ListSurveyQuestions(ctx, ws.ID)
		if err != nil {
			return "", err
		}
		for _, q := range questions {
			in.SurveyQuestions = append(in.SurveyQuestions, q.Prompt)
		}
	}
	return renderCohort(in)
}

// GenerateCohortResult asks the model for the workshop narrative and stores
// it only if it validates.
func (s *Service) GenerateCohortResult(ctx context.Context, ws models.Workspace) (models.StoredResult, error) {
	if s.llm == nil {
		return models.StoredResult{}, ErrUnavailable
	}
	prompt, err := s.CohortPrompt(ctx, ws)
	if err != nil {
		return models.StoredResult{}, err
	}

	raw, err := s.complete(ctx, cohortSystem, prompt)
	if err != nil {
		return models.StoredResult{}, err
	}
	result, err := ParseCohort(raw)
	if err != nil {
		return models.StoredResult{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return models.StoredResult{}, fmt.Errorf("marshal cohort result: %w", err)
	}
	return s.store.InsertCohortResult(ctx, ws.ID, s.model(), payload)
}

// GeneratePersonalizedResult asks the model for one participant's debrief.
func (s *Service) GeneratePersonalizedResult(ctx context.Context, ws models.Workspace, participantID string) (models.StoredResult, error) {
	if s.llm == nil {
		return models.StoredResult{}, ErrUnavailable
	}
	combined, err := s.scoring.Combined(ctx, ws)
	if err != nil {
		return models.StoredResult{}, err
	}
	return s.generatePersonalized(ctx, ws, combined, participantID)
}

func (s *Service) generatePersonalized(ctx context.Context, ws models.Workspace, combined ranking.CombinedRanking, participantID string) (models.StoredResult, error) {
	activity, err := s.scoring.ParticipantActivity(ctx, ws, participantID)
	if err != nil {
		return models.StoredResult{}, err
	}

	prompt, err := renderPersonalized(personalizedInput{
		Title:        ws.Title,
		Name:         activity.Participant.DisplayName,
		Modules:      enabledModules(ws),
		Activity:     activity,
		TopIdeas:     ideaLines(combined, nil, maxPersonalIdeas),
		Pairwise:     ws.ModuleEnabled(ranking.ModulePairwise),
		StackRanking: ws.ModuleEnabled(ranking.ModuleStackRanking),
		Marketplace:  ws.ModuleEnabled(ranking.ModuleMarketplace),
		Survey:       ws.ModuleEnabled(ranking.ModuleSurvey),
	})
	if err != nil {
		return models.StoredResult{}, err
	}

	raw, err := s.complete(ctx, personalizedSystem, prompt)
	if err != nil {
		return models.StoredResult{}, err
	}
	result, err := ParsePersonalized(raw)
	if err != nil {
		return models.StoredResult{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return models.StoredResult{}, fmt.Errorf("marshal personalized result: %w", err)
	}
	return s.store.InsertPersonalizedResult(ctx, ws.ID, participantID, s.model(), payload)
}

// GenerateAllPersonalized generates a debrief for every participant. A
// failure for one participant is logged and the batch carries on; the
// returned error is only for failures before the batch starts.
func (s *Service) GenerateAllPersonalized(ctx context.Context, ws models.Workspace) (models.BatchResultResponse, error) {
	if s.llm == nil {
		return models.BatchResultResponse{}, ErrUnavailable
	}
	participants, err := s.store.ListParticipants(ctx, ws.ID)
	if err != nil {
		return models.BatchResultResponse{}, err
	}
	combined, err := s.scoring.Combined(ctx, ws)
	if err != nil {
		return models.BatchResultResponse{}, err
	}

	var (
		mu     sync.Mutex
		failed []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, p := range participants {
		g.Go(func() error {
			if _, err := s.generatePersonalized(gctx, ws, combined, p.ID); err != nil {
				s.log.Warn("personalized result failed",
					"workspace_id", ws.ID, "participant_id", p.ID, "error", err)
				mu.Lock()
				failed = append(failed, p.ID)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(failed)
	resp := models.BatchResultResponse{
		Succeeded:            len(participants) - len(failed),
		Failed:               len(failed),
		FailedParticipantIDs: failed,
	}
	if resp.FailedParticipantIDs == nil {
		resp.FailedParticipantIDs = []string{}
	}
	s.log.Info("personalized batch finished", "workspace_id", ws.ID,
		"succeeded", resp.Succeeded, "failed", resp.Failed)
	return resp, nil
}

// Categorize asks the model to sort every note into a category, reusing
// existing names where it can. The whole answer is rejected if any
// assignment points at a note that was not offered.
func (s *Service) Categorize(ctx context.Context, ws models.Workspace) (models.CategorizeResponse, error) {
	if s.llm == nil {
		return models.CategorizeResponse{}, ErrUnavailable
	}
	notes, err := s.store.ListNotes(ctx, ws.ID)
	if err != nil {
		return models.CategorizeResponse{}, err
	}
	if len(notes) == 0 {
		return models.CategorizeResponse{}, nil
	}
	cats, err := s.store.ListCategories(ctx, ws.ID)
	if err != nil {
		return models.CategorizeResponse{}, err
	}

	in := categorizeInput{}
	for _, c := range cats {
		in.Categories = append(in.Categories, c.Name)
	}
	for _, n := range notes {
		in.Notes = append(in.Notes, n.Content)
	}
	prompt, err := renderCategorize(in)
	if err != nil {
		return models.CategorizeResponse{}, err
	}

	raw, err := s.complete(ctx, categorizeSystem, prompt)
	if err != nil {
		return models.CategorizeResponse{}, err
	}
	parsed, err := ParseCategorization(raw)
	if err != nil {
		return models.CategorizeResponse{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	assignments := make(map[string]string, len(parsed.Assignments))
	for _, a := range parsed.Assignments {
		if a.Note > len(notes) {
			return models.CategorizeResponse{}, fmt.Errorf("%w: %w: note %d out of range", ErrGenerationFailed, ErrInvalidSchema, a.Note)
		}
		assignments[notes[a.Note-1].ID] = a.Category
	}

	assigned, created, err := s.store.AssignCategories(ctx, ws.ID, assignments)
	if err != nil {
		return models.CategorizeResponse{}, err
	}
	return models.CategorizeResponse{Assigned: assigned, CategoriesCreated: created}, nil
}
