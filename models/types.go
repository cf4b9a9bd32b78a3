package models

import (
	"encoding/json"
	"time"

	"github.com/danielhkuo/envision/ranking"
)

// Workspace status constants
const (
	StatusDraft  = "draft"
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Note source constants
const (
	SourceParticipant = "participant"
	SourceFacilitator = "facilitator"
	SourceImport      = "import"
)

// Workspace defaults
const (
	DefaultCoinBudget   = 100
	DefaultStaircaseMin = 0.0
	DefaultStaircaseMax = 10.0
)

// DefaultModules are enabled when a workspace is created without a module list.
var DefaultModules = []ranking.ModuleKind{ranking.ModulePairwise, ranking.ModuleStackRanking}

// Request types

type CreateOrganizationRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type CreateWorkspaceRequest struct {
	OrganizationID  string   `json:"organization_id"`
	Title           string   `json:"title" validate:"required,max=200"`
	Description     string   `json:"description" validate:"max=4000"`
	FacilitatorName string   `json:"facilitator_name" validate:"required,max=100"`
	Modules         []string `json:"modules"`
	PairwiseScope   string   `json:"pairwise_scope" validate:"omitempty,oneof=all within_categories"`
	CoinBudget      *int     `json:"coin_budget" validate:"omitempty,min=1"`
	StaircaseMin    *float64 `json:"staircase_min"`
	StaircaseMax    *float64 `json:"staircase_max"`
}

// UpdateSettingsRequest only changes the fields that are present
type UpdateSettingsRequest struct {
	Modules       *[]string `json:"modules"`
	PairwiseScope *string   `json:"pairwise_scope" validate:"omitempty,oneof=all within_categories"`
	CoinBudget    *int      `json:"coin_budget" validate:"omitempty,min=1"`
	StaircaseMin  *float64  `json:"staircase_min"`
	StaircaseMax  *float64  `json:"staircase_max"`
}

type JoinWorkspaceRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=100"`
}

type CreateCategoryRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Color string `json:"color" validate:"max=32"`
}

type CreateNoteRequest struct {
	Content       string   `json:"content" validate:"required,max=2000"`
	CategoryID    *string  `json:"category_id"`
	HiddenModules []string `json:"hidden_modules"`
}

// UpdateNoteRequest changes the present fields. An empty category_id clears
// the category.
type UpdateNoteRequest struct {
	Content       *string   `json:"content" validate:"omitempty,min=1,max=2000"`
	CategoryID    *string   `json:"category_id"`
	HiddenModules *[]string `json:"hidden_modules"`
}

type ImportNote struct {
	Content  string `json:"content" validate:"required,max=2000"`
	Category string `json:"category" validate:"max=100"`
}

type ImportNotesRequest struct {
	Notes []ImportNote `json:"notes" validate:"required,min=1,max=500,dive"`
}

type CastVoteRequest struct {
	WinnerNoteID string `json:"winner_note_id" validate:"required"`
	LoserNoteID  string `json:"loser_note_id" validate:"required"`
}

type BulkRankingRequest struct {
	Rankings []ranking.RankEntry `json:"rankings"`
}

type BulkAllocationRequest struct {
	Allocations []ranking.AllocationEntry `json:"allocations"`
}

type MatrixPositionRequest struct {
	NoteID string  `json:"note_id" validate:"required"`
	RunID  string  `json:"run_id" validate:"max=64"`
	X      float64 `json:"x" validate:"gte=0,lte=1"`
	Y      float64 `json:"y" validate:"gte=0,lte=1"`
}

type StaircasePositionRequest struct {
	NoteID     string  `json:"note_id" validate:"required"`
	RunID      string  `json:"run_id" validate:"max=64"`
	Score      float64 `json:"score"`
	SlotOffset int     `json:"slot_offset"`
}

type CreateSurveyQuestionRequest struct {
	Prompt string `json:"prompt" validate:"required,max=500"`
}

type SurveyAnswer struct {
	NoteID     string `json:"note_id" validate:"required"`
	QuestionID string `json:"question_id" validate:"required"`
	Score      int    `json:"score" validate:"min=1,max=5"`
}

type SurveyResponsesRequest struct {
	Responses []SurveyAnswer `json:"responses" validate:"required,min=1,dive"`
}

// Response types

type CreateOrganizationResponse struct {
	OrganizationID string `json:"organization_id"`
}

type CreateWorkspaceResponse struct {
	WorkspaceID string `json:"workspace_id"`
	AdminKey    string `json:"admin_key"`
}

type PublishWorkspaceResponse struct {
	JoinCode string `json:"join_code"`
	JoinURL  string `json:"join_url"`
}

type CloseWorkspaceResponse struct {
	ClosedAt time.Time `json:"closed_at"`
}

type JoinWorkspaceResponse struct {
	WorkspaceID      string `json:"workspace_id"`
	ParticipantID    string `json:"participant_id"`
	ParticipantToken string `json:"participant_token"`
}

type CreatedResponse struct {
	ID string `json:"id"`
}

type ImportNotesResponse struct {
	Imported          int `json:"imported"`
	CategoriesCreated int `json:"categories_created"`
}

type NextPairResponse struct {
	Complete bool                     `json:"complete"`
	NoteA    *Note                    `json:"note_a,omitempty"`
	NoteB    *Note                    `json:"note_b,omitempty"`
	Progress ranking.PairwiseProgress `json:"progress"`
}

type CastVoteResponse struct {
	VoteID string           `json:"vote_id"`
	Next   NextPairResponse `json:"next"`
}

type SubmissionResponse struct {
	Saved   int    `json:"saved"`
	Message string `json:"message"`
}

type SurveySummaryEntry struct {
	NoteID    string  `json:"note_id"`
	Content   string  `json:"content"`
	Mean      float64 `json:"mean"`
	Responses int     `json:"responses"`
}

type CategorizeResponse struct {
	Assigned          int `json:"assigned"`
	CategoriesCreated int `json:"categories_created"`
}

type BatchResultResponse struct {
	Succeeded            int      `json:"succeeded"`
	Failed               int      `json:"failed"`
	FailedParticipantIDs []string `json:"failed_participant_ids"`
}

// Domain types

type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Workspace struct {
	ID              string                `json:"id"`
	OrganizationID  *string               `json:"organization_id,omitempty"`
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	FacilitatorName string                `json:"facilitator_name"`
	Status          string                `json:"status"`
	JoinCode        *string               `json:"join_code,omitempty"`
	Modules         []ranking.ModuleKind  `json:"modules"`
	PairwiseScope   ranking.PairwiseScope `json:"pairwise_scope"`
	CoinBudget      int                   `json:"coin_budget"`
	StaircaseMin    float64               `json:"staircase_min"`
	StaircaseMax    float64               `json:"staircase_max"`
	ClosedAt        *time.Time            `json:"closed_at,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
}

// ModuleEnabled reports whether the workspace has kind turned on.
func (w Workspace) ModuleEnabled(kind ranking.ModuleKind) bool {
	for _, m := range w.Modules {
		if m == kind {
			return true
		}
	}
	return false
}

type Category struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspace_id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Position    int    `json:"position"`
}

type Participant struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	DisplayName string    `json:"display_name"`
	Token       string    `json:"-"` // Never expose in JSON
	CreatedAt   time.Time `json:"created_at"`
}

type Note struct {
	ID            string               `json:"id"`
	WorkspaceID   string               `json:"workspace_id"`
	Content       string               `json:"content"`
	CategoryID    *string              `json:"category_id,omitempty"`
	Source        string               `json:"source"`
	AuthorID      *string              `json:"author_id,omitempty"`
	HiddenModules []ranking.ModuleKind `json:"hidden_modules"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// VisibleIn reports whether the note takes part in module kind.
func (n Note) VisibleIn(kind ranking.ModuleKind) bool {
	for _, m := range n.HiddenModules {
		if m == kind {
			return false
		}
	}
	return true
}

// RankingNote converts a note to the algorithm input type.
func (n Note) RankingNote() ranking.Note {
	rn := ranking.Note{ID: n.ID, Content: n.Content}
	if n.CategoryID != nil {
		rn.CategoryID = *n.CategoryID
	}
	return rn
}

type Vote struct {
	ID            string    `json:"id"`
	WorkspaceID   string    `json:"workspace_id"`
	ParticipantID string    `json:"participant_id"`
	WinnerNoteID  string    `json:"winner_note_id"`
	LoserNoteID   string    `json:"loser_note_id"`
	CreatedAt     time.Time `json:"created_at"`
}

type MatrixPosition struct {
	NoteID    string    `json:"note_id"`
	RunID     string    `json:"run_id"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	UpdatedAt time.Time `json:"updated_at"`
}

type StaircasePosition struct {
	NoteID     string    `json:"note_id"`
	RunID      string    `json:"run_id"`
	Score      float64   `json:"score"`
	SlotOffset int       `json:"slot_offset"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type SurveyQuestion struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspace_id"`
	Prompt      string `json:"prompt"`
	Position    int    `json:"position"`
}

// StoredResult is a persisted cohort or personalized LLM artifact
type StoredResult struct {
	ID            string          `json:"id"`
	WorkspaceID   string          `json:"workspace_id"`
	ParticipantID *string         `json:"participant_id,omitempty"`
	Model         string          `json:"model"`
	Payload       json.RawMessage `json:"result"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
