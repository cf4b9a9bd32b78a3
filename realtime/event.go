// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"encoding/json"
	"time"
)

// Event types published after writes.
const (
	EventVoteRecorded             = "vote_recorded"
	EventRankingSubmitted         = "ranking_submitted"
	EventMarketplaceUpdated       = "marketplace_updated"
	EventMatrixPositionUpdated    = "matrix_position_updated"
	EventStaircasePositionUpdated = "staircase_position_updated"
	EventSurveyResponseRecorded   = "survey_response_recorded"
	EventNotesUpdated             = "notes_updated"
	EventResultsGenerated         = "results_generated"
	EventWorkspaceUpdated         = "workspace_updated"
	EventParticipantJoined        = "participant_joined"
)

// Event is a workspace-scoped notification. Payload is small; clients
// refetch whatever the event invalidates.
type Event struct {
	Type        string          `json:"type"`
	WorkspaceID string          `json:"workspace_id"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	SentAt      time.Time       `json:"sent_at"`
}

// NewEvent builds an Event, marshalling payload when it is not nil.
func NewEvent(eventType, workspaceID string, payload any) (Event, error) {
	ev := Event{Type: eventType, WorkspaceID: workspaceID, SentAt: time.Now().UTC()}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Event{}, err
		}
		ev.Payload = raw
	}
	return ev, nil
}
