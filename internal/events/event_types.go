package events

import (
	"time"

	"github.com/spec-kit/intervention-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventInterventionScheduled EventType = "intervention_scheduled"
	EventSessionOpened         EventType = "session_opened"
	EventSessionClosed         EventType = "session_closed"
	EventDeletionRequested     EventType = "deletion_requested"
	EventDeletionApproved      EventType = "deletion_approved"
	EventDeletionRejected      EventType = "deletion_rejected"
)

// Event represents a committed lifecycle change.
type Event struct {
	ID             string       `json:"id"`
	Type           EventType    `json:"type"`
	InterventionID string       `json:"intervention_id"`
	Actor          domain.Actor `json:"actor"`
	Timestamp      time.Time    `json:"timestamp"`
	Payload        interface{}  `json:"payload"`
}

// StatusChangedPayload describes a transition between two statuses. An empty
// NewStatus means the record was removed.
type StatusChangedPayload struct {
	OldStatus domain.InterventionStatus `json:"old_status,omitempty"`
	NewStatus domain.InterventionStatus `json:"new_status,omitempty"`
	Reason    string                    `json:"reason,omitempty"`
}

// ScheduledPayload payload.
type ScheduledPayload struct {
	IntervenantID string    `json:"intervenant_id"`
	ClientID      string    `json:"client_id"`
	ServiceID     string    `json:"service_id"`
	StartTime     time.Time `json:"start_time"`
}
