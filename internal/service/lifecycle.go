package service

import (
	"strings"
	"time"

	"github.com/spec-kit/intervention-service/internal/domain"
	apperrors "github.com/spec-kit/intervention-service/pkg/util"
)

// Transition names a lifecycle move of an intervention.
type Transition string

const (
	TransitionCreateScheduled Transition = "create-scheduled"
	TransitionOpenSession     Transition = "open-session"
	TransitionCloseSession    Transition = "close-session"
	TransitionRequestDelete   Transition = "request-delete"
	TransitionApproveDelete   Transition = "approve-delete"
	TransitionRejectDelete    Transition = "reject-delete"
)

// Creation transitions have no source status and are not listed.
var transitionSources = map[Transition][]domain.InterventionStatus{
	TransitionCloseSession:  {domain.InterventionStatusInProgress, domain.InterventionStatusScheduled},
	TransitionRequestDelete: {domain.InterventionStatusScheduled, domain.InterventionStatusCompleted},
	TransitionApproveDelete: {domain.InterventionStatusDeletionRequested},
	TransitionRejectDelete:  {domain.InterventionStatusDeletionRequested},
}

// CanTransition reports whether t may be applied to a record in status from.
func CanTransition(t Transition, from domain.InterventionStatus) bool {
	for _, candidate := range transitionSources[t] {
		if candidate == from {
			return true
		}
	}
	return false
}

func invalidTransition(t Transition, iv *domain.Intervention) error {
	return apperrors.NewConflict("invalid status transition", map[string]any{
		"intervention_id": iv.ID,
		"transition":      string(t),
		"status":          string(iv.Status),
	})
}

func newScheduledIntervention(intervenantID, clientID, serviceID string, start time.Time, description string) *domain.Intervention {
	iv := &domain.Intervention{
		StartTime:     start,
		Status:        domain.InterventionStatusScheduled,
		IntervenantID: intervenantID,
		ClientID:      clientID,
		ServiceID:     serviceID,
	}
	if description = strings.TrimSpace(description); description != "" {
		iv.Description = &description
	}
	return iv
}

func newSession(intervenantID, clientID, serviceID string, now time.Time) *domain.Intervention {
	return &domain.Intervention{
		StartTime:     now,
		Status:        domain.InterventionStatusInProgress,
		IntervenantID: intervenantID,
		ClientID:      clientID,
		ServiceID:     serviceID,
	}
}

func closeSession(iv *domain.Intervention, now time.Time) error {
	if !iv.IsOpen() || !CanTransition(TransitionCloseSession, iv.Status) {
		return invalidTransition(TransitionCloseSession, iv)
	}
	if now.Before(iv.StartTime) {
		return apperrors.NewValidationError("session has not started yet", map[string]any{"intervention_id": iv.ID})
	}
	end := now
	iv.EndTime = &end
	iv.Status = domain.InterventionStatusCompleted
	return checkInvariants(iv)
}

// requestDeletion stores reason verbatim; only its trimmed form must be
// non-empty.
func requestDeletion(iv *domain.Intervention, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return apperrors.NewValidationError("a reason is required to request deletion", nil)
	}
	if iv.Status == domain.InterventionStatusInProgress {
		return apperrors.NewValidationError("close the session before requesting deletion", map[string]any{"intervention_id": iv.ID})
	}
	if !CanTransition(TransitionRequestDelete, iv.Status) {
		return invalidTransition(TransitionRequestDelete, iv)
	}
	iv.Status = domain.InterventionStatusDeletionRequested
	iv.CancellationReason = &reason
	return checkInvariants(iv)
}

func approveDeletion(iv *domain.Intervention) error {
	if !CanTransition(TransitionApproveDelete, iv.Status) {
		return invalidTransition(TransitionApproveDelete, iv)
	}
	return nil
}

func rejectDeletion(iv *domain.Intervention) error {
	if !CanTransition(TransitionRejectDelete, iv.Status) {
		return invalidTransition(TransitionRejectDelete, iv)
	}
	iv.Status = domain.InterventionStatusScheduled
	iv.CancellationReason = nil
	return checkInvariants(iv)
}

func checkInvariants(iv *domain.Intervention) error {
	if err := iv.Validate(); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}
