package domain

import (
	"errors"
	"strings"
	"time"
)

// InterventionStatus enumerates lifecycle states for interventions.
type InterventionStatus string

const (
	InterventionStatusScheduled         InterventionStatus = "Scheduled"
	InterventionStatusInProgress        InterventionStatus = "InProgress"
	InterventionStatusCompleted         InterventionStatus = "Completed"
	InterventionStatusDeletionRequested InterventionStatus = "DeletionRequested"
)

// ParseInterventionStatus converts a stored status.
func ParseInterventionStatus(value string) (InterventionStatus, error) {
	switch InterventionStatus(value) {
	case InterventionStatusScheduled, InterventionStatusInProgress,
		InterventionStatusCompleted, InterventionStatusDeletionRequested:
		return InterventionStatus(value), nil
	default:
		return "", errors.New("unknown intervention status " + value)
	}
}

// Intervention is one scheduled or performed visit.
type Intervention struct {
	ID                 string
	StartTime          time.Time
	EndTime            *time.Time
	Description        *string
	Status             InterventionStatus
	CancellationReason *string
	IntervenantID      string
	ClientID           string
	ServiceID          string
	CreatedAt          time.Time
}

// IsOpen reports whether no end time has been captured yet.
func (i *Intervention) IsOpen() bool {
	return i.EndTime == nil
}

// Validate checks the record invariants.
func (i *Intervention) Validate() error {
	if i.IntervenantID == "" || i.ClientID == "" || i.ServiceID == "" {
		return errors.New("intervention must reference an intervenant, a client and a service")
	}
	if i.StartTime.IsZero() {
		return errors.New("start time required")
	}
	if i.EndTime != nil && i.EndTime.Before(i.StartTime) {
		return errors.New("end time before start time")
	}
	hasReason := i.CancellationReason != nil && strings.TrimSpace(*i.CancellationReason) != ""
	if hasReason != (i.Status == InterventionStatusDeletionRequested) {
		return errors.New("cancellation reason must be set exactly when deletion is requested")
	}
	if i.Status == InterventionStatusCompleted && i.EndTime == nil {
		return errors.New("completed intervention requires an end time")
	}
	return nil
}
