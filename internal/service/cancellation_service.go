package service

import (
	"context"

	"github.com/spec-kit/intervention-service/internal/auth"
	"github.com/spec-kit/intervention-service/internal/domain"
	"github.com/spec-kit/intervention-service/internal/events"
	"github.com/spec-kit/intervention-service/internal/repository"
	apperrors "github.com/spec-kit/intervention-service/pkg/util"
)

// ResolveAction is an admin decision on a pending deletion.
type ResolveAction string

const (
	ResolveApprove ResolveAction = "approve"
	ResolveReject  ResolveAction = "reject"
)

// CancellationService handles deletion requests and their resolution. The
// set of DeletionRequested interventions is the queue.
type CancellationService struct {
	tx            UnitOfWork
	interventions repository.InterventionRepository
	dispatcher    events.Dispatcher
}

// CancellationDependencies bundles collaborators.
type CancellationDependencies struct {
	Tx               UnitOfWork
	InterventionRepo repository.InterventionRepository
	Dispatcher       events.Dispatcher
}

// NewCancellationService constructs the service.
func NewCancellationService(deps CancellationDependencies) *CancellationService {
	return &CancellationService{
		tx:            deps.Tx,
		interventions: deps.InterventionRepo,
		dispatcher:    deps.Dispatcher,
	}
}

// RequestDeletion asks an admin to remove one of the actor's interventions.
func (s *CancellationService) RequestDeletion(ctx context.Context, actor domain.Actor, interventionID, reason string) (*domain.Intervention, error) {
	if err := auth.Authorize(actor, auth.OpRequestDeleteOwn); err != nil {
		return nil, err
	}

	var (
		intervention *domain.Intervention
		oldStatus    domain.InterventionStatus
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		iv, err := s.interventions.GetByID(ctx, interventionID)
		if err != nil {
			return lookupError(err, "intervention", "intervention_id", interventionID)
		}
		if iv.IntervenantID != actor.ID {
			return apperrors.NewForbidden("intervention belongs to another intervenant")
		}
		oldStatus = iv.Status
		if err := requestDeletion(iv, reason); err != nil {
			return err
		}
		if err := s.interventions.Update(ctx, iv); err != nil {
			return apperrors.MapError(err)
		}
		intervention = iv
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:           events.EventDeletionRequested,
		InterventionID: intervention.ID,
		Actor:          actor,
		Payload: events.StatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: intervention.Status,
			Reason:    reason,
		},
	})
	return intervention, nil
}

// ResolveDeletion approves (removes) or rejects (reschedules) a pending
// deletion. On approve the returned record is the one that was removed.
func (s *CancellationService) ResolveDeletion(ctx context.Context, actor domain.Actor, interventionID string, action ResolveAction) (*domain.Intervention, error) {
	if err := auth.Authorize(actor, auth.OpResolveDelete); err != nil {
		return nil, err
	}
	if action != ResolveApprove && action != ResolveReject {
		return nil, apperrors.NewValidationError("action must be approve or reject", map[string]any{"action": string(action)})
	}

	var (
		intervention *domain.Intervention
		reason       string
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		iv, err := s.interventions.GetByID(ctx, interventionID)
		if err != nil {
			return lookupError(err, "intervention", "intervention_id", interventionID)
		}
		if iv.CancellationReason != nil {
			reason = *iv.CancellationReason
		}

		if action == ResolveApprove {
			if err := approveDeletion(iv); err != nil {
				return err
			}
			if err := s.interventions.Delete(ctx, iv.ID); err != nil {
				return apperrors.MapError(err)
			}
		} else {
			if err := rejectDeletion(iv); err != nil {
				return err
			}
			if err := s.interventions.Update(ctx, iv); err != nil {
				return apperrors.MapError(err)
			}
		}
		intervention = iv
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := events.Event{
		Type:           events.EventDeletionRejected,
		InterventionID: intervention.ID,
		Actor:          actor,
		Payload: events.StatusChangedPayload{
			OldStatus: domain.InterventionStatusDeletionRequested,
			NewStatus: intervention.Status,
			Reason:    reason,
		},
	}
	if action == ResolveApprove {
		event.Type = events.EventDeletionApproved
		event.Payload = events.StatusChangedPayload{OldStatus: domain.InterventionStatusDeletionRequested, Reason: reason}
	}
	publishEvent(ctx, s.dispatcher, event)
	return intervention, nil
}

// ListPendingDeletions returns every intervention awaiting an admin decision.
func (s *CancellationService) ListPendingDeletions(ctx context.Context, actor domain.Actor) ([]domain.Intervention, error) {
	if err := auth.Authorize(actor, auth.OpResolveDelete); err != nil {
		return nil, err
	}
	pending, err := s.interventions.List(ctx, repository.InterventionFilter{
		Statuses: []domain.InterventionStatus{domain.InterventionStatusDeletionRequested},
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return pending, nil
}
