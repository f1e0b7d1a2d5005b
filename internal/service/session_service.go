package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/intervention-service/internal/auth"
	"github.com/spec-kit/intervention-service/internal/config"
	"github.com/spec-kit/intervention-service/internal/domain"
	"github.com/spec-kit/intervention-service/internal/events"
	"github.com/spec-kit/intervention-service/internal/persistence"
	"github.com/spec-kit/intervention-service/internal/repository"
	apperrors "github.com/spec-kit/intervention-service/pkg/util"
)

// ToggleAction reports which branch a scan took.
type ToggleAction string

const (
	ToggleOpened ToggleAction = "opened"
	ToggleClosed ToggleAction = "closed"
)

// ScanInput is what a scan event carries. Empty fields fall back to the
// configured defaults.
type ScanInput struct {
	ServiceID string
	ClientID  string
}

// ToggleResult describes the outcome of a scan.
type ToggleResult struct {
	Action       ToggleAction
	Intervention *domain.Intervention
}

// SessionService turns scan events into session starts and stops.
type SessionService struct {
	tx            UnitOfWork
	interventions repository.InterventionRepository
	clients       repository.ClientRepository
	services      repository.ServiceRepository
	lock          SessionLocker
	dispatcher    events.Dispatcher
	defaults      config.ToggleConfig
	now           func() time.Time
}

// SessionDependencies bundles collaborators for the session service.
type SessionDependencies struct {
	Tx               UnitOfWork
	InterventionRepo repository.InterventionRepository
	ClientRepo       repository.ClientRepository
	ServiceRepo      repository.ServiceRepository
	Lock             SessionLocker
	Dispatcher       events.Dispatcher
	Now              func() time.Time
}

// NewSessionService constructs the service.
func NewSessionService(cfg config.ToggleConfig, deps SessionDependencies) *SessionService {
	return &SessionService{
		tx:            deps.Tx,
		interventions: deps.InterventionRepo,
		clients:       deps.ClientRepo,
		services:      deps.ServiceRepo,
		lock:          deps.Lock,
		dispatcher:    deps.Dispatcher,
		defaults:      cfg,
		now:           defaultClock(deps.Now),
	}
}

// Toggle closes the actor's open session if there is one and opens a new
// one otherwise. Calling it twice in a row toggles twice.
func (s *SessionService) Toggle(ctx context.Context, actor domain.Actor, input ScanInput) (*ToggleResult, error) {
	if err := auth.Authorize(actor, auth.OpToggleOwnSession); err != nil {
		return nil, err
	}

	if s.lock != nil {
		release, err := s.lock.Acquire(ctx, actor.ID)
		if err != nil {
			if errors.Is(err, persistence.ErrLockNotAcquired) {
				return nil, apperrors.NewConflict("a scan for this account is already being processed", nil)
			}
			return nil, apperrors.MapError(err)
		}
		defer release()
	}

	now := s.now()
	var (
		result    ToggleResult
		oldStatus domain.InterventionStatus
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		last, err := s.interventions.LatestForIntervenant(ctx, actor.ID, now)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return apperrors.MapError(err)
		}

		if last != nil && last.IsOpen() && CanTransition(TransitionCloseSession, last.Status) {
			oldStatus = last.Status
			if err := closeSession(last, now); err != nil {
				return err
			}
			if err := s.interventions.Update(ctx, last); err != nil {
				return apperrors.MapError(err)
			}
			result = ToggleResult{Action: ToggleClosed, Intervention: last}
			return nil
		}

		serviceID, clientID, err := s.resolveScanTargets(ctx, input)
		if err != nil {
			return err
		}
		session := newSession(actor.ID, clientID, serviceID, now)
		if err := s.interventions.Create(ctx, session); err != nil {
			return apperrors.MapError(err)
		}
		result = ToggleResult{Action: ToggleOpened, Intervention: session}
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := events.Event{
		Type:           events.EventSessionOpened,
		InterventionID: result.Intervention.ID,
		Actor:          actor,
		Timestamp:      now,
		Payload:        events.StatusChangedPayload{NewStatus: result.Intervention.Status},
	}
	if result.Action == ToggleClosed {
		event.Type = events.EventSessionClosed
		event.Payload = events.StatusChangedPayload{OldStatus: oldStatus, NewStatus: result.Intervention.Status}
	}
	publishEvent(ctx, s.dispatcher, event)
	return &result, nil
}

// resolveScanTargets picks the service and client a new session binds to
// and checks that both exist.
func (s *SessionService) resolveScanTargets(ctx context.Context, input ScanInput) (string, string, error) {
	serviceID := strings.TrimSpace(input.ServiceID)
	if serviceID == "" {
		serviceID = s.defaults.DefaultServiceID
	}
	clientID := strings.TrimSpace(input.ClientID)
	if clientID == "" {
		clientID = s.defaults.DefaultClientID
	}

	missing := []string{}
	if serviceID == "" {
		missing = append(missing, "service_id")
	}
	if clientID == "" {
		missing = append(missing, "client_id")
	}
	if len(missing) > 0 {
		return "", "", apperrors.NewValidationError("scan did not identify a service and a client", map[string]any{"missing": missing})
	}

	if _, err := s.services.GetByID(ctx, serviceID); err != nil {
		return "", "", lookupError(err, "service", "service_id", serviceID)
	}
	if _, err := s.clients.GetByID(ctx, clientID); err != nil {
		return "", "", lookupError(err, "client", "client_id", clientID)
	}
	return serviceID, clientID, nil
}
