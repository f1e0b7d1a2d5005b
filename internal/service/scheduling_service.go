package service

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/intervention-service/internal/auth"
	"github.com/spec-kit/intervention-service/internal/config"
	"github.com/spec-kit/intervention-service/internal/domain"
	"github.com/spec-kit/intervention-service/internal/events"
	"github.com/spec-kit/intervention-service/internal/repository"
	apperrors "github.com/spec-kit/intervention-service/pkg/util"
)

// ScheduleLayout is the accepted "date time" format for scheduled visits.
const ScheduleLayout = "2006-01-02 15:04"

// ScheduleInput describes a visit to put on the calendar. IntervenantID is
// ignored when an intervenant schedules their own work.
type ScheduleInput struct {
	IntervenantID string
	ClientID      string
	ServiceID     string
	Date          string
	Time          string
	Description   string
}

// SchedulingService creates future-dated interventions.
type SchedulingService struct {
	tx                 UnitOfWork
	interventions      repository.InterventionRepository
	users              repository.UserRepository
	clients            repository.ClientRepository
	services           repository.ServiceRepository
	dispatcher         events.Dispatcher
	enforceAssignments bool
}

// SchedulingDependencies bundles repositories for scheduling.
type SchedulingDependencies struct {
	Tx               UnitOfWork
	InterventionRepo repository.InterventionRepository
	UserRepo         repository.UserRepository
	ClientRepo       repository.ClientRepository
	ServiceRepo      repository.ServiceRepository
	Dispatcher       events.Dispatcher
}

// NewSchedulingService constructs the service.
func NewSchedulingService(cfg config.SchedulingConfig, deps SchedulingDependencies) *SchedulingService {
	return &SchedulingService{
		tx:                 deps.Tx,
		interventions:      deps.InterventionRepo,
		users:              deps.UserRepo,
		clients:            deps.ClientRepo,
		services:           deps.ServiceRepo,
		dispatcher:         deps.Dispatcher,
		enforceAssignments: cfg.EnforceAssignments,
	}
}

// ParseScheduleTime joins a date and a time of day into one UTC timestamp.
func ParseScheduleTime(date, clock string) (time.Time, error) {
	return time.Parse(ScheduleLayout, strings.TrimSpace(date)+" "+strings.TrimSpace(clock))
}

// Schedule validates input and creates a Scheduled intervention.
func (s *SchedulingService) Schedule(ctx context.Context, actor domain.Actor, input ScheduleInput) (*domain.Intervention, error) {
	op := auth.OpScheduleAny
	if actor.Role == domain.RoleIntervenant {
		op = auth.OpScheduleOwn
		input.IntervenantID = actor.ID
	}
	if err := auth.Authorize(actor, op); err != nil {
		return nil, err
	}

	if err := requireScheduleFields(input); err != nil {
		return nil, err
	}
	start, err := ParseScheduleTime(input.Date, input.Time)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid date format, expected YYYY-MM-DD HH:MM", map[string]any{
			"date": input.Date,
			"time": input.Time,
		})
	}

	intervenantID := strings.TrimSpace(input.IntervenantID)
	clientID := strings.TrimSpace(input.ClientID)
	serviceID := strings.TrimSpace(input.ServiceID)

	var intervention *domain.Intervention
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		intervenant, err := s.users.GetByID(ctx, intervenantID)
		if err != nil {
			return lookupError(err, "intervenant", "intervenant_id", intervenantID)
		}
		if intervenant.Role != domain.RoleIntervenant {
			return apperrors.NewNotFound("intervenant", map[string]any{"intervenant_id": intervenantID})
		}
		if _, err := s.clients.GetByID(ctx, clientID); err != nil {
			return lookupError(err, "client", "client_id", clientID)
		}
		if _, err := s.services.GetByID(ctx, serviceID); err != nil {
			return lookupError(err, "service", "service_id", serviceID)
		}
		if s.enforceAssignments {
			if err := checkAssignments(intervenant, clientID, serviceID); err != nil {
				return err
			}
		}

		intervention = newScheduledIntervention(intervenantID, clientID, serviceID, start, input.Description)
		if err := s.interventions.Create(ctx, intervention); err != nil {
			return apperrors.MapError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:           events.EventInterventionScheduled,
		InterventionID: intervention.ID,
		Actor:          actor,
		Payload: events.ScheduledPayload{
			IntervenantID: intervention.IntervenantID,
			ClientID:      intervention.ClientID,
			ServiceID:     intervention.ServiceID,
			StartTime:     intervention.StartTime,
		},
	})
	return intervention, nil
}

func requireScheduleFields(input ScheduleInput) error {
	fields := []struct {
		name  string
		value string
	}{
		{"intervenant_id", input.IntervenantID},
		{"client_id", input.ClientID},
		{"service_id", input.ServiceID},
		{"date", input.Date},
		{"time", input.Time},
	}
	missing := []string{}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return apperrors.NewValidationError("all fields are required", map[string]any{"missing": missing})
	}
	return nil
}

func checkAssignments(intervenant *domain.User, clientID, serviceID string) error {
	if !containsID(intervenant.ClientIDs, clientID) {
		return apperrors.NewValidationError("client is not assigned to this intervenant", map[string]any{"client_id": clientID})
	}
	if !containsID(intervenant.ServiceIDs, serviceID) {
		return apperrors.NewValidationError("service is not assigned to this intervenant", map[string]any{"service_id": serviceID})
	}
	return nil
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
