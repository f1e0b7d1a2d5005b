package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/intervention-service/internal/auth"
	"github.com/spec-kit/intervention-service/internal/domain"
	"github.com/spec-kit/intervention-service/internal/repository"
	apperrors "github.com/spec-kit/intervention-service/pkg/util"
)

// IntervenantDashboard splits an intervenant's work around the current time.
type IntervenantDashboard struct {
	Upcoming []domain.Intervention
	History  []domain.Intervention
	Clients  []domain.Client
}

// ClientDashboard lists the visits a client received or will receive.
// Client is nil when the account has no linked profile.
type ClientDashboard struct {
	Client        *domain.Client
	Interventions []domain.Intervention
}

// AdminDashboard is the full picture for administrators.
type AdminDashboard struct {
	Interventions    []domain.Intervention
	Intervenants     []domain.User
	Clients          []domain.Client
	Services         []domain.Service
	PendingDeletions []domain.Intervention
}

// DashboardService answers read-only dashboard queries.
type DashboardService struct {
	interventions repository.InterventionRepository
	users         repository.UserRepository
	clients       repository.ClientRepository
	services      repository.ServiceRepository
}

// DashboardDependencies bundles repositories.
type DashboardDependencies struct {
	InterventionRepo repository.InterventionRepository
	UserRepo         repository.UserRepository
	ClientRepo       repository.ClientRepository
	ServiceRepo      repository.ServiceRepository
}

// NewDashboardService constructs the service.
func NewDashboardService(deps DashboardDependencies) *DashboardService {
	return &DashboardService{
		interventions: deps.InterventionRepo,
		users:         deps.UserRepo,
		clients:       deps.ClientRepo,
		services:      deps.ServiceRepo,
	}
}

// ForIntervenant returns the actor's interventions, newest first, split into
// upcoming (start at or after now) and history.
func (s *DashboardService) ForIntervenant(ctx context.Context, actor domain.Actor, now time.Time) (*IntervenantDashboard, error) {
	if err := requireOwnDashboard(actor, domain.RoleIntervenant); err != nil {
		return nil, err
	}

	all, err := s.interventions.List(ctx, repository.InterventionFilter{IntervenantID: &actor.ID})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	dashboard := &IntervenantDashboard{
		Upcoming: []domain.Intervention{},
		History:  []domain.Intervention{},
	}
	for _, iv := range all {
		if iv.StartTime.Before(now) {
			dashboard.History = append(dashboard.History, iv)
		} else {
			dashboard.Upcoming = append(dashboard.Upcoming, iv)
		}
	}

	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, lookupError(err, "intervenant", "intervenant_id", actor.ID)
	}
	dashboard.Clients = []domain.Client{}
	if len(user.ClientIDs) > 0 {
		clients, err := s.clients.ListByIDs(ctx, user.ClientIDs)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		dashboard.Clients = clients
	}
	return dashboard, nil
}

// ForClient returns the interventions delivered to the client profile linked
// to the actor.
func (s *DashboardService) ForClient(ctx context.Context, actor domain.Actor) (*ClientDashboard, error) {
	if err := requireOwnDashboard(actor, domain.RoleClient); err != nil {
		return nil, err
	}

	client, err := s.clients.GetByUserID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &ClientDashboard{Interventions: []domain.Intervention{}}, nil
		}
		return nil, apperrors.MapError(err)
	}
	interventions, err := s.interventions.List(ctx, repository.InterventionFilter{ClientID: &client.ID})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &ClientDashboard{Client: client, Interventions: interventions}, nil
}

// ForAdmin returns every intervention plus the rosters and the deletion queue.
func (s *DashboardService) ForAdmin(ctx context.Context, actor domain.Actor) (*AdminDashboard, error) {
	if err := auth.Authorize(actor, auth.OpViewAnyDashboard); err != nil {
		return nil, err
	}

	interventions, err := s.interventions.List(ctx, repository.InterventionFilter{})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	intervenants, err := s.users.ListByRole(ctx, domain.RoleIntervenant)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	clients, err := s.clients.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	services, err := s.services.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	pending := []domain.Intervention{}
	for _, iv := range interventions {
		if iv.Status == domain.InterventionStatusDeletionRequested {
			pending = append(pending, iv)
		}
	}
	return &AdminDashboard{
		Interventions:    interventions,
		Intervenants:     intervenants,
		Clients:          clients,
		Services:         services,
		PendingDeletions: pending,
	}, nil
}

func requireOwnDashboard(actor domain.Actor, role domain.Role) error {
	if err := auth.Authorize(actor, auth.OpViewOwnDashboard); err != nil {
		return err
	}
	if actor.Role != role {
		return apperrors.NewForbidden("dashboard belongs to another role")
	}
	return nil
}
