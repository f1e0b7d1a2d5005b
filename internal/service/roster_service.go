package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/intervention-service/internal/auth"
	"github.com/spec-kit/intervention-service/internal/config"
	"github.com/spec-kit/intervention-service/internal/domain"
	"github.com/spec-kit/intervention-service/internal/repository"
	apperrors "github.com/spec-kit/intervention-service/pkg/util"
)

// IntervenantInput carries account fields and assignment sets. On update an
// empty Password keeps the current one.
type IntervenantInput struct {
	Username   string
	Password   string
	ServiceIDs []string
	ClientIDs  []string
}

// ClientInput creates a client login together with its profile.
type ClientInput struct {
	Username string
	Password string
	Name     string
	Address  string
}

// IntervenantDetails is an intervenant with their interventions.
type IntervenantDetails struct {
	User          *domain.User
	Interventions []domain.Intervention
}

// ClientDetails is a client profile with the interventions it received.
type ClientDetails struct {
	Client        *domain.Client
	Interventions []domain.Intervention
}

// RosterService manages intervenant and client accounts.
type RosterService struct {
	tx            UnitOfWork
	users         repository.UserRepository
	clients       repository.ClientRepository
	services      repository.ServiceRepository
	interventions repository.InterventionRepository
	bcryptCost    int
}

// RosterDependencies bundles repositories.
type RosterDependencies struct {
	Tx               UnitOfWork
	UserRepo         repository.UserRepository
	ClientRepo       repository.ClientRepository
	ServiceRepo      repository.ServiceRepository
	InterventionRepo repository.InterventionRepository
}

// NewRosterService constructs the service.
func NewRosterService(cfg config.AuthConfig, deps RosterDependencies) *RosterService {
	return &RosterService{
		tx:            deps.Tx,
		users:         deps.UserRepo,
		clients:       deps.ClientRepo,
		services:      deps.ServiceRepo,
		interventions: deps.InterventionRepo,
		bcryptCost:    cfg.BcryptCost,
	}
}

// CreateIntervenant registers an intervenant and its assignments.
func (s *RosterService) CreateIntervenant(ctx context.Context, actor domain.Actor, input IntervenantInput) (*domain.User, error) {
	if err := auth.Authorize(actor, auth.OpManageIntervenants); err != nil {
		return nil, err
	}
	if err := requireCredentials(input.Username, input.Password); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(input.Username)
	var user *domain.User
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.ensureUsernameFree(ctx, username, ""); err != nil {
			return err
		}
		hash, err := auth.HashPassword(input.Password, s.bcryptCost)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		user = &domain.User{Username: username, Role: domain.RoleIntervenant, PasswordHash: hash}
		if err := s.users.Create(ctx, user); err != nil {
			return apperrors.MapError(err)
		}
		return s.replaceAssignments(ctx, user, input.ServiceIDs, input.ClientIDs)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateIntervenant edits an intervenant. Assignment sets are replaced, not
// merged.
func (s *RosterService) UpdateIntervenant(ctx context.Context, actor domain.Actor, id string, input IntervenantInput) (*domain.User, error) {
	if err := auth.Authorize(actor, auth.OpManageIntervenants); err != nil {
		return nil, err
	}

	var user *domain.User
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.users.GetByID(ctx, id)
		if err != nil {
			return lookupError(err, "intervenant", "intervenant_id", id)
		}
		if existing.Role != domain.RoleIntervenant {
			return apperrors.NewValidationError("account is not an intervenant", map[string]any{"user_id": id})
		}

		if username := strings.TrimSpace(input.Username); username != "" && username != existing.Username {
			if err := s.ensureUsernameFree(ctx, username, existing.ID); err != nil {
				return err
			}
			existing.Username = username
		}
		if input.Password != "" {
			hash, err := auth.HashPassword(input.Password, s.bcryptCost)
			if err != nil {
				return apperrors.NewInternalError(err)
			}
			existing.PasswordHash = hash
		}
		if err := s.users.Update(ctx, existing); err != nil {
			return apperrors.MapError(err)
		}
		if err := s.replaceAssignments(ctx, existing, input.ServiceIDs, input.ClientIDs); err != nil {
			return err
		}
		user = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// IntervenantDetails returns an intervenant and their interventions.
func (s *RosterService) IntervenantDetails(ctx context.Context, actor domain.Actor, id string) (*IntervenantDetails, error) {
	if err := auth.Authorize(actor, auth.OpManageIntervenants); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "intervenant", "intervenant_id", id)
	}
	if user.Role != domain.RoleIntervenant {
		return nil, apperrors.NewNotFound("intervenant", map[string]any{"intervenant_id": id})
	}
	interventions, err := s.interventions.List(ctx, repository.InterventionFilter{IntervenantID: &user.ID})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &IntervenantDetails{User: user, Interventions: interventions}, nil
}

// CreateClient creates a client-role account and its profile in one unit
// of work.
func (s *RosterService) CreateClient(ctx context.Context, actor domain.Actor, input ClientInput) (*domain.Client, error) {
	if err := auth.Authorize(actor, auth.OpManageClients); err != nil {
		return nil, err
	}
	if err := requireCredentials(input.Username, input.Password); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("client name is required", map[string]any{"missing": []string{"name"}})
	}

	username := strings.TrimSpace(input.Username)
	var client *domain.Client
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.ensureUsernameFree(ctx, username, ""); err != nil {
			return err
		}
		hash, err := auth.HashPassword(input.Password, s.bcryptCost)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		user := &domain.User{Username: username, Role: domain.RoleClient, PasswordHash: hash}
		if err := s.users.Create(ctx, user); err != nil {
			return apperrors.MapError(err)
		}
		client = &domain.Client{Name: name, Address: strings.TrimSpace(input.Address), UserID: &user.ID}
		if err := s.clients.Create(ctx, client); err != nil {
			return apperrors.MapError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// ClientDetails returns a client profile and its interventions.
func (s *RosterService) ClientDetails(ctx context.Context, actor domain.Actor, id string) (*ClientDetails, error) {
	if err := auth.Authorize(actor, auth.OpManageClients); err != nil {
		return nil, err
	}
	client, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "client", "client_id", id)
	}
	interventions, err := s.interventions.List(ctx, repository.InterventionFilter{ClientID: &client.ID})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &ClientDetails{Client: client, Interventions: interventions}, nil
}

func (s *RosterService) ensureUsernameFree(ctx context.Context, username, ownerID string) error {
	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return apperrors.MapError(err)
	}
	if existing.ID != ownerID {
		return apperrors.NewConflict("username already taken", map[string]any{"username": username})
	}
	return nil
}

// replaceAssignments stores the known ids of both sets on user. Unknown ids
// are dropped.
func (s *RosterService) replaceAssignments(ctx context.Context, user *domain.User, serviceIDs, clientIDs []string) error {
	services, err := s.knownIDs(ctx, serviceIDs, func(ctx context.Context, id string) error {
		_, err := s.services.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return err
	}
	clients, err := s.knownIDs(ctx, clientIDs, func(ctx context.Context, id string) error {
		_, err := s.clients.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return err
	}

	if err := s.users.ReplaceServices(ctx, user.ID, services); err != nil {
		return apperrors.MapError(err)
	}
	if err := s.users.ReplaceClients(ctx, user.ID, clients); err != nil {
		return apperrors.MapError(err)
	}
	user.ServiceIDs = services
	user.ClientIDs = clients
	return nil
}

func (s *RosterService) knownIDs(ctx context.Context, ids []string, exists func(context.Context, string) error) ([]string, error) {
	seen := make(map[string]struct{}, len(ids))
	known := []string{}
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if err := exists(ctx, id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return nil, apperrors.MapError(err)
		}
		known = append(known, id)
	}
	return known, nil
}

func requireCredentials(username, password string) error {
	missing := []string{}
	if strings.TrimSpace(username) == "" {
		missing = append(missing, "username")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return apperrors.NewValidationError("username and password are required", map[string]any{"missing": missing})
	}
	return nil
}
