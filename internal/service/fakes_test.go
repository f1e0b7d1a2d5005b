package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/intervention-service/internal/config"
	"github.com/spec-kit/intervention-service/internal/domain"
	"github.com/spec-kit/intervention-service/internal/events"
	"github.com/spec-kit/intervention-service/internal/repository"
	apperrors "github.com/spec-kit/intervention-service/pkg/util"
)

var baseTime = time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

// memStore backs every repository interface with maps. WithinTx snapshots
// the maps and restores them when the unit of work fails.
type memStore struct {
	mu            sync.Mutex
	seq           int
	users         map[string]domain.User
	clients       map[string]domain.Client
	services      map[string]domain.Service
	interventions map[string]domain.Intervention
	failCommit    error
	txCount       int
}

func newMemStore() *memStore {
	return &memStore{
		users:         map[string]domain.User{},
		clients:       map[string]domain.Client{},
		services:      map[string]domain.Service{},
		interventions: map[string]domain.Intervention{},
	}
}

func (s *memStore) nextID(prefix string) (string, time.Time) {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq), baseTime.Add(time.Duration(s.seq) * time.Millisecond)
}

type storeSnapshot struct {
	users         map[string]domain.User
	clients       map[string]domain.Client
	services      map[string]domain.Service
	interventions map[string]domain.Intervention
}

func (s *memStore) snapshot() storeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := storeSnapshot{
		users:         map[string]domain.User{},
		clients:       map[string]domain.Client{},
		services:      map[string]domain.Service{},
		interventions: map[string]domain.Intervention{},
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.clients {
		snap.clients[k] = v
	}
	for k, v := range s.services {
		snap.services[k] = v
	}
	for k, v := range s.interventions {
		snap.interventions[k] = v
	}
	return snap
}

func (s *memStore) restore(snap storeSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.clients = snap.clients
	s.services = snap.services
	s.interventions = snap.interventions
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txCount++
	snap := s.snapshot()
	if err := fn(ctx); err != nil {
		s.restore(snap)
		return err
	}
	if s.failCommit != nil {
		s.restore(snap)
		return apperrors.NewPersistenceError(s.failCommit)
	}
	return nil
}

func (s *memStore) addService(name string) domain.Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, _ := s.nextID("svc")
	svc := domain.Service{ID: id, Name: name}
	s.services[id] = svc
	return svc
}

func (s *memStore) addClient(name string, userID *string) domain.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, created := s.nextID("cli")
	c := domain.Client{ID: id, Name: name, UserID: userID, CreatedAt: created}
	s.clients[id] = c
	return c
}

func (s *memStore) addUser(username string, role domain.Role) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, created := s.nextID("usr")
	u := domain.User{ID: id, Username: username, Role: role, PasswordHash: "x", CreatedAt: created}
	s.users[id] = u
	return u
}

func (s *memStore) addIntervention(iv domain.Intervention) domain.Intervention {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, created := s.nextID("iv")
	iv.ID = id
	iv.CreatedAt = created
	s.interventions[id] = iv
	return iv
}

func (s *memStore) countInterventions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.interventions)
}

func (s *memStore) intervention(id string) (domain.Intervention, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	iv, ok := s.interventions[id]
	return iv, ok
}

// interventionRepo

type memInterventionRepo struct{ s *memStore }

func (r memInterventionRepo) Create(_ context.Context, iv *domain.Intervention) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	iv.ID, iv.CreatedAt = r.s.nextID("iv")
	r.s.interventions[iv.ID] = *iv
	return nil
}

func (r memInterventionRepo) Update(_ context.Context, iv *domain.Intervention) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.interventions[iv.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.s.interventions[iv.ID] = *iv
	return nil
}

func (r memInterventionRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.interventions[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.interventions, id)
	return nil
}

func (r memInterventionRepo) GetByID(_ context.Context, id string) (*domain.Intervention, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	iv, ok := r.s.interventions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &iv, nil
}

func (r memInterventionRepo) LatestForIntervenant(ctx context.Context, intervenantID string, asOf time.Time) (*domain.Intervention, error) {
	all, _ := r.List(ctx, repository.InterventionFilter{IntervenantID: &intervenantID})
	for _, iv := range all {
		if !iv.StartTime.After(asOf) {
			found := iv
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r memInterventionRepo) List(_ context.Context, filter repository.InterventionFilter) ([]domain.Intervention, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	result := []domain.Intervention{}
	for _, iv := range r.s.interventions {
		if filter.IntervenantID != nil && iv.IntervenantID != *filter.IntervenantID {
			continue
		}
		if filter.ClientID != nil && iv.ClientID != *filter.ClientID {
			continue
		}
		if len(filter.Statuses) > 0 && !hasStatus(filter.Statuses, iv.Status) {
			continue
		}
		if filter.StartsAtOrAfter != nil && iv.StartTime.Before(*filter.StartsAtOrAfter) {
			continue
		}
		if filter.StartsBefore != nil && !iv.StartTime.Before(*filter.StartsBefore) {
			continue
		}
		result = append(result, iv)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartTime.Equal(result[j].StartTime) {
			return result[i].StartTime.After(result[j].StartTime)
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func hasStatus(statuses []domain.InterventionStatus, status domain.InterventionStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// userRepo

type memUserRepo struct{ s *memStore }

func (r memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Username == user.Username {
			return apperrors.NewConflict("resource already exists", nil)
		}
	}
	user.ID, user.CreatedAt = r.s.nextID("usr")
	r.s.users[user.ID] = *user
	return nil
}

func (r memUserRepo) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.users[user.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	existing.Username = user.Username
	existing.PasswordHash = user.PasswordHash
	r.s.users[user.ID] = existing
	return nil
}

func (r memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	u.ServiceIDs = append([]string{}, u.ServiceIDs...)
	u.ClientIDs = append([]string{}, u.ClientIDs...)
	return &u, nil
}

func (r memUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.s.mu.Lock()
	var id string
	for _, u := range r.s.users {
		if u.Username == username {
			id = u.ID
		}
	}
	r.s.mu.Unlock()
	if id == "" {
		return nil, pgx.ErrNoRows
	}
	return r.GetByID(ctx, id)
}

func (r memUserRepo) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	result := []domain.User{}
	for _, u := range r.s.users {
		if u.Role == role {
			result = append(result, u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	return result, nil
}

func (r memUserRepo) ReplaceServices(_ context.Context, userID string, serviceIDs []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	u.ServiceIDs = append([]string{}, serviceIDs...)
	r.s.users[userID] = u
	return nil
}

func (r memUserRepo) ReplaceClients(_ context.Context, userID string, clientIDs []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	u.ClientIDs = append([]string{}, clientIDs...)
	r.s.users[userID] = u
	return nil
}

// clientRepo

type memClientRepo struct{ s *memStore }

func (r memClientRepo) Create(_ context.Context, c *domain.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID, c.CreatedAt = r.s.nextID("cli")
	r.s.clients[c.ID] = *c
	return nil
}

func (r memClientRepo) GetByID(_ context.Context, id string) (*domain.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clients[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &c, nil
}

func (r memClientRepo) GetByUserID(_ context.Context, userID string) (*domain.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.clients {
		if c.UserID != nil && *c.UserID == userID {
			found := c
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r memClientRepo) List(_ context.Context) ([]domain.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	result := []domain.Client{}
	for _, c := range r.s.clients {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r memClientRepo) ListByIDs(ctx context.Context, ids []string) ([]domain.Client, error) {
	all, _ := r.List(ctx)
	result := []domain.Client{}
	for _, c := range all {
		for _, id := range ids {
			if c.ID == id {
				result = append(result, c)
			}
		}
	}
	return result, nil
}

// serviceRepo

type memServiceRepo struct{ s *memStore }

func (r memServiceRepo) GetByID(_ context.Context, id string) (*domain.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	svc, ok := r.s.services[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &svc, nil
}

func (r memServiceRepo) List(_ context.Context) ([]domain.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	result := []domain.Service{}
	for _, svc := range r.s.services {
		result = append(result, svc)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// fakeLocker counts acquisitions and can be told to refuse.
type fakeLocker struct {
	mu       sync.Mutex
	err      error
	acquired int
	released int
}

func (l *fakeLocker) Acquire(_ context.Context, _ string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.acquired++
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.released++
	}, nil
}

// recordingDispatcher keeps every published event.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	types := make([]events.EventType, 0, len(d.events))
	for _, e := range d.events {
		types = append(types, e.Type)
	}
	return types
}

// fixture wires every service against one memStore.
type fixture struct {
	store        *memStore
	locker       *fakeLocker
	dispatcher   *recordingDispatcher
	now          time.Time
	scanDefaults config.ToggleConfig

	sessions     *SessionService
	scheduling   *SchedulingService
	cancellation *CancellationService
	dashboards   *DashboardService
	roster       *RosterService
}

func newFixture() *fixture {
	f := &fixture{
		store:      newMemStore(),
		locker:     &fakeLocker{},
		dispatcher: &recordingDispatcher{},
		now:        baseTime,
	}
	f.build(false)
	return f
}

func (f *fixture) build(enforceAssignments bool) {
	interventions := memInterventionRepo{f.store}
	users := memUserRepo{f.store}
	clients := memClientRepo{f.store}
	services := memServiceRepo{f.store}
	clock := func() time.Time { return f.now }

	f.sessions = NewSessionService(f.scanDefaults, SessionDependencies{
		Tx:               f.store,
		InterventionRepo: interventions,
		ClientRepo:       clients,
		ServiceRepo:      services,
		Lock:             f.locker,
		Dispatcher:       f.dispatcher,
		Now:              clock,
	})
	f.scheduling = NewSchedulingService(config.SchedulingConfig{EnforceAssignments: enforceAssignments}, SchedulingDependencies{
		Tx:               f.store,
		InterventionRepo: interventions,
		UserRepo:         users,
		ClientRepo:       clients,
		ServiceRepo:      services,
		Dispatcher:       f.dispatcher,
	})
	f.cancellation = NewCancellationService(CancellationDependencies{
		Tx:               f.store,
		InterventionRepo: interventions,
		Dispatcher:       f.dispatcher,
	})
	f.dashboards = NewDashboardService(DashboardDependencies{
		InterventionRepo: interventions,
		UserRepo:         users,
		ClientRepo:       clients,
		ServiceRepo:      services,
	})
	f.roster = NewRosterService(config.AuthConfig{BcryptCost: bcrypt.MinCost}, RosterDependencies{
		Tx:               f.store,
		UserRepo:         users,
		ClientRepo:       clients,
		ServiceRepo:      services,
		InterventionRepo: interventions,
	})
}
