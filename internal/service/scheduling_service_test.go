package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/intervention-service/internal/domain"
	"github.com/spec-kit/intervention-service/internal/events"
	apperrors "github.com/spec-kit/intervention-service/pkg/util"
)

type scheduleWorld struct {
	*fixture
	intervenant domain.User
	admin       domain.User
	client      domain.Client
	service     domain.Service
}

func newScheduleWorld(t *testing.T) *scheduleWorld {
	t.Helper()
	f := newFixture()
	return &scheduleWorld{
		fixture:     f,
		intervenant: f.store.addUser("ana", domain.RoleIntervenant),
		admin:       f.store.addUser("root", domain.RoleAdmin),
		client:      f.store.addClient("Dupont", nil),
		service:     f.store.addService("cleaning"),
	}
}

func (w *scheduleWorld) input() ScheduleInput {
	return ScheduleInput{
		ClientID:    w.client.ID,
		ServiceID:   w.service.ID,
		Date:        "2024-01-15",
		Time:        "09:30",
		Description: "windows",
	}
}

func TestSchedule_ParsesDateAndTimeExactly(t *testing.T) {
	w := newScheduleWorld(t)

	iv, err := w.scheduling.Schedule(context.Background(), w.intervenant.Actor(), w.input())
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC), iv.StartTime)
	assert.Equal(t, domain.InterventionStatusScheduled, iv.Status)
	assert.Nil(t, iv.EndTime)
	assert.Nil(t, iv.CancellationReason)
	require.NotNil(t, iv.Description)
	assert.Equal(t, "windows", *iv.Description)
	assert.Equal(t, w.intervenant.ID, iv.IntervenantID)
	assert.Equal(t, []events.EventType{events.EventInterventionScheduled}, w.dispatcher.types())
}

func TestSchedule_MissingTimeCreatesNothing(t *testing.T) {
	w := newScheduleWorld(t)
	input := w.input()
	input.Time = ""

	_, err := w.scheduling.Schedule(context.Background(), w.intervenant.Actor(), input)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	assert.Equal(t, 0, w.store.countInterventions())
	assert.Empty(t, w.dispatcher.types())
}

func TestSchedule_BadDateFormat(t *testing.T) {
	w := newScheduleWorld(t)
	input := w.input()
	input.Date = "15/01/2024"

	_, err := w.scheduling.Schedule(context.Background(), w.intervenant.Actor(), input)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	assert.Contains(t, err.Error(), "invalid date format")
}

func TestSchedule_IntervenantCannotScheduleForSomeoneElse(t *testing.T) {
	w := newScheduleWorld(t)
	other := w.store.addUser("bob", domain.RoleIntervenant)
	input := w.input()
	input.IntervenantID = other.ID

	iv, err := w.scheduling.Schedule(context.Background(), w.intervenant.Actor(), input)
	require.NoError(t, err)
	assert.Equal(t, w.intervenant.ID, iv.IntervenantID)
}

func TestSchedule_AdminSchedulesForAnyIntervenant(t *testing.T) {
	w := newScheduleWorld(t)
	input := w.input()
	input.IntervenantID = w.intervenant.ID

	iv, err := w.scheduling.Schedule(context.Background(), w.admin.Actor(), input)
	require.NoError(t, err)
	assert.Equal(t, w.intervenant.ID, iv.IntervenantID)
}

func TestSchedule_AdminMustNameIntervenant(t *testing.T) {
	w := newScheduleWorld(t)

	_, err := w.scheduling.Schedule(context.Background(), w.admin.Actor(), w.input())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestSchedule_UnknownReferencesAreNotFound(t *testing.T) {
	cases := map[string]func(*ScheduleInput){
		"client":  func(in *ScheduleInput) { in.ClientID = "missing" },
		"service": func(in *ScheduleInput) { in.ServiceID = "missing" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			w := newScheduleWorld(t)
			input := w.input()
			mutate(&input)

			_, err := w.scheduling.Schedule(context.Background(), w.intervenant.Actor(), input)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
			assert.Equal(t, 0, w.store.countInterventions())
		})
	}
}

func TestSchedule_AdminTargetMustBeIntervenant(t *testing.T) {
	w := newScheduleWorld(t)
	input := w.input()
	input.IntervenantID = w.admin.ID

	_, err := w.scheduling.Schedule(context.Background(), w.admin.Actor(), input)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestSchedule_ClientIsDenied(t *testing.T) {
	w := newScheduleWorld(t)
	clientUser := w.store.addUser("dupont", domain.RoleClient)

	_, err := w.scheduling.Schedule(context.Background(), clientUser.Actor(), w.input())
	assert.True(t, apperrors.IsForbidden(err))
	assert.Equal(t, 0, w.store.countInterventions())
}

func TestSchedule_EnforcedAssignments(t *testing.T) {
	w := newScheduleWorld(t)
	w.build(true)

	_, err := w.scheduling.Schedule(context.Background(), w.intervenant.Actor(), w.input())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	users := memUserRepo{w.store}
	require.NoError(t, users.ReplaceClients(context.Background(), w.intervenant.ID, []string{w.client.ID}))
	require.NoError(t, users.ReplaceServices(context.Background(), w.intervenant.ID, []string{w.service.ID}))

	_, err = w.scheduling.Schedule(context.Background(), w.intervenant.Actor(), w.input())
	assert.NoError(t, err)
}

func TestParseScheduleTime(t *testing.T) {
	got, err := ParseScheduleTime(" 2024-02-29 ", "23:59")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC), got)

	_, err = ParseScheduleTime("2024-02-30", "10:00")
	assert.Error(t, err)
}
