package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/intervention-service/internal/events"
	apperrors "github.com/spec-kit/intervention-service/pkg/util"
)

// UnitOfWork runs fn inside a single transaction that commits only when fn
// succeeds.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SessionLocker serializes scan toggles per actor.
type SessionLocker interface {
	Acquire(ctx context.Context, actorID string) (release func(), err error)
}

func defaultClock(now func() time.Time) func() time.Time {
	if now != nil {
		return now
	}
	return func() time.Time { return time.Now().UTC() }
}

// lookupError turns a missing row into a not-found error for resource.
func lookupError(err error, resource, key, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, map[string]any{key: id})
	}
	return apperrors.MapError(err)
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_ = dispatcher.Publish(ctx, event)
}
