package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/intervention-service/internal/events"
	"github.com/spec-kit/intervention-service/internal/observability"
)

// AuditService records committed lifecycle events.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to every lifecycle event.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventInterventionScheduled,
		events.EventSessionOpened,
		events.EventSessionClosed,
		events.EventDeletionRequested,
		events.EventDeletionApproved,
		events.EventDeletionRejected,
	} {
		a.dispatcher.Subscribe(eventType, a.record)
	}
}

func (a *AuditService) record(_ context.Context, event events.Event) error {
	a.logger.Info("intervention lifecycle",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("intervention_id", event.InterventionID),
		zap.String("actor_id", event.Actor.ID),
		zap.String("actor_role", string(event.Actor.Role)),
		zap.Time("at", event.Timestamp),
		zap.Any("payload", event.Payload))
	a.metrics.RecordTransition(string(event.Type))
	return nil
}
