// Package events publishes CRM record lifecycle events.
package events

import (
	"context"

	"github.com/leadhub/leadhub-backend/internal/crm/domain"
	"github.com/leadhub/leadhub-backend/pkg/actor"
	"github.com/leadhub/leadhub-backend/pkg/logger"
	"github.com/leadhub/leadhub-backend/pkg/messaging"
	"github.com/leadhub/leadhub-backend/pkg/metrics"
)

// RecordEventPublisher publishes contact, lead and activity events. Failures
// are logged and counted; the row change has already been committed.
type RecordEventPublisher struct {
	publisher messaging.EventPublisher
	metrics   *metrics.Metrics
	logger    *logger.Logger
}

// NewRecordEventPublisher wraps publisher; m may be nil.
func NewRecordEventPublisher(publisher messaging.EventPublisher, m *metrics.Metrics, log *logger.Logger) *RecordEventPublisher {
	return &RecordEventPublisher{publisher: publisher, metrics: m, logger: log}
}

func (p *RecordEventPublisher) publish(ctx context.Context, eventType string, e messaging.RecordEvent) {
	if a := actor.FromContext(ctx); a != nil {
		e.ActorID = a.ID
	}
	err := p.publisher.Publish(ctx, eventType, e)
	p.metrics.ObservePublish(eventType, err)
	if err != nil {
		p.logger.Error().Err(err).Str("event_type", eventType).Str("record_id", e.ID).Msg("failed to publish event")
	}
}

func (p *RecordEventPublisher) ContactCreated(ctx context.Context, c *domain.Contact) {
	p.publish(ctx, messaging.EventContactCreated, messaging.RecordEvent{
		ID: c.ID, TenantID: c.TenantID, Kind: "contact", NewStatus: c.Status,
	})
}

func (p *RecordEventPublisher) ContactDeleted(ctx context.Context, tenantID, id string) {
	p.publish(ctx, messaging.EventContactDeleted, messaging.RecordEvent{
		ID: id, TenantID: tenantID, Kind: "contact",
	})
}

func (p *RecordEventPublisher) LeadCreated(ctx context.Context, l *domain.Lead) {
	p.publish(ctx, messaging.EventLeadCreated, messaging.RecordEvent{
		ID: l.ID, TenantID: l.TenantID, Kind: "lead", NewStatus: string(l.Status),
	})
}

// LeadStatusChanged is published only when the status actually moved.
func (p *RecordEventPublisher) LeadStatusChanged(ctx context.Context, before, after *domain.Lead) {
	p.publish(ctx, messaging.EventLeadStatusChanged, messaging.RecordEvent{
		ID:        after.ID,
		TenantID:  after.TenantID,
		Kind:      "lead",
		OldStatus: string(before.Status),
		NewStatus: string(after.Status),
	})
}

func (p *RecordEventPublisher) LeadDeleted(ctx context.Context, tenantID, id string) {
	p.publish(ctx, messaging.EventLeadDeleted, messaging.RecordEvent{
		ID: id, TenantID: tenantID, Kind: "lead",
	})
}

func (p *RecordEventPublisher) ActivityCompleted(ctx context.Context, a *domain.Activity) {
	p.publish(ctx, messaging.EventActivityCompleted, messaging.RecordEvent{
		ID: a.ID, TenantID: a.TenantID, Kind: a.Type,
	})
}
