package events

import (
	"context"

	"github.com/leadhub/leadhub-backend/internal/account/domain"
	"github.com/leadhub/leadhub-backend/pkg/actor"
	"github.com/leadhub/leadhub-backend/pkg/logger"
	"github.com/leadhub/leadhub-backend/pkg/messaging"
	"github.com/leadhub/leadhub-backend/pkg/metrics"
)

// AccountEventPublisher publishes tenant, profile and invitation events.
// Publishing is best effort: failures are logged and counted, never returned,
// because the database change has already been committed.
type AccountEventPublisher struct {
	publisher messaging.EventPublisher
	metrics   *metrics.Metrics
	logger    *logger.Logger
}

// NewAccountEventPublisher wraps publisher; m may be nil.
func NewAccountEventPublisher(publisher messaging.EventPublisher, m *metrics.Metrics, log *logger.Logger) *AccountEventPublisher {
	return &AccountEventPublisher{publisher: publisher, metrics: m, logger: log}
}

func (p *AccountEventPublisher) publish(ctx context.Context, eventType string, data interface{}) {
	err := p.publisher.Publish(ctx, eventType, data)
	p.metrics.ObservePublish(eventType, err)
	if err != nil {
		p.logger.Error().Err(err).Str("event_type", eventType).Msg("failed to publish event")
	}
}

func actorID(ctx context.Context) string {
	if a := actor.FromContext(ctx); a != nil {
		return a.ID
	}
	return ""
}

// TenantUpdated publishes the changed fields.
func (p *AccountEventPublisher) TenantUpdated(ctx context.Context, t *domain.Tenant, fields map[string]any) {
	p.publish(ctx, messaging.EventTenantUpdated, messaging.TenantEvent{
		TenantID: t.ID,
		Name:     t.Name,
		Fields:   fields,
		ActorID:  actorID(ctx),
	})
}

// ProfileUpdated publishes a profile change.
func (p *AccountEventPublisher) ProfileUpdated(ctx context.Context, profile *domain.Profile, fields map[string]any) {
	p.publish(ctx, messaging.EventProfileUpdated, messaging.ProfileEvent{
		ProfileID: profile.ID,
		TenantID:  profile.TenantID,
		Email:     profile.Email,
		Fields:    fields,
		ActorID:   actorID(ctx),
	})
}

// RoleChanged publishes a role transition.
func (p *AccountEventPublisher) RoleChanged(ctx context.Context, profile *domain.Profile, oldRole string) {
	p.publish(ctx, messaging.EventProfileRoleChanged, messaging.ProfileEvent{
		ProfileID: profile.ID,
		TenantID:  profile.TenantID,
		Email:     profile.Email,
		OldRole:   oldRole,
		NewRole:   profile.Role,
		ActorID:   actorID(ctx),
	})
}

// MemberRemoved publishes a member removal.
func (p *AccountEventPublisher) MemberRemoved(ctx context.Context, profile *domain.Profile) {
	p.publish(ctx, messaging.EventProfileRemoved, messaging.ProfileEvent{
		ProfileID: profile.ID,
		TenantID:  profile.TenantID,
		Email:     profile.Email,
		ActorID:   actorID(ctx),
	})
}

// InvitationCreated asks the notify worker to mail the invite link.
func (p *AccountEventPublisher) InvitationCreated(ctx context.Context, inv *domain.Invitation, t *domain.Tenant, inviterName, acceptURL, locale string) {
	invitedBy := ""
	if inv.InvitedBy != nil {
		invitedBy = *inv.InvitedBy
	}
	p.metrics.ObserveInvitation(string(domain.InvitationPending))
	p.publish(ctx, messaging.EventInvitationCreated, messaging.InvitationCreatedEvent{
		InvitationID: inv.ID,
		TenantID:     inv.TenantID,
		TenantName:   t.Name,
		Email:        inv.Email,
		Role:         inv.Role,
		InvitedBy:    invitedBy,
		InviterName:  inviterName,
		AcceptURL:    acceptURL,
		ExpiresAt:    inv.ExpiresAt,
		Locale:       locale,
	})
}

// InvitationAccepted publishes an acceptance.
func (p *AccountEventPublisher) InvitationAccepted(ctx context.Context, inv *domain.Invitation, profileID string) {
	p.metrics.ObserveInvitation(string(domain.InvitationAccepted))
	p.publish(ctx, messaging.EventInvitationAccepted, messaging.InvitationStatusEvent{
		InvitationID: inv.ID,
		TenantID:     inv.TenantID,
		Email:        inv.Email,
		Status:       string(domain.InvitationAccepted),
		ProfileID:    profileID,
	})
}

// InvitationRevoked publishes a revocation.
func (p *AccountEventPublisher) InvitationRevoked(ctx context.Context, inv *domain.Invitation) {
	p.metrics.ObserveInvitation(string(domain.InvitationRevoked))
	p.publish(ctx, messaging.EventInvitationRevoked, messaging.InvitationStatusEvent{
		InvitationID: inv.ID,
		TenantID:     inv.TenantID,
		Email:        inv.Email,
		Status:       string(domain.InvitationRevoked),
		ActorID:      actorID(ctx),
	})
}
