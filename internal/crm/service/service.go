// Package service implements tenant-scoped CRM operations. Tenant isolation
// is enforced by the repositories; this layer checks permissions, validates
// input and emits events.
package service

import (
	"context"
	"time"

	"github.com/leadhub/leadhub-backend/internal/crm/domain"
	"github.com/leadhub/leadhub-backend/pkg/actor"
	"github.com/leadhub/leadhub-backend/pkg/errors"
	"github.com/leadhub/leadhub-backend/pkg/permissions"
)

// ContactStore is implemented by repository.ContactRepository.
type ContactStore interface {
	List(ctx context.Context, f domain.ContactFilter) ([]domain.Contact, int64, error)
	GetByID(ctx context.Context, id string) (*domain.Contact, error)
	Exists(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, c *domain.Contact) (*domain.Contact, error)
	Update(ctx context.Context, id string, req *domain.UpdateContactRequest) (*domain.Contact, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// LeadStore is implemented by repository.LeadRepository.
type LeadStore interface {
	List(ctx context.Context, f domain.LeadFilter) ([]domain.Lead, int64, error)
	GetByID(ctx context.Context, id string) (*domain.Lead, error)
	Exists(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, l *domain.Lead) (*domain.Lead, error)
	Update(ctx context.Context, id string, req *domain.UpdateLeadRequest) (before, after *domain.Lead, err error)
	Delete(ctx context.Context, id string) error
	StatusCounts(ctx context.Context) ([]domain.StatusCount, error)
}

// ActivityStore is implemented by repository.ActivityRepository.
type ActivityStore interface {
	List(ctx context.Context, f domain.ActivityFilter) ([]domain.Activity, int64, error)
	GetByID(ctx context.Context, id string) (*domain.Activity, error)
	Create(ctx context.Context, a *domain.Activity) (*domain.Activity, error)
	Update(ctx context.Context, id string, req *domain.UpdateActivityRequest) (*domain.Activity, error)
	Complete(ctx context.Context, id string, at time.Time) (*domain.Activity, error)
	Delete(ctx context.Context, id string) error
	OpenCounts(ctx context.Context, now time.Time) (open, due int64, err error)
}

// SettingsStore is implemented by repository.SettingsRepository.
type SettingsStore interface {
	Get(ctx context.Context) (*domain.Settings, error)
	Create(ctx context.Context, in *domain.SettingsInput) (*domain.Settings, error)
	Update(ctx context.Context, in *domain.SettingsInput) (*domain.Settings, error)
}

// MemberChecker is implemented by the account profile repository.
type MemberChecker interface {
	IsMember(ctx context.Context, tenantID, profileID string) (bool, error)
}

// Events is implemented by events.RecordEventPublisher.
type Events interface {
	ContactCreated(ctx context.Context, c *domain.Contact)
	ContactDeleted(ctx context.Context, tenantID, id string)
	LeadCreated(ctx context.Context, l *domain.Lead)
	LeadStatusChanged(ctx context.Context, before, after *domain.Lead)
	LeadDeleted(ctx context.Context, tenantID, id string)
	ActivityCompleted(ctx context.Context, a *domain.Activity)
}

// authorize returns the caller when they hold perm. The gateway checks the
// same permissions per route; services check again so non-HTTP callers are
// gated too.
func authorize(ctx context.Context, perm string) (*actor.Actor, error) {
	a := actor.FromContext(ctx)
	if a == nil || a.ID == "" {
		return nil, errors.Unauthorized("")
	}
	if !permissions.HasPermission(a.Permissions, perm) {
		return nil, errors.Forbidden("")
	}
	return a, nil
}

func createdBy(a *actor.Actor) *string {
	if a.IsSystem() {
		return nil
	}
	id := a.ID
	return &id
}

func page(p, perPage int) (int, int) {
	if p < 1 {
		p = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}
	return p, perPage
}
