package service

import (
	"context"
	"time"

	"github.com/leadhub/leadhub-backend/internal/account/domain"
	"github.com/leadhub/leadhub-backend/pkg/actor"
	"github.com/leadhub/leadhub-backend/pkg/errors"
	"github.com/leadhub/leadhub-backend/pkg/permissions"
)

// Transactor runs fn in a database transaction carried by ctx.
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// TenantStore is implemented by repository.TenantRepository.
type TenantStore interface {
	GetByID(ctx context.Context, id string) (*domain.Tenant, error)
	Create(ctx context.Context, req *domain.CreateTenantRequest) (*domain.Tenant, error)
	Update(ctx context.Context, id string, req *domain.UpdateTenantRequest) (*domain.Tenant, error)
	SetOwner(ctx context.Context, tenantID, profileID string) error
}

// ProfileStore is implemented by repository.ProfileRepository.
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	GetInTenant(ctx context.Context, tenantID, id string) (*domain.Profile, error)
	ListByTenant(ctx context.Context, tenantID string) ([]domain.Profile, error)
	FindByEmail(ctx context.Context, email string) (*domain.Profile, error)
	Create(ctx context.Context, p *domain.Profile) (*domain.Profile, error)
	Update(ctx context.Context, tenantID, id string, req *domain.UpdateProfileRequest) (*domain.Profile, error)
	UpdateRole(ctx context.Context, tenantID, id, role string) (*domain.Profile, error)
	Delete(ctx context.Context, tenantID, id string) error
}

// InvitationStore is implemented by repository.InvitationRepository.
type InvitationStore interface {
	Create(ctx context.Context, inv *domain.Invitation) (*domain.Invitation, error)
	GetByID(ctx context.Context, tenantID, id string) (*domain.Invitation, error)
	GetByTokenHash(ctx context.Context, tokenHash string, forUpdate bool) (*domain.Invitation, error)
	FindPending(ctx context.Context, tenantID, email string) (*domain.Invitation, error)
	List(ctx context.Context, tenantID string, status domain.InvitationStatus) ([]domain.Invitation, error)
	MarkAccepted(ctx context.Context, id, profileID string, at time.Time) error
	Revoke(ctx context.Context, tenantID, id, revokedBy string, at time.Time) (*domain.Invitation, error)
	Renew(ctx context.Context, tenantID, id, tokenHash string, expiresAt time.Time) (*domain.Invitation, error)
	ExpireStale(ctx context.Context, tenantID string, now time.Time) (int64, error)
}

// AuditStore is implemented by repository.AuditRepository.
type AuditStore interface {
	Create(ctx context.Context, e *domain.AuditLog) error
	List(ctx context.Context, tenantID string, f domain.AuditFilter) ([]domain.AuditLog, int64, error)
}

// caller returns the authenticated actor or UNAUTHORIZED.
func caller(ctx context.Context) (*actor.Actor, error) {
	a := actor.FromContext(ctx)
	if a == nil || a.ID == "" {
		return nil, errors.Unauthorized("")
	}
	return a, nil
}

// callerProfile loads the caller's profile from the database so that role
// checks never rely on a stale token.
func callerProfile(ctx context.Context, profiles ProfileStore) (*actor.Actor, *domain.Profile, error) {
	a, err := caller(ctx)
	if err != nil {
		return nil, nil, err
	}
	p, err := profiles.GetByID(ctx, a.ID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil, errors.ProfileNotFound()
		}
		return nil, nil, err
	}
	return a, p, nil
}

func requireAdmin(p *domain.Profile) error {
	if p.Role != permissions.RoleAdmin {
		return errors.Forbidden("").WithMessageKey("errors.admin_only", nil)
	}
	return nil
}

func ownerOnly() error {
	return errors.Forbidden("").WithMessageKey("errors.owner_only", nil)
}
