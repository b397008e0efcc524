package service

import (
	"context"
	"time"

	accountdomain "github.com/leadhub/leadhub-backend/internal/account/domain"
	"github.com/leadhub/leadhub-backend/internal/auth/repository"
)

// Transactor runs fn in a database transaction carried by ctx.
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// IdentityStore is implemented by repository.IdentityRepository.
type IdentityStore interface {
	Create(ctx context.Context, email, passwordHash string) (*repository.Identity, error)
	GetByEmail(ctx context.Context, email string) (*repository.Identity, error)
	GetByID(ctx context.Context, id string) (*repository.Identity, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	TouchSignIn(ctx context.Context, id string, at time.Time) error
}

// SessionStore is implemented by repository.SessionRepository.
type SessionStore interface {
	Create(ctx context.Context, s *repository.Session) error
	GetByRefreshHash(ctx context.Context, hash string) (*repository.Session, error)
	Rotate(ctx context.Context, id, newHash string, expiresAt, at time.Time) error
	RevokeByRefreshHash(ctx context.Context, hash string, at time.Time) error
	RevokeAllForIdentity(ctx context.Context, identityID, keepID string, at time.Time) (int64, error)
	CleanExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// ResetStore is implemented by repository.PasswordResetRepository.
type ResetStore interface {
	Create(ctx context.Context, identityID, tokenHash string, expiresAt time.Time) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*repository.PasswordReset, error)
	MarkUsed(ctx context.Context, id, identityID string, at time.Time) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// TenantStore is the part of the tenant repository sign-up needs.
type TenantStore interface {
	Create(ctx context.Context, req *accountdomain.CreateTenantRequest) (*accountdomain.Tenant, error)
	SetOwner(ctx context.Context, tenantID, profileID string) error
}

// ProfileStore is the part of the profile repository authentication needs.
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (*accountdomain.Profile, error)
	Create(ctx context.Context, p *accountdomain.Profile) (*accountdomain.Profile, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}
