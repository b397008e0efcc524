// Package handler exposes the tenant, profile, invitation and audit services over HTTP.
package handler

import (
	"context"

	"github.com/leadhub/leadhub-backend/internal/account/domain"
)

// TenantAPI is implemented by service.TenantService.
type TenantAPI interface {
	GetCurrent(ctx context.Context) (*domain.Tenant, error)
	Update(ctx context.Context, id string, req *domain.UpdateTenantRequest) (*domain.Tenant, error)
}

// ProfileAPI is implemented by service.ProfileService.
type ProfileAPI interface {
	GetCurrent(ctx context.Context) (*domain.Profile, error)
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	GetAll(ctx context.Context) ([]domain.Profile, error)
	IsOwner(ctx context.Context) (*domain.OwnerStatus, error)
	Update(ctx context.Context, id string, req *domain.UpdateProfileRequest) (*domain.Profile, error)
	ChangeRole(ctx context.Context, id string, req *domain.ChangeRoleRequest) (*domain.Profile, error)
	RemoveMember(ctx context.Context, id string) error
}

// InvitationAPI is implemented by service.InvitationService.
type InvitationAPI interface {
	Invite(ctx context.Context, req *domain.CreateInvitationRequest) (*domain.InviteResult, error)
	List(ctx context.Context, status domain.InvitationStatus) ([]domain.Invitation, error)
	Revoke(ctx context.Context, id string) (*domain.Invitation, error)
	Resend(ctx context.Context, id string) (*domain.InviteResult, error)
	GetByToken(ctx context.Context, token string) (*domain.PublicInvitation, error)
	Accept(ctx context.Context, token string, req *domain.AcceptInvitationRequest) (*domain.AcceptResult, error)
}

// AuditAPI is implemented by service.AuditService.
type AuditAPI interface {
	List(ctx context.Context, f domain.AuditFilter) ([]domain.AuditLog, int64, error)
}
