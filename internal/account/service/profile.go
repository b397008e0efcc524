package service

import (
	"context"
	"strings"

	"github.com/leadhub/leadhub-backend/internal/account/domain"
	"github.com/leadhub/leadhub-backend/internal/account/events"
	"github.com/leadhub/leadhub-backend/pkg/errors"
	"github.com/leadhub/leadhub-backend/pkg/httputil"
	"github.com/leadhub/leadhub-backend/pkg/logger"
	"github.com/leadhub/leadhub-backend/pkg/permissions"
)

// ProfileService is the profile directory and ownership model.
type ProfileService struct {
	tx       Transactor
	profiles ProfileStore
	tenants  TenantStore
	sessions IdentityRegistrar
	audit    *AuditService
	events   *events.AccountEventPublisher
	logger   *logger.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(tx Transactor, profiles ProfileStore, tenants TenantStore, identities IdentityRegistrar,
	audit *AuditService, ev *events.AccountEventPublisher, log *logger.Logger) *ProfileService {
	return &ProfileService{tx: tx, profiles: profiles, tenants: tenants, sessions: identities, audit: audit, events: ev, logger: log}
}

// GetCurrent returns the caller's profile.
func (s *ProfileService) GetCurrent(ctx context.Context) (*domain.Profile, error) {
	_, p, err := callerProfile(ctx, s.profiles)
	return p, err
}

// GetByID returns a member of the caller's tenant.
func (s *ProfileService) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	a, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	return s.profiles.GetInTenant(ctx, a.TenantID, id)
}

// GetAll lists the caller's tenant members ordered by first name.
func (s *ProfileService) GetAll(ctx context.Context) ([]domain.Profile, error) {
	a, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	return s.profiles.ListByTenant(ctx, a.TenantID)
}

// IsOwner compares the caller with the tenant's stored owner.
func (s *ProfileService) IsOwner(ctx context.Context) (*domain.OwnerStatus, error) {
	_, p, err := callerProfile(ctx, s.profiles)
	if err != nil {
		return nil, err
	}
	t, err := s.tenants.GetByID(ctx, p.TenantID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.TenantNotFound()
		}
		return nil, err
	}
	return &domain.OwnerStatus{IsOwner: t.IsOwnedBy(p.ID), OwnerProfileID: t.OwnerProfileID}, nil
}

// Update edits personal fields: any member may edit themselves, admins may
// edit anyone in their tenant.
func (s *ProfileService) Update(ctx context.Context, id string, req *domain.UpdateProfileRequest) (*domain.Profile, error) {
	if err := httputil.Validate(ctx, req); err != nil {
		return nil, err
	}
	a, self, err := callerProfile(ctx, s.profiles)
	if err != nil {
		return nil, err
	}
	if id != a.ID {
		if err := requireAdmin(self); err != nil {
			return nil, err
		}
	}

	fields := changedProfileFields(req)

	var updated *domain.Profile
	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		p, err := s.profiles.Update(ctx, self.TenantID, id, req)
		if err != nil {
			return err
		}
		updated = p
		return s.audit.Record(ctx, domain.AuditEntry{
			TenantID:     self.TenantID,
			Action:       domain.ActionProfileUpdated,
			ResourceType: "profile",
			ResourceID:   id,
			Details:      fields,
		})
	})
	if err != nil {
		return nil, err
	}

	s.events.ProfileUpdated(ctx, updated, fields)
	return updated, nil
}

// ChangeRole assigns a new role. Admins only; the owner keeps the admin role.
func (s *ProfileService) ChangeRole(ctx context.Context, id string, req *domain.ChangeRoleRequest) (*domain.Profile, error) {
	if err := httputil.Validate(ctx, req); err != nil {
		return nil, err
	}
	role := permissions.NormalizeRole(req.Role)
	if role == "" {
		return nil, errors.Validation(map[string]string{"role": "must be one of: " + strings.Join(permissions.ValidRoles(), ", ")})
	}

	_, self, err := callerProfile(ctx, s.profiles)
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(self); err != nil {
		return nil, err
	}

	var (
		updated *domain.Profile
		oldRole string
	)
	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		target, err := s.profiles.GetInTenant(ctx, self.TenantID, id)
		if err != nil {
			return err
		}
		t, err := s.tenants.GetByID(ctx, self.TenantID)
		if err != nil {
			return err
		}
		if t.IsOwnedBy(target.ID) && role != permissions.RoleAdmin {
			return errors.Forbidden("").WithMessageKey("errors.owner_role_locked", nil)
		}
		oldRole = target.Role

		updated, err = s.profiles.UpdateRole(ctx, self.TenantID, id, role)
		if err != nil {
			return err
		}
		return s.audit.Record(ctx, domain.AuditEntry{
			TenantID:     self.TenantID,
			Action:       domain.ActionRoleChanged,
			ResourceType: "profile",
			ResourceID:   id,
			Details:      map[string]any{"old_role": oldRole, "new_role": role},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("profile_id", id).Str("old_role", oldRole).Str("new_role", role).Msg("role changed")
	if oldRole != role {
		s.events.RoleChanged(ctx, updated, oldRole)
	}
	return updated, nil
}

// RemoveMember deletes another member of the tenant and signs their identity
// out everywhere. The identity survives so it can be invited again. Owner only.
func (s *ProfileService) RemoveMember(ctx context.Context, id string) error {
	a, self, err := callerProfile(ctx, s.profiles)
	if err != nil {
		return err
	}
	if id == a.ID {
		return errors.BadRequest("").WithMessageKey("errors.cannot_remove_self", nil)
	}

	var removed *domain.Profile
	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		t, err := s.tenants.GetByID(ctx, self.TenantID)
		if err != nil {
			return err
		}
		if !t.IsOwnedBy(self.ID) {
			return ownerOnly()
		}
		removed, err = s.profiles.GetInTenant(ctx, self.TenantID, id)
		if err != nil {
			return err
		}
		if err := s.profiles.Delete(ctx, self.TenantID, id); err != nil {
			return err
		}
		revoked, err := s.sessions.RevokeSessions(ctx, id)
		if err != nil {
			return err
		}
		return s.audit.Record(ctx, domain.AuditEntry{
			TenantID:     self.TenantID,
			Action:       domain.ActionMemberRemoved,
			ResourceType: "profile",
			ResourceID:   id,
			Details:      map[string]any{"email": removed.Email, "role": removed.Role, "sessions_revoked": revoked},
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info().Str("profile_id", id).Msg("member removed")
	s.events.MemberRemoved(ctx, removed)
	return nil
}

func changedProfileFields(req *domain.UpdateProfileRequest) map[string]any {
	fields := map[string]any{}
	set := func(k string, v *string) {
		if v != nil {
			fields[k] = *v
		}
	}
	set("first_name", req.FirstName)
	set("last_name", req.LastName)
	set("job_title", req.JobTitle)
	set("phone", req.Phone)
	set("bio", req.Bio)
	set("avatar_url", req.AvatarURL)
	return fields
}
