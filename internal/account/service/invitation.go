package service

import (
	"context"
	"strings"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/leadhub/leadhub-backend/internal/account/domain"
	"github.com/leadhub/leadhub-backend/internal/account/events"
	"github.com/leadhub/leadhub-backend/pkg/errors"
	"github.com/leadhub/leadhub-backend/pkg/httputil"
	"github.com/leadhub/leadhub-backend/pkg/i18n"
	"github.com/leadhub/leadhub-backend/pkg/logger"
	"github.com/leadhub/leadhub-backend/pkg/permissions"
	"github.com/leadhub/leadhub-backend/pkg/token"
)

// IdentityRegistrar manages login identities. Implemented by the auth service;
// both calls join the caller's transaction.
type IdentityRegistrar interface {
	// JoinIdentity returns the identity for email, creating it when none
	// exists. An existing identity must present its current password.
	JoinIdentity(ctx context.Context, email, password string) (string, error)
	RevokeSessions(ctx context.Context, identityID string) (int64, error)
}

// InvitationConfig holds invitation settings.
type InvitationConfig struct {
	Expiry      time.Duration
	FrontendURL string
}

// InvitationService manages the invitation lifecycle.
type InvitationService struct {
	tx          Transactor
	invitations InvitationStore
	profiles    ProfileStore
	tenants     TenantStore
	identities  IdentityRegistrar
	audit       *AuditService
	events      *events.AccountEventPublisher
	clock       clock.Clock
	cfg         InvitationConfig
	logger      *logger.Logger
}

// NewInvitationService creates a new invitation service
func NewInvitationService(
	tx Transactor,
	invitations InvitationStore,
	profiles ProfileStore,
	tenants TenantStore,
	identities IdentityRegistrar,
	audit *AuditService,
	ev *events.AccountEventPublisher,
	clk clock.Clock,
	cfg InvitationConfig,
	log *logger.Logger,
) *InvitationService {
	if clk == nil {
		clk = clock.New()
	}
	return &InvitationService{
		tx:          tx,
		invitations: invitations,
		profiles:    profiles,
		tenants:     tenants,
		identities:  identities,
		audit:       audit,
		events:      ev,
		clock:       clk,
		cfg:         cfg,
		logger:      log,
	}
}

// requireOwner loads the caller and their tenant and fails unless the caller owns it.
func (s *InvitationService) requireOwner(ctx context.Context) (*domain.Profile, *domain.Tenant, error) {
	_, self, err := callerProfile(ctx, s.profiles)
	if err != nil {
		return nil, nil, err
	}
	t, err := s.tenants.GetByID(ctx, self.TenantID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil, errors.TenantNotFound()
		}
		return nil, nil, err
	}
	if !t.IsOwnedBy(self.ID) {
		return nil, nil, ownerOnly()
	}
	return self, t, nil
}

func (s *InvitationService) acceptURL(raw string) string {
	return strings.TrimRight(s.cfg.FrontendURL, "/") + "/invite/" + raw
}

// Invite creates a pending invitation and returns the one-time accept link.
func (s *InvitationService) Invite(ctx context.Context, req *domain.CreateInvitationRequest) (*domain.InviteResult, error) {
	if err := httputil.Validate(ctx, req); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	role := permissions.NormalizeRole(req.Role)

	self, t, err := s.requireOwner(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := token.Generate()
	if err != nil {
		return nil, errors.InternalWrap(err, "failed to generate invitation token")
	}
	now := s.clock.Now()

	var created *domain.Invitation
	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		if err := s.checkUnattached(ctx, t.ID, email); err != nil {
			return err
		}

		// A lapsed pending row would still hold the unique pending slot.
		if _, err := s.invitations.ExpireStale(ctx, t.ID, now); err != nil {
			return err
		}
		if _, err := s.invitations.FindPending(ctx, t.ID, email); err == nil {
			return errors.Conflict("").WithMessageKey("errors.invitation_pending", map[string]string{"email": email})
		} else if !errors.IsNotFound(err) {
			return err
		}

		inviter := self.ID
		created, err = s.invitations.Create(ctx, &domain.Invitation{
			TenantID:  t.ID,
			Email:     email,
			Role:      role,
			TokenHash: token.Hash(raw),
			ExpiresAt: now.Add(s.cfg.Expiry),
			InvitedBy: &inviter,
		})
		if err != nil {
			return err
		}
		return s.audit.Record(ctx, domain.AuditEntry{
			TenantID:     t.ID,
			Action:       domain.ActionInvitationCreated,
			ResourceType: "invitation",
			ResourceID:   created.ID,
			Details:      map[string]any{"email": email, "role": role},
		})
	})
	if err != nil {
		return nil, err
	}

	link := s.acceptURL(raw)
	s.logger.Info().Str("invitation_id", created.ID).Str("tenant_id", t.ID).Msg("invitation created")
	s.events.InvitationCreated(ctx, created, t, self.FullName(), link, i18n.GetLocaleFromContext(ctx))

	return &domain.InviteResult{
		Invitation: created,
		InviteURL:  link,
		Message:    i18n.TFromContext(ctx, "messages.invitation_sent", map[string]string{"email": email}),
	}, nil
}

// List returns the tenant's invitations, optionally filtered by status. Lapsed
// pending invitations are marked expired first so the listing is current.
func (s *InvitationService) List(ctx context.Context, status domain.InvitationStatus) ([]domain.Invitation, error) {
	if status != "" && !status.Valid() {
		return nil, errors.Validation(map[string]string{"status": "must be one of: pending, accepted, revoked, expired"})
	}
	a, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.invitations.ExpireStale(ctx, a.TenantID, s.clock.Now()); err != nil {
		return nil, err
	}
	return s.invitations.List(ctx, a.TenantID, status)
}

// Revoke cancels a pending invitation. Owner only.
func (s *InvitationService) Revoke(ctx context.Context, id string) (*domain.Invitation, error) {
	self, t, err := s.requireOwner(ctx)
	if err != nil {
		return nil, err
	}

	var revoked *domain.Invitation
	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		inv, err := s.invitations.GetByID(ctx, t.ID, id)
		if err != nil {
			return err
		}
		if inv.Status != domain.InvitationPending {
			return errors.BadRequest("").WithMessageKey("errors.invitation_invalid", nil)
		}
		revoked, err = s.invitations.Revoke(ctx, t.ID, id, self.ID, s.clock.Now())
		if err != nil {
			return err
		}
		return s.audit.Record(ctx, domain.AuditEntry{
			TenantID:     t.ID,
			Action:       domain.ActionInvitationRevoked,
			ResourceType: "invitation",
			ResourceID:   id,
			Details:      map[string]any{"email": inv.Email},
		})
	})
	if err != nil {
		return nil, err
	}

	s.events.InvitationRevoked(ctx, revoked)
	return revoked, nil
}

// Resend issues a fresh token and expiry for a pending or expired invitation.
func (s *InvitationService) Resend(ctx context.Context, id string) (*domain.InviteResult, error) {
	self, t, err := s.requireOwner(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := token.Generate()
	if err != nil {
		return nil, errors.InternalWrap(err, "failed to generate invitation token")
	}

	var renewed *domain.Invitation
	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		inv, err := s.invitations.GetByID(ctx, t.ID, id)
		if err != nil {
			return err
		}
		if inv.Status != domain.InvitationPending && inv.Status != domain.InvitationExpired {
			return errors.BadRequest("").WithMessageKey("errors.invitation_invalid", nil)
		}
		renewed, err = s.invitations.Renew(ctx, t.ID, id, token.Hash(raw), s.clock.Now().Add(s.cfg.Expiry))
		if err != nil {
			return err
		}
		return s.audit.Record(ctx, domain.AuditEntry{
			TenantID:     t.ID,
			Action:       domain.ActionInvitationResent,
			ResourceType: "invitation",
			ResourceID:   id,
			Details:      map[string]any{"email": inv.Email},
		})
	})
	if err != nil {
		return nil, err
	}

	link := s.acceptURL(raw)
	s.events.InvitationCreated(ctx, renewed, t, self.FullName(), link, i18n.GetLocaleFromContext(ctx))

	return &domain.InviteResult{
		Invitation: renewed,
		InviteURL:  link,
		Message:    i18n.TFromContext(ctx, "messages.invitation_resent", map[string]string{"email": renewed.Email}),
	}, nil
}

// GetByToken returns the public view of an invitation for the accept page.
func (s *InvitationService) GetByToken(ctx context.Context, raw string) (*domain.PublicInvitation, error) {
	if raw == "" {
		return nil, errors.BadRequest("").WithMessageKey("errors.invitation_invalid", nil)
	}
	inv, err := s.invitations.GetByTokenHash(ctx, token.Hash(raw), false)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NotFound("invitation")
		}
		return nil, err
	}

	t, err := s.tenants.GetByID(ctx, inv.TenantID)
	if err != nil {
		return nil, err
	}

	view := &domain.PublicInvitation{
		Email:      inv.Email,
		Role:       inv.Role,
		Status:     inv.Status,
		TenantName: t.Name,
		ExpiresAt:  inv.ExpiresAt,
	}
	if inv.IsExpired(s.clock.Now()) {
		view.Status = domain.InvitationExpired
	}
	if inv.InvitedBy != nil {
		if inviter, err := s.profiles.GetByID(ctx, *inv.InvitedBy); err == nil {
			view.InviterName = inviter.FullName()
		}
	}
	return view, nil
}

// checkUnattached fails when email already has a profile, in tenantID or in
// any other tenant. An identity holds at most one profile.
func (s *InvitationService) checkUnattached(ctx context.Context, tenantID, email string) error {
	p, err := s.profiles.FindByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil
		}
		return err
	}
	if p.TenantID == tenantID {
		return errors.AlreadyMember(email)
	}
	return errors.Conflict("").WithMessageKey("errors.member_of_other_tenant", map[string]string{"email": email})
}

// Accept attaches a profile in the inviting tenant to the invitee's identity
// and consumes the invitation, all in one transaction. The identity is
// created unless the email already has one without a profile, e.g. after
// the member was removed.
func (s *InvitationService) Accept(ctx context.Context, raw string, req *domain.AcceptInvitationRequest) (*domain.AcceptResult, error) {
	if err := httputil.Validate(ctx, req); err != nil {
		return nil, err
	}
	now := s.clock.Now()

	var (
		inv     *domain.Invitation
		profile *domain.Profile
		t       *domain.Tenant
	)
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.invitations.GetByTokenHash(ctx, token.Hash(raw), true)
		if err != nil {
			if errors.IsNotFound(err) {
				return errors.BadRequest("").WithMessageKey("errors.invitation_invalid", nil)
			}
			return err
		}
		if inv.IsExpired(now) {
			return errors.BadRequest("").WithMessageKey("errors.invitation_expired", nil)
		}
		if !inv.CanAccept(now) {
			return errors.BadRequest("").WithMessageKey("errors.invitation_invalid", nil)
		}

		t, err = s.tenants.GetByID(ctx, inv.TenantID)
		if err != nil {
			return err
		}

		if err := s.checkUnattached(ctx, inv.TenantID, inv.Email); err != nil {
			return err
		}
		identityID, err := s.identities.JoinIdentity(ctx, inv.Email, req.Password)
		if err != nil {
			return err
		}

		profile, err = s.profiles.Create(ctx, &domain.Profile{
			ID:                 identityID,
			TenantID:           inv.TenantID,
			Email:              inv.Email,
			FirstName:          strings.TrimSpace(req.FirstName),
			LastName:           strings.TrimSpace(req.LastName),
			Role:               permissions.NormalizeRole(inv.Role),
			OnboardingComplete: true,
		})
		if err != nil {
			return err
		}

		if err := s.invitations.MarkAccepted(ctx, inv.ID, profile.ID, now); err != nil {
			return err
		}
		return s.audit.Record(ctx, domain.AuditEntry{
			TenantID:     inv.TenantID,
			Action:       domain.ActionInvitationAccepted,
			ResourceType: "invitation",
			ResourceID:   inv.ID,
			Details:      map[string]any{"email": inv.Email, "profile_id": profile.ID},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("invitation_id", inv.ID).Str("profile_id", profile.ID).Msg("invitation accepted")
	s.events.InvitationAccepted(ctx, inv, profile.ID)
	return &domain.AcceptResult{Profile: profile, Tenant: t}, nil
}

// ExpireStale marks lapsed pending invitations of every tenant as expired.
func (s *InvitationService) ExpireStale(ctx context.Context) (int64, error) {
	n, err := s.invitations.ExpireStale(ctx, "", s.clock.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info().Int64("count", n).Msg("expired stale invitations")
	}
	return n, nil
}
