package service

import (
	"context"

	"github.com/leadhub/leadhub-backend/internal/account/domain"
	"github.com/leadhub/leadhub-backend/internal/account/events"
	"github.com/leadhub/leadhub-backend/pkg/errors"
	"github.com/leadhub/leadhub-backend/pkg/httputil"
	"github.com/leadhub/leadhub-backend/pkg/logger"
)

// TenantService is the tenant directory.
type TenantService struct {
	tx       Transactor
	tenants  TenantStore
	profiles ProfileStore
	audit    *AuditService
	events   *events.AccountEventPublisher
	logger   *logger.Logger
}

// NewTenantService creates a new tenant service
func NewTenantService(tx Transactor, tenants TenantStore, profiles ProfileStore, audit *AuditService, ev *events.AccountEventPublisher, log *logger.Logger) *TenantService {
	return &TenantService{tx: tx, tenants: tenants, profiles: profiles, audit: audit, events: ev, logger: log}
}

// GetCurrent resolves caller → profile → tenant. Each missing link has its own error.
func (s *TenantService) GetCurrent(ctx context.Context) (*domain.Tenant, error) {
	_, profile, err := callerProfile(ctx, s.profiles)
	if err != nil {
		return nil, err
	}
	t, err := s.tenants.GetByID(ctx, profile.TenantID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.TenantNotFound()
		}
		return nil, err
	}
	return t, nil
}

// Create inserts a tenant.
func (s *TenantService) Create(ctx context.Context, req *domain.CreateTenantRequest) (*domain.Tenant, error) {
	if err := httputil.Validate(ctx, req); err != nil {
		return nil, err
	}
	return s.tenants.Create(ctx, req)
}

// Update changes the caller's own tenant. Admins only.
func (s *TenantService) Update(ctx context.Context, id string, req *domain.UpdateTenantRequest) (*domain.Tenant, error) {
	if err := httputil.Validate(ctx, req); err != nil {
		return nil, err
	}
	_, profile, err := callerProfile(ctx, s.profiles)
	if err != nil {
		return nil, err
	}
	if profile.TenantID != id {
		return nil, errors.Forbidden("")
	}
	if err := requireAdmin(profile); err != nil {
		return nil, err
	}

	fields := changedTenantFields(req)

	var updated *domain.Tenant
	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		t, err := s.tenants.Update(ctx, id, req)
		if err != nil {
			return err
		}
		updated = t
		return s.audit.Record(ctx, domain.AuditEntry{
			TenantID:     id,
			Action:       domain.ActionTenantUpdated,
			ResourceType: "tenant",
			ResourceID:   id,
			Details:      fields,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("tenant_id", id).Msg("tenant updated")
	s.events.TenantUpdated(ctx, updated, fields)
	return updated, nil
}

func changedTenantFields(req *domain.UpdateTenantRequest) map[string]any {
	fields := map[string]any{}
	set := func(k string, v *string) {
		if v != nil {
			fields[k] = *v
		}
	}
	set("name", req.Name)
	set("industry", req.Industry)
	set("size", req.Size)
	set("website", req.Website)
	set("address", req.Address)
	set("phone", req.Phone)
	set("description", req.Description)
	return fields
}
