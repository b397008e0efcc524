package service

import (
	"context"

	accountdomain "github.com/leadhub/leadhub-backend/internal/account/domain"
	"github.com/leadhub/leadhub-backend/internal/crm/domain"
	"github.com/leadhub/leadhub-backend/pkg/httputil"
	"github.com/leadhub/leadhub-backend/pkg/logger"
	"github.com/leadhub/leadhub-backend/pkg/permissions"
)

// Transactor runs fn in a database transaction carried by ctx.
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Auditor is implemented by the account audit service.
type Auditor interface {
	Record(ctx context.Context, e accountdomain.AuditEntry) error
}

// SettingsService manages the tenant-wide settings row.
type SettingsService struct {
	tx       Transactor
	settings SettingsStore
	audit    Auditor
	logger   *logger.Logger
}

// NewSettingsService creates a new settings service
func NewSettingsService(tx Transactor, settings SettingsStore, audit Auditor, log *logger.Logger) *SettingsService {
	return &SettingsService{tx: tx, settings: settings, audit: audit, logger: log}
}

// Get returns the settings, NOT_FOUND until they are created.
func (s *SettingsService) Get(ctx context.Context) (*domain.Settings, error) {
	if _, err := authorize(ctx, permissions.SettingsRead); err != nil {
		return nil, err
	}
	return s.settings.Get(ctx)
}

// Create stores the first settings row of the tenant.
func (s *SettingsService) Create(ctx context.Context, in *domain.SettingsInput) (*domain.Settings, error) {
	return s.write(ctx, in, s.settings.Create)
}

// Update changes the given fields.
func (s *SettingsService) Update(ctx context.Context, in *domain.SettingsInput) (*domain.Settings, error) {
	return s.write(ctx, in, s.settings.Update)
}

func (s *SettingsService) write(ctx context.Context, in *domain.SettingsInput,
	store func(context.Context, *domain.SettingsInput) (*domain.Settings, error)) (*domain.Settings, error) {
	a, err := authorize(ctx, permissions.SettingsWrite)
	if err != nil {
		return nil, err
	}
	if err := httputil.Validate(ctx, in); err != nil {
		return nil, err
	}

	var out *domain.Settings
	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		saved, err := store(ctx, in)
		if err != nil {
			return err
		}
		out = saved
		return s.audit.Record(ctx, accountdomain.AuditEntry{
			TenantID:     a.TenantID,
			Action:       accountdomain.ActionSettingsUpdated,
			ResourceType: "settings",
			ResourceID:   saved.ID,
			Details:      settingsFields(in),
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func settingsFields(in *domain.SettingsInput) map[string]any {
	fields := map[string]any{}
	for k, v := range map[string]any{
		"theme":               in.Theme,
		"language":            in.Language,
		"timezone":            in.Timezone,
		"date_format":         in.DateFormat,
		"email_notifications": in.EmailNotifications,
		"data_sharing":        in.DataSharing,
		"auto_save":           in.AutoSave,
	} {
		switch p := v.(type) {
		case *string:
			if p != nil {
				fields[k] = *p
			}
		case *bool:
			if p != nil {
				fields[k] = *p
			}
		}
	}
	return fields
}
