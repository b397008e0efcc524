// Package handler exposes contacts, leads, activities, settings and the
// dashboard over HTTP.
package handler

import (
	"context"

	"github.com/leadhub/leadhub-backend/internal/crm/domain"
)

// ContactAPI is implemented by service.ContactService.
type ContactAPI interface {
	List(ctx context.Context, f domain.ContactFilter) ([]domain.Contact, int64, error)
	GetByID(ctx context.Context, id string) (*domain.Contact, error)
	Create(ctx context.Context, req *domain.CreateContactRequest) (*domain.Contact, error)
	Update(ctx context.Context, id string, req *domain.UpdateContactRequest) (*domain.Contact, error)
	Delete(ctx context.Context, id string) error
}

// LeadAPI is implemented by service.LeadService.
type LeadAPI interface {
	List(ctx context.Context, f domain.LeadFilter) ([]domain.Lead, int64, error)
	GetByID(ctx context.Context, id string) (*domain.Lead, error)
	Create(ctx context.Context, req *domain.CreateLeadRequest) (*domain.Lead, error)
	Update(ctx context.Context, id string, req *domain.UpdateLeadRequest) (*domain.Lead, error)
	Delete(ctx context.Context, id string) error
}

// ActivityAPI is implemented by service.ActivityService.
type ActivityAPI interface {
	List(ctx context.Context, f domain.ActivityFilter) ([]domain.Activity, int64, error)
	GetByID(ctx context.Context, id string) (*domain.Activity, error)
	Create(ctx context.Context, req *domain.CreateActivityRequest) (*domain.Activity, error)
	Update(ctx context.Context, id string, req *domain.UpdateActivityRequest) (*domain.Activity, error)
	Complete(ctx context.Context, id string) (*domain.Activity, error)
	Delete(ctx context.Context, id string) error
}

// SettingsAPI is implemented by service.SettingsService.
type SettingsAPI interface {
	Get(ctx context.Context) (*domain.Settings, error)
	Create(ctx context.Context, in *domain.SettingsInput) (*domain.Settings, error)
	Update(ctx context.Context, in *domain.SettingsInput) (*domain.Settings, error)
}

// DashboardAPI is implemented by service.DashboardService.
type DashboardAPI interface {
	Stats(ctx context.Context) (*domain.DashboardStats, error)
}
