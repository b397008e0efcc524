package service

import (
	"context"

	"github.com/leadhub/leadhub-backend/internal/crm/domain"
	"github.com/leadhub/leadhub-backend/pkg/httputil"
	"github.com/leadhub/leadhub-backend/pkg/logger"
	"github.com/leadhub/leadhub-backend/pkg/metrics"
	"github.com/leadhub/leadhub-backend/pkg/permissions"
)

// ContactService manages contacts.
type ContactService struct {
	contacts ContactStore
	events   Events
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

// NewContactService creates a new contact service
func NewContactService(contacts ContactStore, ev Events, m *metrics.Metrics, log *logger.Logger) *ContactService {
	return &ContactService{contacts: contacts, events: ev, metrics: m, logger: log}
}

func (s *ContactService) List(ctx context.Context, f domain.ContactFilter) ([]domain.Contact, int64, error) {
	if _, err := authorize(ctx, permissions.ContactsRead); err != nil {
		return nil, 0, err
	}
	if f.Status != "" {
		if err := httputil.ValidateVar(ctx, "status", f.Status, "oneof=lead customer partner vendor"); err != nil {
			return nil, 0, err
		}
	}
	f.Page, f.PerPage = page(f.Page, f.PerPage)
	return s.contacts.List(ctx, f)
}

func (s *ContactService) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	if _, err := authorize(ctx, permissions.ContactsRead); err != nil {
		return nil, err
	}
	return s.contacts.GetByID(ctx, id)
}

func (s *ContactService) Create(ctx context.Context, req *domain.CreateContactRequest) (*domain.Contact, error) {
	a, err := authorize(ctx, permissions.ContactsWrite)
	if err != nil {
		return nil, err
	}
	if err := httputil.Validate(ctx, req); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = domain.ContactLead
	}
	c, err := s.contacts.Create(ctx, &domain.Contact{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Company:   req.Company,
		JobTitle:  req.JobTitle,
		Status:    status,
		Notes:     req.Notes,
		CreatedBy: createdBy(a),
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveMutation("contact", "create")
	s.events.ContactCreated(ctx, c)
	return c, nil
}

func (s *ContactService) Update(ctx context.Context, id string, req *domain.UpdateContactRequest) (*domain.Contact, error) {
	if _, err := authorize(ctx, permissions.ContactsWrite); err != nil {
		return nil, err
	}
	if err := httputil.Validate(ctx, req); err != nil {
		return nil, err
	}
	c, err := s.contacts.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveMutation("contact", "update")
	return c, nil
}

// Delete removes the contact together with its activities.
func (s *ContactService) Delete(ctx context.Context, id string) error {
	a, err := authorize(ctx, permissions.ContactsWrite)
	if err != nil {
		return err
	}
	if err := s.contacts.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("contact_id", id).Str("tenant_id", a.TenantID).Msg("contact deleted")
	s.metrics.ObserveMutation("contact", "delete")
	s.events.ContactDeleted(ctx, a.TenantID, id)
	return nil
}
