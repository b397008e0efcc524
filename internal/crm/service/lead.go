package service

import (
	"context"

	"github.com/leadhub/leadhub-backend/internal/crm/domain"
	"github.com/leadhub/leadhub-backend/pkg/errors"
	"github.com/leadhub/leadhub-backend/pkg/httputil"
	"github.com/leadhub/leadhub-backend/pkg/i18n"
	"github.com/leadhub/leadhub-backend/pkg/logger"
	"github.com/leadhub/leadhub-backend/pkg/metrics"
	"github.com/leadhub/leadhub-backend/pkg/permissions"
)

// LeadService manages the lead pipeline.
type LeadService struct {
	leads   LeadStore
	members MemberChecker
	events  Events
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewLeadService creates a new lead service
func NewLeadService(leads LeadStore, members MemberChecker, ev Events, m *metrics.Metrics, log *logger.Logger) *LeadService {
	return &LeadService{leads: leads, members: members, events: ev, metrics: m, logger: log}
}

// checkAssignee rejects assignees outside the caller's tenant.
func (s *LeadService) checkAssignee(ctx context.Context, tenantID string, profileID *string) error {
	if profileID == nil || *profileID == "" {
		return nil
	}
	ok, err := s.members.IsMember(ctx, tenantID, *profileID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Validation(map[string]string{
			"assigned_to": i18n.TFromContext(ctx, "errors.assignee_not_member"),
		})
	}
	return nil
}

func (s *LeadService) List(ctx context.Context, f domain.LeadFilter) ([]domain.Lead, int64, error) {
	if _, err := authorize(ctx, permissions.LeadsRead); err != nil {
		return nil, 0, err
	}
	if f.Status != "" {
		if err := httputil.ValidateVar(ctx, "status", f.Status, "oneof=new contacted qualified lost"); err != nil {
			return nil, 0, err
		}
	}
	f.Page, f.PerPage = page(f.Page, f.PerPage)
	return s.leads.List(ctx, f)
}

func (s *LeadService) GetByID(ctx context.Context, id string) (*domain.Lead, error) {
	if _, err := authorize(ctx, permissions.LeadsRead); err != nil {
		return nil, err
	}
	return s.leads.GetByID(ctx, id)
}

// Create inserts a lead. A missing status means new.
func (s *LeadService) Create(ctx context.Context, req *domain.CreateLeadRequest) (*domain.Lead, error) {
	a, err := authorize(ctx, permissions.LeadsWrite)
	if err != nil {
		return nil, err
	}
	if err := httputil.Validate(ctx, req); err != nil {
		return nil, err
	}
	if err := s.checkAssignee(ctx, a.TenantID, req.AssignedTo); err != nil {
		return nil, err
	}

	l := &domain.Lead{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Company:    req.Company,
		Status:     domain.LeadNew,
		Source:     req.Source,
		Notes:      req.Notes,
		AssignedTo: req.AssignedTo,
		CreatedBy:  createdBy(a),
	}
	if req.Status != "" {
		l.Status = domain.LeadStatus(req.Status)
	}
	if req.Value != nil {
		l.Value = *req.Value
	}

	created, err := s.leads.Create(ctx, l)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveMutation("lead", "create")
	s.events.LeadCreated(ctx, created)
	return created, nil
}

// Update applies a partial update and reports status transitions.
func (s *LeadService) Update(ctx context.Context, id string, req *domain.UpdateLeadRequest) (*domain.Lead, error) {
	a, err := authorize(ctx, permissions.LeadsWrite)
	if err != nil {
		return nil, err
	}
	if err := httputil.Validate(ctx, req); err != nil {
		return nil, err
	}
	if err := s.checkAssignee(ctx, a.TenantID, req.AssignedTo); err != nil {
		return nil, err
	}

	before, after, err := s.leads.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveMutation("lead", "update")
	if before.Status != after.Status {
		s.logger.Info().
			Str("lead_id", id).
			Str("from", string(before.Status)).
			Str("to", string(after.Status)).
			Msg("lead status changed")
		s.events.LeadStatusChanged(ctx, before, after)
	}
	return after, nil
}

// Delete removes the lead together with its activities.
func (s *LeadService) Delete(ctx context.Context, id string) error {
	a, err := authorize(ctx, permissions.LeadsWrite)
	if err != nil {
		return err
	}
	if err := s.leads.Delete(ctx, id); err != nil {
		return err
	}
	s.metrics.ObserveMutation("lead", "delete")
	s.events.LeadDeleted(ctx, a.TenantID, id)
	return nil
}
