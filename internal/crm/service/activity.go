package service

import (
	"context"

	"github.com/benbjohnson/clock"

	"github.com/leadhub/leadhub-backend/internal/crm/domain"
	"github.com/leadhub/leadhub-backend/pkg/errors"
	"github.com/leadhub/leadhub-backend/pkg/httputil"
	"github.com/leadhub/leadhub-backend/pkg/logger"
	"github.com/leadhub/leadhub-backend/pkg/metrics"
	"github.com/leadhub/leadhub-backend/pkg/permissions"
)

// ActivityService manages activities attached to leads and contacts.
type ActivityService struct {
	activities ActivityStore
	leads      LeadStore
	contacts   ContactStore
	events     Events
	metrics    *metrics.Metrics
	clock      clock.Clock
	logger     *logger.Logger
}

// NewActivityService creates a new activity service
func NewActivityService(activities ActivityStore, leads LeadStore, contacts ContactStore, ev Events, m *metrics.Metrics, clk clock.Clock, log *logger.Logger) *ActivityService {
	return &ActivityService{
		activities: activities,
		leads:      leads,
		contacts:   contacts,
		events:     ev,
		metrics:    m,
		clock:      clk,
		logger:     log,
	}
}

// List returns the activities of one record, or of the whole tenant when
// the filter is empty. related_to and related_type go together.
func (s *ActivityService) List(ctx context.Context, f domain.ActivityFilter) ([]domain.Activity, int64, error) {
	if _, err := authorize(ctx, permissions.ActivitiesRead); err != nil {
		return nil, 0, err
	}
	if f.RelatedTo != "" || f.RelatedType != "" {
		if err := httputil.ValidateVar(ctx, "related_to", f.RelatedTo, "required,uuid"); err != nil {
			return nil, 0, err
		}
		if err := httputil.ValidateVar(ctx, "related_type", f.RelatedType, "required,oneof=lead contact"); err != nil {
			return nil, 0, err
		}
	}
	f.Page, f.PerPage = page(f.Page, f.PerPage)
	return s.activities.List(ctx, f)
}

func (s *ActivityService) GetByID(ctx context.Context, id string) (*domain.Activity, error) {
	if _, err := authorize(ctx, permissions.ActivitiesRead); err != nil {
		return nil, err
	}
	return s.activities.GetByID(ctx, id)
}

// Create inserts an activity for a lead or contact of the caller's tenant.
func (s *ActivityService) Create(ctx context.Context, req *domain.CreateActivityRequest) (*domain.Activity, error) {
	a, err := authorize(ctx, permissions.ActivitiesWrite)
	if err != nil {
		return nil, err
	}
	if err := httputil.Validate(ctx, req); err != nil {
		return nil, err
	}
	if err := s.requireRelated(ctx, req.RelatedType, req.RelatedTo); err != nil {
		return nil, err
	}

	created, err := s.activities.Create(ctx, &domain.Activity{
		Type:        req.Type,
		Description: req.Description,
		RelatedTo:   req.RelatedTo,
		RelatedType: req.RelatedType,
		ScheduledAt: req.ScheduledAt,
		CreatedBy:   createdBy(a),
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveMutation("activity", "create")
	return created, nil
}

func (s *ActivityService) requireRelated(ctx context.Context, relatedType, id string) error {
	var (
		ok  bool
		err error
	)
	switch relatedType {
	case domain.RelatedLead:
		ok, err = s.leads.Exists(ctx, id)
	case domain.RelatedContact:
		ok, err = s.contacts.Exists(ctx, id)
	}
	if err != nil {
		return err
	}
	if !ok {
		return errors.NotFound(relatedType).
			WithMessageKey("errors.related_not_found", map[string]string{"type": relatedType})
	}
	return nil
}

func (s *ActivityService) Update(ctx context.Context, id string, req *domain.UpdateActivityRequest) (*domain.Activity, error) {
	if _, err := authorize(ctx, permissions.ActivitiesWrite); err != nil {
		return nil, err
	}
	if err := httputil.Validate(ctx, req); err != nil {
		return nil, err
	}
	updated, err := s.activities.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveMutation("activity", "update")
	return updated, nil
}

// Complete marks the activity done. Completing again is a no-op.
func (s *ActivityService) Complete(ctx context.Context, id string) (*domain.Activity, error) {
	if _, err := authorize(ctx, permissions.ActivitiesWrite); err != nil {
		return nil, err
	}
	done, err := s.activities.Complete(ctx, id, s.clock.Now())
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveMutation("activity", "complete")
	s.events.ActivityCompleted(ctx, done)
	return done, nil
}

func (s *ActivityService) Delete(ctx context.Context, id string) error {
	if _, err := authorize(ctx, permissions.ActivitiesWrite); err != nil {
		return err
	}
	if err := s.activities.Delete(ctx, id); err != nil {
		return err
	}
	s.metrics.ObserveMutation("activity", "delete")
	return nil
}
