package service

import (
	"context"
	"encoding/json"

	"github.com/leadhub/leadhub-backend/internal/account/domain"
	"github.com/leadhub/leadhub-backend/pkg/actor"
	"github.com/leadhub/leadhub-backend/pkg/errors"
	"github.com/leadhub/leadhub-backend/pkg/logger"
)

// AuditService writes and reads the audit trail.
type AuditService struct {
	repo   AuditStore
	logger *logger.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(repo AuditStore, log *logger.Logger) *AuditService {
	return &AuditService{repo: repo, logger: log}
}

// Record stores an entry attributed to the actor in ctx. Inside a
// transaction it becomes part of that transaction.
func (s *AuditService) Record(ctx context.Context, e domain.AuditEntry) error {
	log := &domain.AuditLog{
		TenantID:     e.TenantID,
		Action:       e.Action,
		ResourceType: e.ResourceType,
	}
	if e.ResourceID != "" {
		log.ResourceID = &e.ResourceID
	}
	if len(e.Details) > 0 {
		details, err := json.Marshal(e.Details)
		if err != nil {
			return errors.InternalWrap(err, "failed to encode audit details")
		}
		log.Details = details
	}

	if a := actor.FromContext(ctx); a != nil && !a.IsSystem() {
		id, name := a.ID, a.DisplayName()
		log.ActorID, log.ActorName = &id, &name
		if a.IPAddress != "" {
			log.IPAddress = &a.IPAddress
		}
		if a.UserAgent != "" {
			log.UserAgent = &a.UserAgent
		}
	}

	if err := s.repo.Create(ctx, log); err != nil {
		s.logger.Error().Err(err).Str("action", e.Action).Msg("failed to write audit log")
		return err
	}
	return nil
}

// List returns the caller's tenant audit trail.
func (s *AuditService) List(ctx context.Context, f domain.AuditFilter) ([]domain.AuditLog, int64, error) {
	a, err := caller(ctx)
	if err != nil {
		return nil, 0, err
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = 20
	}
	return s.repo.List(ctx, a.TenantID, f)
}
