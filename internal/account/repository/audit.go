package repository

import (
	"context"

	"github.com/leadhub/leadhub-backend/internal/account/domain"
	"github.com/leadhub/leadhub-backend/pkg/database"
)

const auditColumns = `id, tenant_id, actor_id, actor_name, action, resource_type, resource_id,
	COALESCE(details, '{}'::jsonb) AS details, ip_address, user_agent, created_at`

// AuditRepository stores the audit trail. audit_logs is under RLS, so every
// call runs inside WithTenantRLS.
type AuditRepository struct {
	db *database.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *database.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create appends an entry.
func (r *AuditRepository) Create(ctx context.Context, e *domain.AuditLog) error {
	return r.db.WithTenantRLS(ctx, e.TenantID, func(ctx context.Context) error {
		_, err := r.db.Conn(ctx).ExecContext(ctx, `
			INSERT INTO audit_logs (tenant_id, actor_id, actor_name, action, resource_type, resource_id,
				details, ip_address, user_agent)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			e.TenantID, e.ActorID, e.ActorName, e.Action, e.ResourceType, e.ResourceID,
			[]byte(e.Details), e.IPAddress, e.UserAgent,
		)
		return database.Translate(err, "audit log")
	})
}

// List returns a page of entries, newest first, and the total count.
func (r *AuditRepository) List(ctx context.Context, tenantID string, f domain.AuditFilter) ([]domain.AuditLog, int64, error) {
	where := database.PSQL.Select().Where("tenant_id = ?", tenantID)
	if f.Action != "" {
		where = where.Where("action = ?", f.Action)
	}
	if f.ResourceType != "" {
		where = where.Where("resource_type = ?", f.ResourceType)
	}
	if f.ResourceID != "" {
		where = where.Where("resource_id = ?", f.ResourceID)
	}

	logs := []domain.AuditLog{}
	var total int64
	err := r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		if err := r.db.GetBuilt(ctx, &total, where.Columns("COUNT(*)").From("audit_logs")); err != nil {
			return err
		}
		return r.db.SelectBuilt(ctx, &logs, where.Columns(auditColumns).From("audit_logs").
			OrderBy("created_at DESC").
			Limit(uint64(f.PerPage)).
			Offset(uint64((f.Page-1)*f.PerPage)))
	})
	if err != nil {
		return nil, 0, database.Translate(err, "audit log")
	}
	return logs, total, nil
}
