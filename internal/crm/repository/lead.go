package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/leadhub/leadhub-backend/internal/crm/domain"
	"github.com/leadhub/leadhub-backend/pkg/database"
)

const leadColumns = `id, tenant_id, name, email, phone, company, status, source, value, notes,
	assigned_to, created_by, created_at, updated_at`

// LeadRepository handles lead persistence
type LeadRepository struct {
	db *database.DB
}

// NewLeadRepository creates a new lead repository
func NewLeadRepository(db *database.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

// List returns a page of leads, newest first, and the total.
func (r *LeadRepository) List(ctx context.Context, f domain.LeadFilter) ([]domain.Lead, int64, error) {
	leads := []domain.Lead{}
	var total int64

	err := scoped(ctx, r.db, func(ctx context.Context, tenantID string) error {
		where := sq.Eq{"tenant_id": tenantID}
		if f.Status != "" {
			where["status"] = f.Status
		}

		if err := r.db.GetBuilt(ctx, &total, database.PSQL.
			Select("COUNT(*)").From("leads").Where(where)); err != nil {
			return err
		}
		return r.db.SelectBuilt(ctx, &leads, database.PSQL.
			Select(leadColumns).From("leads").Where(where).
			OrderBy("created_at DESC", "id").
			Limit(uint64(f.PerPage)).
			Offset(offset(f.Page, f.PerPage)))
	})
	if err != nil {
		return nil, 0, database.Translate(err, "lead")
	}
	return leads, total, nil
}

// GetByID returns a lead of the caller's tenant.
func (r *LeadRepository) GetByID(ctx context.Context, id string) (*domain.Lead, error) {
	var l domain.Lead
	err := scoped(ctx, r.db, func(ctx context.Context, tenantID string) error {
		return r.db.Conn(ctx).GetContext(ctx, &l,
			`SELECT `+leadColumns+` FROM leads WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	})
	if err != nil {
		return nil, database.Translate(err, "lead")
	}
	return &l, nil
}

// Exists reports whether id is a lead of the caller's tenant.
func (r *LeadRepository) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := scoped(ctx, r.db, func(ctx context.Context, tenantID string) error {
		return r.db.Conn(ctx).GetContext(ctx, &ok,
			`SELECT EXISTS (SELECT 1 FROM leads WHERE tenant_id = $1 AND id = $2)`, tenantID, id)
	})
	if err != nil {
		return false, database.Translate(err, "lead")
	}
	return ok, nil
}

// Create inserts l into the caller's tenant.
func (r *LeadRepository) Create(ctx context.Context, l *domain.Lead) (*domain.Lead, error) {
	var out domain.Lead
	err := scoped(ctx, r.db, func(ctx context.Context, tenantID string) error {
		return r.db.Conn(ctx).GetContext(ctx, &out, `
			INSERT INTO leads (tenant_id, name, email, phone, company, status, source, value, notes,
				assigned_to, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING `+leadColumns,
			tenantID, l.Name, l.Email, l.Phone, l.Company, l.Status, l.Source, l.Value, l.Notes,
			l.AssignedTo, l.CreatedBy,
		)
	})
	if err != nil {
		return nil, database.Translate(err, "lead")
	}
	return &out, nil
}

// Update applies a partial update and returns the row before and after.
// The previous row is read FOR UPDATE so status transitions are reported exactly once.
func (r *LeadRepository) Update(ctx context.Context, id string, req *domain.UpdateLeadRequest) (before, after *domain.Lead, err error) {
	changes := database.Changes{}.
		Set("name", req.Name).
		Set("email", req.Email).
		Set("phone", req.Phone).
		Set("company", req.Company).
		Set("status", req.Status).
		Set("source", req.Source).
		Set("value", req.Value).
		Set("notes", req.Notes).
		Set("assigned_to", req.AssignedTo)

	var old, updated domain.Lead
	err = scoped(ctx, r.db, func(ctx context.Context, tenantID string) error {
		if err := r.db.Conn(ctx).GetContext(ctx, &old,
			`SELECT `+leadColumns+` FROM leads WHERE tenant_id = $1 AND id = $2 FOR UPDATE`, tenantID, id); err != nil {
			return err
		}
		if changes.Empty() {
			updated = old
			return nil
		}
		return r.db.GetBuilt(ctx, &updated, database.PSQL.
			Update("leads").
			SetMap(changes).
			Where(sq.Eq{"tenant_id": tenantID, "id": id}).
			Suffix("RETURNING "+leadColumns))
	})
	if err != nil {
		return nil, nil, database.Translate(err, "lead")
	}
	return &old, &updated, nil
}

// Delete removes a lead and the activities attached to it.
func (r *LeadRepository) Delete(ctx context.Context, id string) error {
	return database.Translate(scoped(ctx, r.db, func(ctx context.Context, tenantID string) error {
		res, err := r.db.Conn(ctx).ExecContext(ctx,
			`DELETE FROM leads WHERE tenant_id = $1 AND id = $2`, tenantID, id)
		if err != nil {
			return err
		}
		if err := requireRow(res, "lead"); err != nil {
			return err
		}
		_, err = r.db.Conn(ctx).ExecContext(ctx,
			`DELETE FROM activities WHERE tenant_id = $1 AND related_type = 'lead' AND related_to = $2`, tenantID, id)
		return err
	}), "lead")
}

// StatusCounts returns the number and summed value of leads per status.
func (r *LeadRepository) StatusCounts(ctx context.Context) ([]domain.StatusCount, error) {
	counts := []domain.StatusCount{}
	err := scoped(ctx, r.db, func(ctx context.Context, tenantID string) error {
		return r.db.Conn(ctx).SelectContext(ctx, &counts, `
			SELECT status, COUNT(*) AS count, COALESCE(SUM(value), 0) AS value
			FROM leads
			WHERE tenant_id = $1
			GROUP BY status`, tenantID)
	})
	if err != nil {
		return nil, database.Translate(err, "lead")
	}
	return counts, nil
}
