package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/leadhub/leadhub-backend/internal/crm/domain"
	"github.com/leadhub/leadhub-backend/pkg/database"
)

const activityColumns = `id, tenant_id, type, description, related_to, related_type, scheduled_at,
	completed_at, created_by, created_at, updated_at`

// ActivityRepository handles activity persistence
type ActivityRepository struct {
	db *database.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *database.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// List returns a page of activities, newest first.
func (r *ActivityRepository) List(ctx context.Context, f domain.ActivityFilter) ([]domain.Activity, int64, error) {
	activities := []domain.Activity{}
	var total int64

	err := scoped(ctx, r.db, func(ctx context.Context, tenantID string) error {
		where := sq.Eq{"tenant_id": tenantID}
		if f.RelatedTo != "" {
			where["related_to"] = f.RelatedTo
		}
		if f.RelatedType != "" {
			where["related_type"] = f.RelatedType
		}

		if err := r.db.GetBuilt(ctx, &total, database.PSQL.
			Select("COUNT(*)").From("activities").Where(where)); err != nil {
			return err
		}
		return r.db.SelectBuilt(ctx, &activities, database.PSQL.
			Select(activityColumns).From("activities").Where(where).
			OrderBy("created_at DESC", "id").
			Limit(uint64(f.PerPage)).
			Offset(offset(f.Page, f.PerPage)))
	})
	if err != nil {
		return nil, 0, database.Translate(err, "activity")
	}
	return activities, total, nil
}

// GetByID returns an activity of the caller's tenant.
func (r *ActivityRepository) GetByID(ctx context.Context, id string) (*domain.Activity, error) {
	var a domain.Activity
	err := scoped(ctx, r.db, func(ctx context.Context, tenantID string) error {
		return r.db.Conn(ctx).GetContext(ctx, &a,
			`SELECT `+activityColumns+` FROM activities WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	})
	if err != nil {
		return nil, database.Translate(err, "activity")
	}
	return &a, nil
}

// Create inserts a into the caller's tenant.
func (r *ActivityRepository) Create(ctx context.Context, a *domain.Activity) (*domain.Activity, error) {
	var out domain.Activity
	err := scoped(ctx, r.db, func(ctx context.Context, tenantID string) error {
		return r.db.Conn(ctx).GetContext(ctx, &out, `
			INSERT INTO activities (tenant_id, type, description, related_to, related_type, scheduled_at, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING `+activityColumns,
			tenantID, a.Type, a.Description, a.RelatedTo, a.RelatedType, a.ScheduledAt, a.CreatedBy,
		)
	})
	if err != nil {
		return nil, database.Translate(err, "activity")
	}
	return &out, nil
}

// Update applies a partial update.
func (r *ActivityRepository) Update(ctx context.Context, id string, req *domain.UpdateActivityRequest) (*domain.Activity, error) {
	changes := database.Changes{}.
		Set("type", req.Type).
		Set("description", req.Description).
		Set("scheduled_at", req.ScheduledAt)
	if changes.Empty() {
		return r.GetByID(ctx, id)
	}

	var a domain.Activity
	err := scoped(ctx, r.db, func(ctx context.Context, tenantID string) error {
		return r.db.GetBuilt(ctx, &a, database.PSQL.
			Update("activities").
			SetMap(changes).
			Where(sq.Eq{"tenant_id": tenantID, "id": id}).
			Suffix("RETURNING "+activityColumns))
	})
	if err != nil {
		return nil, database.Translate(err, "activity")
	}
	return &a, nil
}

// Complete sets completed_at. Completing twice keeps the first timestamp.
func (r *ActivityRepository) Complete(ctx context.Context, id string, at time.Time) (*domain.Activity, error) {
	var a domain.Activity
	err := scoped(ctx, r.db, func(ctx context.Context, tenantID string) error {
		return r.db.Conn(ctx).GetContext(ctx, &a, `
			UPDATE activities SET completed_at = COALESCE(completed_at, $3)
			WHERE tenant_id = $1 AND id = $2
			RETURNING `+activityColumns, tenantID, id, at)
	})
	if err != nil {
		return nil, database.Translate(err, "activity")
	}
	return &a, nil
}

// Delete removes an activity.
func (r *ActivityRepository) Delete(ctx context.Context, id string) error {
	return database.Translate(scoped(ctx, r.db, func(ctx context.Context, tenantID string) error {
		res, err := r.db.Conn(ctx).ExecContext(ctx,
			`DELETE FROM activities WHERE tenant_id = $1 AND id = $2`, tenantID, id)
		if err != nil {
			return err
		}
		return requireRow(res, "activity")
	}), "activity")
}

// OpenCounts returns the number of uncompleted activities, and how many of
// those are scheduled at or before now.
func (r *ActivityRepository) OpenCounts(ctx context.Context, now time.Time) (open, due int64, err error) {
	var row struct {
		Open int64 `db:"open"`
		Due  int64 `db:"due"`
	}
	err = scoped(ctx, r.db, func(ctx context.Context, tenantID string) error {
		return r.db.Conn(ctx).GetContext(ctx, &row, `
			SELECT COUNT(*) AS open,
				COUNT(*) FILTER (WHERE scheduled_at <= $2) AS due
			FROM activities
			WHERE tenant_id = $1 AND completed_at IS NULL`, tenantID, now)
	})
	if err != nil {
		return 0, 0, database.Translate(err, "activity")
	}
	return row.Open, row.Due, nil
}
