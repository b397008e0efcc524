// Package repository persists onboarding drafts.
package repository

import (
	"context"

	"github.com/leadhub/leadhub-backend/internal/onboarding/domain"
	"github.com/leadhub/leadhub-backend/pkg/database"
	"github.com/leadhub/leadhub-backend/pkg/errors"
)

const draftColumns = `profile_id, tenant_id, current_step, data, created_at, updated_at`

// DraftRepository handles onboarding draft persistence. Drafts are keyed by
// profile; the tenant id is kept so drafts are removed with their tenant.
type DraftRepository struct {
	db *database.DB
}

// NewDraftRepository creates a new draft repository
func NewDraftRepository(db *database.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

// Get returns the draft of profileID.
func (r *DraftRepository) Get(ctx context.Context, profileID string) (*domain.Draft, error) {
	var d domain.Draft
	err := r.db.Conn(ctx).GetContext(ctx, &d,
		`SELECT `+draftColumns+` FROM onboarding_drafts WHERE profile_id = $1`, profileID)
	if err != nil {
		return nil, database.Translate(err, "onboarding draft")
	}
	return &d, nil
}

// Save inserts or replaces the draft.
func (r *DraftRepository) Save(ctx context.Context, d *domain.Draft) (*domain.Draft, error) {
	var out domain.Draft
	err := r.db.Conn(ctx).GetContext(ctx, &out, `
		INSERT INTO onboarding_drafts (profile_id, tenant_id, current_step, data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (profile_id) DO UPDATE
			SET current_step = EXCLUDED.current_step, data = EXCLUDED.data
		RETURNING `+draftColumns,
		d.ProfileID, d.TenantID, d.CurrentStep, d.Data,
	)
	if err != nil {
		return nil, database.Translate(err, "onboarding draft")
	}
	return &out, nil
}

// Delete removes the draft once onboarding is complete.
func (r *DraftRepository) Delete(ctx context.Context, profileID string) error {
	res, err := r.db.Conn(ctx).ExecContext(ctx, `DELETE FROM onboarding_drafts WHERE profile_id = $1`, profileID)
	if err != nil {
		return database.Translate(err, "onboarding draft")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.InternalWrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return errors.NotFound("onboarding draft")
	}
	return nil
}
