package repository

import (
	"context"
	"time"

	"github.com/leadhub/leadhub-backend/internal/account/domain"
	"github.com/leadhub/leadhub-backend/pkg/database"
)

const invitationColumns = `id, tenant_id, email, role, status, token_hash, expires_at, invited_by,
	accepted_profile_id, accepted_at, revoked_at, revoked_by, created_at`

// InvitationRepository handles invitation persistence.
type InvitationRepository struct {
	db *database.DB
}

// NewInvitationRepository creates a new invitation repository
func NewInvitationRepository(db *database.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

// Create inserts a pending invitation. A second pending invitation for the
// same tenant and email violates invitations_pending_email_key.
func (r *InvitationRepository) Create(ctx context.Context, inv *domain.Invitation) (*domain.Invitation, error) {
	var out domain.Invitation
	err := r.db.Conn(ctx).GetContext(ctx, &out, `
		INSERT INTO invitations (tenant_id, email, role, status, token_hash, expires_at, invited_by)
		VALUES ($1, lower($2), $3, 'pending', $4, $5, $6)
		RETURNING `+invitationColumns,
		inv.TenantID, inv.Email, inv.Role, inv.TokenHash, inv.ExpiresAt, inv.InvitedBy,
	)
	if err != nil {
		return nil, database.Translate(err, "invitation")
	}
	return &out, nil
}

// GetByID returns an invitation of tenantID.
func (r *InvitationRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Invitation, error) {
	var inv domain.Invitation
	err := r.db.Conn(ctx).GetContext(ctx, &inv,
		`SELECT `+invitationColumns+` FROM invitations WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return nil, database.Translate(err, "invitation")
	}
	return &inv, nil
}

// GetByTokenHash looks up an invitation from its public link. forUpdate
// locks the row for the accepting transaction.
func (r *InvitationRepository) GetByTokenHash(ctx context.Context, tokenHash string, forUpdate bool) (*domain.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE token_hash = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var inv domain.Invitation
	if err := r.db.Conn(ctx).GetContext(ctx, &inv, query, tokenHash); err != nil {
		return nil, database.Translate(err, "invitation")
	}
	return &inv, nil
}

// FindPending returns the pending invitation for email, or NOT_FOUND.
func (r *InvitationRepository) FindPending(ctx context.Context, tenantID, email string) (*domain.Invitation, error) {
	var inv domain.Invitation
	err := r.db.Conn(ctx).GetContext(ctx, &inv, `
		SELECT `+invitationColumns+` FROM invitations
		WHERE tenant_id = $1 AND lower(email) = lower($2) AND status = 'pending'`,
		tenantID, email)
	if err != nil {
		return nil, database.Translate(err, "invitation")
	}
	return &inv, nil
}

// List returns invitations of tenantID, newest first, optionally by status.
func (r *InvitationRepository) List(ctx context.Context, tenantID string, status domain.InvitationStatus) ([]domain.Invitation, error) {
	q := database.PSQL.Select(invitationColumns).
		From("invitations").
		Where("tenant_id = ?", tenantID).
		OrderBy("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}

	out := []domain.Invitation{}
	if err := r.db.SelectBuilt(ctx, &out, q); err != nil {
		return nil, database.Translate(err, "invitation")
	}
	return out, nil
}

// MarkAccepted links the new profile.
func (r *InvitationRepository) MarkAccepted(ctx context.Context, id, profileID string, at time.Time) error {
	res, err := r.db.Conn(ctx).ExecContext(ctx, `
		UPDATE invitations SET status = 'accepted', accepted_profile_id = $1, accepted_at = $2
		WHERE id = $3 AND status = 'pending'`, profileID, at, id)
	if err != nil {
		return database.Translate(err, "invitation")
	}
	return requireRow(res, "invitation")
}

// Revoke cancels a pending invitation.
func (r *InvitationRepository) Revoke(ctx context.Context, tenantID, id, revokedBy string, at time.Time) (*domain.Invitation, error) {
	var inv domain.Invitation
	err := r.db.Conn(ctx).GetContext(ctx, &inv, `
		UPDATE invitations SET status = 'revoked', revoked_at = $1, revoked_by = $2
		WHERE tenant_id = $3 AND id = $4 AND status = 'pending'
		RETURNING `+invitationColumns, at, revokedBy, tenantID, id)
	if err != nil {
		return nil, database.Translate(err, "invitation")
	}
	return &inv, nil
}

// Renew replaces the token and expiry of a pending or expired invitation,
// putting it back to pending.
func (r *InvitationRepository) Renew(ctx context.Context, tenantID, id, tokenHash string, expiresAt time.Time) (*domain.Invitation, error) {
	var inv domain.Invitation
	err := r.db.Conn(ctx).GetContext(ctx, &inv, `
		UPDATE invitations SET token_hash = $1, expires_at = $2, status = 'pending'
		WHERE tenant_id = $3 AND id = $4 AND status IN ('pending', 'expired')
		RETURNING `+invitationColumns, tokenHash, expiresAt, tenantID, id)
	if err != nil {
		return nil, database.Translate(err, "invitation")
	}
	return &inv, nil
}

// ExpireStale marks overdue pending invitations expired. An empty tenantID
// covers all tenants.
func (r *InvitationRepository) ExpireStale(ctx context.Context, tenantID string, now time.Time) (int64, error) {
	q := database.PSQL.Update("invitations").
		Set("status", domain.InvitationExpired).
		Where("status = 'pending' AND expires_at <= ?", now)
	if tenantID != "" {
		q = q.Where("tenant_id = ?", tenantID)
	}

	res, err := r.db.ExecBuilt(ctx, q)
	if err != nil {
		return 0, database.Translate(err, "invitation")
	}
	return res.RowsAffected()
}
