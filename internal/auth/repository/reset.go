package repository

import (
	"context"
	"time"

	"github.com/leadhub/leadhub-backend/pkg/database"
)

// PasswordReset is a one-time password reset grant.
type PasswordReset struct {
	ID         string     `db:"id"`
	IdentityID string     `db:"identity_id"`
	TokenHash  string     `db:"token_hash"`
	ExpiresAt  time.Time  `db:"expires_at"`
	UsedAt     *time.Time `db:"used_at"`
	CreatedAt  time.Time  `db:"created_at"`
}

// Usable reports whether the grant can still be redeemed at now.
func (p *PasswordReset) Usable(now time.Time) bool {
	return p.UsedAt == nil && now.Before(p.ExpiresAt)
}

// PasswordResetRepository handles password reset grants
type PasswordResetRepository struct {
	db *database.DB
}

// NewPasswordResetRepository creates a new password reset repository
func NewPasswordResetRepository(db *database.DB) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

// Create stores a grant for identityID
func (r *PasswordResetRepository) Create(ctx context.Context, identityID, tokenHash string, expiresAt time.Time) error {
	_, err := r.db.Conn(ctx).ExecContext(ctx,
		`INSERT INTO password_resets (identity_id, token_hash, expires_at) VALUES ($1, $2, $3)`,
		identityID, tokenHash, expiresAt)
	return database.Translate(err, "password reset")
}

// GetByTokenHash loads a grant and locks it for the surrounding transaction
func (r *PasswordResetRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*PasswordReset, error) {
	var p PasswordReset
	err := r.db.Conn(ctx).GetContext(ctx, &p, `
		SELECT id, identity_id, token_hash, expires_at, used_at, created_at
		FROM password_resets WHERE token_hash = $1 FOR UPDATE`, tokenHash)
	if err != nil {
		return nil, database.Translate(err, "password reset")
	}
	return &p, nil
}

// MarkUsed consumes a grant and voids the identity's other open grants
func (r *PasswordResetRepository) MarkUsed(ctx context.Context, id, identityID string, at time.Time) error {
	_, err := r.db.Conn(ctx).ExecContext(ctx,
		`UPDATE password_resets SET used_at = $1 WHERE identity_id = $2 AND (id = $3 OR used_at IS NULL)`,
		at, identityID, id)
	return database.Translate(err, "password reset")
}

// DeleteExpired removes grants that can no longer be used
func (r *PasswordResetRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.Conn(ctx).ExecContext(ctx,
		`DELETE FROM password_resets WHERE expires_at < $1 OR used_at IS NOT NULL`, now)
	if err != nil {
		return 0, database.Translate(err, "password reset")
	}
	return res.RowsAffected()
}
