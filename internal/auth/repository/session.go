package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/leadhub/leadhub-backend/pkg/database"
)

// Session represents a signed-in device. Only the hash of its refresh token is stored.
type Session struct {
	ID               string     `db:"id"`
	IdentityID       string     `db:"identity_id"`
	RefreshTokenHash string     `db:"refresh_token_hash"`
	UserAgent        *string    `db:"user_agent"`
	IPAddress        *string    `db:"ip_address"`
	ExpiresAt        time.Time  `db:"expires_at"`
	CreatedAt        time.Time  `db:"created_at"`
	LastUsedAt       *time.Time `db:"last_used_at"`
	RevokedAt        *time.Time `db:"revoked_at"`
}

// Active reports whether the session may still be refreshed at now.
func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

const sessionColumns = `id, identity_id, refresh_token_hash, user_agent, ip_address, expires_at,
	created_at, last_used_at, revoked_at`

// SessionRepository handles session persistence
type SessionRepository struct {
	db *database.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// NewSessionID returns the id for a session about to be created; the refresh
// token embeds it, so it is chosen before the row exists.
func NewSessionID() string {
	return uuid.New().String()
}

// Create inserts a session
func (r *SessionRepository) Create(ctx context.Context, s *Session) error {
	_, err := r.db.Conn(ctx).ExecContext(ctx, `
		INSERT INTO sessions (id, identity_id, refresh_token_hash, user_agent, ip_address, expires_at, last_used_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.IdentityID, s.RefreshTokenHash, s.UserAgent, s.IPAddress, s.ExpiresAt, s.LastUsedAt,
	)
	return database.Translate(err, "session")
}

// GetByRefreshHash gets a session by the hash of its current refresh token
func (r *SessionRepository) GetByRefreshHash(ctx context.Context, hash string) (*Session, error) {
	var s Session
	err := r.db.Conn(ctx).GetContext(ctx, &s,
		`SELECT `+sessionColumns+` FROM sessions WHERE refresh_token_hash = $1`, hash)
	if err != nil {
		return nil, database.Translate(err, "session")
	}
	return &s, nil
}

// Rotate swaps the refresh token hash (token rotation) and extends the session
func (r *SessionRepository) Rotate(ctx context.Context, id, newHash string, expiresAt, at time.Time) error {
	res, err := r.db.Conn(ctx).ExecContext(ctx, `
		UPDATE sessions SET refresh_token_hash = $1, expires_at = $2, last_used_at = $3
		WHERE id = $4 AND revoked_at IS NULL`, newHash, expiresAt, at, id)
	if err != nil {
		return database.Translate(err, "session")
	}
	return requireRow(res, "session")
}

// RevokeByRefreshHash revokes the session holding hash. Unknown or already
// revoked sessions are not an error.
func (r *SessionRepository) RevokeByRefreshHash(ctx context.Context, hash string, at time.Time) error {
	_, err := r.db.Conn(ctx).ExecContext(ctx,
		`UPDATE sessions SET revoked_at = $1 WHERE refresh_token_hash = $2 AND revoked_at IS NULL`, at, hash)
	return database.Translate(err, "session")
}

// RevokeAllForIdentity revokes every session of an identity except keepID (may be empty)
func (r *SessionRepository) RevokeAllForIdentity(ctx context.Context, identityID, keepID string, at time.Time) (int64, error) {
	res, err := r.db.Conn(ctx).ExecContext(ctx, `
		UPDATE sessions SET revoked_at = $1
		WHERE identity_id = $2 AND revoked_at IS NULL AND id::text <> $3`, at, identityID, keepID)
	if err != nil {
		return 0, database.Translate(err, "session")
	}
	return res.RowsAffected()
}

// CleanExpired removes sessions that expired or were revoked before cutoff
func (r *SessionRepository) CleanExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.Conn(ctx).ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at < $1 OR revoked_at < $1`, cutoff)
	if err != nil {
		return 0, database.Translate(err, "session")
	}
	return res.RowsAffected()
}
