package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/leadhub/leadhub-backend/pkg/database"
	"github.com/leadhub/leadhub-backend/pkg/errors"
)

// Identity is a login credential. Its id doubles as the profile id.
type Identity struct {
	ID           string     `db:"id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	LastSignInAt *time.Time `db:"last_sign_in_at"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

const identityColumns = `id, email, password_hash, last_sign_in_at, created_at, updated_at`

// IdentityRepository handles identity persistence
type IdentityRepository struct {
	db *database.DB
}

// NewIdentityRepository creates a new identity repository
func NewIdentityRepository(db *database.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// Create inserts an identity. The email is stored lower-cased; a duplicate
// yields CONFLICT.
func (r *IdentityRepository) Create(ctx context.Context, email, passwordHash string) (*Identity, error) {
	var out Identity
	err := r.db.Conn(ctx).GetContext(ctx, &out, `
		INSERT INTO identities (email, password_hash)
		VALUES (lower($1), $2)
		RETURNING `+identityColumns, email, passwordHash)
	if err != nil {
		return nil, database.Translate(err, "identity")
	}
	return &out, nil
}

// GetByEmail looks an identity up case-insensitively.
func (r *IdentityRepository) GetByEmail(ctx context.Context, email string) (*Identity, error) {
	var out Identity
	err := r.db.Conn(ctx).GetContext(ctx, &out,
		`SELECT `+identityColumns+` FROM identities WHERE lower(email) = lower($1)`, email)
	if err != nil {
		return nil, database.Translate(err, "identity")
	}
	return &out, nil
}

// GetByID gets an identity by id
func (r *IdentityRepository) GetByID(ctx context.Context, id string) (*Identity, error) {
	var out Identity
	err := r.db.Conn(ctx).GetContext(ctx, &out,
		`SELECT `+identityColumns+` FROM identities WHERE id = $1`, id)
	if err != nil {
		return nil, database.Translate(err, "identity")
	}
	return &out, nil
}

// UpdatePassword replaces the password hash
func (r *IdentityRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.db.Conn(ctx).ExecContext(ctx,
		`UPDATE identities SET password_hash = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		return database.Translate(err, "identity")
	}
	return requireRow(res, "identity")
}

// TouchSignIn records a successful sign-in
func (r *IdentityRepository) TouchSignIn(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.Conn(ctx).ExecContext(ctx,
		`UPDATE identities SET last_sign_in_at = $1 WHERE id = $2`, at, id)
	return database.Translate(err, "identity")
}

func requireRow(res sql.Result, resource string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.InternalWrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return errors.NotFound(resource)
	}
	return nil
}
