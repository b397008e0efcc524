package repository

import (
	"context"
	"time"

	"github.com/leadhub/leadhub-backend/internal/account/domain"
	"github.com/leadhub/leadhub-backend/pkg/database"
)

const profileColumns = `id, tenant_id, email, first_name, last_name, role, job_title, phone, bio,
	avatar_url, avatar_key, onboarding_complete, last_login, created_at, updated_at`

// ProfileRepository handles profile persistence. Profiles are not under RLS;
// tenant scoping is explicit in every query that takes a tenant id.
type ProfileRepository struct {
	db *database.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *database.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByID returns the profile of an identity regardless of tenant.
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	var p domain.Profile
	err := r.db.Conn(ctx).GetContext(ctx, &p, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	if err != nil {
		return nil, database.Translate(err, "profile")
	}
	return &p, nil
}

// GetInTenant returns the profile only if it belongs to tenantID.
func (r *ProfileRepository) GetInTenant(ctx context.Context, tenantID, id string) (*domain.Profile, error) {
	var p domain.Profile
	err := r.db.Conn(ctx).GetContext(ctx, &p,
		`SELECT `+profileColumns+` FROM profiles WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return nil, database.Translate(err, "profile")
	}
	return &p, nil
}

// ListByTenant returns every member of a tenant ordered by first name.
func (r *ProfileRepository) ListByTenant(ctx context.Context, tenantID string) ([]domain.Profile, error) {
	profiles := []domain.Profile{}
	err := r.db.Conn(ctx).SelectContext(ctx, &profiles,
		`SELECT `+profileColumns+` FROM profiles WHERE tenant_id = $1 ORDER BY first_name, last_name, created_at`,
		tenantID)
	if err != nil {
		return nil, database.Translate(err, "profile")
	}
	return profiles, nil
}

// FindByEmail returns the profile holding email in any tenant.
func (r *ProfileRepository) FindByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	var p domain.Profile
	err := r.db.Conn(ctx).GetContext(ctx, &p,
		`SELECT `+profileColumns+` FROM profiles WHERE lower(email) = lower($1) LIMIT 1`, email)
	if err != nil {
		return nil, database.Translate(err, "profile")
	}
	return &p, nil
}

// IsMember reports whether profile id still belongs to tenantID.
func (r *ProfileRepository) IsMember(ctx context.Context, tenantID, id string) (bool, error) {
	var exists bool
	err := r.db.Conn(ctx).GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM profiles WHERE tenant_id = $1 AND id = $2)`, tenantID, id)
	if err != nil {
		return false, database.Translate(err, "profile")
	}
	return exists, nil
}

// Create inserts a profile for an existing identity.
func (r *ProfileRepository) Create(ctx context.Context, p *domain.Profile) (*domain.Profile, error) {
	var out domain.Profile
	err := r.db.Conn(ctx).GetContext(ctx, &out, `
		INSERT INTO profiles (id, tenant_id, email, first_name, last_name, role, onboarding_complete)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+profileColumns,
		p.ID, p.TenantID, p.Email, p.FirstName, p.LastName, p.Role, p.OnboardingComplete,
	)
	if err != nil {
		return nil, database.Translate(err, "profile")
	}
	return &out, nil
}

// Update applies a partial update of personal fields.
func (r *ProfileRepository) Update(ctx context.Context, tenantID, id string, req *domain.UpdateProfileRequest) (*domain.Profile, error) {
	changes := database.Changes{}.
		Set("first_name", req.FirstName).
		Set("last_name", req.LastName).
		Set("job_title", req.JobTitle).
		Set("phone", req.Phone).
		Set("bio", req.Bio).
		Set("avatar_url", req.AvatarURL)
	return r.apply(ctx, tenantID, id, changes)
}

// CompleteOnboarding stores the onboarding user step and flips the flag.
func (r *ProfileRepository) CompleteOnboarding(ctx context.Context, tenantID, id string, req *domain.UpdateProfileRequest) (*domain.Profile, error) {
	changes := database.Changes{}.
		Set("first_name", req.FirstName).
		Set("last_name", req.LastName).
		Set("job_title", req.JobTitle).
		Set("phone", req.Phone).
		Set("avatar_url", req.AvatarURL).
		Set("onboarding_complete", true)
	return r.apply(ctx, tenantID, id, changes)
}

// UpdateRole sets role; the caller validates it.
func (r *ProfileRepository) UpdateRole(ctx context.Context, tenantID, id, role string) (*domain.Profile, error) {
	return r.apply(ctx, tenantID, id, database.Changes{"role": role})
}

// SetAvatar stores both the public url and the object key; nil clears them.
func (r *ProfileRepository) SetAvatar(ctx context.Context, tenantID, id string, url, key *string) (*domain.Profile, error) {
	return r.apply(ctx, tenantID, id, database.Changes{"avatar_url": url, "avatar_key": key})
}

func (r *ProfileRepository) apply(ctx context.Context, tenantID, id string, changes database.Changes) (*domain.Profile, error) {
	if changes.Empty() {
		return r.GetInTenant(ctx, tenantID, id)
	}
	var p domain.Profile
	err := r.db.GetBuilt(ctx, &p, database.PSQL.
		Update("profiles").
		SetMap(changes).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Suffix("RETURNING "+profileColumns))
	if err != nil {
		return nil, database.Translate(err, "profile")
	}
	return &p, nil
}

// TouchLastLogin records a successful sign-in.
func (r *ProfileRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.Conn(ctx).ExecContext(ctx, `UPDATE profiles SET last_login = $1 WHERE id = $2`, at, id)
	return database.Translate(err, "profile")
}

// Delete removes a member together with its identity and sessions, so the
// email can be invited again later.
func (r *ProfileRepository) Delete(ctx context.Context, tenantID, id string) error {
	res, err := r.db.Conn(ctx).ExecContext(ctx, `
		DELETE FROM identities
		WHERE id = $1 AND id IN (SELECT id FROM profiles WHERE tenant_id = $2)`, id, tenantID)
	if err != nil {
		return database.Translate(err, "profile")
	}
	return requireRow(res, "profile")
}
