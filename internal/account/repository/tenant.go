package repository

import (
	"context"

	"github.com/leadhub/leadhub-backend/internal/account/domain"
	"github.com/leadhub/leadhub-backend/pkg/database"
)

const tenantColumns = `id, name, industry, size, website, address, phone, description,
	owner_profile_id, created_at, updated_at`

// TenantRepository handles tenant persistence. Tenants are not under RLS;
// every lookup is by primary key.
type TenantRepository struct {
	db *database.DB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *database.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// GetByID returns the tenant or NOT_FOUND.
func (r *TenantRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	var t domain.Tenant
	err := r.db.Conn(ctx).GetContext(ctx, &t, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id)
	if err != nil {
		return nil, database.Translate(err, "tenant")
	}
	return &t, nil
}

// Create inserts a tenant without an owner; the owner is set once its profile exists.
func (r *TenantRepository) Create(ctx context.Context, req *domain.CreateTenantRequest) (*domain.Tenant, error) {
	var t domain.Tenant
	err := r.db.Conn(ctx).GetContext(ctx, &t, `
		INSERT INTO tenants (name, industry, size, website, phone)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+tenantColumns,
		req.Name, req.Industry, req.Size, req.Website, req.Phone,
	)
	if err != nil {
		return nil, database.Translate(err, "tenant")
	}
	return &t, nil
}

// Update applies a partial update and returns the stored row.
func (r *TenantRepository) Update(ctx context.Context, id string, req *domain.UpdateTenantRequest) (*domain.Tenant, error) {
	changes := database.Changes{}.
		Set("name", req.Name).
		Set("industry", req.Industry).
		Set("size", req.Size).
		Set("website", req.Website).
		Set("address", req.Address).
		Set("phone", req.Phone).
		Set("description", req.Description)
	if changes.Empty() {
		return r.GetByID(ctx, id)
	}

	var t domain.Tenant
	err := r.db.GetBuilt(ctx, &t, database.PSQL.
		Update("tenants").
		SetMap(changes).
		Where("id = ?", id).
		Suffix("RETURNING "+tenantColumns))
	if err != nil {
		return nil, database.Translate(err, "tenant")
	}
	return &t, nil
}

// SetOwner stores the owning profile.
func (r *TenantRepository) SetOwner(ctx context.Context, tenantID, profileID string) error {
	res, err := r.db.Conn(ctx).ExecContext(ctx,
		`UPDATE tenants SET owner_profile_id = $1 WHERE id = $2`, profileID, tenantID)
	if err != nil {
		return database.Translate(err, "tenant")
	}
	return requireRow(res, "tenant")
}
