package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/leadhub/leadhub-backend/internal/crm/domain"
	"github.com/leadhub/leadhub-backend/pkg/database"
)

const contactColumns = `id, tenant_id, first_name, last_name, email, phone, company, job_title,
	status, notes, created_by, created_at, updated_at`

// ContactRepository handles contact persistence
type ContactRepository struct {
	db *database.DB
}

// NewContactRepository creates a new contact repository
func NewContactRepository(db *database.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// List returns a page of contacts ordered by last name, and the total.
func (r *ContactRepository) List(ctx context.Context, f domain.ContactFilter) ([]domain.Contact, int64, error) {
	contacts := []domain.Contact{}
	var total int64

	err := scoped(ctx, r.db, func(ctx context.Context, tenantID string) error {
		where := sq.And{sq.Eq{"tenant_id": tenantID}}
		if f.Status != "" {
			where = append(where, sq.Eq{"status": f.Status})
		}
		if f.Query != "" {
			p := "%" + f.Query + "%"
			where = append(where, sq.Expr(
				"(first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ? OR company ILIKE ?)", p, p, p, p))
		}

		if err := r.db.GetBuilt(ctx, &total, database.PSQL.
			Select("COUNT(*)").From("contacts").Where(where)); err != nil {
			return err
		}
		return r.db.SelectBuilt(ctx, &contacts, database.PSQL.
			Select(contactColumns).From("contacts").Where(where).
			OrderBy("last_name", "first_name", "id").
			Limit(uint64(f.PerPage)).
			Offset(offset(f.Page, f.PerPage)))
	})
	if err != nil {
		return nil, 0, database.Translate(err, "contact")
	}
	return contacts, total, nil
}

// GetByID returns a contact of the caller's tenant.
func (r *ContactRepository) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	var c domain.Contact
	err := scoped(ctx, r.db, func(ctx context.Context, tenantID string) error {
		return r.db.Conn(ctx).GetContext(ctx, &c,
			`SELECT `+contactColumns+` FROM contacts WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	})
	if err != nil {
		return nil, database.Translate(err, "contact")
	}
	return &c, nil
}

// Exists reports whether id is a contact of the caller's tenant.
func (r *ContactRepository) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := scoped(ctx, r.db, func(ctx context.Context, tenantID string) error {
		return r.db.Conn(ctx).GetContext(ctx, &ok,
			`SELECT EXISTS (SELECT 1 FROM contacts WHERE tenant_id = $1 AND id = $2)`, tenantID, id)
	})
	if err != nil {
		return false, database.Translate(err, "contact")
	}
	return ok, nil
}

// Create inserts c into the caller's tenant.
func (r *ContactRepository) Create(ctx context.Context, c *domain.Contact) (*domain.Contact, error) {
	var out domain.Contact
	err := scoped(ctx, r.db, func(ctx context.Context, tenantID string) error {
		return r.db.Conn(ctx).GetContext(ctx, &out, `
			INSERT INTO contacts (tenant_id, first_name, last_name, email, phone, company, job_title,
				status, notes, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING `+contactColumns,
			tenantID, c.FirstName, c.LastName, c.Email, c.Phone, c.Company, c.JobTitle,
			c.Status, c.Notes, c.CreatedBy,
		)
	})
	if err != nil {
		return nil, database.Translate(err, "contact")
	}
	return &out, nil
}

// Update applies a partial update.
func (r *ContactRepository) Update(ctx context.Context, id string, req *domain.UpdateContactRequest) (*domain.Contact, error) {
	changes := database.Changes{}.
		Set("first_name", req.FirstName).
		Set("last_name", req.LastName).
		Set("email", req.Email).
		Set("phone", req.Phone).
		Set("company", req.Company).
		Set("job_title", req.JobTitle).
		Set("status", req.Status).
		Set("notes", req.Notes)
	if changes.Empty() {
		return r.GetByID(ctx, id)
	}

	var c domain.Contact
	err := scoped(ctx, r.db, func(ctx context.Context, tenantID string) error {
		return r.db.GetBuilt(ctx, &c, database.PSQL.
			Update("contacts").
			SetMap(changes).
			Where(sq.Eq{"tenant_id": tenantID, "id": id}).
			Suffix("RETURNING "+contactColumns))
	})
	if err != nil {
		return nil, database.Translate(err, "contact")
	}
	return &c, nil
}

// Delete removes a contact and the activities attached to it.
func (r *ContactRepository) Delete(ctx context.Context, id string) error {
	return database.Translate(scoped(ctx, r.db, func(ctx context.Context, tenantID string) error {
		res, err := r.db.Conn(ctx).ExecContext(ctx,
			`DELETE FROM contacts WHERE tenant_id = $1 AND id = $2`, tenantID, id)
		if err != nil {
			return err
		}
		if err := requireRow(res, "contact"); err != nil {
			return err
		}
		_, err = r.db.Conn(ctx).ExecContext(ctx,
			`DELETE FROM activities WHERE tenant_id = $1 AND related_type = 'contact' AND related_to = $2`, tenantID, id)
		return err
	}), "contact")
}

// Count returns the number of contacts of the caller's tenant.
func (r *ContactRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := scoped(ctx, r.db, func(ctx context.Context, tenantID string) error {
		return r.db.Conn(ctx).GetContext(ctx, &n, `SELECT COUNT(*) FROM contacts WHERE tenant_id = $1`, tenantID)
	})
	if err != nil {
		return 0, database.Translate(err, "contact")
	}
	return n, nil
}
