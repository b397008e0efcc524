package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/leadhub/leadhub-backend/internal/crm/domain"
	"github.com/leadhub/leadhub-backend/pkg/database"
)

const settingsColumns = `id, tenant_id, theme, language, timezone, date_format, email_notifications,
	data_sharing, auto_save, created_at, updated_at`

// SettingsRepository handles the per-tenant settings row
type SettingsRepository struct {
	db *database.DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *database.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the caller's settings, NOT_FOUND when none were saved yet.
func (r *SettingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	var s domain.Settings
	err := scoped(ctx, r.db, func(ctx context.Context, tenantID string) error {
		return r.db.Conn(ctx).GetContext(ctx, &s,
			`SELECT `+settingsColumns+` FROM settings WHERE tenant_id = $1`, tenantID)
	})
	if err != nil {
		return nil, database.Translate(err, "settings")
	}
	return &s, nil
}

// Create inserts the settings row. A second row for the tenant is a CONFLICT.
func (r *SettingsRepository) Create(ctx context.Context, in *domain.SettingsInput) (*domain.Settings, error) {
	var s domain.Settings
	err := scoped(ctx, r.db, func(ctx context.Context, tenantID string) error {
		values := database.Changes{"tenant_id": tenantID}
		setInput(values, in)
		return r.db.GetBuilt(ctx, &s, database.PSQL.
			Insert("settings").
			SetMap(values).
			Suffix("RETURNING "+settingsColumns))
	})
	if err != nil {
		return nil, database.Translate(err, "settings")
	}
	return &s, nil
}

// Update changes the caller's existing settings.
func (r *SettingsRepository) Update(ctx context.Context, in *domain.SettingsInput) (*domain.Settings, error) {
	changes := database.Changes{}
	setInput(changes, in)
	if changes.Empty() {
		return r.Get(ctx)
	}

	var s domain.Settings
	err := scoped(ctx, r.db, func(ctx context.Context, tenantID string) error {
		return r.db.GetBuilt(ctx, &s, database.PSQL.
			Update("settings").
			SetMap(changes).
			Where(sq.Eq{"tenant_id": tenantID}).
			Suffix("RETURNING "+settingsColumns))
	})
	if err != nil {
		return nil, database.Translate(err, "settings")
	}
	return &s, nil
}

// Upsert creates the row or updates the given fields of the existing one.
func (r *SettingsRepository) Upsert(ctx context.Context, in *domain.SettingsInput) (*domain.Settings, error) {
	var s domain.Settings
	err := scoped(ctx, r.db, func(ctx context.Context, tenantID string) error {
		values := database.Changes{"tenant_id": tenantID}
		setInput(values, in)

		conflict := "ON CONFLICT (tenant_id) DO UPDATE SET updated_at = NOW()"
		for _, col := range settingsInputColumns {
			if _, ok := values[col]; ok {
				conflict += ", " + col + " = EXCLUDED." + col
			}
		}
		return r.db.GetBuilt(ctx, &s, database.PSQL.
			Insert("settings").
			SetMap(values).
			Suffix(conflict+" RETURNING "+settingsColumns))
	})
	if err != nil {
		return nil, database.Translate(err, "settings")
	}
	return &s, nil
}

var settingsInputColumns = []string{
	"theme", "language", "timezone", "date_format", "email_notifications", "data_sharing", "auto_save",
}

func setInput(c database.Changes, in *domain.SettingsInput) {
	c.Set("theme", in.Theme).
		Set("language", in.Language).
		Set("timezone", in.Timezone).
		Set("date_format", in.DateFormat).
		Set("email_notifications", in.EmailNotifications).
		Set("data_sharing", in.DataSharing).
		Set("auto_save", in.AutoSave)
}
