package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountdomain "github.com/leadhub/leadhub-backend/internal/account/domain"
	accountrepo "github.com/leadhub/leadhub-backend/internal/account/repository"
	"github.com/leadhub/leadhub-backend/internal/crm/domain"
	"github.com/leadhub/leadhub-backend/internal/crm/repository"
	"github.com/leadhub/leadhub-backend/pkg/errors"
	"github.com/leadhub/leadhub-backend/pkg/tenant"
	"github.com/leadhub/leadhub-backend/pkg/testutil"
)

func strPtr(s string) *string { return &s }

func TestRecords_TenantIsolation_Integration(t *testing.T) {
	s := testutil.NewIntegrationSuite(t)
	base := testutil.DefaultTestContext(t)

	acme := s.Fixtures.Tenant(t, "Acme")
	globex := s.Fixtures.Tenant(t, "Globex")
	acmeCtx := tenant.WithTenantID(base, acme.ID)
	globexCtx := tenant.WithTenantID(base, globex.ID)

	contacts := repository.NewContactRepository(s.AppDB)
	leads := repository.NewLeadRepository(s.AppDB)
	activities := repository.NewActivityRepository(s.AppDB)

	contact, err := contacts.Create(acmeCtx, &domain.Contact{FirstName: "Ada", LastName: "Lovelace", Status: domain.ContactLead})
	require.NoError(t, err)
	assert.Equal(t, acme.ID, contact.TenantID)

	lead, err := leads.Create(acmeCtx, &domain.Lead{Name: "Big deal", Status: domain.LeadNew, Value: 1200.5})
	require.NoError(t, err)
	assert.Equal(t, 1200.5, lead.Value)

	activity, err := activities.Create(acmeCtx, &domain.Activity{
		Type: "call", Description: "intro call", RelatedTo: lead.ID, RelatedType: domain.RelatedLead,
	})
	require.NoError(t, err)

	t.Run("other tenant sees nothing", func(t *testing.T) {
		_, err := contacts.GetByID(globexCtx, contact.ID)
		assert.True(t, errors.IsNotFound(err))
		_, err = leads.GetByID(globexCtx, lead.ID)
		assert.True(t, errors.IsNotFound(err))
		_, err = activities.GetByID(globexCtx, activity.ID)
		assert.True(t, errors.IsNotFound(err))

		list, total, err := contacts.List(globexCtx, domain.ContactFilter{Page: 1, PerPage: 20})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, list)

		n, err := contacts.Count(globexCtx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("other tenant cannot change or delete", func(t *testing.T) {
		_, err := contacts.Update(globexCtx, contact.ID, &domain.UpdateContactRequest{FirstName: strPtr("Eve")})
		assert.True(t, errors.IsNotFound(err))
		assert.True(t, errors.IsNotFound(leads.Delete(globexCtx, lead.ID)))
		assert.True(t, errors.IsNotFound(activities.Delete(globexCtx, activity.ID)))

		got, err := contacts.GetByID(acmeCtx, contact.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ada", got.FirstName)
	})

	t.Run("policy hides rows without a tenant filter", func(t *testing.T) {
		var n int
		err := s.AppDB.WithTenantRLS(base, globex.ID, func(ctx context.Context) error {
			return s.AppDB.Conn(ctx).GetContext(ctx, &n,
				`SELECT (SELECT COUNT(*) FROM contacts) + (SELECT COUNT(*) FROM leads) + (SELECT COUNT(*) FROM activities)`)
		})
		require.NoError(t, err)
		assert.Zero(t, n)

		err = s.AppDB.Conn(base).GetContext(base, &n, `SELECT COUNT(*) FROM leads`)
		require.NoError(t, err)
		assert.Zero(t, n, "no tenant set matches no rows")

		err = s.AppDB.WithTenantRLS(base, acme.ID, func(ctx context.Context) error {
			return s.AppDB.Conn(ctx).GetContext(ctx, &n, `SELECT COUNT(*) FROM leads`)
		})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("policy rejects rows for another tenant", func(t *testing.T) {
		err := s.AppDB.WithTenantRLS(base, globex.ID, func(ctx context.Context) error {
			_, err := s.AppDB.Conn(ctx).ExecContext(ctx,
				`INSERT INTO leads (tenant_id, name) VALUES ($1, 'smuggled')`, acme.ID)
			return err
		})
		require.Error(t, err)
	})

	t.Run("deleting a lead removes its activities", func(t *testing.T) {
		require.NoError(t, leads.Delete(acmeCtx, lead.ID))
		_, err := activities.GetByID(acmeCtx, activity.ID)
		assert.True(t, errors.IsNotFound(err))
	})
}

func TestSettingsRepository_Integration(t *testing.T) {
	s := testutil.NewIntegrationSuite(t)
	base := testutil.DefaultTestContext(t)

	acme := s.Fixtures.Tenant(t, "Settings Acme")
	globex := s.Fixtures.Tenant(t, "Settings Globex")
	acmeCtx := tenant.WithTenantID(base, acme.ID)
	globexCtx := tenant.WithTenantID(base, globex.ID)

	settings := repository.NewSettingsRepository(s.AppDB)

	t.Run("missing row is not found", func(t *testing.T) {
		_, err := settings.Get(acmeCtx)
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("upsert inserts then updates under the policy", func(t *testing.T) {
		dark := "dark"
		created, err := settings.Upsert(acmeCtx, &domain.SettingsInput{Theme: &dark})
		require.NoError(t, err)
		assert.Equal(t, "dark", created.Theme)
		assert.Equal(t, "en", created.Language)

		de, off := "de", false
		updated, err := settings.Upsert(acmeCtx, &domain.SettingsInput{Language: &de, AutoSave: &off})
		require.NoError(t, err)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, "dark", updated.Theme, "fields not given keep their value")
		assert.Equal(t, "de", updated.Language)
		assert.False(t, updated.AutoSave)
	})

	t.Run("second create conflicts", func(t *testing.T) {
		_, err := settings.Create(acmeCtx, &domain.SettingsInput{})
		assert.Equal(t, errors.CodeConflict, errors.CodeOf(err))
	})

	t.Run("tenants keep separate rows", func(t *testing.T) {
		_, err := settings.Get(globexCtx)
		assert.True(t, errors.IsNotFound(err))

		light := "light"
		_, err = settings.Update(globexCtx, &domain.SettingsInput{Theme: &light})
		assert.True(t, errors.IsNotFound(err))

		own, err := settings.Upsert(globexCtx, &domain.SettingsInput{Theme: &light})
		require.NoError(t, err)
		assert.Equal(t, globex.ID, own.TenantID)

		acmeRow, err := settings.Get(acmeCtx)
		require.NoError(t, err)
		assert.Equal(t, "dark", acmeRow.Theme)
	})
}

func TestAuditRepository_NestedTransaction_Integration(t *testing.T) {
	s := testutil.NewIntegrationSuite(t)
	base := testutil.DefaultTestContext(t)

	acme := s.Fixtures.Tenant(t, "Audit Acme")
	acmeCtx := tenant.WithTenantID(base, acme.ID)

	audit := accountrepo.NewAuditRepository(s.AppDB)
	settings := repository.NewSettingsRepository(s.AppDB)
	theme := "dark"

	t.Run("committed with the outer transaction", func(t *testing.T) {
		err := s.AppDB.Transaction(acmeCtx, func(ctx context.Context) error {
			if _, err := settings.Upsert(ctx, &domain.SettingsInput{Theme: &theme}); err != nil {
				return err
			}
			return audit.Create(ctx, &accountdomain.AuditLog{
				TenantID:     acme.ID,
				Action:       "settings.updated",
				ResourceType: "settings",
				Details:      []byte(`{"theme":"dark"}`),
			})
		})
		require.NoError(t, err)

		logs, total, err := audit.List(base, acme.ID, accountdomain.AuditFilter{Page: 1, PerPage: 10})
		require.NoError(t, err)
		require.EqualValues(t, 1, total)
		assert.Equal(t, "settings.updated", logs[0].Action)
		assert.JSONEq(t, `{"theme":"dark"}`, string(logs[0].Details))
	})

	t.Run("rolled back with the outer transaction", func(t *testing.T) {
		boom := errors.Internal("boom")
		err := s.AppDB.Transaction(acmeCtx, func(ctx context.Context) error {
			if err := audit.Create(ctx, &accountdomain.AuditLog{
				TenantID: acme.ID, Action: "settings.reset", ResourceType: "settings",
			}); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		_, total, err := audit.List(base, acme.ID, accountdomain.AuditFilter{Action: "settings.reset", Page: 1, PerPage: 10})
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("entries of another tenant stay hidden", func(t *testing.T) {
		other := s.Fixtures.Tenant(t, "Audit Globex")
		_, total, err := audit.List(base, other.ID, accountdomain.AuditFilter{Page: 1, PerPage: 10})
		require.NoError(t, err)
		assert.Zero(t, total)
	})
}
