package repository_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadhub/leadhub-backend/internal/onboarding/domain"
	"github.com/leadhub/leadhub-backend/internal/onboarding/repository"
	"github.com/leadhub/leadhub-backend/pkg/errors"
	"github.com/leadhub/leadhub-backend/pkg/testutil"
)

func TestDraftRepository_Integration(t *testing.T) {
	s := testutil.NewIntegrationSuite(t)
	ctx := testutil.DefaultTestContext(t)
	tenant := s.Fixtures.Tenant(t, "Draft Co")
	owner := s.Fixtures.Profile(t, tenant.ID, "admin")

	drafts := repository.NewDraftRepository(s.AppDB)

	industry, website := "software", "https://draft.example.com"
	in := &domain.Draft{
		ProfileID:   owner.ID,
		TenantID:    tenant.ID,
		CurrentStep: domain.StepCompany,
		Data: domain.DraftData{
			Tenant:  &domain.TenantStep{Name: "Draft Co", Industry: &industry},
			Company: &domain.CompanyStep{Website: &website},
		},
	}

	t.Run("missing draft is not found", func(t *testing.T) {
		_, err := drafts.Get(ctx, owner.ID)
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("jsonb round trip", func(t *testing.T) {
		saved, err := drafts.Save(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, domain.StepCompany, saved.CurrentStep)

		got, err := drafts.Get(ctx, owner.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Data.Tenant)
		assert.Equal(t, "Draft Co", got.Data.Tenant.Name)
		assert.Equal(t, "software", *got.Data.Tenant.Industry)
		assert.Nil(t, got.Data.Tenant.Size)
		require.NotNil(t, got.Data.Company)
		assert.Equal(t, website, *got.Data.Company.Website)
		assert.Nil(t, got.Data.User, "unsaved steps stay empty")
		assert.Nil(t, got.Data.Preferences)
	})

	t.Run("save replaces the draft", func(t *testing.T) {
		in.CurrentStep = domain.StepPreferences
		in.Data.User = &domain.UserStep{FirstName: "Dana", LastName: "Scully"}
		in.Data.Preferences = &domain.PreferencesStep{Theme: "dark", AutoSave: true, Language: "de"}
		_, err := drafts.Save(ctx, in)
		require.NoError(t, err)

		got, err := drafts.Get(ctx, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StepPreferences, got.CurrentStep)
		assert.Equal(t, "Dana", got.Data.User.FirstName)
		assert.Equal(t, "dark", got.Data.Preferences.Theme)
		assert.True(t, got.Data.Preferences.AutoSave)
		assert.False(t, got.Data.Preferences.DataSharing)
		assert.Equal(t, "Draft Co", got.Data.Tenant.Name)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, drafts.Delete(ctx, owner.ID))
		assert.True(t, errors.IsNotFound(drafts.Delete(ctx, owner.ID)))
	})
}
