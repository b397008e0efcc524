package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadhub/leadhub-backend/internal/onboarding/domain"
	"github.com/leadhub/leadhub-backend/internal/onboarding/repository"
	"github.com/leadhub/leadhub-backend/pkg/errors"
	"github.com/leadhub/leadhub-backend/pkg/testutil"
)

var draftCols = []string{"profile_id", "tenant_id", "current_step", "data", "created_at", "updated_at"}

func TestDraftRepository_Get_DecodesJSONB(t *testing.T) {
	mdb := testutil.NewMockDB(t)
	now := time.Now()
	mdb.ExpectQuery("FROM onboarding_drafts WHERE profile_id = $1").
		WithArgs("p1").
		WillReturnRows(testutil.MockRows(draftCols...).
			AddRow("p1", "t1", 2, []byte(`{"tenant":{"name":"Acme"}}`), now, now))

	d, err := repository.NewDraftRepository(mdb.DB).Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, d.CurrentStep)
	require.NotNil(t, d.Data.Tenant)
	assert.Equal(t, "Acme", d.Data.Tenant.Name)
	assert.Nil(t, d.Data.Preferences)
}

func TestDraftRepository_Save_Upserts(t *testing.T) {
	mdb := testutil.NewMockDB(t)
	now := time.Now()
	mdb.ExpectQuery("ON CONFLICT (profile_id) DO UPDATE").
		WithArgs("p1", "t1", 3, []byte(`{"user":{"first_name":"Ann","last_name":""}}`)).
		WillReturnRows(testutil.MockRows(draftCols...).
			AddRow("p1", "t1", 3, []byte(`{"user":{"first_name":"Ann","last_name":""}}`), now, now))

	d, err := repository.NewDraftRepository(mdb.DB).Save(context.Background(), &domain.Draft{
		ProfileID:   "p1",
		TenantID:    "t1",
		CurrentStep: 3,
		Data:        domain.DraftData{User: &domain.UserStep{FirstName: "Ann"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ann", d.Data.User.FirstName)
}

func TestDraftRepository_Delete_Missing(t *testing.T) {
	mdb := testutil.NewMockDB(t)
	mdb.ExpectExec("DELETE FROM onboarding_drafts").
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repository.NewDraftRepository(mdb.DB).Delete(context.Background(), "p1")
	assert.True(t, errors.IsNotFound(err))
}
