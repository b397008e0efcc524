package database

import (
	"context"
	"database/sql"
	stderrors "errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/leadhub/leadhub-backend/pkg/errors"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tenantA = "6f1c1a9e-2a43-4f3e-9d59-1b8f7c0c2d11"

func newMock(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		raw.Close()
	})
	return Wrap(sqlx.NewDb(raw, "postgres"), nil), mock
}

func TestTransaction_CommitsAndJoins(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE tenants").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE profiles").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := db.Transaction(context.Background(), func(ctx context.Context) error {
		assert.True(t, InTransaction(ctx))
		if _, err := db.Conn(ctx).ExecContext(ctx, "UPDATE tenants SET name = 'x'"); err != nil {
			return err
		}
		// nested call joins instead of opening a second transaction
		return db.Transaction(ctx, func(ctx context.Context) error {
			_, err := db.Conn(ctx).ExecContext(ctx, "UPDATE profiles SET first_name = 'y'")
			return err
		})
	})
	require.NoError(t, err)
}

func TestTransaction_RollsBackOnError(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE tenants").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	boom := stderrors.New("profile update failed")
	err := db.Transaction(context.Background(), func(ctx context.Context) error {
		if _, err := db.Conn(ctx).ExecContext(ctx, "UPDATE tenants SET name = 'x'"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestWithTenantRLS(t *testing.T) {
	t.Run("sets tenant inside the transaction", func(t *testing.T) {
		db, mock := newMock(t)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(SetTenantSQL)).WithArgs(tenantA).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT count").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
		mock.ExpectCommit()

		var n int
		err := db.WithTenantRLS(context.Background(), tenantA, func(ctx context.Context) error {
			return db.Conn(ctx).GetContext(ctx, &n, "SELECT count(*) FROM leads")
		})
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("rejects malformed tenant ids without touching the database", func(t *testing.T) {
		db, _ := newMock(t)
		err := db.WithTenantRLS(context.Background(), "tenant'; DROP TABLE leads; --", func(context.Context) error {
			t.Fatal("fn must not run")
			return nil
		})
		assert.Error(t, err)
	})
}

func TestBuilt(t *testing.T) {
	db, mock := newMock(t)

	changes := Changes{}.
		Set("name", ptr("Acme")).
		Set("website", (*string)(nil)).
		Set("updated_by", "u1")
	require.False(t, changes.Empty())
	assert.NotContains(t, changes, "website")

	mock.ExpectExec(regexp.QuoteMeta("UPDATE tenants SET name = $1, updated_by = $2 WHERE id = $3")).
		WithArgs("Acme", "u1", tenantA).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := db.ExecBuilt(context.Background(),
		PSQL.Update("tenants").SetMap(changes).Where("id = ?", tenantA))
	require.NoError(t, err)
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, Translate(nil, "lead"))
	assert.Equal(t, errors.CodeNotFound, errors.CodeOf(Translate(sql.ErrNoRows, "lead")))
	assert.True(t, errors.IsNotFound(Translate(sql.ErrNoRows, "lead")))

	dup := &pq.Error{Code: "23505", Constraint: "identities_email_key"}
	err := Translate(dup, "identity")
	assert.Equal(t, errors.CodeConflict, errors.CodeOf(err))
	assert.Contains(t, err.Error(), "account with this email")

	check := &pq.Error{Code: "23514", Constraint: "leads_status_check"}
	var appErr *errors.AppError
	require.ErrorAs(t, Translate(check, "lead"), &appErr)
	assert.Equal(t, errors.CodeValidation, appErr.Code)
	assert.Contains(t, appErr.Details, "status")

	overflow := &pq.Error{Code: "22003", Message: "numeric field overflow"}
	require.ErrorAs(t, Translate(overflow, "lead"), &appErr)
	assert.Equal(t, errors.CodeValidation, appErr.Code)
	assert.Contains(t, appErr.Details, "value")

	passthrough := errors.Forbidden("")
	assert.Same(t, passthrough, Translate(passthrough, "lead"))

	assert.Equal(t, errors.CodeInternal, errors.CodeOf(Translate(stderrors.New("conn reset"), "lead")))
}

func ptr(s string) *string { return &s }
