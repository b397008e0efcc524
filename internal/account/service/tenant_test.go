package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadhub/leadhub-backend/internal/account/domain"
	"github.com/leadhub/leadhub-backend/pkg/errors"
	"github.com/leadhub/leadhub-backend/pkg/messaging"
	"github.com/leadhub/leadhub-backend/pkg/testutil"
)

func TestTenantService_GetCurrent(t *testing.T) {
	e := newEnv(t)

	got, err := e.tenantSvc.GetCurrent(e.as(e.owner))
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)

	orphan := e.addProfileIn("no-such-tenant", "o@x.test", "admin")
	_, err = e.tenantSvc.GetCurrent(e.as(orphan))
	assert.Equal(t, errors.CodeTenantNotFound, errors.CodeOf(err))
}

func TestTenantService_Update(t *testing.T) {
	e := newEnv(t)
	member := e.addProfile("m@acme.test", "member")

	t.Run("admin updates own tenant", func(t *testing.T) {
		got, err := e.tenantSvc.Update(e.as(e.owner), e.tenant.ID, &domain.UpdateTenantRequest{
			Name:    testutil.Ptr("Acme GmbH"),
			Website: testutil.Ptr("https://acme.test"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Acme GmbH", got.Name)

		ev := e.publisher.Last(messaging.EventTenantUpdated)
		require.NotNil(t, ev)
		assert.Equal(t, "Acme GmbH", ev.Payload.(messaging.TenantEvent).Fields["name"])
		assert.Contains(t, e.audit.actions(), domain.ActionTenantUpdated)
	})

	t.Run("member forbidden", func(t *testing.T) {
		_, err := e.tenantSvc.Update(e.as(member), e.tenant.ID, &domain.UpdateTenantRequest{Name: testutil.Ptr("X")})
		assert.Equal(t, errors.CodeForbidden, errors.CodeOf(err))
	})

	t.Run("other tenant forbidden", func(t *testing.T) {
		_, err := e.tenantSvc.Update(e.as(e.owner), "another-tenant", &domain.UpdateTenantRequest{Name: testutil.Ptr("X")})
		assert.Equal(t, errors.CodeForbidden, errors.CodeOf(err))
	})

	t.Run("invalid size", func(t *testing.T) {
		_, err := e.tenantSvc.Update(e.as(e.owner), e.tenant.ID, &domain.UpdateTenantRequest{Size: testutil.Ptr("huge")})
		assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))
	})
}

func TestAuditService_RecordsActor(t *testing.T) {
	e := newEnv(t)
	_, err := e.tenantSvc.Update(e.as(e.owner), e.tenant.ID, &domain.UpdateTenantRequest{Name: testutil.Ptr("Renamed")})
	require.NoError(t, err)

	logs, total, err := e.auditSvc.List(e.as(e.owner), domain.AuditFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.NotNil(t, logs[0].ActorID)
	assert.Equal(t, e.owner.ID, *logs[0].ActorID)
	assert.JSONEq(t, `{"name":"Renamed"}`, string(logs[0].Details))
}
