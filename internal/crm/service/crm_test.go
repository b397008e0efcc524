package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountdomain "github.com/leadhub/leadhub-backend/internal/account/domain"
	"github.com/leadhub/leadhub-backend/internal/crm/domain"
	"github.com/leadhub/leadhub-backend/pkg/errors"
	"github.com/leadhub/leadhub-backend/pkg/messaging"
	"github.com/leadhub/leadhub-backend/pkg/testutil"
)

func TestContactService_CreateThenGet(t *testing.T) {
	e := newEnv(t)
	ctx := member(tenantA)

	created, err := e.contacts.Create(ctx, &domain.CreateContactRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     testutil.Ptr("ada@example.com"),
		Company:   testutil.Ptr("Analytical Engines"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ContactLead, created.Status, "status defaults to lead")
	require.NotNil(t, created.CreatedBy)

	got, err := e.contacts.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	ev := e.events.Last(messaging.EventContactCreated)
	require.NotNil(t, ev)
	assert.Equal(t, tenantA, ev.Payload.(messaging.RecordEvent).TenantID)
}

func TestContactService_TenantIsolation(t *testing.T) {
	e := newEnv(t)
	c, err := e.contacts.Create(member(tenantA), &domain.CreateContactRequest{FirstName: "Ada"})
	require.NoError(t, err)

	_, err = e.contacts.GetByID(member(tenantB), c.ID)
	assert.True(t, errors.IsNotFound(err))

	list, total, err := e.contacts.List(member(tenantB), domain.ContactFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, total)
}

func TestContactService_Permissions(t *testing.T) {
	e := newEnv(t)

	_, err := e.contacts.Create(viewer(tenantA), &domain.CreateContactRequest{FirstName: "Ada"})
	assert.Equal(t, errors.CodeForbidden, errors.CodeOf(err))

	_, _, err = e.contacts.List(viewer(tenantA), domain.ContactFilter{})
	assert.NoError(t, err)

	_, err = e.contacts.GetByID(context.Background(), "anything")
	assert.Equal(t, errors.CodeUnauthorized, errors.CodeOf(err))
}

func TestContactService_Validation(t *testing.T) {
	e := newEnv(t)

	_, err := e.contacts.Create(member(tenantA), &domain.CreateContactRequest{Status: "friend"})
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, errors.CodeValidation, appErr.Code)
	assert.Contains(t, appErr.Details, "first_name")
	assert.Contains(t, appErr.Details, "status")

	_, _, err = e.contacts.List(member(tenantA), domain.ContactFilter{Status: "friend"})
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))
}

func TestContactService_Delete(t *testing.T) {
	e := newEnv(t)
	ctx := member(tenantA)
	c, err := e.contacts.Create(ctx, &domain.CreateContactRequest{FirstName: "Ada"})
	require.NoError(t, err)

	require.NoError(t, e.contacts.Delete(ctx, c.ID))
	_, err = e.contacts.GetByID(ctx, c.ID)
	assert.True(t, errors.IsNotFound(err))
	e.events.AssertEventPublished(t, messaging.EventContactDeleted)

	assert.True(t, errors.IsNotFound(e.contacts.Delete(ctx, c.ID)))
}

func TestLeadService_DeleteRemovesFromList(t *testing.T) {
	e := newEnv(t)
	ctx := member(tenantA)
	l, err := e.leads.Create(ctx, &domain.CreateLeadRequest{Name: "Big deal", Value: testutil.Ptr(1000.0)})
	require.NoError(t, err)
	assert.Equal(t, domain.LeadNew, l.Status)
	assert.Equal(t, 1000.0, l.Value)

	require.NoError(t, e.leads.Delete(ctx, l.ID))

	leads, _, err := e.leads.List(ctx, domain.LeadFilter{})
	require.NoError(t, err)
	assert.Empty(t, leads)
	_, err = e.leads.GetByID(ctx, l.ID)
	assert.Equal(t, errors.CodeNotFound, errors.CodeOf(err))
}

func TestLeadService_StatusChangedEvent(t *testing.T) {
	e := newEnv(t)
	ctx := member(tenantA)
	l, err := e.leads.Create(ctx, &domain.CreateLeadRequest{Name: "Deal"})
	require.NoError(t, err)

	_, err = e.leads.Update(ctx, l.ID, &domain.UpdateLeadRequest{Name: testutil.Ptr("Renamed")})
	require.NoError(t, err)
	assert.Nil(t, e.events.Last(messaging.EventLeadStatusChanged), "no event without a transition")

	updated, err := e.leads.Update(ctx, l.ID, &domain.UpdateLeadRequest{Status: testutil.Ptr("qualified")})
	require.NoError(t, err)
	assert.Equal(t, domain.LeadQualified, updated.Status)

	ev := e.events.Last(messaging.EventLeadStatusChanged)
	require.NotNil(t, ev)
	payload := ev.Payload.(messaging.RecordEvent)
	assert.Equal(t, "new", payload.OldStatus)
	assert.Equal(t, "qualified", payload.NewStatus)
	assert.NotEmpty(t, payload.ActorID)
}

func TestLeadService_RejectsUnknownStatus(t *testing.T) {
	e := newEnv(t)
	_, err := e.leads.Create(member(tenantA), &domain.CreateLeadRequest{Name: "Deal", Status: "won"})
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))

	_, err = e.leads.Create(member(tenantA), &domain.CreateLeadRequest{Name: "Deal", Value: testutil.Ptr(-1.0)})
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))
}

func TestLeadService_ValueBounds(t *testing.T) {
	e := newEnv(t)
	_, err := e.leads.Create(member(tenantA), &domain.CreateLeadRequest{Name: "Deal", Value: testutil.Ptr(1e12)})
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))

	l, err := e.leads.Create(member(tenantA), &domain.CreateLeadRequest{Name: "Deal", Value: testutil.Ptr(999999999999.99)})
	require.NoError(t, err)
	_, err = e.leads.Update(member(tenantA), l.ID, &domain.UpdateLeadRequest{Value: testutil.Ptr(1e13)})
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))
}

func TestLeadService_AssigneeMustBeInTenant(t *testing.T) {
	e := newEnv(t)
	const (
		colleague = "5a0e1f52-3c4d-4e8f-9a1b-2c3d4e5f6a70"
		outsider  = "9999a1b2-c3d4-4e5f-8a6b-7c8d9e0f1a2b"
	)
	e.members[colleague] = tenantA
	e.members[outsider] = tenantB

	t.Run("create with a member of another tenant", func(t *testing.T) {
		_, err := e.leads.Create(member(tenantA), &domain.CreateLeadRequest{Name: "Deal", AssignedTo: testutil.Ptr(outsider)})
		var appErr *errors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, errors.CodeValidation, appErr.Code)
		assert.Contains(t, appErr.Details, "assigned_to")
	})

	t.Run("create and reassign within the tenant", func(t *testing.T) {
		l, err := e.leads.Create(member(tenantA), &domain.CreateLeadRequest{Name: "Deal", AssignedTo: testutil.Ptr(colleague)})
		require.NoError(t, err)
		assert.Equal(t, colleague, *l.AssignedTo)

		_, err = e.leads.Update(member(tenantA), l.ID, &domain.UpdateLeadRequest{AssignedTo: testutil.Ptr(outsider)})
		assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))

		got, err := e.leads.GetByID(member(tenantA), l.ID)
		require.NoError(t, err)
		assert.Equal(t, colleague, *got.AssignedTo, "rejected update leaves the lead alone")
	})
}

func TestActivityService_RequiresRelatedRecord(t *testing.T) {
	e := newEnv(t)
	ctx := member(tenantA)
	lead, err := e.leads.Create(ctx, &domain.CreateLeadRequest{Name: "Deal"})
	require.NoError(t, err)

	t.Run("existing lead", func(t *testing.T) {
		a, err := e.activities.Create(ctx, &domain.CreateActivityRequest{
			Type: "call", Description: "Intro call", RelatedTo: lead.ID, RelatedType: domain.RelatedLead,
		})
		require.NoError(t, err)
		assert.Equal(t, lead.ID, a.RelatedTo)
	})

	t.Run("lead of another tenant", func(t *testing.T) {
		_, err := e.activities.Create(member(tenantB), &domain.CreateActivityRequest{
			Type: "call", Description: "Intro call", RelatedTo: lead.ID, RelatedType: domain.RelatedLead,
		})
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("wrong kind", func(t *testing.T) {
		_, err := e.activities.Create(ctx, &domain.CreateActivityRequest{
			Type: "call", Description: "Intro call", RelatedTo: lead.ID, RelatedType: domain.RelatedContact,
		})
		var appErr *errors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, errors.CodeNotFound, appErr.Code)
		assert.Equal(t, "errors.related_not_found", appErr.MessageKey)
	})

	t.Run("filter needs both fields", func(t *testing.T) {
		_, _, err := e.activities.List(ctx, domain.ActivityFilter{RelatedTo: lead.ID})
		assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))
	})
}

func TestActivityService_Complete(t *testing.T) {
	e := newEnv(t)
	ctx := member(tenantA)
	c, err := e.contacts.Create(ctx, &domain.CreateContactRequest{FirstName: "Ada"})
	require.NoError(t, err)
	a, err := e.activities.Create(ctx, &domain.CreateActivityRequest{
		Type: "task", Description: "Send deck", RelatedTo: c.ID, RelatedType: domain.RelatedContact,
	})
	require.NoError(t, err)

	done, err := e.activities.Complete(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, done.CompletedAt)
	assert.True(t, done.CompletedAt.Equal(e.clock.Now()))

	e.clock.Add(time.Hour)
	again, err := e.activities.Complete(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, again.CompletedAt.Equal(*done.CompletedAt), "first completion time is kept")

	e.events.AssertEventPublished(t, messaging.EventActivityCompleted)
}

func TestSettingsService(t *testing.T) {
	e := newEnv(t)

	_, err := e.settings.Get(admin(tenantA))
	assert.True(t, errors.IsNotFound(err))

	_, err = e.settings.Create(member(tenantA), &domain.SettingsInput{Theme: testutil.Ptr("dark")})
	assert.Equal(t, errors.CodeForbidden, errors.CodeOf(err), "members read settings but cannot change them")

	s, err := e.settings.Create(admin(tenantA), &domain.SettingsInput{Theme: testutil.Ptr("dark")})
	require.NoError(t, err)
	assert.Equal(t, "dark", s.Theme)

	_, err = e.settings.Create(admin(tenantA), &domain.SettingsInput{})
	assert.Equal(t, errors.CodeConflict, errors.CodeOf(err))

	s, err = e.settings.Update(admin(tenantA), &domain.SettingsInput{Language: testutil.Ptr("de")})
	require.NoError(t, err)
	assert.Equal(t, "dark", s.Theme)
	assert.Equal(t, "de", s.Language)

	_, err = e.settings.Update(admin(tenantA), &domain.SettingsInput{Theme: testutil.Ptr("neon")})
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))

	require.Len(t, e.audit.entries, 2)
	assert.Equal(t, accountdomain.ActionSettingsUpdated, e.audit.entries[1].Action)
	assert.Equal(t, map[string]any{"language": "de"}, e.audit.entries[1].Details)
}

func TestDashboardService_Stats(t *testing.T) {
	e := newEnv(t)
	ctx := member(tenantA)

	empty, err := e.dashboard.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.ConversionRate)
	assert.Len(t, empty.LeadsByStatus, 4)

	for _, l := range []domain.CreateLeadRequest{
		{Name: "a", Status: "new", Value: testutil.Ptr(100.0)},
		{Name: "b", Status: "qualified", Value: testutil.Ptr(400.0)},
		{Name: "c", Status: "contacted", Value: testutil.Ptr(50.0)},
		{Name: "d", Status: "lost", Value: testutil.Ptr(999.0)},
	} {
		_, err := e.leads.Create(ctx, &l)
		require.NoError(t, err)
	}
	c, err := e.contacts.Create(ctx, &domain.CreateContactRequest{FirstName: "Ada"})
	require.NoError(t, err)

	past := e.clock.Now().Add(-time.Hour)
	_, err = e.activities.Create(ctx, &domain.CreateActivityRequest{
		Type: "call", Description: "overdue", RelatedTo: c.ID, RelatedType: domain.RelatedContact, ScheduledAt: &past,
	})
	require.NoError(t, err)
	_, err = e.activities.Create(ctx, &domain.CreateActivityRequest{
		Type: "note", Description: "later", RelatedTo: c.ID, RelatedType: domain.RelatedContact,
	})
	require.NoError(t, err)

	_, err = e.leads.Create(member(tenantB), &domain.CreateLeadRequest{Name: "other tenant", Value: testutil.Ptr(5000.0)})
	require.NoError(t, err)

	stats, err := e.dashboard.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, stats.TotalLeads)
	assert.EqualValues(t, 1, stats.LeadsByStatus[domain.LeadQualified])
	assert.Equal(t, 550.0, stats.PipelineValue)
	assert.InDelta(t, 0.25, stats.ConversionRate, 1e-9)
	assert.EqualValues(t, 1, stats.TotalContacts)
	assert.EqualValues(t, 2, stats.OpenActivities)
	assert.EqualValues(t, 1, stats.ActivitiesDueNow)
}
