package service_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	accountdomain "github.com/leadhub/leadhub-backend/internal/account/domain"
	"github.com/leadhub/leadhub-backend/internal/crm/domain"
	"github.com/leadhub/leadhub-backend/internal/crm/events"
	"github.com/leadhub/leadhub-backend/internal/crm/service"
	"github.com/leadhub/leadhub-backend/pkg/errors"
	"github.com/leadhub/leadhub-backend/pkg/logger"
	"github.com/leadhub/leadhub-backend/pkg/permissions"
	"github.com/leadhub/leadhub-backend/pkg/tenant"
	"github.com/leadhub/leadhub-backend/pkg/testutil"
)

const (
	tenantA = "0b5e7c1a-8a63-4c8e-9d43-5f8f2b1e9a01"
	tenantB = "7d2c4f90-1e3b-4a55-b6c7-0c9d8e7f6a02"
)

func tenantOf(ctx context.Context) string {
	id, _ := tenant.TenantID(ctx)
	return id
}

type fakeContacts struct {
	mu   sync.Mutex
	rows map[string]domain.Contact
}

func (f *fakeContacts) List(ctx context.Context, flt domain.ContactFilter) ([]domain.Contact, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Contact{}
	for _, c := range f.rows {
		if c.TenantID == tenantOf(ctx) && (flt.Status == "" || c.Status == flt.Status) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastName < out[j].LastName })
	return out, int64(len(out)), nil
}

func (f *fakeContacts) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.rows[id]
	if !ok || c.TenantID != tenantOf(ctx) {
		return nil, errors.NotFound("contact")
	}
	return &c, nil
}

func (f *fakeContacts) Exists(ctx context.Context, id string) (bool, error) {
	_, err := f.GetByID(ctx, id)
	return err == nil, nil
}

func (f *fakeContacts) Create(ctx context.Context, c *domain.Contact) (*domain.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	cp.ID, cp.TenantID = uuid.NewString(), tenantOf(ctx)
	f.rows[cp.ID] = cp
	return &cp, nil
}

func (f *fakeContacts) Update(ctx context.Context, id string, req *domain.UpdateContactRequest) (*domain.Contact, error) {
	c, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.FirstName != nil {
		c.FirstName = *req.FirstName
	}
	if req.Status != nil {
		c.Status = *req.Status
	}
	f.mu.Lock()
	f.rows[id] = *c
	f.mu.Unlock()
	return c, nil
}

func (f *fakeContacts) Delete(ctx context.Context, id string) error {
	if _, err := f.GetByID(ctx, id); err != nil {
		return err
	}
	f.mu.Lock()
	delete(f.rows, id)
	f.mu.Unlock()
	return nil
}

func (f *fakeContacts) Count(ctx context.Context) (int64, error) {
	_, n, err := f.List(ctx, domain.ContactFilter{})
	return n, err
}

type fakeLeads struct {
	mu   sync.Mutex
	rows map[string]domain.Lead
}

func (f *fakeLeads) List(ctx context.Context, flt domain.LeadFilter) ([]domain.Lead, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Lead{}
	for _, l := range f.rows {
		if l.TenantID == tenantOf(ctx) && (flt.Status == "" || string(l.Status) == flt.Status) {
			out = append(out, l)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeLeads) GetByID(ctx context.Context, id string) (*domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.rows[id]
	if !ok || l.TenantID != tenantOf(ctx) {
		return nil, errors.NotFound("lead")
	}
	return &l, nil
}

func (f *fakeLeads) Exists(ctx context.Context, id string) (bool, error) {
	_, err := f.GetByID(ctx, id)
	return err == nil, nil
}

func (f *fakeLeads) Create(ctx context.Context, l *domain.Lead) (*domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *l
	cp.ID, cp.TenantID = uuid.NewString(), tenantOf(ctx)
	f.rows[cp.ID] = cp
	return &cp, nil
}

func (f *fakeLeads) Update(ctx context.Context, id string, req *domain.UpdateLeadRequest) (*domain.Lead, *domain.Lead, error) {
	before, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	after := *before
	if req.Name != nil {
		after.Name = *req.Name
	}
	if req.Status != nil {
		after.Status = domain.LeadStatus(*req.Status)
	}
	if req.AssignedTo != nil {
		after.AssignedTo = req.AssignedTo
	}
	if req.Value != nil {
		after.Value = *req.Value
	}
	f.mu.Lock()
	f.rows[id] = after
	f.mu.Unlock()
	return before, &after, nil
}

func (f *fakeLeads) Delete(ctx context.Context, id string) error {
	if _, err := f.GetByID(ctx, id); err != nil {
		return err
	}
	f.mu.Lock()
	delete(f.rows, id)
	f.mu.Unlock()
	return nil
}

func (f *fakeLeads) StatusCounts(ctx context.Context) ([]domain.StatusCount, error) {
	leads, _, _ := f.List(ctx, domain.LeadFilter{})
	by := map[domain.LeadStatus]*domain.StatusCount{}
	for _, l := range leads {
		c, ok := by[l.Status]
		if !ok {
			c = &domain.StatusCount{Status: l.Status}
			by[l.Status] = c
		}
		c.Count++
		c.Value += l.Value
	}
	out := []domain.StatusCount{}
	for _, c := range by {
		out = append(out, *c)
	}
	return out, nil
}

type fakeActivities struct {
	mu   sync.Mutex
	rows map[string]domain.Activity
}

func (f *fakeActivities) List(ctx context.Context, flt domain.ActivityFilter) ([]domain.Activity, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Activity{}
	for _, a := range f.rows {
		if a.TenantID == tenantOf(ctx) && (flt.RelatedTo == "" || a.RelatedTo == flt.RelatedTo) {
			out = append(out, a)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeActivities) GetByID(ctx context.Context, id string) (*domain.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.rows[id]
	if !ok || a.TenantID != tenantOf(ctx) {
		return nil, errors.NotFound("activity")
	}
	return &a, nil
}

func (f *fakeActivities) Create(ctx context.Context, a *domain.Activity) (*domain.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *a
	cp.ID, cp.TenantID = uuid.NewString(), tenantOf(ctx)
	f.rows[cp.ID] = cp
	return &cp, nil
}

func (f *fakeActivities) Update(ctx context.Context, id string, req *domain.UpdateActivityRequest) (*domain.Activity, error) {
	a, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Description != nil {
		a.Description = *req.Description
	}
	f.mu.Lock()
	f.rows[id] = *a
	f.mu.Unlock()
	return a, nil
}

func (f *fakeActivities) Complete(ctx context.Context, id string, at time.Time) (*domain.Activity, error) {
	a, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.CompletedAt == nil {
		a.CompletedAt = &at
	}
	f.mu.Lock()
	f.rows[id] = *a
	f.mu.Unlock()
	return a, nil
}

func (f *fakeActivities) Delete(ctx context.Context, id string) error {
	if _, err := f.GetByID(ctx, id); err != nil {
		return err
	}
	f.mu.Lock()
	delete(f.rows, id)
	f.mu.Unlock()
	return nil
}

func (f *fakeActivities) OpenCounts(ctx context.Context, now time.Time) (int64, int64, error) {
	all, _, _ := f.List(ctx, domain.ActivityFilter{})
	var open, due int64
	for _, a := range all {
		if a.CompletedAt != nil {
			continue
		}
		open++
		if a.ScheduledAt != nil && !a.ScheduledAt.After(now) {
			due++
		}
	}
	return open, due, nil
}

type fakeSettings struct {
	mu   sync.Mutex
	rows map[string]domain.Settings
}

func (f *fakeSettings) Get(ctx context.Context) (*domain.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[tenantOf(ctx)]
	if !ok {
		return nil, errors.NotFound("settings")
	}
	return &s, nil
}

func (f *fakeSettings) Create(ctx context.Context, in *domain.SettingsInput) (*domain.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[tenantOf(ctx)]; ok {
		return nil, errors.Conflict("settings already exist")
	}
	s := domain.Settings{ID: uuid.NewString(), TenantID: tenantOf(ctx), Theme: domain.ThemeSystem, Language: "en"}
	apply(&s, in)
	f.rows[s.TenantID] = s
	return &s, nil
}

func (f *fakeSettings) Update(ctx context.Context, in *domain.SettingsInput) (*domain.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[tenantOf(ctx)]
	if !ok {
		return nil, errors.NotFound("settings")
	}
	apply(&s, in)
	f.rows[s.TenantID] = s
	return &s, nil
}

func apply(s *domain.Settings, in *domain.SettingsInput) {
	if in.Theme != nil {
		s.Theme = *in.Theme
	}
	if in.Language != nil {
		s.Language = *in.Language
	}
	if in.AutoSave != nil {
		s.AutoSave = *in.AutoSave
	}
}

type fakeTx struct{}

func (fakeTx) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []accountdomain.AuditEntry
	err     error
}

func (f *fakeAudit) Record(_ context.Context, e accountdomain.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

// fakeMembers maps profile ids to their tenant.
type fakeMembers map[string]string

func (f fakeMembers) IsMember(_ context.Context, tenantID, profileID string) (bool, error) {
	return f[profileID] == tenantID, nil
}

type env struct {
	contacts   *service.ContactService
	leads      *service.LeadService
	activities *service.ActivityService
	settings   *service.SettingsService
	dashboard  *service.DashboardService

	members      fakeMembers
	settingsRows *fakeSettings
	audit        *fakeAudit
	events       *testutil.MockPublisher
	clock        *clock.Mock
}

func newEnv(t *testing.T) *env {
	t.Helper()
	clk := clock.NewMock()
	clk.Set(time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC))

	contacts := &fakeContacts{rows: map[string]domain.Contact{}}
	leads := &fakeLeads{rows: map[string]domain.Lead{}}
	activities := &fakeActivities{rows: map[string]domain.Activity{}}

	e := &env{
		members:      fakeMembers{},
		settingsRows: &fakeSettings{rows: map[string]domain.Settings{}},
		audit:        &fakeAudit{},
		events:       testutil.NewMockPublisher(),
		clock:        clk,
	}
	log := logger.Nop()
	ev := events.NewRecordEventPublisher(e.events, nil, log)

	e.contacts = service.NewContactService(contacts, ev, nil, log)
	e.leads = service.NewLeadService(leads, e.members, ev, nil, log)
	e.activities = service.NewActivityService(activities, leads, contacts, ev, nil, clk, log)
	e.settings = service.NewSettingsService(fakeTx{}, e.settingsRows, e.audit, log)
	e.dashboard = service.NewDashboardService(leads, contacts, activities, clk)
	return e
}

func as(tenantID, role string) context.Context {
	return testutil.ContextWithActor(context.Background(), testutil.NewActor(uuid.NewString(), tenantID, role))
}

func admin(tenantID string) context.Context  { return as(tenantID, permissions.RoleAdmin) }
func member(tenantID string) context.Context { return as(tenantID, permissions.RoleMember) }
func viewer(tenantID string) context.Context { return as(tenantID, permissions.RoleViewer) }
