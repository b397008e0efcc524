package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/leadhub/leadhub-backend/internal/account/domain"
	"github.com/leadhub/leadhub-backend/internal/account/events"
	"github.com/leadhub/leadhub-backend/internal/account/service"
	"github.com/leadhub/leadhub-backend/pkg/errors"
	"github.com/leadhub/leadhub-backend/pkg/logger"
	"github.com/leadhub/leadhub-backend/pkg/testutil"
)

type fakeTx struct{ calls int }

func (f *fakeTx) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

type fakeTenants struct {
	mu   sync.Mutex
	rows map[string]*domain.Tenant
}

func (f *fakeTenants) GetByID(_ context.Context, id string) (*domain.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.rows[id]
	if !ok {
		return nil, errors.NotFound("tenant")
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTenants) Create(_ context.Context, req *domain.CreateTenantRequest) (*domain.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &domain.Tenant{ID: uuid.NewString(), Name: req.Name, Industry: req.Industry, Size: req.Size}
	f.rows[t.ID] = t
	cp := *t
	return &cp, nil
}

func (f *fakeTenants) Update(_ context.Context, id string, req *domain.UpdateTenantRequest) (*domain.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.rows[id]
	if !ok {
		return nil, errors.NotFound("tenant")
	}
	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.Website != nil {
		t.Website = req.Website
	}
	if req.Industry != nil {
		t.Industry = req.Industry
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTenants) SetOwner(_ context.Context, tenantID, profileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.rows[tenantID]
	if !ok {
		return errors.NotFound("tenant")
	}
	t.OwnerProfileID = &profileID
	return nil
}

type fakeProfiles struct {
	mu   sync.Mutex
	rows map[string]*domain.Profile
}

func (f *fakeProfiles) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return nil, errors.NotFound("profile")
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfiles) GetInTenant(ctx context.Context, tenantID, id string) (*domain.Profile, error) {
	p, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.TenantID != tenantID {
		return nil, errors.NotFound("profile")
	}
	return p, nil
}

func (f *fakeProfiles) ListByTenant(_ context.Context, tenantID string) ([]domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Profile
	for _, p := range f.rows {
		if p.TenantID == tenantID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProfiles) FindByEmail(_ context.Context, email string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.rows {
		if strings.EqualFold(p.Email, email) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, errors.NotFound("profile")
}

func (f *fakeProfiles) Create(_ context.Context, p *domain.Profile) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.rows[p.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeProfiles) Update(_ context.Context, tenantID, id string, req *domain.UpdateProfileRequest) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok || p.TenantID != tenantID {
		return nil, errors.NotFound("profile")
	}
	if req.FirstName != nil {
		p.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		p.LastName = *req.LastName
	}
	if req.JobTitle != nil {
		p.JobTitle = req.JobTitle
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfiles) UpdateRole(_ context.Context, tenantID, id, role string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok || p.TenantID != tenantID {
		return nil, errors.NotFound("profile")
	}
	p.Role = role
	cp := *p
	return &cp, nil
}

func (f *fakeProfiles) Delete(_ context.Context, tenantID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok || p.TenantID != tenantID {
		return errors.NotFound("profile")
	}
	delete(f.rows, id)
	return nil
}

type fakeInvitations struct {
	mu   sync.Mutex
	rows map[string]*domain.Invitation
}

func (f *fakeInvitations) Create(_ context.Context, inv *domain.Invitation) (*domain.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *inv
	cp.ID = uuid.NewString()
	cp.Status = domain.InvitationPending
	f.rows[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeInvitations) GetByID(_ context.Context, tenantID, id string) (*domain.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.rows[id]
	if !ok || inv.TenantID != tenantID {
		return nil, errors.NotFound("invitation")
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeInvitations) GetByTokenHash(_ context.Context, hash string, _ bool) (*domain.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.rows {
		if inv.TokenHash == hash {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, errors.NotFound("invitation")
}

func (f *fakeInvitations) FindPending(_ context.Context, tenantID, email string) (*domain.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.rows {
		if inv.TenantID == tenantID && inv.Email == email && inv.Status == domain.InvitationPending {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, errors.NotFound("invitation")
}

func (f *fakeInvitations) List(_ context.Context, tenantID string, status domain.InvitationStatus) ([]domain.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Invitation
	for _, inv := range f.rows {
		if inv.TenantID == tenantID && (status == "" || inv.Status == status) {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (f *fakeInvitations) MarkAccepted(_ context.Context, id, profileID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.rows[id]
	if !ok {
		return errors.NotFound("invitation")
	}
	inv.Status = domain.InvitationAccepted
	inv.AcceptedProfileID = &profileID
	inv.AcceptedAt = &at
	return nil
}

func (f *fakeInvitations) Revoke(_ context.Context, tenantID, id, by string, at time.Time) (*domain.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.rows[id]
	if !ok || inv.TenantID != tenantID || inv.Status != domain.InvitationPending {
		return nil, errors.NotFound("invitation")
	}
	inv.Status = domain.InvitationRevoked
	inv.RevokedBy = &by
	inv.RevokedAt = &at
	cp := *inv
	return &cp, nil
}

func (f *fakeInvitations) Renew(_ context.Context, tenantID, id, hash string, expiresAt time.Time) (*domain.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.rows[id]
	if !ok || inv.TenantID != tenantID {
		return nil, errors.NotFound("invitation")
	}
	inv.Status = domain.InvitationPending
	inv.TokenHash = hash
	inv.ExpiresAt = expiresAt
	cp := *inv
	return &cp, nil
}

func (f *fakeInvitations) ExpireStale(_ context.Context, tenantID string, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, inv := range f.rows {
		if (tenantID == "" || inv.TenantID == tenantID) && inv.Status == domain.InvitationPending && !now.Before(inv.ExpiresAt) {
			inv.Status = domain.InvitationExpired
			n++
		}
	}
	return n, nil
}

type fakeAudit struct {
	mu   sync.Mutex
	logs []domain.AuditLog
}

func (f *fakeAudit) Create(_ context.Context, e *domain.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, *e)
	return nil
}

func (f *fakeAudit) List(_ context.Context, tenantID string, _ domain.AuditFilter) ([]domain.AuditLog, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.AuditLog
	for _, l := range f.logs {
		if l.TenantID == tenantID {
			out = append(out, l)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeAudit) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.logs))
	for _, l := range f.logs {
		out = append(out, l.Action)
	}
	return out
}

type fakeIdentity struct {
	id       string
	password string
}

type fakeIdentities struct {
	emails  map[string]fakeIdentity
	revoked map[string]int
	err     error
}

func (f *fakeIdentities) JoinIdentity(_ context.Context, email, password string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if existing, ok := f.emails[email]; ok {
		if existing.password != password {
			return "", errors.InvalidCredentials()
		}
		return existing.id, nil
	}
	id := uuid.NewString()
	f.emails[email] = fakeIdentity{id: id, password: password}
	return id, nil
}

func (f *fakeIdentities) RevokeSessions(_ context.Context, identityID string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.revoked[identityID]++
	return 1, nil
}

// env wires every account service against in-memory stores.
type env struct {
	tx          *fakeTx
	tenants     *fakeTenants
	profiles    *fakeProfiles
	invitations *fakeInvitations
	audit       *fakeAudit
	identities  *fakeIdentities
	publisher   *testutil.MockPublisher
	clock       *clock.Mock

	tenantSvc     *service.TenantService
	profileSvc    *service.ProfileService
	invitationSvc *service.InvitationService
	auditSvc      *service.AuditService

	tenant *domain.Tenant
	owner  *domain.Profile
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		tx:          &fakeTx{},
		tenants:     &fakeTenants{rows: map[string]*domain.Tenant{}},
		profiles:    &fakeProfiles{rows: map[string]*domain.Profile{}},
		invitations: &fakeInvitations{rows: map[string]*domain.Invitation{}},
		audit:       &fakeAudit{},
		identities:  &fakeIdentities{emails: map[string]fakeIdentity{}, revoked: map[string]int{}},
		publisher:   testutil.NewMockPublisher(),
		clock:       clock.NewMock(),
	}
	e.clock.Set(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	log := logger.Nop()
	ev := events.NewAccountEventPublisher(e.publisher, nil, log)
	e.auditSvc = service.NewAuditService(e.audit, log)
	e.tenantSvc = service.NewTenantService(e.tx, e.tenants, e.profiles, e.auditSvc, ev, log)
	e.profileSvc = service.NewProfileService(e.tx, e.profiles, e.tenants, e.identities, e.auditSvc, ev, log)
	e.invitationSvc = service.NewInvitationService(e.tx, e.invitations, e.profiles, e.tenants, e.identities,
		e.auditSvc, ev, e.clock, service.InvitationConfig{Expiry: 72 * time.Hour, FrontendURL: "https://app.test/"}, log)

	e.tenant, _ = e.tenants.Create(context.Background(), &domain.CreateTenantRequest{Name: "Acme"})
	e.owner = e.addProfile("owner@acme.test", "admin")
	_ = e.tenants.SetOwner(context.Background(), e.tenant.ID, e.owner.ID)
	return e
}

func (e *env) addProfile(email, role string) *domain.Profile {
	return e.addProfileIn(e.tenant.ID, email, role)
}

func (e *env) addProfileIn(tenantID, email, role string) *domain.Profile {
	p, _ := e.profiles.Create(context.Background(), &domain.Profile{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		Email:     email,
		FirstName: strings.Split(email, "@")[0],
		Role:      role,
	})
	return p
}

func (e *env) as(p *domain.Profile) context.Context {
	return testutil.ContextWithActor(context.Background(), testutil.NewActor(p.ID, p.TenantID, p.Role))
}
