package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	accountdomain "github.com/leadhub/leadhub-backend/internal/account/domain"
	"github.com/leadhub/leadhub-backend/internal/auth/jwt"
	"github.com/leadhub/leadhub-backend/internal/auth/repository"
	"github.com/leadhub/leadhub-backend/internal/auth/service"
	"github.com/leadhub/leadhub-backend/pkg/config"
	"github.com/leadhub/leadhub-backend/pkg/errors"
	"github.com/leadhub/leadhub-backend/pkg/logger"
	"github.com/leadhub/leadhub-backend/pkg/testutil"
)

type fakeTx struct{}

func (fakeTx) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeIdentities struct {
	mu   sync.Mutex
	rows map[string]*repository.Identity
}

func (f *fakeIdentities) Create(_ context.Context, email, hash string) (*repository.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, i := range f.rows {
		if strings.EqualFold(i.Email, email) {
			return nil, errors.Conflict("identity already exists")
		}
	}
	i := &repository.Identity{ID: uuid.NewString(), Email: strings.ToLower(email), PasswordHash: hash}
	f.rows[i.ID] = i
	cp := *i
	return &cp, nil
}

func (f *fakeIdentities) GetByEmail(_ context.Context, email string) (*repository.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, i := range f.rows {
		if strings.EqualFold(i.Email, email) {
			cp := *i
			return &cp, nil
		}
	}
	return nil, errors.NotFound("identity")
}

func (f *fakeIdentities) GetByID(_ context.Context, id string) (*repository.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.rows[id]
	if !ok {
		return nil, errors.NotFound("identity")
	}
	cp := *i
	return &cp, nil
}

func (f *fakeIdentities) UpdatePassword(_ context.Context, id, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.rows[id]
	if !ok {
		return errors.NotFound("identity")
	}
	i.PasswordHash = hash
	return nil
}

func (f *fakeIdentities) TouchSignIn(_ context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i, ok := f.rows[id]; ok {
		i.LastSignInAt = &at
	}
	return nil
}

type fakeSessions struct {
	mu   sync.Mutex
	rows map[string]*repository.Session
}

func (f *fakeSessions) Create(_ context.Context, s *repository.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.rows[s.ID] = &cp
	return nil
}

func (f *fakeSessions) GetByRefreshHash(_ context.Context, hash string) (*repository.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.rows {
		if s.RefreshTokenHash == hash {
			cp := *s
			return &cp, nil
		}
	}
	return nil, errors.NotFound("session")
}

func (f *fakeSessions) Rotate(_ context.Context, id, newHash string, expiresAt, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[id]
	if !ok || s.RevokedAt != nil {
		return errors.NotFound("session")
	}
	s.RefreshTokenHash = newHash
	s.ExpiresAt = expiresAt
	s.LastUsedAt = &at
	return nil
}

func (f *fakeSessions) RevokeByRefreshHash(_ context.Context, hash string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.rows {
		if s.RefreshTokenHash == hash && s.RevokedAt == nil {
			s.RevokedAt = &at
		}
	}
	return nil
}

func (f *fakeSessions) RevokeAllForIdentity(_ context.Context, identityID, keepID string, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, s := range f.rows {
		if s.IdentityID == identityID && s.ID != keepID && s.RevokedAt == nil {
			s.RevokedAt = &at
			n++
		}
	}
	return n, nil
}

func (f *fakeSessions) CleanExpired(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, s := range f.rows {
		if s.ExpiresAt.Before(cutoff) || (s.RevokedAt != nil && s.RevokedAt.Before(cutoff)) {
			delete(f.rows, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeSessions) active(identityID string, now time.Time) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.rows {
		if s.IdentityID == identityID && s.Active(now) {
			n++
		}
	}
	return n
}

type fakeResets struct {
	mu   sync.Mutex
	rows map[string]*repository.PasswordReset
}

func (f *fakeResets) Create(_ context.Context, identityID, hash string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.NewString()
	f.rows[id] = &repository.PasswordReset{ID: id, IdentityID: identityID, TokenHash: hash, ExpiresAt: expiresAt}
	return nil
}

func (f *fakeResets) GetByTokenHash(_ context.Context, hash string) (*repository.PasswordReset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.TokenHash == hash {
			cp := *r
			return &cp, nil
		}
	}
	return nil, errors.NotFound("password reset")
}

func (f *fakeResets) MarkUsed(_ context.Context, id, identityID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.IdentityID == identityID && r.UsedAt == nil {
			r.UsedAt = &at
		}
	}
	return nil
}

func (f *fakeResets) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, r := range f.rows {
		if r.UsedAt != nil || !now.Before(r.ExpiresAt) {
			delete(f.rows, id)
			n++
		}
	}
	return n, nil
}

type fakeTenants struct {
	mu   sync.Mutex
	rows map[string]*accountdomain.Tenant
}

func (f *fakeTenants) Create(_ context.Context, req *accountdomain.CreateTenantRequest) (*accountdomain.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &accountdomain.Tenant{ID: uuid.NewString(), Name: req.Name}
	f.rows[t.ID] = t
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
	rows map[string]*accountdomain.Profile
}

func (f *fakeProfiles) GetByID(_ context.Context, id string) (*accountdomain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return nil, errors.ProfileNotFound()
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfiles) Create(_ context.Context, p *accountdomain.Profile) (*accountdomain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.rows[p.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeProfiles) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.rows[id]; ok {
		p.LastLogin = &at
	}
	return nil
}

type env struct {
	svc        *service.AuthService
	jwt        *jwt.Manager
	clock      *clock.Mock
	identities *fakeIdentities
	sessions   *fakeSessions
	resets     *fakeResets
	tenants    *fakeTenants
	profiles   *fakeProfiles
	events     *testutil.MockPublisher
}

func newEnv(t *testing.T) *env {
	t.Helper()

	clk := clock.NewMock()
	clk.Set(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	e := &env{
		clock:      clk,
		identities: &fakeIdentities{rows: map[string]*repository.Identity{}},
		sessions:   &fakeSessions{rows: map[string]*repository.Session{}},
		resets:     &fakeResets{rows: map[string]*repository.PasswordReset{}},
		tenants:    &fakeTenants{rows: map[string]*accountdomain.Tenant{}},
		profiles:   &fakeProfiles{rows: map[string]*accountdomain.Profile{}},
		events:     testutil.NewMockPublisher(),
	}
	e.jwt = jwt.NewManager(&config.JWTConfig{
		Secret:        "test-secret",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        "leadhub-test",
	}, clk)

	e.svc = service.NewAuthService(fakeTx{}, service.Stores{
		Identities: e.identities,
		Sessions:   e.sessions,
		Resets:     e.resets,
		Tenants:    e.tenants,
		Profiles:   e.profiles,
	}, e.jwt, e.events, nil, clk, service.Options{
		BcryptCost:        bcrypt.MinCost,
		MinPasswordLength: 8,
		ResetExpiry:       time.Hour,
		FrontendURL:       "https://app.test/",
	}, logger.Nop())
	return e
}

// seedMember stores an identity with a finished profile in a new tenant.
func (e *env) seedMember(t *testing.T, email, password, role string) *accountdomain.Profile {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	identity, err := e.identities.Create(context.Background(), email, string(hash))
	if err != nil {
		t.Fatal(err)
	}
	tenant, _ := e.tenants.Create(context.Background(), &accountdomain.CreateTenantRequest{Name: "Seeded"})
	p, _ := e.profiles.Create(context.Background(), &accountdomain.Profile{
		ID:                 identity.ID,
		TenantID:           tenant.ID,
		Email:              identity.Email,
		FirstName:          "Seeded",
		Role:               role,
		OnboardingComplete: true,
	})
	return p
}
