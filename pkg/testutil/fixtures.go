package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// FixturePassword is the clear-text password of every fixture identity.
const FixturePassword = "correct-horse-battery"

// TenantRow is a seeded tenant.
type TenantRow struct {
	ID   string
	Name string
}

// ProfileRow is a seeded identity plus its profile.
type ProfileRow struct {
	ID       string
	TenantID string
	Email    string
	Role     string
}

// Fixtures inserts rows directly, bypassing services.
type Fixtures struct {
	db  *sqlx.DB
	seq atomic.Int64
}

// NewFixtures creates a fixture factory on db.
func NewFixtures(db *sqlx.DB) *Fixtures {
	return &Fixtures{db: db}
}

func (f *Fixtures) next() int64 {
	return f.seq.Add(1)
}

// Tenant inserts a tenant without an owner.
func (f *Fixtures) Tenant(t *testing.T, name string) TenantRow {
	t.Helper()
	id := uuid.NewString()
	_, err := f.db.ExecContext(context.Background(),
		"INSERT INTO tenants (id, name) VALUES ($1, $2)", id, name)
	if err != nil {
		t.Fatalf("seed tenant: %v", err)
	}
	return TenantRow{ID: id, Name: name}
}

// Profile inserts an identity and a profile in tenantID. The first admin
// seeded for a tenant becomes its owner.
func (f *Fixtures) Profile(t *testing.T, tenantID, role string) ProfileRow {
	t.Helper()
	ctx := context.Background()
	id := uuid.NewString()
	email := fmt.Sprintf("user%d-%s@example.com", f.next(), strings.Split(id, "-")[0])

	hash, err := bcrypt.GenerateFromPassword([]byte(FixturePassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	if _, err := f.db.ExecContext(ctx,
		"INSERT INTO identities (id, email, password_hash) VALUES ($1, $2, $3)",
		id, email, string(hash)); err != nil {
		t.Fatalf("seed identity: %v", err)
	}
	if _, err := f.db.ExecContext(ctx,
		`INSERT INTO profiles (id, tenant_id, email, first_name, last_name, role)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, tenantID, email, "Test", fmt.Sprintf("User%d", f.next()), role); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	if role == "admin" {
		if _, err := f.db.ExecContext(ctx,
			"UPDATE tenants SET owner_profile_id = $1 WHERE id = $2 AND owner_profile_id IS NULL",
			id, tenantID); err != nil {
			t.Fatalf("seed owner: %v", err)
		}
	}
	return ProfileRow{ID: id, TenantID: tenantID, Email: email, Role: role}
}
