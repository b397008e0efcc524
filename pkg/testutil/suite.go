package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/leadhub/leadhub-backend/pkg/database"
	"github.com/leadhub/leadhub-backend/pkg/logger"
)

var (
	// one container per test binary
	sharedContainer *PostgresContainer
	sharedDB        *sqlx.DB
	sharedAppDB     *sqlx.DB
	containerOnce   sync.Once
	containerErr    error
)

// IntegrationSuite gives a test a migrated PostgreSQL database and fixtures.
// DB connects as the superuser that owns the schema; AppDB connects as
// AppRole, for which row-level security is enforced.
type IntegrationSuite struct {
	RawDB    *sqlx.DB
	DB       *database.DB
	AppDB    *database.DB
	Fixtures *Fixtures
}

// NewIntegrationSuite starts (or reuses) the shared container. It skips the
// test in -short mode.
//
//	func TestContactRepository_Integration(t *testing.T) {
//	    s := testutil.NewIntegrationSuite(t)
//	    tenant := s.Fixtures.Tenant(t, "Acme")
//	    ...
//	}
func NewIntegrationSuite(t *testing.T) *IntegrationSuite {
	t.Helper()
	SkipIfShort(t)

	ctx := context.Background()
	containerOnce.Do(func() {
		sharedContainer, containerErr = NewPostgresContainer(ctx, DefaultPostgresConfig())
		if containerErr != nil {
			return
		}
		sharedDB, containerErr = sharedContainer.Connect(ctx)
		if containerErr != nil {
			return
		}
		if containerErr = sharedContainer.Migrate(ctx, sharedDB); containerErr != nil {
			return
		}
		sharedAppDB, containerErr = sharedContainer.ConnectAsApp(ctx, sharedDB)
	})
	if containerErr != nil {
		t.Fatalf("integration database unavailable: %v", containerErr)
	}

	return &IntegrationSuite{
		RawDB:    sharedDB,
		DB:       database.Wrap(sharedDB, logger.Nop()),
		AppDB:    database.Wrap(sharedAppDB, logger.Nop()),
		Fixtures: NewFixtures(sharedDB),
	}
}
