// Package testutil provides testing utilities for LeadHub services:
// a migrated PostgreSQL test container, sqlmock helpers, request helpers
// and row fixtures.
package testutil

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/leadhub/leadhub-backend/internal/migrations"
	"github.com/leadhub/leadhub-backend/pkg/logger"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance
type PostgresContainer struct {
	*postgres.PostgresContainer
	DSN string
}

// PostgresContainerConfig configures the test PostgreSQL container
type PostgresContainerConfig struct {
	Database string
	Username string
	Password string
	Image    string
}

// DefaultPostgresConfig returns the settings used by the integration tests.
func DefaultPostgresConfig() PostgresContainerConfig {
	return PostgresContainerConfig{
		Database: "leadhub_test",
		Username: "test",
		Password: "test",
		Image:    "postgres:16-alpine",
	}
}

// NewPostgresContainer starts PostgreSQL and waits until it accepts connections.
func NewPostgresContainer(ctx context.Context, cfg PostgresContainerConfig) (*PostgresContainer, error) {
	def := DefaultPostgresConfig()
	if cfg.Image == "" {
		cfg.Image = def.Image
	}
	if cfg.Database == "" {
		cfg.Database = def.Database
	}
	if cfg.Username == "" {
		cfg.Username = def.Username
	}
	if cfg.Password == "" {
		cfg.Password = def.Password
	}

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage(cfg.Image),
		postgres.WithDatabase(cfg.Database),
		postgres.WithUsername(cfg.Username),
		postgres.WithPassword(cfg.Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &PostgresContainer{PostgresContainer: container, DSN: dsn}, nil
}

// Connect returns a sqlx.DB connection to the container
func (c *PostgresContainer) Connect(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", c.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded schema.
func (c *PostgresContainer) Migrate(ctx context.Context, db *sqlx.DB) error {
	m, err := migrations.New(db, logger.Nop())
	if err != nil {
		return err
	}
	_, err = m.Up(ctx)
	return err
}

// AppRole is the login the services would use in production: no superuser and
// no BYPASSRLS, so row-level security policies apply to it.
const AppRole = "leadhub_app"

var appRoleSetup = []string{
	`DO $$ BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_roles WHERE rolname = '` + AppRole + `') THEN
			CREATE ROLE ` + AppRole + ` LOGIN PASSWORD '` + AppRole + `' NOSUPERUSER NOBYPASSRLS;
		END IF;
	END $$`,
	`GRANT USAGE ON SCHEMA public TO ` + AppRole,
	`GRANT SELECT, INSERT, UPDATE, DELETE ON ALL TABLES IN SCHEMA public TO ` + AppRole,
	`GRANT USAGE, SELECT ON ALL SEQUENCES IN SCHEMA public TO ` + AppRole,
}

// ConnectAsApp creates AppRole on the migrated schema and connects with it.
// The container's own user is a superuser and is never subject to RLS.
func (c *PostgresContainer) ConnectAsApp(ctx context.Context, admin *sqlx.DB) (*sqlx.DB, error) {
	for _, stmt := range appRoleSetup {
		if _, err := admin.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to set up app role: %w", err)
		}
	}

	u, err := url.Parse(c.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse container dsn: %w", err)
	}
	u.User = url.UserPassword(AppRole, AppRole)

	db, err := sqlx.ConnectContext(ctx, "postgres", u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to connect as %s: %w", AppRole, err)
	}
	return db, nil
}
