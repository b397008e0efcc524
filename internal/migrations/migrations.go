// Package migrations applies the embedded PostgreSQL schema.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/leadhub/leadhub-backend/pkg/logger"
)

//go:embed sql/*.sql
var scripts embed.FS

const createTableSQL = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version    INTEGER PRIMARY KEY,
	name       VARCHAR(255) NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// lockID serialises concurrent migrators (several replicas starting at once).
const lockID = 7239011

// Migration is one numbered script.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Status reports whether a migration has been applied.
type Status struct {
	Version   int        `db:"version" json:"version"`
	Name      string     `db:"name" json:"name"`
	AppliedAt *time.Time `db:"applied_at" json:"applied_at,omitempty"`
}

// Applied reports whether the migration ran.
func (s Status) Applied() bool { return s.AppliedAt != nil }

// Migrator runs migrations against a database.
type Migrator struct {
	db         *sqlx.DB
	logger     *logger.Logger
	migrations []Migration
}

// New loads the embedded scripts.
func New(db *sqlx.DB, log *logger.Logger) (*Migrator, error) {
	sub, err := fs.Sub(scripts, "sql")
	if err != nil {
		return nil, err
	}
	list, err := Load(sub)
	if err != nil {
		return nil, err
	}
	return &Migrator{db: db, logger: log.WithComponent("migrations"), migrations: list}, nil
}

// Load reads every NNNN_name.sql file of source, sorted by version.
func Load(source fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(source, ".")
	if err != nil {
		return nil, err
	}

	var list []Migration
	seen := make(map[int]string)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		version, name, err := parseName(e.Name())
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("duplicate migration version %d: %s and %s", version, prev, e.Name())
		}
		seen[version] = e.Name()

		body, err := fs.ReadFile(source, e.Name())
		if err != nil {
			return nil, err
		}
		list = append(list, Migration{Version: version, Name: name, SQL: string(body)})
	}

	sort.Slice(list, func(i, j int) bool { return list[i].Version < list[j].Version })
	return list, nil
}

// parseName splits "0002_crm.sql" into 2 and "crm".
func parseName(filename string) (int, string, error) {
	base := strings.TrimSuffix(filename, ".sql")
	parts := strings.SplitN(base, "_", 2)
	if len(parts) != 2 || parts[1] == "" {
		return 0, "", fmt.Errorf("migration %q must be named NNNN_name.sql", filename)
	}
	v, err := strconv.Atoi(parts[0])
	if err != nil || v <= 0 {
		return 0, "", fmt.Errorf("migration %q has an invalid version", filename)
	}
	return v, parts[1], nil
}

// Up applies every pending migration, each in its own transaction.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	if _, err := m.db.ExecContext(ctx, createTableSQL); err != nil {
		return 0, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	applied := 0
	for _, mig := range m.migrations {
		ran, err := m.apply(ctx, mig)
		if err != nil {
			return applied, fmt.Errorf("migration %04d_%s: %w", mig.Version, mig.Name, err)
		}
		if ran {
			applied++
			m.logger.Info().Int("version", mig.Version).Str("name", mig.Name).Msg("migration applied")
		}
	}

	if applied == 0 {
		m.logger.Debug().Msg("schema is up to date")
	}
	return applied, nil
}

func (m *Migrator) apply(ctx context.Context, mig Migration) (bool, error) {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", lockID); err != nil {
		return false, err
	}

	var exists bool
	if err := tx.GetContext(ctx, &exists,
		"SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)", mig.Version); err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, mig.SQL); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name) VALUES ($1, $2)", mig.Version, mig.Name); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

// Status lists every known migration with its applied time, if any.
func (m *Migrator) Status(ctx context.Context) ([]Status, error) {
	if _, err := m.db.ExecContext(ctx, createTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var rows []Status
	if err := m.db.SelectContext(ctx, &rows, "SELECT version, name, applied_at FROM schema_migrations"); err != nil {
		return nil, err
	}
	appliedAt := make(map[int]*time.Time, len(rows))
	for i := range rows {
		appliedAt[rows[i].Version] = rows[i].AppliedAt
	}

	out := make([]Status, 0, len(m.migrations))
	for _, mig := range m.migrations {
		out = append(out, Status{Version: mig.Version, Name: mig.Name, AppliedAt: appliedAt[mig.Version]})
	}
	return out, nil
}
