package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// SetTenantSQL scopes row-level security to one tenant for the current transaction.
// set_config with is_local=true behaves like SET LOCAL but accepts a bind parameter.
const SetTenantSQL = "SELECT set_config('app.current_tenant', $1, true)"

// WithTenantRLS runs fn in a transaction whose RLS policies only see tenantID's rows.
//
//	err := r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
//	    return r.db.Conn(ctx).GetContext(ctx, &c, "SELECT * FROM contacts WHERE id = $1", id)
//	})
//
// Policies compare tenant_id with current_setting('app.current_tenant'). The setting
// is transaction scoped, so pooled connections never carry it into the next request.
func (db *DB) WithTenantRLS(ctx context.Context, tenantID string, fn func(context.Context) error) error {
	if _, err := uuid.Parse(tenantID); err != nil {
		return fmt.Errorf("invalid tenant id %q: %w", tenantID, err)
	}

	return db.Transaction(ctx, func(ctx context.Context) error {
		if _, err := db.Conn(ctx).ExecContext(ctx, SetTenantSQL, tenantID); err != nil {
			return fmt.Errorf("failed to set app.current_tenant: %w", err)
		}
		return fn(ctx)
	})
}
