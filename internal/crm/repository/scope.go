// Package repository stores CRM records. Every table here is under row-level
// security, so each call runs inside WithTenantRLS for the tenant in ctx.
package repository

import (
	"context"
	"database/sql"

	"github.com/leadhub/leadhub-backend/pkg/database"
	"github.com/leadhub/leadhub-backend/pkg/errors"
	"github.com/leadhub/leadhub-backend/pkg/tenant"
)

// scoped runs fn for the tenant carried by ctx. The tenant id is also passed
// to fn so queries can filter on it explicitly.
func scoped(ctx context.Context, db *database.DB, fn func(ctx context.Context, tenantID string) error) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return errors.Forbidden("missing tenant context")
	}
	return db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		return fn(ctx, tenantID)
	})
}

// requireRow turns "no rows affected" into NOT_FOUND.
func requireRow(res sql.Result, resource string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.InternalWrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return errors.NotFound(resource)
	}
	return nil
}

func offset(page, perPage int) uint64 {
	if page < 1 {
		page = 1
	}
	return uint64((page - 1) * perPage)
}
