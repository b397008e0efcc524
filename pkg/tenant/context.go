// Package tenant carries the caller's tenant through request contexts.
package tenant

import (
	"context"
	"errors"
)

type contextKey struct{}

// ErrNoTenantInContext is returned when tenant context is missing
var ErrNoTenantInContext = errors.New("no tenant in context")

// WithTenantID adds the tenant ID to ctx. Set by the authentication middleware from the JWT.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, contextKey{}, tenantID)
}

// TenantID extracts tenant ID from context
func TenantID(ctx context.Context) (string, error) {
	id, ok := ctx.Value(contextKey{}).(string)
	if !ok || id == "" {
		return "", ErrNoTenantInContext
	}
	return id, nil
}
