// Package gateway authenticates API requests and gates them by permission.
package gateway

import (
	"context"
	"net/http"
	"strings"

	"github.com/leadhub/leadhub-backend/internal/auth/jwt"
	"github.com/leadhub/leadhub-backend/pkg/actor"
	"github.com/leadhub/leadhub-backend/pkg/errors"
	"github.com/leadhub/leadhub-backend/pkg/httputil"
	"github.com/leadhub/leadhub-backend/pkg/logger"
	"github.com/leadhub/leadhub-backend/pkg/permissions"
	"github.com/leadhub/leadhub-backend/pkg/tenant"
)

// TokenValidator is implemented by jwt.Manager.
type TokenValidator interface {
	ValidateAccessToken(token string) (*jwt.Claims, error)
}

// MembershipChecker is implemented by the profile repository. Access tokens
// outlive a removal, so tenant routes confirm the profile is still there.
type MembershipChecker interface {
	IsMember(ctx context.Context, tenantID, profileID string) (bool, error)
}

// Gateway holds the request authentication middleware
type Gateway struct {
	tokens  TokenValidator
	members MembershipChecker
	log     *logger.Logger
}

// New creates a gateway. members may be nil, which skips the membership check.
func New(tokens TokenValidator, members MembershipChecker, log *logger.Logger) *Gateway {
	return &Gateway{tokens: tokens, members: members, log: log}
}

// Authenticate validates the bearer token and puts the caller on the context.
func (g *Gateway) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.Error(w, r, errors.Unauthorized("missing authorization header"))
			return
		}

		scheme, tokenString, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || tokenString == "" {
			httputil.Error(w, r, errors.Unauthorized("invalid authorization header format"))
			return
		}

		claims, err := g.tokens.ValidateAccessToken(strings.TrimSpace(tokenString))
		if err != nil {
			g.log.Debug().Err(err).Msg("token validation failed")
			httputil.Error(w, r, err)
			return
		}

		first, last, _ := strings.Cut(claims.Name, " ")
		a := &actor.Actor{
			ID:          claims.Subject,
			Email:       claims.Email,
			FirstName:   first,
			LastName:    last,
			TenantID:    claims.TenantID,
			Role:        claims.Role,
			Permissions: claims.Permissions,
			SessionID:   claims.SessionID,
			IPAddress:   httputil.ClientIP(r),
			UserAgent:   r.UserAgent(),
		}

		ctx := actor.WithActor(r.Context(), a)
		ctx = httputil.WithUserID(ctx, a.ID)
		if a.TenantID != "" {
			ctx = tenant.WithTenantID(ctx, a.TenantID)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireTenant rejects callers whose token carries no tenant, i.e.
// identities without a profile, and callers removed from the token's tenant.
func (g *Gateway) RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenant.TenantID(r.Context())
		if err != nil {
			httputil.Error(w, r, errors.ProfileNotFound())
			return
		}
		if g.members != nil {
			a := actor.FromContext(r.Context())
			if a == nil {
				httputil.Error(w, r, errors.Unauthorized(""))
				return
			}
			ok, err := g.members.IsMember(r.Context(), tenantID, a.ID)
			if err != nil {
				httputil.Error(w, r, err)
				return
			}
			if !ok {
				g.log.Debug().Str("user_id", a.ID).Str("tenant_id", tenantID).Msg("membership revoked")
				httputil.Error(w, r, errors.Unauthorized("").WithMessageKey("errors.membership_revoked", nil))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermission rejects callers whose role does not grant perm.
func (g *Gateway) RequirePermission(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a := actor.FromContext(r.Context())
			if a == nil {
				httputil.Error(w, r, errors.Unauthorized(""))
				return
			}
			if !permissions.HasPermission(a.Permissions, perm) {
				g.log.Debug().
					Str("user_id", a.ID).
					Str("role", a.Role).
					Str("permission", perm).
					Msg("permission denied")
				httputil.Error(w, r, errors.Forbidden(""))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
