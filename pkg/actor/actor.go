// Package actor identifies who performs an action: audit entries, event
// payloads and authorization checks all read the actor from the context.
package actor

import (
	"context"
	"fmt"
	"strings"
)

// SystemID identifies background jobs such as invitation expiry.
const SystemID = "00000000-0000-0000-0000-000000000000"

// Actor represents the entity performing an action in the system.
type Actor struct {
	// ID is the identity id, which is also the profile id.
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	FirstName   string   `json:"first_name,omitempty"`
	LastName    string   `json:"last_name,omitempty"`
	TenantID    string   `json:"tenant_id"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions,omitempty"`
	SessionID   string   `json:"-"`
	IPAddress   string   `json:"-"`
	UserAgent   string   `json:"-"`
}

// DisplayName returns the full name, or the email when no name is known.
func (a *Actor) DisplayName() string {
	if a == nil {
		return "system"
	}
	name := strings.TrimSpace(a.FirstName + " " + a.LastName)
	if name == "" {
		return a.Email
	}
	return name
}

func (a *Actor) String() string {
	if a == nil {
		return "system"
	}
	return fmt.Sprintf("%s (%s)", a.DisplayName(), a.Email)
}

// IsSystem returns true if the actor represents the system.
func (a *Actor) IsSystem() bool {
	return a == nil || a.ID == SystemID
}

type contextKey struct{}

// FromContext retrieves the Actor from the context, nil when absent.
func FromContext(ctx context.Context) *Actor {
	if ctx == nil {
		return nil
	}
	a, _ := ctx.Value(contextKey{}).(*Actor)
	return a
}

// WithActor returns a new context with the Actor attached.
func WithActor(ctx context.Context, a *Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, contextKey{}, a)
}
