package domain

import (
	"encoding/json"
	"time"
)

// Audit actions.
const (
	ActionTenantUpdated       = "tenant.updated"
	ActionProfileUpdated      = "profile.updated"
	ActionRoleChanged         = "profile.role_changed"
	ActionMemberRemoved       = "profile.removed"
	ActionInvitationCreated   = "invitation.created"
	ActionInvitationResent    = "invitation.resent"
	ActionInvitationRevoked   = "invitation.revoked"
	ActionInvitationAccepted  = "invitation.accepted"
	ActionOnboardingCompleted = "onboarding.completed"
	ActionSettingsUpdated     = "settings.updated"
	ActionAvatarUpdated       = "profile.avatar_updated"
)

// AuditLog records who did what to which resource.
type AuditLog struct {
	ID           string          `db:"id" json:"id"`
	TenantID     string          `db:"tenant_id" json:"tenant_id"`
	ActorID      *string         `db:"actor_id" json:"actor_id,omitempty"`
	ActorName    *string         `db:"actor_name" json:"actor_name,omitempty"`
	Action       string          `db:"action" json:"action"`
	ResourceType string          `db:"resource_type" json:"resource_type"`
	ResourceID   *string         `db:"resource_id" json:"resource_id,omitempty"`
	Details      json.RawMessage `db:"details" json:"details,omitempty"`
	IPAddress    *string         `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent    *string         `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// AuditEntry is what services hand to the audit service.
type AuditEntry struct {
	TenantID     string
	Action       string
	ResourceType string
	ResourceID   string
	Details      map[string]any
}

// AuditFilter narrows an audit listing.
type AuditFilter struct {
	Action       string
	ResourceType string
	ResourceID   string
	Page         int
	PerPage      int
}
