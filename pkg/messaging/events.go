package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types. The type doubles as the routing key on the topic exchange.
const (
	EventTenantCreated = "tenant.created"
	EventTenantUpdated = "tenant.updated"

	EventProfileUpdated     = "profile.updated"
	EventProfileRoleChanged = "profile.role_changed"
	EventProfileRemoved     = "profile.removed"

	EventInvitationCreated  = "invitation.created"
	EventInvitationAccepted = "invitation.accepted"
	EventInvitationRevoked  = "invitation.revoked"

	EventPasswordResetRequested = "auth.password_reset_requested"
	EventUserSignedUp           = "auth.signed_up"

	EventOnboardingCompleted = "onboarding.completed"

	EventContactCreated    = "contact.created"
	EventContactDeleted    = "contact.deleted"
	EventLeadCreated       = "lead.created"
	EventLeadStatusChanged = "lead.status_changed"
	EventLeadDeleted       = "lead.deleted"
	EventActivityCompleted = "activity.completed"
)

// Event is the envelope written to the broker.
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// InvitationCreatedEvent carries everything the mail worker needs; the
// raw token only travels inside the accept URL.
type InvitationCreatedEvent struct {
	InvitationID string    `json:"invitation_id"`
	TenantID     string    `json:"tenant_id"`
	TenantName   string    `json:"tenant_name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	InvitedBy    string    `json:"invited_by"`
	InviterName  string    `json:"inviter_name"`
	AcceptURL    string    `json:"accept_url"`
	ExpiresAt    time.Time `json:"expires_at"`
	Locale       string    `json:"locale,omitempty"`
}

// InvitationStatusEvent is published when an invitation is accepted or revoked.
type InvitationStatusEvent struct {
	InvitationID string `json:"invitation_id"`
	TenantID     string `json:"tenant_id"`
	Email        string `json:"email"`
	Status       string `json:"status"`
	ProfileID    string `json:"profile_id,omitempty"`
	ActorID      string `json:"actor_id,omitempty"`
}

// PasswordResetRequestedEvent is consumed by the mail worker.
type PasswordResetRequestedEvent struct {
	IdentityID string    `json:"identity_id"`
	Email      string    `json:"email"`
	ResetURL   string    `json:"reset_url"`
	ExpiresAt  time.Time `json:"expires_at"`
	Locale     string    `json:"locale,omitempty"`
}

// UserSignedUpEvent is published after a new identity, tenant and admin profile exist.
type UserSignedUpEvent struct {
	IdentityID string `json:"identity_id"`
	Email      string `json:"email"`
	TenantID   string `json:"tenant_id"`
	TenantName string `json:"tenant_name"`
}

// TenantEvent describes a tenant change.
type TenantEvent struct {
	TenantID string         `json:"tenant_id"`
	Name     string         `json:"name"`
	Fields   map[string]any `json:"fields,omitempty"`
	ActorID  string         `json:"actor_id,omitempty"`
}

// ProfileEvent describes a profile change.
type ProfileEvent struct {
	ProfileID string         `json:"profile_id"`
	TenantID  string         `json:"tenant_id"`
	Email     string         `json:"email,omitempty"`
	OldRole   string         `json:"old_role,omitempty"`
	NewRole   string         `json:"new_role,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
	ActorID   string         `json:"actor_id,omitempty"`
}

// OnboardingCompletedEvent is published after the onboarding transaction commits.
type OnboardingCompletedEvent struct {
	TenantID   string `json:"tenant_id"`
	TenantName string `json:"tenant_name"`
	ProfileID  string `json:"profile_id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	Locale     string `json:"locale,omitempty"`
}

// RecordEvent describes a CRM record lifecycle change.
type RecordEvent struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenant_id"`
	Kind      string `json:"kind"`
	OldStatus string `json:"old_status,omitempty"`
	NewStatus string `json:"new_status,omitempty"`
	ActorID   string `json:"actor_id,omitempty"`
}
