package domain

import "time"

// InvitationStatus is the lifecycle state of an invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRevoked  InvitationStatus = "revoked"
	InvitationExpired  InvitationStatus = "expired"
)

// Valid reports whether s is a known status.
func (s InvitationStatus) Valid() bool {
	switch s {
	case InvitationPending, InvitationAccepted, InvitationRevoked, InvitationExpired:
		return true
	}
	return false
}

// Invitation asks an email address to join a tenant with a role. A profile is
// only created when the invitation is accepted.
type Invitation struct {
	ID                string           `db:"id" json:"id"`
	TenantID          string           `db:"tenant_id" json:"tenant_id"`
	Email             string           `db:"email" json:"email"`
	Role              string           `db:"role" json:"role"`
	Status            InvitationStatus `db:"status" json:"status"`
	TokenHash         string           `db:"token_hash" json:"-"`
	ExpiresAt         time.Time        `db:"expires_at" json:"expires_at"`
	InvitedBy         *string          `db:"invited_by" json:"invited_by,omitempty"`
	AcceptedProfileID *string          `db:"accepted_profile_id" json:"accepted_profile_id,omitempty"`
	AcceptedAt        *time.Time       `db:"accepted_at" json:"accepted_at,omitempty"`
	RevokedAt         *time.Time       `db:"revoked_at" json:"revoked_at,omitempty"`
	RevokedBy         *string          `db:"revoked_by" json:"revoked_by,omitempty"`
	CreatedAt         time.Time        `db:"created_at" json:"created_at"`
}

// IsExpired reports whether a pending invitation is past its expiry at now.
func (i *Invitation) IsExpired(now time.Time) bool {
	return i.Status == InvitationExpired || (i.Status == InvitationPending && !now.Before(i.ExpiresAt))
}

// CanAccept reports whether the invitation may still be accepted at now.
func (i *Invitation) CanAccept(now time.Time) bool {
	return i.Status == InvitationPending && now.Before(i.ExpiresAt)
}

// CreateInvitationRequest invites email with role.
type CreateInvitationRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
	Role  string `json:"role" validate:"required,oneof=admin member viewer staff"`
}

// AcceptInvitationRequest creates the invitee's account.
type AcceptInvitationRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"omitempty,max=100"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
}

// InviteResult is returned when an invitation is created or resent.
type InviteResult struct {
	Invitation *Invitation `json:"invitation"`
	InviteURL  string      `json:"invite_url"`
	Message    string      `json:"message"`
}

// PublicInvitation is what an unauthenticated invitee may see.
type PublicInvitation struct {
	Email       string           `json:"email"`
	Role        string           `json:"role"`
	Status      InvitationStatus `json:"status"`
	TenantName  string           `json:"tenant_name"`
	InviterName string           `json:"inviter_name"`
	ExpiresAt   time.Time        `json:"expires_at"`
}

// AcceptResult is returned after an invitation was accepted.
type AcceptResult struct {
	Profile *Profile `json:"profile"`
	Tenant  *Tenant  `json:"tenant"`
}
