package domain

import (
	"strings"
	"time"
)

// Profile is the tenant-scoped record of an identity. Its id equals the identity id.
type Profile struct {
	ID                 string     `db:"id" json:"id"`
	TenantID           string     `db:"tenant_id" json:"tenant_id"`
	Email              string     `db:"email" json:"email"`
	FirstName          string     `db:"first_name" json:"first_name"`
	LastName           string     `db:"last_name" json:"last_name"`
	Role               string     `db:"role" json:"role"`
	JobTitle           *string    `db:"job_title" json:"job_title,omitempty"`
	Phone              *string    `db:"phone" json:"phone,omitempty"`
	Bio                *string    `db:"bio" json:"bio,omitempty"`
	AvatarURL          *string    `db:"avatar_url" json:"avatar_url,omitempty"`
	AvatarKey          *string    `db:"avatar_key" json:"-"`
	OnboardingComplete bool       `db:"onboarding_complete" json:"onboarding_complete"`
	LastLogin          *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last name.
func (p *Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// UpdateProfileRequest is a partial update of personal fields. Role and
// tenant can not be changed here.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	JobTitle  *string `json:"job_title,omitempty" validate:"omitempty,max=100"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Bio       *string `json:"bio,omitempty" validate:"omitempty,max=2000"`
	AvatarURL *string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}

// ChangeRoleRequest assigns a new role to a member.
type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin member viewer staff"`
}

// OwnerStatus answers "is the caller the owner of their tenant".
type OwnerStatus struct {
	IsOwner        bool    `json:"is_owner"`
	OwnerProfileID *string `json:"owner_profile_id,omitempty"`
}
