package domain

import "time"

// Tenant is an isolated organization owning its own CRM data.
type Tenant struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Industry       *string   `db:"industry" json:"industry,omitempty"`
	Size           *string   `db:"size" json:"size,omitempty"`
	Website        *string   `db:"website" json:"website,omitempty"`
	Address        *string   `db:"address" json:"address,omitempty"`
	Phone          *string   `db:"phone" json:"phone,omitempty"`
	Description    *string   `db:"description" json:"description,omitempty"`
	OwnerProfileID *string   `db:"owner_profile_id" json:"owner_profile_id,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// IsOwnedBy reports whether profileID is the stored owner.
func (t *Tenant) IsOwnedBy(profileID string) bool {
	return t != nil && t.OwnerProfileID != nil && *t.OwnerProfileID == profileID
}

// CreateTenantRequest is used by sign-up.
type CreateTenantRequest struct {
	Name     string  `json:"name" validate:"required,max=255"`
	Industry *string `json:"industry,omitempty" validate:"omitempty,max=100"`
	Size     *string `json:"size,omitempty" validate:"omitempty,oneof=1-10 11-50 51-200 201-500 501+"`
	Website  *string `json:"website,omitempty" validate:"omitempty,url"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=50"`
}

// UpdateTenantRequest is a partial update; nil fields are left untouched.
type UpdateTenantRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Industry    *string `json:"industry,omitempty" validate:"omitempty,max=100"`
	Size        *string `json:"size,omitempty" validate:"omitempty,oneof=1-10 11-50 51-200 201-500 501+"`
	Website     *string `json:"website,omitempty" validate:"omitempty,url"`
	Address     *string `json:"address,omitempty" validate:"omitempty,max=500"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

// DefaultTenantName is the name given to a tenant created at sign-up:
// "a@x.com" becomes "a's Organization".
func DefaultTenantName(email string) string {
	local := email
	for i := 0; i < len(email); i++ {
		if email[i] == '@' {
			local = email[:i]
			break
		}
	}
	return local + "'s Organization"
}
