// Package domain holds the tenant-scoped CRM records.
package domain

import "time"

// Contact statuses.
const (
	ContactLead     = "lead"
	ContactCustomer = "customer"
	ContactPartner  = "partner"
	ContactVendor   = "vendor"
)

// Contact is a person the tenant does business with.
type Contact struct {
	ID        string    `db:"id" json:"id"`
	TenantID  string    `db:"tenant_id" json:"tenant_id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Company   *string   `db:"company" json:"company,omitempty"`
	JobTitle  *string   `db:"job_title" json:"job_title,omitempty"`
	Status    string    `db:"status" json:"status"`
	Notes     *string   `db:"notes" json:"notes,omitempty"`
	CreatedBy *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CreateContactRequest creates a contact.
type CreateContactRequest struct {
	FirstName string  `json:"first_name" validate:"required,max=100"`
	LastName  string  `json:"last_name" validate:"omitempty,max=100"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Company   *string `json:"company,omitempty" validate:"omitempty,max=255"`
	JobTitle  *string `json:"job_title,omitempty" validate:"omitempty,max=100"`
	Status    string  `json:"status,omitempty" validate:"omitempty,oneof=lead customer partner vendor"`
	Notes     *string `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

// UpdateContactRequest is a partial update; nil fields are left untouched.
type UpdateContactRequest struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Company   *string `json:"company,omitempty" validate:"omitempty,max=255"`
	JobTitle  *string `json:"job_title,omitempty" validate:"omitempty,max=100"`
	Status    *string `json:"status,omitempty" validate:"omitempty,oneof=lead customer partner vendor"`
	Notes     *string `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

// ContactFilter narrows a contact listing.
type ContactFilter struct {
	Query   string
	Status  string
	Page    int
	PerPage int
}
