package domain

import "time"

// LeadStatus is the pipeline stage of a lead.
type LeadStatus string

const (
	LeadNew       LeadStatus = "new"
	LeadContacted LeadStatus = "contacted"
	LeadQualified LeadStatus = "qualified"
	LeadLost      LeadStatus = "lost"
)

// LeadStatuses lists every stage in pipeline order.
var LeadStatuses = []LeadStatus{LeadNew, LeadContacted, LeadQualified, LeadLost}

// Valid reports whether s is a known stage.
func (s LeadStatus) Valid() bool {
	for _, v := range LeadStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Lead is a potential deal.
type Lead struct {
	ID         string     `db:"id" json:"id"`
	TenantID   string     `db:"tenant_id" json:"tenant_id"`
	Name       string     `db:"name" json:"name"`
	Email      *string    `db:"email" json:"email,omitempty"`
	Phone      *string    `db:"phone" json:"phone,omitempty"`
	Company    *string    `db:"company" json:"company,omitempty"`
	Status     LeadStatus `db:"status" json:"status"`
	Source     *string    `db:"source" json:"source,omitempty"`
	Value      float64    `db:"value" json:"value"`
	Notes      *string    `db:"notes" json:"notes,omitempty"`
	AssignedTo *string    `db:"assigned_to" json:"assigned_to,omitempty"`
	CreatedBy  *string    `db:"created_by" json:"created_by,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// CreateLeadRequest creates a lead. Status defaults to new.
type CreateLeadRequest struct {
	Name       string   `json:"name" validate:"required,max=255"`
	Email      *string  `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone      *string  `json:"phone,omitempty" validate:"omitempty,max=50"`
	Company    *string  `json:"company,omitempty" validate:"omitempty,max=255"`
	Status     string   `json:"status,omitempty" validate:"omitempty,oneof=new contacted qualified lost"`
	Source     *string  `json:"source,omitempty" validate:"omitempty,max=100"`
	Value      *float64 `json:"value,omitempty" validate:"omitempty,gte=0,lte=999999999999.99"`
	Notes      *string  `json:"notes,omitempty" validate:"omitempty,max=5000"`
	AssignedTo *string  `json:"assigned_to,omitempty" validate:"omitempty,uuid"`
}

// UpdateLeadRequest is a partial update.
type UpdateLeadRequest struct {
	Name       *string  `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Email      *string  `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone      *string  `json:"phone,omitempty" validate:"omitempty,max=50"`
	Company    *string  `json:"company,omitempty" validate:"omitempty,max=255"`
	Status     *string  `json:"status,omitempty" validate:"omitempty,oneof=new contacted qualified lost"`
	Source     *string  `json:"source,omitempty" validate:"omitempty,max=100"`
	Value      *float64 `json:"value,omitempty" validate:"omitempty,gte=0,lte=999999999999.99"`
	Notes      *string  `json:"notes,omitempty" validate:"omitempty,max=5000"`
	AssignedTo *string  `json:"assigned_to,omitempty" validate:"omitempty,uuid"`
}

// LeadFilter narrows a lead listing.
type LeadFilter struct {
	Status  string
	Page    int
	PerPage int
}
