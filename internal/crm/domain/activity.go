package domain

import "time"

// Kinds of record an activity can be attached to.
const (
	RelatedLead    = "lead"
	RelatedContact = "contact"
)

// Activity is a call, meeting, task or note attached to a lead or contact.
type Activity struct {
	ID          string     `db:"id" json:"id"`
	TenantID    string     `db:"tenant_id" json:"tenant_id"`
	Type        string     `db:"type" json:"type"`
	Description string     `db:"description" json:"description"`
	RelatedTo   string     `db:"related_to" json:"related_to"`
	RelatedType string     `db:"related_type" json:"related_type"`
	ScheduledAt *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedBy   *string    `db:"created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// CreateActivityRequest creates an activity for an existing lead or contact.
type CreateActivityRequest struct {
	Type        string     `json:"type" validate:"required,oneof=call meeting task email note follow_up"`
	Description string     `json:"description" validate:"required,max=5000"`
	RelatedTo   string     `json:"related_to" validate:"required,uuid"`
	RelatedType string     `json:"related_type" validate:"required,oneof=lead contact"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// UpdateActivityRequest is a partial update. The related record is fixed.
type UpdateActivityRequest struct {
	Type        *string    `json:"type,omitempty" validate:"omitempty,oneof=call meeting task email note follow_up"`
	Description *string    `json:"description,omitempty" validate:"omitempty,min=1,max=5000"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// ActivityFilter lists the activities of one record, or all when empty.
type ActivityFilter struct {
	RelatedTo   string
	RelatedType string
	Page        int
	PerPage     int
}
