// Package domain holds the onboarding wizard state.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	accountdomain "github.com/leadhub/leadhub-backend/internal/account/domain"
	crmdomain "github.com/leadhub/leadhub-backend/internal/crm/domain"
)

// Wizard steps, in order.
const (
	StepTenant      = 1
	StepCompany     = 2
	StepUser        = 3
	StepPreferences = 4
)

// TenantStep names the organization.
type TenantStep struct {
	Name     string  `json:"name" validate:"required,max=255"`
	Industry *string `json:"industry,omitempty" validate:"omitempty,max=100"`
	Size     *string `json:"size,omitempty" validate:"omitempty,oneof=1-10 11-50 51-200 201-500 501+"`
}

// CompanyStep holds optional company details.
type CompanyStep struct {
	Website     *string `json:"website,omitempty" validate:"omitempty,url"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Address     *string `json:"address,omitempty" validate:"omitempty,max=500"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

// UserStep holds the caller's personal details.
type UserStep struct {
	FirstName string  `json:"first_name" validate:"required,max=100"`
	LastName  string  `json:"last_name" validate:"omitempty,max=100"`
	JobTitle  *string `json:"job_title,omitempty" validate:"omitempty,max=100"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	AvatarURL *string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}

// PreferencesStep becomes the tenant's settings row.
type PreferencesStep struct {
	Theme              string `json:"theme" validate:"required,oneof=light dark system"`
	EmailNotifications bool   `json:"email_notifications"`
	DataSharing        bool   `json:"data_sharing"`
	AutoSave           bool   `json:"auto_save"`
	Language           string `json:"language,omitempty" validate:"omitempty,oneof=en de"`
	Timezone           string `json:"timezone,omitempty" validate:"omitempty,max=64"`
	DateFormat         string `json:"date_format,omitempty" validate:"omitempty,max=20"`
}

// DraftData is stored as JSONB. A nil section has not been filled in yet.
type DraftData struct {
	Tenant      *TenantStep      `json:"tenant,omitempty"`
	Company     *CompanyStep     `json:"company,omitempty"`
	User        *UserStep        `json:"user,omitempty"`
	Preferences *PreferencesStep `json:"preferences,omitempty"`
}

// Value implements driver.Valuer.
func (d DraftData) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements sql.Scanner.
func (d *DraftData) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = DraftData{}
		return nil
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	default:
		return fmt.Errorf("cannot scan %T into DraftData", src)
	}
}

// Draft is the per-profile wizard state, persisted after every step.
type Draft struct {
	ProfileID   string    `db:"profile_id" json:"profile_id"`
	TenantID    string    `db:"tenant_id" json:"tenant_id"`
	CurrentStep int       `db:"current_step" json:"current_step"`
	Data        DraftData `db:"data" json:"data"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Result is returned once onboarding is complete.
type Result struct {
	Tenant   *accountdomain.Tenant  `json:"tenant"`
	Profile  *accountdomain.Profile `json:"profile"`
	Settings *crmdomain.Settings    `json:"settings"`
	NextStep string                 `json:"next_step"`
}
