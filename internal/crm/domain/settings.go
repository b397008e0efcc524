package domain

import "time"

// Themes.
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// Settings are the tenant-wide preferences. There is at most one row per tenant.
type Settings struct {
	ID                 string    `db:"id" json:"id"`
	TenantID           string    `db:"tenant_id" json:"tenant_id"`
	Theme              string    `db:"theme" json:"theme"`
	Language           string    `db:"language" json:"language"`
	Timezone           string    `db:"timezone" json:"timezone"`
	DateFormat         string    `db:"date_format" json:"date_format"`
	EmailNotifications bool      `db:"email_notifications" json:"email_notifications"`
	DataSharing        bool      `db:"data_sharing" json:"data_sharing"`
	AutoSave           bool      `db:"auto_save" json:"auto_save"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// SettingsInput is used for create, update and the onboarding upsert. Nil
// fields keep their current value, or the column default on insert.
type SettingsInput struct {
	Theme              *string `json:"theme,omitempty" validate:"omitempty,oneof=light dark system"`
	Language           *string `json:"language,omitempty" validate:"omitempty,min=2,max=10"`
	Timezone           *string `json:"timezone,omitempty" validate:"omitempty,max=64"`
	DateFormat         *string `json:"date_format,omitempty" validate:"omitempty,max=20"`
	EmailNotifications *bool   `json:"email_notifications,omitempty"`
	DataSharing        *bool   `json:"data_sharing,omitempty"`
	AutoSave           *bool   `json:"auto_save,omitempty"`
}
