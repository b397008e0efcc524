package permissions

import "strings"

// Roles a profile can hold inside a tenant.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

// Permissions guarded by the HTTP layer.
const (
	ContactsRead     = "contacts.read"
	ContactsWrite    = "contacts.write"
	LeadsRead        = "leads.read"
	LeadsWrite       = "leads.write"
	ActivitiesRead   = "activities.read"
	ActivitiesWrite  = "activities.write"
	SettingsRead     = "settings.read"
	SettingsWrite    = "settings.write"
	ProfilesRead     = "profiles.read"
	ProfilesManage   = "profiles.manage"
	TenantRead       = "tenant.read"
	TenantWrite      = "tenant.write"
	InvitationsRead  = "invitations.read"
	InvitationsWrite = "invitations.write"
	DashboardRead    = "dashboard.read"
	AuditRead        = "audit.read"
)

var rolePermissions = map[string][]string{
	RoleAdmin: {"*"},
	RoleMember: {
		"contacts.*", "leads.*", "activities.*",
		SettingsRead, ProfilesRead, TenantRead, DashboardRead, InvitationsRead,
	},
	RoleViewer: {
		ContactsRead, LeadsRead, ActivitiesRead,
		SettingsRead, ProfilesRead, TenantRead, DashboardRead,
	},
}

// NormalizeRole lower-cases a role name and maps the legacy "staff" label to member.
// It returns "" for unknown roles.
func NormalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	if r == "staff" {
		r = RoleMember
	}
	if _, ok := rolePermissions[r]; !ok {
		return ""
	}
	return r
}

// ForRole returns the permissions granted to a role; unknown roles get none.
func ForRole(role string) []string {
	perms := rolePermissions[NormalizeRole(role)]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// ValidRoles lists the assignable roles.
func ValidRoles() []string {
	return []string{RoleAdmin, RoleMember, RoleViewer}
}
