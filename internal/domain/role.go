package domain

import "strings"

// Role is the actor role signalled by the upstream authentication layer.
type Role string

const (
	// RoleSiteAdmin sees every tenant and may move products between companies.
	RoleSiteAdmin Role = "siteAdmin"
	// RoleAdmin manages the catalog of its own company only.
	RoleAdmin Role = "admin"
)

// ParseRole converts a header or flag value to a Role.
// Matching is case-insensitive; unknown values return false.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "siteadmin", "site_admin", "site-admin":
		return RoleSiteAdmin, true
	case "admin":
		return RoleAdmin, true
	}
	return "", false
}

// Elevated reports whether the role grants cross-tenant visibility.
func (r Role) Elevated() bool {
	return r == RoleSiteAdmin
}

func (r Role) String() string {
	return string(r)
}
