// Copyright (c) 2026 RoverLabs. All rights reserved.

package sec

// # User Roles

// Role represents the access tier granted to an account. Every account holds
// exactly one role from this fixed set.
type Role string

const (
	// Unrestricted system access
	RoleAdmin Role = "admin"

	// Club mentors guide project teams and run workshops
	RoleMentor Role = "mentor"

	// Researchers contribute to the club's research track
	RoleResearcher Role = "researcher"

	// Team members work on club projects and handle inventory
	RoleTeamMember Role = "team_member"

	// External community participants with read access
	RoleCommunity Role = "community"

	// Default tier for self-registered accounts
	RoleStudent Role = "student"
)

// DefaultRole is the tier assigned at registration when no elevated role has
// been pre-approved for the email.
const DefaultRole = RoleStudent

// AllRoles returns the fixed role enumeration.
func AllRoles() []Role {
	return []Role{RoleStudent, RoleTeamMember, RoleMentor, RoleResearcher, RoleCommunity, RoleAdmin}
}

// ParseRole maps a raw string onto the role enum.
// The second return value reports whether the input was a known role.
func ParseRole(raw string) (Role, bool) {
	role := Role(raw)
	return role, role.Valid()
}

// Valid reports whether the role is part of the fixed enumeration.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeamMember, RoleMentor, RoleResearcher, RoleCommunity, RoleAdmin:
		return true
	}
	return false
}

// # Permission Derivation

// DefaultPermissions returns the fixed permission set a role grants by default.
//
// It is a pure function invoked at exactly two points: account creation, and an
// admin role change when the stored permission set is empty. An explicitly set
// permission set is never overwritten by this derivation.
func DefaultPermissions(r Role) []string {
	switch r {
	case RoleAdmin:
		return []string{
			"read:projects", "write:projects", "review:projects",
			"read:workshops", "write:workshops",
			"read:events", "write:events",
			"read:inventory", "write:inventory",
			"read:news", "write:news",
			"write:research",
			"manage:users", "manage:approvals",
		}
	case RoleMentor:
		return []string{
			"read:projects", "write:projects", "review:projects",
			"read:workshops", "write:workshops",
			"read:events",
			"read:inventory", "write:inventory",
			"read:news",
		}
	case RoleResearcher:
		return []string{
			"read:projects", "write:projects", "write:research",
			"read:workshops", "read:events", "read:news",
		}
	case RoleTeamMember:
		return []string{
			"read:projects", "write:projects",
			"read:workshops", "read:events",
			"read:inventory", "read:news",
		}
	case RoleCommunity:
		return []string{"read:projects", "read:events", "read:news"}
	case RoleStudent:
		return []string{"read:projects", "read:workshops", "read:events", "read:news"}
	default:
		return nil
	}
}

// # Request Identity

// Identity is the normalized caller identity the guard chain attaches to the
// request context after a successful authentication.
//
// Role and Permissions are the snapshot carried by the access token, not a
// live database read: a role change takes effect once a new access token is
// issued. The active-account check, by contrast, is always live.
type Identity struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Role        Role     `json:"role"`
	Permissions []string `json:"permissions"`
}

// HasPermission reports whether the identity's permission snapshot contains
// the given permission string.
func (i *Identity) HasPermission(permission string) bool {
	for _, p := range i.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}
