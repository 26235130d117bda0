// Copyright (c) 2026 RoverLabs. All rights reserved.

/*
Package auth implements the role-gated identity and access management core.

It defines the domain entities (User, RoleApproval) and the logic for
registration, authentication, token lifecycle, and role-gated authorization.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no
transport dependencies and encapsulate all business rules related to user
identity:

  - Service: Orchestrates the flows (Register, Login, Refresh, revocation).
  - Repository: Abstracted interfaces for Postgres (users, approvals) and
    Redis (refresh hashes, blacklist).
  - Security: Bcrypt credential hashing and RS256-signed typed JWTs via the
    platform sec package.
*/
package auth

import (
	"time"

	"github.com/roverlabs/clubhub/internal/platform/sec"
)

// # Domain Entities

// User represents a registered member of the robotics club.
type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"` // Explicitly omitted from JSON for security.
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	StudentNumber string     `json:"student_number,omitempty"`
	Role          sec.Role   `json:"role"`
	Permissions   []string   `json:"permissions"`
	IsActive      bool       `json:"is_active"`
	EmailVerified bool       `json:"email_verified"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Identity returns the normalized request identity for this user.
func (u *User) Identity() *sec.Identity {
	return &sec.Identity{
		ID:          u.ID,
		Email:       u.Email,
		Role:        u.Role,
		Permissions: u.Permissions,
	}
}

// RoleApproval is an administrative allow-list entry permitting a specific
// email to self-assign roles above the default tier.
//
// At most one active approval exists per email; upserting replaces the role
// set. Registration and login consult approvals but never mutate them.
type RoleApproval struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Roles     []sec.Role `json:"roles"`
	Note      string     `json:"note,omitempty"`
	IsActive  bool       `json:"is_active"`
	CreatedBy string     `json:"created_by,omitempty"`
	UpdatedBy string     `json:"updated_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Allows reports whether this approval covers the given role.
func (a *RoleApproval) Allows(role sec.Role) bool {
	if !a.IsActive {
		return false
	}
	for _, allowed := range a.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// TokenPair is the credential set returned by register, login, and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// AuthResult bundles the identity, the token pair, and an optional
// human-readable notice (e.g. a role downgrade explanation). The notice is
// informational — its presence never indicates an error.
type AuthResult struct {
	User   *User     `json:"user"`
	Tokens TokenPair `json:"tokens"`
	Notice string    `json:"notice,omitempty"`
}

// # Field Identifiers

// Global field names for validation and identity mapping in the auth domain.
const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldFirstName       = "first_name"
	FieldLastName        = "last_name"
	FieldRole            = "role"
	FieldRoles           = "roles"
	FieldToken           = "token"
	FieldRefreshToken    = "refresh_token"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
	FieldMessage         = "message"
)
