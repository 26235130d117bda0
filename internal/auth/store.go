// Copyright (c) 2026 RoverLabs. All rights reserved.

package auth

import (
	"context"
	"time"

	"github.com/roverlabs/clubhub/internal/platform/sec"
)

// # User Data Access

// UserRepository defines the data access contract for club accounts.
type UserRepository interface {

	/*
		Create persists a brand-new user account.

		Returns:
		  - error: apperr.Conflict when the email or student number is
		    already registered, or other persistence failures
	*/
	Create(ctx context.Context, user *User) error

	/*
		FindByID returns the account with the given ID, including
		soft-deactivated accounts (callers check IsActive explicitly).
	*/
	FindByID(ctx context.Context, id string) (*User, error)

	/*
		FindByEmail returns the account with the given normalized email.
	*/
	FindByEmail(ctx context.Context, email string) (*User, error)

	/*
		List returns a page of accounts plus the total count.
	*/
	List(ctx context.Context, limit, offset int) ([]*User, int, error)

	/*
		UpdatePassword replaces only the user's password hash.
	*/
	UpdatePassword(ctx context.Context, userID, newHash string) error

	/*
		UpdateRole replaces the user's role and permission set in one
		document-level write.
	*/
	UpdateRole(ctx context.Context, userID string, role sec.Role, permissions []string) error

	/*
		UpdateLastLogin stamps the login timestamp. Side-effect only.
	*/
	UpdateLastLogin(ctx context.Context, userID string) error

	/*
		SetActive toggles the soft-deactivation flag. The record and its
		relationships are never deleted.
	*/
	SetActive(ctx context.Context, userID string, active bool) error

	/*
		MarkVerified sets the email-verified flag.
	*/
	MarkVerified(ctx context.Context, userID string) error
}

// # Pre-Approval Data Access

// ApprovalRepository defines the data access contract for the role
// pre-approval registry.
type ApprovalRepository interface {

	/*
		Upsert creates or replaces the approval for the entry's email.
		Creating with an existing email overwrites the role set.
	*/
	Upsert(ctx context.Context, approval *RoleApproval) error

	/*
		FindByEmail returns the approval for the normalized email.

		Returns:
		  - error: apperr.NotFound when no record exists; callers treat
		    absence as "no elevated role pre-approved", not a failure
	*/
	FindByEmail(ctx context.Context, email string) (*RoleApproval, error)

	/*
		List returns a page of approvals plus the total count.
	*/
	List(ctx context.Context, limit, offset int) ([]*RoleApproval, int, error)

	/*
		Delete removes the approval for the email.

		Returns:
		  - error: apperr.NotFound when none exists
	*/
	Delete(ctx context.Context, email string) error
}

// # Session Store (optional accelerator)

// SessionStore is the key-value contract for server-side token revocation
// state: per-subject refresh-token hashes and the access-token blacklist.
//
// The store is optional. A nil SessionStore degrades the token service to
// stateless signature+expiry verification — revocation-by-blacklist and
// rotation-reuse detection are then unavailable, a documented reduction in
// the revocation guarantee rather than a failure.
type SessionStore interface {

	/*
		SaveRefresh stores the refresh-token hash for the subject,
		overwriting any previous value (rotation-on-use).
	*/
	SaveRefresh(ctx context.Context, userID, tokenHash string, ttl time.Duration) error

	/*
		GetRefresh returns the stored hash for the subject.

		Returns:
		  - error: apperr.NotFound when no hash is stored (revoked or
		    never persisted)
	*/
	GetRefresh(ctx context.Context, userID string) (string, error)

	/*
		DeleteRefresh removes the subject's stored hash. Deleting an
		absent entry is not an error (logout is idempotent).
	*/
	DeleteRefresh(ctx context.Context, userID string) error

	/*
		BlacklistAccess records a revoked access token by digest with a
		TTL equal to its remaining validity.
	*/
	BlacklistAccess(ctx context.Context, tokenDigest string, ttl time.Duration) error

	/*
		IsBlacklisted reports whether the digest is on the blacklist.
	*/
	IsBlacklisted(ctx context.Context, tokenDigest string) (bool, error)
}
