// Copyright (c) 2026 RoverLabs. All rights reserved.

package auth

import (
	"context"
	"fmt"

	"github.com/roverlabs/clubhub/internal/platform/apperr"
	"github.com/roverlabs/clubhub/internal/platform/audit"
	"github.com/roverlabs/clubhub/internal/platform/sec"
	"github.com/roverlabs/clubhub/pkg/uuid"
)

// # Pre-Approval Administration

// ApprovalInput holds the data for creating or replacing a registry entry.
type ApprovalInput struct {
	Email string
	Roles []string
	Note  string

	// ActorID is the administrator performing the change.
	ActorID string
}

/*
UpsertApproval creates or replaces the pre-approval for an email.

Description: The email is the natural key of the registry; upserting with an
existing email replaces the whole role set. Role names are validated and
de-duplicated before the write.

Parameters:
  - ctx: context.Context
  - input: ApprovalInput

Returns:
  - *RoleApproval: Persisted entry
  - error: Validation or storage failures
*/
func (service *Service) UpsertApproval(ctx context.Context, input ApprovalInput) (*RoleApproval, error) {
	if len(input.Roles) == 0 {
		return nil, apperr.ValidationError("At least one role is required", apperr.FieldError{
			Field:   FieldRoles,
			Message: "roles must not be empty",
		})
	}

	// Parse and de-duplicate while preserving order.
	seen := make(map[sec.Role]bool, len(input.Roles))
	roles := make([]sec.Role, 0, len(input.Roles))
	for _, raw := range input.Roles {
		role, ok := sec.ParseRole(raw)
		if !ok {
			return nil, apperr.ValidationError("Unknown role", apperr.FieldError{
				Field:   FieldRoles,
				Message: fmt.Sprintf("%q is not a recognized role", raw),
			})
		}
		if !seen[role] {
			seen[role] = true
			roles = append(roles, role)
		}
	}

	approval := &RoleApproval{
		ID:        uuid.New(),
		Email:     normalizeEmail(input.Email),
		Roles:     roles,
		Note:      input.Note,
		IsActive:  true,
		CreatedBy: input.ActorID,
		UpdatedBy: input.ActorID,
	}

	if err := service.approvals.Upsert(ctx, approval); err != nil {
		return nil, err
	}

	service.record(ctx, "approval_upsert", audit.OutcomeSuccess, input.ActorID, approval.Email, "", "", "")

	return approval, nil
}

/*
DeleteApproval removes the pre-approval for an email.

Description: Existing accounts keep the role they already hold; the registry
only gates future self-assignment.

Returns:
  - error: apperr.NotFound when no entry exists
*/
func (service *Service) DeleteApproval(ctx context.Context, email, actorID string) error {
	normalized := normalizeEmail(email)

	if err := service.approvals.Delete(ctx, normalized); err != nil {
		return err
	}

	service.record(ctx, "approval_delete", audit.OutcomeSuccess, actorID, normalized, "", "", "")

	return nil
}

/*
ListApprovals returns a page of registry entries with the total count.
*/
func (service *Service) ListApprovals(ctx context.Context, limit, offset int) ([]*RoleApproval, int, error) {
	return service.approvals.List(ctx, limit, offset)
}

// # User Administration

/*
ListUsers returns a page of member accounts with the total count.
*/
func (service *Service) ListUsers(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return service.users.List(ctx, limit, offset)
}

// RoleUpdateInput holds an administrative role change.
type RoleUpdateInput struct {
	UserID string
	Role   string

	// Permissions optionally replaces the permission set. When empty the
	// existing set is kept, unless it too is empty, in which case the
	// defaults for the new role are derived.
	Permissions []string

	ActorID string
}

/*
UpdateUserRole performs an administrative role change.

Description: Administrators bypass the pre-approval registry entirely. The
change takes effect in fresh tokens; outstanding access tokens keep the old
snapshot until they expire or refresh.

Parameters:
  - ctx: context.Context
  - input: RoleUpdateInput

Returns:
  - *User: Updated account
  - error: Validation, NotFound, or storage failures
*/
func (service *Service) UpdateUserRole(ctx context.Context, input RoleUpdateInput) (*User, error) {
	role, ok := sec.ParseRole(input.Role)
	if !ok {
		return nil, apperr.ValidationError("Unknown role", apperr.FieldError{
			Field:   FieldRole,
			Message: fmt.Sprintf("%q is not a recognized role", input.Role),
		})
	}

	user, err := service.users.FindByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	permissions := input.Permissions
	if len(permissions) == 0 {
		permissions = user.Permissions
		if len(permissions) == 0 {
			permissions = sec.DefaultPermissions(role)
		}
	}

	if err := service.users.UpdateRole(ctx, user.ID, role, permissions); err != nil {
		return nil, err
	}

	user.Role = role
	user.Permissions = permissions

	service.notifier.RoleChanged(ctx, user.Email, role)
	service.record(ctx, "role_update", audit.OutcomeSuccess, input.ActorID, user.Email, string(role), "", "")

	return user, nil
}

/*
SetUserActive toggles the soft-deactivation flag on an account.

Description: Deactivation revokes the stored refresh session immediately;
outstanding access tokens are rejected by the live account check on their
next use. The record itself is never deleted, so attendance and project
history survive.

Returns:
  - *User: Updated account
  - error: NotFound or storage failures
*/
func (service *Service) SetUserActive(ctx context.Context, userID string, active bool, actorID string) (*User, error) {
	user, err := service.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := service.users.SetActive(ctx, userID, active); err != nil {
		return nil, err
	}

	user.IsActive = active
	if !active {
		service.revokeSessions(ctx, userID)
	}

	action := "user_reactivate"
	if !active {
		action = "user_deactivate"
	}
	service.record(ctx, action, audit.OutcomeSuccess, actorID, user.Email, "", "", "")

	return user, nil
}
