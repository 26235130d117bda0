// Copyright (c) 2026 RoverLabs. All rights reserved.

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roverlabs/clubhub/internal/platform/apperr"
	"github.com/roverlabs/clubhub/internal/platform/audit"
	"github.com/roverlabs/clubhub/internal/platform/notify"
	"github.com/roverlabs/clubhub/internal/platform/sec"
	"github.com/roverlabs/clubhub/pkg/uuid"
)

// # Service

// Service implements the authentication and authorization use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, token
// lifecycle, or role-resolution logic must be reviewed by the security team.
type Service struct {
	users      UserRepository
	approvals  ApprovalRepository
	sessions   SessionStore // nil when the deployment runs without Redis
	tokens     *sec.TokenService
	auditSink  audit.Sink
	notifier   notify.Notifier
	bcryptCost int
}

// NewService constructs the auth [Service] with its dependencies.
//
// A nil sessions store is valid and switches the service into stateless
// degraded mode: tokens verify by signature and expiry alone, and logout,
// rotation-reuse detection, and the blacklist become best-effort no-ops.
func NewService(
	users UserRepository,
	approvals ApprovalRepository,
	sessions SessionStore,
	tokens *sec.TokenService,
	auditSink audit.Sink,
	notifier notify.Notifier,
	bcryptCost int,
) *Service {
	return &Service{
		users:      users,
		approvals:  approvals,
		sessions:   sessions,
		tokens:     tokens,
		auditSink:  auditSink,
		notifier:   notifier,
		bcryptCost: bcryptCost,
	}
}

// normalizeEmail lower-cases and trims the address so that lookups, approvals,
// and uniqueness all operate on one canonical form.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new club member.
type RegisterInput struct {
	Email         string
	Password      string
	FirstName     string
	LastName      string
	StudentNumber string

	// DesiredRole is the optional elevated role the member claims. It is
	// honored only when the pre-approval registry covers it; otherwise the
	// account is created with the default role and a notice explains why.
	DesiredRole string

	IPAddress string
	UserAgent string
}

/*
Register validates, hashes, and persists a brand new member account, then
issues its first token pair.

Description: The requested role is checked against the pre-approval registry;
a request the registry does not cover silently downgrades to the default role
with an explanatory notice instead of failing the whole enrollment.

Parameters:
  - ctx: context.Context
  - input: RegisterInput

Returns:
  - *AuthResult: Created user, token pair, and optional downgrade notice
  - error: Conflict (if the email exists), validation, or storage errors
*/
func (service *Service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := normalizeEmail(input.Email)

	// Resolve the effective role. Unknown role names are a client error;
	// un-approved elevated roles downgrade rather than fail.
	role := sec.DefaultRole
	notice := ""
	if input.DesiredRole != "" {
		requested, ok := sec.ParseRole(input.DesiredRole)
		if !ok {
			return nil, apperr.ValidationError("Unknown role", apperr.FieldError{
				Field:   FieldRole,
				Message: fmt.Sprintf("%q is not a recognized role", input.DesiredRole),
			})
		}

		if service.isRoleAllowed(ctx, email, requested) {
			role = requested
		} else if requested != sec.DefaultRole {
			notice = fmt.Sprintf("Role %q requires pre-approval; account created as %q", requested, sec.DefaultRole)
		}
	}

	// Prevent storing plain-text passwords.
	hashedPassword, err := sec.HashPassword(input.Password, service.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:            uuid.New(),
		Email:         email,
		PasswordHash:  hashedPassword,
		FirstName:     strings.TrimSpace(input.FirstName),
		LastName:      strings.TrimSpace(input.LastName),
		StudentNumber: strings.TrimSpace(input.StudentNumber),
		Role:          role,
		Permissions:   sec.DefaultPermissions(role),
		IsActive:      true,
		EmailVerified: false,
	}

	if err := service.users.Create(ctx, user); err != nil {
		service.record(ctx, "register", audit.OutcomeFailure, "", email, "create_failed", input.IPAddress, input.UserAgent)
		return nil, err
	}

	// Fire-and-forget verification email. A broken mailer never fails enrollment.
	if verifyToken, err := service.tokens.GenerateVerifyToken(user.ID); err == nil {
		service.notifier.EmailVerificationRequested(ctx, user.Email, verifyToken)
	}

	tokens, err := service.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	service.record(ctx, "register", audit.OutcomeSuccess, user.ID, user.Email, "", input.IPAddress, input.UserAgent)

	return &AuthResult{User: user, Tokens: tokens, Notice: notice}, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email    string
	Password string

	// DesiredRole, when set, asks whether the account could operate at this
	// role. Login never changes the stored role; the answer comes back as a
	// notice.
	DesiredRole string

	IPAddress string
	UserAgent string
}

/*
Login validates member credentials and issues a fresh token pair.

Description: Performs constant-time password comparison via bcrypt and keeps
the failure message identical for unknown emails and wrong passwords to
prevent account enumeration. Deactivated accounts are rejected explicitly.

Parameters:
  - ctx: context.Context
  - input: LoginInput

Returns:
  - *AuthResult: Tokens plus an optional role-availability notice
  - error: Unauthorized, Forbidden, or internal failures
*/
func (service *Service) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := normalizeEmail(input.Email)

	user, err := service.users.FindByEmail(ctx, email)
	if err != nil {
		// Generic message to prevent enumeration.
		service.record(ctx, "login", audit.OutcomeFailure, "", email, "unknown_email", input.IPAddress, input.UserAgent)
		return nil, apperr.Unauthorized("Invalid email or password")
	}

	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		service.record(ctx, "login", audit.OutcomeFailure, user.ID, email, "wrong_password", input.IPAddress, input.UserAgent)
		return nil, apperr.Unauthorized("Invalid email or password")
	}

	if !user.IsActive {
		service.record(ctx, "login", audit.OutcomeFailure, user.ID, email, "account_deactivated", input.IPAddress, input.UserAgent)
		return nil, apperr.Forbidden("Account has been deactivated")
	}

	// Role availability is advisory at login; the stored role stands.
	notice := ""
	if input.DesiredRole != "" {
		if requested, ok := sec.ParseRole(input.DesiredRole); ok && requested != user.Role {
			if service.isRoleAllowed(ctx, email, requested) {
				notice = fmt.Sprintf("Role %q is pre-approved for this account; an administrator can apply it", requested)
			} else {
				notice = fmt.Sprintf("Role %q is not pre-approved for this account", requested)
			}
		}
	}

	// Best-effort stamp; a failed write must not block the login.
	_ = service.users.UpdateLastLogin(ctx, user.ID)

	tokens, err := service.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	service.record(ctx, "login", audit.OutcomeSuccess, user.ID, user.Email, "", input.IPAddress, input.UserAgent)

	return &AuthResult{User: user, Tokens: tokens, Notice: notice}, nil
}

// # Token Lifecycle

/*
Refresh implements the refresh-token rotation mechanism.

Description: Verifies the signed refresh token, checks it against the stored
per-subject hash when a session store is present (rotation-reuse detection),
re-validates the account, and issues a rotated pair. Saving the new hash
overwrites the old one, so the presented token can never be replayed.

Parameters:
  - ctx: context.Context
  - refreshToken: string

Returns:
  - *AuthResult: Rotated credentials
  - error: Unauthorized or storage failures
*/
func (service *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := service.tokens.Verify(refreshToken, sec.TokenTypeRefresh)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	// With a session store the presented token must match the single stored
	// hash for the subject. A mismatch means it was rotated away or revoked.
	// Two concurrent refreshes can both pass this read before either writes;
	// the last writer wins and the loser's pair dies on its next use.
	if service.sessions != nil {
		stored, err := service.sessions.GetRefresh(ctx, claims.Subject)
		if err != nil || stored != sec.HashToken(refreshToken) {
			service.record(ctx, "refresh", audit.OutcomeFailure, claims.Subject, claims.Email, "token_revoked", "", "")
			return nil, apperr.Unauthorized("Refresh token has been revoked")
		}
	}

	// Re-validate the account so role changes and deactivation take effect
	// on the next rotation at the latest.
	user, err := service.users.FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, apperr.Unauthorized("Account no longer exists")
	}
	if !user.IsActive {
		service.record(ctx, "refresh", audit.OutcomeFailure, user.ID, user.Email, "account_deactivated", "", "")
		return nil, apperr.Unauthorized("Account has been deactivated")
	}

	tokens, err := service.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	service.record(ctx, "refresh", audit.OutcomeSuccess, user.ID, user.Email, "", "", "")

	return &AuthResult{User: user, Tokens: tokens}, nil
}

/*
Logout revokes the member's current session.

Description: Deletes the stored refresh hash and blacklists the presented
access token for its remaining validity. Logout is idempotent and always
succeeds from the caller's perspective; without a session store it is a
documented no-op and the tokens simply age out.

Parameters:
  - ctx: context.Context
  - userID: string
  - accessToken: string (raw bearer token, may be empty)

Returns:
  - error: Always nil
*/
func (service *Service) Logout(ctx context.Context, userID, accessToken string) error {
	if service.sessions == nil {
		service.record(ctx, "logout", audit.OutcomeSuccess, userID, "", "stateless_noop", "", "")
		return nil
	}

	_ = service.sessions.DeleteRefresh(ctx, userID)

	// Blacklist the access token only for as long as it would otherwise live.
	if accessToken != "" {
		if claims, err := service.tokens.Verify(accessToken, sec.TokenTypeAccess); err == nil {
			if remaining := time.Until(claims.ExpiresAt.Time); remaining > 0 {
				_ = service.sessions.BlacklistAccess(ctx, sec.HashToken(accessToken), remaining)
			}
		}
	}

	service.record(ctx, "logout", audit.OutcomeSuccess, userID, "", "", "", "")

	return nil
}

// # Password Management

/*
ChangePassword lets an authenticated member rotate their credentials.

Description: Verifies the current password before accepting the new one, then
revokes the stored refresh session so stolen refresh tokens die with the old
password.

Parameters:
  - ctx: context.Context
  - userID: string
  - currentPassword: string
  - newPassword: string

Returns:
  - error: Unauthorized or storage failures
*/
func (service *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := service.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if !sec.CheckPasswordHash(currentPassword, user.PasswordHash) {
		service.record(ctx, "password_change", audit.OutcomeFailure, userID, user.Email, "wrong_current_password", "", "")
		return apperr.Unauthorized("Current password is incorrect")
	}

	hashedPassword, err := sec.HashPassword(newPassword, service.bcryptCost)
	if err != nil {
		return fmt.Errorf("auth_service_change_password_hash_failed: %w", err)
	}

	if err := service.users.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		return err
	}

	service.revokeSessions(ctx, userID)
	service.record(ctx, "password_change", audit.OutcomeSuccess, userID, user.Email, "", "", "")

	return nil
}

/*
RequestPasswordReset initiates the forgot-password flow.

Description: Issues a short-lived reset token and hands it to the notifier.
The outcome is identical whether or not the email exists, to prevent account
enumeration.

Parameters:
  - ctx: context.Context
  - email: string

Returns:
  - error: Always nil for unknown emails; token generation failures otherwise
*/
func (service *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := service.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		// Unknown email: same response as success.
		return nil
	}

	resetToken, err := service.tokens.GenerateResetToken(user.ID)
	if err != nil {
		return fmt.Errorf("auth_service_generate_reset_token_failed: %w", err)
	}

	service.notifier.PasswordResetRequested(ctx, user.Email, resetToken)

	return nil
}

/*
ResetPassword completes the forgot-password flow.

Description: Verifies the typed reset token, replaces the password hash, and
revokes the stored refresh session.

Parameters:
  - ctx: context.Context
  - token: string
  - newPassword: string

Returns:
  - error: Unauthorized or storage failures
*/
func (service *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := service.tokens.Verify(token, sec.TokenTypeReset)
	if err != nil {
		return apperr.Unauthorized("Invalid or expired reset token")
	}

	hashedPassword, err := sec.HashPassword(newPassword, service.bcryptCost)
	if err != nil {
		return fmt.Errorf("auth_service_reset_password_hash_failed: %w", err)
	}

	if err := service.users.UpdatePassword(ctx, claims.Subject, hashedPassword); err != nil {
		return err
	}

	service.revokeSessions(ctx, claims.Subject)
	service.record(ctx, "password_reset", audit.OutcomeSuccess, claims.Subject, "", "", "", "")

	return nil
}

/*
VerifyEmail confirms a member's email address using a typed verification token.

Parameters:
  - ctx: context.Context
  - token: string

Returns:
  - error: Unauthorized or storage failures
*/
func (service *Service) VerifyEmail(ctx context.Context, token string) error {
	claims, err := service.tokens.Verify(token, sec.TokenTypeVerify)
	if err != nil {
		return apperr.Unauthorized("Invalid or expired verification token")
	}

	if err := service.users.MarkVerified(ctx, claims.Subject); err != nil {
		return err
	}

	return nil
}

// # Access Resolution

/*
ResolveAccess turns a raw bearer token into a request identity.

Description: Verifies the access token signature and type, consults the
blacklist when a session store is present, and re-fetches the account so a
deactivation takes effect immediately. The role and permission snapshot comes
from the token claims; it reflects the account as of issuance and catches up
on the next refresh.

Parameters:
  - ctx: context.Context
  - rawToken: string

Returns:
  - *sec.Identity: Authenticated request identity
  - error: Unauthorized variants for every rejection
*/
func (service *Service) ResolveAccess(ctx context.Context, rawToken string) (*sec.Identity, error) {
	claims, err := service.tokens.Verify(rawToken, sec.TokenTypeAccess)
	if err != nil {
		if errors.Is(err, sec.ErrTokenExpired) {
			return nil, apperr.Unauthorized("Token has expired")
		}
		return nil, apperr.Unauthorized("Invalid or expired token")
	}

	// A session-store outage degrades to stateless verification rather than
	// rejecting every request.
	if service.sessions != nil {
		if revoked, err := service.sessions.IsBlacklisted(ctx, sec.HashToken(rawToken)); err == nil && revoked {
			return nil, apperr.Unauthorized("Token has been revoked")
		}
	}

	user, err := service.users.FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, apperr.Unauthorized("Account no longer exists")
	}
	if !user.IsActive {
		return nil, apperr.Unauthorized("Account has been deactivated")
	}

	return claims.Identity(), nil
}

// # Internals

// isRoleAllowed is the single policy point deciding whether an email may hold
// a role. The default role is always allowed; anything above it requires an
// active pre-approval covering that role.
func (service *Service) isRoleAllowed(ctx context.Context, email string, role sec.Role) bool {
	if role == sec.DefaultRole {
		return true
	}

	approval, err := service.approvals.FindByEmail(ctx, email)
	if err != nil {
		return false
	}

	return approval.Allows(role)
}

// issuePair mints an access/refresh pair for the user and, when a session
// store is present, persists the refresh hash (overwriting any previous one).
func (service *Service) issuePair(ctx context.Context, user *User) (TokenPair, error) {
	accessToken, err := service.tokens.GenerateAccessToken(user.ID, user.Email, user.Role, user.Permissions)
	if err != nil {
		return TokenPair{}, fmt.Errorf("auth_service_access_token_failed: %w", err)
	}

	refreshToken, err := service.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	if service.sessions != nil {
		if err := service.sessions.SaveRefresh(ctx, user.ID, sec.HashToken(refreshToken), service.tokens.RefreshTTL()); err != nil {
			return TokenPair{}, fmt.Errorf("auth_service_save_refresh_failed: %w", err)
		}
	}

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(service.tokens.AccessTTL().Seconds()),
	}, nil
}

// revokeSessions drops the stored refresh hash for the user. Outstanding
// access tokens keep working until they expire; only a presented token can be
// blacklisted individually.
func (service *Service) revokeSessions(ctx context.Context, userID string) {
	if service.sessions == nil {
		return
	}
	_ = service.sessions.DeleteRefresh(ctx, userID)
}

// record emits an audit event without ever failing the caller.
func (service *Service) record(ctx context.Context, action string, outcome audit.Outcome, subjectID, email, reason, ip, userAgent string) {
	service.auditSink.Record(ctx, audit.Event{
		Action:    action,
		Outcome:   outcome,
		SubjectID: subjectID,
		Email:     email,
		Reason:    reason,
		IP:        ip,
		UserAgent: userAgent,
	})
}
