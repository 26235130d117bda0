// Copyright (c) 2026 RoverLabs. All rights reserved.

/*
Package notify defines the outbound email notification contract.

Delivery itself is an external collaborator: the auth core fires
notifications and swallows failures — a broken mailer must never fail a
password reset or a role change.
*/
package notify

import (
	"context"
	"log/slog"

	"github.com/roverlabs/clubhub/internal/platform/sec"
)

// Notifier receives fire-and-forget notification requests. Implementations
// must not return errors into the calling flow; failures are logged and
// dropped.
type Notifier interface {
	// PasswordResetRequested delivers the reset token to the account email.
	PasswordResetRequested(ctx context.Context, email, token string)

	// EmailVerificationRequested delivers the verification token.
	EmailVerificationRequested(ctx context.Context, email, token string)

	// RoleChanged informs the account that an administrator changed its role.
	RoleChanged(ctx context.Context, email string, role sec.Role)
}

// LogNotifier logs notification intents instead of delivering them. It is
// the default wiring in development and tests; production deployments plug
// in a real mailer behind the same interface.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a slog-backed notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With(slog.String("channel", "notify"))}
}

// PasswordResetRequested implements [Notifier]. The token itself is not
// logged.
func (n *LogNotifier) PasswordResetRequested(ctx context.Context, email, token string) {
	n.logger.InfoContext(ctx, "password_reset_email_queued", slog.String("email", email))
}

// EmailVerificationRequested implements [Notifier].
func (n *LogNotifier) EmailVerificationRequested(ctx context.Context, email, token string) {
	n.logger.InfoContext(ctx, "verification_email_queued", slog.String("email", email))
}

// RoleChanged implements [Notifier].
func (n *LogNotifier) RoleChanged(ctx context.Context, email string, role sec.Role) {
	n.logger.InfoContext(ctx, "role_change_email_queued",
		slog.String("email", email),
		slog.String("role", string(role)),
	)
}
