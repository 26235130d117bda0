// Copyright (c) 2026 RoverLabs. All rights reserved.

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roverlabs/clubhub/internal/platform/apperr"
	"github.com/roverlabs/clubhub/internal/platform/dberr"
	"github.com/roverlabs/clubhub/internal/platform/sec"
)

// ── User Repository ──────────────────────────────────────────────────────────

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `
	id, email, passwordhash, firstname, lastname, studentnumber,
	role, permissions, isactive, emailverified, lastloginat, createdat, updatedat`

func scanUser(row interface{ Scan(dest ...any) error }) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.StudentNumber,
		&user.Role,
		&user.Permissions,
		&user.IsActive,
		&user.EmailVerified,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Create persists a new user record into the users.account table.
//
// # Returns
//
// Returns [apperr.Conflict] when the email or student number is already taken.
func (repository *PostgresUserRepository) Create(ctx context.Context, user *User) error {
	const query = `
		INSERT INTO users.account (
			id, email, passwordhash, firstname, lastname, studentnumber,
			role, permissions, isactive, emailverified, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.StudentNumber,
		user.Role,
		user.Permissions,
		user.IsActive,
		user.EmailVerified,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_user_repo_create_failed: %w", err), "Account")
	}

	return nil
}

// FindByID retrieves a user record by their unique ID. Deactivated accounts are
// returned as well; callers inspect IsActive.
func (repository *PostgresUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	query := "SELECT " + userColumns + " FROM users.account WHERE id = $1"

	user, err := scanUser(repository.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "User")
	}

	return user, nil
}

// FindByEmail retrieves a user record by their unique email address.
//
// # Returns
//
// Returns [*User] if found, or [apperr.NotFound] if no account exists.
func (repository *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := "SELECT " + userColumns + " FROM users.account WHERE email = $1"

	user, err := scanUser(repository.pool.QueryRow(ctx, query, email))
	if err != nil {
		return nil, dberr.Wrap(err, "User")
	}

	return user, nil
}

// List retrieves a page of user accounts ordered by creation time, newest
// first, along with the total account count.
func (repository *PostgresUserRepository) List(ctx context.Context, limit, offset int) ([]*User, int, error) {
	const countQuery = "SELECT COUNT(*) FROM users.account"

	var total int
	if err := repository.pool.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(fmt.Errorf("postgres_user_repo_count_failed: %w", err), "User")
	}

	query := "SELECT " + userColumns + ` FROM users.account
		ORDER BY createdat DESC
		LIMIT $1 OFFSET $2`

	rows, err := repository.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(fmt.Errorf("postgres_user_repo_list_failed: %w", err), "User")
	}
	defer rows.Close()

	users := make([]*User, 0, limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(fmt.Errorf("postgres_user_repo_scan_failed: %w", err), "User")
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(fmt.Errorf("postgres_user_repo_rows_failed: %w", err), "User")
	}

	return users, total, nil
}

// UpdatePassword updates only the password hash for a specific user.
func (repository *PostgresUserRepository) UpdatePassword(ctx context.Context, userID, newHash string) error {
	const query = `
		UPDATE users.account
		SET passwordhash = $2, updatedat = $3
		WHERE id = $1`

	_, err := repository.pool.Exec(ctx, query, userID, newHash, time.Now())
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_user_repo_update_password_failed: %w", err), "User")
	}

	return nil
}

// UpdateRole replaces a user's role and permission set in a single statement.
func (repository *PostgresUserRepository) UpdateRole(ctx context.Context, userID string, role sec.Role, permissions []string) error {
	const query = `
		UPDATE users.account
		SET role = $2, permissions = $3, updatedat = $4
		WHERE id = $1`

	_, err := repository.pool.Exec(ctx, query, userID, role, permissions, time.Now())
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_user_repo_update_role_failed: %w", err), "User")
	}

	return nil
}

// UpdateLastLogin stamps the login timestamp for a specific user.
func (repository *PostgresUserRepository) UpdateLastLogin(ctx context.Context, userID string) error {
	const query = "UPDATE users.account SET lastloginat = $2 WHERE id = $1"

	_, err := repository.pool.Exec(ctx, query, userID, time.Now())
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_user_repo_update_last_login_failed: %w", err), "User")
	}

	return nil
}

// SetActive toggles the soft-deactivation flag. Records are never deleted so
// attendance and project history stays intact.
func (repository *PostgresUserRepository) SetActive(ctx context.Context, userID string, active bool) error {
	const query = `
		UPDATE users.account
		SET isactive = $2, updatedat = $3
		WHERE id = $1`

	_, err := repository.pool.Exec(ctx, query, userID, active, time.Now())
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_user_repo_set_active_failed: %w", err), "User")
	}

	return nil
}

// MarkVerified sets the email-verified flag for a specific user.
func (repository *PostgresUserRepository) MarkVerified(ctx context.Context, userID string) error {
	const query = `
		UPDATE users.account
		SET emailverified = TRUE, updatedat = $2
		WHERE id = $1`

	_, err := repository.pool.Exec(ctx, query, userID, time.Now())
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_user_repo_mark_verified_failed: %w", err), "User")
	}

	return nil
}

// ── Approval Repository ──────────────────────────────────────────────────────

// PostgresApprovalRepository implements the ApprovalRepository interface using pgx.
type PostgresApprovalRepository struct {
	pool *pgxpool.Pool
}

// NewApprovalRepository creates a new PostgreSQL implementation of the ApprovalRepository.
func NewApprovalRepository(pool *pgxpool.Pool) *PostgresApprovalRepository {
	return &PostgresApprovalRepository{pool: pool}
}

const approvalColumns = `
	id, email, roles, note, isactive, createdby, updatedby, createdat, updatedat`

func scanApproval(row interface{ Scan(dest ...any) error }) (*RoleApproval, error) {
	approval := &RoleApproval{}
	err := row.Scan(
		&approval.ID,
		&approval.Email,
		&approval.Roles,
		&approval.Note,
		&approval.IsActive,
		&approval.CreatedBy,
		&approval.UpdatedBy,
		&approval.CreatedAt,
		&approval.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return approval, nil
}

// Upsert creates the approval, or overwrites the role set when one already
// exists for the email. Email is the natural key of the registry.
func (repository *PostgresApprovalRepository) Upsert(ctx context.Context, approval *RoleApproval) error {
	const query = `
		INSERT INTO users.role_approval (
			id, email, roles, note, isactive, createdby, updatedby, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (email) DO UPDATE SET
			roles = EXCLUDED.roles,
			note = EXCLUDED.note,
			isactive = EXCLUDED.isactive,
			updatedby = EXCLUDED.updatedby,
			updatedat = EXCLUDED.updatedat`

	now := time.Now()
	if approval.CreatedAt.IsZero() {
		approval.CreatedAt = now
	}
	approval.UpdatedAt = now

	_, err := repository.pool.Exec(ctx, query,
		approval.ID,
		approval.Email,
		approval.Roles,
		approval.Note,
		approval.IsActive,
		approval.CreatedBy,
		approval.UpdatedBy,
		approval.CreatedAt,
		approval.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_approval_repo_upsert_failed: %w", err), "Role approval")
	}

	return nil
}

// FindByEmail retrieves the approval for the normalized email address.
//
// # Returns
//
// Returns [apperr.NotFound] when no record exists; registration treats the
// absence as "no elevated role pre-approved".
func (repository *PostgresApprovalRepository) FindByEmail(ctx context.Context, email string) (*RoleApproval, error) {
	query := "SELECT " + approvalColumns + " FROM users.role_approval WHERE email = $1"

	approval, err := scanApproval(repository.pool.QueryRow(ctx, query, email))
	if err != nil {
		return nil, dberr.Wrap(err, "Role approval")
	}

	return approval, nil
}

// List retrieves a page of approvals ordered by creation time, newest first,
// along with the total count.
func (repository *PostgresApprovalRepository) List(ctx context.Context, limit, offset int) ([]*RoleApproval, int, error) {
	const countQuery = "SELECT COUNT(*) FROM users.role_approval"

	var total int
	if err := repository.pool.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(fmt.Errorf("postgres_approval_repo_count_failed: %w", err), "Role approval")
	}

	query := "SELECT " + approvalColumns + ` FROM users.role_approval
		ORDER BY createdat DESC
		LIMIT $1 OFFSET $2`

	rows, err := repository.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(fmt.Errorf("postgres_approval_repo_list_failed: %w", err), "Role approval")
	}
	defer rows.Close()

	approvals := make([]*RoleApproval, 0, limit)
	for rows.Next() {
		approval, err := scanApproval(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(fmt.Errorf("postgres_approval_repo_scan_failed: %w", err), "Role approval")
		}
		approvals = append(approvals, approval)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(fmt.Errorf("postgres_approval_repo_rows_failed: %w", err), "Role approval")
	}

	return approvals, total, nil
}

// Delete removes the approval for the email.
//
// # Returns
//
// Returns [apperr.NotFound] when no approval exists for the email.
func (repository *PostgresApprovalRepository) Delete(ctx context.Context, email string) error {
	const query = "DELETE FROM users.role_approval WHERE email = $1"

	tag, err := repository.pool.Exec(ctx, query, email)
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_approval_repo_delete_failed: %w", err), "Role approval")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Role approval")
	}

	return nil
}
