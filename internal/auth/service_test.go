// Copyright (c) 2026 RoverLabs. All rights reserved.

package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roverlabs/clubhub/internal/auth"
	"github.com/roverlabs/clubhub/internal/platform/apperr"
	"github.com/roverlabs/clubhub/internal/platform/audit"
	"github.com/roverlabs/clubhub/internal/platform/notify"
	"github.com/roverlabs/clubhub/internal/platform/sec"
)

// ── In-Memory Fakes ──────────────────────────────────────────────────────────

type memUsers struct {
	mu      sync.Mutex
	byID    map[string]*auth.User
	byEmail map[string]*auth.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*auth.User{}, byEmail: map[string]*auth.User{}}
}

func (m *memUsers) Create(ctx context.Context, user *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byEmail[user.Email]; exists {
		return apperr.Conflict("Account already exists")
	}
	copied := *user
	m.byID[user.ID] = &copied
	m.byEmail[user.Email] = &copied
	return nil
}

func (m *memUsers) FindByID(ctx context.Context, id string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.byID[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, apperr.NotFound("User")
}

func (m *memUsers) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.byEmail[email]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, apperr.NotFound("User")
}

func (m *memUsers) List(ctx context.Context, limit, offset int) ([]*auth.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]*auth.User, 0, len(m.byID))
	for _, user := range m.byID {
		copied := *user
		users = append(users, &copied)
	}
	return users, len(users), nil
}

func (m *memUsers) UpdatePassword(ctx context.Context, userID, newHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.byID[userID]; ok {
		user.PasswordHash = newHash
		return nil
	}
	return apperr.NotFound("User")
}

func (m *memUsers) UpdateRole(ctx context.Context, userID string, role sec.Role, permissions []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.byID[userID]; ok {
		user.Role = role
		user.Permissions = permissions
		return nil
	}
	return apperr.NotFound("User")
}

func (m *memUsers) UpdateLastLogin(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.byID[userID]; ok {
		now := time.Now()
		user.LastLoginAt = &now
	}
	return nil
}

func (m *memUsers) SetActive(ctx context.Context, userID string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.byID[userID]; ok {
		user.IsActive = active
		return nil
	}
	return apperr.NotFound("User")
}

func (m *memUsers) MarkVerified(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.byID[userID]; ok {
		user.EmailVerified = true
		return nil
	}
	return apperr.NotFound("User")
}

type memApprovals struct {
	mu      sync.Mutex
	byEmail map[string]*auth.RoleApproval
}

func newMemApprovals() *memApprovals {
	return &memApprovals{byEmail: map[string]*auth.RoleApproval{}}
}

func (m *memApprovals) Upsert(ctx context.Context, approval *auth.RoleApproval) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *approval
	m.byEmail[approval.Email] = &copied
	return nil
}

func (m *memApprovals) FindByEmail(ctx context.Context, email string) (*auth.RoleApproval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if approval, ok := m.byEmail[email]; ok {
		copied := *approval
		return &copied, nil
	}
	return nil, apperr.NotFound("Role approval")
}

func (m *memApprovals) List(ctx context.Context, limit, offset int) ([]*auth.RoleApproval, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	approvals := make([]*auth.RoleApproval, 0, len(m.byEmail))
	for _, approval := range m.byEmail {
		copied := *approval
		approvals = append(approvals, &copied)
	}
	return approvals, len(approvals), nil
}

func (m *memApprovals) Delete(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[email]; !ok {
		return apperr.NotFound("Role approval")
	}
	delete(m.byEmail, email)
	return nil
}

type memSessions struct {
	mu        sync.Mutex
	refresh   map[string]string
	blacklist map[string]bool
}

func newMemSessions() *memSessions {
	return &memSessions{refresh: map[string]string{}, blacklist: map[string]bool{}}
}

func (m *memSessions) SaveRefresh(ctx context.Context, userID, tokenHash string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refresh[userID] = tokenHash
	return nil
}

func (m *memSessions) GetRefresh(ctx context.Context, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hash, ok := m.refresh[userID]; ok {
		return hash, nil
	}
	return "", apperr.NotFound("Refresh session")
}

func (m *memSessions) DeleteRefresh(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.refresh, userID)
	return nil
}

func (m *memSessions) BlacklistAccess(ctx context.Context, tokenDigest string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blacklist[tokenDigest] = true
	return nil
}

func (m *memSessions) IsBlacklisted(ctx context.Context, tokenDigest string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blacklist[tokenDigest], nil
}

// ── Fixture ──────────────────────────────────────────────────────────────────

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testTokenService shares one RSA key across the package to keep tests fast.
func testTokenService(t *testing.T) *sec.TokenService {
	t.Helper()
	testKeyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		testKey = key
	})
	return sec.NewTokenServiceFromKey(testKey, nil, "test-issuer", time.Hour, 7*24*time.Hour, time.Hour)
}

type fixture struct {
	service   *auth.Service
	users     *memUsers
	approvals *memApprovals
	sessions  *memSessions
	tokens    *sec.TokenService
}

// newFixture wires a Service over in-memory fakes. With stateless=true the
// session store is nil, exercising the degraded mode.
func newFixture(t *testing.T, stateless bool) *fixture {
	t.Helper()

	f := &fixture{
		users:     newMemUsers(),
		approvals: newMemApprovals(),
		tokens:    testTokenService(t),
	}

	var store auth.SessionStore
	if !stateless {
		f.sessions = newMemSessions()
		store = f.sessions
	}

	logger := notify.NewLogNotifier(testLogger())
	f.service = auth.NewService(f.users, f.approvals, store, f.tokens, audit.Discard{}, logger, 4)
	return f
}

func (f *fixture) register(t *testing.T, email string, role string) *auth.AuthResult {
	t.Helper()
	result, err := f.service.Register(context.Background(), auth.RegisterInput{
		Email:       email,
		Password:    "hunter2-secret",
		FirstName:   "Ada",
		LastName:    "Lovelace",
		DesiredRole: role,
	})
	require.NoError(t, err)
	return result
}

// ── Registration ─────────────────────────────────────────────────────────────

/*
TestRegister_DefaultRole verifies that a plain registration lands on the
default tier with derived permissions and working tokens.
*/
func TestRegister_DefaultRole(t *testing.T) {
	f := newFixture(t, false)

	result := f.register(t, "Ada@Club.Test", "")

	// 1. Email is normalized, role and permissions derived.
	assert.Equal(t, "ada@club.test", result.User.Email)
	assert.Equal(t, sec.RoleStudent, result.User.Role)
	assert.Equal(t, sec.DefaultPermissions(sec.RoleStudent), result.User.Permissions)
	assert.True(t, result.User.IsActive)
	assert.False(t, result.User.EmailVerified)
	assert.Empty(t, result.Notice)

	// 2. The issued pair is typed correctly.
	claims, err := f.tokens.Verify(result.Tokens.AccessToken, sec.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.Subject)

	_, err = f.tokens.Verify(result.Tokens.RefreshToken, sec.TokenTypeRefresh)
	require.NoError(t, err)

	// 3. The refresh hash landed in the session store.
	_, err = f.sessions.GetRefresh(context.Background(), result.User.ID)
	assert.NoError(t, err)
}

/*
TestRegister_PasswordHashed verifies that the plaintext never reaches storage.
*/
func TestRegister_PasswordHashed(t *testing.T) {
	f := newFixture(t, false)

	result := f.register(t, "ada@club.test", "")

	stored, err := f.users.FindByID(context.Background(), result.User.ID)
	require.NoError(t, err)

	assert.NotEqual(t, "hunter2-secret", stored.PasswordHash)
	assert.True(t, sec.CheckPasswordHash("hunter2-secret", stored.PasswordHash))
	assert.False(t, sec.CheckPasswordHash("wrong-password", stored.PasswordHash))
}

/*
TestRegister_DowngradeWithoutApproval verifies that an un-approved elevated
role request succeeds at the default tier with an explanatory notice.
*/
func TestRegister_DowngradeWithoutApproval(t *testing.T) {
	f := newFixture(t, false)

	result := f.register(t, "ada@club.test", "mentor")

	assert.Equal(t, sec.RoleStudent, result.User.Role)
	assert.NotEmpty(t, result.Notice)
	assert.Contains(t, result.Notice, "mentor")
}

/*
TestRegister_ApprovedRole verifies that a pre-approved email self-assigns the
elevated role with its derived permissions.
*/
func TestRegister_ApprovedRole(t *testing.T) {
	f := newFixture(t, false)

	require.NoError(t, f.approvals.Upsert(context.Background(), &auth.RoleApproval{
		ID:       "approval-1",
		Email:    "ada@club.test",
		Roles:    []sec.Role{sec.RoleMentor, sec.RoleResearcher},
		IsActive: true,
	}))

	result := f.register(t, "ada@club.test", "mentor")

	assert.Equal(t, sec.RoleMentor, result.User.Role)
	assert.Equal(t, sec.DefaultPermissions(sec.RoleMentor), result.User.Permissions)
	assert.Empty(t, result.Notice)
}

/*
TestRegister_InactiveApprovalIgnored verifies that a deactivated registry
entry does not grant anything.
*/
func TestRegister_InactiveApprovalIgnored(t *testing.T) {
	f := newFixture(t, false)

	require.NoError(t, f.approvals.Upsert(context.Background(), &auth.RoleApproval{
		ID:       "approval-1",
		Email:    "ada@club.test",
		Roles:    []sec.Role{sec.RoleMentor},
		IsActive: false,
	}))

	result := f.register(t, "ada@club.test", "mentor")
	assert.Equal(t, sec.RoleStudent, result.User.Role)
	assert.NotEmpty(t, result.Notice)
}

/*
TestRegister_DuplicateEmail verifies the Conflict mapping.
*/
func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t, false)

	f.register(t, "ada@club.test", "")

	_, err := f.service.Register(context.Background(), auth.RegisterInput{
		Email:     "ADA@club.test", // same address after normalization
		Password:  "hunter2-secret",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusConflict, appError.HTTPStatus)
}

/*
TestRegister_UnknownRole verifies that an unparseable role name is a
validation error, not a silent downgrade.
*/
func TestRegister_UnknownRole(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.service.Register(context.Background(), auth.RegisterInput{
		Email:       "ada@club.test",
		Password:    "hunter2-secret",
		FirstName:   "Ada",
		LastName:    "Lovelace",
		DesiredRole: "superuser",
	})
	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusBadRequest, appError.HTTPStatus)
}

// ── Login ────────────────────────────────────────────────────────────────────

/*
TestLogin verifies the credential checks and the enumeration-safe failure
messages.
*/
func TestLogin(t *testing.T) {
	f := newFixture(t, false)
	registered := f.register(t, "ada@club.test", "")

	t.Run("success stamps last login", func(t *testing.T) {
		result, err := f.service.Login(context.Background(), auth.LoginInput{
			Email:    "ada@club.test",
			Password: "hunter2-secret",
		})
		require.NoError(t, err)
		assert.Equal(t, registered.User.ID, result.User.ID)
		assert.NotEmpty(t, result.Tokens.AccessToken)

		stored, err := f.users.FindByID(context.Background(), registered.User.ID)
		require.NoError(t, err)
		assert.NotNil(t, stored.LastLoginAt)
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		_, wrongPassword := f.service.Login(context.Background(), auth.LoginInput{
			Email:    "ada@club.test",
			Password: "wrong-password",
		})
		_, unknownEmail := f.service.Login(context.Background(), auth.LoginInput{
			Email:    "nobody@club.test",
			Password: "hunter2-secret",
		})
		require.Error(t, wrongPassword)
		require.Error(t, unknownEmail)
		assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
		assert.Equal(t, http.StatusUnauthorized, apperr.As(wrongPassword).HTTPStatus)
	})

	t.Run("deactivated account is forbidden", func(t *testing.T) {
		require.NoError(t, f.users.SetActive(context.Background(), registered.User.ID, false))
		defer func() {
			require.NoError(t, f.users.SetActive(context.Background(), registered.User.ID, true))
		}()

		_, err := f.service.Login(context.Background(), auth.LoginInput{
			Email:    "ada@club.test",
			Password: "hunter2-secret",
		})
		require.Error(t, err)
		assert.Equal(t, http.StatusForbidden, apperr.As(err).HTTPStatus)
	})
}

/*
TestLogin_DesiredRoleNotice verifies that the optional role field answers
with a notice and never mutates the stored role.
*/
func TestLogin_DesiredRoleNotice(t *testing.T) {
	f := newFixture(t, false)
	registered := f.register(t, "ada@club.test", "")

	// Not approved: informative refusal.
	result, err := f.service.Login(context.Background(), auth.LoginInput{
		Email:       "ada@club.test",
		Password:    "hunter2-secret",
		DesiredRole: "mentor",
	})
	require.NoError(t, err)
	assert.Equal(t, sec.RoleStudent, result.User.Role)
	assert.Contains(t, result.Notice, "not pre-approved")

	// Approved: the notice flips, the stored role still does not move.
	require.NoError(t, f.approvals.Upsert(context.Background(), &auth.RoleApproval{
		ID:       "approval-1",
		Email:    "ada@club.test",
		Roles:    []sec.Role{sec.RoleMentor},
		IsActive: true,
	}))

	result, err = f.service.Login(context.Background(), auth.LoginInput{
		Email:       "ada@club.test",
		Password:    "hunter2-secret",
		DesiredRole: "mentor",
	})
	require.NoError(t, err)
	assert.Contains(t, result.Notice, "pre-approved")

	stored, err := f.users.FindByID(context.Background(), registered.User.ID)
	require.NoError(t, err)
	assert.Equal(t, sec.RoleStudent, stored.Role)
}

// ── Refresh & Rotation ───────────────────────────────────────────────────────

/*
TestRefresh_Rotation verifies the single-use property of refresh tokens when
a session store is present.
*/
func TestRefresh_Rotation(t *testing.T) {
	f := newFixture(t, false)
	registered := f.register(t, "ada@club.test", "")

	// 1. First rotation succeeds and yields a distinct pair.
	rotated, err := f.service.Refresh(context.Background(), registered.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, registered.Tokens.RefreshToken, rotated.Tokens.RefreshToken)

	// 2. Replaying the consumed token fails.
	_, err = f.service.Refresh(context.Background(), registered.Tokens.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apperr.As(err).HTTPStatus)

	// 3. The rotated token works.
	_, err = f.service.Refresh(context.Background(), rotated.Tokens.RefreshToken)
	assert.NoError(t, err)
}

/*
TestRefresh_RejectsAccessToken verifies the type discriminator at the refresh
boundary.
*/
func TestRefresh_RejectsAccessToken(t *testing.T) {
	f := newFixture(t, false)
	registered := f.register(t, "ada@club.test", "")

	_, err := f.service.Refresh(context.Background(), registered.Tokens.AccessToken)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apperr.As(err).HTTPStatus)
}

/*
TestRefresh_DeactivatedSubject verifies that a deactivated account cannot
rotate its way back in.
*/
func TestRefresh_DeactivatedSubject(t *testing.T) {
	f := newFixture(t, false)
	registered := f.register(t, "ada@club.test", "")

	require.NoError(t, f.users.SetActive(context.Background(), registered.User.ID, false))

	_, err := f.service.Refresh(context.Background(), registered.Tokens.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apperr.As(err).HTTPStatus)
}

/*
TestRefresh_Stateless verifies the degraded mode: without a session store a
signed, unexpired refresh token always rotates — replay detection is
documented as unavailable.
*/
func TestRefresh_Stateless(t *testing.T) {
	f := newFixture(t, true)
	registered := f.register(t, "ada@club.test", "")

	// Logout is a no-op without a store.
	require.NoError(t, f.service.Logout(context.Background(), registered.User.ID, registered.Tokens.AccessToken))

	rotated, err := f.service.Refresh(context.Background(), registered.Tokens.RefreshToken)
	require.NoError(t, err)

	// Even the consumed token still works: no stored hash to compare against.
	_, err = f.service.Refresh(context.Background(), registered.Tokens.RefreshToken)
	assert.NoError(t, err)
	assert.NotEqual(t, registered.Tokens.RefreshToken, rotated.Tokens.RefreshToken)
}

// ── Logout & Revocation ──────────────────────────────────────────────────────

/*
TestLogout verifies that logout kills both halves of the pair when a session
store is present.
*/
func TestLogout(t *testing.T) {
	f := newFixture(t, false)
	registered := f.register(t, "ada@club.test", "")

	require.NoError(t, f.service.Logout(context.Background(), registered.User.ID, registered.Tokens.AccessToken))

	// 1. The refresh token is revoked.
	_, err := f.service.Refresh(context.Background(), registered.Tokens.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, "Refresh token has been revoked", err.Error())

	// 2. The access token is blacklisted for its remaining validity.
	_, err = f.service.ResolveAccess(context.Background(), registered.Tokens.AccessToken)
	require.Error(t, err)
	assert.Equal(t, "Token has been revoked", err.Error())

	// 3. Logout is idempotent.
	assert.NoError(t, f.service.Logout(context.Background(), registered.User.ID, registered.Tokens.AccessToken))
}

// ── Password Flows ───────────────────────────────────────────────────────────

/*
TestChangePassword verifies the current-password gate and the session
revocation side effect.
*/
func TestChangePassword(t *testing.T) {
	f := newFixture(t, false)
	registered := f.register(t, "ada@club.test", "")

	t.Run("wrong current password", func(t *testing.T) {
		err := f.service.ChangePassword(context.Background(), registered.User.ID, "wrong-password", "brand-new-secret")
		require.Error(t, err)
		assert.Equal(t, http.StatusUnauthorized, apperr.As(err).HTTPStatus)
	})

	t.Run("success revokes the refresh session", func(t *testing.T) {
		require.NoError(t, f.service.ChangePassword(context.Background(), registered.User.ID, "hunter2-secret", "brand-new-secret"))

		_, err := f.service.Refresh(context.Background(), registered.Tokens.RefreshToken)
		require.Error(t, err)

		// The new password logs in; the old one does not.
		_, err = f.service.Login(context.Background(), auth.LoginInput{Email: "ada@club.test", Password: "brand-new-secret"})
		assert.NoError(t, err)
		_, err = f.service.Login(context.Background(), auth.LoginInput{Email: "ada@club.test", Password: "hunter2-secret"})
		assert.Error(t, err)
	})
}

/*
TestPasswordResetFlow verifies the typed reset token end to end.
*/
func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t, false)
	registered := f.register(t, "ada@club.test", "")

	// Unknown emails do not error (enumeration safety).
	assert.NoError(t, f.service.RequestPasswordReset(context.Background(), "nobody@club.test"))

	resetToken, err := f.tokens.GenerateResetToken(registered.User.ID)
	require.NoError(t, err)

	require.NoError(t, f.service.ResetPassword(context.Background(), resetToken, "reset-secret-99"))

	_, err = f.service.Login(context.Background(), auth.LoginInput{Email: "ada@club.test", Password: "reset-secret-99"})
	assert.NoError(t, err)

	// An access token is not a reset token.
	err = f.service.ResetPassword(context.Background(), registered.Tokens.AccessToken, "sneaky-secret-1")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apperr.As(err).HTTPStatus)
}

/*
TestVerifyEmail verifies the typed verification token flips the flag.
*/
func TestVerifyEmail(t *testing.T) {
	f := newFixture(t, false)
	registered := f.register(t, "ada@club.test", "")

	verifyToken, err := f.tokens.GenerateVerifyToken(registered.User.ID)
	require.NoError(t, err)

	require.NoError(t, f.service.VerifyEmail(context.Background(), verifyToken))

	stored, err := f.users.FindByID(context.Background(), registered.User.ID)
	require.NoError(t, err)
	assert.True(t, stored.EmailVerified)

	// Wrong type is rejected.
	err = f.service.VerifyEmail(context.Background(), registered.Tokens.AccessToken)
	assert.Error(t, err)
}

// ── Access Resolution ────────────────────────────────────────────────────────

/*
TestResolveAccess verifies the guard-facing resolution path: claims snapshot,
live account check, and revocation.
*/
func TestResolveAccess(t *testing.T) {
	f := newFixture(t, false)
	registered := f.register(t, "ada@club.test", "")

	t.Run("valid token yields the snapshot", func(t *testing.T) {
		identity, err := f.service.ResolveAccess(context.Background(), registered.Tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, registered.User.ID, identity.ID)
		assert.Equal(t, sec.RoleStudent, identity.Role)
		assert.Equal(t, sec.DefaultPermissions(sec.RoleStudent), identity.Permissions)
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, err := f.service.ResolveAccess(context.Background(), "not-a-token")
		require.Error(t, err)
		assert.Equal(t, http.StatusUnauthorized, apperr.As(err).HTTPStatus)
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		_, err := f.service.ResolveAccess(context.Background(), registered.Tokens.RefreshToken)
		assert.Error(t, err)
	})

	t.Run("deactivation takes effect immediately", func(t *testing.T) {
		require.NoError(t, f.users.SetActive(context.Background(), registered.User.ID, false))
		defer func() {
			require.NoError(t, f.users.SetActive(context.Background(), registered.User.ID, true))
		}()

		_, err := f.service.ResolveAccess(context.Background(), registered.Tokens.AccessToken)
		require.Error(t, err)
		assert.Equal(t, "Account has been deactivated", err.Error())
	})
}
