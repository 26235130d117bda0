// Copyright (c) 2026 RoverLabs. All rights reserved.

package sec_test

import (
	"crypto/rand"
	"crypto/rsa"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roverlabs/clubhub/internal/platform/sec"
)

func newTestService(t *testing.T, accessTTL time.Duration) *sec.TokenService {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	return sec.NewTokenServiceFromKey(key, nil, "test-issuer", accessTTL, 7*24*time.Hour, time.Hour)
}

/*
TestTokenService_AccessRoundTrip verifies that a generated access token
carries the full identity snapshot back through Verify.
*/
func TestTokenService_AccessRoundTrip(t *testing.T) {
	service := newTestService(t, time.Hour)

	permissions := []string{"read:projects", "write:projects"}
	token, err := service.GenerateAccessToken("user-123", "ada@club.test", sec.RoleMentor, permissions)
	require.NoError(t, err)

	claims, err := service.Verify(token, sec.TokenTypeAccess)
	require.NoError(t, err)

	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "ada@club.test", claims.Email)
	assert.Equal(t, string(sec.RoleMentor), claims.Role)
	assert.Equal(t, permissions, claims.Permissions)
	assert.Equal(t, sec.TokenTypeAccess, claims.TokenType)

	// The identity conversion preserves the snapshot.
	identity := claims.Identity()
	assert.Equal(t, sec.RoleMentor, identity.Role)
	assert.True(t, identity.HasPermission("write:projects"))
	assert.False(t, identity.HasPermission("manage:users"))
}

/*
TestTokenService_Expired verifies that a token past its TTL is rejected with
the expiry sentinel.
*/
func TestTokenService_Expired(t *testing.T) {
	service := newTestService(t, -time.Minute)

	token, err := service.GenerateAccessToken("user-123", "ada@club.test", sec.RoleStudent, nil)
	require.NoError(t, err)

	_, err = service.Verify(token, sec.TokenTypeAccess)
	assert.ErrorIs(t, err, sec.ErrTokenExpired)
}

/*
TestTokenService_WrongType verifies that a refresh token presented where an
access token is expected is rejected before its claims are used.
*/
func TestTokenService_WrongType(t *testing.T) {
	service := newTestService(t, time.Hour)

	refreshToken, err := service.GenerateRefreshToken("user-123")
	require.NoError(t, err)

	_, err = service.Verify(refreshToken, sec.TokenTypeAccess)
	assert.ErrorIs(t, err, sec.ErrWrongTokenType)

	// And the same token is fine in its intended slot.
	claims, err := service.Verify(refreshToken, sec.TokenTypeRefresh)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
}

/*
TestTokenService_Tampered verifies that signature failures map onto the
invalid-token sentinel.
*/
func TestTokenService_Tampered(t *testing.T) {
	service := newTestService(t, time.Hour)

	token, err := service.GenerateAccessToken("user-123", "ada@club.test", sec.RoleStudent, nil)
	require.NoError(t, err)

	// Corrupt the signature segment.
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + "AAAA" + parts[2][4:]

	_, err = service.Verify(tampered, sec.TokenTypeAccess)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)
}

/*
TestTokenService_ForeignKey verifies that tokens signed by a different key
pair never verify.
*/
func TestTokenService_ForeignKey(t *testing.T) {
	signer := newTestService(t, time.Hour)
	verifier := newTestService(t, time.Hour)

	token, err := signer.GenerateAccessToken("user-123", "ada@club.test", sec.RoleStudent, nil)
	require.NoError(t, err)

	_, err = verifier.Verify(token, sec.TokenTypeAccess)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)
}

/*
TestTokenService_DistinctTokens verifies that two tokens minted back to back
for the same subject are distinct strings, which refresh rotation relies on.
*/
func TestTokenService_DistinctTokens(t *testing.T) {
	service := newTestService(t, time.Hour)

	first, err := service.GenerateRefreshToken("user-123")
	require.NoError(t, err)

	second, err := service.GenerateRefreshToken("user-123")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
