// Copyright (c) 2026 RoverLabs. All rights reserved.

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer behind small interfaces.
package sec

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/roverlabs/clubhub/pkg/uuid"
)

// # Token Types

// Every token the service signs carries a type discriminator claim ("typ").
// Presenting a token where a different type is expected is rejected before
// any other use of the claims.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
	TokenTypeReset   = "reset"
	TokenTypeVerify  = "verify"
)

// # Verification Outcomes

// Sentinel errors distinguishing why a token was rejected. Callers decide the
// client-facing behavior (e.g. an expired access token invites a refresh
// attempt; an invalid one does not).
var (
	// ErrTokenInvalid covers malformed tokens and signature failures.
	ErrTokenInvalid = errors.New("sec: token is invalid")

	// ErrTokenExpired is returned when the embedded expiry has passed.
	ErrTokenExpired = errors.New("sec: token has expired")

	// ErrWrongTokenType is returned when the type discriminator does not
	// match the expected use (e.g. a refresh token presented as access).
	ErrWrongTokenType = errors.New("sec: unexpected token type")

	// ErrTokenRevoked is returned when a structurally valid token has been
	// explicitly invalidated before its natural expiry.
	ErrTokenRevoked = errors.New("sec: token has been revoked")
)

// AuthClaims represents the payload embedded inside a signed token.
//
// The access token carries the role and permission snapshot so the guard
// chain can authorize requests without a database read per check; the
// snapshot goes stale on role change until a new token is issued, which is
// an accepted window bounded by the access TTL.
type AuthClaims struct {
	jwt.RegisteredClaims

	// TokenType discriminates access, refresh, reset, and verify tokens.
	TokenType string `json:"typ"`

	// Custom application claims are abbreviated to keep the JWT payload small.
	Email       string   `json:"eml,omitempty"`
	Role        string   `json:"rol,omitempty"`
	Permissions []string `json:"prm,omitempty"`
}

// Identity converts the claims snapshot into a request [Identity].
func (c *AuthClaims) Identity() *Identity {
	return &Identity{
		ID:          c.Subject,
		Email:       c.Email,
		Role:        Role(c.Role),
		Permissions: c.Permissions,
	}
}

// TokenService handles generation and verification of JWT tokens using RS256.
type TokenService struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string

	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
}

// NewTokenService creates a TokenService reading RSA keys from the provided
// filesystem paths.
func NewTokenService(privateKeyPath, publicKeyPath, issuer string, accessTTL, refreshTTL, resetTTL time.Duration) (*TokenService, error) {
	privateKeyData, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to read private key from %s: %w", privateKeyPath, err)
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyData)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to parse private key: %w", err)
	}

	publicKeyData, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to read public key from %s: %w", publicKeyPath, err)
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyData)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to parse public key: %w", err)
	}

	return NewTokenServiceFromKey(privateKey, publicKey, issuer, accessTTL, refreshTTL, resetTTL), nil
}

// NewTokenServiceFromKey creates a TokenService from an in-memory RSA key
// pair. Used by tests and embedded deployments that do not read key files.
func NewTokenServiceFromKey(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, issuer string, accessTTL, refreshTTL, resetTTL time.Duration) *TokenService {
	if publicKey == nil {
		publicKey = &privateKey.PublicKey
	}
	return &TokenService{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		resetTTL:   resetTTL,
	}
}

// AccessTTL returns the configured access token lifetime.
func (service *TokenService) AccessTTL() time.Duration { return service.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (service *TokenService) RefreshTTL() time.Duration { return service.refreshTTL }

// # Issuance

// GenerateAccessToken creates a new short-lived access token carrying the
// subject's email, role, and permission snapshot.
func (service *TokenService) GenerateAccessToken(userID, email string, role Role, permissions []string) (string, error) {
	return service.generate(AuthClaims{
		TokenType:   TokenTypeAccess,
		Email:       email,
		Role:        string(role),
		Permissions: permissions,
	}, userID, service.accessTTL)
}

// GenerateRefreshToken creates a new long-lived refresh token carrying only
// the subject id and the type discriminator.
func (service *TokenService) GenerateRefreshToken(userID string) (string, error) {
	return service.generate(AuthClaims{TokenType: TokenTypeRefresh}, userID, service.refreshTTL)
}

// GenerateResetToken creates a short-lived password-reset token.
func (service *TokenService) GenerateResetToken(userID string) (string, error) {
	return service.generate(AuthClaims{TokenType: TokenTypeReset}, userID, service.resetTTL)
}

// GenerateVerifyToken creates an email-verification token. It shares the
// reset TTL's order of magnitude but lives longer since users may not check
// email immediately.
func (service *TokenService) GenerateVerifyToken(userID string) (string, error) {
	return service.generate(AuthClaims{TokenType: TokenTypeVerify}, userID, 24*time.Hour)
}

// generate signs the claims with the service key. The random jti guarantees
// two tokens minted within the same second are still distinct, which the
// refresh rotation relies on.
func (service *TokenService) generate(claims AuthClaims, userID string, ttl time.Duration) (string, error) {
	currentTime := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.New(),
		Subject:   userID,
		Issuer:    service.issuer,
		IssuedAt:  jwt.NewNumericDate(currentTime),
		ExpiresAt: jwt.NewNumericDate(currentTime.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signedToken, err := token.SignedString(service.privateKey)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// # Verification

// Verify checks the signature, expiry, and type discriminator of a token.
//
// # Returns
//   - *AuthClaims on success.
//   - [ErrTokenExpired] when the expiry has passed.
//   - [ErrWrongTokenType] when the "typ" claim mismatches expectedType.
//   - [ErrTokenInvalid] for every other structural or signature failure.
func (service *TokenService) Verify(tokenString, expectedType string) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.publicKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.TokenType != expectedType {
		return nil, ErrWrongTokenType
	}

	return claims, nil
}
