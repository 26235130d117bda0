// Copyright (c) 2026 RoverLabs. All rights reserved.

package auth

// # Session Store Keys

const (
	// refreshKeyPrefix namespaces the per-user refresh-token hash entries.
	// Exactly one refresh hash is stored per subject; rotation overwrites it.
	refreshKeyPrefix = "auth:refresh:"

	// blacklistKeyPrefix namespaces revoked-access-token entries. Keys are
	// the SHA-256 digest of the raw token; values carry no meaning, the TTL
	// equals the token's remaining validity.
	blacklistKeyPrefix = "auth:blacklist:"
)

// # Validation Constraints

const (
	// MinPasswordLength is the minimum accepted password length.
	MinPasswordLength = 8

	// MaxNameLength bounds first and last names.
	MaxNameLength = 100
)
