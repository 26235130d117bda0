// Copyright (c) 2026 RoverLabs. All rights reserved.

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/roverlabs/clubhub/internal/platform/apperr"
)

// RedisSessionStore implements SessionStore using Redis.
//
// Refresh-token hashes live under one key per subject so rotation is a plain
// overwrite, and blacklist entries expire on their own once the revoked access
// token would have expired anyway.
type RedisSessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a new Redis-backed SessionStore.
func NewSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

/*
SaveRefresh stores the refresh-token hash for the subject, overwriting any
previous value.

Parameters:
  - ctx: context.Context
  - userID: string
  - tokenHash: string
  - ttl: time.Duration

Returns:
  - error: Storage failures
*/
func (store *RedisSessionStore) SaveRefresh(ctx context.Context, userID, tokenHash string, ttl time.Duration) error {
	key := refreshKeyPrefix + userID

	if err := store.client.Set(ctx, key, tokenHash, ttl).Err(); err != nil {
		return fmt.Errorf("redis_session_save_refresh_failed: %w", err)
	}

	return nil
}

/*
GetRefresh retrieves the stored refresh-token hash for the subject.

Description: Returns apperr.NotFound if no hash is stored, which callers treat
as a revoked (or never persisted) refresh token.

Returns:
  - string: Stored hash
  - error: apperr.NotFound or connectivity errors
*/
func (store *RedisSessionStore) GetRefresh(ctx context.Context, userID string) (string, error) {
	key := refreshKeyPrefix + userID

	hash, err := store.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperr.NotFound("Refresh session")
		}
		return "", fmt.Errorf("redis_session_get_refresh_failed: %w", err)
	}

	return hash, nil
}

/*
DeleteRefresh removes the subject's stored refresh hash. Deleting an absent
entry is a no-op so logout stays idempotent.

Returns:
  - error: Deletion failures
*/
func (store *RedisSessionStore) DeleteRefresh(ctx context.Context, userID string) error {
	key := refreshKeyPrefix + userID

	if err := store.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis_session_delete_refresh_failed: %w", err)
	}

	return nil
}

/*
BlacklistAccess records a revoked access token by digest. The TTL equals the
token's remaining validity, so entries self-expire.

Returns:
  - error: Storage failures
*/
func (store *RedisSessionStore) BlacklistAccess(ctx context.Context, tokenDigest string, ttl time.Duration) error {
	key := blacklistKeyPrefix + tokenDigest

	if err := store.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis_session_blacklist_failed: %w", err)
	}

	return nil
}

/*
IsBlacklisted reports whether the access-token digest is on the blacklist.

Returns:
  - bool: Presence on the blacklist
  - error: Connectivity errors
*/
func (store *RedisSessionStore) IsBlacklisted(ctx context.Context, tokenDigest string) (bool, error) {
	key := blacklistKeyPrefix + tokenDigest

	count, err := store.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis_session_is_blacklisted_failed: %w", err)
	}

	return count > 0, nil
}
