// Copyright (c) 2026 Procura. All rights reserved.
// Author: adhi.wirawan@procura.id

package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces gateway sessions inside a shared Redis instance.
const redisKeyPrefix = "procura:session:"

// RedisStore implements Store on a Redis hash per session.
//
// # Layout
//
// Each session is one hash at "procura:session:<sid>". PutAll maps to a
// single HSET, which makes the login snapshot write atomic on this backend.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing Redis client.
//
// The client's lifecycle is owned by the caller (it may be shared with other
// components), so Close on the store does not close the client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// redisKey builds the hash key for a session namespace.
func redisKey(sessionID string) string {
	return redisKeyPrefix + sessionID
}

/*
Get returns the value for key in the session's hash.

Parameters:
  - context: context.Context
  - sessionID: string
  - key: string

Returns:
  - string: Stored value
  - error: ErrNotFound when the field is absent, or connectivity errors
*/
func (store *RedisStore) Get(context context.Context, sessionID, key string) (string, error) {
	value, err := store.client.HGet(context, redisKey(sessionID), key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("redis_session_get_failed: %w", err)
	}
	return value, nil
}

/*
Put writes a single field in the session's hash.
*/
func (store *RedisStore) Put(context context.Context, sessionID, key, value string) error {
	if err := store.client.HSet(context, redisKey(sessionID), key, value).Err(); err != nil {
		return fmt.Errorf("redis_session_put_failed: %w", err)
	}
	return nil
}

/*
PutAll writes every field with a single HSET command.

Description: One round trip, one atomic write. A crash between login and
persistence can therefore never leave a partially-written session.
*/
func (store *RedisStore) PutAll(context context.Context, sessionID string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	flat := make([]string, 0, len(fields)*2)
	for key, value := range fields {
		flat = append(flat, key, value)
	}
	if err := store.client.HSet(context, redisKey(sessionID), flat).Err(); err != nil {
		return fmt.Errorf("redis_session_putall_failed: %w", err)
	}
	return nil
}

/*
Delete removes a single field. Absent fields are ignored.
*/
func (store *RedisStore) Delete(context context.Context, sessionID, key string) error {
	if err := store.client.HDel(context, redisKey(sessionID), key).Err(); err != nil {
		return fmt.Errorf("redis_session_delete_failed: %w", err)
	}
	return nil
}

/*
Clear wipes the session's entire hash.
*/
func (store *RedisStore) Clear(context context.Context, sessionID string) error {
	if err := store.client.Del(context, redisKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis_session_clear_failed: %w", err)
	}
	return nil
}

/*
Sessions lists every session ID with a stored hash.

Description: Uses SCAN (never KEYS) so large shared instances are not blocked.
*/
func (store *RedisStore) Sessions(context context.Context) ([]string, error) {
	var ids []string

	iter := store.client.Scan(context, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(context) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), redisKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis_session_scan_failed: %w", err)
	}

	return ids, nil
}

// Ping verifies Redis connectivity.
func (store *RedisStore) Ping(context context.Context) error {
	if err := store.client.Ping(context).Err(); err != nil {
		return fmt.Errorf("redis_session_ping_failed: %w", err)
	}
	return nil
}

// Close is a no-op; the shared Redis client is closed by its owner.
func (store *RedisStore) Close() error { return nil }
