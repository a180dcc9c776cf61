// Copyright (c) 2026 Procura. All rights reserved.
// Author: adhi.wirawan@procura.id

/*
Package tokenstore implements the durable key/value mirror of session state.

Each browser session owns a small namespace of string keys (token, role codes,
activity timestamp, cached display fields). The store is a passive mirror: the
session manager is the only component that interprets the values, while the
route guard reads them directly as a freshness double-check.

Architecture:

  - Store: The injectable interface with an explicit init/teardown lifecycle.
  - Backends: Redis (multi-replica), bbolt (single node, on-disk), memory (tests).
  - Atomicity: PutAll writes a whole snapshot in one backend operation, so a
    crash mid-login can never leave a half-written session behind.

Clearing a session always wipes the ENTIRE namespace, display cache included.
Narrowing the wipe to auth keys only would let stale company data outlive a
logout, which the platform treats as a bug.
*/
package tokenstore

import (
	"context"
	"errors"
)

// # Key Layout

// Session namespace keys. The names mirror the upstream client contract and
// must not be renamed: operators inspect stores by these keys.
const (
	// KeyAccessToken is the upstream bearer credential.
	KeyAccessToken = "access_token"

	// KeyRole is the role tag string, used to build role-scoped API paths.
	KeyRole = "role"

	// KeyRoleID is the numeric role code, used for authorization checks.
	KeyRoleID = "role_id"

	// KeyLastActivity is the epoch-millis string driving inactivity expiry.
	KeyLastActivity = "lastActivity"

	// Display/profile cache, not security-relevant.
	KeyCompanyName   = "company_name"
	KeyCompanyImages = "company_images"
	KeyBPEmail       = "bp_email"
	KeyBPCode        = "bp_code"
	KeyIsVerified    = "isVerified"

	// KeyLoginError is the single-read slot holding a deferred login failure
	// message. It is consumed (read and deleted) at most once during startup
	// reconciliation.
	KeyLoginError = "login_error"
)

// ErrNotFound is returned when a key is absent from a session's namespace.
var ErrNotFound = errors.New("tokenstore: key not found")

// # Contract

// Store is the durable key/value persistence for session state.
//
// # Ownership
//
// Only the session manager and the expiry sweep may Clear a namespace; the
// route guard reads it and clears defensively on detected invalidity. All
// implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value for key in the session's namespace,
	// or ErrNotFound if the key is absent.
	Get(ctx context.Context, sessionID, key string) (string, error)

	// Put writes a single key in the session's namespace.
	Put(ctx context.Context, sessionID, key, value string) error

	// PutAll writes every field in one backend operation.
	PutAll(ctx context.Context, sessionID string, fields map[string]string) error

	// Delete removes a single key. Deleting an absent key is not an error.
	Delete(ctx context.Context, sessionID, key string) error

	// Clear wipes the session's entire namespace.
	Clear(ctx context.Context, sessionID string) error

	// Sessions lists every session ID with at least one stored key.
	Sessions(ctx context.Context) ([]string, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources owned by the store.
	Close() error
}
