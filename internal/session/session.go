// Copyright (c) 2026 Procura. All rights reserved.
// Author: adhi.wirawan@procura.id

/*
Package session implements the authenticated session lifecycle for the gateway.

It is the single source of truth for "is this browser logged in, and as whom".
The durable token store is a passive mirror of the in-memory state; the two are
reconciled once at startup and kept in step by the manager on every transition.

Architecture:

  - Manager: Owns login/logout against the upstream API and all state transitions.
  - Clock: The recurring inactivity sweep (the only time-driven transition).
  - Outbox: The one-shot notification/navigation channel consumed by the SPA.

The session state is modeled as a tagged variant rather than independent
nullable flags, so a session can never be observed half-written.
*/
package session

import (
	"time"

	"github.com/adhiwira/procura/internal/platform/sec"
)

// # Session State

// Status is the lifecycle tag of a session.
type Status int

const (
	// StatusUnauthenticated is the resting state: no token, no role.
	StatusUnauthenticated Status = iota

	// StatusAuthenticating is transient, held only while a login call is in flight.
	StatusAuthenticating

	// StatusAuthenticated carries a valid role, token, and activity timestamp.
	StatusAuthenticated
)

// String returns the lowercase tag name for logs and API payloads.
func (s Status) String() string {
	switch s {
	case StatusAuthenticating:
		return "authenticating"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// State is the in-memory session variant.
//
// Role, Token and LastActivity are meaningful only when Status is
// StatusAuthenticated; they are zero otherwise.
type State struct {
	Status       Status
	Role         sec.Role
	Token        string
	LastActivity time.Time
}

// Authenticated reports whether the state carries a live identity.
func (s State) Authenticated() bool {
	return s.Status == StatusAuthenticated
}
