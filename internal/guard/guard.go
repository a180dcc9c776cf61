// Copyright (c) 2026 Procura. All rights reserved.
// Author: adhi.wirawan@procura.id

// Package guard provides the route-protection middleware for the gateway.
//
// # Architecture
//
// Every proxied route group mounts a guard built by [Protect]. The guard
// decides, per request, whether the session may reach the handlers behind it:
// not-yet-ready gateways answer with a retryable placeholder, unauthenticated
// sessions are sent to the login route, and authenticated sessions lacking
// the route's role are silently sent to the unauthorized page.
package guard

import (
	"context"
	"net/http"

	"github.com/adhiwira/procura/internal/platform/apperr"
	"github.com/adhiwira/procura/internal/platform/constants"
	requestutil "github.com/adhiwira/procura/internal/platform/request"
	"github.com/adhiwira/procura/internal/platform/respond"
	"github.com/adhiwira/procura/internal/platform/sec"
	"github.com/adhiwira/procura/internal/session"
	"github.com/adhiwira/procura/internal/tokenstore"
)

// Authority is the slice of the session manager the guard consumes.
//
// # Why an interface?
//
// Defining Authority here decouples the guard from the session package's
// concrete manager, allowing tests to script readiness and session state.
type Authority interface {
	Ready() bool
	State(sessionID string) session.State
	Logout(ctx context.Context, sessionID string)
}

// Protect builds the middleware protecting a route group for the given roles.
//
// # Flow
//  1. While startup reconciliation is still running, answer 503 with a
//     Retry-After hint. Never a redirect: the session may well turn out to be
//     valid once the durable store has been read back.
//  2. Authentication check. This MUST run before any role comparison so an
//     anonymous request always lands on the login route, never on the
//     unauthorized page.
//  3. Storage double-check: the access token and activity timestamp must
//     still exist in the durable store. An externally wiped namespace while
//     the in-memory state says authenticated is an inconsistency; the guard
//     resolves it by forcing a local logout.
//  4. Role check. A mismatch redirects to the unauthorized page with no
//     notice raised.
//
// # Parameters
//   - authority: The session Authority instance.
//   - store: Durable token store for the existence double-check.
//   - allowed: Roles admitted to this group. Empty admits any authenticated session.
//
// # Returns
//   - An [http.Handler] middleware.
func Protect(authority Authority, store tokenstore.Store, allowed ...sec.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// ── 1. Startup Placeholder ────────────────────────────────────────
			if !authority.Ready() {
				writer.Header().Set("Retry-After", "1")
				respond.Error(writer, request, apperr.ServiceUnavailable("Session state is loading, retry shortly"))
				return
			}

			sessionID := requestutil.SessionID(request)
			if sessionID == "" {
				http.Redirect(writer, request, constants.RouteLogin, http.StatusFound)
				return
			}

			// ── 2. Authentication Check ───────────────────────────────────────
			state := authority.State(sessionID)
			if !state.Authenticated() {
				http.Redirect(writer, request, constants.RouteLogin, http.StatusFound)
				return
			}

			// ── 3. Storage Double-Check ───────────────────────────────────────
			if !sessionIntact(request.Context(), store, sessionID) {
				authority.Logout(request.Context(), sessionID)
				http.Redirect(writer, request, constants.RouteLogin, http.StatusFound)
				return
			}

			// ── 4. Authorization Check ────────────────────────────────────────
			if len(allowed) > 0 && !roleAllowed(state.Role, allowed) {
				http.Redirect(writer, request, constants.RouteUnauthorized, http.StatusFound)
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// sessionIntact reports whether the durable store still holds both the access
// token and the activity timestamp for the session.
func sessionIntact(ctx context.Context, store tokenstore.Store, sessionID string) bool {
	if token, err := store.Get(ctx, sessionID, tokenstore.KeyAccessToken); err != nil || token == "" {
		return false
	}
	if stamp, err := store.Get(ctx, sessionID, tokenstore.KeyLastActivity); err != nil || stamp == "" {
		return false
	}
	return true
}

// roleAllowed reports whether role appears in the allow list.
func roleAllowed(role sec.Role, allowed []sec.Role) bool {
	for _, candidate := range allowed {
		if role == candidate {
			return true
		}
	}
	return false
}
