// Copyright (c) 2026 Procura. All rights reserved.
// Author: adhi.wirawan@procura.id

/*
Package constants provides centralized, immutable values for the entire gateway.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Session Lifecycle: Inactivity window and expiry sweep period.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Routing: Navigation targets used by the route guard.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "procura-gateway"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Session Lifecycle

const (
	// DefaultInactivityWindow is how long a session may sit idle before forced expiry.
	DefaultInactivityWindow = 1 * time.Hour

	// DefaultExpirySweepPeriod is how often the session clock samples idle sessions.
	DefaultExpirySweepPeriod = 1 * time.Second

	// SessionCookieName is the name of the cookie carrying the signed session ID.
	SessionCookieName = "procura_sid"

	// SessionCookieMaxAge bounds the cookie lifetime. The inactivity window,
	// not the cookie, decides when a session actually dies.
	SessionCookieMaxAge = 30 * 24 * time.Hour

	// AuthIssuer is the standard 'iss' claim in signed session cookies.
	AuthIssuer = "procura.id"
)

// # Navigation Targets

const (
	// RouteLanding is the public landing page users are sent to after logout.
	RouteLanding = "/"

	// RouteLogin is where unauthenticated or expired sessions are redirected.
	RouteLogin = "/auth/login"

	// RouteUnauthorized is where authenticated users lacking a role are redirected.
	RouteUnauthorized = "/unauthorized"
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Header Identifiers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderAuthorization = "Authorization"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldMessage = "message"
	FieldStatus  = "status"
)
