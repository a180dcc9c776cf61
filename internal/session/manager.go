// Copyright (c) 2026 Procura. All rights reserved.
// Author: adhi.wirawan@procura.id

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adhiwira/procura/internal/platform/constants"
	"github.com/adhiwira/procura/internal/platform/sec"
	"github.com/adhiwira/procura/internal/tokenstore"
	"github.com/adhiwira/procura/internal/upstream"
)

// # User-Facing Messages

// Exact wording is not load-bearing; levels and delivery points are.
const (
	// MessageServerError replaces upstream transport failures that carry no
	// human-readable text of their own.
	MessageServerError = "Server error, please try again later."

	// MessageSessionExpired announces a forced inactivity expiry.
	MessageSessionExpired = "Your session has expired due to inactivity."

	// MessageTokenMissing is emitted when logout finds no stored token.
	MessageTokenMissing = "No active session token found."

	// MessageLoggedOut confirms a server-acknowledged logout.
	MessageLoggedOut = "You have been logged out."

	// MessageCredentialsRequired rejects empty login input locally. Format
	// validation beyond non-empty is the upstream's job.
	MessageCredentialsRequired = "Email and password are required."

	// MessageLoginRejected covers a status=false payload with no message.
	MessageLoginRejected = "Login was rejected by the server."
)

// # Contracts

// Gateway is the slice of the upstream API the manager consumes.
//
// # Why an interface?
//
// Defining Gateway here decouples the manager from the HTTP client
// implementation, allowing tests to inject scripted responses.
type Gateway interface {
	Login(ctx context.Context, identifier, secret string) (*upstream.LoginResponse, error)
	Logout(ctx context.Context, accessToken string) error
}

// # Manager

// Manager owns the session state machine for every browser the gateway serves.
//
// # Ownership
//
// The manager is the only component permitted to perform upstream login and
// logout calls, and the only writer of in-memory session state. The token
// store is its durable mirror.
type Manager struct {
	store    tokenstore.Store
	gateway  Gateway
	notifier Notifier
	log      *slog.Logger

	// now is injectable so expiry tests can simulate time passage.
	now              func() time.Time
	inactivityWindow time.Duration

	mu       sync.RWMutex
	sessions map[string]State

	// ready flips once startup reconciliation has rebuilt the in-memory map
	// from the durable store. The route guard renders a loading placeholder
	// (never a redirect) while this is false.
	ready atomic.Bool
}

// Option customizes a Manager at construction time.
type Option func(*Manager)

// WithClock overrides the time source. Tests use this to cross the
// inactivity boundary without real delays.
func WithClock(now func() time.Time) Option {
	return func(manager *Manager) { manager.now = now }
}

// WithInactivityWindow overrides the forced-expiry threshold.
func WithInactivityWindow(window time.Duration) Option {
	return func(manager *Manager) { manager.inactivityWindow = window }
}

// NewManager constructs a Manager with its dependencies injected.
func NewManager(store tokenstore.Store, gateway Gateway, notifier Notifier, logger *slog.Logger, options ...Option) *Manager {
	manager := &Manager{
		store:            store,
		gateway:          gateway,
		notifier:         notifier,
		log:              logger,
		now:              time.Now,
		inactivityWindow: constants.DefaultInactivityWindow,
		sessions:         make(map[string]State),
	}
	for _, option := range options {
		option(manager)
	}
	return manager
}

// # State Queries

// Ready reports whether startup reconciliation has completed.
func (manager *Manager) Ready() bool {
	return manager.ready.Load()
}

// State returns the in-memory state for a session. Unknown sessions are
// unauthenticated.
func (manager *Manager) State(sessionID string) State {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return manager.sessions[sessionID]
}

// setState replaces the in-memory state for a session.
func (manager *Manager) setState(sessionID string, state State) {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	manager.sessions[sessionID] = state
}

// deleteState removes the in-memory state for a session, returning it to the
// implicit unauthenticated resting state.
func (manager *Manager) deleteState(sessionID string) {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	delete(manager.sessions, sessionID)
}

// authenticatedSessions snapshots the IDs currently in the authenticated state.
func (manager *Manager) authenticatedSessions() []string {
	manager.mu.RLock()
	defer manager.mu.RUnlock()

	ids := make([]string, 0, len(manager.sessions))
	for sessionID, state := range manager.sessions {
		if state.Status == StatusAuthenticated {
			ids = append(ids, sessionID)
		}
	}
	return ids
}

// # Authentication Flow

/*
Login authenticates the session against the upstream API.

Description: Validates non-empty credentials, performs the upstream call, and
on confirmed success persists the full session snapshot in one store write
before flipping the in-memory state. Failures never mutate the store.

Parameters:
  - context: context.Context
  - sessionID: Gateway session the credentials belong to
  - identifier: string (email)
  - secret: string (password)

Returns:
  - bool: true only when the upstream payload's status flag is true. Errors
    never propagate to the caller; they become notices on the session's outbox.

Concurrency: a second login for the same session while one is outstanding is
not prevented here — the UI disables its submit control. Re-entrancy is a
caller responsibility.
*/
func (manager *Manager) Login(context context.Context, sessionID, identifier, secret string) bool {

	// Only non-empty is checked locally; the upstream owns real validation.
	if strings.TrimSpace(identifier) == "" || strings.TrimSpace(secret) == "" {
		manager.notifier.Notify(sessionID, Notice{Level: LevelError, Message: MessageCredentialsRequired})
		return false
	}

	// Transient state while the call is in flight. The prior state is kept
	// so a failed re-login leaves an already-authenticated session exactly
	// as it was.
	priorState := manager.State(sessionID)
	manager.setState(sessionID, State{Status: StatusAuthenticating})

	response, err := manager.gateway.Login(context, identifier, secret)
	if err != nil {
		manager.failLogin(sessionID, priorState, userMessage(err))
		manager.log.Warn("session_login_failed",
			slog.String("session_id", sessionID),
			slog.Any("error", err),
		)
		return false
	}

	// The upstream can reject with a 2xx carrying status=false.
	if !response.Status {
		message := response.Message
		if message == "" {
			message = MessageLoginRejected
		}
		manager.failLogin(sessionID, priorState, message)
		return false
	}

	// Persist the full snapshot in a single store operation so a crash can
	// never leave a half-written session behind.
	currentTime := manager.now()
	fields := map[string]string{
		tokenstore.KeyAccessToken:   response.AccessToken,
		tokenstore.KeyRole:          response.RoleTags,
		tokenstore.KeyRoleID:        response.RoleID,
		tokenstore.KeyLastActivity:  formatMillis(currentTime),
		tokenstore.KeyCompanyName:   response.CompanyName,
		tokenstore.KeyCompanyImages: response.CompanyProfile,
		tokenstore.KeyBPEmail:       identifier,
		tokenstore.KeyBPCode:        response.BPCode,
		tokenstore.KeyIsVerified:    strconv.FormatBool(response.ProfileVerifiedAt != ""),
	}
	if err := manager.store.PutAll(context, sessionID, fields); err != nil {
		manager.failLogin(sessionID, priorState, MessageServerError)
		manager.log.Error("session_persist_failed",
			slog.String("session_id", sessionID),
			slog.Any("error", err),
		)
		return false
	}

	manager.setState(sessionID, State{
		Status:       StatusAuthenticated,
		Role:         sec.FromCode(response.RoleID),
		Token:        response.AccessToken,
		LastActivity: currentTime,
	})

	manager.notifier.Notify(sessionID, Notice{
		Level:   LevelSuccess,
		Message: fmt.Sprintf("Welcome back, %s", response.CompanyName),
	})

	manager.log.Info("session_authenticated",
		slog.String("session_id", sessionID),
		slog.String("role", sec.FromCode(response.RoleID).Tag()),
	)
	return true
}

// failLogin undoes the transient authenticating state and delivers the
// failure message through the one-shot notice channel. A failed login must
// cause no state change: sessions that were authenticated before the attempt
// are restored, everything else returns to the unauthenticated resting
// state. The durable store is never touched on a failed login.
func (manager *Manager) failLogin(sessionID string, priorState State, message string) {
	if priorState.Status == StatusAuthenticated {
		manager.setState(sessionID, priorState)
	} else {
		manager.deleteState(sessionID)
	}
	manager.notifier.Notify(sessionID, Notice{Level: LevelError, Message: message})
}

/*
Logout terminates the session, best-effort on the server side.

Description: Attempts the upstream logout when a token is stored, then —
regardless of the outcome — clears the ENTIRE token store namespace, resets
the in-memory state, and navigates the browser to the public landing route.
Logout must never strand the user in a broken authenticated UI, so every path
through this method ends in a clean unauthenticated state.

Parameters:
  - context: context.Context
  - sessionID: Gateway session to terminate
*/
func (manager *Manager) Logout(context context.Context, sessionID string) {
	token, err := manager.store.Get(context, sessionID, tokenstore.KeyAccessToken)

	switch {
	case err != nil || token == "":
		// Missing token is reported but never blocks the local transition.
		if err != nil && !errors.Is(err, tokenstore.ErrNotFound) {
			manager.log.Error("session_logout_store_read_failed",
				slog.String("session_id", sessionID),
				slog.Any("error", err),
			)
		}
		manager.notifier.Notify(sessionID, Notice{Level: LevelError, Message: MessageTokenMissing})

	default:
		if logoutErr := manager.gateway.Logout(context, token); logoutErr != nil {
			manager.notifier.Notify(sessionID, Notice{
				Level:   LevelError,
				Message: fmt.Sprintf("Logout failed: %s", userMessage(logoutErr)),
			})
		} else {
			manager.notifier.Notify(sessionID, Notice{Level: LevelSuccess, Message: MessageLoggedOut})
		}
	}

	// Terminal clean-up runs unconditionally.
	if err := manager.store.Clear(context, sessionID); err != nil {
		manager.log.Error("session_logout_clear_failed",
			slog.String("session_id", sessionID),
			slog.Any("error", err),
		)
	}
	manager.deleteState(sessionID)
	manager.notifier.Redirect(sessionID, constants.RouteLanding)
}

// # Startup Reconciliation

/*
Reconcile rebuilds the in-memory session map from the durable store.

Description: In-memory state does not survive a gateway restart; the store
does. Sessions with a stored token and role code come back authenticated,
incomplete remnants are defensively wiped. A deferred login error left in the
single-read slot is delivered exactly once and deleted.

Parameters:
  - context: context.Context

Returns:
  - error: Store enumeration failures. Per-session inconsistencies are
    resolved in place, never returned.
*/
func (manager *Manager) Reconcile(context context.Context) error {
	sessionIDs, err := manager.store.Sessions(context)
	if err != nil {
		return fmt.Errorf("session_reconcile_scan_failed: %w", err)
	}

	for _, sessionID := range sessionIDs {
		manager.reconcileOne(context, sessionID)
	}

	manager.ready.Store(true)
	manager.log.Info("session_reconciliation_complete", slog.Int("sessions", len(sessionIDs)))
	return nil
}

// reconcileOne restores or discards a single persisted session.
func (manager *Manager) reconcileOne(context context.Context, sessionID string) {

	// At-most-once delivery of a deferred login failure message.
	if message, err := manager.store.Get(context, sessionID, tokenstore.KeyLoginError); err == nil && message != "" {
		manager.notifier.Notify(sessionID, Notice{Level: LevelError, Message: message})
		_ = manager.store.Delete(context, sessionID, tokenstore.KeyLoginError)
	}

	token, tokenErr := manager.store.Get(context, sessionID, tokenstore.KeyAccessToken)
	roleID, roleErr := manager.store.Get(context, sessionID, tokenstore.KeyRoleID)

	// Token and role must both be present; anything less is an incomplete
	// remnant and gets wiped rather than trusted.
	if tokenErr != nil || roleErr != nil || token == "" || roleID == "" {
		if err := manager.store.Clear(context, sessionID); err != nil {
			manager.log.Error("session_reconcile_clear_failed",
				slog.String("session_id", sessionID),
				slog.Any("error", err),
			)
		}
		manager.deleteState(sessionID)
		return
	}

	var lastActivity time.Time
	if raw, err := manager.store.Get(context, sessionID, tokenstore.KeyLastActivity); err == nil {
		if millis, parseErr := strconv.ParseInt(raw, 10, 64); parseErr == nil {
			lastActivity = time.UnixMilli(millis)
		}
	}

	manager.setState(sessionID, State{
		Status:       StatusAuthenticated,
		Role:         sec.FromCode(roleID),
		Token:        token,
		LastActivity: lastActivity,
	})
}

// # Activity & Expiry

// StampActivity refreshes the session's lastActivity timestamp.
//
// Called on every guarded request while authenticated. This is the ONLY
// writer of the timestamp after login; the expiry sweep only reads it.
func (manager *Manager) StampActivity(context context.Context, sessionID string) {
	if manager.State(sessionID).Status != StatusAuthenticated {
		return
	}
	if _, err := manager.store.Get(context, sessionID, tokenstore.KeyAccessToken); err != nil {
		return
	}

	currentTime := manager.now()
	if err := manager.store.Put(context, sessionID, tokenstore.KeyLastActivity, formatMillis(currentTime)); err != nil {
		manager.log.Error("session_stamp_failed",
			slog.String("session_id", sessionID),
			slog.Any("error", err),
		)
		return
	}

	manager.mu.Lock()
	if state, ok := manager.sessions[sessionID]; ok {
		state.LastActivity = currentTime
		manager.sessions[sessionID] = state
	}
	manager.mu.Unlock()
}

// SweepExpired force-expires every authenticated session whose inactivity
// exceeds the window. Level-triggered and safe to evaluate redundantly; the
// clock calls it every tick.
func (manager *Manager) SweepExpired(context context.Context) {
	if !manager.ready.Load() {
		return
	}
	for _, sessionID := range manager.authenticatedSessions() {
		manager.sweepOne(context, sessionID)
	}
}

// sweepOne evaluates a single session against the inactivity window.
//
// Timestamps are read fresh from the store, not from the in-memory mirror, so
// a wipe performed by another gateway replica is observed here too.
func (manager *Manager) sweepOne(context context.Context, sessionID string) {
	if _, err := manager.store.Get(context, sessionID, tokenstore.KeyAccessToken); err != nil {
		return
	}

	raw, err := manager.store.Get(context, sessionID, tokenstore.KeyLastActivity)
	if err != nil {
		// Absent timestamp: nothing to do this tick.
		return
	}

	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		manager.log.Warn("session_activity_unparseable",
			slog.String("session_id", sessionID),
			slog.String("raw", raw),
		)
		return
	}

	elapsed := manager.now().Sub(time.UnixMilli(millis))
	if elapsed <= manager.inactivityWindow {
		return
	}

	// Forced expiry: clear everything, notify, send the browser to login.
	if clearErr := manager.store.Clear(context, sessionID); clearErr != nil {
		manager.log.Error("session_expire_clear_failed",
			slog.String("session_id", sessionID),
			slog.Any("error", clearErr),
		)
	}
	manager.deleteState(sessionID)
	manager.notifier.Notify(sessionID, Notice{Level: LevelError, Message: MessageSessionExpired})
	manager.notifier.Redirect(sessionID, constants.RouteLogin)

	manager.log.Info("session_expired",
		slog.String("session_id", sessionID),
		slog.Duration("idle", elapsed),
	)
}

// # Snapshots

// Snapshot is the SPA-facing view of a session: authentication state plus the
// cached display fields.
type Snapshot struct {
	Authenticated bool   `json:"authenticated"`
	RoleCode      string `json:"role_id,omitempty"`
	RoleTag       string `json:"role,omitempty"`
	RoleLabel     string `json:"role_label,omitempty"`
	CompanyName   string `json:"company_name,omitempty"`
	CompanyImages string `json:"company_images,omitempty"`
	BPEmail       string `json:"bp_email,omitempty"`
	BPCode        string `json:"bp_code,omitempty"`
	Verified      bool   `json:"is_verified"`
}

// Snapshot assembles the current view of a session from in-memory state and
// the store's display cache.
func (manager *Manager) Snapshot(context context.Context, sessionID string) Snapshot {
	state := manager.State(sessionID)
	if state.Status != StatusAuthenticated {
		return Snapshot{}
	}

	snapshot := Snapshot{
		Authenticated: true,
		RoleCode:      state.Role.Code(),
		RoleTag:       state.Role.Tag(),
		RoleLabel:     state.Role.Label(),
	}

	read := func(key string) string {
		value, err := manager.store.Get(context, sessionID, key)
		if err != nil {
			return ""
		}
		return value
	}
	snapshot.CompanyName = read(tokenstore.KeyCompanyName)
	snapshot.CompanyImages = read(tokenstore.KeyCompanyImages)
	snapshot.BPEmail = read(tokenstore.KeyBPEmail)
	snapshot.BPCode = read(tokenstore.KeyBPCode)
	snapshot.Verified = read(tokenstore.KeyIsVerified) == "true"

	return snapshot
}

// # Helpers

// formatMillis renders a timestamp in the store's epoch-millis string format.
func formatMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// userMessage maps an upstream error to user-facing text: structured API
// errors carry their own message, transport failures get the generic one.
func userMessage(err error) string {
	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return MessageServerError
}
