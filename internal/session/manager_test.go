// Copyright (c) 2026 Procura. All rights reserved.
// Author: adhi.wirawan@procura.id

package session_test

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adhiwira/procura/internal/platform/sec"
	"github.com/adhiwira/procura/internal/session"
	"github.com/adhiwira/procura/internal/tokenstore"
	"github.com/adhiwira/procura/internal/upstream"
)

// fakeGateway scripts upstream responses for manager tests.
type fakeGateway struct {
	loginResponse *upstream.LoginResponse
	loginErr      error
	logoutErr     error

	loginCalls  int
	logoutCalls []string
}

func (gateway *fakeGateway) Login(_ context.Context, _, _ string) (*upstream.LoginResponse, error) {
	gateway.loginCalls++
	if gateway.loginErr != nil {
		return nil, gateway.loginErr
	}
	return gateway.loginResponse, nil
}

func (gateway *fakeGateway) Logout(_ context.Context, token string) error {
	gateway.logoutCalls = append(gateway.logoutCalls, token)
	return gateway.logoutErr
}

// supplierLogin is the canonical successful payload used across tests.
func supplierLogin() *upstream.LoginResponse {
	return &upstream.LoginResponse{
		Status:            true,
		AccessToken:       "tok1",
		RoleTags:          "supplier",
		RoleID:            "5",
		CompanyName:       "ACME",
		CompanyProfile:    "acme/profile.png",
		ProfileVerifiedAt: "2026-01-10T08:00:00Z",
		BPCode:            "BP-0042",
	}
}

func newManager(t *testing.T, gateway session.Gateway, options ...session.Option) (*session.Manager, tokenstore.Store, *session.Outbox) {
	t.Helper()
	store := tokenstore.NewMemoryStore()
	outbox := session.NewOutbox()
	manager := session.NewManager(store, gateway, outbox, slog.Default(), options...)
	return manager, store, outbox
}

/*
TestManager_Login_Success covers the full round trip: every value the server
returned must read back verbatim from the token store, the in-memory state
must flip to authenticated, and a success notice must carry the company name.
*/
func TestManager_Login_Success(t *testing.T) {
	manager, store, outbox := newManager(t, &fakeGateway{loginResponse: supplierLogin()})
	ctx := context.Background()

	ok := manager.Login(ctx, "sid-1", "a@b.com", "x")
	require.True(t, ok)

	// Store mirror matches the server payload exactly
	expected := map[string]string{
		tokenstore.KeyAccessToken:   "tok1",
		tokenstore.KeyRole:          "supplier",
		tokenstore.KeyRoleID:        "5",
		tokenstore.KeyCompanyName:   "ACME",
		tokenstore.KeyCompanyImages: "acme/profile.png",
		tokenstore.KeyBPEmail:       "a@b.com",
		tokenstore.KeyBPCode:        "BP-0042",
		tokenstore.KeyIsVerified:    "true",
	}
	for key, want := range expected {
		value, err := store.Get(ctx, "sid-1", key)
		require.NoError(t, err, key)
		assert.Equal(t, want, value, key)
	}

	// lastActivity was stamped with a plausible epoch-millis value
	raw, err := store.Get(ctx, "sid-1", tokenstore.KeyLastActivity)
	require.NoError(t, err)
	millis, err := strconv.ParseInt(raw, 10, 64)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), time.UnixMilli(millis), time.Minute)

	// In-memory state
	state := manager.State("sid-1")
	assert.True(t, state.Authenticated())
	assert.Equal(t, sec.RoleSupplier, state.Role)
	assert.Equal(t, "tok1", state.Token)

	// Success notice carries the company name
	notices, _ := outbox.Drain("sid-1")
	require.Len(t, notices, 1)
	assert.Equal(t, session.LevelSuccess, notices[0].Level)
	assert.Contains(t, notices[0].Message, "ACME")
}

/*
TestManager_Login_Rejected verifies a credential rejection leaves the store
untouched and delivers the server's message.
*/
func TestManager_Login_Rejected(t *testing.T) {
	gateway := &fakeGateway{loginErr: &upstream.APIError{
		StatusCode: 401,
		Message:    "Invalid credentials",
	}}
	manager, store, outbox := newManager(t, gateway)
	ctx := context.Background()

	ok := manager.Login(ctx, "sid-1", "a@b.com", "wrong")
	assert.False(t, ok)

	// Store unchanged (empty)
	ids, err := store.Sessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	// In-memory unauthenticated
	assert.Equal(t, session.StatusUnauthenticated, manager.State("sid-1").Status)

	// Error notice with the server-supplied message
	notices, _ := outbox.Drain("sid-1")
	require.Len(t, notices, 1)
	assert.Equal(t, session.LevelError, notices[0].Level)
	assert.Equal(t, "Invalid credentials", notices[0].Message)
}

/*
TestManager_Login_StatusFalse verifies a 2xx payload with status=false is
still a failure, using the payload message.
*/
func TestManager_Login_StatusFalse(t *testing.T) {
	gateway := &fakeGateway{loginResponse: &upstream.LoginResponse{
		Status:  false,
		Message: "Account pending verification",
	}}
	manager, store, outbox := newManager(t, gateway)

	ok := manager.Login(context.Background(), "sid-1", "a@b.com", "x")
	assert.False(t, ok)

	ids, _ := store.Sessions(context.Background())
	assert.Empty(t, ids)

	notices, _ := outbox.Drain("sid-1")
	require.Len(t, notices, 1)
	assert.Equal(t, "Account pending verification", notices[0].Message)
}

/*
TestManager_Login_TransportError verifies a dead upstream produces the
generic server-error message, never raw transport detail.
*/
func TestManager_Login_TransportError(t *testing.T) {
	gateway := &fakeGateway{loginErr: errors.New("dial tcp: connection refused")}
	manager, _, outbox := newManager(t, gateway)

	ok := manager.Login(context.Background(), "sid-1", "a@b.com", "x")
	assert.False(t, ok)

	notices, _ := outbox.Drain("sid-1")
	require.Len(t, notices, 1)
	assert.Equal(t, session.MessageServerError, notices[0].Message)
}

/*
TestManager_Login_FailedRetryKeepsSession verifies a rejected re-login leaves
an already-authenticated session exactly as it was: the in-memory state, the
stored token, and the sweep's view of the session all survive the attempt.
*/
func TestManager_Login_FailedRetryKeepsSession(t *testing.T) {
	gateway := &fakeGateway{loginResponse: supplierLogin()}
	manager, store, outbox := newManager(t, gateway)
	ctx := context.Background()

	require.True(t, manager.Login(ctx, "sid-1", "a@b.com", "x"))
	outbox.Drain("sid-1")

	// Re-login with bad credentials is rejected upstream
	gateway.loginResponse = nil
	gateway.loginErr = &upstream.APIError{StatusCode: 401, Message: "Invalid credentials"}

	ok := manager.Login(ctx, "sid-1", "a@b.com", "wrong")
	assert.False(t, ok)

	// In-memory session untouched
	state := manager.State("sid-1")
	assert.True(t, state.Authenticated())
	assert.Equal(t, sec.RoleSupplier, state.Role)
	assert.Equal(t, "tok1", state.Token)

	// Store untouched
	token, err := store.Get(ctx, "sid-1", tokenstore.KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "tok1", token)

	// The failure is still reported
	notices, _ := outbox.Drain("sid-1")
	require.Len(t, notices, 1)
	assert.Equal(t, session.LevelError, notices[0].Level)
	assert.Equal(t, "Invalid credentials", notices[0].Message)
}

/*
TestManager_Login_EmptyCredentials verifies the only local validation rule.
*/
func TestManager_Login_EmptyCredentials(t *testing.T) {
	gateway := &fakeGateway{loginResponse: supplierLogin()}
	manager, _, outbox := newManager(t, gateway)

	assert.False(t, manager.Login(context.Background(), "sid-1", "", "x"))
	assert.False(t, manager.Login(context.Background(), "sid-1", "a@b.com", "   "))

	// The upstream must never have been called
	assert.Zero(t, gateway.loginCalls)

	notices, _ := outbox.Drain("sid-1")
	assert.Len(t, notices, 2)
}

/*
TestManager_Logout_Success verifies the server call carries the stored token
and every trace of the session is gone afterwards.
*/
func TestManager_Logout_Success(t *testing.T) {
	gateway := &fakeGateway{loginResponse: supplierLogin()}
	manager, store, outbox := newManager(t, gateway)
	ctx := context.Background()

	require.True(t, manager.Login(ctx, "sid-1", "a@b.com", "x"))
	outbox.Drain("sid-1")

	manager.Logout(ctx, "sid-1")

	assert.Equal(t, []string{"tok1"}, gateway.logoutCalls)
	assert.Equal(t, session.StatusUnauthenticated, manager.State("sid-1").Status)

	// Full wipe, display cache included
	ids, _ := store.Sessions(ctx)
	assert.Empty(t, ids)

	notices, redirects := outbox.Drain("sid-1")
	require.Len(t, notices, 1)
	assert.Equal(t, session.LevelSuccess, notices[0].Level)
	assert.Equal(t, []string{"/"}, redirects)
}

/*
TestManager_Logout_Idempotent verifies that logging out with no session, and
logging out twice, both land in the same terminal state.
*/
func TestManager_Logout_Idempotent(t *testing.T) {
	gateway := &fakeGateway{loginResponse: supplierLogin()}
	manager, store, outbox := newManager(t, gateway)
	ctx := context.Background()

	// Logout while never logged in
	manager.Logout(ctx, "sid-1")
	assert.Equal(t, session.StatusUnauthenticated, manager.State("sid-1").Status)
	notices, redirects := outbox.Drain("sid-1")
	require.Len(t, notices, 1)
	assert.Equal(t, session.MessageTokenMissing, notices[0].Message)
	assert.Equal(t, []string{"/"}, redirects)

	// Login, then logout twice in a row
	require.True(t, manager.Login(ctx, "sid-1", "a@b.com", "x"))
	manager.Logout(ctx, "sid-1")
	manager.Logout(ctx, "sid-1")

	assert.Equal(t, session.StatusUnauthenticated, manager.State("sid-1").Status)
	ids, _ := store.Sessions(ctx)
	assert.Empty(t, ids)

	// Only the first logout had a token to hand to the upstream
	assert.Equal(t, []string{"tok1"}, gateway.logoutCalls)
}

/*
TestManager_Logout_UpstreamFailure verifies the client transition is fail-open:
a failing server call still ends in a clean unauthenticated state.
*/
func TestManager_Logout_UpstreamFailure(t *testing.T) {
	gateway := &fakeGateway{
		loginResponse: supplierLogin(),
		logoutErr:     &upstream.APIError{StatusCode: 500, Message: "Session backend down"},
	}
	manager, store, outbox := newManager(t, gateway)
	ctx := context.Background()

	require.True(t, manager.Login(ctx, "sid-1", "a@b.com", "x"))
	outbox.Drain("sid-1")

	manager.Logout(ctx, "sid-1")

	assert.Equal(t, session.StatusUnauthenticated, manager.State("sid-1").Status)
	ids, _ := store.Sessions(ctx)
	assert.Empty(t, ids)

	notices, redirects := outbox.Drain("sid-1")
	require.Len(t, notices, 1)
	assert.Equal(t, session.LevelError, notices[0].Level)
	assert.Contains(t, notices[0].Message, "Session backend down")
	assert.Equal(t, []string{"/"}, redirects)
}

/*
TestManager_Reconcile restores complete sessions, wipes incomplete remnants,
and becomes ready afterwards.
*/
func TestManager_Reconcile(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	outbox := session.NewOutbox()
	ctx := context.Background()

	// A complete persisted session
	require.NoError(t, store.PutAll(ctx, "sid-ok", map[string]string{
		tokenstore.KeyAccessToken:  "tok-ok",
		tokenstore.KeyRole:         "purchasing",
		tokenstore.KeyRoleID:       "2",
		tokenstore.KeyLastActivity: "1767000000000",
	}))

	// An incomplete remnant: token but no role
	require.NoError(t, store.Put(ctx, "sid-broken", tokenstore.KeyAccessToken, "tok-broken"))

	manager := session.NewManager(store, &fakeGateway{}, outbox, slog.Default())
	assert.False(t, manager.Ready())

	require.NoError(t, manager.Reconcile(ctx))
	assert.True(t, manager.Ready())

	// Complete session restored with its role
	state := manager.State("sid-ok")
	assert.True(t, state.Authenticated())
	assert.Equal(t, sec.RolePurchasing, state.Role)
	assert.Equal(t, "tok-ok", state.Token)
	assert.Equal(t, time.UnixMilli(1767000000000), state.LastActivity)

	// Remnant wiped entirely
	assert.Equal(t, session.StatusUnauthenticated, manager.State("sid-broken").Status)
	_, err := store.Get(ctx, "sid-broken", tokenstore.KeyAccessToken)
	assert.ErrorIs(t, err, tokenstore.ErrNotFound)
}

/*
TestManager_Reconcile_DeferredError verifies the single-read login_error slot
is delivered exactly once and then deleted.
*/
func TestManager_Reconcile_DeferredError(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	outbox := session.NewOutbox()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sid-1", tokenstore.KeyLoginError, "Invalid credentials"))

	manager := session.NewManager(store, &fakeGateway{}, outbox, slog.Default())
	require.NoError(t, manager.Reconcile(ctx))

	// Delivered once
	notices, _ := outbox.Drain("sid-1")
	require.Len(t, notices, 1)
	assert.Equal(t, "Invalid credentials", notices[0].Message)

	// Slot deleted: a second reconciliation delivers nothing
	require.NoError(t, manager.Reconcile(ctx))
	notices, _ = outbox.Drain("sid-1")
	assert.Empty(t, notices)
}

/*
TestManager_StampActivity verifies the stamper overwrites lastActivity only
for authenticated sessions with a stored token.
*/
func TestManager_StampActivity(t *testing.T) {
	currentTime := time.UnixMilli(1767000000000)
	gateway := &fakeGateway{loginResponse: supplierLogin()}
	manager, store, _ := newManager(t, gateway, session.WithClock(func() time.Time { return currentTime }))
	ctx := context.Background()

	// Not authenticated: no write
	manager.StampActivity(ctx, "sid-1")
	_, err := store.Get(ctx, "sid-1", tokenstore.KeyLastActivity)
	assert.ErrorIs(t, err, tokenstore.ErrNotFound)

	require.True(t, manager.Login(ctx, "sid-1", "a@b.com", "x"))

	// Advance time and stamp
	currentTime = currentTime.Add(5 * time.Minute)
	manager.StampActivity(ctx, "sid-1")

	raw, err := store.Get(ctx, "sid-1", tokenstore.KeyLastActivity)
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(currentTime.UnixMilli(), 10), raw)
	assert.Equal(t, currentTime, manager.State("sid-1").LastActivity)
}
