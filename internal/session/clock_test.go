// Copyright (c) 2026 Procura. All rights reserved.
// Author: adhi.wirawan@procura.id

package session_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adhiwira/procura/internal/session"
)

/*
TestSweep_InactivityBoundary pins the expiry comparison to strictly-greater:
at window minus 1ms the session survives, at window plus 1ms it is wiped.
*/
func TestSweep_InactivityBoundary(t *testing.T) {
	loginTime := time.UnixMilli(1767000000000)
	currentTime := loginTime
	gateway := &fakeGateway{loginResponse: supplierLogin()}
	manager, store, outbox := newManager(t, gateway,
		session.WithClock(func() time.Time { return currentTime }),
	)
	ctx := context.Background()

	require.NoError(t, manager.Reconcile(ctx))
	require.True(t, manager.Login(ctx, "sid-1", "a@b.com", "x"))
	outbox.Drain("sid-1")

	// 1ms inside the window: untouched
	currentTime = loginTime.Add(time.Hour - time.Millisecond)
	manager.SweepExpired(ctx)
	assert.True(t, manager.State("sid-1").Authenticated())

	// Exactly at the window: still untouched
	currentTime = loginTime.Add(time.Hour)
	manager.SweepExpired(ctx)
	assert.True(t, manager.State("sid-1").Authenticated())

	// 1ms past the window: forced expiry
	currentTime = loginTime.Add(time.Hour + time.Millisecond)
	manager.SweepExpired(ctx)
	assert.False(t, manager.State("sid-1").Authenticated())

	ids, err := store.Sessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	notices, redirects := outbox.Drain("sid-1")
	require.Len(t, notices, 1)
	assert.Equal(t, session.MessageSessionExpired, notices[0].Message)
	assert.Equal(t, []string{"/auth/login"}, redirects)
}

/*
TestSweep_StaleSessionExpiresOnce walks an idle session past the window and
verifies the expiry fires exactly once even when later ticks re-evaluate.
*/
func TestSweep_StaleSessionExpiresOnce(t *testing.T) {
	loginTime := time.UnixMilli(1767000000000)
	currentTime := loginTime
	gateway := &fakeGateway{loginResponse: supplierLogin()}
	manager, _, outbox := newManager(t, gateway,
		session.WithClock(func() time.Time { return currentTime }),
	)
	ctx := context.Background()

	require.NoError(t, manager.Reconcile(ctx))
	require.True(t, manager.Login(ctx, "sid-1", "a@b.com", "x"))
	outbox.Drain("sid-1")

	// 61 minutes idle, evaluated on three consecutive ticks
	currentTime = loginTime.Add(61 * time.Minute)
	manager.SweepExpired(ctx)
	manager.SweepExpired(ctx)
	manager.SweepExpired(ctx)

	notices, redirects := outbox.Drain("sid-1")
	assert.Len(t, notices, 1)
	assert.Equal(t, []string{"/auth/login"}, redirects)
}

/*
TestSweep_ActivityResetsWindow verifies a stamp inside the window pushes the
expiry deadline forward.
*/
func TestSweep_ActivityResetsWindow(t *testing.T) {
	loginTime := time.UnixMilli(1767000000000)
	currentTime := loginTime
	gateway := &fakeGateway{loginResponse: supplierLogin()}
	manager, _, outbox := newManager(t, gateway,
		session.WithClock(func() time.Time { return currentTime }),
	)
	ctx := context.Background()

	require.NoError(t, manager.Reconcile(ctx))
	require.True(t, manager.Login(ctx, "sid-1", "a@b.com", "x"))
	outbox.Drain("sid-1")

	// Activity at minute 50 restarts the hour
	currentTime = loginTime.Add(50 * time.Minute)
	manager.StampActivity(ctx, "sid-1")

	// Minute 70 is only 20 minutes idle now
	currentTime = loginTime.Add(70 * time.Minute)
	manager.SweepExpired(ctx)
	assert.True(t, manager.State("sid-1").Authenticated())

	// Minute 111 crosses the refreshed deadline
	currentTime = loginTime.Add(111 * time.Minute)
	manager.SweepExpired(ctx)
	assert.False(t, manager.State("sid-1").Authenticated())
}

/*
TestSweep_SkipsExternallyWipedSession verifies the sweep never notifies a
session whose store namespace another replica already cleared.
*/
func TestSweep_SkipsExternallyWipedSession(t *testing.T) {
	loginTime := time.UnixMilli(1767000000000)
	currentTime := loginTime
	gateway := &fakeGateway{loginResponse: supplierLogin()}
	manager, store, outbox := newManager(t, gateway,
		session.WithClock(func() time.Time { return currentTime }),
	)
	ctx := context.Background()

	require.NoError(t, manager.Reconcile(ctx))
	require.True(t, manager.Login(ctx, "sid-1", "a@b.com", "x"))
	outbox.Drain("sid-1")

	require.NoError(t, store.Clear(ctx, "sid-1"))

	currentTime = loginTime.Add(2 * time.Hour)
	manager.SweepExpired(ctx)

	notices, redirects := outbox.Drain("sid-1")
	assert.Empty(t, notices)
	assert.Empty(t, redirects)
}

/*
TestClock_Run drives a real ticker at a short period and confirms it both
sweeps and stops cleanly on context cancellation.
*/
func TestClock_Run(t *testing.T) {
	loginTime := time.Now().Add(-2 * time.Hour)
	currentTime := loginTime
	gateway := &fakeGateway{loginResponse: supplierLogin()}
	manager, _, _ := newManager(t, gateway,
		session.WithClock(func() time.Time { return currentTime }),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, manager.Reconcile(ctx))
	require.True(t, manager.Login(ctx, "sid-1", "a@b.com", "x"))

	// Jump two hours past login before the first tick fires
	currentTime = time.Now()

	clock := session.NewClock(manager, 5*time.Millisecond, slog.Default())

	done := make(chan struct{})
	go func() {
		defer close(done)
		clock.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return !manager.State("sid-1").Authenticated()
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("clock did not stop on context cancellation")
	}
}
