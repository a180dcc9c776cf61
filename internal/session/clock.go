// Copyright (c) 2026 Procura. All rights reserved.
// Author: adhi.wirawan@procura.id

package session

import (
	"context"
	"log/slog"
	"time"
)

// Clock drives the recurring inactivity sweep.
//
// # Behavior
//
// A fixed-period tick invokes [Manager.SweepExpired]. The check is
// level-triggered: the clock never writes the activity timestamp, so racing
// with an activity stamp can at worst delay detection by one tick. There is
// no retry and no backoff.
//
// # Lifecycle
//
// Run blocks until the context is cancelled. Start it exactly once, as a
// goroutine owned by main; cancelling the context tears the timer down so no
// tick can fire after shutdown.
type Clock struct {
	manager *Manager
	period  time.Duration
	log     *slog.Logger
}

// NewClock constructs a Clock sweeping at the given period.
func NewClock(manager *Manager, period time.Duration, logger *slog.Logger) *Clock {
	return &Clock{
		manager: manager,
		period:  period,
		log:     logger,
	}
}

// Run ticks until the context is cancelled.
func (clock *Clock) Run(context context.Context) {
	ticker := time.NewTicker(clock.period)
	defer ticker.Stop()

	clock.log.Info("session_clock_started", slog.Duration("period", clock.period))

	for {
		select {
		case <-ticker.C:
			clock.manager.SweepExpired(context)
		case <-context.Done():
			clock.log.Info("session_clock_stopped")
			return
		}
	}
}
