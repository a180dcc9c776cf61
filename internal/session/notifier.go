// Copyright (c) 2026 Procura. All rights reserved.
// Author: adhi.wirawan@procura.id

package session

import "sync"

// # Notices

// Level classifies a notice for SPA toast rendering.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notice is a one-shot user-facing message produced by a session transition.
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier receives session side effects as they happen.
//
// # Why an interface?
//
// The manager emits notices and navigation targets synchronously, in-memory,
// the moment a transition occurs. What happens next is a delivery concern:
// production queues them for the SPA to drain, tests record them for
// assertions. Neither requires a durable round trip.
type Notifier interface {
	// Notify delivers a user-facing message for the session.
	Notify(sessionID string, notice Notice)

	// Redirect instructs the session's browser to navigate to target.
	Redirect(sessionID string, target string)
}

// # Outbox

// A session that stops polling must not accumulate queue entries forever.
// When a queue is full the oldest entry is dropped; the most recent notice
// is the one the SPA needs to render on its next visit.
const (
	maxQueuedNotices   = 16
	maxQueuedRedirects = 16
)

// Outbox is the production Notifier: a per-session queue drained by the
// session state endpoint. Draining is destructive — every notice and redirect
// is delivered at most once. Queues are bounded at maxQueuedNotices and
// maxQueuedRedirects entries per session.
type Outbox struct {
	mu        sync.Mutex
	notices   map[string][]Notice
	redirects map[string][]string
}

// NewOutbox creates an empty Outbox.
func NewOutbox() *Outbox {
	return &Outbox{
		notices:   make(map[string][]Notice),
		redirects: make(map[string][]string),
	}
}

// Notify queues a notice for the session.
func (outbox *Outbox) Notify(sessionID string, notice Notice) {
	outbox.mu.Lock()
	defer outbox.mu.Unlock()

	queue := append(outbox.notices[sessionID], notice)
	if len(queue) > maxQueuedNotices {
		queue = queue[len(queue)-maxQueuedNotices:]
	}
	outbox.notices[sessionID] = queue
}

// Redirect queues a navigation target for the session.
func (outbox *Outbox) Redirect(sessionID string, target string) {
	outbox.mu.Lock()
	defer outbox.mu.Unlock()

	queue := append(outbox.redirects[sessionID], target)
	if len(queue) > maxQueuedRedirects {
		queue = queue[len(queue)-maxQueuedRedirects:]
	}
	outbox.redirects[sessionID] = queue
}

// Drain returns and removes everything queued for the session.
func (outbox *Outbox) Drain(sessionID string) (notices []Notice, redirects []string) {
	outbox.mu.Lock()
	defer outbox.mu.Unlock()

	notices = outbox.notices[sessionID]
	redirects = outbox.redirects[sessionID]
	delete(outbox.notices, sessionID)
	delete(outbox.redirects, sessionID)
	return notices, redirects
}
