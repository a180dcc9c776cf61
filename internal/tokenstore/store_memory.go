// Copyright (c) 2026 Procura. All rights reserved.
// Author: adhi.wirawan@procura.id

package tokenstore

import (
	"context"
	"sync"
)

// MemoryStore implements Store with an in-process map.
//
// # Usage
//
// Deterministic tests and single-binary development mode. State does not
// survive a restart, so startup reconciliation always begins empty.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]map[string]string),
	}
}

// Get returns the value for key, or ErrNotFound.
func (store *MemoryStore) Get(_ context.Context, sessionID, key string) (string, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	fields, ok := store.sessions[sessionID]
	if !ok {
		return "", ErrNotFound
	}
	value, ok := fields[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// Put writes a single key.
func (store *MemoryStore) Put(_ context.Context, sessionID, key, value string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	fields, ok := store.sessions[sessionID]
	if !ok {
		fields = make(map[string]string)
		store.sessions[sessionID] = fields
	}
	fields[key] = value
	return nil
}

// PutAll writes every field under a single lock acquisition.
func (store *MemoryStore) PutAll(_ context.Context, sessionID string, incoming map[string]string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	fields, ok := store.sessions[sessionID]
	if !ok {
		fields = make(map[string]string, len(incoming))
		store.sessions[sessionID] = fields
	}
	for key, value := range incoming {
		fields[key] = value
	}
	return nil
}

// Delete removes a single key. Absent keys are ignored.
func (store *MemoryStore) Delete(_ context.Context, sessionID, key string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if fields, ok := store.sessions[sessionID]; ok {
		delete(fields, key)
		if len(fields) == 0 {
			delete(store.sessions, sessionID)
		}
	}
	return nil
}

// Clear wipes the session's entire namespace.
func (store *MemoryStore) Clear(_ context.Context, sessionID string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.sessions, sessionID)
	return nil
}

// Sessions lists every session ID with at least one stored key.
func (store *MemoryStore) Sessions(_ context.Context) ([]string, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	ids := make([]string, 0, len(store.sessions))
	for sessionID := range store.sessions {
		ids = append(ids, sessionID)
	}
	return ids, nil
}

// Ping always succeeds for the in-process backend.
func (store *MemoryStore) Ping(_ context.Context) error { return nil }

// Close is a no-op for the in-process backend.
func (store *MemoryStore) Close() error { return nil }
