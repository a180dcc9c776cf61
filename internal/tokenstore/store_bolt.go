// Copyright (c) 2026 Procura. All rights reserved.
// Author: adhi.wirawan@procura.id

package tokenstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// rootBucket holds one nested bucket per session namespace.
var rootBucket = []byte("sessions")

// BoltStore implements Store on an embedded bbolt file.
//
// # Usage
//
// Single-node deployments without Redis. Sessions survive gateway restarts,
// which is what makes startup reconciliation meaningful for this backend.
//
// # Layout
//
// One root bucket, one nested bucket per session ID, one key per field.
// PutAll writes the whole snapshot in a single transaction.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the store file and ensures the root bucket exists.
func OpenBolt(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("bolt_session_mkdir_failed: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("bolt_session_open_failed: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(rootBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bolt_session_bucket_failed: %w", err)
	}

	return &BoltStore{db: db}, nil
}

/*
Get returns the value for key in the session's bucket.

Returns:
  - string: Stored value
  - error: ErrNotFound when the session or key is absent, or I/O errors
*/
func (store *BoltStore) Get(_ context.Context, sessionID, key string) (string, error) {
	var value []byte

	err := store.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(rootBucket).Bucket([]byte(sessionID))
		if bucket == nil {
			return ErrNotFound
		}
		raw := bucket.Get([]byte(key))
		if raw == nil {
			return ErrNotFound
		}
		value = append([]byte(nil), raw...)
		return nil
	})
	if err != nil {
		return "", err
	}

	return string(value), nil
}

/*
Put writes a single key in the session's bucket.
*/
func (store *BoltStore) Put(_ context.Context, sessionID, key, value string) error {
	return store.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.Bucket(rootBucket).CreateBucketIfNotExists([]byte(sessionID))
		if err != nil {
			return fmt.Errorf("bolt_session_put_failed: %w", err)
		}
		return bucket.Put([]byte(key), []byte(value))
	})
}

/*
PutAll writes every field inside one transaction.

Description: bbolt transactions are atomic and durable, so the login snapshot
either lands completely or not at all.
*/
func (store *BoltStore) PutAll(_ context.Context, sessionID string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return store.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.Bucket(rootBucket).CreateBucketIfNotExists([]byte(sessionID))
		if err != nil {
			return fmt.Errorf("bolt_session_putall_failed: %w", err)
		}
		for key, value := range fields {
			if err := bucket.Put([]byte(key), []byte(value)); err != nil {
				return err
			}
		}
		return nil
	})
}

/*
Delete removes a single key. Absent sessions and keys are ignored.
*/
func (store *BoltStore) Delete(_ context.Context, sessionID, key string) error {
	return store.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(rootBucket).Bucket([]byte(sessionID))
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(key))
	})
}

/*
Clear wipes the session's entire bucket.
*/
func (store *BoltStore) Clear(_ context.Context, sessionID string) error {
	return store.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket(rootBucket)
		if root.Bucket([]byte(sessionID)) == nil {
			return nil
		}
		return root.DeleteBucket([]byte(sessionID))
	})
}

/*
Sessions lists every session ID with a stored bucket.
*/
func (store *BoltStore) Sessions(_ context.Context) ([]string, error) {
	var ids []string

	err := store.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(rootBucket).ForEach(func(key, value []byte) error {
			// Nested buckets carry a nil value in the parent cursor.
			if value == nil {
				ids = append(ids, string(key))
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("bolt_session_scan_failed: %w", err)
	}

	return ids, nil
}

// Ping verifies the database file is still readable.
func (store *BoltStore) Ping(_ context.Context) error {
	return store.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(rootBucket) == nil {
			return fmt.Errorf("bolt_session_root_bucket_missing")
		}
		return nil
	})
}

// Close releases the underlying database file.
func (store *BoltStore) Close() error {
	return store.db.Close()
}
