// Package kv is the persistence collaborator for the Continuum stores.
// Stores serialize a snapshot of their persisted fields into a versioned
// JSON envelope and hand it to a Store implementation; transient state
// (network logs, loading flags, download progress) never goes through
// this package.
package kv

import (
	"context"
	"encoding/json"
	"fmt"
)

// Store is a minimal key-value abstraction over the platform storage
// backends (sqlite/mysql via gorm, or redis).
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// envelope wraps a persisted snapshot. Version guards against reading a
// snapshot written by an incompatible schema.
type envelope struct {
	Version int             `json:"version"`
	State   json.RawMessage `json:"state"`
}

// SaveSnapshot marshals state into a versioned envelope under key.
func SaveSnapshot(ctx context.Context, s Store, key string, version int, state any) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("kv: marshal snapshot %q: %w", key, err)
	}
	b, err := json.Marshal(envelope{Version: version, State: raw})
	if err != nil {
		return fmt.Errorf("kv: marshal envelope %q: %w", key, err)
	}
	return s.Set(ctx, key, b)
}

// LoadSnapshot reads the envelope under key into out. It reports false
// with no error when the key is absent or was written with a different
// version (a stale snapshot is treated as no snapshot).
func LoadSnapshot(ctx context.Context, s Store, key string, version int, out any) (bool, error) {
	b, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return false, fmt.Errorf("kv: decode envelope %q: %w", key, err)
	}
	if env.Version != version {
		return false, nil
	}
	if err := json.Unmarshal(env.State, out); err != nil {
		return false, fmt.Errorf("kv: decode snapshot %q: %w", key, err)
	}
	return true, nil
}
