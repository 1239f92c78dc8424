// Package statestore provides the key-value persistence layer used for risk
// parameters, execution contexts and cumulative metrics. Keys are namespaced
// strings ("risk:params", "exec:ctx", ...); values are opaque bytes, with
// JSON helpers for typed records.
package statestore

import (
	"context"
	"encoding/json"

	"github.com/mverab/flasharb/internal/apperror"
)

// Store is the persistence contract. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}

// GetJSON reads key and unmarshals it into out. Returns false when the key
// does not exist.
func GetJSON(ctx context.Context, s Store, key string, out any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return false, apperror.New(apperror.CodeStateStoreError,
			apperror.WithContextf("corrupt record at %q", key),
			apperror.WithCause(err))
	}
	return true, nil
}

// SetJSON marshals v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return apperror.New(apperror.CodeStateStoreError,
			apperror.WithContextf("marshal record for %q", key),
			apperror.WithCause(err))
	}
	return s.Set(ctx, key, raw)
}
