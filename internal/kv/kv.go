// Package kv is the process-wide key-value store holding the credential,
// the active session identifier and each session's turn log.
package kv

import (
	"context"
	"encoding/json"
	"fmt"
)

// Store is a flat key-value store. Absent keys are simply missing from the
// map returned by Get; Set writes all items atomically.
type Store interface {
	Get(ctx context.Context, keys ...string) (map[string][]byte, error)
	Set(ctx context.Context, items map[string][]byte) error
	Remove(ctx context.Context, keys ...string) error
	Close() error
}

// GetJSON decodes the value under key into v. It reports false when the key is absent.
func GetJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	values, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	data, ok := values[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode %q: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes each value and writes them in one Set.
func SetJSON(ctx context.Context, s Store, items map[string]any) error {
	encoded := make(map[string][]byte, len(items))
	for k, v := range items {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode %q: %w", k, err)
		}
		encoded[k] = data
	}
	return s.Set(ctx, encoded)
}
