package session

import (
	"context"
	"errors"
	"strings"

	"github.com/ChamsBouzaiene/pagechat/internal/kv"
)

// ErrEmptyKey is returned when saving a blank credential.
var ErrEmptyKey = errors.New("API Key cannot be empty.")

// Credentials stores the completion endpoint key. It is saved in plain text.
type Credentials struct {
	store kv.Store
}

// NewCredentials wraps store.
func NewCredentials(store kv.Store) *Credentials {
	return &Credentials{store: store}
}

// Get returns the saved key or "" when none is saved.
func (c *Credentials) Get(ctx context.Context) (string, error) {
	var key string
	if _, err := kv.GetJSON(ctx, c.store, KeyAPIKey, &key); err != nil {
		return "", err
	}
	return key, nil
}

// Set trims and saves key.
func (c *Credentials) Set(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}
	return kv.SetJSON(ctx, c.store, map[string]any{KeyAPIKey: key})
}

// Saved reports whether a non-empty key is stored.
func (c *Credentials) Saved(ctx context.Context) bool {
	key, err := c.Get(ctx)
	return err == nil && key != ""
}
