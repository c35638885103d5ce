package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"driveauth/internal/logger"
	"driveauth/internal/model"
	"driveauth/internal/storage"

	"go.uber.org/zap"
)

// AuthTokensKey is the storage key holding the provider → access token mapping.
const AuthTokensKey = "drive_auth_tokens"

// TokenStore keeps one access token per provider as a JSON object under
// AuthTokensKey. Updates are read-modify-write and serialized, so concurrent
// sign-ins never overwrite each other's entries.
type TokenStore struct {
	writeMu sync.Mutex
	store   storage.Store
}

func NewTokenStore(store storage.Store) *TokenStore {
	return &TokenStore{store: store}
}

func (t *TokenStore) Store(ctx context.Context, provider model.Provider, token string) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	raw, _, err := t.store.GetItem(ctx, AuthTokensKey)
	if err != nil {
		return err
	}

	entries, err := decodeEntries(raw)
	if err != nil {
		logger.Log.Warn("discarding unreadable token mapping", zap.Error(err))
		entries = make(map[string]json.RawMessage)
	}

	value, err := json.Marshal(token)
	if err != nil {
		return err
	}
	entries[provider.String()] = value

	b, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	return t.store.SetItem(ctx, AuthTokensKey, string(b))
}

// Get returns the token of provider. ok is false when no token was stored.
// Entries of other providers are not decoded.
func (t *TokenStore) Get(ctx context.Context, provider model.Provider) (token string, ok bool, err error) {
	raw, _, err := t.store.GetItem(ctx, AuthTokensKey)
	if err != nil {
		return "", false, err
	}

	entries, err := decodeEntries(raw)
	if err != nil {
		return "", false, fmt.Errorf("failed to parse stored tokens: %w", err)
	}

	value, ok := entries[provider.String()]
	if !ok || string(value) == "null" {
		return "", false, nil
	}

	if err := json.Unmarshal(value, &token); err != nil {
		return "", false, fmt.Errorf("failed to parse stored token of %s: %w", provider, err)
	}

	return token, true, nil
}

// decodeEntries splits the stored mapping into raw per-provider values, so
// entries this version does not understand survive a rewrite.
func decodeEntries(raw string) (map[string]json.RawMessage, error) {
	entries := make(map[string]json.RawMessage)
	if raw == "" {
		return entries, nil
	}

	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = make(map[string]json.RawMessage)
	}

	return entries, nil
}
