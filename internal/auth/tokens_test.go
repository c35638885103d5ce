package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"driveauth/internal/model"
	"driveauth/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedMapping(t *testing.T, store storage.Store) map[string]string {
	t.Helper()
	raw, ok, err := store.GetItem(context.Background(), AuthTokensKey)
	require.NoError(t, err)
	require.True(t, ok)

	var m map[string]string
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

func TestTokenStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	tokens := NewTokenStore(storage.NewMemoryStore())

	for _, p := range model.Providers {
		require.NoError(t, tokens.Store(ctx, p, "token-"+p.String()))
		got, ok, err := tokens.Get(ctx, p)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "token-"+p.String(), got)
	}
}

func TestTokenStore_EmptyStore(t *testing.T) {
	tokens := NewTokenStore(storage.NewMemoryStore())

	got, ok, err := tokens.Get(context.Background(), model.ProviderGoogle)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestTokenStore_PreservesOtherProviders(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.SetItem(ctx, AuthTokensKey, `{"google":"tokA"}`))

	f := NewFacade(store, WithAuthorizer(&fakeAuthorizer{}))
	require.NoError(t, f.StoreAuthToken(ctx, model.ProviderDropbox, "tokB"))

	assert.Equal(t, map[string]string{"google": "tokA", "dropbox": "tokB"}, storedMapping(t, store))
}

func TestTokenStore_OverwritesSameProvider(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	tokens := NewTokenStore(store)

	require.NoError(t, tokens.Store(ctx, model.ProviderGoogle, "old"))
	require.NoError(t, tokens.Store(ctx, model.ProviderGoogle, "new"))

	assert.Equal(t, map[string]string{"google": "new"}, storedMapping(t, store))
}

func TestTokenStore_UnreadableMappingIsReplaced(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.SetItem(ctx, AuthTokensKey, "{broken"))
	tokens := NewTokenStore(store)

	_, _, err := tokens.Get(ctx, model.ProviderGoogle)
	assert.Error(t, err)

	require.NoError(t, tokens.Store(ctx, model.ProviderOneDrive, "od"))
	assert.Equal(t, map[string]string{"onedrive": "od"}, storedMapping(t, store))
}

func TestTokenStore_KeepsEntriesItCannotRead(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.SetItem(ctx, AuthTokensKey, `{"google":"tokA","box":{"legacy":true}}`))
	f := NewFacade(store, WithAuthorizer(&fakeAuthorizer{}))

	got, ok, err := f.GetAuthToken(ctx, model.ProviderGoogle)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tokA", got)

	require.NoError(t, f.StoreAuthToken(ctx, model.ProviderDropbox, "tokB"))

	raw, _, err := store.GetItem(ctx, AuthTokensKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"google":"tokA","box":{"legacy":true},"dropbox":"tokB"}`, raw)
}

func TestTokenStore_NonStringEntry(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.SetItem(ctx, AuthTokensKey, `{"google":42,"onedrive":null,"dropbox":"tokB"}`))
	tokens := NewTokenStore(store)

	_, _, err := tokens.Get(ctx, model.ProviderGoogle)
	assert.Error(t, err)

	_, ok, err := tokens.Get(ctx, model.ProviderOneDrive)
	require.NoError(t, err)
	assert.False(t, ok)

	got, ok, err := tokens.Get(ctx, model.ProviderDropbox)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tokB", got)

	require.NoError(t, tokens.Store(ctx, model.ProviderGoogle, "tokA"))
	got, ok, err = tokens.Get(ctx, model.ProviderGoogle)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tokA", got)
}

func TestTokenStore_NullMapping(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.SetItem(ctx, AuthTokensKey, "null"))
	tokens := NewTokenStore(store)

	require.NoError(t, tokens.Store(ctx, model.ProviderGoogle, "g"))
	assert.Equal(t, map[string]string{"google": "g"}, storedMapping(t, store))
}

func TestTokenStore_ConcurrentStoresKeepAllEntries(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	tokens := NewTokenStore(store)

	const n = 50
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := model.Provider(fmt.Sprintf("p%02d", i))
			assert.NoError(t, tokens.Store(ctx, p, fmt.Sprintf("t%02d", i)))
		}()
	}
	wg.Wait()

	m := storedMapping(t, store)
	assert.Len(t, m, n)
	assert.Equal(t, "t07", m["p07"])
}

func TestFacade_StoreAuthTokenUnsupportedProvider(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	f := NewFacade(store, WithAuthorizer(&fakeAuthorizer{}))

	err := f.StoreAuthToken(ctx, model.Provider("box"), "t")
	assert.ErrorIs(t, err, ErrUnsupportedProvider)

	_, ok, _ := store.GetItem(ctx, AuthTokensKey)
	assert.False(t, ok)
}
