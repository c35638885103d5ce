package auth

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"testing"

	"driveauth/internal/model"
	"driveauth/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fakeGoogleSignIn struct {
	cfg         model.ProviderConfig
	token       string
	prereqErr   error
	signInErr   error
	signInCalls int
}

func (g *fakeGoogleSignIn) Configure(cfg model.ProviderConfig) { g.cfg = cfg }

func (g *fakeGoogleSignIn) HasPrerequisites(context.Context) error { return g.prereqErr }

func (g *fakeGoogleSignIn) SignIn(context.Context) error {
	g.signInCalls++
	return g.signInErr
}

func (g *fakeGoogleSignIn) Tokens(context.Context) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: g.token}, nil
}

type fakeAuthorizer struct {
	mu    sync.Mutex
	token string
	err   error
	got   []AuthConfiguration
}

func (a *fakeAuthorizer) Authorize(_ context.Context, cfg AuthConfiguration) (*oauth2.Token, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.got = append(a.got, cfg)
	if a.err != nil {
		return nil, a.err
	}
	return &oauth2.Token{AccessToken: a.token}, nil
}

type fakeRecorder struct {
	providers []model.Provider
	errs      []error
}

func (r *fakeRecorder) Record(_ context.Context, provider model.Provider, err error) error {
	r.providers = append(r.providers, provider)
	r.errs = append(r.errs, err)
	return nil
}

type failingStore struct {
	storage.Store
	err error
}

func (s failingStore) SetItem(context.Context, string, string) error { return s.err }

func TestFacade_ConfigureLastWriteWins(t *testing.T) {
	f := NewFacade(storage.NewMemoryStore(), WithAuthorizer(&fakeAuthorizer{}))

	first := model.ProviderConfig{ClientID: "first"}
	second := model.ProviderConfig{ClientID: "second", Scopes: []string{"files.content.read"}}

	require.NoError(t, f.Configure(model.ProviderDropbox, first))
	require.NoError(t, f.Configure(model.ProviderDropbox, second))

	got, ok := f.ConfigOf(model.ProviderDropbox)
	require.True(t, ok)
	assert.Equal(t, second, got)

	_, ok = f.ConfigOf(model.ProviderOneDrive)
	assert.False(t, ok)
	assert.Equal(t, []model.Provider{model.ProviderDropbox}, f.Configured())
}

func TestFacade_Unconfigure(t *testing.T) {
	authorizer := &fakeAuthorizer{token: "tok"}
	f := NewFacade(storage.NewMemoryStore(), WithAuthorizer(authorizer))

	require.NoError(t, f.Configure(model.ProviderOneDrive, model.ProviderConfig{ClientID: "abc"}))
	require.NoError(t, f.Unconfigure(model.ProviderOneDrive))
	require.NoError(t, f.Unconfigure(model.ProviderDropbox))

	_, ok := f.ConfigOf(model.ProviderOneDrive)
	assert.False(t, ok)
	assert.Empty(t, f.Configured())

	_, err := f.SignIn(context.Background(), model.ProviderOneDrive)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Empty(t, authorizer.got)

	assert.ErrorIs(t, f.Unconfigure(model.Provider("box")), ErrUnsupportedProvider)
}

func TestFacade_ConfigureUnsupportedProvider(t *testing.T) {
	f := NewFacade(storage.NewMemoryStore(), WithAuthorizer(&fakeAuthorizer{}))

	err := f.Configure(model.Provider("box"), model.ProviderConfig{ClientID: "abc"})
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
	assert.Empty(t, f.Configured())
}

func TestFacade_GoogleSignIn(t *testing.T) {
	ctx := context.Background()
	google := &fakeGoogleSignIn{token: "tok123"}
	f := NewFacade(storage.NewMemoryStore(), WithGoogleSignIn(google))

	require.NoError(t, f.Configure(model.ProviderGoogle, model.ProviderConfig{ClientID: "abc"}))
	assert.Equal(t, "abc", google.cfg.ClientID)

	token, err := f.SignIn(ctx, model.ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, "tok123", token)

	stored, ok, err := f.GetAuthToken(ctx, model.ProviderGoogle)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok123", stored)
}

func TestFacade_GooglePrerequisitesUnavailable(t *testing.T) {
	ctx := context.Background()
	google := &fakeGoogleSignIn{token: "tok123", prereqErr: ErrPrerequisitesUnavailable}
	f := NewFacade(storage.NewMemoryStore(), WithGoogleSignIn(google))

	_, err := f.SignIn(ctx, model.ProviderGoogle)
	assert.ErrorIs(t, err, ErrPrerequisitesUnavailable)
	assert.Zero(t, google.signInCalls)

	_, ok, err := f.GetAuthToken(ctx, model.ProviderGoogle)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFacade_AppAuthSignIn(t *testing.T) {
	ctx := context.Background()
	authorizer := &fakeAuthorizer{token: "dbx-token"}
	f := NewFacade(storage.NewMemoryStore(), WithAuthorizer(authorizer))

	cfg := model.ProviderConfig{
		ClientID:    "app-key",
		RedirectURL: "http://localhost:9999/callback",
		Scopes:      []string{"files.content.read"},
	}
	require.NoError(t, f.Configure(model.ProviderDropbox, cfg))

	token, err := f.SignIn(ctx, model.ProviderDropbox)
	require.NoError(t, err)
	assert.Equal(t, "dbx-token", token)

	require.Len(t, authorizer.got, 1)
	assert.Equal(t, "app-key", authorizer.got[0].ClientID)
	assert.Equal(t, DefaultEndpoint(model.ProviderDropbox), authorizer.got[0].Endpoint)
	assert.Equal(t, cfg.RedirectURL, authorizer.got[0].RedirectURL)

	stored, ok, err := f.GetAuthToken(ctx, model.ProviderDropbox)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dbx-token", stored)
}

func TestFacade_AppAuthNotConfigured(t *testing.T) {
	authorizer := &fakeAuthorizer{token: "unused"}
	f := NewFacade(storage.NewMemoryStore(), WithAuthorizer(authorizer))

	_, err := f.SignIn(context.Background(), model.ProviderOneDrive)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Empty(t, authorizer.got)
}

func TestFacade_SignInErrorsPassThrough(t *testing.T) {
	ctx := context.Background()
	denied := errors.New("user cancelled")
	authorizer := &fakeAuthorizer{err: denied}
	recorder := &fakeRecorder{}
	store := storage.NewMemoryStore()
	f := NewFacade(store, WithAuthorizer(authorizer), WithRecorder(recorder))
	require.NoError(t, f.Configure(model.ProviderOneDrive, model.ProviderConfig{ClientID: "id"}))

	_, err := f.SignIn(ctx, model.ProviderOneDrive)
	assert.Same(t, denied, err)

	_, ok, _ := store.GetItem(ctx, AuthTokensKey)
	assert.False(t, ok)

	require.Len(t, recorder.errs, 1)
	assert.Equal(t, model.ProviderOneDrive, recorder.providers[0])
	assert.Same(t, denied, recorder.errs[0])
}

func TestFacade_StorageErrorsPassThrough(t *testing.T) {
	writeErr := errors.New("disk full")
	store := failingStore{Store: storage.NewMemoryStore(), err: writeErr}
	f := NewFacade(store, WithGoogleSignIn(&fakeGoogleSignIn{token: "tok"}))

	_, err := f.SignIn(context.Background(), model.ProviderGoogle)
	assert.Same(t, writeErr, err)
}

func TestFacade_SignInUnsupportedProvider(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	recorder := &fakeRecorder{}
	f := NewFacade(store, WithAuthorizer(&fakeAuthorizer{token: "x"}), WithRecorder(recorder))

	_, err := f.SignIn(ctx, model.Provider("icloud"))
	assert.ErrorIs(t, err, ErrUnsupportedProvider)

	_, ok, err := store.GetItem(ctx, AuthTokensKey)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, recorder.providers)
}

func TestFacade_SignInRecordsSuccess(t *testing.T) {
	recorder := &fakeRecorder{}
	f := NewFacade(storage.NewMemoryStore(),
		WithGoogleSignIn(&fakeGoogleSignIn{token: "tok"}),
		WithRecorder(recorder))

	_, err := f.SignIn(context.Background(), model.ProviderGoogle)
	require.NoError(t, err)
	require.Len(t, recorder.errs, 1)
	assert.NoError(t, recorder.errs[0])
}

type staticAuthenticator struct{ token string }

func (staticAuthenticator) Configure(model.ProviderConfig) {}

func (a staticAuthenticator) SignIn(context.Context) (string, error) { return a.token, nil }

func TestFacade_WithAuthenticator(t *testing.T) {
	f := NewFacade(storage.NewMemoryStore(),
		WithAuthorizer(&fakeAuthorizer{}),
		WithAuthenticator(model.ProviderOneDrive, staticAuthenticator{token: "od"}))

	token, err := f.SignIn(context.Background(), model.ProviderOneDrive)
	require.NoError(t, err)
	assert.Equal(t, "od", token)
}

type sequencedGoogleSignIn struct {
	mu    sync.Mutex
	n     int
	token string
}

func (g *sequencedGoogleSignIn) Configure(model.ProviderConfig) {}

func (g *sequencedGoogleSignIn) HasPrerequisites(context.Context) error { return nil }

func (g *sequencedGoogleSignIn) SignIn(context.Context) error {
	g.mu.Lock()
	g.n++
	g.token = fmt.Sprintf("tok%02d", g.n)
	g.mu.Unlock()

	runtime.Gosched()
	return nil
}

func (g *sequencedGoogleSignIn) Tokens(context.Context) (*oauth2.Token, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return &oauth2.Token{AccessToken: g.token}, nil
}

func TestFacade_ConcurrentGoogleSignInsGetOwnTokens(t *testing.T) {
	ctx := context.Background()
	f := NewFacade(storage.NewMemoryStore(), WithGoogleSignIn(&sequencedGoogleSignIn{}))

	const n = 20
	got := make([]string, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := f.SignIn(ctx, model.ProviderGoogle)
			assert.NoError(t, err)
			got[i] = token
		}()
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, token := range got {
		assert.False(t, seen[token], "token %s returned twice", token)
		seen[token] = true
	}
	assert.Len(t, seen, n)
}
