// Package auth signs in to the supported drive providers and keeps the
// resulting access tokens.
//
// A Facade holds one Authenticator per provider. Google goes through a
// GoogleSignIn (prerequisite check, interactive sign-in, token retrieval);
// Dropbox and OneDrive go through a generic Authorizer fed with the
// provider's OAuth client configuration. Every successful sign-in is written
// to a TokenStore, a single JSON mapping of provider to access token.
package auth

import (
	"context"
	"fmt"
	"os"
	"sync"

	"driveauth/internal/logger"
	"driveauth/internal/model"
	"driveauth/internal/storage"

	"go.uber.org/zap"
)

// Authenticator performs the sign-in for one provider.
type Authenticator interface {
	Configure(cfg model.ProviderConfig)
	SignIn(ctx context.Context) (string, error)
}

// Recorder is notified of every sign-in attempt; signInErr is nil on success.
type Recorder interface {
	Record(ctx context.Context, provider model.Provider, signInErr error) error
}

type Facade struct {
	mu             sync.RWMutex
	configs        map[model.Provider]model.ProviderConfig
	authenticators map[model.Provider]Authenticator
	tokens         *TokenStore
	recorder       Recorder
}

type facadeOptions struct {
	authorizer     Authorizer
	googleSignIn   GoogleSignIn
	authenticators map[model.Provider]Authenticator
	recorder       Recorder
}

type Option func(*facadeOptions)

// WithAuthorizer sets the authorizer used by the default authenticators.
func WithAuthorizer(a Authorizer) Option {
	return func(o *facadeOptions) { o.authorizer = a }
}

func WithGoogleSignIn(g GoogleSignIn) Option {
	return func(o *facadeOptions) { o.googleSignIn = g }
}

// WithAuthenticator replaces the authenticator of provider.
func WithAuthenticator(provider model.Provider, a Authenticator) Option {
	return func(o *facadeOptions) { o.authenticators[provider] = a }
}

func WithRecorder(r Recorder) Option {
	return func(o *facadeOptions) { o.recorder = r }
}

func NewFacade(store storage.Store, opts ...Option) *Facade {
	o := &facadeOptions{authenticators: make(map[model.Provider]Authenticator)}
	for _, opt := range opts {
		opt(o)
	}

	if o.authorizer == nil {
		o.authorizer = NewLoopbackAuthorizer(os.Stdout)
	}
	if o.googleSignIn == nil {
		o.googleSignIn = NewOAuthGoogleSignIn(o.authorizer)
	}

	authenticators := map[model.Provider]Authenticator{
		model.ProviderGoogle:   &googleAuthenticator{signIn: o.googleSignIn},
		model.ProviderDropbox:  newAppAuthAuthenticator(model.ProviderDropbox, o.authorizer),
		model.ProviderOneDrive: newAppAuthAuthenticator(model.ProviderOneDrive, o.authorizer),
	}
	for p, a := range o.authenticators {
		authenticators[p] = a
	}

	return &Facade{
		configs:        make(map[model.Provider]model.ProviderConfig),
		authenticators: authenticators,
		tokens:         NewTokenStore(store),
		recorder:       o.recorder,
	}
}

func (f *Facade) authenticator(provider model.Provider) (Authenticator, error) {
	a, ok := f.authenticators[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, provider)
	}
	return a, nil
}

// Configure stores cfg for provider, replacing any previous configuration.
func (f *Facade) Configure(provider model.Provider, cfg model.ProviderConfig) error {
	a, err := f.authenticator(provider)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.configs[provider] = cfg
	a.Configure(cfg)

	logger.Log.Debug("provider configured",
		zap.String("provider", provider.String()),
		zap.String("client_id", cfg.ClientID))

	return nil
}

// Unconfigure drops the configuration of provider. Its authenticator is reset
// to an empty configuration, so later sign-ins fail as if it was never configured.
func (f *Facade) Unconfigure(provider model.Provider) error {
	a, err := f.authenticator(provider)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.configs[provider]; !ok {
		return nil
	}
	delete(f.configs, provider)
	a.Configure(model.ProviderConfig{})

	logger.Log.Debug("provider unconfigured", zap.String("provider", provider.String()))

	return nil
}

// ConfigOf returns the configuration last passed to Configure for provider.
func (f *Facade) ConfigOf(provider model.Provider) (model.ProviderConfig, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	cfg, ok := f.configs[provider]
	return cfg, ok
}

// Configured lists the providers that have a configuration, in model.Providers order.
func (f *Facade) Configured() []model.Provider {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var out []model.Provider
	for _, p := range model.Providers {
		if _, ok := f.configs[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// SignIn runs the interactive sign-in of provider, stores the access token and
// returns it. Errors from the sign-in flow and from storage are returned as is.
func (f *Facade) SignIn(ctx context.Context, provider model.Provider) (string, error) {
	a, err := f.authenticator(provider)
	if err != nil {
		return "", err
	}

	logger.Log.Info("sign-in started", zap.String("provider", provider.String()))

	token, err := a.SignIn(ctx)
	if err == nil {
		err = f.tokens.Store(ctx, provider, token)
	}

	if f.recorder != nil {
		if recErr := f.recorder.Record(ctx, provider, err); recErr != nil {
			logger.Log.Warn("failed to record sign-in",
				zap.String("provider", provider.String()),
				zap.Error(recErr))
		}
	}

	if err != nil {
		logger.Log.Error("sign-in failed",
			zap.String("provider", provider.String()),
			zap.Error(err))
		return "", err
	}

	logger.Log.Info("sign-in complete", zap.String("provider", provider.String()))
	return token, nil
}

func (f *Facade) StoreAuthToken(ctx context.Context, provider model.Provider, token string) error {
	if !provider.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedProvider, provider)
	}
	return f.tokens.Store(ctx, provider, token)
}

// GetAuthToken returns the stored token of provider. ok is false when none was stored.
func (f *Facade) GetAuthToken(ctx context.Context, provider model.Provider) (string, bool, error) {
	return f.tokens.Get(ctx, provider)
}
