package auth

import (
	"context"
	"fmt"
	"sync"

	"driveauth/internal/model"
)

// appAuthAuthenticator signs in to providers configured with a full OAuth
// client record (Dropbox, OneDrive).
type appAuthAuthenticator struct {
	mu         sync.RWMutex
	provider   model.Provider
	cfg        model.ProviderConfig
	configured bool
	authorizer Authorizer
}

func newAppAuthAuthenticator(provider model.Provider, authorizer Authorizer) *appAuthAuthenticator {
	return &appAuthAuthenticator{provider: provider, authorizer: authorizer}
}

func (a *appAuthAuthenticator) Configure(cfg model.ProviderConfig) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.cfg = cfg
	a.configured = true
}

func (a *appAuthAuthenticator) SignIn(ctx context.Context) (string, error) {
	a.mu.RLock()
	cfg, configured := a.cfg, a.configured
	a.mu.RUnlock()

	if !configured || cfg.ClientID == "" {
		return "", fmt.Errorf("%w: %s", ErrNotConfigured, a.provider)
	}

	token, err := a.authorizer.Authorize(ctx, NewAuthConfiguration(a.provider, cfg))
	if err != nil {
		return "", err
	}

	return token.AccessToken, nil
}
