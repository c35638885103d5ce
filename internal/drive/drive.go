// Package drive resolves which account an access token belongs to, using each
// provider's API client.
package drive

import (
	"context"
	"fmt"

	"driveauth/internal/model"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"golang.org/x/oauth2"
)

type LookupFunc func(ctx context.Context, token string) (model.Account, error)

type Resolver struct {
	lookups map[model.Provider]LookupFunc
}

func NewResolver() *Resolver {
	return &Resolver{lookups: map[model.Provider]LookupFunc{
		model.ProviderGoogle:   GoogleAccount(),
		model.ProviderDropbox:  DropboxAccount(dropbox.Config{}),
		model.ProviderOneDrive: OneDriveAccount(graphBaseURL),
	}}
}

// Register replaces the lookup of provider.
func (r *Resolver) Register(provider model.Provider, fn LookupFunc) {
	r.lookups[provider] = fn
}

func (r *Resolver) Lookup(ctx context.Context, provider model.Provider, token string) (model.Account, error) {
	fn, ok := r.lookups[provider]
	if !ok {
		return model.Account{}, fmt.Errorf("%w: %q", model.ErrUnsupportedProvider, provider)
	}

	account, err := fn(ctx, token)
	if err != nil {
		return model.Account{}, err
	}

	account.Provider = provider
	return account, nil
}

func staticTokenSource(token string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
}
