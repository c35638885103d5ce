package auth

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"driveauth/internal/model"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
)

const googleRedirectURL = "http://127.0.0.1:0/callback"

// GoogleSignIn is the native Google sign-in boundary: a prerequisite check,
// an interactive sign-in and retrieval of the resulting tokens.
type GoogleSignIn interface {
	Configure(cfg model.ProviderConfig)
	HasPrerequisites(ctx context.Context) error
	SignIn(ctx context.Context) error
	Tokens(ctx context.Context) (*oauth2.Token, error)
}

// OAuthGoogleSignIn signs in with Google's installed-app flow: PKCE over a
// loopback redirect, asking for offline access.
type OAuthGoogleSignIn struct {
	mu         sync.Mutex
	cfg        model.ProviderConfig
	authorizer Authorizer
	token      *oauth2.Token
}

var _ GoogleSignIn = (*OAuthGoogleSignIn)(nil)

func NewOAuthGoogleSignIn(authorizer Authorizer) *OAuthGoogleSignIn {
	return &OAuthGoogleSignIn{authorizer: authorizer}
}

func (g *OAuthGoogleSignIn) Configure(cfg model.ProviderConfig) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.cfg = cfg
}

func (g *OAuthGoogleSignIn) HasPrerequisites(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cfg.ClientID == "" {
		return fmt.Errorf("%w: google client id is not configured", ErrPrerequisitesUnavailable)
	}
	if g.authorizer == nil {
		return fmt.Errorf("%w: no authorizer", ErrPrerequisitesUnavailable)
	}

	return nil
}

func (g *OAuthGoogleSignIn) SignIn(ctx context.Context) error {
	g.mu.Lock()
	cfg := g.authConfiguration()
	g.mu.Unlock()

	token, err := g.authorizer.Authorize(ctx, cfg)
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.token = token
	g.mu.Unlock()

	return nil
}

func (g *OAuthGoogleSignIn) Tokens(ctx context.Context) (*oauth2.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.token == nil {
		return nil, ErrNotSignedIn
	}

	return g.token, nil
}

func (g *OAuthGoogleSignIn) authConfiguration() AuthConfiguration {
	cfg := NewAuthConfiguration(model.ProviderGoogle, g.cfg)
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{drive.DriveFileScope}
	}
	if cfg.RedirectURL == "" {
		cfg.RedirectURL = googleRedirectURL
	}

	params := map[string]string{"access_type": "offline"}
	maps.Copy(params, cfg.AdditionalParameters)
	cfg.AdditionalParameters = params
	cfg.UsePKCE = true

	return cfg
}

// googleAuthenticator runs one sign-in at a time, so Tokens always reports
// the token of the SignIn that preceded it.
type googleAuthenticator struct {
	mu     sync.Mutex
	signIn GoogleSignIn
}

func (a *googleAuthenticator) Configure(cfg model.ProviderConfig) {
	a.signIn.Configure(cfg)
}

func (a *googleAuthenticator) SignIn(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.signIn.HasPrerequisites(ctx); err != nil {
		return "", err
	}

	if err := a.signIn.SignIn(ctx); err != nil {
		return "", err
	}

	tokens, err := a.signIn.Tokens(ctx)
	if err != nil {
		return "", err
	}

	return tokens.AccessToken, nil
}
