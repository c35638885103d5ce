package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"driveauth/internal/logger"
	"driveauth/internal/model"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// AuthConfiguration is a resolved OAuth client configuration: endpoints filled
// in and ready for an authorization-code flow.
type AuthConfiguration struct {
	ClientID             string
	ClientSecret         string
	Endpoint             oauth2.Endpoint
	RedirectURL          string
	Scopes               []string
	AdditionalParameters map[string]string
	UsePKCE              bool
}

// NewAuthConfiguration resolves cfg, falling back to the default endpoint of
// provider for endpoints cfg leaves empty.
func NewAuthConfiguration(provider model.Provider, cfg model.ProviderConfig) AuthConfiguration {
	endpoint := DefaultEndpoint(provider)
	if cfg.AuthorizationEndpoint != "" {
		endpoint.AuthURL = cfg.AuthorizationEndpoint
	}
	if cfg.TokenEndpoint != "" {
		endpoint.TokenURL = cfg.TokenEndpoint
	}

	return AuthConfiguration{
		ClientID:             cfg.ClientID,
		ClientSecret:         cfg.ClientSecret,
		Endpoint:             endpoint,
		RedirectURL:          cfg.RedirectURL,
		Scopes:               cfg.Scopes,
		AdditionalParameters: cfg.AdditionalParameters,
		UsePKCE:              cfg.UsePKCE,
	}
}

// Authorizer runs an interactive OAuth authorization and returns the issued token.
type Authorizer interface {
	Authorize(ctx context.Context, cfg AuthConfiguration) (*oauth2.Token, error)
}

// LoopbackAuthorizer runs the authorization-code flow with a redirect to a
// local HTTP listener. A redirect port of 0 binds a free port and rewrites
// the redirect URL to match.
type LoopbackAuthorizer struct {
	// OpenURL presents the authorization URL to the user.
	OpenURL func(authURL string) error

	// HTTPClient, when set, is used for the token exchange.
	HTTPClient *http.Client
}

var _ Authorizer = (*LoopbackAuthorizer)(nil)

func NewLoopbackAuthorizer(out io.Writer) *LoopbackAuthorizer {
	if out == nil {
		out = os.Stdout
	}

	return &LoopbackAuthorizer{OpenURL: PrintURL(out)}
}

func PrintURL(out io.Writer) func(string) error {
	return func(authURL string) error {
		_, err := fmt.Fprintf(out, "Visit the URL for the auth dialog:\n\n%s\n\nAuthentication will complete after you log on via browser...\n", authURL)
		return err
	}
}

type callbackResult struct {
	code string
	err  error
}

func (a *LoopbackAuthorizer) Authorize(ctx context.Context, cfg AuthConfiguration) (*oauth2.Token, error) {
	if cfg.RedirectURL == "" {
		return nil, fmt.Errorf("%w: missing redirect url", ErrNotConfigured)
	}

	redirect, err := url.Parse(cfg.RedirectURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect url: %w", err)
	}
	if redirect.Scheme != "http" {
		return nil, fmt.Errorf("redirect url must use http, got %q", redirect.Scheme)
	}

	ln, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", redirect.Host, err)
	}

	if redirect.Port() == "0" {
		port := ln.Addr().(*net.TCPAddr).Port
		redirect.Host = net.JoinHostPort(redirect.Hostname(), strconv.Itoa(port))
	}

	callbackPath := redirect.Path
	if callbackPath == "" {
		callbackPath = "/"
	}

	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     cfg.Endpoint,
		RedirectURL:  redirect.String(),
		Scopes:       cfg.Scopes,
	}

	state := oauth2.GenerateVerifier()
	var authOpts, exchangeOpts []oauth2.AuthCodeOption
	for k, v := range cfg.AdditionalParameters {
		authOpts = append(authOpts, oauth2.SetAuthURLParam(k, v))
	}
	if cfg.UsePKCE {
		verifier := oauth2.GenerateVerifier()
		authOpts = append(authOpts, oauth2.S256ChallengeOption(verifier))
		exchangeOpts = append(exchangeOpts, oauth2.VerifierOption(verifier))
	}

	resultCh := make(chan callbackResult, 1)
	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		res := parseCallback(r.URL.Query(), state)

		w.Header().Set("Content-Type", "text/html")
		if res.err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = fmt.Fprintf(w, "<h2>Authentication failed: %s</h2>\n", res.err)
		} else {
			_, _ = fmt.Fprintln(w, "<h2>Authentication complete! Now you can close this window and return to the application.</h2>")
		}

		select {
		case resultCh <- res:
		default:
		}
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("callback server error", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Log.Debug("waiting for authorization callback",
		zap.String("redirect_url", conf.RedirectURL))

	if err := a.OpenURL(conf.AuthCodeURL(state, authOpts...)); err != nil {
		return nil, fmt.Errorf("failed to open authorization url: %w", err)
	}

	var res callbackResult
	select {
	case res = <-resultCh:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.err != nil {
		return nil, res.err
	}

	exchangeCtx := ctx
	if a.HTTPClient != nil {
		exchangeCtx = context.WithValue(ctx, oauth2.HTTPClient, a.HTTPClient)
	}

	token, err := conf.Exchange(exchangeCtx, res.code, exchangeOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	return token, nil
}

func parseCallback(q url.Values, state string) callbackResult {
	if e := q.Get("error"); e != "" {
		if desc := q.Get("error_description"); desc != "" {
			e += ": " + desc
		}
		return callbackResult{err: fmt.Errorf("%w: %s", ErrAuthorizationDenied, e)}
	}

	if q.Get("state") != state {
		return callbackResult{err: ErrStateMismatch}
	}

	code := q.Get("code")
	if code == "" {
		return callbackResult{err: errors.New("authorization response is missing code")}
	}

	return callbackResult{code: code}
}
