package model

import (
	"errors"
	"fmt"
	"strings"
)

type Provider string

const (
	ProviderGoogle   Provider = "google"
	ProviderOneDrive Provider = "onedrive"
	ProviderDropbox  Provider = "dropbox"
)

var ErrUnsupportedProvider = errors.New("unsupported provider")

var Providers = []Provider{ProviderGoogle, ProviderOneDrive, ProviderDropbox}

func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, s)
	}

	return p, nil
}

func (p Provider) Valid() bool {
	switch p {
	case ProviderGoogle, ProviderOneDrive, ProviderDropbox:
		return true
	}
	return false
}

func (p Provider) String() string {
	return string(p)
}

// ProviderConfig is the OAuth client configuration for one provider. Google only
// needs ClientID and Scopes; Dropbox and OneDrive take the full record.
type ProviderConfig struct {
	ClientID              string            `mapstructure:"client_id" json:"client_id"`
	ClientSecret          string            `mapstructure:"client_secret" json:"client_secret,omitempty"`
	Scopes                []string          `mapstructure:"scopes" json:"scopes"`
	AuthorizationEndpoint string            `mapstructure:"authorization_endpoint" json:"authorization_endpoint,omitempty" validate:"omitempty,url"`
	TokenEndpoint         string            `mapstructure:"token_endpoint" json:"token_endpoint,omitempty" validate:"omitempty,url"`
	RedirectURL           string            `mapstructure:"redirect_url" json:"redirect_url,omitempty" validate:"omitempty,url"`
	AdditionalParameters  map[string]string `mapstructure:"additional_parameters" json:"additional_parameters,omitempty"`
	UsePKCE               bool              `mapstructure:"use_pkce" json:"use_pkce"`
}
