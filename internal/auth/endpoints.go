package auth

import (
	"driveauth/internal/model"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"
)

var dropboxEndpoint = oauth2.Endpoint{
	AuthURL:  "https://www.dropbox.com/oauth2/authorize",
	TokenURL: "https://api.dropboxapi.com/oauth2/token",
}

// DefaultEndpoint returns the public OAuth endpoint of p, used when a provider
// configuration leaves its endpoints empty.
func DefaultEndpoint(p model.Provider) oauth2.Endpoint {
	switch p {
	case model.ProviderGoogle:
		return google.Endpoint
	case model.ProviderDropbox:
		return dropboxEndpoint
	case model.ProviderOneDrive:
		return microsoft.AzureADEndpoint("common")
	}
	return oauth2.Endpoint{}
}
