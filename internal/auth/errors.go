package auth

import (
	"errors"

	"driveauth/internal/model"
)

var (
	ErrUnsupportedProvider      = model.ErrUnsupportedProvider
	ErrNotConfigured            = errors.New("provider is not configured")
	ErrPrerequisitesUnavailable = errors.New("sign-in prerequisites are not available")
	ErrNotSignedIn              = errors.New("not signed in")
	ErrAuthorizationDenied      = errors.New("authorization denied")
	ErrStateMismatch            = errors.New("authorization state mismatch")
)
