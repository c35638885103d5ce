package drive

import (
	"context"
	"fmt"

	"driveauth/internal/model"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// GoogleAccount looks up the Drive user of a token. opts are appended to the
// Drive client options.
func GoogleAccount(opts ...option.ClientOption) LookupFunc {
	return func(ctx context.Context, token string) (model.Account, error) {
		clientOpts := append([]option.ClientOption{option.WithTokenSource(staticTokenSource(token))}, opts...)

		svc, err := drive.NewService(ctx, clientOpts...)
		if err != nil {
			return model.Account{}, fmt.Errorf("failed to create gdrive service: %w", err)
		}

		about, err := svc.About.Get().Fields("user").Context(ctx).Do()
		if err != nil {
			return model.Account{}, fmt.Errorf("failed to get gdrive user: %w", err)
		}
		if about.User == nil {
			return model.Account{}, fmt.Errorf("gdrive returned no user")
		}

		return model.Account{
			ID:    about.User.PermissionId,
			Name:  about.User.DisplayName,
			Email: about.User.EmailAddress,
		}, nil
	}
}
