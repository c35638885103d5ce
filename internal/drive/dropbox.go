package drive

import (
	"context"
	"fmt"

	"driveauth/internal/model"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/users"
)

// DropboxAccount looks up the Dropbox account of a token. base carries SDK
// settings shared by every lookup; its Token is replaced. The SDK call takes
// no context, so ctx is only checked before the request.
func DropboxAccount(base dropbox.Config) LookupFunc {
	return func(ctx context.Context, token string) (model.Account, error) {
		if err := ctx.Err(); err != nil {
			return model.Account{}, err
		}

		cfg := base
		cfg.Token = token
		client := users.New(cfg)
		account, err := client.GetCurrentAccount()
		if err != nil {
			return model.Account{}, fmt.Errorf("failed to get dropbox account: %w", err)
		}

		out := model.Account{
			ID:    account.AccountId,
			Email: account.Email,
		}
		if account.Name != nil {
			out.Name = account.Name.DisplayName
		}
		return out, nil
	}
}
