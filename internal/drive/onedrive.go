package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"driveauth/internal/model"

	"golang.org/x/oauth2"
)

const graphBaseURL = "https://graph.microsoft.com/v1.0"

type graphUser struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// OneDriveAccount looks up the Microsoft Graph user of a token.
func OneDriveAccount(baseURL string) LookupFunc {
	return func(ctx context.Context, token string) (model.Account, error) {
		client := oauth2.NewClient(ctx, staticTokenSource(token))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/me", nil)
		if err != nil {
			return model.Account{}, err
		}

		resp, err := client.Do(req)
		if err != nil {
			return model.Account{}, fmt.Errorf("failed to get onedrive user: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		if resp.StatusCode != http.StatusOK {
			return model.Account{}, fmt.Errorf("failed to get onedrive user: %s", resp.Status)
		}

		var user graphUser
		if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
			return model.Account{}, fmt.Errorf("failed to decode onedrive user: %w", err)
		}

		email := user.Mail
		if email == "" {
			email = user.UserPrincipalName
		}

		return model.Account{
			ID:    user.ID,
			Name:  user.DisplayName,
			Email: email,
		}, nil
	}
}
