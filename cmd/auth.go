package cmd

import (
	"fmt"

	"driveauth/internal/model"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var authCmd = &cobra.Command{
	Use:       "auth <provider>...",
	Short:     "Sign in to one or more providers (google, dropbox, onedrive)",
	Args:      cobra.MinimumNArgs(1),
	ValidArgs: []string{"google", "dropbox", "onedrive"},
	RunE: func(cmd *cobra.Command, args []string) error {
		providers, err := parseProviders(args)
		if err != nil {
			return err
		}

		g, ctx := errgroup.WithContext(cmd.Context())
		for _, p := range providers {
			g.Go(func() error {
				if _, err := application.Facade.SignIn(ctx, p); err != nil {
					return fmt.Errorf("%s: %w", p, err)
				}

				fmt.Printf("Authenticated with %s\n", p)
				return nil
			})
		}

		return g.Wait()
	},
}

func parseProviders(args []string) ([]model.Provider, error) {
	seen := make(map[model.Provider]bool)
	var providers []model.Provider
	for _, arg := range args {
		p, err := model.ParseProvider(arg)
		if err != nil {
			return nil, err
		}
		if !seen[p] {
			seen[p] = true
			providers = append(providers, p)
		}
	}
	return providers, nil
}

func init() {
	rootCmd.AddCommand(authCmd)
}
