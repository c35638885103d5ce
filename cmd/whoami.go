package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami <provider>...",
	Short: "Show the account each stored token belongs to",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		providers, err := parseProviders(args)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		for _, p := range providers {
			token, ok, err := application.Facade.GetAuthToken(ctx, p)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Printf("%-9s not signed in\n", p)
				continue
			}

			account, err := application.Resolver.Lookup(ctx, p, token)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}

			fmt.Printf("%-9s %s <%s> (%s)\n", p, account.Name, account.Email, account.ID)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
