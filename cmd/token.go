package cmd

import (
	"fmt"

	"driveauth/internal/model"

	"github.com/spf13/cobra"
)

var tokenSet string

var tokenCmd = &cobra.Command{
	Use:   "token <provider>",
	Short: "Print or set the stored access token of a provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := model.ParseProvider(args[0])
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("set") {
			return application.Facade.StoreAuthToken(cmd.Context(), provider, tokenSet)
		}

		token, ok, err := application.Facade.GetAuthToken(cmd.Context(), provider)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no token for %s. Please run 'driveauth auth %s' first", provider, provider)
		}

		fmt.Println(token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSet, "set", "", "store this token instead of printing the current one")
	rootCmd.AddCommand(tokenCmd)
}
