package cmd

import (
	"fmt"

	"driveauth/internal/model"

	"github.com/spf13/cobra"
)

var (
	historyN        int
	historyProvider string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View sign-in history",
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			histories []model.History
			err       error
		)
		if historyProvider != "" {
			provider, perr := model.ParseProvider(historyProvider)
			if perr != nil {
				return perr
			}
			histories, err = application.History.GetByProvider(cmd.Context(), provider, historyN)
		} else {
			histories, err = application.History.GetRecent(cmd.Context(), historyN)
		}
		if err != nil {
			return err
		}

		if len(histories) == 0 {
			fmt.Println("no history yet")
			return nil
		}

		for _, h := range histories {
			status := "✓"
			if h.Status == model.StatusFailed {
				status = "✗"
			}

			fmt.Printf("%s [%s] %-9s %s\n",
				status,
				h.SignedInAt.Format("2006-01-02 15:04:05"),
				h.Provider,
				h.ErrMsg,
			)
		}

		stats, err := application.History.GetStats(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("\n%d sign-ins, %d succeeded, %d failed\n", stats.Total, stats.Success, stats.Failed)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyN, "n", 20, "number of history entries to show")
	historyCmd.Flags().StringVar(&historyProvider, "provider", "", "only show sign-ins of this provider")
	rootCmd.AddCommand(historyCmd)
}
