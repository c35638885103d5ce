package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"driveauth/internal/model"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "View daemon status",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Get(daemonURL("/status"))
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		var result struct {
			Providers []struct {
				Provider   model.Provider `json:"provider"`
				Configured bool           `json:"configured"`
				HasToken   bool           `json:"has_token"`
			} `json:"providers"`
		}

		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("failed to decode status response: %w", err)
		}

		fmt.Printf("%-10s %-12s %s\n", "PROVIDER", "CONFIGURED", "TOKEN")
		for _, p := range result.Providers {
			fmt.Printf("%-10s %-12s %s\n", p.Provider, yesNo(p.Configured), yesNo(p.HasToken))
		}

		return nil
	},
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
