package cmd

import (
	"fmt"
	"os"

	"driveauth/internal/app"
	"driveauth/internal/config"
	"driveauth/internal/logger"

	"github.com/spf13/cobra"
)

var (
	cfg         *config.Config
	application *app.App
	debug       bool
)

// Commands that only talk to a running daemon and need no local state.
var clientCmds = map[string]bool{"status": true, "stop": true}

var rootCmd = &cobra.Command{
	Use:          "driveauth",
	Short:        "Sign in to Google Drive, Dropbox and OneDrive and keep the access tokens",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		logger.Init(debug)

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		if !clientCmds[cmd.Name()] {
			application, err = app.New(cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
		}

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		logger.Sync()
		if application != nil {
			return application.Close()
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func daemonURL(path string) string {
	return fmt.Sprintf("http://127.0.0.1:%d%s", cfg.DaemonPort, path)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug mode")
}
