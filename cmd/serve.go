package cmd

import (
	"os/signal"
	"syscall"

	"driveauth/internal/config"
	"driveauth/internal/daemon"
	"driveauth/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local auth daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg.Watch(func(newCfg *config.Config) {
			if err := application.ApplyProviders(newCfg); err != nil {
				logger.Log.Warn("failed to apply provider config", zap.Error(err))
			}
		})

		srv := daemon.NewServer(application.Facade, application.Resolver, application.History, cfg.DaemonPort)

		logger.Log.Info("driveauth daemon ready",
			zap.Int("port", cfg.DaemonPort),
			zap.Int("providers", len(application.Facade.Configured())))

		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
