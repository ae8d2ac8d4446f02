package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/infra"
	"github.com/Alturino/storefront/internal/log"
)

var (
	configName string
	logFile    string
)

func Start() {
	rootCmd := &cobra.Command{
		Use:   constants.AppName,
		Short: "Storefront backend: users, catalog, cart, checkout and orders",
	}
	rootCmd.PersistentFlags().
		StringVar(&configName, "config", constants.AppName, "config name looked up as ./env/<name>.yaml")
	rootCmd.PersistentFlags().
		StringVar(&logFile, "log-file", "/var/log/storefront.log", "rotating log file")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the http server",
			Run: func(cmd *cobra.Command, args []string) {
				runServer(cmd.Context())
			},
		},
		&cobra.Command{
			Use:       "migrate [up|down]",
			Short:     "Apply or revert database migrations",
			Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
			ValidArgs: []string{infra.MigrationUp, infra.MigrationDown},
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigration(cmd.Context(), args[0])
			},
		},
	)

	c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(c); err != nil {
		logger := log.InitLogger(logFile)
		logger.Error().Err(err).Str(log.KeyTag, "main Start").Msgf("error when executing command=%s", err.Error())
		stop()
		os.Exit(1)
	}
}
