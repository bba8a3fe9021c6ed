// Package commands is the estate_hub command line: the API daemon, schema and
// seed maintenance, and a local session client.
package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"estate_hub/config"
	"estate_hub/logging"
)

var (
	cfg      *config.Config
	logger   *zap.Logger
	logClose func()

	logLevel string
)

// Execute runs the command line against os.Args.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "estate_hub",
		Short:        "Real estate listings backend",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			logger, logClose, err = logging.Setup(cfg.LogFile, cfg.LogLevel)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logClose != nil {
				logClose()
			}
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	root.AddCommand(serveCmd(), migrateCmd(), seedTypesCmd(), loginCmd(), logoutCmd(), statusCmd())
	return root
}
