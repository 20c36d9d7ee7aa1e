// Package main is the intake command: the registration API server plus the
// operator commands that manage its configuration and data.
package main

import (
	"os"

	"github.com/htl-registration/appointment-intake/internal/config"
	"github.com/htl-registration/appointment-intake/internal/logger"
	"github.com/spf13/cobra"
)

var version = "dev"

// cfg is populated before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "intake",
	Short:         "Appointment registration and waiting-list service",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return err
		}
		cfg = c
		logger.Init(cfg.LogLevel, cfg.LogFormat)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, importCmd, exportCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if cfg == nil {
			logger.Init("info", "console")
		}
		logger.Log.Error().Err(err).Msg("intake failed")
		os.Exit(1)
	}
}
