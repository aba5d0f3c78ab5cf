package main

import (
	"fmt"

	"linkhub/integrator/internal/config"
	"linkhub/integrator/internal/logging"

	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "integrator",
	Short: "LinkHub integrator: provider setup wizard and connected provider registry",
	Long: `Runs the LinkHub integrator HTTP API. Without a subcommand the server
starts, migrates the schema and serves until interrupted.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded

		if err := logging.Init(cfg.AppEnv); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logging.Close()
	},
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}
