// Package cmd defines the CLI commands for the lead-harvester executable.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/realcrm/lead-harvester/internal/config"
	"github.com/realcrm/lead-harvester/internal/logging"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lead-harvester",
		Short: "Acquires rental listings and turns them into CRM leads.",
		Long: `lead-harvester crawls a classifieds site through an anti-bot relay,
extracts listing data and seller phone numbers, and writes deduplicated
leads into the CRM database. It can run once on demand or on a daily
schedule.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default searches ./config.yaml and /etc/lead-harvester/)")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newScheduleCmd())

	return cmd
}

// loadEnvironment loads configuration and builds the process logger.
func loadEnvironment() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

// Execute is the entry point for the CLI.
func Execute(ctx context.Context) {
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
