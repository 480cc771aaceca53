package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Executes one acquisition run for every active tenant",
		Long: `Fetches the configured listing pages once, extracts and sanitizes
leads, resolves phone numbers, and persists new leads. Exits when every
active tenant has been processed.`,
		RunE: runOnce,
	}
}

func runOnce(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	h, err := buildHarness(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer h.Close()

	summaries, err := h.orch.RunAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	for _, s := range summaries {
		logger.Info("tenant run summary",
			zap.Int64("tenant_id", s.TenantID),
			zap.String("state", string(s.State)),
			zap.Int("leads_created", s.Counters.LeadsCreated),
			zap.Int("duplicates", s.Counters.Duplicates),
		)
	}
	return nil
}
