package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	systemclock "github.com/realcrm/lead-harvester/internal/clock/system"
	"github.com/realcrm/lead-harvester/internal/config"
	"github.com/realcrm/lead-harvester/internal/scheduler"
	"github.com/realcrm/lead-harvester/internal/server"
)

func newScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Runs the acquisition pipeline daily at the configured time",
		Long: `Blocks and triggers one full acquisition run per day at the configured
wall-clock time. A file lock drops a trigger if the previous run is
still in flight. Health and metrics endpoints are served while waiting.`,
		RunE: runSchedule,
	}
}

func runSchedule(cmd *cobra.Command, _ []string) error {
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

	at, err := config.ParseScheduleTime(cfg.Schedule.Time)
	if err != nil {
		return err
	}
	sched := scheduler.New(at, cfg.Schedule.LockFile, systemclock.New(), logger)
	ops := server.New(cfg.Server.Port, logger)

	logger.Info("scheduler starting",
		zap.String("daily_at", cfg.Schedule.Time),
		zap.String("lock_file", sched.LockPath()),
	)

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		return ops.Start(ctx)
	})
	g.Go(func() error {
		return sched.Run(ctx, func(ctx context.Context) error {
			_, runErr := h.orch.RunAll(ctx)
			return runErr
		})
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
