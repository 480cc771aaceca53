package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/realcrm/lead-harvester/internal/archive"
	systemclock "github.com/realcrm/lead-harvester/internal/clock/system"
	"github.com/realcrm/lead-harvester/internal/config"
	"github.com/realcrm/lead-harvester/internal/id/uuid"
	"github.com/realcrm/lead-harvester/internal/orchestrator"
	"github.com/realcrm/lead-harvester/internal/relay"
	"github.com/realcrm/lead-harvester/internal/retry"
	"github.com/realcrm/lead-harvester/internal/store/postgres"
)

// harness owns the wired pipeline plus the resources that need closing.
type harness struct {
	orch   *orchestrator.Orchestrator
	store  *postgres.Store
	logger *zap.Logger
}

// buildHarness wires configuration into a ready-to-run pipeline.
func buildHarness(ctx context.Context, cfg config.Config, logger *zap.Logger) (*harness, error) {
	fetcher, err := relay.New(relay.Config{
		APIKey:       cfg.Relay.APIKey,
		Endpoint:     cfg.Relay.Endpoint,
		ProxyCountry: cfg.Relay.ProxyCountry,
		UserAgent:    cfg.Relay.UserAgent,
		AcceptLang:   cfg.Relay.AcceptLang,
		Timeout:      cfg.HTTP.Timeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init relay client: %w", err)
	}

	store, err := postgres.New(ctx, postgres.Config{
		DSN:             cfg.DB.DSN,
		Table:           cfg.DB.LeadsTable,
		MaxConns:        cfg.DB.MaxConns,
		MinConns:        cfg.DB.MinConns,
		MaxConnLifetime: cfg.DB.MaxConnLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("init lead store: %w", err)
	}

	sink, err := archive.NewFileSystemSink(cfg.Archive.DataDir, systemclock.New(), logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init archive sink: %w", err)
	}

	pageRetry := retry.New(retry.Config{
		MaxAttempts:   cfg.Retry.PageMaxAttempts,
		BaseDelay:     cfg.Retry.BaseDelay,
		BackoffFactor: cfg.Retry.BackoffFactor,
		MaxDelay:      cfg.Retry.MaxDelay,
	}, logger)
	phoneRetry := retry.New(retry.Config{
		MaxAttempts:   cfg.Retry.PhoneMaxAttempts,
		BaseDelay:     cfg.Retry.BaseDelay,
		BackoffFactor: cfg.Retry.BackoffFactor,
		MaxDelay:      cfg.Retry.MaxDelay,
	}, logger)
	pause := retry.JitterPauser{Min: cfg.Delay.Min, Max: cfg.Delay.Max}

	orch := orchestrator.New(
		fetcher,
		pageRetry,
		phoneRetry,
		pause,
		store,
		store,
		sink,
		systemclock.New(),
		uuid.New(),
		orchestrator.Config{
			BaseURL:             cfg.Source.BaseURL,
			PageCap:             cfg.Source.PageCap,
			CountryPrefix:       cfg.Source.CountryPrefix,
			FilterPrivateOwners: cfg.Source.FilterPrivateOwners,
			FilterPostedToday:   cfg.Source.FilterPostedToday,
		},
		logger,
	)

	return &harness{orch: orch, store: store, logger: logger}, nil
}

// Close releases the harness's database resources.
func (h *harness) Close() {
	h.store.Close()
}
