// Package sweeper runs the timeout sweep: it reclaims agent VMs that have
// outlived the staleness threshold, either on a ticker or as a one-shot run
// for operator use.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/imgforge/imgforge/internal/compute"
	"github.com/imgforge/imgforge/internal/database"
	"github.com/imgforge/imgforge/internal/orchestrator"
	"github.com/imgforge/imgforge/internal/shared/config"
)

type Service struct {
	cfg    *config.SweeperConfig
	logger *slog.Logger
	db     *database.DB
	orch   *orchestrator.Service
}

// NewService creates a new sweeper service
func NewService(cfg *config.SweeperConfig, logger *slog.Logger) (*Service, error) {
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	provider, err := compute.NewProvider(&cfg.Compute, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create compute provider: %w", err)
	}

	orch := orchestrator.NewService(orchestrator.Config{
		AgentImageID:  cfg.Compute.AgentImageID,
		AgentFlavorID: cfg.Compute.AgentFlavorID,
	}, db, provider, logger)

	return &Service{
		cfg:    cfg,
		logger: logger,
		db:     db,
		orch:   orch,
	}, nil
}

// Start runs the sweep on the configured cadence. With RunOnce set it
// performs a single pass and returns, which is the operator-triggered mode.
func (s *Service) Start(ctx context.Context) error {
	if s.cfg.RunOnce {
		return s.sweep(ctx)
	}

	s.logger.Info("sweeper started",
		"interval", s.cfg.Interval,
		"stale_after", s.cfg.StaleAfter,
		"dry_run", s.cfg.DryRun)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.sweep(ctx); err != nil {
				s.logger.Error("sweep failed", "error", err)
			}
		}
	}
}

func (s *Service) sweep(ctx context.Context) error {
	cutoff := time.Now().Add(-s.cfg.StaleAfter)
	count, err := s.db.BuildsStaleCount(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to count stale builds: %w", err)
	}
	if count == 0 {
		s.logger.Debug("nothing to sweep")
		return nil
	}

	s.logger.Info("sweeping", "stale_builds", count, "cutoff", cutoff, "dry_run", s.cfg.DryRun)

	_, err = s.orch.Sweep(ctx, s.cfg.StaleAfter, s.cfg.DryRun)
	return err
}

// Close shuts down the sweeper's connections
func (s *Service) Close() error {
	if s.db != nil {
		s.db.Close()
	}
	return nil
}
