package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/samber/lo"

	"github.com/imgforge/imgforge/internal/database/queries"
	"github.com/imgforge/imgforge/internal/shared/uuid"
)

// SweepResult summarizes one sweep pass
type SweepResult struct {
	Candidates []uuid.UUID
	TimedOut   int
	TornDown   int
	Failed     int
}

// Sweep reclaims builds whose agent has outlived the staleness threshold.
// Builds still in CREATING are moved to ERROR ("timed out"); builds already
// terminal keep their status and only get their teardown retried. Each build
// is processed independently, one failure never blocks the rest.
func (s *Service) Sweep(ctx context.Context, staleAfter time.Duration, dryRun bool) (*SweepResult, error) {
	cutoff := time.Now().Add(-staleAfter)

	stale, err := s.store.BuildsListStale(ctx, pgtype.Timestamptz{Time: cutoff, Valid: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list stale builds: %w", err)
	}

	result := &SweepResult{
		Candidates: lo.Map(stale, func(b *queries.Build, _ int) uuid.UUID { return b.ID }),
	}

	if dryRun {
		for _, b := range stale {
			s.logger.Info("sweep candidate (dry run)",
				"build_id", b.ID, "status", b.Status, "created_at", b.CreatedAt.Time)
		}
		return result, nil
	}

	for _, b := range stale {
		if b.Status == queries.BuildStatusCREATING {
			_, err := s.store.BuildsTransition(ctx, &queries.BuildsTransitionParams{
				ID:            b.ID,
				Status:        queries.BuildStatusERROR,
				StatusDetails: textOrNull("timed out"),
			})
			switch {
			case err == nil:
				result.TimedOut++
				s.logger.Warn("build timed out", "build_id", b.ID, "created_at", b.CreatedAt.Time)
			case errors.Is(err, pgx.ErrNoRows):
				// transitioned or deleted since the listing, teardown still applies
			default:
				s.logger.Error("failed to time out build", "build_id", b.ID, "error", err)
				result.Failed++
				continue
			}
		}

		if err := s.TeardownAgent(ctx, b.ID); err != nil {
			result.Failed++
			continue
		}
		result.TornDown++
	}

	s.logger.Info("sweep finished",
		"candidates", len(result.Candidates),
		"timed_out", result.TimedOut,
		"torn_down", result.TornDown,
		"failed", result.Failed)

	return result, nil
}
