package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/imgforge/imgforge/internal/database/queries"
	"github.com/imgforge/imgforge/internal/manifest"
	"github.com/imgforge/imgforge/internal/shared/apierror"
	"github.com/imgforge/imgforge/internal/shared/secrets"
	"github.com/imgforge/imgforge/internal/shared/uuid"
)

// RequestManifest serves the one-time manifest retrieval. Every failure mode
// returns the same opaque error so a probing caller cannot distinguish an
// unknown build from a bad nonce, a consumed nonce or an expired window.
func (s *Service) RequestManifest(ctx context.Context, buildID uuid.UUID, nonce string) ([]byte, error) {
	denied := apierror.NewForbiddenError("")

	build, err := s.store.BuildsFindById(ctx, buildID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, denied
		}
		return nil, fmt.Errorf("failed to fetch build: %w", err)
	}
	if build.DeletedAt.Valid {
		return nil, denied
	}

	if !secrets.Equal(build.ManifestNonce, nonce) {
		s.logger.Warn("manifest request with bad nonce", "build_id", buildID)
		return nil, denied
	}

	if time.Since(build.CreatedAt.Time) > s.cfg.Manifest.Window {
		s.logger.Warn("manifest retrieval window expired", "build_id", buildID)
		if _, err := s.store.BuildsConsumeNonce(ctx, buildID); err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("failed to consume nonce: %w", err)
		}
		if _, err := s.store.BuildsTransition(ctx, &queries.BuildsTransitionParams{
			ID:            buildID,
			Status:        queries.BuildStatusERROR,
			StatusDetails: textOrNull("manifest retrieval window expired"),
		}); err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("failed to expire build: %w", err)
		}
		return nil, denied
	}

	owner, err := s.store.UsersFindById(ctx, build.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch build owner: %w", err)
	}

	payload, err := manifest.Build(build, owner.AuthToken, &s.cfg.Manifest).Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}

	// Single use, consumed last: the first matching request flips the flag and
	// everyone after that loses the race, while a store failure above leaves
	// the nonce intact for a retry.
	if _, err := s.store.BuildsConsumeNonce(ctx, buildID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn("manifest nonce replayed or build not active", "build_id", buildID)
			return nil, denied
		}
		return nil, fmt.Errorf("failed to consume nonce: %w", err)
	}

	s.logger.Info("manifest handed off", "build_id", buildID)

	return payload, nil
}
