package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/imgforge/imgforge/internal/database/queries"
	"github.com/imgforge/imgforge/internal/shared/apierror"
	"github.com/imgforge/imgforge/internal/shared/uuid"
)

// StatusReport is what an agent posts back on the control channel. Progress
// is "current/total", e.g. "3/9".
type StatusReport struct {
	Status   string
	Note     string
	Progress string
}

// ReportStatus applies an agent's status report. A re-post of CREATING is a
// progress heartbeat and never transitions state; ERROR and COMPLETED are
// guarded transitions that fail with "not active" once the build left
// CREATING.
func (s *Service) ReportStatus(ctx context.Context, buildID uuid.UUID, controlToken string, report StatusReport) error {
	build, err := s.store.BuildsFindByIdAndToken(ctx, &queries.BuildsFindByIdAndTokenParams{
		ID:           buildID,
		ControlToken: controlToken,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Unknown build and wrong token are deliberately the same answer.
			return apierror.NewNotFoundError("build")
		}
		return fmt.Errorf("failed to fetch build: %w", err)
	}

	status := queries.BuildStatus(report.Status)
	switch status {
	case queries.BuildStatusCREATING, queries.BuildStatusERROR, queries.BuildStatusCOMPLETED:
		// allowed from agents
	case queries.BuildStatusCANCELED:
		return apierror.NewValidationError("status CANCELED cannot be set by an agent")
	default:
		return apierror.NewValidationError("invalid status %q", report.Status)
	}

	current, total, err := parseProgress(report.Progress)
	if err != nil {
		return err
	}

	if status == queries.BuildStatusCREATING {
		_, err = s.store.BuildsUpdateDetails(ctx, &queries.BuildsUpdateDetailsParams{
			ID:              build.ID,
			StatusDetails:   textOrNull(report.Note),
			ProgressCurrent: current,
			ProgressTotal:   total,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apierror.NewNotActiveError()
			}
			return fmt.Errorf("failed to update build details: %w", err)
		}
		return nil
	}

	_, err = s.store.BuildsTransition(ctx, &queries.BuildsTransitionParams{
		ID:            build.ID,
		Status:        status,
		StatusDetails: textOrNull(report.Note),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apierror.NewNotActiveError()
		}
		return fmt.Errorf("failed to transition build: %w", err)
	}

	s.logger.Info("agent reported terminal status", "build_id", build.ID, "status", status)

	return nil
}

// parseProgress parses a "current/total" pair. An empty string means the
// agent sent no progress and leaves the stored values untouched.
func parseProgress(progress string) (pgtype.Int4, pgtype.Int4, error) {
	if progress == "" {
		return pgtype.Int4{}, pgtype.Int4{}, nil
	}

	currentStr, totalStr, ok := strings.Cut(progress, "/")
	if !ok {
		return pgtype.Int4{}, pgtype.Int4{}, apierror.NewValidationError("progress must be of the form current/total")
	}

	current, err := strconv.ParseInt(strings.TrimSpace(currentStr), 10, 32)
	if err != nil {
		return pgtype.Int4{}, pgtype.Int4{}, apierror.NewValidationError("invalid progress value %q", progress)
	}
	total, err := strconv.ParseInt(strings.TrimSpace(totalStr), 10, 32)
	if err != nil {
		return pgtype.Int4{}, pgtype.Int4{}, apierror.NewValidationError("invalid progress value %q", progress)
	}
	if current < 0 || total < 0 || current > total {
		return pgtype.Int4{}, pgtype.Int4{}, apierror.NewValidationError("invalid progress value %q", progress)
	}

	return pgtype.Int4{Int32: int32(current), Valid: true},
		pgtype.Int4{Int32: int32(total), Valid: true}, nil
}
