package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/samber/lo"

	"github.com/imgforge/imgforge/internal/database/queries"
	"github.com/imgforge/imgforge/internal/shared/apierror"
	"github.com/imgforge/imgforge/internal/shared/secrets"
	"github.com/imgforge/imgforge/internal/shared/uuid"
)

var buildStatuses = []queries.BuildStatus{
	queries.BuildStatusCREATING,
	queries.BuildStatusERROR,
	queries.BuildStatusCOMPLETED,
	queries.BuildStatusCANCELED,
}

// CreateBuildInput is the owner-supplied part of a new build
type CreateBuildInput struct {
	Name           string
	Description    string
	IsPublic       bool
	SourceURL      string
	ImageContainer string
	ImageObject    string
	ImageAccount   string
	LogContainer   string
	LogObject      string
	LogAccount     string
	Project        string
	Networks       []string
}

func (in *CreateBuildInput) validate() error {
	if in.Name == "" {
		return apierror.NewValidationError("name is required")
	}
	if in.SourceURL == "" {
		return apierror.NewValidationError("source_url is required")
	}
	u, err := url.Parse(in.SourceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return apierror.NewValidationError("source_url must be an http(s) URL")
	}
	if in.ImageContainer == "" || in.ImageObject == "" {
		return apierror.NewValidationError("image container and object are required")
	}
	return nil
}

// CreateBuild validates the input, mints the build's credentials and persists
// the row in CREATING. Provisioning happens asynchronously once the insert is
// seen by a worker.
func (s *Service) CreateBuild(ctx context.Context, userID uuid.UUID, in CreateBuildInput) (*queries.Build, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	// Log destination defaults next to the image when not given
	if in.LogContainer == "" {
		in.LogContainer = in.ImageContainer
	}
	if in.LogObject == "" {
		in.LogObject = in.ImageObject + ".log"
	}

	controlToken, err := secrets.NewToken()
	if err != nil {
		return nil, fmt.Errorf("failed to mint control token: %w", err)
	}
	nonce, err := secrets.NewToken()
	if err != nil {
		return nil, fmt.Errorf("failed to mint manifest nonce: %w", err)
	}

	build, err := s.store.BuildsCreate(ctx, &queries.BuildsCreateParams{
		ID:             uuid.New(),
		UserID:         userID,
		Name:           in.Name,
		Description:    textOrNull(in.Description),
		IsPublic:       in.IsPublic,
		SourceUrl:      in.SourceURL,
		ImageContainer: in.ImageContainer,
		ImageObject:    in.ImageObject,
		ImageAccount:   textOrNull(in.ImageAccount),
		LogContainer:   in.LogContainer,
		LogObject:      in.LogObject,
		LogAccount:     textOrNull(in.LogAccount),
		Project:        textOrNull(in.Project),
		Networks:       in.Networks,
		ControlToken:   controlToken,
		ManifestNonce:  nonce,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create build: %w", err)
	}

	s.logger.Info("build created", "build_id", build.ID, "user_id", userID, "name", build.Name)

	return build, nil
}

// GetBuild returns a build owned by userID
func (s *Service) GetBuild(ctx context.Context, userID uuid.UUID, buildID uuid.UUID) (*queries.Build, error) {
	build, err := s.store.BuildsFindByIdForUser(ctx, &queries.BuildsFindByIdForUserParams{
		ID:     buildID,
		UserID: userID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apierror.NewNotFoundError("build")
		}
		return nil, fmt.Errorf("failed to fetch build: %w", err)
	}
	return build, nil
}

// ListBuilds returns the owner's builds, optionally filtered by status
func (s *Service) ListBuilds(ctx context.Context, userID uuid.UUID, statusFilter string) ([]*queries.Build, error) {
	if statusFilter == "" {
		builds, err := s.store.BuildsListByUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to list builds: %w", err)
		}
		return builds, nil
	}

	status := queries.BuildStatus(statusFilter)
	if !lo.Contains(buildStatuses, status) {
		return nil, apierror.NewValidationError("invalid status %q, expected one of %v", statusFilter, buildStatuses)
	}

	builds, err := s.store.BuildsListByUserAndStatus(ctx, &queries.BuildsListByUserAndStatusParams{
		UserID: userID,
		Status: status,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list builds: %w", err)
	}
	return builds, nil
}

// CancelBuild moves a CREATING build to CANCELED. Teardown of a live agent
// follows asynchronously from the update. Cancellation cannot roll back an
// agent create already in flight; the worker catches up once the agent is
// recorded.
func (s *Service) CancelBuild(ctx context.Context, userID uuid.UUID, buildID uuid.UUID) (*queries.Build, error) {
	if _, err := s.GetBuild(ctx, userID, buildID); err != nil {
		return nil, err
	}

	build, err := s.store.BuildsTransition(ctx, &queries.BuildsTransitionParams{
		ID:            buildID,
		Status:        queries.BuildStatusCANCELED,
		StatusDetails: textOrNull("canceled by owner"),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apierror.NewNotActiveError()
		}
		return nil, fmt.Errorf("failed to cancel build: %w", err)
	}

	s.logger.Info("build canceled", "build_id", buildID)

	return build, nil
}

// DeleteBuild soft-deletes a build. If its agent is still alive the deletion
// update triggers teardown.
func (s *Service) DeleteBuild(ctx context.Context, userID uuid.UUID, buildID uuid.UUID) error {
	_, err := s.store.BuildsSoftDelete(ctx, &queries.BuildsSoftDeleteParams{
		ID:     buildID,
		UserID: userID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apierror.NewNotFoundError("build")
		}
		return fmt.Errorf("failed to delete build: %w", err)
	}

	s.logger.Info("build deleted", "build_id", buildID)

	return nil
}

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
