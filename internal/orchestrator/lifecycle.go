package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	computetypes "github.com/imgforge/imgforge/internal/compute/types"
	"github.com/imgforge/imgforge/internal/database/queries"
	"github.com/imgforge/imgforge/internal/manifest"
	"github.com/imgforge/imgforge/internal/shared/uuid"
)

const (
	bootstrapPath = "/var/lib/imgforge/manifest.url"
	manifestPath  = "/var/lib/imgforge/manifest.json"
)

// ProvisionAgent creates the agent VM for a build. The claim update makes
// this safe under at-least-once event delivery: only the caller that flips
// agent_requested_at proceeds, every other invocation is a no-op.
func (s *Service) ProvisionAgent(ctx context.Context, buildID uuid.UUID) error {
	build, err := s.store.BuildsClaimAgentCreate(ctx, buildID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Debug("provision skipped, already claimed or build not active", "build_id", buildID)
			return nil
		}
		return fmt.Errorf("failed to claim provisioning: %w", err)
	}

	owner, err := s.store.UsersFindById(ctx, build.UserID)
	if err != nil {
		return fmt.Errorf("failed to fetch build owner: %w", err)
	}

	files, err := s.handoffFiles(ctx, build, owner.AuthToken)
	if err != nil {
		return err
	}
	if files == nil {
		// build left CREATING between the claim and the nonce consume
		return nil
	}

	spec := &computetypes.InstanceSpec{
		Name:     "imgforge-agent-" + build.ID.String(),
		ImageID:  s.cfg.AgentImageID,
		FlavorID: s.cfg.AgentFlavorID,
		Project:  build.Project.String,
		Networks: build.Networks,
		Files:    files,
	}

	instance, err := s.compute.CreateInstance(ctx, owner.AuthToken, spec)
	if err != nil {
		s.logger.Error("agent provisioning failed", "build_id", buildID, "error", err)
		s.failBuild(ctx, buildID, "agent provisioning failed")
		return err
	}

	if _, err := s.store.BuildsSetAgent(ctx, &queries.BuildsSetAgentParams{
		ID:      buildID,
		AgentID: textOrNull(instance.ID),
	}); err != nil {
		return fmt.Errorf("failed to record agent %s: %w", instance.ID, err)
	}

	s.logger.Info("agent provisioned", "build_id", buildID, "agent_id", instance.ID)

	return nil
}

// handoffFiles prepares the files injected into the agent. In url mode the
// agent receives only the one-time manifest URL and fetches the credentials
// itself; in inline mode the manifest is injected directly and the nonce is
// consumed here so the retrieval endpoint is dead for this build.
func (s *Service) handoffFiles(ctx context.Context, build *queries.Build, ownerToken string) ([]computetypes.InjectedFile, error) {
	switch s.cfg.Manifest.Handoff {
	case "inline":
		build, err := s.store.BuildsConsumeNonce(ctx, build.ID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to consume nonce: %w", err)
		}
		payload, err := manifest.Build(build, ownerToken, &s.cfg.Manifest).Encode()
		if err != nil {
			return nil, fmt.Errorf("failed to encode manifest: %w", err)
		}
		return []computetypes.InjectedFile{
			{Path: manifestPath, Contents: payload, Owner: "root", Mode: "0600"},
		}, nil

	default: // url
		retrievalURL := manifest.RetrievalURL(s.cfg.Manifest.PublicURL, build.ID.String(), build.ManifestNonce)
		return []computetypes.InjectedFile{
			{Path: bootstrapPath, Contents: []byte(retrievalURL + "\n"), Owner: "root", Mode: "0600"},
		}, nil
	}
}

// TeardownAgent deletes a build's agent VM if one is still alive. It is a
// safe no-op for unknown builds and builds without a live agent, so repeated
// invocations converge. A provider failure leaves agent_alive set; only the
// timeout sweep retries it.
func (s *Service) TeardownAgent(ctx context.Context, buildID uuid.UUID) error {
	build, err := s.store.BuildsFindById(ctx, buildID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("failed to fetch build: %w", err)
	}

	if !build.AgentAlive || !build.AgentID.Valid {
		return nil
	}

	owner, err := s.store.UsersFindById(ctx, build.UserID)
	if err != nil {
		return fmt.Errorf("failed to fetch build owner: %w", err)
	}

	err = s.compute.DeleteInstance(ctx, owner.AuthToken, build.AgentID.String)
	if err != nil && !errors.Is(err, computetypes.ErrInstanceNotFound) {
		s.logger.Error("agent teardown failed", "build_id", buildID, "agent_id", build.AgentID.String, "error", err)
		return err
	}

	if _, err := s.store.BuildsClearAgentAlive(ctx, buildID); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to clear agent flag: %w", err)
	}

	s.logger.Info("agent torn down", "build_id", buildID, "agent_id", build.AgentID.String)

	return nil
}

// failBuild best-effort moves a build to ERROR. Losing the race to another
// transition is fine; the winner's status stands.
func (s *Service) failBuild(ctx context.Context, buildID uuid.UUID, detail string) {
	_, err := s.store.BuildsTransition(ctx, &queries.BuildsTransitionParams{
		ID:            buildID,
		Status:        queries.BuildStatusERROR,
		StatusDetails: textOrNull(detail),
	})
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		s.logger.Error("failed to mark build as errored", "build_id", buildID, "error", err)
	}
}
