// Package orchestrator owns the build lifecycle: creation, the state
// machine, the one-time manifest handoff, agent status reports, agent
// provision/teardown and the timeout sweep. It depends only on the Store and
// Provider interfaces so every path is testable without postgres or a
// compute backend.
package orchestrator

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgtype"

	computetypes "github.com/imgforge/imgforge/internal/compute/types"
	"github.com/imgforge/imgforge/internal/database/queries"
	"github.com/imgforge/imgforge/internal/shared/config"
	"github.com/imgforge/imgforge/internal/shared/uuid"
)

// Store is the persistence surface the orchestrator works against. It is
// satisfied by *database.DB.
type Store interface {
	UsersFindById(ctx context.Context, id uuid.UUID) (*queries.User, error)
	UsersFindByExternalId(ctx context.Context, externalID string) (*queries.User, error)
	UsersCreate(ctx context.Context, arg *queries.UsersCreateParams) (*queries.User, error)
	UsersUpdateAuthToken(ctx context.Context, arg *queries.UsersUpdateAuthTokenParams) (*queries.User, error)

	BuildsCreate(ctx context.Context, arg *queries.BuildsCreateParams) (*queries.Build, error)
	BuildsFindById(ctx context.Context, id uuid.UUID) (*queries.Build, error)
	BuildsFindByIdForUser(ctx context.Context, arg *queries.BuildsFindByIdForUserParams) (*queries.Build, error)
	BuildsFindByIdAndToken(ctx context.Context, arg *queries.BuildsFindByIdAndTokenParams) (*queries.Build, error)
	BuildsListByUser(ctx context.Context, userID uuid.UUID) ([]*queries.Build, error)
	BuildsListByUserAndStatus(ctx context.Context, arg *queries.BuildsListByUserAndStatusParams) ([]*queries.Build, error)
	BuildsTransition(ctx context.Context, arg *queries.BuildsTransitionParams) (*queries.Build, error)
	BuildsUpdateDetails(ctx context.Context, arg *queries.BuildsUpdateDetailsParams) (*queries.Build, error)
	BuildsConsumeNonce(ctx context.Context, id uuid.UUID) (*queries.Build, error)
	BuildsClaimAgentCreate(ctx context.Context, id uuid.UUID) (*queries.Build, error)
	BuildsSetAgent(ctx context.Context, arg *queries.BuildsSetAgentParams) (*queries.Build, error)
	BuildsClearAgentAlive(ctx context.Context, id uuid.UUID) (*queries.Build, error)
	BuildsSoftDelete(ctx context.Context, arg *queries.BuildsSoftDeleteParams) (*queries.Build, error)
	BuildsListStale(ctx context.Context, createdAt pgtype.Timestamptz) ([]*queries.Build, error)
}

// Config holds the orchestrator settings shared by the services that embed it
type Config struct {
	Manifest      config.ManifestConfig
	AgentImageID  string
	AgentFlavorID string

	// DebugKeepAgents spares the agent of a failed build from teardown so it
	// can be inspected. Completed and canceled builds always tear down.
	DebugKeepAgents bool
}

type Service struct {
	cfg     Config
	store   Store
	compute computetypes.Provider
	logger  *slog.Logger
}

// NewService creates a new orchestrator
func NewService(cfg Config, store Store, compute computetypes.Provider, logger *slog.Logger) *Service {
	return &Service{
		cfg:     cfg,
		store:   store,
		compute: compute,
		logger:  logger,
	}
}
