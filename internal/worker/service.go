// Package worker is the asynchronous half of the build lifecycle. It
// consumes build change events from NATS and performs agent provisioning and
// teardown. Events carry only the build id; the worker re-fetches the row
// before acting, so it always works from the latest persisted state.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	natsgo "github.com/nats-io/nats.go"

	"github.com/imgforge/imgforge/internal/compute"
	"github.com/imgforge/imgforge/internal/database"
	"github.com/imgforge/imgforge/internal/database/queries"
	"github.com/imgforge/imgforge/internal/events"
	"github.com/imgforge/imgforge/internal/orchestrator"
	"github.com/imgforge/imgforge/internal/shared/config"
	"github.com/imgforge/imgforge/internal/shared/nats"
	"github.com/imgforge/imgforge/internal/shared/uuid"
)

const handlerTimeout = 2 * time.Minute

type Service struct {
	cfg    *config.WorkerConfig
	logger *slog.Logger
	db     *database.DB
	nats   *nats.Client
	orch   *orchestrator.Service
	subs   []*natsgo.Subscription
}

// NewService creates a new worker service
func NewService(cfg *config.WorkerConfig, logger *slog.Logger) (*Service, error) {
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	natsClient, err := nats.NewClient(cfg.NATS, "worker")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	provider, err := compute.NewProvider(&cfg.Compute, logger)
	if err != nil {
		natsClient.Close()
		db.Close()
		return nil, fmt.Errorf("failed to create compute provider: %w", err)
	}

	orch := orchestrator.NewService(orchestrator.Config{
		Manifest:        cfg.Manifest,
		AgentImageID:    cfg.Compute.AgentImageID,
		AgentFlavorID:   cfg.Compute.AgentFlavorID,
		DebugKeepAgents: cfg.DebugKeepAgents,
	}, db, provider, logger)

	return &Service{
		cfg:    cfg,
		logger: logger,
		db:     db,
		nats:   natsClient,
		orch:   orch,
	}, nil
}

// Start subscribes to build events and blocks until ctx is canceled. Workers
// share a queue group so each event is handled by exactly one of them.
func (s *Service) Start(ctx context.Context) error {
	created, err := s.nats.QueueSubscribe(events.SubjectBuildCreated, events.QueueAgentWorkers, s.handleBuildCreated)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", events.SubjectBuildCreated, err)
	}
	s.subs = append(s.subs, created)

	updated, err := s.nats.QueueSubscribe(events.SubjectBuildUpdated, events.QueueAgentWorkers, s.handleBuildUpdated)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", events.SubjectBuildUpdated, err)
	}
	s.subs = append(s.subs, updated)

	if err := s.nats.Flush(); err != nil {
		return fmt.Errorf("failed to flush subscriptions: %w", err)
	}

	s.logger.Info("worker started", "queue_group", events.QueueAgentWorkers)

	<-ctx.Done()
	return nil
}

// handleBuildCreated provisions the agent for a new build
func (s *Service) handleBuildCreated(msg *natsgo.Msg) {
	event, err := events.UnmarshalBuildEvent(msg.Data)
	if err != nil {
		s.logger.Error("failed to decode build event", "error", err)
		return
	}

	buildID, err := uuid.Parse(event.ID)
	if err != nil {
		s.logger.Error("build event with invalid id", "id", event.ID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if err := s.orch.ProvisionAgent(ctx, buildID); err != nil {
		s.logger.Error("provisioning failed", "build_id", buildID, "error", err)
	}
}

// handleBuildUpdated tears the agent down once the build leaves its active
// phase. Every update event re-evaluates the row, so a cancellation that
// raced the provisioning is caught by the follow-up event that records the
// agent.
func (s *Service) handleBuildUpdated(msg *natsgo.Msg) {
	event, err := events.UnmarshalBuildEvent(msg.Data)
	if err != nil {
		s.logger.Error("failed to decode build event", "error", err)
		return
	}

	buildID, err := uuid.Parse(event.ID)
	if err != nil {
		s.logger.Error("build event with invalid id", "id", event.ID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	build, err := s.db.BuildsFindById(ctx, buildID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error("failed to fetch build", "build_id", buildID, "error", err)
		}
		return
	}

	if !shouldTeardown(build, s.cfg.DebugKeepAgents) {
		return
	}

	if err := s.orch.TeardownAgent(ctx, buildID); err != nil {
		s.logger.Error("teardown failed", "build_id", buildID, "error", err)
	}
}

// shouldTeardown decides whether a build's agent has to go. keepOnError
// spares the agent of a failed build for inspection; deletion always wins.
func shouldTeardown(b *queries.Build, keepOnError bool) bool {
	if !b.AgentAlive {
		return false
	}
	if b.DeletedAt.Valid {
		return true
	}

	switch b.Status {
	case queries.BuildStatusCOMPLETED, queries.BuildStatusCANCELED:
		return true
	case queries.BuildStatusERROR:
		return !keepOnError
	default:
		return false
	}
}

// Close shuts down the worker's connections
func (s *Service) Close() error {
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	if s.nats != nil {
		s.nats.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}
