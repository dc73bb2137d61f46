// Package listener turns committed changes to the builds table into NATS
// events. It is the bridge between the synchronous HTTP path, which only
// writes rows, and the workers that provision and tear down agents: the row
// is the durable task, the event is just the wakeup.
package listener

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/imgforge/imgforge/internal/events"
	"github.com/imgforge/imgforge/internal/shared/config"
	"github.com/imgforge/imgforge/internal/shared/nats"
	"github.com/imgforge/imgforge/internal/shared/uuid"
)

type Service struct {
	cfg    *config.ListenerConfig
	logger *slog.Logger
	nats   *nats.Client
	stream *walStream
}

// NewService creates a new listener service
func NewService(cfg *config.ListenerConfig, logger *slog.Logger) (*Service, error) {
	natsClient, err := nats.NewClient(cfg.NATS, "listener")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	s := &Service{
		cfg:    cfg,
		logger: logger,
		nats:   natsClient,
	}

	slotName := cfg.ReplicationSlotName
	if slotName == "" {
		slotName = "imgforge_listener"
	}
	publicationName := cfg.PublicationName
	if publicationName == "" {
		publicationName = "imgforge_builds"
	}

	s.stream = newWALStream(cfg.DatabaseURL, slotName, publicationName, cfg.StandbyTimeout, s.publishBuildChange, logger)

	return s, nil
}

// Start streams WAL changes until ctx is canceled
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("starting listener service")
	return s.stream.run(ctx)
}

// publishBuildChange publishes the matching event for a row change
func (s *Service) publishBuildChange(_ context.Context, op Op, id uuid.UUID) {
	subject := events.SubjectBuildUpdated
	if op == OpInsert {
		subject = events.SubjectBuildCreated
	}

	data, err := events.BuildEvent{ID: id.String()}.Marshal()
	if err != nil {
		s.logger.Error("failed to encode build event", "build_id", id, "error", err)
		return
	}

	if err := s.nats.Publish(subject, data); err != nil {
		s.logger.Error("failed to publish build event", "subject", subject, "build_id", id, "error", err)
		return
	}

	s.logger.Debug("published build event", "subject", subject, "build_id", id)
}

// Close shuts down the listener's connections
func (s *Service) Close() error {
	if s.nats != nil {
		s.nats.Close()
	}
	return nil
}
