// Package api is the HTTP surface: owner-facing build CRUD behind the
// identity gateway, plus the two agent-facing endpoints (one-time manifest
// retrieval and status reports) that authenticate with per-build secrets
// instead.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/imgforge/imgforge/internal/database/queries"
	"github.com/imgforge/imgforge/internal/orchestrator"
	"github.com/imgforge/imgforge/internal/shared/config"
	"github.com/imgforge/imgforge/internal/shared/uuid"
)

// Orchestrator is the slice of the build orchestrator the handlers call
type Orchestrator interface {
	ResolveUser(ctx context.Context, externalID string, authToken string) (*queries.User, error)
	CreateBuild(ctx context.Context, userID uuid.UUID, in orchestrator.CreateBuildInput) (*queries.Build, error)
	GetBuild(ctx context.Context, userID uuid.UUID, buildID uuid.UUID) (*queries.Build, error)
	ListBuilds(ctx context.Context, userID uuid.UUID, statusFilter string) ([]*queries.Build, error)
	CancelBuild(ctx context.Context, userID uuid.UUID, buildID uuid.UUID) (*queries.Build, error)
	DeleteBuild(ctx context.Context, userID uuid.UUID, buildID uuid.UUID) error
	RequestManifest(ctx context.Context, buildID uuid.UUID, nonce string) ([]byte, error)
	ReportStatus(ctx context.Context, buildID uuid.UUID, controlToken string, report orchestrator.StatusReport) error
}

// Identity validates owner bearer tokens
type Identity interface {
	Validate(ctx context.Context, token string) (string, error)
}

// Service represents the public API service
type Service struct {
	logger   *slog.Logger
	config   *config.APIConfig
	orch     Orchestrator
	identity Identity
	server   *http.Server
}

// NewService creates a new API service
func NewService(cfg *config.APIConfig, orch Orchestrator, identity Identity, logger *slog.Logger) (*Service, error) {
	return &Service{
		logger:   logger,
		config:   cfg,
		orch:     orch,
		identity: identity,
	}, nil
}

// Start starts the API service and blocks until ctx is canceled
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("starting api service", "port", s.config.Port)

	mux := http.NewServeMux()
	s.setupRoutes(mux)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Port),
		Handler: mux,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("failed to start HTTP server", "error", err)
		}
	}()

	<-ctx.Done()

	s.logger.Info("shutting down api service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes sets up the HTTP routes for the API
func (s *Service) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)

	// owner-facing, behind the identity gateway
	mux.HandleFunc("POST /v1/builds", s.withOwner(s.handleCreateBuild))
	mux.HandleFunc("GET /v1/builds", s.withOwner(s.handleListBuilds))
	mux.HandleFunc("GET /v1/builds/{id}", s.withOwner(s.handleGetBuild))
	mux.HandleFunc("POST /v1/builds/{id}/cancel", s.withOwner(s.handleCancelBuild))
	mux.HandleFunc("DELETE /v1/builds/{id}", s.withOwner(s.handleDeleteBuild))

	// agent-facing, authenticated by per-build secrets
	mux.HandleFunc("GET /v1/builds/{id}/manifest", s.handleManifest)
	mux.HandleFunc("PUT /v1/builds/{id}/status", s.handleStatus)
}

// handleHealth handles health check requests
func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
