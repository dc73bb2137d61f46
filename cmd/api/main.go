package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/imgforge/imgforge/internal/api"
	"github.com/imgforge/imgforge/internal/database"
	"github.com/imgforge/imgforge/internal/identity"
	"github.com/imgforge/imgforge/internal/orchestrator"
	"github.com/imgforge/imgforge/internal/shared/config"
	"github.com/imgforge/imgforge/internal/shared/zlog"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadAPIConfig()
	if err != nil {
		zlog.New(zlog.Config{Service: "api"}).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := zlog.New(zlog.Config{
		Level:       cfg.LogLevel,
		Service:     cfg.ServiceName,
		Environment: cfg.Environment,
	})

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// the api only serves the synchronous half of the lifecycle, so it
	// carries no compute provider
	orch := orchestrator.NewService(orchestrator.Config{
		Manifest: cfg.Manifest,
	}, db, nil, logger)

	idp := identity.NewClient(cfg.IdentityURL, cfg.IdentityTimeout)

	svc, err := api.NewService(cfg, orch, idp, logger)
	if err != nil {
		logger.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := svc.Start(ctx); err != nil {
		logger.Error("api service failed", "error", err)
		os.Exit(1)
	}

	logger.Info("api stopped")
}
