package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/imgforge/imgforge/internal/shared/config"
	"github.com/imgforge/imgforge/internal/shared/zlog"
	"github.com/imgforge/imgforge/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadWorkerConfig()
	if err != nil {
		zlog.New(zlog.Config{Service: "worker"}).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := zlog.New(zlog.Config{
		Level:       cfg.LogLevel,
		Service:     cfg.ServiceName,
		Environment: cfg.Environment,
	})

	logger.Info("worker starting", "compute_provider", cfg.Compute.Provider)

	svc, err := worker.NewService(cfg, logger)
	if err != nil {
		logger.Error("failed to create service", "error", err)
		os.Exit(1)
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := svc.Start(ctx); err != nil {
		logger.Error("worker failed", "error", err)
		os.Exit(1)
	}

	logger.Info("worker stopped")
}
