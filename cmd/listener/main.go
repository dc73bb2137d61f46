package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/imgforge/imgforge/internal/listener"
	"github.com/imgforge/imgforge/internal/shared/config"
	"github.com/imgforge/imgforge/internal/shared/zlog"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadListenerConfig()
	if err != nil {
		zlog.New(zlog.Config{Service: "listener"}).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := zlog.New(zlog.Config{
		Level:       cfg.LogLevel,
		Service:     cfg.ServiceName,
		Environment: cfg.Environment,
	})

	svc, err := listener.NewService(cfg, logger)
	if err != nil {
		logger.Error("failed to create service", "error", err)
		os.Exit(1)
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := svc.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("listener failed", "error", err)
		os.Exit(1)
	}

	logger.Info("listener stopped")
}
