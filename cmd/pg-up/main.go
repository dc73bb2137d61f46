package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/imgforge/imgforge/internal/database"
	"github.com/imgforge/imgforge/internal/shared/zlog"
)

func main() {
	_ = godotenv.Load()

	logger := zlog.New(zlog.Config{Service: "pg-up"})

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	if err := database.Migrate(databaseURL); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}

	logger.Info("database is up to date")
}
