package compute

import (
	"fmt"
	"log/slog"

	"github.com/imgforge/imgforge/internal/compute/cloud"
	"github.com/imgforge/imgforge/internal/compute/docker"
	"github.com/imgforge/imgforge/internal/compute/types"
	"github.com/imgforge/imgforge/internal/shared/config"
)

// NewProvider creates a compute provider based on configuration
func NewProvider(cfg *config.ComputeConfig, logger *slog.Logger) (types.Provider, error) {
	switch cfg.Provider {
	case "cloud":
		if cfg.CloudURL == "" {
			return nil, fmt.Errorf("cloud URL is required for the cloud provider")
		}
		return cloud.NewClient(cfg, logger), nil

	case "docker":
		return docker.NewClient(cfg, logger)

	default:
		return nil, fmt.Errorf("unsupported compute provider: %s", cfg.Provider)
	}
}
