package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// BaseConfig contains common configuration for all services
type BaseConfig struct {
	ServiceName string `env:"SERVICE_NAME"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // development, staging, production
}

// NATSConfig contains configuration for NATS messaging
type NATSConfig struct {
	URLs          []string      `env:"NATS_URLS" envSeparator:"," envDefault:"nats://localhost:4222"`
	MaxReconnects int           `env:"NATS_MAX_RECONNECTS" envDefault:"-1"` // -1 for unlimited
	ReconnectWait time.Duration `env:"NATS_RECONNECT_WAIT" envDefault:"2s"`
	Timeout       time.Duration `env:"NATS_TIMEOUT" envDefault:"5s"`
}

// ComputeConfig selects and configures the compute provider used to run
// agent instances.
type ComputeConfig struct {
	Provider       string        `env:"COMPUTE_PROVIDER" envDefault:"cloud"` // cloud | docker
	CloudURL       string        `env:"COMPUTE_URL"`
	RequestTimeout time.Duration `env:"COMPUTE_REQUEST_TIMEOUT" envDefault:"30s"`
	AgentImageID   string        `env:"AGENT_IMAGE_ID"`
	AgentFlavorID  string        `env:"AGENT_FLAVOR_ID"`

	// Docker dev provider
	DockerEndpoint   string `env:"DOCKER_ENDPOINT" envDefault:"unix:///var/run/docker.sock"`
	DockerAgentImage string `env:"DOCKER_AGENT_IMAGE" envDefault:"imgforge/agent:latest"`
	DockerAgentPort  int    `env:"DOCKER_AGENT_PORT" envDefault:"8080"`
}

// ManifestConfig holds the knobs that shape the payload handed to agents.
type ManifestConfig struct {
	PublicURL         string        `env:"PUBLIC_URL" envDefault:"http://localhost:8080"` // base URL agents call back on
	Window            time.Duration `env:"MANIFEST_WINDOW" envDefault:"10m"`              // manifest retrieval window
	Handoff           string        `env:"MANIFEST_HANDOFF" envDefault:"url"`             // url | inline
	ProgressHeuristic string        `env:"PROGRESS_HEURISTIC" envDefault:"content-length"`
	ProgressInterval  time.Duration `env:"PROGRESS_INTERVAL" envDefault:"30s"`
}

// APIConfig contains configuration for the api service
type APIConfig struct {
	BaseConfig      `envPrefix:"API_"`
	DatabaseURL     string         `env:"API_DATABASE_URL,required"`
	Port            int            `env:"API_PORT" envDefault:"8080"`
	IdentityURL     string         `env:"API_IDENTITY_URL,required"`
	IdentityTimeout time.Duration  `env:"API_IDENTITY_TIMEOUT" envDefault:"10s"`
	Manifest        ManifestConfig `envPrefix:"API_"`
}

// WorkerConfig contains configuration for the agent lifecycle worker
type WorkerConfig struct {
	BaseConfig      `envPrefix:"WORKER_"`
	DatabaseURL     string         `env:"WORKER_DATABASE_URL,required"`
	NATS            *NATSConfig    `envPrefix:"WORKER_"`
	Compute         ComputeConfig  `envPrefix:"WORKER_"`
	Manifest        ManifestConfig `envPrefix:"WORKER_"`
	DebugKeepAgents bool           `env:"WORKER_DEBUG_KEEP_AGENTS" envDefault:"false"` // keep failed agents around for inspection
}

// ListenerConfig contains configuration for the WAL listener service
type ListenerConfig struct {
	BaseConfig          `envPrefix:"LISTENER_"`
	DatabaseURL         string        `env:"LISTENER_DATABASE_URL,required"` // direct connection, not pooled
	NATS                *NATSConfig   `envPrefix:"LISTENER_"`
	ReplicationSlotName string        `env:"LISTENER_REPLICATION_SLOT"`
	PublicationName     string        `env:"LISTENER_PUBLICATION"`
	StandbyTimeout      time.Duration `env:"LISTENER_STANDBY_TIMEOUT" envDefault:"10s"`
}

// SweeperConfig contains configuration for the timeout sweeper
type SweeperConfig struct {
	BaseConfig  `envPrefix:"SWEEPER_"`
	DatabaseURL string        `env:"SWEEPER_DATABASE_URL,required"`
	Compute     ComputeConfig `envPrefix:"SWEEPER_"`
	StaleAfter  time.Duration `env:"SWEEPER_STALE_AFTER" envDefault:"60m"` // builds whose agent outlives this are reclaimed
	Interval    time.Duration `env:"SWEEPER_INTERVAL" envDefault:"15m"`
	DryRun      bool          `env:"SWEEPER_DRY_RUN" envDefault:"false"`
	RunOnce     bool          `env:"SWEEPER_RUN_ONCE" envDefault:"false"`
}

// LoadAPIConfig loads configuration for the api service
func LoadAPIConfig() (*APIConfig, error) {
	cfg, err := env.ParseAs[APIConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse api config: %w", err)
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "api"
	}
	return &cfg, nil
}

// LoadWorkerConfig loads configuration for the worker service
func LoadWorkerConfig() (*WorkerConfig, error) {
	cfg, err := env.ParseAs[WorkerConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse worker config: %w", err)
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "worker"
	}
	if cfg.NATS == nil {
		cfg.NATS = &NATSConfig{}
	}
	return &cfg, nil
}

// LoadListenerConfig loads configuration for the listener service
func LoadListenerConfig() (*ListenerConfig, error) {
	cfg, err := env.ParseAs[ListenerConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse listener config: %w", err)
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "listener"
	}
	if cfg.NATS == nil {
		cfg.NATS = &NATSConfig{}
	}
	return &cfg, nil
}

// LoadSweeperConfig loads configuration for the sweeper service
func LoadSweeperConfig() (*SweeperConfig, error) {
	cfg, err := env.ParseAs[SweeperConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse sweeper config: %w", err)
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "sweeper"
	}
	return &cfg, nil
}
