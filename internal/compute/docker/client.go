// Package docker is the development compute provider: agents run as local
// containers instead of cloud VMs. Injected files are copied into the
// container before it starts, mirroring the personality mechanism of the
// cloud provider.
package docker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/moby/go-archive"

	"github.com/imgforge/imgforge/internal/compute/types"
	"github.com/imgforge/imgforge/internal/shared/config"
)

type Client struct {
	client *client.Client
	config *config.ComputeConfig
	logger *slog.Logger
}

// NewClient creates a docker compute provider
func NewClient(cfg *config.ComputeConfig, logger *slog.Logger) (*Client, error) {
	opts := []client.Opt{
		client.WithAPIVersionNegotiation(),
	}
	if cfg.DockerEndpoint != "" {
		opts = append(opts, client.WithHost(cfg.DockerEndpoint))
	} else {
		opts = append(opts, client.FromEnv)
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := cli.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to Docker daemon: %w", err)
	}

	return &Client{
		client: cli,
		config: cfg,
		logger: logger,
	}, nil
}

// CreateInstance creates and starts an agent container. The owner token is
// unused here: local containers have no per-account quota.
func (c *Client) CreateInstance(ctx context.Context, _ string, spec *types.InstanceSpec) (*types.Instance, error) {
	image := c.config.DockerAgentImage
	c.logger.Info("creating agent container", "name", spec.Name, "image", image)

	containerConfig := &container.Config{
		Image: image,
		Labels: map[string]string{
			"imgforge.agent": spec.Name,
		},
	}
	if c.config.DockerAgentPort > 0 {
		port := nat.Port(fmt.Sprintf("%d/tcp", c.config.DockerAgentPort))
		containerConfig.ExposedPorts = nat.PortSet{port: struct{}{}}
	}

	resp, err := c.client.ContainerCreate(ctx, containerConfig, &container.HostConfig{}, nil, nil, spec.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	if err := c.copyFiles(ctx, resp.ID, spec.Files); err != nil {
		c.client.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
		return nil, err
	}

	if err := c.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		c.client.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
		return nil, fmt.Errorf("failed to start container: %w", err)
	}

	c.logger.Info("agent container started", "name", spec.Name, "container_id", resp.ID)

	return &types.Instance{ID: resp.ID}, nil
}

// copyFiles copies the injected files into the stopped container as a tar
// stream rooted at /.
func (c *Client) copyFiles(ctx context.Context, containerID string, files []types.InjectedFile) error {
	if len(files) == 0 {
		return nil
	}

	pairs := make([]string, 0, len(files)*2)
	for _, f := range files {
		pairs = append(pairs, strings.TrimPrefix(f.Path, "/"), string(f.Contents))
	}

	tarStream, err := archive.Generate(pairs...)
	if err != nil {
		return fmt.Errorf("failed to build file archive: %w", err)
	}

	if err := c.client.CopyToContainer(ctx, containerID, "/", tarStream, container.CopyToContainerOptions{}); err != nil {
		return fmt.Errorf("failed to copy files into container: %w", err)
	}

	return nil
}

// DeleteInstance force-removes the agent container
func (c *Client) DeleteInstance(ctx context.Context, _ string, instanceID string) error {
	err := c.client.ContainerRemove(ctx, instanceID, container.RemoveOptions{Force: true})
	if err != nil {
		if client.IsErrNotFound(err) {
			return types.ErrInstanceNotFound
		}
		return fmt.Errorf("failed to remove container: %w", err)
	}

	c.logger.Info("agent container deleted", "container_id", instanceID)
	return nil
}
