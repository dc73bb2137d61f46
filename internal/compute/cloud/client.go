// Package cloud talks to the IaaS compute API that runs agent VMs in
// production. Requests are authenticated with the build owner's bearer token,
// so quota and billing land on the owner's account.
package cloud

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/imgforge/imgforge/internal/compute/types"
	"github.com/imgforge/imgforge/internal/shared/config"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a cloud compute client
func NewClient(cfg *config.ComputeConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL: cfg.CloudURL,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		logger: logger,
	}
}

type serverPersonality struct {
	Path     string `json:"path"`
	Contents string `json:"contents"`
	Owner    string `json:"owner,omitempty"`
	Mode     string `json:"mode,omitempty"`
}

type serverNetwork struct {
	UUID string `json:"uuid"`
}

type createServerRequest struct {
	Server struct {
		Name        string              `json:"name"`
		ImageRef    string              `json:"imageRef"`
		FlavorRef   string              `json:"flavorRef"`
		Project     string              `json:"project,omitempty"`
		Networks    []serverNetwork     `json:"networks,omitempty"`
		Personality []serverPersonality `json:"personality,omitempty"`
	} `json:"server"`
}

type createServerResponse struct {
	Server struct {
		ID string `json:"id"`
	} `json:"server"`
}

// CreateInstance creates a new agent VM with the spec's files injected into
// its filesystem before first boot.
func (c *Client) CreateInstance(ctx context.Context, authToken string, spec *types.InstanceSpec) (*types.Instance, error) {
	var req createServerRequest
	req.Server.Name = spec.Name
	req.Server.ImageRef = spec.ImageID
	req.Server.FlavorRef = spec.FlavorID
	req.Server.Project = spec.Project
	for _, n := range spec.Networks {
		req.Server.Networks = append(req.Server.Networks, serverNetwork{UUID: n})
	}
	for _, f := range spec.Files {
		req.Server.Personality = append(req.Server.Personality, serverPersonality{
			Path:     f.Path,
			Contents: base64.StdEncoding.EncodeToString(f.Contents),
			Owner:    f.Owner,
			Mode:     f.Mode,
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode server request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/servers", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create server request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Auth-Token", authToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("compute request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("compute returned status %d creating server: %s", resp.StatusCode, msg)
	}

	var sr createServerResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("failed to decode server response: %w", err)
	}
	if sr.Server.ID == "" {
		return nil, fmt.Errorf("compute returned empty server id")
	}

	c.logger.Info("created agent VM", "server_id", sr.Server.ID, "name", spec.Name)

	return &types.Instance{ID: sr.Server.ID}, nil
}

// DeleteInstance deletes an agent VM. A server the provider no longer knows
// maps to ErrInstanceNotFound so callers can treat it as already gone.
func (c *Client) DeleteInstance(ctx context.Context, authToken string, instanceID string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/servers/"+instanceID, nil)
	if err != nil {
		return fmt.Errorf("failed to create delete request: %w", err)
	}
	httpReq.Header.Set("X-Auth-Token", authToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("compute request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted, http.StatusNoContent:
		return nil
	case http.StatusNotFound, http.StatusGone:
		return types.ErrInstanceNotFound
	default:
		return fmt.Errorf("compute returned status %d deleting server %s", resp.StatusCode, instanceID)
	}
}
