// Package identity is the client for the external identity gateway. Every
// owner-facing request carries a bearer token that is validated here; the
// gateway answers with the caller's stable subject identifier.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnauthorized is returned when the gateway rejects the presented token.
var ErrUnauthorized = errors.New("identity: token rejected")

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the gateway's token validation endpoint.
// The timeout bounds every validation call so a hung gateway cannot stall
// request handling.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type validateRequest struct {
	Token string `json:"token"`
}

type validateResponse struct {
	Subject string `json:"subject"`
}

// Validate checks the token against the gateway and returns the subject it
// belongs to. A rejected token is ErrUnauthorized; anything else is a
// gateway failure.
func (c *Client) Validate(ctx context.Context, token string) (string, error) {
	body, err := json.Marshal(validateRequest{Token: token})
	if err != nil {
		return "", fmt.Errorf("failed to encode validation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create validation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("identity gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// handled below
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", ErrUnauthorized
	default:
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("identity gateway returned status %d", resp.StatusCode)
	}

	var vr validateResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return "", fmt.Errorf("failed to decode validation response: %w", err)
	}
	if vr.Subject == "" {
		return "", fmt.Errorf("identity gateway returned empty subject")
	}

	return vr.Subject, nil
}
