// Package manifest builds the payload handed to an agent VM. It is the only
// place the agent's credentials come together: the per-build control token
// for status callbacks and the owner's bearer token for storage access.
package manifest

import (
	"encoding/json"
	"fmt"

	"github.com/imgforge/imgforge/internal/database/queries"
	"github.com/imgforge/imgforge/internal/shared/config"
)

type Manifest struct {
	Build    BuildSection    `json:"build"`
	Status   StatusSection   `json:"status"`
	Auth     AuthSection     `json:"auth"`
	Image    ImageSection    `json:"image"`
	Log      LogSection      `json:"log"`
	Progress ProgressSection `json:"progress"`
}

type BuildSection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// StatusSection tells the agent where to report and how to authenticate.
type StatusSection struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}

// AuthSection carries the owner's bearer token for reading the source and
// writing the image and log objects.
type AuthSection struct {
	Token string `json:"token"`
}

type ImageSection struct {
	SourceURL string `json:"source_url"`
	Container string `json:"container"`
	Object    string `json:"object"`
	Account   string `json:"account,omitempty"`
}

type LogSection struct {
	Container string `json:"container"`
	Object    string `json:"object"`
	Account   string `json:"account,omitempty"`
}

type ProgressSection struct {
	Heuristic       string `json:"heuristic"`
	IntervalSeconds int    `json:"interval_seconds"`
}

// StatusURL returns the agent status callback URL for a build
func StatusURL(publicURL, buildID string) string {
	return fmt.Sprintf("%s/v1/builds/%s/status", publicURL, buildID)
}

// RetrievalURL returns the one-time manifest URL carrying the nonce
func RetrievalURL(publicURL, buildID, nonce string) string {
	return fmt.Sprintf("%s/v1/builds/%s/manifest?nonce=%s", publicURL, buildID, nonce)
}

// Build assembles the manifest for a build. ownerToken is the owner's
// current bearer token, resolved at handoff time so the agent never works
// with a stale credential.
func Build(b *queries.Build, ownerToken string, cfg *config.ManifestConfig) *Manifest {
	return &Manifest{
		Build: BuildSection{
			ID:   b.ID.String(),
			Name: b.Name,
		},
		Status: StatusSection{
			URL:   StatusURL(cfg.PublicURL, b.ID.String()),
			Token: b.ControlToken,
		},
		Auth: AuthSection{
			Token: ownerToken,
		},
		Image: ImageSection{
			SourceURL: b.SourceUrl,
			Container: b.ImageContainer,
			Object:    b.ImageObject,
			Account:   b.ImageAccount.String,
		},
		Log: LogSection{
			Container: b.LogContainer,
			Object:    b.LogObject,
			Account:   b.LogAccount.String,
		},
		Progress: ProgressSection{
			Heuristic:       cfg.ProgressHeuristic,
			IntervalSeconds: int(cfg.ProgressInterval.Seconds()),
		},
	}
}

// Encode renders the manifest as JSON
func (m *Manifest) Encode() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}
