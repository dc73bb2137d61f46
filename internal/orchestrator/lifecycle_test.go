package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	computetypes "github.com/imgforge/imgforge/internal/compute/types"
	"github.com/imgforge/imgforge/internal/database/queries"
	"github.com/imgforge/imgforge/internal/manifest"
)

func TestProvisionAgent(t *testing.T) {
	svc, store, provider := newTestService(t)
	_, build := createTestBuild(t, svc, store)

	require.NoError(t, svc.ProvisionAgent(context.Background(), build.ID))

	require.Len(t, provider.created, 1)
	spec := provider.created[0]
	require.Equal(t, "imgforge-agent-"+build.ID.String(), spec.Name)
	require.Equal(t, "agent-image", spec.ImageID)
	require.Equal(t, "agent-flavor", spec.FlavorID)
	require.Equal(t, []string{"owner-token"}, provider.tokens)

	// url handoff injects only the one-time manifest URL
	require.Len(t, spec.Files, 1)
	require.Equal(t, bootstrapPath, spec.Files[0].Path)
	require.Contains(t, string(spec.Files[0].Contents), build.ManifestNonce)

	after := store.getBuild(build.ID)
	require.True(t, after.AgentAlive)
	require.Equal(t, "inst-1", after.AgentID.String)
	require.False(t, after.NonceConsumed)
}

func TestProvisionAgentSingleClaim(t *testing.T) {
	svc, store, provider := newTestService(t)
	_, build := createTestBuild(t, svc, store)

	require.NoError(t, svc.ProvisionAgent(context.Background(), build.ID))
	// redelivered events must not create a second agent
	require.NoError(t, svc.ProvisionAgent(context.Background(), build.ID))

	require.Len(t, provider.created, 1)
}

func TestProvisionAgentInlineHandoff(t *testing.T) {
	svc, store, provider := newTestService(t)
	svc.cfg.Manifest.Handoff = "inline"
	_, build := createTestBuild(t, svc, store)

	require.NoError(t, svc.ProvisionAgent(context.Background(), build.ID))

	require.Len(t, provider.created, 1)
	spec := provider.created[0]
	require.Len(t, spec.Files, 1)
	require.Equal(t, manifestPath, spec.Files[0].Path)

	var m manifest.Manifest
	require.NoError(t, json.Unmarshal(spec.Files[0].Contents, &m))
	require.Equal(t, build.ControlToken, m.Status.Token)
	require.Equal(t, "owner-token", m.Auth.Token)

	// the retrieval endpoint is dead for this build
	require.True(t, store.getBuild(build.ID).NonceConsumed)
}

func TestProvisionAgentFailure(t *testing.T) {
	svc, store, provider := newTestService(t)
	provider.createErr = errors.New("no capacity")
	_, build := createTestBuild(t, svc, store)

	err := svc.ProvisionAgent(context.Background(), build.ID)
	require.Error(t, err)

	after := store.getBuild(build.ID)
	require.Equal(t, queries.BuildStatusERROR, after.Status)
	require.False(t, after.AgentAlive)
}

func TestProvisionAgentSkipsInactiveBuild(t *testing.T) {
	svc, store, provider := newTestService(t)
	owner, build := createTestBuild(t, svc, store)

	_, err := svc.CancelBuild(context.Background(), owner.ID, build.ID)
	require.NoError(t, err)

	require.NoError(t, svc.ProvisionAgent(context.Background(), build.ID))
	require.Empty(t, provider.created)
}

func TestTeardownAgent(t *testing.T) {
	svc, store, provider := newTestService(t)
	_, build := createTestBuild(t, svc, store)
	require.NoError(t, svc.ProvisionAgent(context.Background(), build.ID))

	require.NoError(t, svc.TeardownAgent(context.Background(), build.ID))

	require.Equal(t, []string{"inst-1"}, provider.deleted)
	require.False(t, store.getBuild(build.ID).AgentAlive)

	// repeated teardown is a safe no-op
	require.NoError(t, svc.TeardownAgent(context.Background(), build.ID))
	require.Len(t, provider.deleted, 1)
}

func TestTeardownAgentUnknownBuild(t *testing.T) {
	svc, store, provider := newTestService(t)
	_, build := createTestBuild(t, svc, store)

	// no agent yet
	require.NoError(t, svc.TeardownAgent(context.Background(), build.ID))
	require.Empty(t, provider.deleted)
}

func TestTeardownAgentAlreadyGone(t *testing.T) {
	svc, store, provider := newTestService(t)
	_, build := createTestBuild(t, svc, store)
	require.NoError(t, svc.ProvisionAgent(context.Background(), build.ID))

	provider.failIDs["inst-1"] = computetypes.ErrInstanceNotFound

	// "not found" from the provider counts as success
	require.NoError(t, svc.TeardownAgent(context.Background(), build.ID))
	require.False(t, store.getBuild(build.ID).AgentAlive)
}

func TestTeardownAgentProviderFailure(t *testing.T) {
	svc, store, provider := newTestService(t)
	_, build := createTestBuild(t, svc, store)
	require.NoError(t, svc.ProvisionAgent(context.Background(), build.ID))

	provider.failIDs["inst-1"] = errors.New("compute unavailable")

	err := svc.TeardownAgent(context.Background(), build.ID)
	require.Error(t, err)

	// the flag stays set so the sweep retries later
	require.True(t, store.getBuild(build.ID).AgentAlive)
}
