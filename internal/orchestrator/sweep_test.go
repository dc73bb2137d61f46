package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/imgforge/imgforge/internal/database/queries"
	"github.com/imgforge/imgforge/internal/shared/uuid"
)

// ageBuild backdates a build so the sweep sees it as stale
func ageBuild(t *testing.T, store *fakeStore, id uuid.UUID, age time.Duration) {
	t.Helper()
	b := store.getBuild(id)
	require.NotNil(t, b)
	b.CreatedAt = pgtype.Timestamptz{Time: time.Now().Add(-age), Valid: true}
	store.setBuild(b)
}

func TestSweepTimesOutStuckBuild(t *testing.T) {
	svc, store, provider := newTestService(t)
	_, build := createTestBuild(t, svc, store)
	require.NoError(t, svc.ProvisionAgent(context.Background(), build.ID))
	ageBuild(t, store, build.ID, 2*time.Hour)

	result, err := svc.Sweep(context.Background(), time.Hour, false)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{build.ID}, result.Candidates)
	require.Equal(t, 1, result.TimedOut)
	require.Equal(t, 1, result.TornDown)

	after := store.getBuild(build.ID)
	require.Equal(t, queries.BuildStatusERROR, after.Status)
	require.Equal(t, "timed out", after.StatusDetails.String)
	require.False(t, after.AgentAlive)
	require.Equal(t, []string{"inst-1"}, provider.deleted)
}

func TestSweepKeepsTerminalStatus(t *testing.T) {
	svc, store, provider := newTestService(t)
	_, build := createTestBuild(t, svc, store)
	require.NoError(t, svc.ProvisionAgent(context.Background(), build.ID))

	// the build finished but its earlier teardown failed, agent still alive
	err := svc.ReportStatus(context.Background(), build.ID, build.ControlToken, StatusReport{Status: "COMPLETED"})
	require.NoError(t, err)
	ageBuild(t, store, build.ID, 2*time.Hour)

	result, err := svc.Sweep(context.Background(), time.Hour, false)
	require.NoError(t, err)
	require.Equal(t, 0, result.TimedOut)
	require.Equal(t, 1, result.TornDown)

	// the terminal status survives, only the agent is reclaimed
	after := store.getBuild(build.ID)
	require.Equal(t, queries.BuildStatusCOMPLETED, after.Status)
	require.False(t, after.AgentAlive)
	require.Equal(t, []string{"inst-1"}, provider.deleted)
}

func TestSweepIgnoresFreshBuilds(t *testing.T) {
	svc, store, provider := newTestService(t)
	_, build := createTestBuild(t, svc, store)
	require.NoError(t, svc.ProvisionAgent(context.Background(), build.ID))

	result, err := svc.Sweep(context.Background(), time.Hour, false)
	require.NoError(t, err)
	require.Empty(t, result.Candidates)
	require.Empty(t, provider.deleted)
	require.Equal(t, queries.BuildStatusCREATING, store.getBuild(build.ID).Status)
}

func TestSweepDryRun(t *testing.T) {
	svc, store, provider := newTestService(t)
	_, build := createTestBuild(t, svc, store)
	require.NoError(t, svc.ProvisionAgent(context.Background(), build.ID))
	ageBuild(t, store, build.ID, 2*time.Hour)

	result, err := svc.Sweep(context.Background(), time.Hour, true)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{build.ID}, result.Candidates)

	// dry run mutates nothing
	after := store.getBuild(build.ID)
	require.Equal(t, queries.BuildStatusCREATING, after.Status)
	require.True(t, after.AgentAlive)
	require.Empty(t, provider.deleted)
}

func TestSweepContinuesPastFailures(t *testing.T) {
	svc, store, provider := newTestService(t)
	_, first := createTestBuild(t, svc, store)
	require.NoError(t, svc.ProvisionAgent(context.Background(), first.ID))

	owner2 := store.addUser("subject-2", "token-2")
	second, err := svc.CreateBuild(context.Background(), owner2.ID, CreateBuildInput{
		Name:           "ubuntu-24",
		SourceURL:      "https://example.com/ubuntu.img",
		ImageContainer: "images",
		ImageObject:    "ubuntu-24.diskdump",
	})
	require.NoError(t, err)
	require.NoError(t, svc.ProvisionAgent(context.Background(), second.ID))

	ageBuild(t, store, first.ID, 2*time.Hour)
	ageBuild(t, store, second.ID, 2*time.Hour)

	// first build's teardown keeps failing
	firstAgent := store.getBuild(first.ID).AgentID.String
	provider.failIDs[firstAgent] = errors.New("compute unavailable")

	result, err := svc.Sweep(context.Background(), time.Hour, false)
	require.NoError(t, err)
	require.Len(t, result.Candidates, 2)
	require.Equal(t, 1, result.Failed)
	require.Equal(t, 1, result.TornDown)

	// the healthy build was still processed
	require.False(t, store.getBuild(second.ID).AgentAlive)
	require.True(t, store.getBuild(first.ID).AgentAlive)
}
