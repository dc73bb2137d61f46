package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imgforge/imgforge/internal/database/queries"
	"github.com/imgforge/imgforge/internal/shared/apierror"
	"github.com/imgforge/imgforge/internal/shared/uuid"
)

func TestReportStatusAuth(t *testing.T) {
	svc, store, _ := newTestService(t)
	_, build := createTestBuild(t, svc, store)

	var apiErr *apierror.Error

	err := svc.ReportStatus(context.Background(), build.ID, "wrong-token", StatusReport{Status: "COMPLETED"})
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, apierror.TypeNotFound, apiErr.Type)

	err = svc.ReportStatus(context.Background(), uuid.New(), build.ControlToken, StatusReport{Status: "COMPLETED"})
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, apierror.TypeNotFound, apiErr.Type)

	// nothing changed
	require.Equal(t, queries.BuildStatusCREATING, store.getBuild(build.ID).Status)
}

func TestReportStatusHeartbeat(t *testing.T) {
	svc, store, _ := newTestService(t)
	_, build := createTestBuild(t, svc, store)

	err := svc.ReportStatus(context.Background(), build.ID, build.ControlToken, StatusReport{
		Status:   "CREATING",
		Note:     "downloading image",
		Progress: "3/9",
	})
	require.NoError(t, err)

	after := store.getBuild(build.ID)
	require.Equal(t, queries.BuildStatusCREATING, after.Status)
	require.Equal(t, "downloading image", after.StatusDetails.String)
	require.Equal(t, int32(3), after.ProgressCurrent.Int32)
	require.Equal(t, int32(9), after.ProgressTotal.Int32)

	// a heartbeat without progress keeps the stored values
	err = svc.ReportStatus(context.Background(), build.ID, build.ControlToken, StatusReport{
		Status: "CREATING",
		Note:   "still downloading",
	})
	require.NoError(t, err)

	after = store.getBuild(build.ID)
	require.Equal(t, "still downloading", after.StatusDetails.String)
	require.Equal(t, int32(3), after.ProgressCurrent.Int32)
}

func TestReportStatusMalformedProgress(t *testing.T) {
	svc, store, _ := newTestService(t)
	_, build := createTestBuild(t, svc, store)

	for _, progress := range []string{"3", "a/b", "3/", "/9", "9/3", "-1/5"} {
		err := svc.ReportStatus(context.Background(), build.ID, build.ControlToken, StatusReport{
			Status:   "CREATING",
			Progress: progress,
		})
		var apiErr *apierror.Error
		require.ErrorAs(t, err, &apiErr, "progress %q", progress)
		require.Equal(t, apierror.TypeValidation, apiErr.Type)
	}

	// a rejected report mutates nothing
	after := store.getBuild(build.ID)
	require.False(t, after.ProgressCurrent.Valid)
	require.False(t, after.StatusDetails.Valid)
}

func TestReportStatusTerminal(t *testing.T) {
	svc, store, _ := newTestService(t)
	_, build := createTestBuild(t, svc, store)

	err := svc.ReportStatus(context.Background(), build.ID, build.ControlToken, StatusReport{
		Status: "COMPLETED",
		Note:   "image uploaded",
	})
	require.NoError(t, err)

	after := store.getBuild(build.ID)
	require.Equal(t, queries.BuildStatusCOMPLETED, after.Status)
	require.Equal(t, "image uploaded", after.StatusDetails.String)

	// the build is terminal now, a late racing report fails cleanly
	err = svc.ReportStatus(context.Background(), build.ID, build.ControlToken, StatusReport{Status: "ERROR"})
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "BUILD_NOT_ACTIVE", apiErr.Code)
	require.Equal(t, queries.BuildStatusCOMPLETED, store.getBuild(build.ID).Status)
}

func TestReportStatusTerminalKeepsLastNote(t *testing.T) {
	svc, store, _ := newTestService(t)
	_, build := createTestBuild(t, svc, store)

	err := svc.ReportStatus(context.Background(), build.ID, build.ControlToken, StatusReport{
		Status:   "CREATING",
		Note:     "uploading image",
		Progress: "9/9",
	})
	require.NoError(t, err)

	// a terminal report without a note keeps the last heartbeat's details
	err = svc.ReportStatus(context.Background(), build.ID, build.ControlToken, StatusReport{Status: "COMPLETED"})
	require.NoError(t, err)

	after := store.getBuild(build.ID)
	require.Equal(t, queries.BuildStatusCOMPLETED, after.Status)
	require.True(t, after.StatusDetails.Valid)
	require.Equal(t, "uploading image", after.StatusDetails.String)
}

func TestReportStatusRejectsCancellation(t *testing.T) {
	svc, store, _ := newTestService(t)
	_, build := createTestBuild(t, svc, store)

	err := svc.ReportStatus(context.Background(), build.ID, build.ControlToken, StatusReport{Status: "CANCELED"})
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, apierror.TypeValidation, apiErr.Type)

	err = svc.ReportStatus(context.Background(), build.ID, build.ControlToken, StatusReport{Status: "NONSENSE"})
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, apierror.TypeValidation, apiErr.Type)
}
