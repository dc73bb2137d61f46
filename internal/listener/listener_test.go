package listener

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pglogrepl"
	"github.com/stretchr/testify/require"

	"github.com/imgforge/imgforge/internal/shared/uuid"
)

func TestReplicationURL(t *testing.T) {
	require.Equal(t,
		"postgres://localhost:5432/imgforge?replication=database",
		replicationURL("postgres://localhost:5432/imgforge"))

	require.Equal(t,
		"postgres://localhost:5432/imgforge?replication=database&sslmode=disable",
		replicationURL("postgres://localhost:5432/imgforge?sslmode=disable"))
}

func TestDispatch(t *testing.T) {
	var gotOp Op
	var gotID uuid.UUID
	calls := 0

	w := newWALStream("", "slot", "pub", time.Second, func(_ context.Context, op Op, id uuid.UUID) {
		gotOp = op
		gotID = id
		calls++
	}, slog.New(slog.DiscardHandler))

	buildID := uuid.New()
	w.relations[7] = &pglogrepl.RelationMessageV2{
		RelationMessage: pglogrepl.RelationMessage{
			RelationID:   7,
			RelationName: "builds",
			Columns: []*pglogrepl.RelationMessageColumn{
				{Name: "id"},
				{Name: "name"},
			},
		},
	}
	w.relations[8] = &pglogrepl.RelationMessageV2{
		RelationMessage: pglogrepl.RelationMessage{
			RelationID:   8,
			RelationName: "users",
			Columns:      []*pglogrepl.RelationMessageColumn{{Name: "id"}},
		},
	}

	tuple := &pglogrepl.TupleData{
		Columns: []*pglogrepl.TupleDataColumn{
			{Data: []byte(buildID.String())},
			{Data: []byte("debian-12")},
		},
	}

	require.NoError(t, w.dispatch(context.Background(), OpInsert, 7, tuple))
	require.Equal(t, 1, calls)
	require.Equal(t, OpInsert, gotOp)
	require.Equal(t, buildID, gotID)

	// changes to other tables in the publication are ignored
	require.NoError(t, w.dispatch(context.Background(), OpUpdate, 8, tuple))
	require.Equal(t, 1, calls)

	// unknown relation ids are an error, the relation message was missed
	require.Error(t, w.dispatch(context.Background(), OpUpdate, 99, tuple))
}
