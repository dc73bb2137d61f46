package listener

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pglogrepl"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgproto3"

	"github.com/imgforge/imgforge/internal/shared/uuid"
)

// Op is the row operation observed on the wire
type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
)

// Handler is called for every change to a builds row
type Handler func(ctx context.Context, op Op, id uuid.UUID)

// walStream consumes the logical replication stream for the builds table and
// dispatches row changes. It owns its own replication-mode connection; slot
// and publication setup is idempotent so restarts are safe.
type walStream struct {
	databaseURL     string
	slotName        string
	publicationName string
	standbyTimeout  time.Duration
	onChange        Handler
	logger          *slog.Logger

	conn      *pgconn.PgConn
	relations map[uint32]*pglogrepl.RelationMessageV2
	walPos    pglogrepl.LSN
	inStream  bool
}

func newWALStream(databaseURL, slotName, publicationName string, standbyTimeout time.Duration, onChange Handler, logger *slog.Logger) *walStream {
	return &walStream{
		databaseURL:     databaseURL,
		slotName:        slotName,
		publicationName: publicationName,
		standbyTimeout:  standbyTimeout,
		onChange:        onChange,
		logger:          logger,
		relations:       make(map[uint32]*pglogrepl.RelationMessageV2),
	}
}

// run connects, sets up replication and consumes the stream until ctx ends
func (w *walStream) run(ctx context.Context) error {
	conn, err := pgconn.Connect(ctx, replicationURL(w.databaseURL))
	if err != nil {
		return fmt.Errorf("failed to open replication connection: %w", err)
	}
	w.conn = conn
	defer w.conn.Close(context.Background())

	if err := w.setup(ctx); err != nil {
		return err
	}

	pluginArgs := []string{
		"proto_version '2'",
		fmt.Sprintf("publication_names '%s'", w.publicationName),
		"messages 'true'",
		"streaming 'true'",
	}
	err = pglogrepl.StartReplication(ctx, w.conn, w.slotName, w.walPos,
		pglogrepl.StartReplicationOptions{PluginArgs: pluginArgs})
	if err != nil {
		return fmt.Errorf("failed to start replication: %w", err)
	}

	w.logger.Info("replication started", "slot", w.slotName, "publication", w.publicationName)

	return w.consume(ctx)
}

// setup recreates the publication and creates a temporary replication slot.
// The slot is temporary on purpose: after a restart the listener resumes
// from the current WAL position and the sweep covers anything missed.
func (w *walStream) setup(ctx context.Context) error {
	drop := fmt.Sprintf("DROP PUBLICATION IF EXISTS %s", w.publicationName)
	if _, err := w.conn.Exec(ctx, drop).ReadAll(); err != nil {
		w.logger.Warn("failed to drop existing publication", "error", err)
	}

	create := fmt.Sprintf("CREATE PUBLICATION %s FOR TABLE builds", w.publicationName)
	if _, err := w.conn.Exec(ctx, create).ReadAll(); err != nil {
		return fmt.Errorf("failed to create publication: %w", err)
	}

	sysident, err := pglogrepl.IdentifySystem(ctx, w.conn)
	if err != nil {
		return fmt.Errorf("failed to identify system: %w", err)
	}
	w.walPos = sysident.XLogPos

	_, err = pglogrepl.CreateReplicationSlot(ctx, w.conn, w.slotName, "pgoutput",
		pglogrepl.CreateReplicationSlotOptions{Temporary: true})
	if err != nil {
		return fmt.Errorf("failed to create replication slot: %w", err)
	}

	return nil
}

// consume is the receive loop: standby updates on a deadline, WAL messages
// in between. A malformed message is logged and skipped, never fatal.
func (w *walStream) consume(ctx context.Context) error {
	standbyDeadline := time.Now().Add(w.standbyTimeout)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if time.Now().After(standbyDeadline) {
			err := pglogrepl.SendStandbyStatusUpdate(ctx, w.conn,
				pglogrepl.StandbyStatusUpdate{WALWritePosition: w.walPos})
			if err != nil {
				return fmt.Errorf("failed to send standby status update: %w", err)
			}
			standbyDeadline = time.Now().Add(w.standbyTimeout)
		}

		msgCtx, cancel := context.WithDeadline(ctx, standbyDeadline)
		rawMsg, err := w.conn.ReceiveMessage(msgCtx)
		cancel()
		if err != nil {
			if pgconn.Timeout(err) {
				continue
			}
			return fmt.Errorf("failed to receive message: %w", err)
		}

		if errMsg, ok := rawMsg.(*pgproto3.ErrorResponse); ok {
			return fmt.Errorf("received postgres error: %+v", errMsg)
		}

		copyData, ok := rawMsg.(*pgproto3.CopyData)
		if !ok {
			continue
		}

		switch copyData.Data[0] {
		case pglogrepl.PrimaryKeepaliveMessageByteID:
			pkm, err := pglogrepl.ParsePrimaryKeepaliveMessage(copyData.Data[1:])
			if err != nil {
				return fmt.Errorf("failed to parse keepalive: %w", err)
			}
			if pkm.ServerWALEnd > w.walPos {
				w.walPos = pkm.ServerWALEnd
			}

		case pglogrepl.XLogDataByteID:
			xld, err := pglogrepl.ParseXLogData(copyData.Data[1:])
			if err != nil {
				return fmt.Errorf("failed to parse xlog data: %w", err)
			}
			if err := w.handleWALData(ctx, xld.WALData); err != nil {
				w.logger.Error("failed to handle WAL message", "error", err)
			}
			if xld.WALStart > w.walPos {
				w.walPos = xld.WALStart
			}
		}
	}
}

// handleWALData decodes one pgoutput message and dispatches row changes
func (w *walStream) handleWALData(ctx context.Context, walData []byte) error {
	logicalMsg, err := pglogrepl.ParseV2(walData, w.inStream)
	if err != nil {
		return fmt.Errorf("failed to parse logical message: %w", err)
	}

	switch msg := logicalMsg.(type) {
	case *pglogrepl.RelationMessageV2:
		w.relations[msg.RelationID] = msg

	case *pglogrepl.InsertMessageV2:
		return w.dispatch(ctx, OpInsert, msg.RelationID, msg.Tuple)

	case *pglogrepl.UpdateMessageV2:
		return w.dispatch(ctx, OpUpdate, msg.RelationID, msg.NewTuple)

	case *pglogrepl.DeleteMessageV2:
		// builds are soft-deleted; hard DELETEs only happen via operator
		// intervention and carry no lifecycle meaning

	case *pglogrepl.StreamStartMessageV2:
		w.inStream = true
	case *pglogrepl.StreamStopMessageV2:
		w.inStream = false
	}

	return nil
}

func (w *walStream) dispatch(ctx context.Context, op Op, relationID uint32, tuple *pglogrepl.TupleData) error {
	relation, ok := w.relations[relationID]
	if !ok {
		return fmt.Errorf("unknown relation id %d", relationID)
	}
	if relation.RelationName != "builds" || tuple == nil {
		return nil
	}

	for i, col := range tuple.Columns {
		if i >= len(relation.Columns) || relation.Columns[i].Name != "id" || col.Data == nil {
			continue
		}
		id, err := uuid.Parse(string(col.Data))
		if err != nil {
			return fmt.Errorf("failed to parse build id: %w", err)
		}
		w.onChange(ctx, op, id)
		return nil
	}

	return fmt.Errorf("id column missing in %s tuple", relation.RelationName)
}

// replicationURL adds the replication parameter to the database URL
func replicationURL(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil {
		if strings.Contains(dbURL, "?") {
			return dbURL + "&replication=database"
		}
		return dbURL + "?replication=database"
	}

	query := u.Query()
	query.Set("replication", "database")
	u.RawQuery = query.Encode()

	return u.String()
}
