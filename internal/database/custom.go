package database

import (
	"context"
	"time"
)

// BuildsStaleCount returns how many builds still have a live agent and are
// older than the cutoff. Used by the sweeper for dry runs and logging.
func (db *DB) BuildsStaleCount(ctx context.Context, cutoff time.Time) (int64, error) {
	row := db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM builds WHERE agent_alive AND created_at < $1", cutoff)
	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
