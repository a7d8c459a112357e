package database

import (
	"context"
	"time"
)

// Cleanup removes journal rows older than retention.
func (db *Database) Cleanup(ctx context.Context, retention time.Duration) error {
	cutoff := time.Now().Add(-retention)
	if _, err := db.pool.Exec(ctx, "DELETE FROM knx_event WHERE time_stamp < $1", cutoff); err != nil {
		return err
	}
	if _, err := db.pool.Exec(ctx, "DELETE FROM error_record WHERE time_stamp < $1", cutoff); err != nil {
		return err
	}
	return nil
}
