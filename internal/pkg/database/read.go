package database

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/anicoll/fleetsync/internal/pkg/model"
)

// KNXEvents returns journal entries newer than since, newest first.
func (db *Database) KNXEvents(ctx context.Context, since time.Time, limit int) ([]model.KNXEvent, error) {
	rows, err := db.pool.Query(ctx, `
	SELECT id, target, state, group_address, time_stamp
	FROM knx_event
	WHERE time_stamp >= $1
	ORDER BY time_stamp DESC, id
	LIMIT $2;
	`, since, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.KNXEvent, error) {
		var (
			ev     model.KNXEvent
			target int64
			ts     time.Time
		)
		if err := row.Scan(&ev.ID, &target, &ev.State, &ev.GroupAddress, &ts); err != nil {
			return ev, err
		}
		ev.Target = model.ID(target)
		ev.Time = seconds(ts)
		return ev, nil
	})
}

func (db *Database) Errors(ctx context.Context, since time.Time, limit int) ([]model.ErrorRecord, error) {
	rows, err := db.pool.Query(ctx, `
	SELECT id, message, errors, time_stamp
	FROM error_record
	WHERE time_stamp >= $1
	ORDER BY time_stamp DESC, id
	LIMIT $2;
	`, since, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.ErrorRecord, error) {
		var (
			rec  model.ErrorRecord
			errs []byte
			ts   time.Time
		)
		if err := row.Scan(&rec.ID, &rec.Message, &errs, &ts); err != nil {
			return rec, err
		}
		if err := json.Unmarshal(errs, &rec.Errors); err != nil {
			return rec, err
		}
		rec.Time = seconds(ts)
		return rec, nil
	})
}

func seconds(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}
