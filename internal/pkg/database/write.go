package database

import (
	"context"
	"encoding/json"

	"github.com/anicoll/fleetsync/internal/pkg/model"
)

// WriteKNXEvents appends events to the journal. Ids already present are skipped.
func (db *Database) WriteKNXEvents(ctx context.Context, events []model.KNXEvent) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, ev := range events {
		if _, err := tx.Exec(ctx, `
			INSERT INTO knx_event (id, target, state, group_address, time_stamp)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO NOTHING
		`, ev.ID, int64(ev.Target), ev.State, ev.GroupAddress, ev.Timestamp()); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (db *Database) WriteErrors(ctx context.Context, records []model.ErrorRecord) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, rec := range records {
		errs := rec.Errors
		if errs == nil {
			errs = []any{}
		}
		payload, err := json.Marshal(errs)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO error_record (id, message, errors, time_stamp)
			VALUES ($1, $2, $3::jsonb, $4)
			ON CONFLICT (id) DO NOTHING
		`, rec.ID, rec.Message, string(payload), rec.Timestamp()); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
