package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/anicoll/fleetsync/internal/pkg/database/migration"
	"github.com/anicoll/fleetsync/internal/pkg/model"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	if testing.Short() {
		t.Skip("needs docker")
	}
	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("fleetsync"),
		postgres.WithUsername("fleetsync"),
		postgres.WithPassword("fleetsync"),
		postgres.BasicWaitStrategies())
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, migration.Migrate(dsn))
	// A second run finds nothing to do.
	require.NoError(t, migration.Migrate(dsn))

	db, err := NewDatabase(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestDatabase_Journal(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	now := float64(time.Now().Unix())
	on := true
	ga := "1/2/3"

	knx := []model.KNXEvent{
		{ID: "k1", Target: 100, State: &on, GroupAddress: &ga, Time: now - 10},
		{ID: "k2", Target: 101, Time: now},
	}
	require.NoError(t, db.WriteKNXEvents(ctx, knx))
	// Rewriting the same ids is a no-op.
	require.NoError(t, db.WriteKNXEvents(ctx, knx))

	got, err := db.KNXEvents(ctx, time.Unix(0, 0), 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "k2", got[0].ID)
	assert.Nil(t, got[0].State)
	assert.Equal(t, model.ID(100), got[1].Target)
	require.NotNil(t, got[1].GroupAddress)
	assert.Equal(t, ga, *got[1].GroupAddress)
	assert.InDelta(t, now-10, got[1].Time, 0.001)

	require.NoError(t, db.WriteErrors(ctx, []model.ErrorRecord{
		{ID: "e1", Message: "device unreachable", Errors: []any{"timeout"}, Time: now},
		{ID: "e2", Message: "no details", Time: now - 5},
	}))
	errs, err := db.Errors(ctx, time.Unix(0, 0), 10)
	require.NoError(t, err)
	require.Len(t, errs, 2)
	assert.Equal(t, []any{"timeout"}, errs[0].Errors)
	assert.Empty(t, errs[1].Errors)
}

func TestDatabase_Cleanup(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	old := float64(time.Now().Add(-48 * time.Hour).Unix())
	recent := float64(time.Now().Unix())

	require.NoError(t, db.WriteKNXEvents(ctx, []model.KNXEvent{
		{ID: "old", Target: 1, Time: old},
		{ID: "new", Target: 1, Time: recent},
	}))
	require.NoError(t, db.WriteErrors(ctx, []model.ErrorRecord{
		{ID: "old", Message: "m", Time: old},
	}))

	require.NoError(t, db.Cleanup(ctx, 24*time.Hour))

	knx, err := db.KNXEvents(ctx, time.Unix(0, 0), 10)
	require.NoError(t, err)
	require.Len(t, knx, 1)
	assert.Equal(t, "new", knx[0].ID)

	errs, err := db.Errors(ctx, time.Unix(0, 0), 10)
	require.NoError(t, err)
	assert.Empty(t, errs)
}
