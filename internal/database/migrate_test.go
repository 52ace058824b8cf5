package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/dynamic-ticketing/internal/database"
	"github.com/Shivanand-hulikatti/dynamic-ticketing/internal/testutil"
)

func TestMigrate_Idempotent(t *testing.T) {
	ctx := context.Background()
	pool := testutil.NewTestPool(t)

	require.NoError(t, database.Migrate(ctx, pool))
	require.NoError(t, database.Migrate(ctx, pool))

	var applied int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&applied))
	require.GreaterOrEqual(t, applied, 2)

	var exists bool
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'bookings_event_created_idx')`,
	).Scan(&exists))
	require.True(t, exists)
}
