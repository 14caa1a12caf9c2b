//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/sells-group/dawa-cli/internal/dawa"
)

func startPostgres(t *testing.T) *PostgresStore {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.WithDatabase("dawa"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { ctr.Terminate(ctx) }) //nolint:errcheck

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	st, err := NewPostgres(ctx, connStr, &PoolConfig{MaxConns: 2})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck

	require.NoError(t, st.Migrate(ctx))
	return st
}

func pgCount(t *testing.T, st *PostgresStore, table string) int {
	t.Helper()
	var n int
	require.NoError(t, st.pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestPostgresIntegration_Modes(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()

	// Schema creation is idempotent.
	require.NoError(t, st.Migrate(ctx))

	res, err := st.Load(ctx, sampleTables(), ModeInsert)
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Links)

	_, err = st.Load(ctx, sampleTables(), ModeInsert)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrLoad))
	assert.Equal(t, 3, pgCount(t, st, postalCodeTable))

	upd := sampleTables()
	upd.Municipalities[0].Name = "Københavns Kommune"
	_, err = st.Load(ctx, upd, ModeUpsert)
	require.NoError(t, err)

	ms, err := st.Municipalities(ctx)
	require.NoError(t, err)
	require.Len(t, ms, 3)
	assert.Equal(t, "Københavns Kommune", ms[0].Name)
	assert.Equal(t, 2, ms[0].PostalCodes)

	_, err = st.Load(ctx, &dawa.Tables{
		PostalCodes:    []dawa.PostalCodeRow{postalCode(5000, "Odense C")},
		Municipalities: []dawa.MunicipalityRow{{Code: "0461", Name: "Odense"}},
		Links:          []dawa.LinkRow{{PostalCode: 5000, MunicipalityCode: "0461"}},
	}, ModeReplace)
	require.NoError(t, err)
	assert.Equal(t, 1, pgCount(t, st, postalCodeTable))
	assert.Equal(t, 1, pgCount(t, st, linkTable))

	runs, err := st.Runs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, ModeReplace, runs[0].Mode)
}

func TestPostgresIntegration_DanglingLinkRollsBack(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()

	tables := sampleTables()
	tables.Links = append(tables.Links, dawa.LinkRow{PostalCode: 2100, MunicipalityCode: "9999"})

	_, err := st.Load(ctx, tables, ModeInsert)
	require.Error(t, err)
	assert.Equal(t, 0, pgCount(t, st, postalCodeTable))
	assert.Equal(t, 0, pgCount(t, st, "sync_log"))
}
