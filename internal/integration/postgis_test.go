//go:build integration

package integration_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/couchcryptid/goes-fire-etl/internal/domain"
	"github.com/couchcryptid/goes-fire-etl/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startPostGIS runs a disposable PostGIS container and returns an open pool.
func startPostGIS(ctx context.Context, t *testing.T) *sql.DB {
	t.Helper()

	container, err := postgres.Run(ctx, "postgis/postgis:16-3.4-alpine",
		postgres.WithDatabase("fires"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90*time.Second)),
	)
	require.NoError(t, err, "start postgis container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.PingContext(ctx))
	return db
}

func TestStoreIngestIdempotence(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db := startPostGIS(ctx, t)
	clock := clockwork.NewFakeClockAt(time.Date(2025, time.February, 1, 15, 15, 0, 0, time.UTC))
	s := store.NewWithDB(db, time.UTC, clock, discardLogger())

	require.NoError(t, s.EnsureSchema(ctx))
	require.NoError(t, s.EnsureSchema(ctx), "schema creation is idempotent")

	scene := time.Date(2025, time.February, 1, 15, 2, 0, 0, time.UTC)
	batch := []domain.FireDetection{
		{TempKelvin: 330.25, AreaM2: 4000.5, PowerMW: 120.75, SceneTime: scene, Lon: -50.12, Lat: -3.4},
		{TempKelvin: 310.0, AreaM2: 3800.0, PowerMW: 95.5, SceneTime: scene, Lon: -51.7, Lat: -4.1},
	}

	inserted, duplicates, err := s.IngestBatch(ctx, batch)
	require.NoError(t, err)
	require.Len(t, inserted, 2)
	assert.Zero(t, duplicates)
	assert.Equal(t, int64(1), inserted[0].ID)
	assert.Equal(t, int64(2), inserted[1].ID)
	assert.Equal(t, clock.Now(), inserted[0].ObtainedAt.UTC())

	// The same batch again is all duplicates; nothing new is inserted.
	inserted, duplicates, err = s.IngestBatch(ctx, batch)
	require.NoError(t, err)
	assert.Empty(t, inserted)
	assert.Equal(t, 2, duplicates)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestStoreSameCoordinateDifferentScene(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db := startPostGIS(ctx, t)
	s := store.NewWithDB(db, time.UTC, clockwork.NewRealClock(), discardLogger())
	require.NoError(t, s.EnsureSchema(ctx))

	first := time.Date(2025, time.February, 1, 15, 2, 0, 0, time.UTC)
	second := first.Add(10 * time.Minute)
	rec := domain.FireDetection{TempKelvin: 330, SceneTime: first, Lon: -50.12, Lat: -3.4}

	inserted, duplicates, err := s.IngestBatch(ctx, []domain.FireDetection{rec})
	require.NoError(t, err)
	require.Len(t, inserted, 1)
	require.Zero(t, duplicates)

	// Same pixel, later scan: a distinct observation, not a duplicate.
	rec.SceneTime = second
	inserted, duplicates, err = s.IngestBatch(ctx, []domain.FireDetection{rec})
	require.NoError(t, err)
	require.Len(t, inserted, 1)
	assert.Zero(t, duplicates)
	assert.Equal(t, int64(2), inserted[0].ID)
}
