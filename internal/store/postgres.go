// Package store persists fire-detection records in PostGIS.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"

	"github.com/couchcryptid/goes-fire-etl/internal/domain"
)

// schema creates the detections table and the dedup guard. The unique index
// on (geom, scene_time) is the authoritative duplicate check: ingestion
// relies on ON CONFLICT instead of a separate existence query, so overlapping
// runs cannot race a record into the table twice.
const schema = `
CREATE TABLE IF NOT EXISTS fire_detections (
	id            BIGSERIAL PRIMARY KEY,
	temp_kelvin   DOUBLE PRECISION NOT NULL,
	area_m2       DOUBLE PRECISION,
	power_mw      DOUBLE PRECISION,
	scene_time    TIMESTAMPTZ NOT NULL,
	obtained_at   TIMESTAMPTZ NOT NULL,
	geom          geometry(Point, 4674) NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS fire_detections_geom_scene_time_key
	ON fire_detections (geom, scene_time);
`

const insertSQL = `
INSERT INTO fire_detections (temp_kelvin, area_m2, power_mw, scene_time, obtained_at, geom)
VALUES ($1, $2, $3, $4, $5, ST_GeomFromEWKT($6))
ON CONFLICT (geom, scene_time) DO NOTHING
RETURNING id
`

// Store is a PostGIS-backed record store. Ingestion is sequential over a
// single pooled connection; parallelism lives upstream in scene processing.
type Store struct {
	db     *sql.DB
	clock  clockwork.Clock
	logger *slog.Logger
	loc    *time.Location
}

// Open connects to PostGIS and verifies the connection.
func Open(ctx context.Context, dsn string, loc *time.Location, clock clockwork.Clock, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Store{db: db, clock: clock, logger: logger, loc: loc}, nil
}

// NewWithDB wraps an existing connection, for tests.
func NewWithDB(db *sql.DB, loc *time.Location, clock clockwork.Clock, logger *slog.Logger) *Store {
	return &Store{db: db, clock: clock, logger: logger, loc: loc}
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the table and unique index when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// IngestBatch inserts the batch one record at a time, assigning each record
// its ingestion timestamp and letting the unique index decide duplicates.
// It returns the newly inserted records with their identities, plus the
// duplicate count. Existing rows are never modified.
func (s *Store) IngestBatch(ctx context.Context, records []domain.FireDetection) ([]domain.FireDetection, int, error) {
	inserted := make([]domain.FireDetection, 0, len(records))
	duplicates := 0

	for _, rec := range records {
		rec.ObtainedAt = s.clock.Now().In(s.loc)

		var id int64
		err := s.db.QueryRowContext(ctx, insertSQL,
			rec.TempKelvin,
			rec.AreaM2,
			rec.PowerMW,
			rec.SceneTime,
			rec.ObtainedAt,
			pointEWKT(rec.Lon, rec.Lat),
		).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			// Conflict on (geom, scene_time): the store already has this one.
			duplicates++
			s.logger.Info("duplicate record skipped",
				"scene_time", rec.SceneTime, "lon", rec.Lon, "lat", rec.Lat)
			continue
		}
		if err != nil {
			return inserted, duplicates, fmt.Errorf("insert record: %w", err)
		}

		rec.ID = id
		inserted = append(inserted, rec)
		s.logger.Info("record inserted", "id", id, "scene_time", rec.SceneTime)
	}

	return inserted, duplicates, nil
}

// Count returns the number of stored detections.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM fire_detections`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// pointEWKT renders a coordinate as extended WKT in the target datum, at full
// float64 precision so the dedup key is byte-stable across runs.
func pointEWKT(lon, lat float64) string {
	return "SRID=4674;POINT(" +
		strconv.FormatFloat(lon, 'f', -1, 64) + " " +
		strconv.FormatFloat(lat, 'f', -1, 64) + ")"
}
