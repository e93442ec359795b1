package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Arcilios/Take-a-Bike/internal/models"
)

// PostgresStore reads and writes the same dataset tables as SQLiteStore
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL and verifies the connection
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (r *PostgresStore) Close() {
	r.pool.Close()
}

// EnsureSchema creates tables if they don't exist
func (r *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveStations upserts the station list in one batch
func (r *PostgresStore) SaveStations(ctx context.Context, stations []models.Station) error {
	now := time.Now().UTC().Format(time.RFC3339)

	batch := &pgx.Batch{}
	for i, st := range stations {
		batch.Queue(`
			INSERT INTO stations (station_id, name, latitude, longitude, capacity, position, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (station_id) DO UPDATE SET
				name = EXCLUDED.name,
				latitude = EXCLUDED.latitude,
				longitude = EXCLUDED.longitude,
				capacity = EXCLUDED.capacity,
				position = EXCLUDED.position,
				updated_at = EXCLUDED.updated_at
		`, st.ID, st.Name, st.Latitude, st.Longitude, st.Capacity, i, now)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert stations: %w", err)
	}
	return nil
}

// SaveTrips bulk-loads trips with COPY inside one transaction. Ride ids
// already present are deleted first since COPY cannot upsert. A ride id
// repeated within trips keeps its last row, as the SQLite store does.
func (r *PostgresStore) SaveTrips(ctx context.Context, batchID string, trips []models.Trip) error {
	trips = lastByRideID(trips)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ids := make([]string, len(trips))
	rows := make([][]any, len(trips))
	for i, t := range trips {
		ids[i] = t.RideID
		rows[i] = []any{
			t.RideID,
			t.StartStationID,
			t.EndStationID,
			formatTimestamp(t.StartedAt),
			formatTimestamp(t.EndedAt),
			batchID,
		}
	}

	if _, err := tx.Exec(ctx, "DELETE FROM trips WHERE ride_id = ANY($1)", ids); err != nil {
		return fmt.Errorf("failed to clear replaced trips: %w", err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"trips"},
		[]string{"ride_id", "start_station_id", "end_station_id", "started_at", "ended_at", "import_batch_id"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to copy trips: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit trips: %w", err)
	}
	return nil
}

// lastByRideID drops all but the last row of each ride id, keeping the
// order of the surviving rows.
func lastByRideID(trips []models.Trip) []models.Trip {
	last := make(map[string]int, len(trips))
	for i, t := range trips {
		last[t.RideID] = i
	}
	if len(last) == len(trips) {
		return trips
	}

	out := make([]models.Trip, 0, len(last))
	for i, t := range trips {
		if last[t.RideID] == i {
			out = append(out, t)
		}
	}
	return out
}

// GetStations returns all stations in feed order
func (r *PostgresStore) GetStations(ctx context.Context) ([]models.Station, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT station_id, name, latitude, longitude, capacity
		FROM stations
		ORDER BY position, station_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stations: %w", err)
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		var st models.Station
		if err := rows.Scan(&st.ID, &st.Name, &st.Latitude, &st.Longitude, &st.Capacity); err != nil {
			return nil, fmt.Errorf("failed to scan station row: %w", err)
		}
		stations = append(stations, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating station rows: %w", err)
	}
	return stations, nil
}

// GetTrips returns every stored trip
func (r *PostgresStore) GetTrips(ctx context.Context) ([]models.Trip, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ride_id, start_station_id, end_station_id, started_at, ended_at
		FROM trips
		ORDER BY started_at, ride_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query trips: %w", err)
	}
	defer rows.Close()

	var trips []models.Trip
	for rows.Next() {
		var t models.Trip
		var startedAt, endedAt string
		if err := rows.Scan(&t.RideID, &t.StartStationID, &t.EndStationID, &startedAt, &endedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trip row: %w", err)
		}
		if t.StartedAt, err = parseTimestamp(startedAt); err != nil {
			return nil, fmt.Errorf("trip %s started_at: %w", t.RideID, err)
		}
		if t.EndedAt, err = parseTimestamp(endedAt); err != nil {
			return nil, fmt.Errorf("trip %s ended_at: %w", t.RideID, err)
		}
		trips = append(trips, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trip rows: %w", err)
	}
	return trips, nil
}
