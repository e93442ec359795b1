package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Arcilios/Take-a-Bike/internal/models"

	_ "modernc.org/sqlite"
)

// schemaSQL is the single source of truth for the dataset tables.
// Both SQLiteStore and PostgresStore apply it.
//
//go:embed schema.sql
var schemaSQL string

// SQLiteStore persists the input dataset (stations and trips) in SQLite
type SQLiteStore struct {
	db      *sql.DB
	writeMu sync.Mutex // SQLite allows one writer at a time
	logger  *slog.Logger
}

// NewSQLiteStore opens a SQLite database with WAL mode enabled
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection: writes are serialized anyway and reads happen once at startup
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			logger.Warn("failed to set pragma", "pragma", pragma, "err", err)
		}
	}

	logger.Info("connected to SQLite database", "path", dbPath)
	return &SQLiteStore{db: db, logger: logger}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// EnsureSchema creates tables if they don't exist
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveStations upserts the station list, remembering feed order
func (s *SQLiteStore) SaveStations(ctx context.Context, stations []models.Station) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stations (station_id, name, latitude, longitude, capacity, position, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (station_id) DO UPDATE SET
			name = excluded.name,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			capacity = excluded.capacity,
			position = excluded.position,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare station statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for i, st := range stations {
		if _, err := stmt.ExecContext(ctx, st.ID, st.Name, st.Latitude, st.Longitude, st.Capacity, i, now); err != nil {
			return fmt.Errorf("failed to insert station %s: %w", st.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit stations: %w", err)
	}
	return nil
}

// SaveTrips inserts trips under one import batch. Re-importing a ride_id replaces it.
func (s *SQLiteStore) SaveTrips(ctx context.Context, batchID string, trips []models.Trip) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO trips (
			ride_id, start_station_id, end_station_id, started_at, ended_at, import_batch_id
		) VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare trip statement: %w", err)
	}
	defer stmt.Close()

	for _, t := range trips {
		_, err := stmt.ExecContext(ctx,
			t.RideID,
			t.StartStationID,
			t.EndStationID,
			formatTimestamp(t.StartedAt),
			formatTimestamp(t.EndedAt),
			batchID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert trip %s: %w", t.RideID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trips: %w", err)
	}

	s.logger.Info("trips saved", "batch_id", batchID, "trips", len(trips))
	return nil
}

// GetStations returns all stations in feed order
func (s *SQLiteStore) GetStations(ctx context.Context) ([]models.Station, error) {
	rows, err := s.db.QueryContext(ctx, `
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
		var capacity sql.NullInt64
		if err := rows.Scan(&st.ID, &st.Name, &st.Latitude, &st.Longitude, &capacity); err != nil {
			return nil, fmt.Errorf("failed to scan station row: %w", err)
		}
		if capacity.Valid {
			c := int(capacity.Int64)
			st.Capacity = &c
		}
		stations = append(stations, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating station rows: %w", err)
	}
	return stations, nil
}

// GetTrips returns every stored trip in insertion order
func (s *SQLiteStore) GetTrips(ctx context.Context) ([]models.Trip, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ride_id, start_station_id, end_station_id, started_at, ended_at
		FROM trips
		ORDER BY rowid
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

// CountTrips returns the number of stored trips
func (s *SQLiteStore) CountTrips(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM trips").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count trips: %w", err)
	}
	return n, nil
}
