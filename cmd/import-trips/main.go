package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/Arcilios/Take-a-Bike/internal/config"
	"github.com/Arcilios/Take-a-Bike/internal/loader"
	"github.com/Arcilios/Take-a-Bike/internal/logging"
	"github.com/Arcilios/Take-a-Bike/internal/models"
	"github.com/Arcilios/Take-a-Bike/internal/repository"
)

// tripStore is the write side shared by the SQLite and PostgreSQL stores
type tripStore interface {
	EnsureSchema(ctx context.Context) error
	SaveStations(ctx context.Context, stations []models.Station) error
	SaveTrips(ctx context.Context, batchID string, trips []models.Trip) error
}

func main() {
	config.LoadEnvFiles("../..")
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Command line flags (defaults come from the environment)
	dbPath := flag.String("db", cfg.SQLitePath, "Path to SQLite database")
	postgresURL := flag.String("postgres", "", "Import into this PostgreSQL database instead of SQLite")
	stationsPath := flag.String("stations", cfg.StationsPath, "Station feed JSON")
	tripsPath := flag.String("trips", cfg.TripsPath, "Trips CSV (or a zip containing one)")
	tz := flag.String("tz", cfg.LocationName, "Time zone the trip timestamps are recorded in")
	flag.Parse()

	logger := logging.New(os.Stdout, cfg, "import-trips")
	slog.SetDefault(logger)

	loc, err := time.LoadLocation(*tz)
	if err != nil {
		logger.Error("invalid time zone", "tz", *tz, "error", err)
		os.Exit(1)
	}

	if err := run(context.Background(), logger, *dbPath, *postgresURL, *stationsPath, *tripsPath, loc); err != nil {
		logger.Error("import failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, dbPath, postgresURL, stationsPath, tripsPath string, loc *time.Location) error {
	stations, err := loader.LoadStations(stationsPath, logger)
	if err != nil {
		return err
	}
	trips, err := loader.LoadTrips(tripsPath, loc, logger)
	if err != nil {
		return err
	}

	// Exports without ride_id still need a primary key
	generated := 0
	for i := range trips {
		if trips[i].RideID == "" {
			trips[i].RideID = uuid.NewString()
			generated++
		}
	}
	if generated > 0 {
		logger.Warn("generated ride ids for trips without one", "count", generated)
	}

	var store tripStore
	if postgresURL != "" {
		pg, err := repository.NewPostgresStore(ctx, postgresURL)
		if err != nil {
			return err
		}
		defer pg.Close()
		store = pg
		logger.Info("connected to PostgreSQL")
	} else {
		sq, err := repository.NewSQLiteStore(dbPath, logger)
		if err != nil {
			return err
		}
		defer sq.Close()
		store = sq
	}

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	start := time.Now()
	if err := store.SaveStations(ctx, stations); err != nil {
		return err
	}

	batchID := uuid.NewString()
	if err := store.SaveTrips(ctx, batchID, trips); err != nil {
		return err
	}

	logger.Info("import complete",
		"batch_id", batchID,
		"stations", len(stations),
		"trips", len(trips),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}
