package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Arcilios/Take-a-Bike/internal/models"
	"github.com/Arcilios/Take-a-Bike/internal/traffic"
)

// DatasetSource supplies the station list and trips a dataset is built from.
// Implemented by SQLiteStore, PostgresStore and loader.FileSource.
type DatasetSource interface {
	GetStations(ctx context.Context) ([]models.Station, error)
	GetTrips(ctx context.Context) ([]models.Trip, error)
}

// LoadDataset reads stations and trips from src and buckets them
func LoadDataset(ctx context.Context, src DatasetSource, logger *slog.Logger) (*traffic.Dataset, error) {
	stations, err := src.GetStations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load stations: %w", err)
	}
	trips, err := src.GetTrips(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load trips: %w", err)
	}

	ds, err := traffic.NewDataset(stations, trips)
	if err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("dataset loaded",
			"dataset_id", ds.ID.String(),
			"stations", len(ds.Stations),
			"trips", ds.TripCount(),
		)
	}
	return ds, nil
}
