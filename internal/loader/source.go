package loader

import (
	"context"
	"log/slog"
	"time"

	"github.com/Arcilios/Take-a-Bike/internal/models"
)

// FileSource reads the dataset straight from a stations JSON and a trips CSV
type FileSource struct {
	StationsPath string
	TripsPath    string
	Location     *time.Location
	Logger       *slog.Logger
}

func (f *FileSource) GetStations(ctx context.Context) ([]models.Station, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadStations(f.StationsPath, f.Logger)
}

func (f *FileSource) GetTrips(ctx context.Context) ([]models.Trip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadTrips(f.TripsPath, f.Location, f.Logger)
}
