package loader

import (
	"archive/zip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Arcilios/Take-a-Bike/internal/models"
	"github.com/Arcilios/Take-a-Bike/internal/traffic"
)

// timestampLayouts are tried in order. Fractional seconds after the seconds
// field are accepted by time.Parse even when the layout omits them.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04",
}

// ParseTimestamp parses a trip timestamp in loc. Layouts carrying an explicit
// offset keep it, so the wall clock matches what the export recorded.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.Trim(strings.TrimSpace(s), `"`)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", traffic.ErrInvalidTimestamp)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", traffic.ErrInvalidTimestamp, s)
}

// LoadTrips reads a trips CSV, or the first .csv inside a .zip archive
// (the way Bluebikes publishes monthly exports).
func LoadTrips(path string, loc *time.Location, logger *slog.Logger) ([]models.Trip, error) {
	if strings.HasSuffix(strings.ToLower(path), ".zip") {
		return loadTripsZip(path, loc, logger)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trips file: %w", err)
	}
	defer f.Close()

	return ParseTrips(f, loc, logger)
}

func loadTripsZip(path string, loc *time.Location, logger *slog.Logger) ([]models.Trip, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		// Skip macOS resource forks shipped in some exports
		if strings.HasPrefix(f.Name, "__MACOSX/") || !strings.HasSuffix(strings.ToLower(f.Name), ".csv") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
		}
		defer rc.Close()
		return ParseTrips(rc, loc, logger)
	}

	return nil, fmt.Errorf("no csv file found in %s", path)
}

// ParseTrips reads trip rows by header name. A trip with an empty station id
// on one side (a dockless start or end) is kept; aggregation ignores the
// empty side. A malformed row or an unparseable timestamp aborts the whole
// load, the latter with traffic.ErrInvalidTimestamp.
func ParseTrips(r io.Reader, loc *time.Location, logger *slog.Logger) ([]models.Trip, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.Local
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read trips header: %w", err)
	}

	idx := makeIndex(header)
	for _, col := range []string{"started_at", "ended_at", "start_station_id", "end_station_id"} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("trips csv is missing column %q", col)
		}
	}

	var trips []models.Trip
	line := 1
	dockless := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			return nil, fmt.Errorf("failed to read trips: %w", err)
		}

		trip := models.Trip{
			RideID:         getField(record, idx, "ride_id"),
			StartStationID: getField(record, idx, "start_station_id"),
			EndStationID:   getField(record, idx, "end_station_id"),
		}
		if trip.StartStationID == "" || trip.EndStationID == "" {
			dockless++
		}

		trip.StartedAt, err = ParseTimestamp(getField(record, idx, "started_at"), loc)
		if err != nil {
			return nil, fmt.Errorf("line %d started_at: %w", line, err)
		}
		trip.EndedAt, err = ParseTimestamp(getField(record, idx, "ended_at"), loc)
		if err != nil {
			return nil, fmt.Errorf("line %d ended_at: %w", line, err)
		}

		trips = append(trips, trip)
	}

	logger.Info("trips parsed", "trips", len(trips), "dockless", dockless)
	return trips, nil
}

func makeIndex(header []string) map[string]int {
	idx := make(map[string]int)
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	return idx
}

func getField(record []string, idx map[string]int, field string) string {
	if i, ok := idx[field]; ok && i < len(record) {
		return strings.TrimSpace(record[i])
	}
	return ""
}
