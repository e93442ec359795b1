package loader

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/Arcilios/Take-a-Bike/internal/models"
)

// stationFeed mirrors the GBFS station_information document
type stationFeed struct {
	Data struct {
		Stations []stationEntry `json:"stations"`
	} `json:"data"`
}

type stationEntry struct {
	ShortName string    `json:"short_name"`
	StationID string    `json:"station_id"`
	Name      string    `json:"name"`
	Lat       flexFloat `json:"lat"`
	Lon       flexFloat `json:"lon"`
	Capacity  *int      `json:"capacity"`
}

// flexFloat accepts both 42.35 and "42.35"
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid coordinate %s: %w", b, err)
	}
	*f = flexFloat(v)
	return nil
}

// LoadStations reads a station feed from a JSON file
func LoadStations(path string, logger *slog.Logger) ([]models.Station, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open stations file: %w", err)
	}
	defer f.Close()

	return ParseStations(f, logger)
}

// ParseStations decodes a station feed. Stations are keyed by short_name,
// which is what trip records reference; entries without one are skipped.
func ParseStations(r io.Reader, logger *slog.Logger) ([]models.Station, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var feed stationFeed
	if err := json.NewDecoder(r).Decode(&feed); err != nil {
		return nil, fmt.Errorf("failed to decode stations: %w", err)
	}

	stations := make([]models.Station, 0, len(feed.Data.Stations))
	seen := make(map[string]bool, len(feed.Data.Stations))
	skipped := 0

	for _, e := range feed.Data.Stations {
		s := models.Station{
			ID:        strings.TrimSpace(e.ShortName),
			Name:      e.Name,
			Latitude:  float64(e.Lat),
			Longitude: float64(e.Lon),
			Capacity:  e.Capacity,
		}
		if err := s.Validate(); err != nil {
			logger.Warn("skipping station", "station_id", e.StationID, "name", e.Name, "err", err)
			skipped++
			continue
		}
		if seen[s.ID] {
			logger.Warn("skipping duplicate station", "short_name", s.ID)
			skipped++
			continue
		}
		seen[s.ID] = true
		stations = append(stations, s)
	}

	logger.Info("stations parsed", "stations", len(stations), "skipped", skipped)
	return stations, nil
}
