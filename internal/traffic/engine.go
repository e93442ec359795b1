package traffic

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Arcilios/Take-a-Bike/internal/models"
)

// Dataset is the loaded station list plus both bucket arrays.
// It is built once and only read afterwards, so it is safe to share
// between concurrent queries.
type Dataset struct {
	ID       uuid.UUID
	LoadedAt time.Time
	Stations []models.Station

	departures *Buckets
	arrivals   *Buckets
}

// NewDataset buckets trips and snapshots the station list.
// Fails with ErrInvalidTimestamp if any trip time cannot be bucketed.
func NewDataset(stations []models.Station, trips []models.Trip) (*Dataset, error) {
	departures, arrivals, err := BuildBuckets(trips)
	if err != nil {
		return nil, fmt.Errorf("failed to bucket trips: %w", err)
	}

	st := make([]models.Station, len(stations))
	copy(st, stations)

	return &Dataset{
		ID:         uuid.New(),
		LoadedAt:   time.Now().UTC(),
		Stations:   st,
		departures: departures,
		arrivals:   arrivals,
	}, nil
}

// TripCount returns the number of bucketed trips
func (d *Dataset) TripCount() int {
	return d.departures.Len()
}

// Departures returns the departure buckets
func (d *Dataset) Departures() *Buckets {
	return d.departures
}

// Arrivals returns the arrival buckets
func (d *Dataset) Arrivals() *Buckets {
	return d.arrivals
}

// Result is the render-ready output of one query
type Result struct {
	DatasetID  uuid.UUID
	Selector   Selector
	Label      string
	MaxTraffic int
	Departures int // trips in the departure window
	Arrivals   int // trips in the arrival window
	Records    []models.StationTraffic
}

// Engine answers traffic queries against a single dataset
type Engine struct {
	dataset *Dataset
	logger  *slog.Logger
}

// NewEngine creates an engine over ds
func NewEngine(ds *Dataset, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{dataset: ds, logger: logger}
}

// Dataset returns the dataset the engine queries
func (e *Engine) Dataset() *Dataset {
	return e.dataset
}

// Query selects the window for sel, aggregates it per station and attaches
// radius and flow ratio. Every call recomputes from the buckets.
func (e *Engine) Query(sel Selector) (*Result, error) {
	if _, err := NewSelector(int(sel)); err != nil {
		return nil, err
	}

	deps := Select(e.dataset.departures, sel)
	arrs := Select(e.dataset.arrivals, sel)
	records := Aggregate(deps, arrs, e.dataset.Stations)
	scales := DeriveScales(records)

	out := make([]models.StationTraffic, len(records))
	for i, r := range records {
		s := e.dataset.Stations[i]
		out[i] = models.StationTraffic{
			TrafficRecord: r,
			Name:          s.Name,
			Latitude:      s.Latitude,
			Longitude:     s.Longitude,
			Radius:        scales.Radius(r.TotalTraffic),
			FlowRatio:     scales.FlowRatio(r.Departures, r.TotalTraffic),
		}
	}

	e.logger.Debug("traffic query",
		"selector", sel.String(),
		"departures", len(deps),
		"arrivals", len(arrs),
		"max_traffic", scales.MaxTraffic,
	)

	return &Result{
		DatasetID:  e.dataset.ID,
		Selector:   sel,
		Label:      FormatTime(sel),
		MaxTraffic: scales.MaxTraffic,
		Departures: len(deps),
		Arrivals:   len(arrs),
		Records:    out,
	}, nil
}
