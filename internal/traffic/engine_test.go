package traffic

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"reflect"
	"testing"

	"github.com/Arcilios/Take-a-Bike/internal/models"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, stations []models.Station, trips []models.Trip) *Engine {
	t.Helper()
	ds, err := NewDataset(stations, trips)
	if err != nil {
		t.Fatalf("NewDataset failed: %v", err)
	}
	return NewEngine(ds, quietLogger())
}

func findRecord(t *testing.T, res *Result, id string) models.StationTraffic {
	t.Helper()
	for _, r := range res.Records {
		if r.StationID == id {
			return r
		}
	}
	t.Fatalf("no record for station %s", id)
	return models.StationTraffic{}
}

func TestQuery_SingleTripAllTime(t *testing.T) {
	engine := newTestEngine(t, stationsOf("S1", "S2"), []models.Trip{
		trip("r1", "S1", "S2", at(0, 5), at(0, 10)),
	})

	res, err := engine.Query(AllTime)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	s1 := findRecord(t, res, "S1")
	if s1.Departures != 1 || s1.Arrivals != 0 || s1.TotalTraffic != 1 {
		t.Errorf("S1 = %+v, want departures 1, arrivals 0, total 1", s1.TrafficRecord)
	}
	s2 := findRecord(t, res, "S2")
	if s2.Departures != 0 || s2.Arrivals != 1 || s2.TotalTraffic != 1 {
		t.Errorf("S2 = %+v, want departures 0, arrivals 1, total 1", s2.TrafficRecord)
	}

	if res.Label != "" {
		t.Errorf("AllTime label = %q, want empty", res.Label)
	}
	if s1.Radius != MaxRadius || s2.Radius != MaxRadius {
		t.Errorf("both stations share the max traffic and should get radius %v, got %v / %v", MaxRadius, s1.Radius, s2.Radius)
	}
	if s1.FlowRatio != FlowMoreDepartures || s2.FlowRatio != FlowMoreArrivals {
		t.Errorf("unexpected flow ratios: S1=%v S2=%v", s1.FlowRatio, s2.FlowRatio)
	}
}

func TestQuery_WindowAcrossMidnight(t *testing.T) {
	engine := newTestEngine(t, stationsOf("S1", "S2"), []models.Trip{
		trip("late", "S1", "S2", at(23, 40), at(23, 58)),
		trip("morning", "S2", "S1", at(8, 0), at(8, 10)),
	})

	res, err := engine.Query(Selector(10))
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if res.Label != "00:10" {
		t.Errorf("label = %q, want 00:10", res.Label)
	}

	s1 := findRecord(t, res, "S1")
	s2 := findRecord(t, res, "S2")
	if s1.Departures != 1 || s2.Arrivals != 1 {
		t.Errorf("23:40 trip should be in the 00:10 window, got S1=%+v S2=%+v", s1.TrafficRecord, s2.TrafficRecord)
	}
	if s2.Departures != 0 || s1.Arrivals != 0 {
		t.Errorf("08:00 trip should not be in the 00:10 window")
	}
}

func TestQuery_EmptyTrips(t *testing.T) {
	engine := newTestEngine(t, stationsOf("S1", "S2"), nil)

	res, err := engine.Query(AllTime)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(res.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(res.Records))
	}
	for _, r := range res.Records {
		if r.TotalTraffic != 0 {
			t.Errorf("station %s total = %d, want 0", r.StationID, r.TotalTraffic)
		}
		if r.Radius != 0 || math.IsNaN(r.Radius) {
			t.Errorf("station %s radius = %v, want 0", r.StationID, r.Radius)
		}
		if math.IsNaN(r.FlowRatio) {
			t.Errorf("station %s flow ratio is NaN", r.StationID)
		}
	}
	if res.MaxTraffic != 1 {
		t.Errorf("MaxTraffic = %d, want degenerate domain 1", res.MaxTraffic)
	}
}

func TestQuery_NoStations(t *testing.T) {
	engine := newTestEngine(t, nil, []models.Trip{trip("r1", "S1", "S2", at(3, 0), at(3, 5))})

	res, err := engine.Query(Selector(200))
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(res.Records) != 0 {
		t.Errorf("expected no records, got %d", len(res.Records))
	}
}

func TestQuery_Idempotent(t *testing.T) {
	engine := newTestEngine(t, stationsOf("S1", "S2", "S3"), []models.Trip{
		trip("1", "S1", "S2", at(7, 0), at(7, 20)),
		trip("2", "S2", "S3", at(7, 30), at(7, 45)),
		trip("3", "S3", "S1", at(7, 50), at(8, 5)),
	})

	for _, sel := range []Selector{AllTime, 0, 480, 1439} {
		first, err := engine.Query(sel)
		if err != nil {
			t.Fatalf("Query(%v) failed: %v", sel, err)
		}
		second, err := engine.Query(sel)
		if err != nil {
			t.Fatalf("Query(%v) failed: %v", sel, err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Errorf("Query(%v) is not deterministic", sel)
		}
	}
}

func TestQuery_RecordsAreFreshPerQuery(t *testing.T) {
	engine := newTestEngine(t, stationsOf("S1"), []models.Trip{trip("1", "S1", "S1", at(1, 0), at(1, 0))})

	first, _ := engine.Query(AllTime)
	first.Records[0].Departures = 999

	second, _ := engine.Query(AllTime)
	if second.Records[0].Departures != 1 {
		t.Errorf("mutating a previous result leaked into the next query: %d", second.Records[0].Departures)
	}
}

func TestQuery_InvalidSelector(t *testing.T) {
	engine := newTestEngine(t, stationsOf("S1"), nil)

	if _, err := engine.Query(Selector(1440)); !errors.Is(err, ErrInvalidSelector) {
		t.Errorf("expected ErrInvalidSelector, got %v", err)
	}
}

func TestNewDataset_RejectsInvalidTimestamp(t *testing.T) {
	_, err := NewDataset(stationsOf("S1"), []models.Trip{{RideID: "x", StartStationID: "S1", EndStationID: "S1"}})
	if !errors.Is(err, ErrInvalidTimestamp) {
		t.Errorf("expected ErrInvalidTimestamp, got %v", err)
	}
}

func TestNewDataset_CopiesStations(t *testing.T) {
	stations := stationsOf("S1")
	ds, err := NewDataset(stations, nil)
	if err != nil {
		t.Fatalf("NewDataset failed: %v", err)
	}
	stations[0].ID = "changed"
	if ds.Stations[0].ID != "S1" {
		t.Error("dataset should not share the caller's station slice")
	}
	if ds.TripCount() != 0 {
		t.Errorf("TripCount = %d, want 0", ds.TripCount())
	}
}
