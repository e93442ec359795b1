package spatial

import (
	"testing"

	"github.com/Arcilios/Take-a-Bike/internal/models"
)

func testStations() []models.Station {
	return []models.Station{
		{ID: "kendall", Latitude: 42.3625, Longitude: -71.0843},
		{ID: "harvard", Latitude: 42.3734, Longitude: -71.1189},
		{ID: "southie", Latitude: 42.3334, Longitude: -71.0497},
	}
}

func TestParseBBox(t *testing.T) {
	b, err := ParseBBox("-71.10, 42.35, -71.05, 42.37")
	if err != nil {
		t.Fatalf("ParseBBox failed: %v", err)
	}
	if b.MinLon != -71.10 || b.MinLat != 42.35 || b.MaxLon != -71.05 || b.MaxLat != 42.37 {
		t.Errorf("unexpected bounds: %+v", b)
	}

	swapped, err := ParseBBox("-71.05,42.37,-71.10,42.35")
	if err != nil {
		t.Fatalf("ParseBBox failed: %v", err)
	}
	if swapped != b {
		t.Errorf("swapped corners should normalize to %+v, got %+v", b, swapped)
	}

	for _, bad := range []string{"", "1,2,3", "a,b,c,d", "0,95,1,96"} {
		if _, err := ParseBBox(bad); err == nil {
			t.Errorf("ParseBBox(%q) should fail", bad)
		}
	}
}

func TestStationIndex_Within(t *testing.T) {
	idx := NewStationIndex(testStations())
	if idx.Len() != 3 {
		t.Fatalf("Len = %d, want 3", idx.Len())
	}

	// Cambridge only
	mask := idx.Within(Bounds{MinLon: -71.13, MinLat: 42.355, MaxLon: -71.07, MaxLat: 42.38})
	want := []bool{true, true, false}
	for i := range want {
		if mask[i] != want[i] {
			t.Errorf("station %d in bounds = %v, want %v", i, mask[i], want[i])
		}
	}

	// Nothing in the harbor
	mask = idx.Within(Bounds{MinLon: -70.9, MinLat: 42.30, MaxLon: -70.8, MaxLat: 42.31})
	for i, in := range mask {
		if in {
			t.Errorf("station %d should not be in an empty viewport", i)
		}
	}
}

func TestStationIndex_Empty(t *testing.T) {
	idx := NewStationIndex(nil)
	if mask := idx.Within(Bounds{MinLon: -180, MinLat: -90, MaxLon: 180, MaxLat: 90}); len(mask) != 0 {
		t.Errorf("expected empty mask, got %v", mask)
	}
}
