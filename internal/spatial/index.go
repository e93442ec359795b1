package spatial

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/rtree"

	"github.com/Arcilios/Take-a-Bike/internal/models"
)

// Bounds is a lon/lat bounding box, typically the visible map viewport
type Bounds struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// ParseBBox parses "minLon,minLat,maxLon,maxLat" (the order map libraries
// report viewport bounds in). Swapped corners are normalized.
func ParseBBox(s string) (Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Bounds{}, fmt.Errorf("bbox must have 4 comma-separated values, got %d", len(parts))
	}

	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Bounds{}, fmt.Errorf("invalid bbox value %q: %w", p, err)
		}
		v[i] = f
	}

	b := Bounds{
		MinLon: min(v[0], v[2]),
		MinLat: min(v[1], v[3]),
		MaxLon: max(v[0], v[2]),
		MaxLat: max(v[1], v[3]),
	}
	if b.MinLat < -90 || b.MaxLat > 90 || b.MinLon < -180 || b.MaxLon > 180 {
		return Bounds{}, fmt.Errorf("bbox out of range: %s", s)
	}
	return b, nil
}

// StationIndex is an R-tree over station positions. Entries carry the
// station's position in the dataset's station list.
type StationIndex struct {
	tree rtree.RTree
	size int
}

// NewStationIndex indexes stations by [lon, lat]
func NewStationIndex(stations []models.Station) *StationIndex {
	idx := &StationIndex{size: len(stations)}
	for i, s := range stations {
		// For points, min and max are the same
		p := [2]float64{s.Longitude, s.Latitude}
		idx.tree.Insert(p, p, i)
	}
	return idx
}

// Len returns the number of indexed stations
func (idx *StationIndex) Len() int {
	return idx.size
}

// Within returns a membership mask over the station list for stations inside b
func (idx *StationIndex) Within(b Bounds) []bool {
	mask := make([]bool, idx.size)
	idx.tree.Search(
		[2]float64{b.MinLon, b.MinLat},
		[2]float64{b.MaxLon, b.MaxLat},
		func(min, max [2]float64, data interface{}) bool {
			if i, ok := data.(int); ok && i < len(mask) {
				mask[i] = true
			}
			return true
		},
	)
	return mask
}
