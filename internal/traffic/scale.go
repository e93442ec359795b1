package traffic

import (
	"math"

	"github.com/Arcilios/Take-a-Bike/internal/models"
)

const (
	// MaxRadius is the circle radius drawn for the busiest station
	MaxRadius = 25.0

	FlowMoreArrivals   = 0.0
	FlowBalanced       = 0.5
	FlowMoreDepartures = 1.0
)

// flowLevels is the quantize range over the [0,1] departure share,
// split into equal thirds.
var flowLevels = [...]float64{FlowMoreArrivals, FlowBalanced, FlowMoreDepartures}

// Scales maps aggregated counts to display values for one query
type Scales struct {
	// MaxTraffic is the upper end of the radius domain; never 0
	MaxTraffic int
}

// DeriveScales computes the radius domain from the busiest station.
// An all-zero aggregation uses a [0,1] domain so Radius never divides by zero.
func DeriveScales(records []models.TrafficRecord) Scales {
	maxTotal := 0
	for _, r := range records {
		if r.TotalTraffic > maxTotal {
			maxTotal = r.TotalTraffic
		}
	}
	if maxTotal == 0 {
		maxTotal = 1
	}
	return Scales{MaxTraffic: maxTotal}
}

// Radius maps total traffic to a circle radius on a square-root scale,
// so circle area grows linearly with traffic.
func (s Scales) Radius(total int) float64 {
	if total <= 0 {
		return 0
	}
	return MaxRadius * math.Sqrt(float64(total)) / math.Sqrt(float64(s.MaxTraffic))
}

// FlowRatio buckets the departure share of a station's traffic into
// 0 (more arrivals), 0.5 (balanced) or 1 (more departures).
func (s Scales) FlowRatio(departures, total int) float64 {
	if total < 1 {
		total = 1
	}
	return quantizeFlow(float64(departures) / float64(total))
}

func quantizeFlow(share float64) float64 {
	n := len(flowLevels)
	i := 0
	for i < n-1 && share >= float64(i+1)/float64(n) {
		i++
	}
	return flowLevels[i]
}

// FlowLegend returns the legend entries, most departures first
func FlowLegend() []models.FlowLegendEntry {
	return []models.FlowLegendEntry{
		{FlowRatio: FlowMoreDepartures, Label: "More departures"},
		{FlowRatio: FlowBalanced, Label: "Balanced"},
		{FlowRatio: FlowMoreArrivals, Label: "More arrivals"},
	}
}
