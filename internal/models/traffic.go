package models

// TrafficRecord holds per-station counts for one query window.
// Built fresh on every query; TotalTraffic is always Departures+Arrivals.
type TrafficRecord struct {
	StationID    string `json:"id"`
	Departures   int    `json:"departures"`
	Arrivals     int    `json:"arrivals"`
	TotalTraffic int    `json:"totalTraffic"`
}

// StationTraffic is the render-ready record handed to the map layer:
// counts plus station position and the derived circle radius and flow ratio.
type StationTraffic struct {
	TrafficRecord
	Name      string  `json:"name"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Radius    float64 `json:"radius"`
	FlowRatio float64 `json:"flowRatio"`
}

// FlowLegendEntry labels one of the quantized flow ratio levels
type FlowLegendEntry struct {
	FlowRatio float64 `json:"flowRatio"`
	Label     string  `json:"label"`
}
