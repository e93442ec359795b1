package traffic

import "github.com/Arcilios/Take-a-Bike/internal/models"

// countBy tallies trips per station id using key to pick the station
func countBy(trips []*models.Trip, key func(*models.Trip) string) map[string]int {
	counts := make(map[string]int)
	for _, t := range trips {
		counts[key(t)]++
	}
	return counts
}

// Aggregate counts departures by start station and arrivals by end station,
// then emits one record per station in stations order. Stations without
// activity in the window get zero counts.
func Aggregate(departures, arrivals []*models.Trip, stations []models.Station) []models.TrafficRecord {
	deps := countBy(departures, func(t *models.Trip) string { return t.StartStationID })
	arrs := countBy(arrivals, func(t *models.Trip) string { return t.EndStationID })

	records := make([]models.TrafficRecord, len(stations))
	for i, s := range stations {
		d := deps[s.ID]
		a := arrs[s.ID]
		records[i] = models.TrafficRecord{
			StationID:    s.ID,
			Departures:   d,
			Arrivals:     a,
			TotalTraffic: d + a,
		}
	}
	return records
}
