package models

import "time"

// Trip is one completed ride. Either station id may be empty for a
// dockless start or end.
// StartedAt/EndedAt keep the location they were parsed in; minute-of-day is
// taken from their wall clock.
type Trip struct {
	RideID         string    `db:"ride_id" json:"rideId"`
	StartStationID string    `db:"start_station_id" json:"startStationId"`
	EndStationID   string    `db:"end_station_id" json:"endStationId"`
	StartedAt      time.Time `db:"started_at" json:"startedAt"`
	EndedAt        time.Time `db:"ended_at" json:"endedAt"`
}
