package models

import (
	"errors"
)

// Station represents a single bike-share dock from the station feed.
// ID is the station short code (e.g. "A32000") that trips reference.
type Station struct {
	ID        string  `db:"station_id" json:"id"`
	Name      string  `db:"name" json:"name"`
	Latitude  float64 `db:"latitude" json:"lat"`
	Longitude float64 `db:"longitude" json:"lon"`
	Capacity  *int    `db:"capacity" json:"capacity,omitempty"`
}

// Validate checks if the Station has usable data
func (s *Station) Validate() error {
	if s.ID == "" {
		return errors.New("station id is required")
	}

	// Latitude must be in valid range [-90, 90]
	if s.Latitude < -90 || s.Latitude > 90 {
		return errors.New("latitude out of range: must be between -90 and 90")
	}

	// Longitude must be in valid range [-180, 180]
	if s.Longitude < -180 || s.Longitude > 180 {
		return errors.New("longitude out of range: must be between -180 and 180")
	}

	return nil
}
