package traffic

import (
	"fmt"
	"time"

	"github.com/Arcilios/Take-a-Bike/internal/models"
)

// Buckets indexes trips by minute-of-day. Slot i holds the trips whose
// relevant timestamp falls in minute i, in insertion order.
type Buckets [MinutesPerDay][]*models.Trip

// Slot returns the trips bucketed at minute i
func (b *Buckets) Slot(i int) []*models.Trip {
	return b[i]
}

// Len returns the total number of trips across all slots
func (b *Buckets) Len() int {
	n := 0
	for i := range b {
		n += len(b[i])
	}
	return n
}

// MinuteOfDay returns hour*60+minute of t's wall clock.
// The zero time carries no parsed date and is rejected.
func MinuteOfDay(t time.Time) (int, error) {
	if t.IsZero() {
		return 0, fmt.Errorf("%w: zero time", ErrInvalidTimestamp)
	}
	m := t.Hour()*60 + t.Minute()
	if m < 0 || m >= MinutesPerDay {
		return 0, fmt.Errorf("%w: minute %d out of range", ErrInvalidTimestamp, m)
	}
	return m, nil
}

// BuildBuckets partitions trips into departure (by start time) and arrival
// (by end time) buckets. A single unresolvable timestamp fails the whole
// build; no partially filled buckets are returned.
func BuildBuckets(trips []models.Trip) (departures, arrivals *Buckets, err error) {
	dep := new(Buckets)
	arr := new(Buckets)

	for i := range trips {
		trip := &trips[i]

		depMinute, err := MinuteOfDay(trip.StartedAt)
		if err != nil {
			return nil, nil, fmt.Errorf("trip %d (%s) started_at: %w", i, trip.RideID, err)
		}
		arrMinute, err := MinuteOfDay(trip.EndedAt)
		if err != nil {
			return nil, nil, fmt.Errorf("trip %d (%s) ended_at: %w", i, trip.RideID, err)
		}

		dep[depMinute] = append(dep[depMinute], trip)
		arr[arrMinute] = append(arr[arrMinute], trip)
	}

	return dep, arr, nil
}
