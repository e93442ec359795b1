package repository

import (
	"fmt"
	"time"

	"github.com/Arcilios/Take-a-Bike/internal/traffic"
)

// formatTimestamp keeps the recorded offset so the wall-clock minute
// survives a round trip through the database
func formatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", traffic.ErrInvalidTimestamp, s)
	}
	return t, nil
}
