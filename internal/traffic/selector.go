package traffic

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// MinutesPerDay is the number of minute-of-day slots (0..1439)
	MinutesPerDay = 1440

	// WindowMinutes is the length of a windowed query
	WindowMinutes = 60
)

var (
	// ErrInvalidTimestamp is returned when a trip time cannot be resolved to an hour/minute pair
	ErrInvalidTimestamp = errors.New("invalid timestamp")

	// ErrInvalidSelector is returned for time selectors outside [-1, 1439]
	ErrInvalidSelector = errors.New("invalid time selector")
)

// Selector is the time control value: AllTime, or the minute-of-day
// at which a 60-minute window ends (inclusive).
type Selector int

// AllTime selects every trip regardless of time
const AllTime Selector = -1

// NewSelector validates v as a selector
func NewSelector(v int) (Selector, error) {
	if v < int(AllTime) || v >= MinutesPerDay {
		return AllTime, fmt.Errorf("%w: %d (allowed: -1..%d)", ErrInvalidSelector, v, MinutesPerDay-1)
	}
	return Selector(v), nil
}

// ParseSelector parses a selector from a query parameter.
// An empty string means AllTime, matching the slider's initial position.
func ParseSelector(s string) (Selector, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return AllTime, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return AllTime, fmt.Errorf("%w: %q is not an integer", ErrInvalidSelector, s)
	}
	return NewSelector(v)
}

// IsAllTime reports whether the selector is the AllTime sentinel
func (s Selector) IsAllTime() bool {
	return s == AllTime
}

// Minute returns the window end minute. Only meaningful when !IsAllTime().
func (s Selector) Minute() int {
	return int(s)
}

// String returns the state name used in logs
func (s Selector) String() string {
	if s.IsAllTime() {
		return "AllTime"
	}
	return fmt.Sprintf("WindowedAt(%s)", FormatTime(s))
}

// FormatTime renders a selector as a zero-padded 24-hour "HH:MM" label.
// AllTime renders as an empty string.
func FormatTime(s Selector) string {
	if s.IsAllTime() {
		return ""
	}
	m := s.Minute()
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
