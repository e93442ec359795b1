package metrics

import (
	"math"
	"sync"
	"time"
)

// RunningStats accumulates count, mean and variance in constant space
// (Welford's online update).
type RunningStats struct {
	n    int
	mean float64
	m2   float64
}

// Add records one observation
func (s *RunningStats) Add(x float64) {
	s.n++
	d := x - s.mean
	s.mean += d / float64(s.n)
	s.m2 += d * (x - s.mean)
}

// Count returns the number of observations
func (s *RunningStats) Count() int { return s.n }

// Mean returns the running mean, 0 when empty
func (s *RunningStats) Mean() float64 { return s.mean }

// StdDev is the population standard deviation; 0 until there are two observations
func (s *RunningStats) StdDev() float64 {
	if s.n < 2 {
		return 0
	}
	return math.Sqrt(s.m2 / float64(s.n))
}

// LatencySnapshot is a point-in-time copy of a LatencyTracker
type LatencySnapshot struct {
	Count    int     `json:"count"`
	MeanMs   float64 `json:"meanMs"`
	StdDevMs float64 `json:"stdDevMs"`
	MaxMs    float64 `json:"maxMs"`
}

// LatencyTracker records query durations for the health endpoint
type LatencyTracker struct {
	mu    sync.Mutex
	stats RunningStats
	max   float64
}

// NewLatencyTracker creates an empty tracker
func NewLatencyTracker() *LatencyTracker {
	return &LatencyTracker{}
}

// Observe records one duration
func (l *LatencyTracker) Observe(d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.stats.Add(ms)
	if ms > l.max {
		l.max = ms
	}
}

// Snapshot returns the current statistics
func (l *LatencyTracker) Snapshot() LatencySnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return LatencySnapshot{
		Count:    l.stats.Count(),
		MeanMs:   l.stats.Mean(),
		StdDevMs: l.stats.StdDev(),
		MaxMs:    l.max,
	}
}
