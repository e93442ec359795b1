package traffic

import "github.com/Arcilios/Take-a-Bike/internal/models"

// windowBounds returns the inclusive slot range of a minute selector.
// start > end means the window crosses midnight.
func windowBounds(sel Selector) (start, end int) {
	end = sel.Minute()
	start = (end - (WindowMinutes - 1) + MinutesPerDay) % MinutesPerDay
	return start, end
}

// WindowSlots returns the minute slots covered by sel, oldest first.
// AllTime covers every slot.
func WindowSlots(sel Selector) []int {
	if sel.IsAllTime() {
		slots := make([]int, MinutesPerDay)
		for i := range slots {
			slots[i] = i
		}
		return slots
	}

	start, end := windowBounds(sel)
	slots := make([]int, 0, WindowMinutes)
	if start <= end {
		for i := start; i <= end; i++ {
			slots = append(slots, i)
		}
		return slots
	}
	for i := start; i < MinutesPerDay; i++ {
		slots = append(slots, i)
	}
	for i := 0; i <= end; i++ {
		slots = append(slots, i)
	}
	return slots
}

// Select flattens the trips of the window selected by sel.
// For a minute m the window is the 60 minutes ending at m inclusive,
// [m-59, m], wrapping from 1439 to 0.
func Select(b *Buckets, sel Selector) []*models.Trip {
	if sel.IsAllTime() {
		return concat(b, 0, MinutesPerDay-1, b.Len())
	}

	start, end := windowBounds(sel)
	if start <= end {
		return concat(b, start, end, 0)
	}

	out := concat(b, start, MinutesPerDay-1, 0)
	return append(out, concat(b, 0, end, 0)...)
}

// concat joins slots [from..to] inclusive. sizeHint pre-sizes the result when known.
func concat(b *Buckets, from, to, sizeHint int) []*models.Trip {
	if sizeHint == 0 {
		for i := from; i <= to; i++ {
			sizeHint += len(b[i])
		}
	}
	out := make([]*models.Trip, 0, sizeHint)
	for i := from; i <= to; i++ {
		out = append(out, b[i]...)
	}
	return out
}
