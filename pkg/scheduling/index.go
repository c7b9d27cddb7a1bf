package scheduling

import (
	"fmt"
	"time"
)

// IntervalIndex answers overlap queries over a read-only snapshot of busy intervals for one window.
type IntervalIndex struct {
	window TimeInterval
	busy   []TimeInterval
}

// NewIntervalIndex builds an index for window. Busy intervals that do not touch the window or are
// not well-formed are dropped.
func NewIntervalIndex(busy BusyCalendar, window TimeInterval) (*IntervalIndex, error) {
	if !window.valid() {
		return nil, fmt.Errorf("%w: window %s is empty or inverted", ErrInvalidRequest, window)
	}
	kept := make([]TimeInterval, 0, len(busy))
	for _, b := range NewBusyCalendar(busy) {
		if !b.valid() || !b.Overlaps(window) {
			continue
		}
		kept = append(kept, b)
	}
	return &IntervalIndex{window: window, busy: kept}, nil
}

// NewDayIndex builds an index over [dayStart, dayStart+24h).
func NewDayIndex(busy BusyCalendar, dayStart time.Time) (*IntervalIndex, error) {
	return NewIntervalIndex(busy, TimeInterval{Start: dayStart, End: dayStart.Add(24 * time.Hour)})
}

func (x *IntervalIndex) Window() TimeInterval {
	return x.window
}

// Len returns the number of busy intervals in the index.
func (x *IntervalIndex) Len() int {
	return len(x.busy)
}

// Overlaps reports whether interval intersects any busy interval.
func (x *IntervalIndex) Overlaps(interval TimeInterval) bool {
	_, ok := x.FirstBlockingEnd(interval)
	return ok
}

// FirstBlockingEnd returns the end of the earliest-starting busy interval intersecting interval.
func (x *IntervalIndex) FirstBlockingEnd(interval TimeInterval) (time.Time, bool) {
	for _, b := range x.busy {
		if !b.Start.Before(interval.End) {
			// sorted by start, nothing further can intersect
			break
		}
		if b.Overlaps(interval) {
			return b.End, true
		}
	}
	return time.Time{}, false
}
