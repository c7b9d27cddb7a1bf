package scheduling

import (
	"fmt"
	"slices"
	"time"
)

// TimeInterval is a half-open time range [Start, End).
type TimeInterval struct {
	Start time.Time
	End   time.Time
}

// NewTimeInterval returns the interval [start, end). It fails with ErrInvalidRequest unless start < end.
func NewTimeInterval(start, end time.Time) (TimeInterval, error) {
	if !start.Before(end) {
		return TimeInterval{}, fmt.Errorf("%w: interval start %s is not before end %s",
			ErrInvalidRequest, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return TimeInterval{Start: start, End: end}, nil
}

// IntervalOf returns [start, start+d).
func IntervalOf(start time.Time, d time.Duration) TimeInterval {
	return TimeInterval{Start: start, End: start.Add(d)}
}

func (i TimeInterval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Overlaps reports whether the two intervals intersect. Touching intervals do not overlap.
func (i TimeInterval) Overlaps(other TimeInterval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

func (i TimeInterval) valid() bool {
	return i.Start.Before(i.End)
}

func (i TimeInterval) String() string {
	return fmt.Sprintf("[%s, %s)", i.Start.Format(time.RFC3339), i.End.Format(time.RFC3339))
}

// BusyCalendar is a set of busy intervals ordered by start time.
type BusyCalendar []TimeInterval

// NewBusyCalendar returns a sorted copy of the given intervals. The input slice is left untouched.
func NewBusyCalendar(intervals []TimeInterval) BusyCalendar {
	busy := slices.Clone(intervals)
	slices.SortStableFunc(busy, func(a, b TimeInterval) int {
		return a.Start.Compare(b.Start)
	})
	return busy
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayWindow returns [dayStart, dayStart+24h) for the day containing t.
func DayWindow(t time.Time) TimeInterval {
	start := StartOfDay(t)
	return TimeInterval{Start: start, End: start.Add(24 * time.Hour)}
}

// TimeOfDay returns the offset of t from midnight of its own day.
func TimeOfDay(t time.Time) time.Duration {
	return t.Sub(StartOfDay(t))
}
