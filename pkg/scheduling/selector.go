package scheduling

import (
	"slices"
	"time"
)

// SlotSelector picks one slot out of a chronologically ordered candidate list.
// A false result means the candidate list was empty.
type SlotSelector struct {
	morningPriorities []Priority
}

// NewSlotSelector returns a selector that prefers morning slots for the given priorities.
func NewSlotSelector(morningPriorities []Priority) SlotSelector {
	normalized := make([]Priority, 0, len(morningPriorities))
	for _, p := range morningPriorities {
		normalized = append(normalized, normalizePriority(p))
	}
	return SlotSelector{morningPriorities: normalized}
}

// SelectBest returns the earliest slot starting before noon for morning priorities, falling back to
// the first slot. Every other priority gets the first slot. The hour is read in the slot's own location.
func (s SlotSelector) SelectBest(slots []TimeInterval, priority Priority) (TimeInterval, bool) {
	if len(slots) == 0 {
		return TimeInterval{}, false
	}
	if slices.Contains(s.morningPriorities, normalizePriority(priority)) {
		for _, slot := range slots {
			if slot.Start.Hour() < 12 {
				return slot, true
			}
		}
	}
	return slots[0], true
}

// SelectNearest returns the slot whose start is closest to target. The first minimal slot wins ties.
func (s SlotSelector) SelectNearest(slots []TimeInterval, target time.Time) (TimeInterval, bool) {
	return nearest(slots, func(slot TimeInterval) time.Duration {
		return absDuration(slot.Start.Sub(target))
	})
}

// SelectNearestTimeOfDay compares only the clock component of each start against timeOfDay.
//
// The distance is linear within a day: a target of 23:30 and a slot at 00:15 are 23h15m apart,
// not 45 minutes.
func (s SlotSelector) SelectNearestTimeOfDay(slots []TimeInterval, timeOfDay time.Duration) (TimeInterval, bool) {
	return nearest(slots, func(slot TimeInterval) time.Duration {
		return absDuration(TimeOfDay(slot.Start) - timeOfDay)
	})
}

func nearest(slots []TimeInterval, distance func(TimeInterval) time.Duration) (TimeInterval, bool) {
	if len(slots) == 0 {
		return TimeInterval{}, false
	}
	best := slots[0]
	bestDistance := distance(best)
	for _, slot := range slots[1:] {
		if d := distance(slot); d < bestDistance {
			best, bestDistance = slot, d
		}
	}
	return best, true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
