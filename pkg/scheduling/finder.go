package scheduling

import (
	"fmt"
	"iter"
	"time"

	log "github.com/sirupsen/logrus"
)

// SlotFinder tiles a window with free slots of a requested duration.
type SlotFinder struct {
	// Granularity is the minimum step taken past a conflicting candidate.
	Granularity time.Duration
}

func NewSlotFinder(granularity time.Duration) SlotFinder {
	if granularity <= 0 {
		granularity = DefaultSlotGranularity
	}
	return SlotFinder{Granularity: granularity}
}

// FreeSlots returns the packed free slots of the given duration inside window.
//
// Slots are emitted back to back: after a free candidate the cursor moves by duration, after a
// conflicting one it moves to the later of cursor+Granularity and the end of the blocking interval.
// The sequence is computed fresh on every iteration.
func (f SlotFinder) FreeSlots(window TimeInterval, duration time.Duration, index *IntervalIndex) (iter.Seq[TimeInterval], error) {
	if duration <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive, got %s", ErrInvalidRequest, duration)
	}
	if !window.valid() {
		return nil, fmt.Errorf("%w: window %s is empty or inverted", ErrInvalidRequest, window)
	}
	if index == nil {
		return nil, fmt.Errorf("%w: missing interval index", ErrInvalidRequest)
	}
	step := f.Granularity
	if step <= 0 {
		step = DefaultSlotGranularity
	}

	return func(yield func(TimeInterval) bool) {
		cursor := window.Start
		for !cursor.Add(duration).After(window.End) {
			candidate := IntervalOf(cursor, duration)
			blockingEnd, blocked := index.FirstBlockingEnd(candidate)
			if !blocked {
				if !yield(candidate) {
					return
				}
				cursor = candidate.End
				continue
			}
			next := cursor.Add(step)
			if blockingEnd.After(next) {
				next = blockingEnd
			}
			cursor = next
		}
	}, nil
}

// FindFreeSlots collects FreeSlots into a slice.
func (f SlotFinder) FindFreeSlots(window TimeInterval, duration time.Duration, index *IntervalIndex) ([]TimeInterval, error) {
	seq, err := f.FreeSlots(window, duration, index)
	if err != nil {
		return nil, err
	}
	var slots []TimeInterval
	for slot := range seq {
		slots = append(slots, slot)
	}
	log.Tracef("found %d free slots of %s in %s", len(slots), duration, window)
	return slots, nil
}
