package scheduling

import (
	"fmt"
	"time"
)

const (
	DefaultSlotGranularity = 15 * time.Minute
	DefaultEventDuration   = 60 * time.Minute
	// RoutineLookaheadDays is the number of calendar days SuggestRoutineTimes inspects.
	RoutineLookaheadDays = 7
)

// Settings is the process-wide engine configuration. It is built once at startup and never mutated.
type Settings struct {
	DefaultDuration   time.Duration
	SlotGranularity   time.Duration
	PriorityOrder     PriorityOrder
	DefaultPriority   Priority
	MorningPriorities []Priority
	Location          *time.Location
}

// DefaultSettings mirrors the configuration defaults.
func DefaultSettings() Settings {
	return Settings{
		DefaultDuration:   DefaultEventDuration,
		SlotGranularity:   DefaultSlotGranularity,
		PriorityOrder:     DefaultPriorityOrder(),
		DefaultPriority:   PriorityMedium,
		MorningPriorities: []Priority{PriorityHigh, PriorityUrgent},
		Location:          time.UTC,
	}
}

func (s Settings) Validate() error {
	if s.DefaultDuration <= 0 {
		return fmt.Errorf("%w: default duration must be positive, got %s", ErrInvalidRequest, s.DefaultDuration)
	}
	if s.SlotGranularity <= 0 {
		return fmt.Errorf("%w: slot granularity must be positive, got %s", ErrInvalidRequest, s.SlotGranularity)
	}
	if len(s.PriorityOrder.levels) == 0 {
		return fmt.Errorf("%w: priority order is not configured", ErrInvalidRequest)
	}
	if !s.PriorityOrder.Known(s.DefaultPriority) {
		return fmt.Errorf("%w: default priority %q is not in the priority order", ErrInvalidRequest, s.DefaultPriority)
	}
	if s.Location == nil {
		return fmt.Errorf("%w: location is not configured", ErrInvalidRequest)
	}
	return nil
}
