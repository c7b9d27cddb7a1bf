package config

import (
	"fmt"
	"time"

	"github.com/klokku/planner/pkg/scheduling"
)

// EngineSettings converts the scheduling section into immutable engine settings.
func (s Scheduling) EngineSettings() (scheduling.Settings, error) {
	levels := make([]scheduling.Priority, 0, len(s.PriorityOrder))
	for _, p := range s.PriorityOrder {
		levels = append(levels, scheduling.Priority(p))
	}
	order, err := scheduling.NewPriorityOrder(levels, s.UnknownPriorityRank)
	if err != nil {
		return scheduling.Settings{}, fmt.Errorf("scheduling.priorityorder: %w", err)
	}

	morning := make([]scheduling.Priority, 0, len(s.MorningPriorities))
	for _, p := range s.MorningPriorities {
		morning = append(morning, scheduling.Priority(p))
	}

	location, err := time.LoadLocation(s.DefaultTimezone)
	if err != nil {
		return scheduling.Settings{}, fmt.Errorf("scheduling.defaulttimezone: %w", err)
	}

	settings := scheduling.Settings{
		DefaultDuration:   time.Duration(s.DefaultDuration) * time.Minute,
		SlotGranularity:   time.Duration(s.SlotGranularity) * time.Minute,
		PriorityOrder:     order,
		DefaultPriority:   scheduling.Priority(s.DefaultPriority),
		MorningPriorities: morning,
		Location:          location,
	}
	if err := settings.Validate(); err != nil {
		return scheduling.Settings{}, err
	}
	return settings, nil
}

// Weekdays returns the configured default routine weekdays.
func (s Scheduling) Weekdays() ([]time.Weekday, error) {
	weekdays := make([]time.Weekday, 0, len(s.RoutineWeekdays))
	for _, d := range s.RoutineWeekdays {
		if d < 0 || d > 6 {
			return nil, fmt.Errorf("scheduling.routineweekdays: %d is not a weekday", d)
		}
		weekdays = append(weekdays, time.Weekday(d))
	}
	return weekdays, nil
}

// DurationBounds returns the accepted range for requested event durations.
func (s Scheduling) DurationBounds() (time.Duration, time.Duration) {
	return time.Duration(s.MinDuration) * time.Minute, time.Duration(s.MaxDuration) * time.Minute
}
