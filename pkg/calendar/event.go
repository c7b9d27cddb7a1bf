package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/klokku/planner/pkg/scheduling"
)

type Event struct {
	UID         string
	Summary     string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	Metadata    EventMetadata
}

type EventKind string

const (
	KindTask    EventKind = "task"
	KindBlock   EventKind = "block"
	KindRoutine EventKind = "routine"
)

type EventMetadata struct {
	Priority string    `json:"priority,omitempty"`
	Kind     EventKind `json:"kind,omitempty"`
}

func (e Event) Interval() scheduling.TimeInterval {
	return scheduling.TimeInterval{Start: e.StartTime, End: e.EndTime}
}

func (e Event) Validate() error {
	if strings.TrimSpace(e.Summary) == "" {
		return fmt.Errorf("%w: summary is required", ErrInvalidEvent)
	}
	if !e.StartTime.Before(e.EndTime) {
		return fmt.Errorf("%w: start %s is not before end %s", ErrInvalidEvent,
			e.StartTime.Format(time.RFC3339), e.EndTime.Format(time.RFC3339))
	}
	return nil
}

// ToScheduledEvent maps a stored event into the engine's placement model.
func (e Event) ToScheduledEvent() scheduling.ScheduledEvent {
	return scheduling.ScheduledEvent{
		ID:          e.UID,
		Title:       e.Summary,
		Interval:    e.Interval(),
		Priority:    scheduling.Priority(e.Metadata.Priority),
		Description: e.Description,
	}
}

// BusyIntervals returns the intervals of all well-formed events.
func BusyIntervals(events []Event) scheduling.BusyCalendar {
	intervals := make([]scheduling.TimeInterval, 0, len(events))
	for _, e := range events {
		if e.StartTime.Before(e.EndTime) {
			intervals = append(intervals, e.Interval())
		}
	}
	return scheduling.NewBusyCalendar(intervals)
}
