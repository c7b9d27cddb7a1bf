package event_bus

import "time"

const (
	TaskScheduledType    EventType = "schedule.task_scheduled"
	EventRescheduledType EventType = "schedule.event_rescheduled"
	TimeBlockCreatedType EventType = "schedule.time_block_created"
	DayOptimizedType     EventType = "schedule.day_optimized"
)

type TaskScheduled struct {
	UID       string
	Title     string
	Priority  string
	StartTime time.Time
	EndTime   time.Time
}

type EventRescheduled struct {
	UID string
	// RequestedStart is the start asked for; StartTime differs from it when a conflict moved the event.
	RequestedStart time.Time
	StartTime      time.Time
	EndTime        time.Time
}

type TimeBlockCreated struct {
	UID       string
	Title     string
	StartTime time.Time
	EndTime   time.Time
}

type DayOptimized struct {
	Day         time.Time
	Events      int
	Rescheduled int
	Conflicts   int
	Applied     bool
}
