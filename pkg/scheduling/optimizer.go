package scheduling

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Task is a pending request that has not been placed yet.
type Task struct {
	Title         string
	Duration      time.Duration
	PreferredDate time.Time
	Priority      Priority
	Description   string
}

// ScheduledEvent is a placement. ID stays empty until the calendar assigns one.
type ScheduledEvent struct {
	ID          string
	Title       string
	Interval    TimeInterval
	Priority    Priority
	Description string
}

// Placement is one entry of an OptimizationResult.
type Placement struct {
	Event          ScheduledEvent
	Interval       TimeInterval
	WasRescheduled bool
	// Conflict is set when the event collided with an earlier placement and no alternative existed,
	// so the original interval was kept.
	Conflict bool
}

// OptimizationResult lists placements in processing order.
type OptimizationResult struct {
	Placements []Placement
}

func (r OptimizationResult) Rescheduled() []Placement {
	var moved []Placement
	for _, p := range r.Placements {
		if p.WasRescheduled {
			moved = append(moved, p)
		}
	}
	return moved
}

func (r OptimizationResult) Conflicts() []Placement {
	var conflicts []Placement
	for _, p := range r.Placements {
		if p.Conflict {
			conflicts = append(conflicts, p)
		}
	}
	return conflicts
}

// RoutineRequest describes a recurring activity. An empty AllowedWeekdays means Monday to Friday.
type RoutineRequest struct {
	Duration           time.Duration
	PreferredTimeOfDay *time.Duration
	AllowedWeekdays    []time.Weekday
}

type RoutineSuggestion struct {
	Date     time.Time
	Interval TimeInterval
}

// DefaultRoutineWeekdays is used when a routine request does not restrict weekdays.
var DefaultRoutineWeekdays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

// IndexProvider returns the busy index for the day starting at dayStart.
type IndexProvider func(dayStart time.Time) (*IntervalIndex, error)

// StaticIndexProvider serves every day from the same busy calendar.
func StaticIndexProvider(busy BusyCalendar) IndexProvider {
	return func(dayStart time.Time) (*IntervalIndex, error) {
		return NewDayIndex(busy, dayStart)
	}
}

// Optimizer places tasks, resolves conflicts and re-orders days. It holds only immutable settings and
// is safe for concurrent use.
type Optimizer struct {
	settings Settings
	finder   SlotFinder
	selector SlotSelector
}

func NewOptimizer(settings Settings) *Optimizer {
	return &Optimizer{
		settings: settings,
		finder:   NewSlotFinder(settings.SlotGranularity),
		selector: NewSlotSelector(settings.MorningPriorities),
	}
}

func (o *Optimizer) Settings() Settings {
	return o.settings
}

func (o *Optimizer) Finder() SlotFinder {
	return o.finder
}

func (o *Optimizer) Selector() SlotSelector {
	return o.selector
}

// ScheduleTask places task on its preferred day, or on the following day when the preferred one is full.
func (o *Optimizer) ScheduleTask(task Task, indexes IndexProvider) (ScheduledEvent, error) {
	if strings.TrimSpace(task.Title) == "" {
		return ScheduledEvent{}, fmt.Errorf("%w: task title is required", ErrInvalidRequest)
	}
	if task.Duration <= 0 {
		return ScheduledEvent{}, fmt.Errorf("%w: task duration must be positive, got %s", ErrInvalidRequest, task.Duration)
	}
	if task.PreferredDate.IsZero() {
		return ScheduledEvent{}, fmt.Errorf("%w: task preferred date is required", ErrInvalidRequest)
	}
	priority := o.priorityOrDefault(task.Priority)

	day := StartOfDay(task.PreferredDate)
	for attempt := 0; attempt < 2; attempt++ {
		slots, err := o.daySlots(day, task.Duration, indexes)
		if err != nil {
			return ScheduledEvent{}, err
		}
		if slot, ok := o.selector.SelectBest(slots, priority); ok {
			log.Debugf("task %q placed at %s", task.Title, slot)
			return ScheduledEvent{
				Title:       task.Title,
				Interval:    slot,
				Priority:    priority,
				Description: task.Description,
			}, nil
		}
		log.Debugf("no free slot of %s for task %q on %s", task.Duration, task.Title, day.Format(time.DateOnly))
		day = StartOfDay(day.AddDate(0, 0, 1))
	}
	return ScheduledEvent{}, fmt.Errorf("%w: task %q on %s or the day after",
		ErrNoSlotAvailable, task.Title, StartOfDay(task.PreferredDate).Format(time.DateOnly))
}

// ResolveConflict returns desiredStart unchanged when it is free, otherwise the free slot of the same
// day nearest to it. existing is never modified.
func (o *Optimizer) ResolveConflict(existing ScheduledEvent, desiredStart time.Time, duration time.Duration, index *IntervalIndex) (TimeInterval, error) {
	if duration <= 0 {
		return TimeInterval{}, fmt.Errorf("%w: duration must be positive, got %s", ErrInvalidRequest, duration)
	}
	if index == nil {
		return TimeInterval{}, fmt.Errorf("%w: missing interval index", ErrInvalidRequest)
	}
	desired := IntervalOf(desiredStart, duration)
	if !index.Overlaps(desired) {
		return desired, nil
	}
	slots, err := o.finder.FindFreeSlots(DayWindow(desiredStart), duration, index)
	if err != nil {
		return TimeInterval{}, err
	}
	slot, ok := o.selector.SelectNearest(slots, desiredStart)
	if !ok {
		return TimeInterval{}, fmt.Errorf("%w: %q at %s", ErrNoAlternativeAvailable, existing.Title, desired)
	}
	log.Debugf("event %q moved from %s to %s", existing.Title, desired, slot)
	return slot, nil
}

// OptimizeDay processes events by ascending priority rank and moves each one that collides with an
// already processed event.
//
// Only earlier placements are checked, never the events still waiting in the queue, so two
// unprocessed events can still collide with each other in the result. An event that cannot be moved
// keeps its original interval and is flagged as a conflict; the batch itself never fails.
func (o *Optimizer) OptimizeDay(events []ScheduledEvent, order PriorityOrder) OptimizationResult {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b ScheduledEvent) int {
		return order.Rank(o.priorityOrDefault(a.Priority)) - order.Rank(o.priorityOrDefault(b.Priority))
	})

	result := OptimizationResult{Placements: make([]Placement, 0, len(sorted))}
	placed := make([]TimeInterval, 0, len(sorted))
	for _, event := range sorted {
		placement := Placement{Event: event, Interval: event.Interval}
		if overlapsAny(placed, event.Interval) {
			resolved, err := o.resolveAgainst(placed, event)
			if err != nil {
				if !errors.Is(err, ErrNoAlternativeAvailable) {
					log.Warnf("event %q could not be resolved: %v", event.Title, err)
				}
				placement.Conflict = true
			} else {
				placement.Interval = resolved
				placement.WasRescheduled = true
			}
		}
		placed = append(placed, placement.Interval)
		result.Placements = append(result.Placements, placement)
	}
	return result
}

func (o *Optimizer) resolveAgainst(placed []TimeInterval, event ScheduledEvent) (TimeInterval, error) {
	index, err := NewDayIndex(NewBusyCalendar(placed), StartOfDay(event.Interval.Start))
	if err != nil {
		return TimeInterval{}, err
	}
	return o.ResolveConflict(event, event.Interval.Start, event.Interval.Duration(), index)
}

// SuggestRoutineTimes proposes one slot per allowed weekday over the seven calendar days starting
// with from's day. Days without a free slot are skipped.
func (o *Optimizer) SuggestRoutineTimes(request RoutineRequest, from time.Time, indexes IndexProvider) ([]RoutineSuggestion, error) {
	if request.Duration <= 0 {
		return nil, fmt.Errorf("%w: routine duration must be positive, got %s", ErrInvalidRequest, request.Duration)
	}
	if request.PreferredTimeOfDay != nil && (*request.PreferredTimeOfDay < 0 || *request.PreferredTimeOfDay >= 24*time.Hour) {
		return nil, fmt.Errorf("%w: preferred time of day %s is outside a day", ErrInvalidRequest, *request.PreferredTimeOfDay)
	}
	weekdays := request.AllowedWeekdays
	if len(weekdays) == 0 {
		weekdays = DefaultRoutineWeekdays
	}

	var suggestions []RoutineSuggestion
	day := StartOfDay(from)
	for i := 0; i < RoutineLookaheadDays; i, day = i+1, StartOfDay(day.AddDate(0, 0, 1)) {
		if !slices.Contains(weekdays, day.Weekday()) {
			continue
		}
		slots, err := o.daySlots(day, request.Duration, indexes)
		if err != nil {
			return nil, err
		}
		var slot TimeInterval
		var ok bool
		if request.PreferredTimeOfDay != nil {
			slot, ok = o.selector.SelectNearestTimeOfDay(slots, *request.PreferredTimeOfDay)
		} else if len(slots) > 0 {
			slot, ok = slots[0], true
		}
		if !ok {
			log.Tracef("no routine slot on %s", day.Format(time.DateOnly))
			continue
		}
		suggestions = append(suggestions, RoutineSuggestion{Date: day, Interval: slot})
	}
	return suggestions, nil
}

func (o *Optimizer) daySlots(day time.Time, duration time.Duration, indexes IndexProvider) ([]TimeInterval, error) {
	index, err := indexes(day)
	if err != nil {
		return nil, fmt.Errorf("failed to load busy intervals for %s: %w", day.Format(time.DateOnly), err)
	}
	return o.finder.FindFreeSlots(DayWindow(day), duration, index)
}

func (o *Optimizer) priorityOrDefault(p Priority) Priority {
	if strings.TrimSpace(string(p)) == "" {
		return o.settings.DefaultPriority
	}
	return p
}

func overlapsAny(intervals []TimeInterval, interval TimeInterval) bool {
	for _, i := range intervals {
		if i.Overlaps(interval) {
			return true
		}
	}
	return false
}
