package schedule

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/klokku/planner/internal/event_bus"
	"github.com/klokku/planner/internal/utils"
	"github.com/klokku/planner/pkg/calendar"
	"github.com/klokku/planner/pkg/intent"
	"github.com/klokku/planner/pkg/scheduling"
	"github.com/klokku/planner/pkg/user"
	log "github.com/sirupsen/logrus"
)

var ErrTimeBlockConflict = errors.New("time block conflicts with existing events")

const DefaultBlockTitle = "Time Block"

// Limits bounds what the API accepts on top of the engine's own validation.
type Limits struct {
	MinDuration     time.Duration
	MaxDuration     time.Duration
	RoutineWeekdays []time.Weekday
}

type TaskRequest struct {
	Title    string
	Duration time.Duration
	// PreferredDate is a calendar date read in the user's time zone. Zero means today.
	PreferredDate time.Time
	Priority      string
	Description   string
}

type BlockRequest struct {
	Title       string
	Start       time.Time
	End         time.Time
	Priority    string
	Description string
}

type RoutineRequest struct {
	Duration           time.Duration
	PreferredTimeOfDay *time.Duration
	Weekdays           []time.Weekday
	// Cron, when set, replaces PreferredTimeOfDay and Weekdays.
	Cron string
}

// TextResult is the event created from free text together with how the text was read.
type TextResult struct {
	Event  calendar.Event
	Intent intent.Intent
}

// batchModifier is implemented by calendars that can store several changes atomically.
type batchModifier interface {
	ModifyEvents(ctx context.Context, events []calendar.Event) ([]calendar.Event, error)
}

// Service runs the scheduling use-cases: it reads busy time from the calendar, asks the engine for a
// placement and writes the outcome back. Reads and writes are not atomic against the calendar.
type Service struct {
	calendar  calendar.Calendar
	optimizer *scheduling.Optimizer
	parser    intent.Parser
	bus       *event_bus.EventBus
	clock     utils.Clock
	limits    Limits
}

func NewService(
	cal calendar.Calendar,
	optimizer *scheduling.Optimizer,
	parser intent.Parser,
	bus *event_bus.EventBus,
	clock utils.Clock,
	limits Limits,
) *Service {
	return &Service{
		calendar:  cal,
		optimizer: optimizer,
		parser:    parser,
		bus:       bus,
		clock:     clock,
		limits:    limits,
	}
}

func (s *Service) ScheduleTask(ctx context.Context, req TaskRequest) (calendar.Event, error) {
	loc, err := s.location(ctx)
	if err != nil {
		return calendar.Event{}, err
	}
	duration, err := s.duration(req.Duration)
	if err != nil {
		return calendar.Event{}, err
	}
	date := req.PreferredDate
	if date.IsZero() {
		date = s.clock.Now().In(loc)
	}

	placed, err := s.optimizer.ScheduleTask(scheduling.Task{
		Title:         req.Title,
		Duration:      duration,
		PreferredDate: s.dayIn(date, loc),
		Priority:      scheduling.Priority(req.Priority),
		Description:   req.Description,
	}, s.indexes(ctx, ""))
	if err != nil {
		return calendar.Event{}, err
	}
	return s.storeTask(ctx, placed)
}

// ScheduleFromText reads text with the intent parser. A named time is honoured when free and moved to
// the nearest free slot of that day otherwise; without a time the task is placed like ScheduleTask.
func (s *Service) ScheduleFromText(ctx context.Context, text string) (TextResult, error) {
	loc, err := s.location(ctx)
	if err != nil {
		return TextResult{}, err
	}
	in, err := s.parser.Parse(ctx, text, s.clock.Now().In(loc))
	if err != nil {
		if errors.Is(err, intent.ErrEmptyText) {
			return TextResult{}, fmt.Errorf("%w: %v", scheduling.ErrInvalidRequest, err)
		}
		return TextResult{}, fmt.Errorf("failed to parse text: %w", err)
	}
	if in.Action != intent.ActionCreate {
		return TextResult{}, fmt.Errorf("%w: action %q is not supported", scheduling.ErrInvalidRequest, in.Action)
	}
	log.Debugf("text read as %q at %v", in.Title, in.StartTime)

	if in.StartTime == nil {
		event, err := s.ScheduleTask(ctx, TaskRequest{
			Title:       in.Title,
			Duration:    in.Duration(),
			Priority:    in.Priority,
			Description: in.Description,
		})
		return TextResult{Event: event, Intent: in}, err
	}

	duration, err := s.duration(in.Duration())
	if err != nil {
		return TextResult{}, err
	}
	desired := in.StartTime.In(loc)
	index, err := s.busyAround(ctx, "", scheduling.IntervalOf(desired, duration))
	if err != nil {
		return TextResult{}, err
	}
	proposed := scheduling.ScheduledEvent{
		Title:       in.Title,
		Priority:    scheduling.Priority(in.Priority),
		Description: in.Description,
	}
	interval, err := s.optimizer.ResolveConflict(proposed, desired, duration, index)
	if err != nil {
		return TextResult{}, err
	}
	proposed.Interval = interval
	event, err := s.storeTask(ctx, proposed)
	return TextResult{Event: event, Intent: in}, err
}

// Reschedule moves an event to desiredStart, keeping its length. The event's own interval does not
// count as busy.
func (s *Service) Reschedule(ctx context.Context, uid string, desiredStart time.Time) (calendar.Event, error) {
	loc, err := s.location(ctx)
	if err != nil {
		return calendar.Event{}, err
	}
	existing, err := s.calendar.GetEvent(ctx, uid)
	if err != nil {
		return calendar.Event{}, err
	}
	duration := existing.EndTime.Sub(existing.StartTime)
	desired := desiredStart.In(loc)

	index, err := s.busyAround(ctx, uid, scheduling.IntervalOf(desired, duration))
	if err != nil {
		return calendar.Event{}, err
	}
	interval, err := s.optimizer.ResolveConflict(existing.ToScheduledEvent(), desired, duration, index)
	if err != nil {
		return calendar.Event{}, err
	}

	moved := *existing
	moved.StartTime, moved.EndTime = interval.Start, interval.End
	updated, err := s.calendar.ModifyEvent(ctx, moved)
	if err != nil {
		return calendar.Event{}, fmt.Errorf("failed to store rescheduled event: %w", err)
	}
	s.publish(ctx, event_bus.EventRescheduledType, event_bus.EventRescheduled{
		UID:            updated.UID,
		RequestedStart: desired,
		StartTime:      updated.StartTime,
		EndTime:        updated.EndTime,
	})
	return *updated, nil
}

// CreateBlock reserves [Start, End) and fails with ErrTimeBlockConflict when anything overlaps it.
func (s *Service) CreateBlock(ctx context.Context, req BlockRequest) (calendar.Event, error) {
	if _, err := s.location(ctx); err != nil {
		return calendar.Event{}, err
	}
	interval, err := scheduling.NewTimeInterval(req.Start, req.End)
	if err != nil {
		return calendar.Event{}, err
	}
	existing, err := s.calendar.GetEvents(ctx, interval.Start, interval.End)
	if err != nil {
		return calendar.Event{}, fmt.Errorf("failed to load events: %w", err)
	}
	for _, e := range existing {
		if e.Interval().Overlaps(interval) {
			return calendar.Event{}, fmt.Errorf("%w: %q %s", ErrTimeBlockConflict, e.Summary, e.Interval())
		}
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = DefaultBlockTitle
	}
	added, err := s.calendar.AddEvent(ctx, calendar.Event{
		Summary:     title,
		Description: req.Description,
		StartTime:   interval.Start,
		EndTime:     interval.End,
		Metadata: calendar.EventMetadata{
			Priority: s.priority(req.Priority),
			Kind:     calendar.KindBlock,
		},
	})
	if err != nil {
		return calendar.Event{}, fmt.Errorf("failed to store time block: %w", err)
	}
	s.publish(ctx, event_bus.TimeBlockCreatedType, event_bus.TimeBlockCreated{
		UID:       added.UID,
		Title:     added.Summary,
		StartTime: added.StartTime,
		EndTime:   added.EndTime,
	})
	return *added, nil
}

// FreeSlots lists packed free slots of duration on the given date.
func (s *Service) FreeSlots(ctx context.Context, date time.Time, duration time.Duration) ([]scheduling.TimeInterval, error) {
	loc, err := s.location(ctx)
	if err != nil {
		return nil, err
	}
	duration, err = s.duration(duration)
	if err != nil {
		return nil, err
	}
	day := s.dayIn(date, loc)
	index, err := s.indexes(ctx, "")(day)
	if err != nil {
		return nil, err
	}
	return s.optimizer.Finder().FindFreeSlots(scheduling.DayWindow(day), duration, index)
}

// Agenda returns the events of the given date with their times in the user's time zone.
func (s *Service) Agenda(ctx context.Context, date time.Time) ([]calendar.Event, error) {
	loc, err := s.location(ctx)
	if err != nil {
		return nil, err
	}
	window := scheduling.DayWindow(s.dayIn(date, loc))
	events, err := s.calendar.GetEvents(ctx, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("failed to load agenda: %w", err)
	}
	for i := range events {
		events[i].StartTime = events[i].StartTime.In(loc)
		events[i].EndTime = events[i].EndTime.In(loc)
	}
	return events, nil
}

// OptimizeDay re-places the events of a date by priority. With apply set, moved events are written back.
func (s *Service) OptimizeDay(ctx context.Context, date time.Time, apply bool) (scheduling.OptimizationResult, error) {
	loc, err := s.location(ctx)
	if err != nil {
		return scheduling.OptimizationResult{}, err
	}
	events, err := s.Agenda(ctx, date)
	if err != nil {
		return scheduling.OptimizationResult{}, err
	}
	byUid := make(map[string]calendar.Event, len(events))
	scheduled := make([]scheduling.ScheduledEvent, 0, len(events))
	for _, e := range events {
		if !e.StartTime.Before(e.EndTime) {
			log.Warnf("ignoring event %s with empty interval", e.UID)
			continue
		}
		byUid[e.UID] = e
		scheduled = append(scheduled, e.ToScheduledEvent())
	}

	result := s.optimizer.OptimizeDay(scheduled, s.optimizer.Settings().PriorityOrder)
	moved := result.Rescheduled()
	if apply && len(moved) > 0 {
		changes := make([]calendar.Event, 0, len(moved))
		for _, p := range moved {
			e := byUid[p.Event.ID]
			e.StartTime, e.EndTime = p.Interval.Start, p.Interval.End
			changes = append(changes, e)
		}
		if err := s.modifyAll(ctx, changes); err != nil {
			return scheduling.OptimizationResult{}, err
		}
	}

	s.publish(ctx, event_bus.DayOptimizedType, event_bus.DayOptimized{
		Day:         s.dayIn(date, loc),
		Events:      len(result.Placements),
		Rescheduled: len(moved),
		Conflicts:   len(result.Conflicts()),
		Applied:     apply,
	})
	return result, nil
}

// SuggestRoutine proposes one slot per allowed weekday over the coming seven days.
func (s *Service) SuggestRoutine(ctx context.Context, req RoutineRequest) ([]scheduling.RoutineSuggestion, error) {
	loc, err := s.location(ctx)
	if err != nil {
		return nil, err
	}
	duration, err := s.duration(req.Duration)
	if err != nil {
		return nil, err
	}

	routine := scheduling.RoutineRequest{
		Duration:           duration,
		PreferredTimeOfDay: req.PreferredTimeOfDay,
		AllowedWeekdays:    req.Weekdays,
	}
	if strings.TrimSpace(req.Cron) != "" {
		routine, err = scheduling.ParseRoutineSpec(req.Cron, duration)
		if err != nil {
			return nil, err
		}
	}
	if len(routine.AllowedWeekdays) == 0 {
		routine.AllowedWeekdays = slices.Clone(s.limits.RoutineWeekdays)
	}
	return s.optimizer.SuggestRoutineTimes(routine, s.clock.Now().In(loc), s.indexes(ctx, ""))
}

func (s *Service) storeTask(ctx context.Context, placed scheduling.ScheduledEvent) (calendar.Event, error) {
	added, err := s.calendar.AddEvent(ctx, calendar.Event{
		Summary:     placed.Title,
		Description: placed.Description,
		StartTime:   placed.Interval.Start,
		EndTime:     placed.Interval.End,
		Metadata: calendar.EventMetadata{
			Priority: s.priority(string(placed.Priority)),
			Kind:     calendar.KindTask,
		},
	})
	if err != nil {
		return calendar.Event{}, fmt.Errorf("failed to store scheduled task: %w", err)
	}
	s.publish(ctx, event_bus.TaskScheduledType, event_bus.TaskScheduled{
		UID:       added.UID,
		Title:     added.Summary,
		Priority:  added.Metadata.Priority,
		StartTime: added.StartTime,
		EndTime:   added.EndTime,
	})
	return *added, nil
}

func (s *Service) modifyAll(ctx context.Context, changes []calendar.Event) error {
	if batch, ok := s.calendar.(batchModifier); ok {
		if _, err := batch.ModifyEvents(ctx, changes); err != nil {
			return fmt.Errorf("failed to store optimized day: %w", err)
		}
		return nil
	}
	for _, e := range changes {
		if _, err := s.calendar.ModifyEvent(ctx, e); err != nil {
			return fmt.Errorf("failed to store optimized event %s: %w", e.UID, err)
		}
	}
	return nil
}

// indexes loads a day's busy time from the calendar, leaving out the event with uid exclude.
func (s *Service) indexes(ctx context.Context, exclude string) scheduling.IndexProvider {
	return func(dayStart time.Time) (*scheduling.IntervalIndex, error) {
		return s.busyIndex(ctx, exclude, scheduling.DayWindow(dayStart))
	}
}

// busyAround covers the day of desired and, when desired runs past midnight, the part of the next
// day it reaches into.
func (s *Service) busyAround(ctx context.Context, exclude string, desired scheduling.TimeInterval) (*scheduling.IntervalIndex, error) {
	window := scheduling.DayWindow(desired.Start)
	if desired.End.After(window.End) {
		window.End = desired.End
	}
	return s.busyIndex(ctx, exclude, window)
}

func (s *Service) busyIndex(ctx context.Context, exclude string, window scheduling.TimeInterval) (*scheduling.IntervalIndex, error) {
	events, err := s.calendar.GetEvents(ctx, window.Start, window.End)
	if err != nil {
		err = fmt.Errorf("failed to load busy time for %s: %w", window, err)
		log.Error(err)
		return nil, err
	}
	if exclude != "" {
		events = slices.DeleteFunc(events, func(e calendar.Event) bool { return e.UID == exclude })
	}
	return scheduling.NewIntervalIndex(calendar.BusyIntervals(events), window)
}

func (s *Service) location(ctx context.Context) (*time.Location, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return currentUser.Location(s.optimizer.Settings().Location), nil
}

func (s *Service) duration(d time.Duration) (time.Duration, error) {
	if d == 0 {
		d = s.optimizer.Settings().DefaultDuration
	}
	if d <= 0 || (s.limits.MinDuration > 0 && d < s.limits.MinDuration) || (s.limits.MaxDuration > 0 && d > s.limits.MaxDuration) {
		return 0, fmt.Errorf("%w: duration %s is outside %s..%s", scheduling.ErrInvalidRequest, d, s.limits.MinDuration, s.limits.MaxDuration)
	}
	return d, nil
}

func (s *Service) priority(p string) string {
	if strings.TrimSpace(p) == "" {
		return string(s.optimizer.Settings().DefaultPriority)
	}
	return strings.ToLower(strings.TrimSpace(p))
}

// dayIn anchors the calendar date of t at midnight in loc.
func (s *Service) dayIn(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func (s *Service) publish(ctx context.Context, eventType event_bus.EventType, data any) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(event_bus.NewEvent(ctx, eventType, data)); err != nil {
		log.Warnf("handling %s failed: %v", eventType, err)
	}
}
