package calendar_provider

import (
	"context"
	"fmt"
	"time"

	"github.com/klokku/planner/pkg/calendar"
	"github.com/klokku/planner/pkg/google"
	"github.com/klokku/planner/pkg/user"
)

type remoteCalendarFunc func(ctx context.Context, calendarId string) (calendar.Calendar, error)

// CalendarProvider routes calendar operations to the store selected in the current user's settings.
type CalendarProvider struct {
	users  user.Provider
	local  calendar.Calendar
	google remoteCalendarFunc
}

func NewCalendarProvider(users user.Provider, local calendar.Calendar, googleService google.Service) *CalendarProvider {
	return &CalendarProvider{
		users: users,
		local: local,
		google: func(ctx context.Context, calendarId string) (calendar.Calendar, error) {
			return googleService.GetCalendar(ctx, calendarId)
		},
	}
}

func (c *CalendarProvider) getCalendar(ctx context.Context) (calendar.Calendar, error) {
	currentUser, err := c.users.GetCurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user when getting calendar: %w", err)
	}
	switch u := currentUser; u.Settings.EventCalendarType {
	case user.GoogleCalendar:
		return c.google(ctx, u.Settings.GoogleCalendar.CalendarId)
	case user.LocalCalendar, "":
		return c.local, nil
	}
	return nil, fmt.Errorf("unknown calendar type %q", currentUser.Settings.EventCalendarType)
}

func (c *CalendarProvider) AddEvent(ctx context.Context, event calendar.Event) (*calendar.Event, error) {
	cal, err := c.getCalendar(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get calendar when adding event: %w", err)
	}
	return cal.AddEvent(ctx, event)
}

func (c *CalendarProvider) GetEvent(ctx context.Context, uid string) (*calendar.Event, error) {
	cal, err := c.getCalendar(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get calendar when getting event: %w", err)
	}
	return cal.GetEvent(ctx, uid)
}

func (c *CalendarProvider) GetEvents(ctx context.Context, from time.Time, to time.Time) ([]calendar.Event, error) {
	cal, err := c.getCalendar(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get calendar when getting events: %w", err)
	}
	return cal.GetEvents(ctx, from, to)
}

func (c *CalendarProvider) ModifyEvent(ctx context.Context, event calendar.Event) (*calendar.Event, error) {
	cal, err := c.getCalendar(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get calendar when modifying event: %w", err)
	}
	return cal.ModifyEvent(ctx, event)
}

func (c *CalendarProvider) DeleteEvent(ctx context.Context, uid string) error {
	cal, err := c.getCalendar(ctx)
	if err != nil {
		return fmt.Errorf("failed to get calendar when deleting event: %w", err)
	}
	return cal.DeleteEvent(ctx, uid)
}

// ModifyEvents stores all changes in one transaction when the selected calendar supports it,
// otherwise one by one, stopping at the first failure.
func (c *CalendarProvider) ModifyEvents(ctx context.Context, events []calendar.Event) ([]calendar.Event, error) {
	cal, err := c.getCalendar(ctx)
	if err != nil {
		return nil, err
	}
	if batch, ok := cal.(interface {
		ModifyEvents(ctx context.Context, events []calendar.Event) ([]calendar.Event, error)
	}); ok {
		return batch.ModifyEvents(ctx, events)
	}
	modified := make([]calendar.Event, 0, len(events))
	for _, event := range events {
		updated, err := cal.ModifyEvent(ctx, event)
		if err != nil {
			return modified, err
		}
		modified = append(modified, *updated)
	}
	return modified, nil
}
