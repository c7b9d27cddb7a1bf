package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/klokku/planner/pkg/calendar"
	log "github.com/sirupsen/logrus"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
)

var ErrUnauthenticated = errors.New("user is unauthenticated, authentication is required")

const (
	priorityProperty = "plannerPriority"
	kindProperty     = "plannerKind"
)

// Calendar stores events in a single Google calendar. Scheduling metadata lives in private extended properties.
type Calendar struct {
	service    *gcal.Service
	calendarId string
}

func NewCalendar(service *gcal.Service, calendarId string) *Calendar {
	if calendarId == "" {
		calendarId = "primary"
	}
	return &Calendar{service: service, calendarId: calendarId}
}

func (c *Calendar) AddEvent(ctx context.Context, event calendar.Event) (*calendar.Event, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}
	log.Debugf("Adding event %q to Google calendar %s", event.Summary, c.calendarId)
	result, err := c.service.Events.Insert(c.calendarId, toGoogleEvent(event)).Context(ctx).Do()
	if err != nil {
		err := fmt.Errorf("unable to insert event in Google Calendar: %w", err)
		log.Error(err)
		return nil, err
	}
	return fromGoogleEvent(result)
}

func (c *Calendar) GetEvent(ctx context.Context, uid string) (*calendar.Event, error) {
	item, err := c.service.Events.Get(c.calendarId, uid).Context(ctx).Do()
	if err != nil {
		return nil, c.mapError("get", uid, err)
	}
	if item.Status == "cancelled" {
		return nil, fmt.Errorf("%w: %s", calendar.ErrEventNotFound, uid)
	}
	return fromGoogleEvent(item)
}

// GetEvents walks every result page. All-day events carry no time span and are skipped.
func (c *Calendar) GetEvents(ctx context.Context, from time.Time, to time.Time) ([]calendar.Event, error) {
	events := make([]calendar.Event, 0, 16)
	call := c.service.Events.List(c.calendarId).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime")
	err := call.Pages(ctx, func(page *gcal.Events) error {
		for _, item := range page.Items {
			if item.Start == nil || item.Start.DateTime == "" {
				log.Debugf("skipping all-day Google event %s (%s)", item.Id, item.Summary)
				continue
			}
			event, err := fromGoogleEvent(item)
			if err != nil {
				log.Warnf("skipping malformed Google event %s: %v", item.Id, err)
				continue
			}
			events = append(events, *event)
		}
		return nil
	})
	if err != nil {
		err := fmt.Errorf("unable to retrieve events from Google Calendar: %w", err)
		log.Error(err)
		return nil, err
	}
	return events, nil
}

func (c *Calendar) ModifyEvent(ctx context.Context, event calendar.Event) (*calendar.Event, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}
	result, err := c.service.Events.Update(c.calendarId, event.UID, toGoogleEvent(event)).Context(ctx).Do()
	if err != nil {
		return nil, c.mapError("update", event.UID, err)
	}
	return fromGoogleEvent(result)
}

func (c *Calendar) DeleteEvent(ctx context.Context, uid string) error {
	if err := c.service.Events.Delete(c.calendarId, uid).Context(ctx).Do(); err != nil {
		return c.mapError("delete", uid, err)
	}
	return nil
}

func (c *Calendar) mapError(op string, uid string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
		return fmt.Errorf("%w: %s", calendar.ErrEventNotFound, uid)
	}
	err = fmt.Errorf("unable to %s event %s in Google Calendar: %w", op, uid, err)
	log.Error(err)
	return err
}

func toGoogleEvent(event calendar.Event) *gcal.Event {
	private := map[string]string{}
	if event.Metadata.Priority != "" {
		private[priorityProperty] = event.Metadata.Priority
	}
	if event.Metadata.Kind != "" {
		private[kindProperty] = string(event.Metadata.Kind)
	}
	return &gcal.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Start:       &gcal.EventDateTime{DateTime: event.StartTime.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: event.EndTime.Format(time.RFC3339)},
		ExtendedProperties: &gcal.EventExtendedProperties{
			Private: private,
		},
	}
}

func fromGoogleEvent(item *gcal.Event) (*calendar.Event, error) {
	if item.Start == nil || item.End == nil {
		return nil, fmt.Errorf("event %s has no start or end", item.Id)
	}
	start, err := time.Parse(time.RFC3339, item.Start.DateTime)
	if err != nil {
		return nil, fmt.Errorf("invalid start of event %s: %w", item.Id, err)
	}
	end, err := time.Parse(time.RFC3339, item.End.DateTime)
	if err != nil {
		return nil, fmt.Errorf("invalid end of event %s: %w", item.Id, err)
	}
	event := &calendar.Event{
		UID:         item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		StartTime:   start,
		EndTime:     end,
	}
	if item.ExtendedProperties != nil {
		event.Metadata.Priority = item.ExtendedProperties.Private[priorityProperty]
		event.Metadata.Kind = calendar.EventKind(item.ExtendedProperties.Private[kindProperty])
	}
	return event, nil
}
