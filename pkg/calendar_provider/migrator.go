package calendar_provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/klokku/planner/pkg/calendar"
	log "github.com/sirupsen/logrus"
)

var ErrGoogleCalendarNotConfigured = errors.New("google calendar is not configured")

type Direction string

const (
	LocalToGoogle Direction = "local-to-google"
	GoogleToLocal Direction = "google-to-local"
)

// EventsMigrator copies events between the local store and the user's Google calendar.
type EventsMigrator struct {
	provider *CalendarProvider
}

func NewEventsMigrator(provider *CalendarProvider) *EventsMigrator {
	return &EventsMigrator{provider: provider}
}

// Migrate copies events intersecting [from, to) and returns how many were stored.
// Events that fail to copy are logged and skipped.
func (m *EventsMigrator) Migrate(ctx context.Context, direction Direction, from time.Time, to time.Time) (int, error) {
	googleCalendar, err := m.googleCalendar(ctx)
	if err != nil {
		return 0, err
	}

	var source, target calendar.Calendar
	switch direction {
	case LocalToGoogle:
		source, target = m.provider.local, googleCalendar
	case GoogleToLocal:
		source, target = googleCalendar, m.provider.local
	default:
		return 0, fmt.Errorf("unknown migration direction %q", direction)
	}

	events, err := source.GetEvents(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to read events for migration: %w", err)
	}
	migrated := 0
	for _, event := range events {
		event.UID = ""
		if _, err := target.AddEvent(ctx, event); err != nil {
			log.Errorf("failed to migrate event %q (%s): %v. Trying to continue", event.Summary, direction, err)
			continue
		}
		migrated++
	}
	log.Infof("Migrated %d of %d events (%s)", migrated, len(events), direction)
	return migrated, nil
}

func (m *EventsMigrator) googleCalendar(ctx context.Context) (calendar.Calendar, error) {
	currentUser, err := m.provider.users.GetCurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if currentUser.Settings.GoogleCalendar.CalendarId == "" {
		return nil, ErrGoogleCalendarNotConfigured
	}
	googleCalendar, err := m.provider.google(ctx, currentUser.Settings.GoogleCalendar.CalendarId)
	if err != nil {
		return nil, fmt.Errorf("failed to get Google Calendar: %w", err)
	}
	return googleCalendar, nil
}
