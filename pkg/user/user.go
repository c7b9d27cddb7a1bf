package user

import (
	"errors"
	"time"
)

var ErrUserNotFound = errors.New("user not found")
var ErrUserDataInvalid = errors.New("invalid user data")

type User struct {
	Id          int
	Uid         string
	Username    string
	DisplayName string
	Settings    Settings
}

type EventCalendarType string

const (
	LocalCalendar  EventCalendarType = "local"
	GoogleCalendar EventCalendarType = "google"
)

type Settings struct {
	Timezone          string
	EventCalendarType EventCalendarType
	GoogleCalendar    GoogleCalendarSettings
}

type GoogleCalendarSettings struct {
	CalendarId string
}

// Location returns the user's time zone, or fallback when it is empty or unknown.
func (u User) Location(fallback *time.Location) *time.Location {
	if u.Settings.Timezone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(u.Settings.Timezone)
	if err != nil {
		return fallback
	}
	return loc
}
