package calendar

import (
	"context"
	"errors"
	"time"
)

var ErrEventNotFound = errors.New("event not found")
var ErrInvalidEvent = errors.New("invalid event")

// Calendar is the store of record for a user's events. The user is taken from the context.
type Calendar interface {
	AddEvent(ctx context.Context, event Event) (*Event, error)
	GetEvent(ctx context.Context, uid string) (*Event, error)
	// GetEvents returns events intersecting [from, to) ordered by start time.
	GetEvents(ctx context.Context, from time.Time, to time.Time) ([]Event, error)
	ModifyEvent(ctx context.Context, event Event) (*Event, error)
	DeleteEvent(ctx context.Context, uid string) error
}
