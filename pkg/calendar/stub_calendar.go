package calendar

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StubCalendar is an in-memory Calendar for tests. It ignores the user in the context.
type StubCalendar struct {
	mu   sync.Mutex
	data map[string]Event
	// Err, when set, is returned by every operation.
	Err error
}

func NewStubCalendar(events ...Event) *StubCalendar {
	c := &StubCalendar{data: map[string]Event{}}
	for _, e := range events {
		if e.UID == "" {
			e.UID = uuid.NewString()
		}
		c.data[e.UID] = e
	}
	return c
}

func (c *StubCalendar) AddEvent(ctx context.Context, event Event) (*Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	event.UID = uuid.NewString()
	c.data[event.UID] = event
	return &event, nil
}

func (c *StubCalendar) GetEvent(ctx context.Context, uid string) (*Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	event, ok := c.data[uid]
	if !ok {
		return nil, ErrEventNotFound
	}
	return &event, nil
}

func (c *StubCalendar) GetEvents(ctx context.Context, from time.Time, to time.Time) ([]Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	var events []Event
	for _, event := range c.data {
		if event.StartTime.Before(to) && event.EndTime.After(from) {
			events = append(events, event)
		}
	}
	sortEvents(events)
	return events, nil
}

func (c *StubCalendar) ModifyEvent(ctx context.Context, event Event) (*Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	if _, ok := c.data[event.UID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, event.UID)
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	c.data[event.UID] = event
	return &event, nil
}

func (c *StubCalendar) DeleteEvent(ctx context.Context, uid string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	if _, ok := c.data[uid]; !ok {
		return ErrEventNotFound
	}
	delete(c.data, uid)
	return nil
}

// All returns every stored event ordered by start.
func (c *StubCalendar) All() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	events := make([]Event, 0, len(c.data))
	for _, e := range c.data {
		events = append(events, e)
	}
	sortEvents(events)
	return events
}

func (c *StubCalendar) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = map[string]Event{}
	c.Err = nil
}
