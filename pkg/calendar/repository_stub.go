package calendar

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
)

type RepositoryStub struct {
	mu      sync.RWMutex
	items   map[string]Event // uid -> event
	userIds map[string]int   // uid -> userId
	nextId  int
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		items:   make(map[string]Event),
		userIds: make(map[string]int),
		nextId:  1,
	}
}

// WithTransaction restores the previous state when fn fails.
func (r *RepositoryStub) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	r.mu.Lock()
	items := maps.Clone(r.items)
	userIds := maps.Clone(r.userIds)
	nextId := r.nextId
	r.mu.Unlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.items, r.userIds, r.nextId = items, userIds, nextId
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *RepositoryStub) StoreEvent(ctx context.Context, userId int, event Event) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	event.UID = fmt.Sprintf("event-%d", r.nextId)
	r.nextId++
	r.items[event.UID] = event
	r.userIds[event.UID] = userId
	return event, nil
}

func (r *RepositoryStub) GetEvent(ctx context.Context, userId int, uid string) (Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	event, ok := r.items[uid]
	if !ok || r.userIds[uid] != userId {
		return Event{}, ErrEventNotFound
	}
	return event, nil
}

func (r *RepositoryStub) GetEvents(ctx context.Context, userId int, from, to time.Time) ([]Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Event
	for uid, event := range r.items {
		if r.userIds[uid] == userId && event.StartTime.Before(to) && event.EndTime.After(from) {
			result = append(result, event)
		}
	}
	sortEvents(result)
	return result, nil
}

func (r *RepositoryStub) UpdateEvent(ctx context.Context, userId int, event Event) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[event.UID]; !ok || r.userIds[event.UID] != userId {
		return Event{}, ErrEventNotFound
	}
	r.items[event.UID] = event
	return event, nil
}

func (r *RepositoryStub) DeleteEvent(ctx context.Context, userId int, uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[uid]; !ok || r.userIds[uid] != userId {
		return ErrEventNotFound
	}
	delete(r.items, uid)
	delete(r.userIds, uid)
	return nil
}

func (r *RepositoryStub) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = make(map[string]Event)
	r.userIds = make(map[string]int)
	r.nextId = 1
}

func sortEvents(events []Event) {
	slices.SortStableFunc(events, func(a, b Event) int {
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c
		}
		return strings.Compare(a.UID, b.UID)
	})
}
