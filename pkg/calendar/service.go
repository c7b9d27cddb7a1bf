package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/klokku/planner/pkg/user"
	log "github.com/sirupsen/logrus"
)

// Service is the local calendar. It implements Calendar on top of the SQL repository.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

func (s *Service) AddEvent(ctx context.Context, event Event) (*Event, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}

	stored, err := s.repo.StoreEvent(ctx, userId, event)
	if err != nil {
		return nil, fmt.Errorf("failed to store event: %w", err)
	}
	log.Debugf("stored event %s (%s)", stored.UID, stored.Summary)
	return &stored, nil
}

func (s *Service) GetEvent(ctx context.Context, uid string) (*Event, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	event, err := s.repo.GetEvent(ctx, userId, uid)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *Service) GetEvents(ctx context.Context, from time.Time, to time.Time) ([]Event, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if !from.Before(to) {
		return nil, fmt.Errorf("%w: 'from' must be before 'to'", ErrInvalidEvent)
	}
	return s.repo.GetEvents(ctx, userId, from, to)
}

func (s *Service) ModifyEvent(ctx context.Context, event Event) (*Event, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if event.UID == "" {
		return nil, fmt.Errorf("%w: uid is required", ErrInvalidEvent)
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	updated, err := s.repo.UpdateEvent(ctx, userId, event)
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return &updated, nil
}

// ModifyEvents updates all events in one transaction.
func (s *Service) ModifyEvents(ctx context.Context, events []Event) ([]Event, error) {
	modified := make([]Event, 0, len(events))
	err := s.repo.WithTransaction(ctx, func(repo Repository) error {
		txService := NewService(repo)
		for _, event := range events {
			updated, err := txService.ModifyEvent(ctx, event)
			if err != nil {
				return err
			}
			modified = append(modified, *updated)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to perform transaction: %w", err)
	}
	return modified, nil
}

func (s *Service) DeleteEvent(ctx context.Context, uid string) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.DeleteEvent(ctx, userId, uid)
}
