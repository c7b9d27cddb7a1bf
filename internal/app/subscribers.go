package app

import (
	"context"

	"github.com/klokku/planner/internal/event_bus"
	"github.com/klokku/planner/pkg/user"
	log "github.com/sirupsen/logrus"
)

// subscribeAuditLog writes every schedule change to the log.
func subscribeAuditLog(bus *event_bus.EventBus) {
	event_bus.SubscribeTyped(bus, event_bus.TaskScheduledType, func(e event_bus.EventT[event_bus.TaskScheduled]) error {
		auditEntry(e.Context(), e.Type).WithFields(log.Fields{
			"uid":      e.Data.UID,
			"priority": e.Data.Priority,
			"start":    e.Data.StartTime,
			"end":      e.Data.EndTime,
		}).Infof("task %q scheduled", e.Data.Title)
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.EventRescheduledType, func(e event_bus.EventT[event_bus.EventRescheduled]) error {
		entry := auditEntry(e.Context(), e.Type).WithFields(log.Fields{
			"uid":   e.Data.UID,
			"start": e.Data.StartTime,
			"end":   e.Data.EndTime,
		})
		if !e.Data.RequestedStart.Equal(e.Data.StartTime) {
			entry = entry.WithField("requestedStart", e.Data.RequestedStart)
		}
		entry.Info("event rescheduled")
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.TimeBlockCreatedType, func(e event_bus.EventT[event_bus.TimeBlockCreated]) error {
		auditEntry(e.Context(), e.Type).WithFields(log.Fields{
			"uid":   e.Data.UID,
			"start": e.Data.StartTime,
			"end":   e.Data.EndTime,
		}).Infof("time block %q created", e.Data.Title)
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.DayOptimizedType, func(e event_bus.EventT[event_bus.DayOptimized]) error {
		auditEntry(e.Context(), e.Type).WithFields(log.Fields{
			"day":         e.Data.Day.Format("2006-01-02"),
			"events":      e.Data.Events,
			"rescheduled": e.Data.Rescheduled,
			"conflicts":   e.Data.Conflicts,
			"applied":     e.Data.Applied,
		}).Info("day optimized")
		return nil
	})
}

func auditEntry(ctx context.Context, eventType event_bus.EventType) *log.Entry {
	entry := log.WithField("event", string(eventType))
	if u, err := user.CurrentUser(ctx); err == nil {
		entry = entry.WithField("user", u.Uid)
	}
	return entry
}
