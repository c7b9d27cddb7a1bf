package app

import (
	"database/sql"
	"fmt"

	"github.com/klokku/planner/internal/config"
	"github.com/klokku/planner/internal/event_bus"
	"github.com/klokku/planner/internal/utils"
	"github.com/klokku/planner/pkg/calendar"
	"github.com/klokku/planner/pkg/calendar_provider"
	"github.com/klokku/planner/pkg/google"
	"github.com/klokku/planner/pkg/intent"
	"github.com/klokku/planner/pkg/schedule"
	"github.com/klokku/planner/pkg/scheduling"
	"github.com/klokku/planner/pkg/user"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	UserService user.Service
	UserHandler *user.Handler

	GoogleTokens  *google.TokenStore
	GoogleAuth    *google.GoogleAuth
	GoogleService google.Service
	GoogleHandler *google.Handler

	LocalCalendarService *calendar.Service
	LocalCalendarHandler *calendar.Handler

	CalendarProvider        *calendar_provider.CalendarProvider
	CalendarMigrator        *calendar_provider.EventsMigrator
	CalendarMigratorHandler *calendar_provider.MigratorHandler

	IntentParser    intent.Parser
	Optimizer       *scheduling.Optimizer
	ScheduleService *schedule.Service
	ScheduleHandler *schedule.Handler

	EventBus *event_bus.EventBus
	Clock    utils.Clock
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *sql.DB, cfg config.Application) (*Dependencies, error) {
	deps := &Dependencies{}

	settings, err := cfg.Scheduling.EngineSettings()
	if err != nil {
		return nil, fmt.Errorf("invalid scheduling configuration: %w", err)
	}
	weekdays, err := cfg.Scheduling.Weekdays()
	if err != nil {
		return nil, fmt.Errorf("invalid scheduling configuration: %w", err)
	}
	minDuration, maxDuration := cfg.Scheduling.DurationBounds()

	deps.Clock = utils.SystemClock{}
	deps.EventBus = event_bus.NewEventBus()
	subscribeAuditLog(deps.EventBus)

	deps.UserService = user.NewUserService(user.NewUserRepo(db))
	deps.UserHandler = user.NewHandler(deps.UserService)

	deps.GoogleTokens = google.NewTokenStore(db)
	deps.GoogleAuth = google.NewGoogleAuth(deps.GoogleTokens, cfg)
	deps.GoogleService = google.NewService(deps.GoogleAuth)
	deps.GoogleHandler = google.NewHandler(deps.GoogleService)

	deps.LocalCalendarService = calendar.NewService(calendar.NewRepository(db))
	deps.LocalCalendarHandler = calendar.NewHandler(deps.LocalCalendarService)

	deps.CalendarProvider = calendar_provider.NewCalendarProvider(deps.UserService, deps.LocalCalendarService, deps.GoogleService)
	deps.CalendarMigrator = calendar_provider.NewEventsMigrator(deps.CalendarProvider)
	deps.CalendarMigratorHandler = calendar_provider.NewMigratorHandler(deps.CalendarMigrator)

	deps.IntentParser = intent.NewParser(cfg)
	deps.Optimizer = scheduling.NewOptimizer(settings)
	deps.ScheduleService = schedule.NewService(deps.CalendarProvider, deps.Optimizer, deps.IntentParser, deps.EventBus, deps.Clock, schedule.Limits{
		MinDuration:     minDuration,
		MaxDuration:     maxDuration,
		RoutineWeekdays: weekdays,
	})
	deps.ScheduleHandler = schedule.NewHandler(deps.ScheduleService)

	return deps, nil
}
